package service

import (
	"context"
	"errors"
	"testing"

	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/internal/app/repository"
	"github.com/ikkim/campus-backend/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type courseFixture struct {
	svc     CourseService
	db      *gorm.DB
	store   *cache.MemoryStore
	teacher *model.User
}

func setupCourseServiceTest(t *testing.T) courseFixture {
	testDB, store := setupServiceTest(t)
	courseRepo := repository.NewCourseRepository(testDB)
	bookRepo := repository.NewBookRepository(testDB)
	links := NewShortLinkService(repository.NewShortLinkRepository(testDB), courseRepo, bookRepo, store, &fakeQueue{}, "http://front")

	svc := NewCourseService(
		courseRepo,
		repository.NewVideoRepository(testDB),
		repository.NewEnrollmentRepository(testDB),
		repository.NewUserRepository(testDB),
		links,
		NewAuditService(repository.NewAuditLogRepository(testDB)),
		cache.NewInvalidator(store),
		nil,
		100,
	)
	return courseFixture{
		svc:     svc,
		db:      testDB,
		store:   store,
		teacher: createUser(t, testDB, "teacher", model.RoleTeacher, false),
	}
}

func TestCourseService_CreateValidation(t *testing.T) {
	f := setupCourseServiceTest(t)
	ctx := context.Background()
	actor := Actor{UserID: f.teacher.ID}

	course, err := f.svc.Create(ctx, actor, CourseInput{Name: "Go 101", Price: 500})
	require.NoError(t, err)
	assert.Equal(t, f.teacher.ID, course.TeacherID)

	var links int64
	require.NoError(t, f.db.Model(&model.ShortLink{}).Where("target_type = ? AND target_id = ?", model.ProductCourse, course.ID).Count(&links).Error)
	assert.Equal(t, int64(1), links)

	_, err = f.svc.Create(ctx, actor, CourseInput{Name: "Free but priced", IsFree: true, Price: 10})
	assert.ErrorIs(t, err, ErrInvalidCoursePrice)

	_, err = f.svc.Create(ctx, actor, CourseInput{Name: "Paid but zero"})
	assert.ErrorIs(t, err, ErrInvalidCoursePrice)

	_, err = f.svc.Create(ctx, actor, CourseInput{Name: "Go 101", Price: 800})
	var conflict *FieldConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, []string{"name"}, conflict.Fields)
}

func TestCourseService_DeleteInvalidatesCatalog(t *testing.T) {
	f := setupCourseServiceTest(t)
	ctx := context.Background()
	actor := Actor{UserID: f.teacher.ID}

	course, err := f.svc.Create(ctx, actor, CourseInput{Name: "Doomed", IsFree: true})
	require.NoError(t, err)

	student := createUser(t, f.db, "learner", model.RoleStudent, false)
	require.NoError(t, f.db.Omit("User", "Course").Create(&model.Enrollment{UserID: student.ID, CourseID: course.ID}).Error)

	all, err := f.svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	mine, err := f.svc.ListForStudent(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.True(t, f.store.Has(cache.KeyCoursesAll))

	require.NoError(t, f.svc.Delete(ctx, actor, course.ID))
	assert.False(t, f.store.Has(cache.KeyCoursesAll))
	assert.False(t, f.store.Has(cache.KeyStudentCourses(student.ID)))

	all, err = f.svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	mine, err = f.svc.ListForStudent(ctx, student.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestCourseService_OnlyOwnerOrStaffManages(t *testing.T) {
	f := setupCourseServiceTest(t)
	ctx := context.Background()

	course, err := f.svc.Create(ctx, Actor{UserID: f.teacher.ID}, CourseInput{Name: "Mine", Price: 100})
	require.NoError(t, err)

	other := createUser(t, f.db, "other", model.RoleTeacher, false)
	_, err = f.svc.CreateVideo(ctx, Actor{UserID: other.ID}, course.ID, VideoInput{VideoURL: "http://v/1.mp4"})
	assert.ErrorIs(t, err, ErrCourseNotFound)

	staff := createUser(t, f.db, "admin", model.RoleTeacher, true)
	video, err := f.svc.CreateVideo(ctx, Actor{UserID: staff.ID, IsStaff: true}, course.ID, VideoInput{VideoURL: "http://v/1.mp4"})
	require.NoError(t, err)

	var audits int64
	require.NoError(t, f.db.Model(&model.AuditLog{}).Where("object_type = ? AND object_id = ?", "video_course", video.ID).Count(&audits).Error)
	assert.Equal(t, int64(1), audits)

	err = f.svc.DeleteVideo(ctx, Actor{UserID: other.ID}, video.ID)
	assert.ErrorIs(t, err, ErrVideoNotFound)
}

func TestCourseService_VideoVisibility(t *testing.T) {
	f := setupCourseServiceTest(t)
	ctx := context.Background()
	owner := Actor{UserID: f.teacher.ID}

	course, err := f.svc.Create(ctx, owner, CourseInput{Name: "Paid", Price: 900})
	require.NoError(t, err)
	_, err = f.svc.CreateVideo(ctx, owner, course.ID, VideoInput{VideoURL: "http://v/free.mp4", IsFree: true})
	require.NoError(t, err)
	_, err = f.svc.CreateVideo(ctx, owner, course.ID, VideoInput{VideoURL: "http://v/paid.mp4"})
	require.NoError(t, err)

	visitor := createUser(t, f.db, "visitor", model.RoleStudent, false)
	videos, err := f.svc.ListVideos(ctx, Actor{UserID: visitor.ID}, course.ID)
	require.NoError(t, err)
	assert.Len(t, videos, 1)

	videos, err = f.svc.ListVideos(ctx, owner, course.ID)
	require.NoError(t, err)
	assert.Len(t, videos, 2)

	_, err = f.svc.ListVideos(ctx, owner, 9999)
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestCourseService_PresignRequiresStorage(t *testing.T) {
	f := setupCourseServiceTest(t)
	_, err := f.svc.PresignVideoUpload(context.Background(), Actor{UserID: f.teacher.ID}, 1, VideoUploadRequest{Filename: "a.mp4"})
	assert.ErrorIs(t, err, ErrUploadsDisabled)
}

func TestCourseService_UpdateRefreshesEnrollmentViews(t *testing.T) {
	f := setupCourseServiceTest(t)
	ctx := context.Background()
	enrollments := NewEnrollmentService(
		repository.NewEnrollmentRepository(f.db),
		repository.NewCourseRepository(f.db),
		repository.NewUserRepository(f.db),
		NewAuditService(repository.NewAuditLogRepository(f.db)),
		cache.NewInvalidator(f.store),
	)

	course, err := f.svc.Create(ctx, Actor{UserID: f.teacher.ID}, CourseInput{Name: "Old", IsFree: true})
	require.NoError(t, err)
	student := createUser(t, f.db, "student", model.RoleStudent, false)
	_, err = enrollments.Enroll(ctx, Actor{UserID: student.ID}, course.ID)
	require.NoError(t, err)

	mine, err := enrollments.ListMine(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Old", mine[0].Course.Name)

	_, err = f.svc.Update(ctx, Actor{UserID: f.teacher.ID}, course.ID, CourseInput{Name: "New", IsFree: true})
	require.NoError(t, err)
	assert.False(t, f.store.Has(cache.KeyUserEnrollments(student.ID)))

	mine, err = enrollments.ListMine(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "New", mine[0].Course.Name)
}
