package service

import (
	"context"
	"testing"

	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/internal/app/repository"
	"github.com/ikkim/campus-backend/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupEnrollmentServiceTest(t *testing.T) (EnrollmentService, *gorm.DB, *cache.MemoryStore) {
	testDB, store := setupServiceTest(t)
	svc := NewEnrollmentService(
		repository.NewEnrollmentRepository(testDB),
		repository.NewCourseRepository(testDB),
		repository.NewUserRepository(testDB),
		NewAuditService(repository.NewAuditLogRepository(testDB)),
		cache.NewInvalidator(store),
	)
	return svc, testDB, store
}

func TestEnrollmentService_TeacherCannotEnrollInOwnCourse(t *testing.T) {
	svc, testDB, _ := setupEnrollmentServiceTest(t)
	ctx := context.Background()

	teacher := createUser(t, testDB, "teacher", model.RoleTeacher, false)
	course := createCourse(t, testDB, teacher.ID, "Intro", 0)

	enrollment, err := svc.Enroll(ctx, Actor{UserID: teacher.ID}, course.ID)
	assert.ErrorIs(t, err, ErrOwnCourseEnrollment)
	assert.Nil(t, enrollment)

	staff := createUser(t, testDB, "staff", model.RoleTeacher, true)
	_, err = svc.Grant(ctx, Actor{UserID: staff.ID, IsStaff: true}, teacher.ID, course.ID)
	assert.ErrorIs(t, err, ErrOwnCourseEnrollment)

	other := createUser(t, testDB, "colleague", model.RoleTeacher, false)
	_, err = svc.Enroll(ctx, Actor{UserID: other.ID}, course.ID)
	assert.NoError(t, err)
}

func TestEnrollmentService_Enroll(t *testing.T) {
	svc, testDB, store := setupEnrollmentServiceTest(t)
	ctx := context.Background()

	teacher := createUser(t, testDB, "teacher", model.RoleTeacher, false)
	student := createUser(t, testDB, "student", model.RoleStudent, false)
	free := createCourse(t, testDB, teacher.ID, "Free", 0)
	paid := createCourse(t, testDB, teacher.ID, "Paid", 1000)
	actor := Actor{UserID: student.ID}

	mine, err := svc.ListMine(ctx, student.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)
	assert.True(t, store.Has(cache.KeyUserEnrollments(student.ID)))

	enrollment, err := svc.Enroll(ctx, actor, free.ID)
	require.NoError(t, err)
	assert.False(t, store.Has(cache.KeyUserEnrollments(student.ID)))

	_, err = svc.Enroll(ctx, actor, free.ID)
	assert.ErrorIs(t, err, ErrAlreadyEnrolled)

	_, err = svc.Enroll(ctx, actor, paid.ID)
	assert.ErrorIs(t, err, ErrCourseRequiresPayment)

	_, err = svc.Enroll(ctx, actor, 4040)
	assert.ErrorIs(t, err, ErrCourseNotFound)

	intruder := createUser(t, testDB, "intruder", model.RoleStudent, false)
	assert.ErrorIs(t, svc.Delete(ctx, Actor{UserID: intruder.ID}, enrollment.ID), ErrEnrollmentNotFound)
	require.NoError(t, svc.Delete(ctx, actor, enrollment.ID))

	mine, err = svc.ListMine(ctx, student.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

// staleExistsRepo reports no enrollment, as a request that lost the insert race would see.
type staleExistsRepo struct {
	repository.EnrollmentRepository
}

func (staleExistsRepo) Exists(userID, courseID uint) (bool, error) {
	return false, nil
}

func TestEnrollmentService_ConcurrentDuplicateIsAlreadyEnrolled(t *testing.T) {
	testDB, store := setupServiceTest(t)
	enrollments := repository.NewEnrollmentRepository(testDB)
	svc := NewEnrollmentService(
		staleExistsRepo{enrollments},
		repository.NewCourseRepository(testDB),
		repository.NewUserRepository(testDB),
		NewAuditService(repository.NewAuditLogRepository(testDB)),
		cache.NewInvalidator(store),
	)
	ctx := context.Background()

	teacher := createUser(t, testDB, "teacher", model.RoleTeacher, false)
	student := createUser(t, testDB, "student", model.RoleStudent, false)
	course := createCourse(t, testDB, teacher.ID, "Free", 0)

	_, err := svc.Enroll(ctx, Actor{UserID: student.ID}, course.ID)
	require.NoError(t, err)

	enrollment, err := svc.Enroll(ctx, Actor{UserID: student.ID}, course.ID)
	assert.ErrorIs(t, err, ErrAlreadyEnrolled)
	assert.Nil(t, enrollment)

	var count int64
	testDB.Model(&model.Enrollment{}).Count(&count)
	assert.Equal(t, int64(1), count)
}
