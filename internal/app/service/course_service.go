package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/internal/app/repository"
	"github.com/ikkim/campus-backend/internal/cache"
	"github.com/ikkim/campus-backend/internal/storage"
	"github.com/ikkim/campus-backend/pkg/logger"
)

var (
	ErrCourseNotFound     = errors.New("course not found")
	ErrVideoNotFound      = errors.New("video not found")
	ErrInvalidCoursePrice = errors.New("free courses must have price 0 and paid courses a positive price")
	ErrTeacherNotFound    = errors.New("teacher not found")
	ErrUploadsDisabled    = errors.New("object storage is not configured")
)

var (
	videoExtensions   = []string{".mp4"}
	videoContentTypes = []string{"video/mp4"}
)

type CourseInput struct {
	Name        string
	Description string
	IsFree      bool
	Price       int64
	// TeacherID is honored for staff only; teachers always create for themselves.
	TeacherID uint
}

type VideoInput struct {
	Description string
	VideoURL    string
	IsFree      bool
}

type VideoUploadRequest struct {
	Filename    string
	ContentType string
	Size        int64
}

type CourseService interface {
	ListAll(ctx context.Context) ([]model.Course, error)
	ListForStudent(ctx context.Context, userID uint) ([]model.Course, error)
	ListForTeacher(teacherID uint) ([]model.Course, error)
	ListWithStudentCount() ([]repository.CourseWithStudents, error)
	Get(actor Actor, id uint) (*model.Course, error)
	Create(ctx context.Context, actor Actor, input CourseInput) (*model.Course, error)
	Update(ctx context.Context, actor Actor, id uint, input CourseInput) (*model.Course, error)
	Delete(ctx context.Context, actor Actor, id uint) error

	ListVideos(ctx context.Context, actor Actor, courseID uint) ([]model.VideoCourse, error)
	ListAllVideos() ([]model.VideoCourse, error)
	CreateVideo(ctx context.Context, actor Actor, courseID uint, input VideoInput) (*model.VideoCourse, error)
	UpdateVideo(ctx context.Context, actor Actor, videoID uint, input VideoInput) (*model.VideoCourse, error)
	DeleteVideo(ctx context.Context, actor Actor, videoID uint) error
	PresignVideoUpload(ctx context.Context, actor Actor, courseID uint, req VideoUploadRequest) (*storage.PresignedURLResponse, error)
}

type courseService struct {
	courseRepo     repository.CourseRepository
	videoRepo      repository.VideoRepository
	enrollmentRepo repository.EnrollmentRepository
	userRepo       repository.UserRepository
	links          ShortLinkService
	audit          AuditService
	cache          cache.Store
	invalidator    *cache.Invalidator
	objects        storage.ObjectStore
	maxVideoMB     int64
}

func NewCourseService(
	courseRepo repository.CourseRepository,
	videoRepo repository.VideoRepository,
	enrollmentRepo repository.EnrollmentRepository,
	userRepo repository.UserRepository,
	links ShortLinkService,
	audit AuditService,
	invalidator *cache.Invalidator,
	objects storage.ObjectStore,
	maxVideoMB int64,
) CourseService {
	return &courseService{
		courseRepo:     courseRepo,
		videoRepo:      videoRepo,
		enrollmentRepo: enrollmentRepo,
		userRepo:       userRepo,
		links:          links,
		audit:          audit,
		cache:          invalidator.Store(),
		invalidator:    invalidator,
		objects:        objects,
		maxVideoMB:     maxVideoMB,
	}
}

func (s *courseService) ListAll(ctx context.Context) ([]model.Course, error) {
	return cache.Remember(ctx, s.cache, cache.KeyCoursesAll, cache.TTLCatalog, s.courseRepo.FindAll)
}

func (s *courseService) ListForStudent(ctx context.Context, userID uint) ([]model.Course, error) {
	return cache.Remember(ctx, s.cache, cache.KeyStudentCourses(userID), cache.TTLCatalog, func() ([]model.Course, error) {
		return s.courseRepo.FindByStudent(userID)
	})
}

func (s *courseService) ListForTeacher(teacherID uint) ([]model.Course, error) {
	return s.courseRepo.FindByTeacher(teacherID)
}

func (s *courseService) ListWithStudentCount() ([]repository.CourseWithStudents, error) {
	return s.courseRepo.FindAllWithStudentCount()
}

// owned loads a course the actor may manage. Staff see every course.
func (s *courseService) owned(actor Actor, id uint) (*model.Course, error) {
	var (
		course *model.Course
		err    error
	)
	if actor.IsStaff {
		course, err = s.courseRepo.FindByID(id)
	} else {
		course, err = s.courseRepo.FindByIDAndTeacher(id, actor.UserID)
	}
	if err != nil {
		return nil, notFoundOr(err, ErrCourseNotFound)
	}
	return course, nil
}

func (s *courseService) Get(actor Actor, id uint) (*model.Course, error) {
	return s.owned(actor, id)
}

func (s *courseService) validate(input *CourseInput, teacherID, excludeID uint) error {
	input.Name = strings.TrimSpace(input.Name)
	probe := model.Course{IsFree: input.IsFree, Price: input.Price}
	if !probe.PriceConsistent() {
		return ErrInvalidCoursePrice
	}

	exists, err := s.courseRepo.ExistsByTeacherAndName(teacherID, input.Name, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return &FieldConflictError{Fields: []string{"name"}}
	}
	return nil
}

func (s *courseService) resolveTeacher(actor Actor, requested uint) (uint, error) {
	if !actor.IsStaff || requested == 0 {
		return actor.UserID, nil
	}
	teacher, err := s.userRepo.FindByID(requested)
	if err != nil {
		return 0, notFoundOr(err, ErrTeacherNotFound)
	}
	if teacher.Role != model.RoleTeacher {
		return 0, ErrTeacherNotFound
	}
	return teacher.ID, nil
}

func (s *courseService) Create(ctx context.Context, actor Actor, input CourseInput) (*model.Course, error) {
	teacherID, err := s.resolveTeacher(actor, input.TeacherID)
	if err != nil {
		return nil, err
	}
	if err := s.validate(&input, teacherID, 0); err != nil {
		return nil, err
	}

	course := &model.Course{
		Name:        input.Name,
		Description: input.Description,
		IsFree:      input.IsFree,
		Price:       input.Price,
		TeacherID:   teacherID,
	}
	if err := s.courseRepo.Create(course); err != nil {
		return nil, err
	}

	s.links.EnsureFor(ctx, model.ProductCourse, course.ID)
	s.invalidator.Apply(ctx, cache.Mutation{Kind: cache.CourseChanged})
	s.audit.Record(actor, model.AuditCreate, "course", course.ID, []string{"name", "description", "is_free", "price", "teacher_id"})

	logger.Info("Course created", map[string]interface{}{
		"course_id":  course.ID,
		"teacher_id": teacherID,
	})
	return course, nil
}

func (s *courseService) Update(ctx context.Context, actor Actor, id uint, input CourseInput) (*model.Course, error) {
	course, err := s.owned(actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(&input, course.TeacherID, course.ID); err != nil {
		return nil, err
	}

	var changed []string
	if course.Name != input.Name {
		changed = append(changed, "name")
	}
	if course.Description != input.Description {
		changed = append(changed, "description")
	}
	if course.IsFree != input.IsFree || course.Price != input.Price {
		changed = append(changed, "price")
	}

	course.Name = input.Name
	course.Description = input.Description
	course.IsFree = input.IsFree
	course.Price = input.Price
	if err := s.courseRepo.Update(course); err != nil {
		return nil, err
	}

	enrolled, err := s.courseRepo.EnrolledUserIDs(course.ID)
	if err != nil {
		logger.Warn("Could not load enrolled users for invalidation", map[string]interface{}{
			"course_id": course.ID,
			"error":     err.Error(),
		})
	}
	s.invalidator.Apply(ctx, cache.Mutation{Kind: cache.CourseChanged, CourseID: course.ID, UserIDs: enrolled})
	s.audit.Record(actor, model.AuditUpdate, "course", course.ID, changed)
	return course, nil
}

// Delete captures the enrolled users first; their per-user views must be dropped too.
func (s *courseService) Delete(ctx context.Context, actor Actor, id uint) error {
	course, err := s.owned(actor, id)
	if err != nil {
		return err
	}

	enrolled, err := s.courseRepo.EnrolledUserIDs(course.ID)
	if err != nil {
		return err
	}
	if err := s.courseRepo.Delete(course.ID); err != nil {
		return err
	}

	s.links.Forget(ctx, model.ProductCourse, course.ID)
	s.invalidator.Apply(ctx, cache.Mutation{Kind: cache.CourseDeleted, CourseID: course.ID, UserIDs: enrolled})
	s.audit.Record(actor, model.AuditDelete, "course", course.ID, nil)

	logger.Info("Course deleted", map[string]interface{}{
		"course_id":         course.ID,
		"enrolled_students": len(enrolled),
	})
	return nil
}

// ListVideos shows free videos to everyone and the full list to enrolled users,
// the course's teacher and staff.
func (s *courseService) ListVideos(ctx context.Context, actor Actor, courseID uint) ([]model.VideoCourse, error) {
	course, err := s.courseRepo.FindByID(courseID)
	if err != nil {
		return nil, notFoundOr(err, ErrCourseNotFound)
	}

	return cache.Remember(ctx, s.cache, cache.KeyCourseVideos(courseID, actor.UserID), cache.TTLCatalog, func() ([]model.VideoCourse, error) {
		full := actor.IsStaff || course.TeacherID == actor.UserID
		if !full {
			enrolled, err := s.enrollmentRepo.Exists(actor.UserID, courseID)
			if err != nil {
				return nil, err
			}
			full = enrolled
		}
		return s.videoRepo.FindByCourse(courseID, !full)
	})
}

func (s *courseService) ListAllVideos() ([]model.VideoCourse, error) {
	return s.videoRepo.FindAll()
}

func (s *courseService) CreateVideo(ctx context.Context, actor Actor, courseID uint, input VideoInput) (*model.VideoCourse, error) {
	course, err := s.owned(actor, courseID)
	if err != nil {
		return nil, err
	}

	video := &model.VideoCourse{
		CourseID:    course.ID,
		Description: input.Description,
		VideoURL:    input.VideoURL,
		IsFree:      input.IsFree,
	}
	if err := s.videoRepo.Create(video); err != nil {
		return nil, err
	}

	s.invalidator.Apply(ctx, cache.Mutation{Kind: cache.VideoChanged, CourseID: course.ID})
	s.audit.Record(actor, model.AuditCreate, "video_course", video.ID, []string{"description", "video_url", "is_free"})
	return video, nil
}

func (s *courseService) ownedVideo(actor Actor, videoID uint) (*model.VideoCourse, error) {
	video, err := s.videoRepo.FindByID(videoID)
	if err != nil {
		return nil, notFoundOr(err, ErrVideoNotFound)
	}
	if _, err := s.owned(actor, video.CourseID); err != nil {
		if errors.Is(err, ErrCourseNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}
	return video, nil
}

func (s *courseService) UpdateVideo(ctx context.Context, actor Actor, videoID uint, input VideoInput) (*model.VideoCourse, error) {
	video, err := s.ownedVideo(actor, videoID)
	if err != nil {
		return nil, err
	}

	video.Description = input.Description
	if input.VideoURL != "" {
		video.VideoURL = input.VideoURL
	}
	video.IsFree = input.IsFree
	if err := s.videoRepo.Update(video); err != nil {
		return nil, err
	}

	s.invalidator.Apply(ctx, cache.Mutation{Kind: cache.VideoChanged, CourseID: video.CourseID})
	s.audit.Record(actor, model.AuditUpdate, "video_course", video.ID, []string{"description", "video_url", "is_free"})
	return video, nil
}

func (s *courseService) DeleteVideo(ctx context.Context, actor Actor, videoID uint) error {
	video, err := s.ownedVideo(actor, videoID)
	if err != nil {
		return err
	}
	if err := s.videoRepo.Delete(video.ID); err != nil {
		return err
	}

	s.invalidator.Apply(ctx, cache.Mutation{Kind: cache.VideoChanged, CourseID: video.CourseID})
	s.audit.Record(actor, model.AuditDelete, "video_course", video.ID, nil)
	return nil
}

func (s *courseService) PresignVideoUpload(ctx context.Context, actor Actor, courseID uint, req VideoUploadRequest) (*storage.PresignedURLResponse, error) {
	if s.objects == nil {
		return nil, ErrUploadsDisabled
	}
	course, err := s.owned(actor, courseID)
	if err != nil {
		return nil, err
	}

	if err := storage.ValidateExtension(req.Filename, videoExtensions); err != nil {
		return nil, err
	}
	if err := storage.ValidateContentType(req.ContentType, videoContentTypes); err != nil {
		return nil, err
	}
	if err := storage.ValidateFileSize(req.Size, s.maxVideoMB); err != nil {
		return nil, err
	}

	return s.objects.PresignUpload(ctx, req.Filename, req.ContentType, fmt.Sprintf("courses/%d/videos", course.ID))
}
