package service

import (
	"context"
	"errors"

	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/internal/app/repository"
	"github.com/ikkim/campus-backend/internal/cache"
	"github.com/ikkim/campus-backend/pkg/logger"
)

var (
	ErrEnrollmentNotFound    = errors.New("enrollment not found")
	ErrAlreadyEnrolled       = errors.New("user is already enrolled in this course")
	ErrOwnCourseEnrollment   = errors.New("teachers cannot enroll in their own course")
	ErrCourseRequiresPayment = errors.New("paid courses are enrolled through payment")
	ErrStaffEnrollment       = errors.New("staff accounts cannot enroll")
)

type EnrollmentService interface {
	// Enroll is the user path: free courses only.
	Enroll(ctx context.Context, actor Actor, courseID uint) (*model.Enrollment, error)
	// Grant is the management path and skips the price check.
	Grant(ctx context.Context, actor Actor, userID, courseID uint) (*model.Enrollment, error)
	ListMine(ctx context.Context, userID uint) ([]model.Enrollment, error)
	ListAll() ([]model.Enrollment, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

type enrollmentService struct {
	enrollmentRepo repository.EnrollmentRepository
	courseRepo     repository.CourseRepository
	userRepo       repository.UserRepository
	audit          AuditService
	cache          cache.Store
	invalidator    *cache.Invalidator
}

func NewEnrollmentService(
	enrollmentRepo repository.EnrollmentRepository,
	courseRepo repository.CourseRepository,
	userRepo repository.UserRepository,
	audit AuditService,
	invalidator *cache.Invalidator,
) EnrollmentService {
	return &enrollmentService{
		enrollmentRepo: enrollmentRepo,
		courseRepo:     courseRepo,
		userRepo:       userRepo,
		audit:          audit,
		cache:          invalidator.Store(),
		invalidator:    invalidator,
	}
}

func (s *enrollmentService) Enroll(ctx context.Context, actor Actor, courseID uint) (*model.Enrollment, error) {
	if actor.IsStaff {
		return nil, ErrStaffEnrollment
	}
	return s.create(ctx, actor, actor.UserID, courseID, true)
}

func (s *enrollmentService) Grant(ctx context.Context, actor Actor, userID, courseID uint) (*model.Enrollment, error) {
	if _, err := s.userRepo.FindByID(userID); err != nil {
		return nil, notFoundOr(err, ErrUserNotFound)
	}
	return s.create(ctx, actor, userID, courseID, false)
}

func (s *enrollmentService) create(ctx context.Context, actor Actor, userID, courseID uint, requireFree bool) (*model.Enrollment, error) {
	course, err := s.courseRepo.FindByID(courseID)
	if err != nil {
		return nil, notFoundOr(err, ErrCourseNotFound)
	}
	if course.TeacherID == userID {
		logger.Warn("Teacher tried to enroll in own course", map[string]interface{}{
			"user_id":   userID,
			"course_id": courseID,
		})
		return nil, ErrOwnCourseEnrollment
	}
	if requireFree && !course.IsFree {
		return nil, ErrCourseRequiresPayment
	}

	exists, err := s.enrollmentRepo.Exists(userID, courseID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyEnrolled
	}

	enrollment := &model.Enrollment{UserID: userID, CourseID: courseID}
	if err := s.enrollmentRepo.Create(enrollment); err != nil {
		if isDuplicate(err) {
			return nil, ErrAlreadyEnrolled
		}
		return nil, err
	}

	s.invalidator.Apply(ctx, cache.Mutation{Kind: cache.EnrollmentChanged, CourseID: courseID, UserIDs: []uint{userID}})
	s.audit.Record(actor, model.AuditCreate, "enrollment", enrollment.ID, []string{"user_id", "course_id"})

	logger.Info("User enrolled", map[string]interface{}{
		"user_id":   userID,
		"course_id": courseID,
	})
	return enrollment, nil
}

func (s *enrollmentService) ListMine(ctx context.Context, userID uint) ([]model.Enrollment, error) {
	return cache.Remember(ctx, s.cache, cache.KeyUserEnrollments(userID), cache.TTLCatalog, func() ([]model.Enrollment, error) {
		return s.enrollmentRepo.FindByUser(userID)
	})
}

func (s *enrollmentService) ListAll() ([]model.Enrollment, error) {
	return s.enrollmentRepo.FindAll()
}

// Delete lets a user drop their own enrollment; staff may drop any.
func (s *enrollmentService) Delete(ctx context.Context, actor Actor, id uint) error {
	enrollment, err := s.enrollmentRepo.FindByID(id)
	if err != nil {
		return notFoundOr(err, ErrEnrollmentNotFound)
	}
	if !actor.IsStaff && enrollment.UserID != actor.UserID {
		return ErrEnrollmentNotFound
	}
	if err := s.enrollmentRepo.Delete(enrollment.ID); err != nil {
		return err
	}

	s.invalidator.Apply(ctx, cache.Mutation{Kind: cache.EnrollmentChanged, CourseID: enrollment.CourseID, UserIDs: []uint{enrollment.UserID}})
	s.audit.Record(actor, model.AuditDelete, "enrollment", enrollment.ID, nil)
	return nil
}
