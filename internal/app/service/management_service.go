package service

import (
	"context"
	"errors"
	"strings"

	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/internal/app/repository"
	"github.com/ikkim/campus-backend/internal/cache"
	"github.com/ikkim/campus-backend/pkg/logger"
)

var (
	ErrStudentNotFound        = errors.New("student not found")
	ErrUniversityNotFound     = errors.New("university not found")
	ErrEducationStudyNotFound = errors.New("education study not found")
	ErrNameRequired           = errors.New("name is required")
)

type StudentUpdate struct {
	UniversityID     *uint
	EducationStudyID *uint
}

type UniversityInput struct {
	Name string
	City string
}

// ManagementService is the staff-only surface over user profiles and reference data.
type ManagementService interface {
	ListStudents(filter repository.StudentFilter) ([]model.Student, error)
	GetStudent(userID uint) (*model.Student, error)
	UpdateStudent(ctx context.Context, actor Actor, userID uint, input StudentUpdate) (*model.Student, error)
	DeleteStudent(ctx context.Context, actor Actor, userID uint) error

	ListTeachers(name string) ([]model.Teacher, error)
	GetTeacher(userID uint) (*model.Teacher, error)
	SetTeacherUniversities(ctx context.Context, actor Actor, userID uint, universityIDs []uint) (*model.Teacher, error)
	DeleteTeacher(ctx context.Context, actor Actor, userID uint) error

	ListUniversities() ([]model.University, error)
	CreateUniversity(actor Actor, input UniversityInput) (*model.University, error)
	UpdateUniversity(actor Actor, id uint, input UniversityInput) (*model.University, error)
	DeleteUniversity(actor Actor, id uint) error

	ListEducationStudies() ([]model.EducationStudy, error)
	CreateEducationStudy(actor Actor, name string) (*model.EducationStudy, error)
	UpdateEducationStudy(actor Actor, id uint, name string) (*model.EducationStudy, error)
	DeleteEducationStudy(actor Actor, id uint) error
}

type managementService struct {
	studentRepo repository.StudentRepository
	teacherRepo repository.TeacherRepository
	refRepo     repository.ReferenceRepository
	audit       AuditService
	invalidator *cache.Invalidator
}

func NewManagementService(
	studentRepo repository.StudentRepository,
	teacherRepo repository.TeacherRepository,
	refRepo repository.ReferenceRepository,
	audit AuditService,
	invalidator *cache.Invalidator,
) ManagementService {
	return &managementService{
		studentRepo: studentRepo,
		teacherRepo: teacherRepo,
		refRepo:     refRepo,
		audit:       audit,
		invalidator: invalidator,
	}
}

func (s *managementService) ListStudents(filter repository.StudentFilter) ([]model.Student, error) {
	return s.studentRepo.List(filter)
}

func (s *managementService) GetStudent(userID uint) (*model.Student, error) {
	student, err := s.studentRepo.FindByUserID(userID)
	if err != nil {
		return nil, notFoundOr(err, ErrStudentNotFound)
	}
	return student, nil
}

func (s *managementService) UpdateStudent(ctx context.Context, actor Actor, userID uint, input StudentUpdate) (*model.Student, error) {
	student, err := s.GetStudent(userID)
	if err != nil {
		return nil, err
	}

	var changed []string
	if input.UniversityID != nil {
		if _, err := s.refRepo.FindUniversity(*input.UniversityID); err != nil {
			return nil, notFoundOr(err, ErrInvalidUniversity)
		}
		student.UniversityID = input.UniversityID
		changed = append(changed, "university")
	}
	if input.EducationStudyID != nil {
		if _, err := s.refRepo.FindEducationStudy(*input.EducationStudyID); err != nil {
			return nil, notFoundOr(err, ErrInvalidEducationStudy)
		}
		student.EducationStudyID = input.EducationStudyID
		changed = append(changed, "education_study")
	}
	if len(changed) == 0 {
		return student, nil
	}

	if err := s.studentRepo.Update(student); err != nil {
		return nil, err
	}
	s.audit.Record(actor, model.AuditUpdate, "student", userID, changed)
	s.invalidator.Apply(ctx, cache.Mutation{Kind: cache.UserChanged, UserIDs: []uint{userID}})
	return s.GetStudent(userID)
}

func (s *managementService) DeleteStudent(ctx context.Context, actor Actor, userID uint) error {
	if _, err := s.GetStudent(userID); err != nil {
		return err
	}
	if err := s.studentRepo.Delete(userID); err != nil {
		return err
	}
	logger.Info("Student deleted", map[string]interface{}{
		"user_id":  userID,
		"actor_id": actor.UserID,
	})
	s.audit.Record(actor, model.AuditDelete, "student", userID, nil)
	s.invalidator.Apply(ctx, cache.Mutation{Kind: cache.UserChanged, UserIDs: []uint{userID}})
	return nil
}

func (s *managementService) ListTeachers(name string) ([]model.Teacher, error) {
	return s.teacherRepo.List(strings.TrimSpace(name))
}

func (s *managementService) GetTeacher(userID uint) (*model.Teacher, error) {
	teacher, err := s.teacherRepo.FindByUserID(userID)
	if err != nil {
		return nil, notFoundOr(err, ErrTeacherNotFound)
	}
	return teacher, nil
}

func (s *managementService) SetTeacherUniversities(ctx context.Context, actor Actor, userID uint, universityIDs []uint) (*model.Teacher, error) {
	if _, err := s.GetTeacher(userID); err != nil {
		return nil, err
	}
	ids := uniqueIDs(universityIDs)
	if len(ids) == 0 {
		return nil, ErrTeacherNeedsUniversity
	}
	count, err := s.refRepo.CountUniversities(ids)
	if err != nil {
		return nil, err
	}
	if int(count) != len(ids) {
		return nil, ErrInvalidUniversity
	}

	if err := s.teacherRepo.ReplaceUniversities(userID, ids); err != nil {
		return nil, err
	}
	s.audit.Record(actor, model.AuditUpdate, "teacher", userID, []string{"universities"})
	s.invalidator.Apply(ctx, cache.Mutation{Kind: cache.UserChanged, UserIDs: []uint{userID}})
	return s.GetTeacher(userID)
}

func (s *managementService) DeleteTeacher(ctx context.Context, actor Actor, userID uint) error {
	if _, err := s.GetTeacher(userID); err != nil {
		return err
	}
	if err := s.teacherRepo.Delete(userID); err != nil {
		return err
	}
	logger.Info("Teacher deleted", map[string]interface{}{
		"user_id":  userID,
		"actor_id": actor.UserID,
	})
	s.audit.Record(actor, model.AuditDelete, "teacher", userID, nil)
	// Courses cascade with the teacher, so the catalog goes too.
	s.invalidator.Apply(ctx,
		cache.Mutation{Kind: cache.UserChanged, UserIDs: []uint{userID}},
		cache.Mutation{Kind: cache.CourseChanged, UserIDs: []uint{userID}},
	)
	return nil
}

func (s *managementService) ListUniversities() ([]model.University, error) {
	return s.refRepo.ListUniversities()
}

func (s *managementService) CreateUniversity(actor Actor, input UniversityInput) (*model.University, error) {
	u := &model.University{Name: strings.TrimSpace(input.Name), City: strings.TrimSpace(input.City)}
	if u.Name == "" {
		return nil, ErrNameRequired
	}
	if err := s.refRepo.SaveUniversity(u); err != nil {
		return nil, err
	}
	s.audit.Record(actor, model.AuditCreate, "university", u.ID, []string{"name", "city"})
	return u, nil
}

func (s *managementService) UpdateUniversity(actor Actor, id uint, input UniversityInput) (*model.University, error) {
	u, err := s.refRepo.FindUniversity(id)
	if err != nil {
		return nil, notFoundOr(err, ErrUniversityNotFound)
	}
	u.Name = strings.TrimSpace(input.Name)
	u.City = strings.TrimSpace(input.City)
	if u.Name == "" {
		return nil, ErrNameRequired
	}
	if err := s.refRepo.SaveUniversity(u); err != nil {
		return nil, err
	}
	s.audit.Record(actor, model.AuditUpdate, "university", id, []string{"name", "city"})
	return u, nil
}

func (s *managementService) DeleteUniversity(actor Actor, id uint) error {
	if _, err := s.refRepo.FindUniversity(id); err != nil {
		return notFoundOr(err, ErrUniversityNotFound)
	}
	if err := s.refRepo.DeleteUniversity(id); err != nil {
		return err
	}
	s.audit.Record(actor, model.AuditDelete, "university", id, nil)
	return nil
}

func (s *managementService) ListEducationStudies() ([]model.EducationStudy, error) {
	return s.refRepo.ListEducationStudies()
}

func (s *managementService) CreateEducationStudy(actor Actor, name string) (*model.EducationStudy, error) {
	e := &model.EducationStudy{Name: strings.TrimSpace(name)}
	if e.Name == "" {
		return nil, ErrNameRequired
	}
	if err := s.refRepo.SaveEducationStudy(e); err != nil {
		return nil, err
	}
	s.audit.Record(actor, model.AuditCreate, "education_study", e.ID, []string{"name"})
	return e, nil
}

func (s *managementService) UpdateEducationStudy(actor Actor, id uint, name string) (*model.EducationStudy, error) {
	e, err := s.refRepo.FindEducationStudy(id)
	if err != nil {
		return nil, notFoundOr(err, ErrEducationStudyNotFound)
	}
	e.Name = strings.TrimSpace(name)
	if e.Name == "" {
		return nil, ErrNameRequired
	}
	if err := s.refRepo.SaveEducationStudy(e); err != nil {
		return nil, err
	}
	s.audit.Record(actor, model.AuditUpdate, "education_study", id, []string{"name"})
	return e, nil
}

func (s *managementService) DeleteEducationStudy(actor Actor, id uint) error {
	if _, err := s.refRepo.FindEducationStudy(id); err != nil {
		return notFoundOr(err, ErrEducationStudyNotFound)
	}
	if err := s.refRepo.DeleteEducationStudy(id); err != nil {
		return err
	}
	s.audit.Record(actor, model.AuditDelete, "education_study", id, nil)
	return nil
}
