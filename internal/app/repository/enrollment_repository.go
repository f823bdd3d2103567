package repository

import (
	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/pkg/logger"
	"gorm.io/gorm"
)

type EnrollmentRepository interface {
	Create(enrollment *model.Enrollment) error
	FindByID(id uint) (*model.Enrollment, error)
	Exists(userID, courseID uint) (bool, error)
	// FirstOrCreate returns the existing enrollment or inserts one.
	FirstOrCreate(userID, courseID uint) (*model.Enrollment, error)
	FindByUser(userID uint) ([]model.Enrollment, error)
	FindAll() ([]model.Enrollment, error)
	Delete(id uint) error
}

type enrollmentRepository struct {
	db *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) Create(enrollment *model.Enrollment) error {
	logger.Debug("Creating enrollment in database", map[string]interface{}{
		"user_id":   enrollment.UserID,
		"course_id": enrollment.CourseID,
	})

	if err := r.db.Omit("User", "Course").Create(enrollment).Error; err != nil {
		logger.Error("Failed to create enrollment in database", err, map[string]interface{}{
			"user_id":   enrollment.UserID,
			"course_id": enrollment.CourseID,
		})
		return err
	}

	logger.Debug("Enrollment created in database", map[string]interface{}{
		"enrollment_id": enrollment.ID,
	})
	return nil
}

func (r *enrollmentRepository) FindByID(id uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	if err := r.db.Preload("Course").First(&enrollment, id).Error; err != nil {
		logger.Error("Failed to find enrollment", err, map[string]interface{}{
			"enrollment_id": id,
		})
		return nil, err
	}
	return &enrollment, nil
}

func (r *enrollmentRepository) FirstOrCreate(userID, courseID uint) (*model.Enrollment, error) {
	enrollment := model.Enrollment{UserID: userID, CourseID: courseID}
	err := r.db.Omit("User", "Course").
		Where("user_id = ? AND course_id = ?", userID, courseID).
		FirstOrCreate(&enrollment).Error
	if err != nil {
		logger.Error("Failed to ensure enrollment", err, map[string]interface{}{
			"user_id":   userID,
			"course_id": courseID,
		})
		return nil, err
	}
	return &enrollment, nil
}

func (r *enrollmentRepository) Exists(userID, courseID uint) (bool, error) {
	var count int64
	err := r.db.Model(&model.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error
	return count > 0, err
}

func (r *enrollmentRepository) FindByUser(userID uint) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	if err := r.db.Preload("Course").Where("user_id = ?", userID).Order("id").Find(&enrollments).Error; err != nil {
		logger.Error("Failed to list user enrollments", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return enrollments, nil
}

func (r *enrollmentRepository) FindAll() ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := r.db.Preload("Course").Order("id").Find(&enrollments).Error
	return enrollments, err
}

func (r *enrollmentRepository) Delete(id uint) error {
	logger.Debug("Deleting enrollment from database", map[string]interface{}{
		"enrollment_id": id,
	})
	if err := r.db.Delete(&model.Enrollment{}, id).Error; err != nil {
		logger.Error("Failed to delete enrollment", err, map[string]interface{}{
			"enrollment_id": id,
		})
		return err
	}
	return nil
}
