package repository

import (
	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/pkg/logger"
	"gorm.io/gorm"
)

type StudentFilter struct {
	UniversityID     *uint
	EducationStudyID *uint
}

type StudentRepository interface {
	Create(student *model.Student) error
	FindByUserID(userID uint) (*model.Student, error)
	List(filter StudentFilter) ([]model.Student, error)
	Update(student *model.Student) error
	Delete(userID uint) error
}

type studentRepository struct {
	db *gorm.DB
}

func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) preload() *gorm.DB {
	return r.db.Preload("User").Preload("University").Preload("EducationStudy")
}

func (r *studentRepository) Create(student *model.Student) error {
	logger.Debug("Creating student profile in database", map[string]interface{}{
		"user_id": student.UserID,
	})

	if err := r.db.Omit("User", "University", "EducationStudy").Create(student).Error; err != nil {
		logger.Error("Failed to create student profile", err, map[string]interface{}{
			"user_id": student.UserID,
		})
		return err
	}
	return nil
}

func (r *studentRepository) FindByUserID(userID uint) (*model.Student, error) {
	var student model.Student
	if err := r.preload().Where("user_id = ?", userID).First(&student).Error; err != nil {
		logger.Error("Failed to find student profile", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return &student, nil
}

func (r *studentRepository) List(filter StudentFilter) ([]model.Student, error) {
	logger.Debug("Listing students", map[string]interface{}{
		"university_id":      filter.UniversityID,
		"education_study_id": filter.EducationStudyID,
	})

	query := r.preload()
	if filter.UniversityID != nil {
		query = query.Where("university_id = ?", *filter.UniversityID)
	}
	if filter.EducationStudyID != nil {
		query = query.Where("education_study_id = ?", *filter.EducationStudyID)
	}

	var students []model.Student
	if err := query.Order("user_id").Find(&students).Error; err != nil {
		logger.Error("Failed to list students", err)
		return nil, err
	}

	logger.Debug("Students listed", map[string]interface{}{
		"count": len(students),
	})
	return students, nil
}

func (r *studentRepository) Update(student *model.Student) error {
	err := r.db.Model(&model.Student{}).Where("user_id = ?", student.UserID).
		Updates(map[string]interface{}{
			"university_id":      student.UniversityID,
			"education_study_id": student.EducationStudyID,
		}).Error
	if err != nil {
		logger.Error("Failed to update student profile", err, map[string]interface{}{
			"user_id": student.UserID,
		})
	}
	return err
}

// Delete removes the profile together with its user.
func (r *studentRepository) Delete(userID uint) error {
	logger.Debug("Deleting student", map[string]interface{}{
		"user_id": userID,
	})
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&model.Student{}).Error; err != nil {
			logger.Error("Failed to delete student profile", err, map[string]interface{}{
				"user_id": userID,
			})
			return err
		}
		return tx.Delete(&model.User{}, userID).Error
	})
}

type TeacherRepository interface {
	Create(teacher *model.Teacher, universityIDs []uint) error
	FindByUserID(userID uint) (*model.Teacher, error)
	List(name string) ([]model.Teacher, error)
	ReplaceUniversities(userID uint, universityIDs []uint) error
	Delete(userID uint) error
}

type teacherRepository struct {
	db *gorm.DB
}

func NewTeacherRepository(db *gorm.DB) TeacherRepository {
	return &teacherRepository{db: db}
}

func (r *teacherRepository) Create(teacher *model.Teacher, universityIDs []uint) error {
	logger.Debug("Creating teacher profile in database", map[string]interface{}{
		"user_id":          teacher.UserID,
		"university_count": len(universityIDs),
	})

	if err := r.db.Omit("User", "Universities").Create(teacher).Error; err != nil {
		logger.Error("Failed to create teacher profile", err, map[string]interface{}{
			"user_id": teacher.UserID,
		})
		return err
	}
	if len(universityIDs) == 0 {
		return nil
	}
	return r.ReplaceUniversities(teacher.UserID, universityIDs)
}

func (r *teacherRepository) FindByUserID(userID uint) (*model.Teacher, error) {
	var teacher model.Teacher
	if err := r.db.Preload("User").Preload("Universities").Where("user_id = ?", userID).First(&teacher).Error; err != nil {
		logger.Error("Failed to find teacher profile", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return &teacher, nil
}

// List filters by a case-insensitive match on first or last name.
func (r *teacherRepository) List(name string) ([]model.Teacher, error) {
	query := r.db.Preload("User").Preload("Universities").Joins("JOIN users ON users.id = teachers.user_id")
	if name != "" {
		like := "%" + name + "%"
		query = query.Where("LOWER(users.first_name) LIKE LOWER(?) OR LOWER(users.last_name) LIKE LOWER(?)", like, like)
	}

	var teachers []model.Teacher
	if err := query.Order("teachers.user_id").Find(&teachers).Error; err != nil {
		logger.Error("Failed to list teachers", err)
		return nil, err
	}
	return teachers, nil
}

func (r *teacherRepository) ReplaceUniversities(userID uint, universityIDs []uint) error {
	var universities []model.University
	if len(universityIDs) > 0 {
		if err := r.db.Where("id IN ?", universityIDs).Find(&universities).Error; err != nil {
			return err
		}
	}
	teacher := model.Teacher{UserID: userID}
	if err := r.db.Model(&teacher).Association("Universities").Replace(universities); err != nil {
		logger.Error("Failed to replace teacher universities", err, map[string]interface{}{
			"user_id": userID,
		})
		return err
	}
	return nil
}

func (r *teacherRepository) Delete(userID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		teacher := model.Teacher{UserID: userID}
		if err := tx.Model(&teacher).Association("Universities").Clear(); err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&model.Teacher{}).Error; err != nil {
			logger.Error("Failed to delete teacher profile", err, map[string]interface{}{
				"user_id": userID,
			})
			return err
		}
		return tx.Delete(&model.User{}, userID).Error
	})
}

type ReferenceRepository interface {
	ListUniversities() ([]model.University, error)
	FindUniversity(id uint) (*model.University, error)
	CountUniversities(ids []uint) (int64, error)
	SaveUniversity(u *model.University) error
	DeleteUniversity(id uint) error
	ListEducationStudies() ([]model.EducationStudy, error)
	FindEducationStudy(id uint) (*model.EducationStudy, error)
	SaveEducationStudy(e *model.EducationStudy) error
	DeleteEducationStudy(id uint) error
}

type referenceRepository struct {
	db *gorm.DB
}

func NewReferenceRepository(db *gorm.DB) ReferenceRepository {
	return &referenceRepository{db: db}
}

func (r *referenceRepository) ListUniversities() ([]model.University, error) {
	var out []model.University
	err := r.db.Order("name").Find(&out).Error
	return out, err
}

func (r *referenceRepository) FindUniversity(id uint) (*model.University, error) {
	var u model.University
	if err := r.db.First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *referenceRepository) CountUniversities(ids []uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.University{}).Where("id IN ?", ids).Count(&count).Error
	return count, err
}

func (r *referenceRepository) SaveUniversity(u *model.University) error {
	if err := r.db.Save(u).Error; err != nil {
		logger.Error("Failed to save university", err, map[string]interface{}{
			"name": u.Name,
		})
		return err
	}
	return nil
}

func (r *referenceRepository) DeleteUniversity(id uint) error {
	return r.db.Delete(&model.University{}, id).Error
}

func (r *referenceRepository) ListEducationStudies() ([]model.EducationStudy, error) {
	var out []model.EducationStudy
	err := r.db.Order("name").Find(&out).Error
	return out, err
}

func (r *referenceRepository) FindEducationStudy(id uint) (*model.EducationStudy, error) {
	var e model.EducationStudy
	if err := r.db.First(&e, id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *referenceRepository) SaveEducationStudy(e *model.EducationStudy) error {
	if err := r.db.Save(e).Error; err != nil {
		logger.Error("Failed to save education study", err, map[string]interface{}{
			"name": e.Name,
		})
		return err
	}
	return nil
}

func (r *referenceRepository) DeleteEducationStudy(id uint) error {
	return r.db.Delete(&model.EducationStudy{}, id).Error
}
