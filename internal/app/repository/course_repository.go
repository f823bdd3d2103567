package repository

import (
	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/pkg/logger"
	"gorm.io/gorm"
)

// CourseWithStudents is the management listing row.
type CourseWithStudents struct {
	model.Course
	CountStudents int64 `json:"count_students"`
}

type CourseRepository interface {
	Create(course *model.Course) error
	FindByID(id uint) (*model.Course, error)
	FindByIDAndTeacher(id, teacherID uint) (*model.Course, error)
	FindAll() ([]model.Course, error)
	FindAllWithStudentCount() ([]CourseWithStudents, error)
	FindByTeacher(teacherID uint) ([]model.Course, error)
	FindByStudent(userID uint) ([]model.Course, error)
	ExistsByTeacherAndName(teacherID uint, name string, excludeID uint) (bool, error)
	EnrolledUserIDs(courseID uint) ([]uint, error)
	Update(course *model.Course) error
	Delete(id uint) error
}

type courseRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) Create(course *model.Course) error {
	logger.Debug("Creating course in database", map[string]interface{}{
		"name":       course.Name,
		"teacher_id": course.TeacherID,
	})

	if err := r.db.Omit("Teacher").Create(course).Error; err != nil {
		logger.Error("Failed to create course in database", err, map[string]interface{}{
			"name":       course.Name,
			"teacher_id": course.TeacherID,
		})
		return err
	}

	logger.Debug("Course created in database", map[string]interface{}{
		"course_id": course.ID,
	})
	return nil
}

func (r *courseRepository) FindByID(id uint) (*model.Course, error) {
	logger.Debug("Finding course by ID in database", map[string]interface{}{
		"course_id": id,
	})

	var course model.Course
	if err := r.db.First(&course, id).Error; err != nil {
		logger.Error("Failed to find course by ID in database", err, map[string]interface{}{
			"course_id": id,
		})
		return nil, err
	}
	return &course, nil
}

func (r *courseRepository) FindByIDAndTeacher(id, teacherID uint) (*model.Course, error) {
	var course model.Course
	if err := r.db.Where("id = ? AND teacher_id = ?", id, teacherID).First(&course).Error; err != nil {
		logger.Error("Failed to find teacher course", err, map[string]interface{}{
			"course_id":  id,
			"teacher_id": teacherID,
		})
		return nil, err
	}
	return &course, nil
}

func (r *courseRepository) FindAll() ([]model.Course, error) {
	var courses []model.Course
	if err := r.db.Order("id").Find(&courses).Error; err != nil {
		logger.Error("Failed to list courses", err)
		return nil, err
	}
	logger.Debug("Courses listed", map[string]interface{}{
		"count": len(courses),
	})
	return courses, nil
}

func (r *courseRepository) FindAllWithStudentCount() ([]CourseWithStudents, error) {
	var rows []CourseWithStudents
	err := r.db.Model(&model.Course{}).
		Select("courses.*, COUNT(enrollments.id) AS count_students").
		Joins("LEFT JOIN enrollments ON enrollments.course_id = courses.id").
		Group("courses.id").
		Order("courses.id").
		Scan(&rows).Error
	if err != nil {
		logger.Error("Failed to list courses with student count", err)
		return nil, err
	}
	return rows, nil
}

func (r *courseRepository) FindByTeacher(teacherID uint) ([]model.Course, error) {
	var courses []model.Course
	if err := r.db.Where("teacher_id = ?", teacherID).Order("id").Find(&courses).Error; err != nil {
		logger.Error("Failed to list teacher courses", err, map[string]interface{}{
			"teacher_id": teacherID,
		})
		return nil, err
	}
	return courses, nil
}

func (r *courseRepository) FindByStudent(userID uint) ([]model.Course, error) {
	var courses []model.Course
	err := r.db.Joins("JOIN enrollments ON enrollments.course_id = courses.id").
		Where("enrollments.user_id = ?", userID).
		Order("courses.id").
		Find(&courses).Error
	if err != nil {
		logger.Error("Failed to list student courses", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return courses, nil
}

func (r *courseRepository) ExistsByTeacherAndName(teacherID uint, name string, excludeID uint) (bool, error) {
	var count int64
	q := r.db.Model(&model.Course{}).Where("teacher_id = ? AND name = ?", teacherID, name)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *courseRepository) EnrolledUserIDs(courseID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.Model(&model.Enrollment{}).Where("course_id = ?", courseID).Pluck("user_id", &ids).Error; err != nil {
		logger.Error("Failed to load enrolled users", err, map[string]interface{}{
			"course_id": courseID,
		})
		return nil, err
	}
	return ids, nil
}

func (r *courseRepository) Update(course *model.Course) error {
	logger.Debug("Updating course in database", map[string]interface{}{
		"course_id": course.ID,
	})

	if err := r.db.Omit("Teacher").Save(course).Error; err != nil {
		logger.Error("Failed to update course in database", err, map[string]interface{}{
			"course_id": course.ID,
		})
		return err
	}
	return nil
}

// Delete removes the course, its videos and its enrollments.
func (r *courseRepository) Delete(id uint) error {
	logger.Debug("Deleting course from database", map[string]interface{}{
		"course_id": id,
	})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("course_id = ?", id).Delete(&model.VideoCourse{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", id).Delete(&model.Enrollment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Course{}, id).Error
	})
	if err != nil {
		logger.Error("Failed to delete course from database", err, map[string]interface{}{
			"course_id": id,
		})
		return err
	}

	logger.Debug("Course deleted from database", map[string]interface{}{
		"course_id": id,
	})
	return nil
}

type VideoRepository interface {
	Create(video *model.VideoCourse) error
	FindByID(id uint) (*model.VideoCourse, error)
	FindByCourse(courseID uint, freeOnly bool) ([]model.VideoCourse, error)
	FindAll() ([]model.VideoCourse, error)
	Update(video *model.VideoCourse) error
	Delete(id uint) error
}

type videoRepository struct {
	db *gorm.DB
}

func NewVideoRepository(db *gorm.DB) VideoRepository {
	return &videoRepository{db: db}
}

func (r *videoRepository) Create(video *model.VideoCourse) error {
	logger.Debug("Creating video in database", map[string]interface{}{
		"course_id": video.CourseID,
	})

	if err := r.db.Omit("Course").Create(video).Error; err != nil {
		logger.Error("Failed to create video in database", err, map[string]interface{}{
			"course_id": video.CourseID,
		})
		return err
	}
	return nil
}

func (r *videoRepository) FindByID(id uint) (*model.VideoCourse, error) {
	var video model.VideoCourse
	if err := r.db.First(&video, id).Error; err != nil {
		logger.Error("Failed to find video", err, map[string]interface{}{
			"video_id": id,
		})
		return nil, err
	}
	return &video, nil
}

func (r *videoRepository) FindByCourse(courseID uint, freeOnly bool) ([]model.VideoCourse, error) {
	q := r.db.Where("course_id = ?", courseID)
	if freeOnly {
		q = q.Where("is_free = ?", true)
	}
	var videos []model.VideoCourse
	if err := q.Order("id").Find(&videos).Error; err != nil {
		logger.Error("Failed to list course videos", err, map[string]interface{}{
			"course_id": courseID,
		})
		return nil, err
	}
	return videos, nil
}

func (r *videoRepository) FindAll() ([]model.VideoCourse, error) {
	var videos []model.VideoCourse
	err := r.db.Order("id").Find(&videos).Error
	return videos, err
}

func (r *videoRepository) Update(video *model.VideoCourse) error {
	if err := r.db.Omit("Course").Save(video).Error; err != nil {
		logger.Error("Failed to update video", err, map[string]interface{}{
			"video_id": video.ID,
		})
		return err
	}
	return nil
}

func (r *videoRepository) Delete(id uint) error {
	if err := r.db.Delete(&model.VideoCourse{}, id).Error; err != nil {
		logger.Error("Failed to delete video", err, map[string]interface{}{
			"video_id": id,
		})
		return err
	}
	return nil
}
