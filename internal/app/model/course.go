package model

import "time"

type Course struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Name        string    `gorm:"size:200;not null;uniqueIndex:idx_course_teacher_name" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	IsFree      bool      `gorm:"default:false" json:"is_free"`
	Price       int64     `gorm:"not null;default:0" json:"price"`
	TeacherID   uint      `gorm:"not null;uniqueIndex:idx_course_teacher_name" json:"teacher_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Teacher User `gorm:"foreignKey:TeacherID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Course) TableName() string {
	return "courses"
}

// PriceConsistent reports whether the free flag agrees with the price.
func (c *Course) PriceConsistent() bool {
	return c.IsFree == (c.Price == 0) && c.Price >= 0
}

type VideoCourse struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	CourseID    uint      `gorm:"not null;index" json:"course_id"`
	Description string    `gorm:"type:text" json:"description"`
	VideoURL    string    `gorm:"size:500;not null" json:"video_url"`
	IsFree      bool      `gorm:"default:false" json:"is_free"`
	CreatedAt   time.Time `json:"created_at"`

	Course Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
}

func (VideoCourse) TableName() string {
	return "video_courses"
}

type Enrollment struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_enrollment_user_course" json:"user_id"`
	CourseID   uint      `gorm:"not null;uniqueIndex:idx_enrollment_user_course;index" json:"course_id"`
	DateJoined time.Time `gorm:"autoCreateTime" json:"date_joined"`

	User   User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Course Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}
