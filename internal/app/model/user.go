package model

import (
	"regexp"
	"time"
)

type UserRole string

const (
	RoleStudent UserRole = "ST"
	RoleTeacher UserRole = "TR"
)

// PhonePattern matches Iranian mobile numbers with an optional leading zero.
var PhonePattern = regexp.MustCompile(`^(0)?9\d{9}$`)

func (r UserRole) Valid() bool {
	return r == RoleStudent || r == RoleTeacher
}

type User struct {
	ID           uint       `gorm:"primarykey" json:"id"`
	Username     string     `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	FirstName    string     `gorm:"size:150" json:"first_name"`
	LastName     string     `gorm:"size:150" json:"last_name"`
	Phone        string     `gorm:"uniqueIndex;size:11;not null" json:"phone"`
	Role         UserRole   `gorm:"type:varchar(2);default:'ST'" json:"role"`
	IsStaff      bool       `gorm:"default:false" json:"is_staff"`
	IsActive     bool       `gorm:"default:true" json:"is_active"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	DateJoined   time.Time  `gorm:"autoCreateTime" json:"date_joined"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

type University struct {
	ID   uint   `gorm:"primarykey" json:"id"`
	Name string `gorm:"size:255;not null" json:"name"`
	City string `gorm:"size:100" json:"city"`
}

func (University) TableName() string {
	return "universities"
}

type EducationStudy struct {
	ID   uint   `gorm:"primarykey" json:"id"`
	Name string `gorm:"size:100;not null" json:"name"`
}

func (EducationStudy) TableName() string {
	return "education_studies"
}

// Student is the 1:1 profile of a user with role ST.
type Student struct {
	UserID           uint           `gorm:"primarykey;autoIncrement:false;uniqueIndex:idx_student_user_university" json:"user_id"`
	UniversityID     *uint          `gorm:"uniqueIndex:idx_student_user_university" json:"university_id"`
	EducationStudyID *uint          `gorm:"index" json:"education_study_id"`
	User             User           `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
	University       *University    `gorm:"foreignKey:UniversityID;constraint:OnDelete:SET NULL" json:"university,omitempty"`
	EducationStudy   *EducationStudy `gorm:"foreignKey:EducationStudyID;constraint:OnDelete:SET NULL" json:"education_study,omitempty"`
}

func (Student) TableName() string {
	return "students"
}

// Teacher is the 1:1 profile of a user with role TR.
type Teacher struct {
	UserID       uint         `gorm:"primarykey;autoIncrement:false" json:"user_id"`
	User         User         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
	Universities []University `gorm:"many2many:teacher_universities;joinForeignKey:TeacherUserID;joinReferences:UniversityID" json:"universities"`
}

func (Teacher) TableName() string {
	return "teachers"
}
