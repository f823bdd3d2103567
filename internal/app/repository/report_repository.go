package repository

import (
	"time"

	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/pkg/logger"
	"gorm.io/gorm"
)

type UserStats struct {
	TotalUsers    int64 `json:"total_users"`
	ActiveUsers   int64 `json:"active_users"`
	InactiveUsers int64 `json:"inactive_users"`
}

type IncomeByType struct {
	ProductType model.ProductType
	Total       model.Money
}

type CourseSales struct {
	CourseID      uint   `json:"course_id"`
	CourseName    string `json:"course_name"`
	TotalStudents int64  `json:"total_students"`
}

type BookSales struct {
	BookName string `json:"book_name"`
	Count    int64  `json:"count"`
}

type StatusCount struct {
	Status model.OrderStatus `json:"status"`
	Count  int64             `json:"count"`
}

type PaymentPoint struct {
	CreatedAt time.Time
	Amount    model.Money
}

type TeacherIncome struct {
	Username    string      `json:"username"`
	TotalIncome model.Money `json:"total_income"`
}

type Spender struct {
	UserID     uint
	Email      string
	Username   string
	TotalSpent model.Money
}

// ReportRepository holds the read-only aggregates behind the staff reports.
type ReportRepository interface {
	UserStats() (*UserStats, error)
	IncomeByProductType() ([]IncomeByType, error)
	CourseSales() ([]CourseSales, error)
	BookSales() ([]BookSales, error)
	OrderStatusCounts() ([]StatusCount, error)
	SuccessfulPaymentPoints() ([]PaymentPoint, error)
	TopTeachers(limit int) ([]TeacherIncome, error)
	CountUsersJoinedSince(since time.Time) (int64, error)
	CountUsersLoggedInSince(since time.Time) (int64, error)
	SuccessfulPaymentTotals() (model.Money, int64, error)
	HighSpenders(threshold model.Money) ([]Spender, error)
}

type reportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) UserStats() (*UserStats, error) {
	var stats UserStats
	if err := r.db.Model(&model.User{}).Count(&stats.TotalUsers).Error; err != nil {
		logger.Error("Failed to count users", err)
		return nil, err
	}
	if err := r.db.Model(&model.User{}).Where("is_active = ?", true).Count(&stats.ActiveUsers).Error; err != nil {
		logger.Error("Failed to count active users", err)
		return nil, err
	}
	stats.InactiveUsers = stats.TotalUsers - stats.ActiveUsers
	return &stats, nil
}

func (r *reportRepository) IncomeByProductType() ([]IncomeByType, error) {
	var rows []IncomeByType
	err := r.db.Model(&model.Payment{}).
		Select("product_type, COALESCE(SUM(amount), 0) AS total").
		Where("status = ?", model.PaymentSuccess).
		Group("product_type").
		Scan(&rows).Error
	if err != nil {
		logger.Error("Failed to aggregate income", err)
		return nil, err
	}
	return rows, nil
}

func (r *reportRepository) CourseSales() ([]CourseSales, error) {
	var rows []CourseSales
	err := r.db.Table("enrollments").
		Select("courses.id AS course_id, courses.name AS course_name, COUNT(enrollments.user_id) AS total_students").
		Joins("JOIN courses ON courses.id = enrollments.course_id").
		Group("courses.id, courses.name").
		Order("courses.id").
		Scan(&rows).Error
	return rows, err
}

func (r *reportRepository) BookSales() ([]BookSales, error) {
	var rows []BookSales
	err := r.db.Table("order_items").
		Select("books.name AS book_name, COUNT(order_items.id) AS count").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("JOIN books ON books.id = order_items.book_id").
		Where("orders.status = ?", model.OrderStatusPaid).
		Group("books.name").
		Order("books.name").
		Scan(&rows).Error
	return rows, err
}

func (r *reportRepository) OrderStatusCounts() ([]StatusCount, error) {
	var rows []StatusCount
	err := r.db.Model(&model.Order{}).
		Select("status, COUNT(id) AS count").
		Group("status").
		Order("status").
		Scan(&rows).Error
	return rows, err
}

// SuccessfulPaymentPoints feeds the sales chart; bucketing happens in the service
// so the same code runs on every dialect.
func (r *reportRepository) SuccessfulPaymentPoints() ([]PaymentPoint, error) {
	var rows []PaymentPoint
	err := r.db.Model(&model.Payment{}).
		Select("created_at, amount").
		Where("status = ?", model.PaymentSuccess).
		Order("created_at").
		Scan(&rows).Error
	return rows, err
}

func (r *reportRepository) TopTeachers(limit int) ([]TeacherIncome, error) {
	var rows []TeacherIncome
	err := r.db.Table("payments").
		Select("users.username AS username, SUM(payments.amount) AS total_income").
		Joins("JOIN courses ON courses.id = payments.product_id").
		Joins("JOIN users ON users.id = courses.teacher_id").
		Where("payments.status = ? AND payments.product_type = ?", model.PaymentSuccess, model.ProductCourse).
		Group("users.username").
		Order("total_income DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		logger.Error("Failed to rank teachers by income", err)
		return nil, err
	}
	return rows, nil
}

func (r *reportRepository) CountUsersJoinedSince(since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.User{}).Where("date_joined >= ?", since).Count(&count).Error
	return count, err
}

func (r *reportRepository) CountUsersLoggedInSince(since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.User{}).Where("last_login >= ?", since).Count(&count).Error
	return count, err
}

func (r *reportRepository) SuccessfulPaymentTotals() (model.Money, int64, error) {
	var row struct {
		Total model.Money
		Count int64
	}
	err := r.db.Model(&model.Payment{}).
		Select("COALESCE(SUM(amount), 0) AS total, COUNT(id) AS count").
		Where("status = ?", model.PaymentSuccess).
		Scan(&row).Error
	return row.Total, row.Count, err
}

func (r *reportRepository) HighSpenders(threshold model.Money) ([]Spender, error) {
	var rows []Spender
	err := r.db.Table("payments").
		Select("users.id AS user_id, users.email AS email, users.username AS username, SUM(payments.amount) AS total_spent").
		Joins("JOIN users ON users.id = payments.user_id").
		Where("payments.status = ?", model.PaymentSuccess).
		Group("users.id, users.email, users.username").
		Having("SUM(payments.amount) >= ?", threshold.InexactFloat64()).
		Order("total_spent DESC").
		Scan(&rows).Error
	if err != nil {
		logger.Error("Failed to query high spenders", err)
		return nil, err
	}
	return rows, nil
}
