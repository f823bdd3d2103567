package db

import (
	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/pkg/logger"
	"gorm.io/gorm"
)

// Models lists every table in dependency order.
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.University{},
		&model.EducationStudy{},
		&model.Student{},
		&model.Teacher{},
		&model.Course{},
		&model.VideoCourse{},
		&model.Enrollment{},
		&model.Article{},
		&model.Comment{},
		&model.Book{},
		&model.Cart{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.Payment{},
		&model.ShortLink{},
		&model.Blocklist{},
		&model.ChatRoom{},
		&model.Message{},
		&model.AuditLog{},
	}
}

// Migrate runs database migrations
func Migrate() error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := DB.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

// Seed inserts the reference data registration depends on.
func Seed() error {
	return SeedReferenceData(DB)
}

func SeedReferenceData(conn *gorm.DB) error {
	logger.Info("Seeding reference data...")

	var count int64
	if err := conn.Model(&model.University{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.Info("Reference data already seeded, skipping...", map[string]interface{}{
			"universities": count,
		})
		return nil
	}

	universities := []model.University{
		{Name: "University of Tehran", City: "Tehran"},
		{Name: "Sharif University of Technology", City: "Tehran"},
		{Name: "Isfahan University of Technology", City: "Isfahan"},
		{Name: "Shiraz University", City: "Shiraz"},
	}
	studies := []model.EducationStudy{
		{Name: "Computer Engineering"},
		{Name: "Electrical Engineering"},
		{Name: "Mathematics"},
		{Name: "Literature"},
	}

	return conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&universities).Error; err != nil {
			logger.Error("Failed to seed universities", err)
			return err
		}
		if err := tx.Create(&studies).Error; err != nil {
			logger.Error("Failed to seed education studies", err)
			return err
		}
		logger.Info("Reference data seeded successfully", map[string]interface{}{
			"universities":      len(universities),
			"education_studies": len(studies),
		})
		return nil
	})
}
