package repository

import (
	"time"

	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/pkg/logger"
	"gorm.io/gorm"
)

type PaymentRepository interface {
	Create(payment *model.Payment) error
	FindByAuthorityAndUser(authority string, userID uint) (*model.Payment, error)
	// MarkSuccess moves a pending payment to success and reports whether this call won.
	MarkSuccess(id uint, at time.Time) (bool, error)
	FindSuccessful() ([]model.Payment, error)
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(payment *model.Payment) error {
	logger.Debug("Creating payment in database", map[string]interface{}{
		"user_id":      payment.UserID,
		"product_type": payment.ProductType,
		"product_id":   payment.ProductID,
	})

	if err := r.db.Omit("User", "Order").Create(payment).Error; err != nil {
		logger.Error("Failed to create payment in database", err, map[string]interface{}{
			"user_id": payment.UserID,
		})
		return err
	}

	logger.Debug("Payment created in database", map[string]interface{}{
		"payment_id": payment.ID,
		"authority":  payment.Authority,
	})
	return nil
}

func (r *paymentRepository) FindByAuthorityAndUser(authority string, userID uint) (*model.Payment, error) {
	logger.Debug("Finding payment by authority", map[string]interface{}{
		"authority": authority,
		"user_id":   userID,
	})

	var payment model.Payment
	if err := r.db.Where("authority = ? AND user_id = ?", authority, userID).First(&payment).Error; err != nil {
		logger.Error("Failed to find payment by authority", err, map[string]interface{}{
			"authority": authority,
			"user_id":   userID,
		})
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) MarkSuccess(id uint, at time.Time) (bool, error) {
	result := r.db.Model(&model.Payment{}).
		Where("id = ? AND status = ?", id, model.PaymentPending).
		Updates(map[string]interface{}{
			"status":      model.PaymentSuccess,
			"verified_at": at,
		})
	if result.Error != nil {
		logger.Error("Failed to mark payment as successful", result.Error, map[string]interface{}{
			"payment_id": id,
		})
		return false, result.Error
	}

	logger.Debug("Payment status transition attempted", map[string]interface{}{
		"payment_id": id,
		"won":        result.RowsAffected == 1,
	})
	return result.RowsAffected == 1, nil
}

func (r *paymentRepository) FindSuccessful() ([]model.Payment, error) {
	var payments []model.Payment
	err := r.db.Preload("Order").Where("status = ?", model.PaymentSuccess).Order("id").Find(&payments).Error
	return payments, err
}
