package repository

import (
	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/pkg/logger"
	"gorm.io/gorm"
)

type ShortLinkRepository interface {
	// GetOrCreate returns the target's link, creating it on first request.
	GetOrCreate(targetType model.ProductType, targetID uint) (*model.ShortLink, error)
	FindByCode(code string) (*model.ShortLink, error)
	IncrementClicks(id uint) error
	DeleteByTarget(targetType model.ProductType, targetID uint) error
}

type shortLinkRepository struct {
	db *gorm.DB
}

func NewShortLinkRepository(db *gorm.DB) ShortLinkRepository {
	return &shortLinkRepository{db: db}
}

func (r *shortLinkRepository) GetOrCreate(targetType model.ProductType, targetID uint) (*model.ShortLink, error) {
	logger.Debug("Getting or creating short link", map[string]interface{}{
		"target_type": targetType,
		"target_id":   targetID,
	})

	link := model.ShortLink{}
	err := r.db.Where(model.ShortLink{TargetType: targetType, TargetID: targetID}).FirstOrCreate(&link).Error
	if err != nil {
		logger.Error("Failed to get or create short link", err, map[string]interface{}{
			"target_type": targetType,
			"target_id":   targetID,
		})
		return nil, err
	}

	logger.Debug("Short link ready", map[string]interface{}{
		"code": link.Code,
	})
	return &link, nil
}

func (r *shortLinkRepository) FindByCode(code string) (*model.ShortLink, error) {
	var link model.ShortLink
	if err := r.db.Where("code = ?", code).First(&link).Error; err != nil {
		logger.Error("Failed to find short link", err, map[string]interface{}{
			"code": code,
		})
		return nil, err
	}
	return &link, nil
}

func (r *shortLinkRepository) IncrementClicks(id uint) error {
	err := r.db.Model(&model.ShortLink{}).
		Where("id = ?", id).
		UpdateColumn("clicks", gorm.Expr("clicks + ?", 1)).Error
	if err != nil {
		logger.Error("Failed to increment short link clicks", err, map[string]interface{}{
			"link_id": id,
		})
	}
	return err
}

func (r *shortLinkRepository) DeleteByTarget(targetType model.ProductType, targetID uint) error {
	return r.db.Where("target_type = ? AND target_id = ?", targetType, targetID).Delete(&model.ShortLink{}).Error
}
