package repository

import (
	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/pkg/logger"
	"gorm.io/gorm"
)

type AuditLogRepository interface {
	Create(entry *model.AuditLog) error
	List(objectType string, limit, offset int) ([]model.AuditLog, int64, error)
}

type auditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) Create(entry *model.AuditLog) error {
	if err := r.db.Create(entry).Error; err != nil {
		logger.Error("Failed to write audit log", err, map[string]interface{}{
			"actor_id":    entry.ActorID,
			"object_type": entry.ObjectType,
		})
		return err
	}
	return nil
}

func (r *auditLogRepository) List(objectType string, limit, offset int) ([]model.AuditLog, int64, error) {
	q := r.db.Model(&model.AuditLog{})
	if objectType != "" {
		q = q.Where("object_type = ?", objectType)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []model.AuditLog
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&entries).Error; err != nil {
		logger.Error("Failed to list audit logs", err)
		return nil, 0, err
	}
	return entries, total, nil
}
