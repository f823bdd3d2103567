package service

import (
	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/internal/app/repository"
	"github.com/ikkim/campus-backend/pkg/logger"
)

const (
	defaultAuditPageSize = 50
	maxAuditPageSize     = 200
)

type AuditPage struct {
	Entries []model.AuditLog `json:"entries"`
	Total   int64            `json:"total"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

// AuditService keeps the append-only trail of staff mutations.
type AuditService interface {
	Record(actor Actor, action model.AuditAction, objectType string, objectID uint, changed []string)
	List(objectType string, limit, offset int) (*AuditPage, error)
}

type auditService struct {
	repo repository.AuditLogRepository
}

func NewAuditService(repo repository.AuditLogRepository) AuditService {
	return &auditService{repo: repo}
}

// Record is a no-op for non-staff actors. A failed write is logged, never returned.
func (s *auditService) Record(actor Actor, action model.AuditAction, objectType string, objectID uint, changed []string) {
	if !actor.IsStaff {
		return
	}
	entry := &model.AuditLog{
		ActorID:       actor.UserID,
		Action:        action,
		ObjectType:    objectType,
		ObjectID:      objectID,
		ChangedFields: changed,
		Message:       string(action) + " " + objectType,
	}
	if err := s.repo.Create(entry); err != nil {
		logger.Error("Failed to write audit log", err, map[string]interface{}{
			"actor_id":    actor.UserID,
			"object_type": objectType,
			"object_id":   objectID,
		})
	}
}

func (s *auditService) List(objectType string, limit, offset int) (*AuditPage, error) {
	if limit <= 0 {
		limit = defaultAuditPageSize
	}
	if limit > maxAuditPageSize {
		limit = maxAuditPageSize
	}
	if offset < 0 {
		offset = 0
	}

	entries, total, err := s.repo.List(objectType, limit, offset)
	if err != nil {
		return nil, err
	}
	return &AuditPage{Entries: entries, Total: total, Limit: limit, Offset: offset}, nil
}
