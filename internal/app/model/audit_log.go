package model

import (
	"time"

	"github.com/lib/pq"
)

type AuditAction string

const (
	AuditCreate AuditAction = "create"
	AuditUpdate AuditAction = "update"
	AuditDelete AuditAction = "delete"
)

// AuditLog records staff mutations made through the management API.
type AuditLog struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	ActorID       uint           `gorm:"not null;index" json:"actor_id"`
	Action        AuditAction    `gorm:"type:varchar(10);not null" json:"action"`
	ObjectType    string         `gorm:"size:50;not null;index" json:"object_type"`
	ObjectID      uint           `gorm:"not null" json:"object_id"`
	ChangedFields pq.StringArray `gorm:"type:text" json:"changed_fields"`
	Message       string         `gorm:"size:255" json:"message"`
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
