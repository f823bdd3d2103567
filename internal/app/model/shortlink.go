package model

import (
	"time"

	"github.com/ikkim/campus-backend/pkg/util"
	"gorm.io/gorm"
)

type ShortLink struct {
	ID         uint        `gorm:"primarykey" json:"id"`
	Code       string      `gorm:"size:10;uniqueIndex;not null" json:"code"`
	TargetType ProductType `gorm:"type:varchar(10);not null;uniqueIndex:idx_shortlink_target" json:"model"`
	TargetID   uint        `gorm:"not null;uniqueIndex:idx_shortlink_target" json:"object_id"`
	Clicks     int64       `gorm:"not null;default:0" json:"clicks"`
	CreatedAt  time.Time   `json:"created_at"`
}

func (ShortLink) TableName() string {
	return "short_links"
}

// BeforeCreate fills the code lazily so callers never pick one.
func (s *ShortLink) BeforeCreate(tx *gorm.DB) error {
	if s.Code == "" {
		s.Code = util.NewShortCode()
	}
	return nil
}
