package model

import "time"

type Blocklist struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	IPAddr    string    `gorm:"size:45;uniqueIndex;not null" json:"ip_addr"`
	Reason    string    `gorm:"size:255" json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

func (Blocklist) TableName() string {
	return "blocklist"
}
