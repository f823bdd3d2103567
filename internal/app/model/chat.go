package model

import "time"

// ChatRoom is the single support room of a non-staff user. Closing it is final.
type ChatRoom struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	Active    bool      `gorm:"default:true;index" json:"active"`
	CreatedAt time.Time `json:"created_at"`

	User     User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Messages []Message `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE" json:"-"`
}

func (ChatRoom) TableName() string {
	return "chat_rooms"
}

type Message struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	RoomID    uint      `gorm:"not null;index" json:"room_id"`
	SenderID  uint      `gorm:"not null;index" json:"sender_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Timestamp time.Time `gorm:"autoCreateTime;index" json:"timestamp"`

	Sender User `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE" json:"sender,omitempty"`
}

func (Message) TableName() string {
	return "messages"
}
