package repository

import (
	"github.com/ikkim/campus-backend/internal/app/model"
	"gorm.io/gorm"
)

type ChatRepository interface {
	// Room operations
	CreateRoom(room *model.ChatRoom) error
	GetRoomByID(id uint) (*model.ChatRoom, error)
	GetRoomByUser(userID uint) (*model.ChatRoom, error)
	ListRooms(activeOnly bool) ([]model.ChatRoom, error)
	DeactivateRoom(id uint) (bool, error)
	DeleteInactiveRooms() (int64, error)

	// Message operations
	CreateMessage(message *model.Message) error
	GetRoomMessages(roomID uint) ([]model.Message, error)
}

type chatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

// CreateRoom creates a support room
func (r *chatRepository) CreateRoom(room *model.ChatRoom) error {
	return r.db.Omit("User", "Messages").Create(room).Error
}

// GetRoomByID finds a room by id
func (r *chatRepository) GetRoomByID(id uint) (*model.ChatRoom, error) {
	var room model.ChatRoom
	if err := r.db.First(&room, id).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

// GetRoomByUser finds the room owned by a user, active or not
func (r *chatRepository) GetRoomByUser(userID uint) (*model.ChatRoom, error) {
	var room model.ChatRoom
	if err := r.db.Where("user_id = ?", userID).First(&room).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

// ListRooms lists rooms with their owners, newest first
func (r *chatRepository) ListRooms(activeOnly bool) ([]model.ChatRoom, error) {
	var rooms []model.ChatRoom
	q := r.db.Preload("User")
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	if err := q.Order("created_at DESC, id DESC").Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

// DeactivateRoom closes an active room; false means it was already closed
func (r *chatRepository) DeactivateRoom(id uint) (bool, error) {
	result := r.db.Model(&model.ChatRoom{}).
		Where("id = ? AND active = ?", id, true).
		Update("active", false)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// DeleteInactiveRooms removes closed rooms and their messages
func (r *chatRepository) DeleteInactiveRooms() (int64, error) {
	var deleted int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		inactive := tx.Model(&model.ChatRoom{}).Select("id").Where("active = ?", false)
		if err := tx.Where("room_id IN (?)", inactive).Delete(&model.Message{}).Error; err != nil {
			return err
		}
		result := tx.Where("active = ?", false).Delete(&model.ChatRoom{})
		deleted = result.RowsAffected
		return result.Error
	})
	return deleted, err
}

// CreateMessage persists a message
func (r *chatRepository) CreateMessage(message *model.Message) error {
	return r.db.Omit("Sender").Create(message).Error
}

// GetRoomMessages lists a room's messages oldest first
func (r *chatRepository) GetRoomMessages(roomID uint) ([]model.Message, error) {
	var messages []model.Message
	err := r.db.Preload("Sender").
		Where("room_id = ?", roomID).
		Order("timestamp ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}
