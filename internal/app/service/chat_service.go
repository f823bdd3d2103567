package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/internal/app/repository"
	"github.com/ikkim/campus-backend/internal/cache"
	"github.com/ikkim/campus-backend/internal/events"
	"github.com/ikkim/campus-backend/pkg/logger"
)

var (
	ErrRoomNotFound      = errors.New("chat room not found")
	ErrRoomAlreadyExists = errors.New("user already has a chat room")
	ErrRoomInactive      = errors.New("chat room is closed")
	ErrStaffNoRoom       = errors.New("staff do not open support rooms")
	ErrEmptyMessage      = errors.New("message text is required")
)

const (
	FrameChatMessage = "chat_message"
	FrameRoomClosed  = "room_closed"
)

// Frame is what every session of a room receives.
type Frame struct {
	Type      string    `json:"type"`
	RoomID    uint      `json:"room_id"`
	MessageID uint      `json:"message_id,omitempty"`
	SenderID  uint      `json:"sender_id,omitempty"`
	Sender    string    `json:"sender,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Broadcaster fans a frame out to every session of a room, across processes.
type Broadcaster interface {
	Publish(ctx context.Context, roomID uint, payload []byte) error
}

type ChatService interface {
	CreateRoom(ctx context.Context, actor Actor) (*model.ChatRoom, error)
	GetMyRoom(ctx context.Context, userID uint) (*model.ChatRoom, error)
	CloseRoom(ctx context.Context, actor Actor, roomID uint) error
	PostMessage(ctx context.Context, actor Actor, roomID uint, text string) (*model.Message, error)
	// PostToMyRoom is PostMessage against the caller's own room.
	PostToMyRoom(ctx context.Context, userID uint, text string) (*model.Message, error)
	ListMyMessages(ctx context.Context, userID uint) ([]model.Message, error)
	ListRoomMessages(ctx context.Context, actor Actor, roomID uint) ([]model.Message, error)
	ListRooms(ctx context.Context, actor Actor) ([]model.ChatRoom, error)
	CanJoin(actor Actor, roomID uint) error
	DeleteInactiveRooms(ctx context.Context) (int64, error)
}

type chatService struct {
	repo        repository.ChatRepository
	userRepo    repository.UserRepository
	cache       cache.Store
	invalidator *cache.Invalidator
	broadcaster Broadcaster
	publisher   events.Publisher
}

func NewChatService(
	repo repository.ChatRepository,
	userRepo repository.UserRepository,
	invalidator *cache.Invalidator,
	broadcaster Broadcaster,
	publisher events.Publisher,
) ChatService {
	return &chatService{
		repo:        repo,
		userRepo:    userRepo,
		cache:       invalidator.Store(),
		invalidator: invalidator,
		broadcaster: broadcaster,
		publisher:   publisher,
	}
}

// CreateRoom opens the caller's one and only support room.
func (s *chatService) CreateRoom(ctx context.Context, actor Actor) (*model.ChatRoom, error) {
	if actor.IsStaff {
		return nil, ErrStaffNoRoom
	}

	if _, err := s.repo.GetRoomByUser(actor.UserID); err == nil {
		return nil, ErrRoomAlreadyExists
	} else if !isNotFound(err) {
		return nil, err
	}

	room := &model.ChatRoom{UserID: actor.UserID, Active: true}
	if err := s.repo.CreateRoom(room); err != nil {
		return nil, err
	}

	s.invalidator.Apply(ctx, cache.Mutation{Kind: cache.ChatRoomChanged, UserIDs: []uint{actor.UserID}})
	logger.Info("Support room opened", map[string]interface{}{
		"room_id": room.ID,
		"user_id": actor.UserID,
	})
	return room, nil
}

func (s *chatService) GetMyRoom(ctx context.Context, userID uint) (*model.ChatRoom, error) {
	rooms, err := cache.Remember(ctx, s.cache, cache.KeyChatRooms(userID), cache.TTLChat, func() ([]model.ChatRoom, error) {
		room, err := s.repo.GetRoomByUser(userID)
		if err != nil {
			if isNotFound(err) {
				return []model.ChatRoom{}, nil
			}
			return nil, err
		}
		return []model.ChatRoom{*room}, nil
	})
	if err != nil {
		return nil, err
	}
	if len(rooms) == 0 {
		return nil, ErrRoomNotFound
	}
	return &rooms[0], nil
}

// CloseRoom is terminal; a closed room never reopens.
func (s *chatService) CloseRoom(ctx context.Context, actor Actor, roomID uint) error {
	room, err := s.repo.GetRoomByID(roomID)
	if err != nil {
		return notFoundOr(err, ErrRoomNotFound)
	}
	if !actor.IsStaff && room.UserID != actor.UserID {
		return ErrRoomNotFound
	}

	closed, err := s.repo.DeactivateRoom(room.ID)
	if err != nil {
		return err
	}
	if !closed {
		return ErrRoomInactive
	}

	s.invalidator.Apply(ctx, cache.Mutation{Kind: cache.ChatRoomChanged, RoomID: room.ID, UserIDs: []uint{room.UserID}})
	s.broadcast(ctx, Frame{Type: FrameRoomClosed, RoomID: room.ID, SenderID: actor.UserID, Timestamp: time.Now()})
	events.Emit(ctx, s.publisher, events.New(events.TypeChatRoomClosed, fmt.Sprint(room.ID), map[string]interface{}{
		"room_id":   room.ID,
		"closed_by": actor.UserID,
	}))

	logger.Info("Support room closed", map[string]interface{}{
		"room_id":   room.ID,
		"closed_by": actor.UserID,
	})
	return nil
}

// postable loads a room the actor may write to. Closed or foreign rooms look absent.
func (s *chatService) postable(actor Actor, roomID uint) (*model.ChatRoom, error) {
	room, err := s.repo.GetRoomByID(roomID)
	if err != nil {
		return nil, notFoundOr(err, ErrRoomNotFound)
	}
	if !room.Active {
		return nil, ErrRoomNotFound
	}
	if !actor.IsStaff && room.UserID != actor.UserID {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

func (s *chatService) PostMessage(ctx context.Context, actor Actor, roomID uint, text string) (*model.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	room, err := s.postable(actor, roomID)
	if err != nil {
		return nil, err
	}

	message := &model.Message{RoomID: room.ID, SenderID: actor.UserID, Content: text}
	if err := s.repo.CreateMessage(message); err != nil {
		return nil, err
	}

	s.invalidator.Apply(ctx, cache.Mutation{Kind: cache.MessageCreated, RoomID: room.ID})

	frame := Frame{
		Type:      FrameChatMessage,
		RoomID:    room.ID,
		MessageID: message.ID,
		SenderID:  actor.UserID,
		Message:   message.Content,
		Timestamp: message.Timestamp,
	}
	if sender, err := s.userRepo.FindByID(actor.UserID); err == nil {
		message.Sender = *sender
		frame.Sender = sender.Username
	}
	s.broadcast(ctx, frame)
	return message, nil
}

func (s *chatService) PostToMyRoom(ctx context.Context, userID uint, text string) (*model.Message, error) {
	room, err := s.GetMyRoom(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.PostMessage(ctx, Actor{UserID: userID}, room.ID, text)
}

func (s *chatService) broadcast(ctx context.Context, frame Frame) {
	if s.broadcaster == nil {
		return
	}
	payload, err := json.Marshal(frame)
	if err != nil {
		logger.Error("Failed to encode chat frame", err)
		return
	}
	if err := s.broadcaster.Publish(ctx, frame.RoomID, payload); err != nil {
		logger.Warn("Chat broadcast failed", map[string]interface{}{
			"room_id": frame.RoomID,
			"error":   err.Error(),
		})
	}
}

func (s *chatService) ListMyMessages(ctx context.Context, userID uint) ([]model.Message, error) {
	room, err := s.repo.GetRoomByUser(userID)
	if err != nil {
		return nil, notFoundOr(err, ErrRoomNotFound)
	}
	if !room.Active {
		return nil, ErrRoomInactive
	}
	return cache.Remember(ctx, s.cache, cache.KeyRoomMessages(room.ID, userID), cache.TTLChat, func() ([]model.Message, error) {
		return s.repo.GetRoomMessages(room.ID)
	})
}

// ListRoomMessages is the staff view and also serves closed rooms.
func (s *chatService) ListRoomMessages(ctx context.Context, actor Actor, roomID uint) ([]model.Message, error) {
	if !actor.IsStaff {
		return nil, ErrStaffOnly
	}
	if _, err := s.repo.GetRoomByID(roomID); err != nil {
		return nil, notFoundOr(err, ErrRoomNotFound)
	}
	return cache.Remember(ctx, s.cache, cache.KeyRoomMessages(roomID, actor.UserID), cache.TTLChat, func() ([]model.Message, error) {
		return s.repo.GetRoomMessages(roomID)
	})
}

func (s *chatService) ListRooms(ctx context.Context, actor Actor) ([]model.ChatRoom, error) {
	if !actor.IsStaff {
		return nil, ErrStaffOnly
	}
	return cache.Remember(ctx, s.cache, cache.KeyChatRooms(actor.UserID), cache.TTLChat, func() ([]model.ChatRoom, error) {
		return s.repo.ListRooms(false)
	})
}

// CanJoin applies the socket admission rule: the room must be active, and
// non-staff must own it.
func (s *chatService) CanJoin(actor Actor, roomID uint) error {
	_, err := s.postable(actor, roomID)
	return err
}

func (s *chatService) DeleteInactiveRooms(ctx context.Context) (int64, error) {
	deleted, err := s.repo.DeleteInactiveRooms()
	if err != nil {
		logger.Error("Failed to delete inactive rooms", err)
		return 0, err
	}
	if deleted > 0 {
		s.invalidator.Apply(ctx, cache.Mutation{Kind: cache.ChatRoomChanged})
	}

	logger.Info("Inactive chat rooms deleted", map[string]interface{}{
		"deleted": deleted,
	})
	return deleted, nil
}
