package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ikkim/campus-backend/pkg/logger"
)

const sendBuffer = 256

// MessageHandler processes one inbound frame. Returning false closes the session.
type MessageHandler func(c *Client, data []byte) bool

// Client is one websocket session bound to a single chat room.
type Client struct {
	Hub       *Hub
	Conn      *Conn
	UserID    uint
	IsStaff   bool
	RoomID    uint
	Send      chan []byte
	OnMessage MessageHandler

	mu     sync.Mutex
	closed bool

	messageCount int
	lastReset    time.Time
}

func NewClient(hub *Hub, conn *Conn, userID uint, isStaff bool, roomID uint, onMessage MessageHandler) *Client {
	return &Client{
		Hub:       hub,
		Conn:      conn,
		UserID:    userID,
		IsStaff:   isStaff,
		RoomID:    roomID,
		Send:      make(chan []byte, sendBuffer),
		OnMessage: onMessage,
	}
}

// enqueue never blocks and never writes to a closed channel.
func (c *Client) enqueue(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// SendJSON writes a frame to this session only.
func (c *Client) SendJSON(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Error("Failed to marshal websocket frame", err, map[string]interface{}{
			"user_id": c.UserID,
		})
		return
	}
	if !c.enqueue(data) {
		logger.Warn("Websocket frame dropped", map[string]interface{}{
			"user_id": c.UserID,
			"room_id": c.RoomID,
		})
	}
}

type roomMessage struct {
	roomID  uint
	payload []byte
}

// Hub tracks the sessions of every room served by this process.
type Hub struct {
	rooms map[uint]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *roomMessage
	// done is closed once Run has returned.
	done chan struct{}

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[uint]map[*Client]bool),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		broadcast:  make(chan *roomMessage, 1024),
		done:       make(chan struct{}),
	}
}

// Run owns the room maps until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			h.drainPending()
			return

		case client := <-h.register:
			h.mu.Lock()
			sessions, ok := h.rooms[client.RoomID]
			if !ok {
				sessions = make(map[*Client]bool)
				h.rooms[client.RoomID] = sessions
			}
			sessions[client] = true
			count := len(sessions)
			h.mu.Unlock()
			logger.Info("User joined chat room", map[string]interface{}{
				"user_id":  client.UserID,
				"room_id":  client.RoomID,
				"sessions": count,
			})

		case client := <-h.unregister:
			h.leave(client)

		case msg := <-h.broadcast:
			h.mu.RLock()
			var stalled []*Client
			for client := range h.rooms[msg.roomID] {
				if !client.enqueue(msg.payload) {
					stalled = append(stalled, client)
				}
			}
			h.mu.RUnlock()
			for _, client := range stalled {
				logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
					"user_id": client.UserID,
					"room_id": client.RoomID,
				})
				h.leave(client)
			}
		}
	}
}

func (h *Hub) leave(client *Client) {
	h.mu.Lock()
	if sessions, ok := h.rooms[client.RoomID]; ok {
		delete(sessions, client)
		if len(sessions) == 0 {
			delete(h.rooms, client.RoomID)
		}
	}
	h.mu.Unlock()
	client.close()
	logger.Info("User left chat room", map[string]interface{}{
		"user_id": client.UserID,
		"room_id": client.RoomID,
	})
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for roomID, sessions := range h.rooms {
		for client := range sessions {
			client.close()
		}
		delete(h.rooms, roomID)
	}
}

// drainPending closes clients whose register or unregister was queued but
// never handled.
func (h *Hub) drainPending() {
	for {
		select {
		case client := <-h.register:
			client.close()
		case client := <-h.unregister:
			client.close()
		default:
			return
		}
	}
}

// Register and Unregister never block after Run has returned; the client is
// closed instead.
func (h *Hub) Register(client *Client) {
	h.submit(h.register, client)
}

func (h *Hub) Unregister(client *Client) {
	h.submit(h.unregister, client)
}

func (h *Hub) submit(ch chan<- *Client, client *Client) {
	select {
	case <-h.done:
		client.close()
		return
	default:
	}
	select {
	case <-h.done:
		client.close()
	case ch <- client:
	}
}

// Deliver fans payload out to every local session of the room, sender included.
func (h *Hub) Deliver(roomID uint, payload []byte) {
	select {
	case h.broadcast <- &roomMessage{roomID: roomID, payload: payload}:
	default:
		logger.Warn("Broadcast channel full, message dropped", map[string]interface{}{
			"room_id": roomID,
		})
	}
}

func (h *Hub) SessionCount(roomID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}
