package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/ikkim/campus-backend/internal/app/service"
	apperrors "github.com/ikkim/campus-backend/internal/errors"
	"github.com/ikkim/campus-backend/internal/middleware"
	ws "github.com/ikkim/campus-backend/internal/websocket"
	"github.com/ikkim/campus-backend/pkg/logger"
)

// Inbound websocket actions and the error codes sent back on a bad frame.
const (
	actionMessage   = "message"
	actionCloseChat = "close_chat"

	wsErrBadPayload       = "bad_payload"
	wsErrInvalidAction    = "invalid_action"
	wsErrPermissionDenied = "permission_denied"
	wsErrServerError      = "server_error"
)

type ChatController struct {
	chatService service.ChatService
	hub         *ws.Hub
	upgrader    websocket.Upgrader
}

// NewChatController accepts upgrades from allowedOrigins only; an empty list
// accepts any origin.
func NewChatController(chatService service.ChatService, hub *ws.Hub, allowedOrigins []string) *ChatController {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.TrimRight(o, "/")] = true
	}

	return &ChatController{
		chatService: chatService,
		hub:         hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if len(allowed) == 0 || origin == "" {
					return true
				}
				return allowed[origin]
			},
		},
	}
}

type ChatMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

type CloseRoomRequest struct {
	RoomID uint `json:"room_id"`
}

// inboundFrame is what clients send over the socket.
type inboundFrame struct {
	Action  string `json:"action"`
	Message string `json:"message"`
}

type errorFrame struct {
	Error string `json:"error"`
}

// CreateRoom opens the caller's support room
// POST /api/v1/chat/room/create
func (ctrl *ChatController) CreateRoom(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	room, err := ctrl.chatService.CreateRoom(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err, "Create chat room", map[string]interface{}{
			"user_id": actor.UserID,
		})
		return
	}

	log.Info("Chat room created", map[string]interface{}{
		"user_id": actor.UserID,
		"room_id": room.ID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"room": room,
	})
}

// GetMyRoom
// GET /api/v1/chat/room
func (ctrl *ChatController) GetMyRoom(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	room, err := ctrl.chatService.GetMyRoom(c.Request.Context(), actor.UserID)
	if err != nil {
		respondError(c, err, "Fetch chat room", map[string]interface{}{
			"user_id": actor.UserID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"room": room,
	})
}

// CloseRoom closes the caller's room, or the given room_id for staff
// POST /api/v1/chat/room/close
func (ctrl *ChatController) CloseRoom(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req CloseRoomRequest
	// The body is optional for the room owner.
	_ = c.ShouldBindJSON(&req)

	roomID := req.RoomID
	if roomID == 0 {
		room, err := ctrl.chatService.GetMyRoom(c.Request.Context(), actor.UserID)
		if err != nil {
			respondError(c, err, "Close chat room", map[string]interface{}{
				"user_id": actor.UserID,
			})
			return
		}
		roomID = room.ID
	}

	if err := ctrl.chatService.CloseRoom(c.Request.Context(), actor, roomID); err != nil {
		respondError(c, err, "Close chat room", map[string]interface{}{
			"user_id": actor.UserID,
			"room_id": roomID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Chat room closed",
		"room_id": roomID,
	})
}

// ListMyMessages
// GET /api/v1/chat/room/user_messages
func (ctrl *ChatController) ListMyMessages(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	messages, err := ctrl.chatService.ListMyMessages(c.Request.Context(), actor.UserID)
	if err != nil {
		respondError(c, err, "List chat messages", map[string]interface{}{
			"user_id": actor.UserID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": messages,
		"count":    len(messages),
	})
}

// PostMyMessage posts into the caller's room without a socket
// POST /api/v1/chat/room/user_messages
func (ctrl *ChatController) PostMyMessage(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req ChatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	message, err := ctrl.chatService.PostToMyRoom(c.Request.Context(), actor.UserID, req.Message)
	if err != nil {
		respondError(c, err, "Post chat message", map[string]interface{}{
			"user_id": actor.UserID,
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": message,
	})
}

// ListRooms
// GET /api/v1/management/chat/rooms
func (ctrl *ChatController) ListRooms(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	rooms, err := ctrl.chatService.ListRooms(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err, "List chat rooms", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rooms": rooms,
		"count": len(rooms),
	})
}

// ListRoomMessages reads any room, closed ones included
// GET /api/v1/management/chat/room/:room_id/admin_messages
func (ctrl *ChatController) ListRoomMessages(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	roomID, ok := parseID(c, "room_id")
	if !ok {
		return
	}

	messages, err := ctrl.chatService.ListRoomMessages(c.Request.Context(), actor, roomID)
	if err != nil {
		respondError(c, err, "List room messages", map[string]interface{}{
			"room_id": roomID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": messages,
		"count":    len(messages),
	})
}

// Support upgrades to a websocket bound to one room. The token arrives as a
// query parameter and is checked by the auth middleware.
// GET /ws/support/:room_id?token=
func (ctrl *ChatController) Support(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	actor, ok := currentActor(c)
	if !ok {
		return
	}
	roomID, ok := parseID(c, "room_id")
	if !ok {
		return
	}

	if err := ctrl.chatService.CanJoin(actor, roomID); err != nil {
		respondError(c, err, "Join support room", map[string]interface{}{
			"user_id": actor.UserID,
			"room_id": roomID,
		})
		return
	}

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket", err, map[string]interface{}{
			"user_id": actor.UserID,
		})
		return
	}

	client := ws.NewClient(ctrl.hub, &ws.Conn{Conn: conn}, actor.UserID, actor.IsStaff, roomID, ctrl.handleFrame)
	ctrl.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	log.Info("WebSocket connection established", map[string]interface{}{
		"user_id": actor.UserID,
		"room_id": roomID,
	})
}

// handleFrame processes one inbound frame; returning false closes the socket.
func (ctrl *ChatController) handleFrame(client *ws.Client, data []byte) bool {
	// The request context is gone once the upgrade handler returns.
	ctx := context.Background()
	actor := service.Actor{UserID: client.UserID, IsStaff: client.IsStaff}

	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		client.SendJSON(errorFrame{Error: wsErrBadPayload})
		return true
	}

	switch frame.Action {
	case actionMessage:
		if strings.TrimSpace(frame.Message) == "" {
			client.SendJSON(errorFrame{Error: wsErrBadPayload})
			return true
		}
		// The service broadcasts to every session of the room, this one included.
		if _, err := ctrl.chatService.PostMessage(ctx, actor, client.RoomID, frame.Message); err != nil {
			client.SendJSON(errorFrame{Error: postErrorCode(err)})
			if !errors.Is(err, service.ErrRoomNotFound) && !errors.Is(err, service.ErrRoomInactive) {
				logger.Error("Failed to persist chat message", err, map[string]interface{}{
					"user_id": client.UserID,
					"room_id": client.RoomID,
				})
			}
		}
		return true

	case actionCloseChat:
		if err := ctrl.chatService.CloseRoom(ctx, actor, client.RoomID); err != nil {
			client.SendJSON(errorFrame{Error: postErrorCode(err)})
			return true
		}
		return false

	default:
		client.SendJSON(errorFrame{Error: wsErrInvalidAction})
		return true
	}
}

func postErrorCode(err error) string {
	switch {
	case errors.Is(err, service.ErrRoomNotFound), errors.Is(err, service.ErrRoomInactive), errors.Is(err, service.ErrForbidden):
		return wsErrPermissionDenied
	case errors.Is(err, service.ErrEmptyMessage):
		return wsErrBadPayload
	default:
		return wsErrServerError
	}
}
