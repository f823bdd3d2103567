package controller

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/internal/app/service"
	apperrors "github.com/ikkim/campus-backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupChatControllerTest(t *testing.T) *testApp {
	app := setupTestApp(t)
	chat := NewChatController(app.svc.chat, app.hub, nil)

	room := app.router.Group("/chat/room", app.auth.Authenticate())
	room.POST("/create", chat.CreateRoom)
	room.GET("", chat.GetMyRoom)
	room.POST("/close", chat.CloseRoom)
	room.GET("/user_messages", chat.ListMyMessages)
	room.POST("/user_messages", chat.PostMyMessage)

	mgmt := app.router.Group("/management/chat", app.auth.Authenticate(), app.auth.RequireStaff())
	mgmt.GET("/rooms", chat.ListRooms)
	mgmt.GET("/room/:room_id/admin_messages", chat.ListRoomMessages)

	app.router.GET("/ws/support/:room_id", app.auth.Authenticate(), chat.Support)
	return app
}

func createRoom(t *testing.T, app *testApp, token string) uint {
	w := app.do("POST", "/chat/room/create", nil, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return uint(decodeBody(t, w)["room"].(map[string]interface{})["id"].(float64))
}

func TestChatController_RoomLifecycle(t *testing.T) {
	app := setupChatControllerTest(t)
	student := app.createUser("student", model.RoleStudent, false)
	staff := app.createUser("support", model.RoleTeacher, true)
	token, staffToken := app.tokenFor(student), app.tokenFor(staff)

	w := app.do("GET", "/chat/room", nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	roomID := createRoom(t, app, token)

	w = app.do("POST", "/chat/room/create", nil, token)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperrors.ChatRoomExists, errorCode(t, w))

	w = app.do("POST", "/chat/room/create", nil, staffToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do("POST", "/chat/room/user_messages", ChatMessageRequest{Message: "My video does not load"}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = app.do("GET", "/chat/room/user_messages", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeBody(t, w)["count"])

	w = app.do("GET", "/management/chat/rooms", nil, staffToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeBody(t, w)["count"])

	w = app.do("GET", fmt.Sprintf("/management/chat/room/%d/admin_messages", roomID), nil, staffToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeBody(t, w)["count"])

	w = app.do("GET", "/management/chat/rooms", nil, token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do("POST", "/chat/room/close", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(roomID), decodeBody(t, w)["room_id"])

	w = app.do("POST", "/chat/room/user_messages", ChatMessageRequest{Message: "still there?"}, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.ChatRoomNotFound, errorCode(t, w))

	w = app.do("POST", "/chat/room/close", nil, token)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, apperrors.ChatRoomInactive, errorCode(t, w))
}

func dialSupport(t *testing.T, server *httptest.Server, roomID uint, token string) (*websocket.Conn, *http.Response, error) {
	url := fmt.Sprintf("ws%s/ws/support/%d?token=%s", strings.TrimPrefix(server.URL, "http"), roomID, token)
	return websocket.DefaultDialer.Dial(url, nil)
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var frame map[string]interface{}
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestChatController_SupportSocket(t *testing.T) {
	app := setupChatControllerTest(t)
	student := app.createUser("student", model.RoleStudent, false)
	staff := app.createUser("support", model.RoleTeacher, true)
	stranger := app.createUser("stranger", model.RoleStudent, false)
	roomID := createRoom(t, app, app.tokenFor(student))

	server := httptest.NewServer(app.router)
	defer server.Close()

	_, resp, err := dialSupport(t, server, roomID, app.tokenFor(stranger))
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, resp, err = dialSupport(t, server, roomID, "")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	studentConn, _, err := dialSupport(t, server, roomID, app.tokenFor(student))
	require.NoError(t, err)
	defer studentConn.Close()
	staffConn, _, err := dialSupport(t, server, roomID, app.tokenFor(staff))
	require.NoError(t, err)
	defer staffConn.Close()

	assert.Eventually(t, func() bool { return app.hub.SessionCount(roomID) == 2 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, studentConn.WriteJSON(map[string]string{"action": "message", "message": "hello"}))
	for _, conn := range []*websocket.Conn{studentConn, staffConn} {
		frame := readFrame(t, conn)
		assert.Equal(t, service.FrameChatMessage, frame["type"])
		assert.Equal(t, "hello", frame["message"])
		assert.Equal(t, float64(student.ID), frame["sender_id"])
	}

	require.NoError(t, studentConn.WriteJSON(map[string]string{"action": "dance"}))
	assert.Equal(t, "invalid_action", readFrame(t, studentConn)["error"])

	require.NoError(t, studentConn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	assert.Equal(t, "bad_payload", readFrame(t, studentConn)["error"])

	require.NoError(t, studentConn.WriteJSON(map[string]string{"action": "message", "message": "   "}))
	assert.Equal(t, "bad_payload", readFrame(t, studentConn)["error"])

	require.NoError(t, staffConn.WriteJSON(map[string]string{"action": "close_chat"}))
	assert.Equal(t, service.FrameRoomClosed, readFrame(t, studentConn)["type"])

	var room model.ChatRoom
	require.NoError(t, app.db.First(&room, roomID).Error)
	assert.False(t, room.Active)
}
