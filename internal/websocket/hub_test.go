package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func receive(t *testing.T, c *Client) []byte {
	select {
	case msg := <-c.Send:
		return msg
	case <-time.After(time.Second):
		t.Fatalf("no frame for user %d", c.UserID)
		return nil
	}
}

func TestHub_DeliverIncludesSender(t *testing.T) {
	hub := startHub(t)
	owner := NewClient(hub, nil, 1, false, 7, nil)
	staff := NewClient(hub, nil, 2, true, 7, nil)
	other := NewClient(hub, nil, 3, false, 8, nil)
	hub.Register(owner)
	hub.Register(staff)
	hub.Register(other)
	require.Eventually(t, func() bool { return hub.SessionCount(7) == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, NewLocalBroker(hub).Publish(context.Background(), 7, []byte(`{"type":"chat_message"}`)))

	assert.JSONEq(t, `{"type":"chat_message"}`, string(receive(t, owner)))
	assert.JSONEq(t, `{"type":"chat_message"}`, string(receive(t, staff)))
	select {
	case <-other.Send:
		t.Fatal("frame leaked into another room")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_UnregisterLeavesRoom(t *testing.T) {
	hub := startHub(t)
	c := NewClient(hub, nil, 1, false, 9, nil)
	hub.Register(c)
	require.Eventually(t, func() bool { return hub.SessionCount(9) == 1 }, time.Second, 5*time.Millisecond)

	hub.Unregister(c)
	require.Eventually(t, func() bool { return hub.SessionCount(9) == 0 }, time.Second, 5*time.Millisecond)

	_, open := <-c.Send
	assert.False(t, open)

	// A second unregister must not panic on the closed channel.
	hub.Unregister(c)
	c.SendJSON(map[string]string{"error": "late"})
}

func TestHub_StoppedHubDoesNotBlock(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	finished := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			hub.Unregister(NewClient(hub, nil, uint(i), false, 3, nil))
		}
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("unregister blocked on a stopped hub")
	}

	late := NewClient(hub, nil, 1, false, 3, nil)
	hub.Register(late)
	_, open := <-late.Send
	assert.False(t, open)
	assert.Zero(t, hub.SessionCount(3))
}

func TestParseRoomChannel(t *testing.T) {
	id, err := ParseRoomChannel(RoomChannel(42))
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	_, err = ParseRoomChannel("chat:other:1")
	assert.Error(t, err)
	_, err = ParseRoomChannel("chat:room:abc")
	assert.Error(t, err)
}

func TestClient_RateLimit(t *testing.T) {
	c := NewClient(nil, nil, 1, false, 1, nil)
	for i := 0; i < maxMessagesPerSecond; i++ {
		assert.True(t, c.allow())
	}
	assert.False(t, c.allow())
}
