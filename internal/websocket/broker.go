package websocket

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ikkim/campus-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const roomChannelPrefix = "chat:room:"

// Broker carries room frames to every process that may hold sessions of the room.
type Broker interface {
	Publish(ctx context.Context, roomID uint, payload []byte) error
	// Run delivers published frames to the local hub until ctx ends.
	Run(ctx context.Context)
}

func RoomChannel(roomID uint) string {
	return fmt.Sprintf("%s%d", roomChannelPrefix, roomID)
}

// LocalBroker is used when Redis is disabled; only this process sees the frames.
type LocalBroker struct {
	hub *Hub
}

func NewLocalBroker(hub *Hub) *LocalBroker {
	return &LocalBroker{hub: hub}
}

func (b *LocalBroker) Publish(_ context.Context, roomID uint, payload []byte) error {
	b.hub.Deliver(roomID, payload)
	return nil
}

func (b *LocalBroker) Run(ctx context.Context) {
	<-ctx.Done()
}

type RedisBroker struct {
	client *redis.Client
	hub    *Hub
}

func NewRedisBroker(client *redis.Client, hub *Hub) *RedisBroker {
	return &RedisBroker{client: client, hub: hub}
}

func (b *RedisBroker) Publish(ctx context.Context, roomID uint, payload []byte) error {
	return b.client.Publish(ctx, RoomChannel(roomID), payload).Err()
}

func (b *RedisBroker) Run(ctx context.Context) {
	pubsub := b.client.PSubscribe(ctx, roomChannelPrefix+"*")
	defer pubsub.Close()

	logger.Info("Chat broker subscribed", map[string]interface{}{
		"pattern": roomChannelPrefix + "*",
	})

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			roomID, err := ParseRoomChannel(msg.Channel)
			if err != nil {
				logger.Warn("Ignoring message on unexpected channel", map[string]interface{}{
					"channel": msg.Channel,
				})
				continue
			}
			b.hub.Deliver(roomID, []byte(msg.Payload))
		}
	}
}

func ParseRoomChannel(channel string) (uint, error) {
	if !strings.HasPrefix(channel, roomChannelPrefix) {
		return 0, fmt.Errorf("not a room channel: %s", channel)
	}
	id, err := strconv.ParseUint(strings.TrimPrefix(channel, roomChannelPrefix), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
