package events

import "time"

const (
	TypeUserRegistered   = "user.registered"
	TypeOrderCheckedOut  = "order.checked_out"
	TypePaymentRequested = "payment.requested"
	TypePaymentVerified  = "payment.verified"
	TypeChatRoomClosed   = "chat.room_closed"
)

// Event is the envelope written to the event topic.
type Event struct {
	Type       string                 `json:"type"`
	OccurredAt time.Time              `json:"occurred_at"`
	Key        string                 `json:"key"`
	Data       map[string]interface{} `json:"data"`
}

func New(eventType, key string, data map[string]interface{}) Event {
	return Event{
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Key:        key,
		Data:       data,
	}
}
