package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ikkim/campus-backend/config"
	"github.com/ikkim/campus-backend/pkg/logger"
	"github.com/segmentio/kafka-go"
)

const publishTimeout = 5 * time.Second

// Publisher emits domain events after their transaction commits.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NewPublisher returns a Kafka publisher, or a no-op one when Kafka is disabled.
func NewPublisher(cfg *config.KafkaConfig) Publisher {
	if cfg == nil || !cfg.Enabled || len(cfg.Brokers) == 0 {
		logger.Info("Kafka disabled, domain events are logged only")
		return NoopPublisher{}
	}
	return NewKafkaPublisher(cfg.Brokers, cfg.Topic)
}

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
			BatchTimeout:           50 * time.Millisecond,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka: marshal event failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Key),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}); err != nil {
		return fmt.Errorf("kafka: write failed: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(_ context.Context, event Event) error {
	logger.Debug("Domain event", map[string]interface{}{
		"type": event.Type,
		"key":  event.Key,
	})
	return nil
}

func (NoopPublisher) Close() error { return nil }

// Emit publishes and logs failures; callers never fail on event delivery.
func Emit(ctx context.Context, p Publisher, event Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, event); err != nil {
		logger.Warn("Failed to publish domain event", map[string]interface{}{
			"type":  event.Type,
			"key":   event.Key,
			"error": err.Error(),
		})
	}
}
