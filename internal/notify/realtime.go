package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

const RealtimeTopic = "customer-notifications"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type realtimeEnvelope struct {
	Event       string    `json:"event"`
	RecipientID string    `json:"recipient_id"`
	Data        any       `json:"data"`
	SentAt      time.Time `json:"sent_at"`
}

// KafkaPublisher writes realtime events to a topic keyed by recipient, so a
// socket bridge can push them to connected clients in order.
type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(topic string, brokers ...string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) Publish(ctx context.Context, recipientID string, event string, payload any) error {
	value, err := json.Marshal(realtimeEnvelope{
		Event:       event,
		RecipientID: recipientID,
		Data:        payload,
		SentAt:      time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal realtime event failed: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(recipientID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish realtime event failed: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
