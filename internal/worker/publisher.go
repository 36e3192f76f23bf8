package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"catalogsync/internal/config"
	"catalogsync/internal/worker/processors"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher puts item events on the queue for the worker.
type Publisher struct {
	writer MessageWriter
	now    func() time.Time
}

func NewPublisher(cfg *config.Config) *Publisher {
	return NewPublisherWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers()...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	})
}

func NewPublisherWithWriter(writer MessageWriter) *Publisher {
	return &Publisher{writer: writer, now: func() time.Time { return time.Now().UTC() }}
}

// Enqueue publishes one event keyed by item code, so events for the same
// item land on the same partition in order.
func (p *Publisher) Enqueue(ctx context.Context, eventType, itemCode string) error {
	value, err := json.Marshal(processors.Event{
		Type:      eventType,
		ItemCode:  itemCode,
		Timestamp: p.now(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(itemCode), Value: value}); err != nil {
		return fmt.Errorf("failed to publish %s for %s: %w", eventType, itemCode, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
