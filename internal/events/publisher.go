// Package events publishes validation lifecycle events to Kafka so other
// systems can follow scene validations without polling the record store.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Event types emitted over the lifetime of one validation.
const (
	TypeValidationStarted   = "validation.started"
	TypeValidationCompleted = "validation.completed"
	TypeValidationErrored   = "validation.errored"
)

// Event is the message body published for each lifecycle transition. The
// scene ID doubles as the partition key so events for one scene stay ordered.
type Event struct {
	Type         string    `json:"type"`
	ValidationID string    `json:"validation_id"`
	SceneID      string    `json:"scene_id"`
	Status       string    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// KafkaPublisherConfig carries the configurable parameters for the Kafka
// publisher.
type KafkaPublisherConfig struct {
	Brokers []string
	Topic   string

	// WriteTimeout is the per-attempt timeout for writes. Defaults to 10s.
	WriteTimeout time.Duration
}

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(cfg KafkaPublisherConfig) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: at least one broker required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka: topic required")
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      cfg.Brokers,
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: cfg.WriteTimeout,
		Async:        false,
	})
	return &KafkaPublisher{writer: w}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(ev.SceneID),
		Value: value,
		Time:  ev.Timestamp,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// NoopPublisher drops every event. Used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, ev Event) error { return nil }
func (NoopPublisher) Close() error                                { return nil }
