// Package kafka publishes audit events to a Kafka topic so downstream
// compliance consumers get the same envelope the store persists.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "cedent/pkg/platform/audit"
)

const defaultTopic = "audit.events"

// Sink wraps an audit.Store and mirrors every appended event to Kafka.
// Kafka delivery is best-effort: a broker outage must not fail the
// lifecycle operation that produced the event.
type Sink struct {
	next   audit.Store
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// Option configures a Sink.
type Option func(*Sink)

// WithTopic overrides the destination topic.
func WithTopic(topic string) Option {
	return func(s *Sink) {
		if topic != "" {
			s.topic = topic
		}
	}
}

// New connects to the given brokers and returns a store decorator that
// appends to next and produces to Kafka.
func New(next audit.Store, brokers []string, logger *slog.Logger, opts ...Option) (*Sink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("connect kafka: %w", err)
	}

	s := &Sink{next: next, client: client, topic: defaultTopic, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Sink) Append(ctx context.Context, event audit.Event) error {
	if err := s.next.Append(ctx, event); err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(fmt.Sprintf("%s:%s", event.EntityType, event.EntityID)),
		Value: payload,
	}
	s.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			s.logger.Error("kafka audit publish failed",
				"topic", s.topic,
				"entity_type", event.EntityType,
				"entity_id", event.EntityID,
				"error", err,
			)
		}
	})
	return nil
}

func (s *Sink) ListByEntity(ctx context.Context, entityType audit.EntityType, entityID string) ([]audit.Event, error) {
	return s.next.ListByEntity(ctx, entityType, entityID)
}

// Close flushes outstanding records and releases the client.
func (s *Sink) Close(ctx context.Context) error {
	err := s.client.Flush(ctx)
	s.client.Close()
	return err
}
