package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/HutchE92/handover/internal/platform/metrics"
)

// messageWriter is the subset of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events to a topic keyed by patient id, so every
// change to one patient lands on the same partition in order.
type KafkaPublisher struct {
	writer messageWriter
	logger zerolog.Logger
	// async writers count results in their completion callback, since
	// WriteMessages only queues the message.
	async bool
}

// NewKafkaPublisher creates an asynchronous writer. Delivery results are
// counted, and failures logged, once each batch completes.
func NewKafkaPublisher(brokers []string, topic string, logger zerolog.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Completion:   deliveryReport(topic, logger, metrics.RecordEventPublished),
	}
	return &KafkaPublisher{writer: w, logger: logger, async: true}
}

func newKafkaPublisherWithWriter(w messageWriter, logger zerolog.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, logger: logger}
}

// deliveryReport builds the writer's completion callback. Each message is
// counted under its event-type header.
func deliveryReport(topic string, logger zerolog.Logger, record func(eventType, result string)) func([]kafka.Message, error) {
	return func(messages []kafka.Message, err error) {
		result := "ok"
		if err != nil {
			result = "error"
			logger.Error().Err(err).Int("messages", len(messages)).Str("topic", topic).Msg("failed to deliver change events")
		}
		for _, msg := range messages {
			record(eventTypeOf(msg), result)
		}
	}
}

func eventTypeOf(msg kafka.Message) string {
	for _, h := range msg.Headers {
		if h.Key == "event-type" {
			return string(h.Value)
		}
	}
	return "unknown"
}

// Publish encodes the event as JSON and hands it to the writer.
func (p *KafkaPublisher) Publish(ctx context.Context, evt Event) error {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}
	value, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", evt.Type, err)
	}

	key := evt.PatientID
	if key == "" {
		key = evt.EntityID
	}
	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(evt.Type)},
		},
		Time: evt.OccurredAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		metrics.RecordEventPublished(evt.Type, "error")
		return fmt.Errorf("write event %s: %w", evt.Type, err)
	}
	if !p.async {
		metrics.RecordEventPublished(evt.Type, "ok")
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Emit publishes evt and logs, rather than returns, a failure. Change events
// never fail the request that caused them.
func Emit(ctx context.Context, pub Publisher, evt Event) {
	if pub == nil {
		return
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}
	if err := pub.Publish(ctx, evt); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).
			Str("event_type", evt.Type).
			Str("entity_id", evt.EntityID).
			Msg("failed to publish change event")
	}
}
