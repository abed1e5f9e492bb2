package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/config"
)

// TypeHeader carries Event.Type on every published message.
const TypeHeader = "event-type"

// Event is one message to publish. Key picks the partition, Value is
// encoded as JSON and Type, when set, travels in the TypeHeader header.
type Event struct {
	Key   string
	Type  string
	Value any
}

// Publisher is satisfied by Producer and by test doubles. Publish writes
// the events as a single batch.
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
}

// Producer publishes JSON events to one topic.
type Producer struct {
	writer *kafka.Writer
	topic  string
	logger *slog.Logger
}

func NewProducer(cfg config.KafkaConfig, topic string) *Producer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchSize:              100,
		BatchTimeout:           10 * time.Millisecond,
		MaxAttempts:            3,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Producer{
		writer: w,
		topic:  topic,
		logger: slog.Default().With("component", "kafka-producer", "topic", topic),
	}
}

func (p *Producer) Topic() string { return p.topic }

// Publish encodes every event and writes them synchronously. Nothing is
// written when any event fails to encode.
func (p *Producer) Publish(ctx context.Context, events ...Event) error {
	if len(events) == 0 {
		return nil
	}
	msgs, err := encodeMessages(events, time.Now())
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.logger.Error("failed to publish messages", "count", len(msgs), "error", err)
		return fmt.Errorf("publishing %d messages to %s: %w", len(msgs), p.topic, err)
	}
	p.logger.Debug("messages published", "count", len(msgs))
	return nil
}

func encodeMessages(events []Event, now time.Time) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		value, err := json.Marshal(e.Value)
		if err != nil {
			return nil, fmt.Errorf("encoding event %q: %w", e.Key, err)
		}
		msg := kafka.Message{Key: []byte(e.Key), Value: value, Time: now}
		if e.Type != "" {
			msg.Headers = []kafka.Header{{Key: TypeHeader, Value: []byte(e.Type)}}
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// Close flushes pending writes and closes the writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
