// Package kafka wraps segmentio/kafka-go for the two event streams of the
// search system: index builds announced by the indexer and search events
// published by searchers. Values are JSON.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/resilience"
)

// MessageHandler processes one message. A nil return commits the message;
// an error leaves it uncommitted after the consumer's retries run out, and a
// resilience.Permanent error skips the retries.
type MessageHandler func(ctx context.Context, key []byte, value []byte) error

// Consumer reads one topic in a consumer group and dispatches each message
// to a MessageHandler.
type Consumer struct {
	reader   *kafka.Reader
	handler  MessageHandler
	attempts int
	backoff  resilience.Backoff
	logger   *slog.Logger
}

// NewConsumer joins cfg.ConsumerGroup on topic. Each message gets three
// handler attempts.
func NewConsumer(cfg config.KafkaConfig, topic string, handler MessageHandler) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       topic,
		GroupID:     cfg.ConsumerGroup,
		MinBytes:    1,
		MaxBytes:    1e6,
		MaxWait:     time.Second,
		StartOffset: kafka.LastOffset,
	})
	return &Consumer{
		reader:   r,
		handler:  handler,
		attempts: 3,
		backoff:  resilience.Backoff{Initial: 200 * time.Millisecond, Max: 30 * time.Second},
		logger:   slog.Default().With("component", "kafka-consumer", "topic", topic),
	}
}

// Start consumes until ctx is cancelled, then closes the reader. Fetch
// errors back off exponentially instead of spinning.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started")
	failures := 0
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping", "reason", ctx.Err())
				return c.reader.Close()
			}
			failures++
			c.logger.Error("failed to fetch message", "consecutive_failures", failures, "error", err)
			c.backoff.Sleep(ctx, failures)
			continue
		}
		failures = 0
		c.process(ctx, msg)
	}
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message) {
	log := c.logger.With("partition", msg.Partition, "offset", msg.Offset)
	log.Debug("message received", "key", string(msg.Key), "value_size", len(msg.Value))

	err := resilience.Retry(ctx, "kafka-handler", resilience.RetryConfig{
		MaxAttempts:  c.attempts,
		InitialDelay: c.backoff.Initial,
		MaxDelay:     c.backoff.Max,
	}, func() error {
		return c.handler(ctx, msg.Key, msg.Value)
	})
	if err != nil {
		log.Error("failed to process message", "error", err)
		return
	}
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		log.Error("failed to commit message", "error", err)
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

// DecodeJSON unmarshals a message value into T.
func DecodeJSON[T any](value []byte) (T, error) {
	var result T
	if err := json.Unmarshal(value, &result); err != nil {
		return result, fmt.Errorf("decoding kafka message: %w", err)
	}
	return result, nil
}
