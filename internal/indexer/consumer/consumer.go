// Package consumer reacts to index.complete events from Kafka by reloading
// a searcher's artifacts and dropping its cached pages.
package consumer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/kafka"
)

// Reloader reopens index artifacts.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Invalidator drops results computed from the previous artifacts.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// IndexConsumer wraps a Kafka consumer to drive reloads.
type IndexConsumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

// New creates an IndexConsumer backed by the given Kafka consumer.
func New(kafkaConsumer *kafka.Consumer) *IndexConsumer {
	return &IndexConsumer{
		consumer: kafkaConsumer,
		logger:   slog.Default().With("component", "index-consumer"),
	}
}

// Start begins consuming Kafka messages. It blocks until ctx is cancelled.
func (ic *IndexConsumer) Start(ctx context.Context) error {
	ic.logger.Info("index consumer starting")
	return ic.consumer.Start(ctx)
}

// HandleIndexComplete returns a handler that reloads r whenever a build for
// dataDir completes. Events for other data directories, and events older
// than the last one applied, are acknowledged and ignored. inv may be nil.
func HandleIndexComplete(r Reloader, inv Invalidator, dataDir string) kafka.MessageHandler {
	logger := slog.Default().With("component", "index-consumer")
	var (
		mu      sync.Mutex
		applied time.Time
	)
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[indexer.IndexCompleteEvent](value)
		if err != nil {
			logger.Error("failed to decode index.complete event",
				"error", err,
				"key", string(key),
			)
			return nil
		}
		if filepath.Clean(event.DataDir) != filepath.Clean(dataDir) {
			logger.Debug("index.complete for another data directory",
				"build_id", event.BuildID,
				"data_dir", event.DataDir,
			)
			return nil
		}

		mu.Lock()
		defer mu.Unlock()
		if event.CompletedAt.Before(applied) {
			logger.Info("stale index.complete ignored",
				"build_id", event.BuildID,
				"completed_at", event.CompletedAt,
			)
			return nil
		}
		if err := r.Reload(ctx); err != nil {
			return fmt.Errorf("reloading build %s: %w", event.BuildID, err)
		}
		applied = event.CompletedAt
		if inv != nil {
			if err := inv.Invalidate(ctx); err != nil {
				logger.Warn("cache invalidation after reload failed", "error", err)
			}
		}

		logger.Info("index reloaded",
			"build_id", event.BuildID,
			"corpus_size", event.CorpusSize,
			"unigram_keys", event.UnigramKeys,
			"bigram_keys", event.BigramKeys,
		)
		return nil
	}
}
