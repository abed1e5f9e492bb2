package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/kafka"
)

// IndexCompleteEvent is published after BuildAll saves a new artifact set.
// Searchers reload from DataDir when they receive it.
type IndexCompleteEvent struct {
	BuildID     string    `json:"build_id"`
	DataDir     string    `json:"data_dir"`
	CorpusSize  int       `json:"corpus_size"`
	UnigramKeys int       `json:"unigram_keys"`
	BigramKeys  int       `json:"bigram_keys"`
	CompletedAt time.Time `json:"completed_at"`
}

// NewIndexCompleteEvent describes s under a fresh build id.
func NewIndexCompleteEvent(s *Summary) IndexCompleteEvent {
	return IndexCompleteEvent{
		BuildID:     uuid.NewString(),
		DataDir:     s.DataDir,
		CorpusSize:  s.CorpusSize,
		UnigramKeys: s.UnigramKeys,
		BigramKeys:  s.BigramKeys,
		CompletedAt: time.Now().UTC(),
	}
}

// PublishComplete announces a finished build, keyed by its build id.
func PublishComplete(ctx context.Context, p kafka.Publisher, s *Summary) (IndexCompleteEvent, error) {
	event := NewIndexCompleteEvent(s)
	if err := p.Publish(ctx, kafka.Event{Key: event.BuildID, Type: "index.complete", Value: event}); err != nil {
		return event, fmt.Errorf("publishing index.complete: %w", err)
	}
	return event, nil
}
