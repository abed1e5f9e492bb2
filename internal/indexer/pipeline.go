package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/metrics"
)

// Summary describes one completed BuildAll run.
type Summary struct {
	DataDir     string
	CorpusSize  int
	UnigramKeys int
	BigramKeys  int
	Scanned     int
	Skipped     int
	Elapsed     time.Duration
}

// BuildAll builds the unigram index, then the bigram index, over corpus and
// saves both with their length tables into cfg.DataDir. The corpus size
// persisted is the unigram one; the ranker scores both layers against it.
func BuildAll(ctx context.Context, corpus Corpus, cfg config.IndexerConfig, m *metrics.Metrics) (*Summary, error) {
	start := time.Now()
	opts := Options{Workers: cfg.Workers, StrictDedup: cfg.StrictDedup, Metrics: m}

	uni, err := NewBuilder[string](Unigram{}, corpus, opts).Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("building unigram index: %w", err)
	}
	bi, err := NewBuilder[tokenizer.Bigram](Bigram{}, corpus, opts).Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("building bigram index: %w", err)
	}

	built := segment.Built{
		Unigrams:       uni.Index.Snapshot(Unigram{}.String),
		Bigrams:        bi.Index.Snapshot(Bigram{}.String),
		UnigramLengths: uni.Lengths,
		BigramLengths:  bi.Lengths,
		CorpusSize:     uni.CorpusSize,
	}
	if err := segment.Save(cfg.DataDir, built, cfg.WriteJSON); err != nil {
		return nil, fmt.Errorf("saving index artifacts: %w", err)
	}

	s := &Summary{
		DataDir:     cfg.DataDir,
		CorpusSize:  uni.CorpusSize,
		UnigramKeys: uni.Index.Len(),
		BigramKeys:  bi.Index.Len(),
		Scanned:     uni.Scanned,
		Skipped:     uni.Skipped,
		Elapsed:     time.Since(start),
	}
	slog.Info("index artifacts saved",
		"data_dir", s.DataDir,
		"corpus_size", s.CorpusSize,
		"unigram_keys", s.UnigramKeys,
		"bigram_keys", s.BigramKeys,
		"elapsed", s.Elapsed.Round(time.Millisecond),
	)
	return s, nil
}
