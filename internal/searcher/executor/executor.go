// Package executor serves queries from one loaded artifact set: the two
// segment indexes, their length tables and the corpus the snippets come
// from. Reload swaps in a freshly loaded set without blocking searches
// running against the old one.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/searcher/snippet"
	apperrors "github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/tracing"
)

// Hit is one ranked result as returned to clients.
type Hit struct {
	DocID   string  `json:"doc_id"`
	URL     string  `json:"url"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

type SearchResult struct {
	Query        string `json:"query"`
	Page         int    `json:"page"`
	TotalResults int    `json:"total_results"`
	Results      []Hit  `json:"results"`
	QueryTimeMs  int64  `json:"query_time_ms"`
}

// Config locates the artifacts and sizes result pages.
type Config struct {
	DataDir       string
	CorpusDir     string
	PageSize      int
	SnippetLength int
}

// snapshot is one immutable artifact set. inUse tracks searches still
// reading it so Reload can close it once they finish.
type snapshot struct {
	artifacts *segment.Loaded
	corpus    *corpus.Store
	loadedAt  time.Time
	inUse     sync.WaitGroup
}

type Executor struct {
	cfg    Config
	mu     sync.RWMutex
	snap   *snapshot
	logger *slog.Logger
}

// New creates an Executor with nothing loaded; call Reload before serving.
func New(cfg Config) *Executor {
	if cfg.PageSize <= 0 {
		cfg.PageSize = ranker.PageSize
	}
	return &Executor{
		cfg:    cfg,
		logger: slog.Default().With("component", "query-executor"),
	}
}

// Reload opens the artifacts and corpus again and makes them current. The
// previous set is closed after in-flight searches release it.
func (e *Executor) Reload(ctx context.Context) error {
	start := time.Now()
	artifacts, err := segment.Load(e.cfg.DataDir)
	if err != nil {
		return fmt.Errorf("loading index artifacts: %w", err)
	}
	store, err := corpus.Open(e.cfg.CorpusDir)
	if err != nil {
		artifacts.Close()
		return fmt.Errorf("loading corpus: %w", err)
	}
	next := &snapshot{artifacts: artifacts, corpus: store, loadedAt: time.Now()}

	e.mu.Lock()
	prev := e.snap
	e.snap = next
	e.mu.Unlock()

	e.logger.Info("index loaded",
		"data_dir", e.cfg.DataDir,
		"corpus_size", artifacts.CorpusSize,
		"unigram_terms", artifacts.Unigrams.Terms(),
		"bigram_terms", artifacts.Bigrams.Terms(),
		"unigram_docs", artifacts.Unigrams.DocCount(),
		"bigram_docs", artifacts.Bigrams.DocCount(),
		"documents", store.Len(),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	if prev != nil {
		go func() {
			prev.inUse.Wait()
			if err := prev.artifacts.Close(); err != nil {
				e.logger.Error("closing previous index failed", "error", err)
			}
		}()
	}
	return nil
}

// Loaded reports whether an artifact set is being served.
func (e *Executor) Loaded() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snap != nil
}

func (e *Executor) acquire() (*snapshot, func()) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.snap == nil {
		return nil, func() {}
	}
	s := e.snap
	s.inUse.Add(1)
	return s, s.inUse.Done
}

// Execute ranks plan and returns the given zero-based page with snippets.
func (e *Executor) Execute(ctx context.Context, plan *parser.QueryPlan, page int) (*SearchResult, error) {
	start := time.Now()
	page = max(page, 0)
	if page > math.MaxInt/e.cfg.PageSize {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "page %d is out of range", page)
	}
	result := &SearchResult{Query: plan.RawQuery, Page: page, Results: []Hit{}}

	snap, release := e.acquire()
	defer release()
	if snap == nil {
		return nil, apperrors.ErrIndexNotLoaded
	}

	_, rankSpan := tracing.StartChildSpan(ctx, "rank")
	ranked, err := ranker.Rank(ranker.Input{
		Plan:           plan,
		Unigrams:       snap.artifacts.Unigrams,
		Bigrams:        snap.artifacts.Bigrams,
		CorpusSize:     snap.artifacts.CorpusSize,
		UnigramLengths: snap.artifacts.UnigramLengths,
		BigramLengths:  snap.artifacts.BigramLengths,
		Offset:         page * e.cfg.PageSize,
		Limit:          e.cfg.PageSize,
	})
	if err != nil {
		rankSpan.End()
		return nil, fmt.Errorf("ranking %q: %w", plan.RawQuery, err)
	}
	rankSpan.SetAttr("total_results", ranked.Total)
	rankSpan.End()
	result.TotalResults = ranked.Total

	ids := make([]string, len(ranked.Docs))
	for i, d := range ranked.Docs {
		ids[i] = d.DocID
	}
	snipCtx, snipSpan := tracing.StartChildSpan(ctx, "snippets")
	snippets, err := snippet.Extract(snipCtx, snap.corpus, ids, e.cfg.SnippetLength)
	snipSpan.End()
	if err != nil {
		return nil, fmt.Errorf("building snippets: %w", err)
	}
	for i, d := range ranked.Docs {
		u, ok := snap.corpus.URL(d.DocID)
		if !ok {
			u = d.DocID
		}
		result.Results = append(result.Results, Hit{
			DocID:   d.DocID,
			URL:     u,
			Title:   snippets[i].Title,
			Snippet: snippets[i].Text,
			Score:   d.Score,
		})
	}
	result.QueryTimeMs = time.Since(start).Milliseconds()

	e.logger.Debug("query executed",
		"query", plan.RawQuery,
		"terms", plan.Terms,
		"page", page,
		"total_results", result.TotalResults,
		"returned", len(result.Results),
	)
	return result, nil
}

// Close releases the current artifact set.
func (e *Executor) Close() error {
	e.mu.Lock()
	s := e.snap
	e.snap = nil
	e.mu.Unlock()
	if s == nil {
		return nil
	}
	s.inUse.Wait()
	return s.artifacts.Close()
}
