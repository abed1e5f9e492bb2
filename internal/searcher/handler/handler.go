// Package handler serves the search HTTP API.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/searcher/parser"
	apperrors "github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/tracing"
)

type SearchExecutor interface {
	Execute(ctx context.Context, plan *parser.QueryPlan, page int) (*executor.SearchResult, error)
	Reload(ctx context.Context) error
}

// Options holds the optional collaborators. Any of them may be nil.
type Options struct {
	Cache   *cache.QueryCache
	Tracker analytics.Tracker
	Metrics *metrics.Metrics
}

type Handler struct {
	executor SearchExecutor
	cache    *cache.QueryCache
	tracker  analytics.Tracker
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func New(exec SearchExecutor, opts Options) *Handler {
	return &Handler{
		executor: exec,
		cache:    opts.Cache,
		tracker:  opts.Tracker,
		metrics:  opts.Metrics,
		logger:   slog.Default().With("component", "search-handler"),
	}
}

// Routes registers the API on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("POST /api/v1/reload", h.Reload)
}

// CacheHeader reports HIT or MISS on search responses when a cache is
// configured.
const CacheHeader = "X-Cache"

// Search answers GET /api/v1/search?q=&page=. Pages are numbered from 0.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	query := r.URL.Query().Get("q")
	page := 0
	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		parsed, err := strconv.Atoi(pageStr)
		if err != nil || parsed < 0 {
			h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "page must be a non-negative integer"))
			return
		}
		page = parsed
	}

	plan := parser.Parse(query)
	if plan.Empty() {
		h.observe("zero_result", "none", 0, start)
		h.writeJSON(w, http.StatusOK, &executor.SearchResult{
			Query:   query,
			Page:    page,
			Results: []executor.Hit{},
		})
		return
	}

	ctx, span := tracing.StartSpan(ctx, "search", middleware.GetRequestID(ctx))
	defer func() {
		span.End()
		span.Log(ctx, log)
	}()

	var (
		result   *executor.SearchResult
		err      error
		cacheHit bool
	)
	if h.cache != nil {
		result, cacheHit, err = h.cache.GetOrCompute(ctx, plan, page, func() (*executor.SearchResult, error) {
			return h.executor.Execute(ctx, plan, page)
		})
	} else {
		result, err = h.executor.Execute(ctx, plan, page)
	}
	if err != nil {
		log.Error("search execution failed", "query", query, "page", page, "error", err)
		if h.metrics != nil {
			h.metrics.SearchQueriesTotal.WithLabelValues("error").Inc()
		}
		h.writeError(w, err)
		return
	}

	latency := time.Since(start)
	cacheStatus := "miss"
	if cacheHit {
		cacheStatus = "hit"
	}
	resultType := "hit"
	if result.TotalResults == 0 {
		resultType = "zero_result"
	}
	h.observe(resultType, cacheStatus, result.TotalResults, start)
	span.SetAttr("cache_hit", cacheHit)

	log.Info("search completed",
		"query", query,
		"page", page,
		"total_results", result.TotalResults,
		"returned", len(result.Results),
		"cache_hit", cacheHit,
		"latency_ms", latency.Milliseconds(),
	)
	if h.tracker != nil {
		eventType := analytics.EventSearch
		if result.TotalResults == 0 {
			eventType = analytics.EventZeroResult
		}
		h.tracker.Track(analytics.SearchEvent{
			Type:         eventType,
			Query:        query,
			Terms:        plan.Terms,
			Page:         page,
			TotalResults: result.TotalResults,
			Returned:     len(result.Results),
			LatencyMs:    latency.Milliseconds(),
			CacheHit:     cacheHit,
			Timestamp:    time.Now().UTC(),
			RequestID:    middleware.GetRequestID(ctx),
		})
	}

	if h.cache != nil {
		w.Header().Set(CacheHeader, strings.ToUpper(cacheStatus))
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) observe(resultType, cacheStatus string, total int, start time.Time) {
	if h.metrics == nil {
		return
	}
	h.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(time.Since(start).Seconds())
	h.metrics.SearchResultsCount.Observe(float64(total))
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "caching is disabled"})
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

// Reload reopens the index artifacts and, once they load, drops cached
// pages computed from the previous ones.
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.executor.Reload(ctx); err != nil {
		h.logger.Error("index reload failed", "error", err)
		if h.metrics != nil {
			h.metrics.IndexReloadsTotal.WithLabelValues("failed").Inc()
		}
		h.writeError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.IndexReloadsTotal.WithLabelValues("ok").Inc()
	}
	if h.cache != nil {
		if err := h.cache.Invalidate(ctx); err != nil {
			h.logger.Warn("cache invalidation after reload failed", "error", err)
		}
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if werr := apperrors.WriteHTTP(w, err); werr != nil {
		h.logger.Error("failed to write error response", "error", werr)
	}
}
