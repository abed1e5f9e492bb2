// Package cache keeps rendered search pages in Redis, keyed by the
// normalized query and page number. Concurrent misses for the same key are
// collapsed into one computation.
package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/redis"
)

const keyPrefix = "search:"

// Store is the subset of the Redis client the cache uses.
type Store interface {
	pkgredis.Getter
	pkgredis.Setter
	DeleteByPattern(ctx context.Context, pattern string) (int64, error)
}

type QueryCache struct {
	store   Store
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

// New creates a cache over store. m may be nil.
func New(store Store, ttl time.Duration, m *metrics.Metrics) *QueryCache {
	return &QueryCache{
		store:   store,
		ttl:     ttl,
		metrics: m,
		logger:  slog.Default().With("component", "query-cache"),
	}
}

// Get returns the cached page. Redis errors are logged and count as a miss.
func (c *QueryCache) Get(ctx context.Context, plan *parser.QueryPlan, page int) (*executor.SearchResult, bool) {
	key := buildKey(plan, page)
	result, found, err := pkgredis.GetJSON[*executor.SearchResult](ctx, c.store, key)
	if err != nil {
		c.logger.Error("cache get failed", "key", key, "error", err)
	}
	if !found || result == nil {
		c.recordMiss()
		return nil, false
	}
	c.recordHit()
	c.logger.Debug("cache hit", "query", plan.RawQuery, "key", key)
	return result, true
}

func (c *QueryCache) Set(ctx context.Context, plan *parser.QueryPlan, page int, result *executor.SearchResult) {
	key := buildKey(plan, page)
	if err := pkgredis.SetJSON(ctx, c.store, key, result, c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute serves page from the cache or computes and stores it. The
// returned bool reports a cache hit.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	plan *parser.QueryPlan,
	page int,
	computeFn func() (*executor.SearchResult, error),
) (*executor.SearchResult, bool, error) {
	if result, ok := c.Get(ctx, plan, page); ok {
		return result, true, nil
	}
	key := buildKey(plan, page)
	val, err, _ := c.group.Do(key, func() (any, error) {
		result, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, plan, page, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*executor.SearchResult), false, nil
}

// Invalidate drops every cached page.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	deleted, err := c.store.DeleteByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) recordHit() {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *QueryCache) recordMiss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

// buildKey hashes the normalized query so that queries differing only in
// case or spacing share an entry. Term order is kept since it decides the
// bigrams.
func buildKey(plan *parser.QueryPlan, page int) string {
	raw := fmt.Sprintf("%s:page=%d", plan.Normalized(), page)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
