package analytics

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/kafka"
)

// maxLatencies bounds the latency sample kept for percentiles.
const maxLatencies = 10000

// DefaultTop is how many entries each ranked list in AggregatedStats holds.
const DefaultTop = 10

// AggregatedStats is the JSON body of GET /api/v1/analytics.
type AggregatedStats struct {
	TotalSearches     int64        `json:"total_searches"`
	CacheHits         int64        `json:"cache_hits"`
	CacheMisses       int64        `json:"cache_misses"`
	ZeroResultCount   int64        `json:"zero_result_count"`
	AvgLatencyMs      float64      `json:"avg_latency_ms"`
	P50LatencyMs      int64        `json:"p50_latency_ms"`
	P95LatencyMs      int64        `json:"p95_latency_ms"`
	P99LatencyMs      int64        `json:"p99_latency_ms"`
	TopQueries        []QueryCount `json:"top_queries"`
	TopTerms          []QueryCount `json:"top_terms"`
	ZeroResultQueries []QueryCount `json:"zero_result_queries"`
	QueriesPerMinute  float64      `json:"queries_per_minute"`
}

// QueryCount is one entry of a ranked list. For TopTerms, Query holds a
// single query term.
type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// tally counts occurrences of strings.
type tally map[string]int64

// ranked orders by descending count, then ascending key, keeping at most n.
func (t tally) ranked(n int) []QueryCount {
	out := make([]QueryCount, 0, len(t))
	for k, c := range t {
		out = append(out, QueryCount{Query: k, Count: c})
	}
	slices.SortFunc(out, func(a, b QueryCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Query, b.Query)
	})
	return out[:min(n, len(out))]
}

// sample keeps the most recent latencies, overwriting the oldest once full.
type sample struct {
	values []int64
	next   int
}

func (s *sample) add(v int64) {
	if len(s.values) < maxLatencies {
		s.values = append(s.values, v)
		return
	}
	s.values[s.next] = v
	s.next = (s.next + 1) % maxLatencies
}

// summarize fills the latency fields of stats.
func (s *sample) summarize(stats *AggregatedStats) {
	if len(s.values) == 0 {
		return
	}
	sorted := slices.Clone(s.values)
	slices.Sort(sorted)
	var sum int64
	for _, v := range sorted {
		sum += v
	}
	at := func(pct int) int64 {
		return sorted[min(pct*len(sorted)/100, len(sorted)-1)]
	}
	stats.AvgLatencyMs = float64(sum) / float64(len(sorted))
	stats.P50LatencyMs, stats.P95LatencyMs, stats.P99LatencyMs = at(50), at(95), at(99)
}

// Aggregator keeps running search statistics. It is a Tracker and can also
// be fed from Kafka through HandleEvent.
type Aggregator struct {
	mu       sync.Mutex
	total    int64
	hits     int64
	zero     int64
	latency  sample
	queries  tally
	terms    tally
	zeroHits tally
	since    time.Time
}

func NewAggregator() *Aggregator {
	a := &Aggregator{}
	a.reset()
	return a
}

// Reset discards everything recorded so far.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reset()
}

func (a *Aggregator) reset() {
	a.total, a.hits, a.zero = 0, 0, 0
	a.latency = sample{values: make([]int64, 0, 1024)}
	a.queries, a.terms, a.zeroHits = tally{}, tally{}, tally{}
	a.since = time.Now()
}

// HandleEvent returns a Kafka handler recording every decoded SearchEvent.
// Undecodable messages are logged and skipped so they are not redelivered.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	logger := slog.Default().With("component", "analytics-aggregator")
	return func(_ context.Context, _ []byte, value []byte) error {
		event, err := kafka.DecodeJSON[SearchEvent](value)
		if err != nil {
			logger.Error("failed to decode analytics event", "error", err)
			return nil
		}
		agg.Track(event)
		return nil
	}
}

func (a *Aggregator) Track(event SearchEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.total++
	if event.CacheHit {
		a.hits++
	}
	a.latency.add(event.LatencyMs)
	a.queries[event.Query]++
	for _, term := range event.Terms {
		a.terms[term]++
	}
	if event.TotalResults == 0 {
		a.zero++
		a.zeroHits[event.Query]++
	}
}

// Stats reports the current statistics with DefaultTop entries per list.
func (a *Aggregator) Stats() AggregatedStats {
	return a.StatsTop(DefaultTop)
}

// StatsTop reports the current statistics keeping at most top entries in
// each ranked list.
func (a *Aggregator) StatsTop(top int) AggregatedStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	stats := AggregatedStats{
		TotalSearches:     a.total,
		CacheHits:         a.hits,
		CacheMisses:       a.total - a.hits,
		ZeroResultCount:   a.zero,
		TopQueries:        a.queries.ranked(top),
		TopTerms:          a.terms.ranked(top),
		ZeroResultQueries: a.zeroHits.ranked(top),
	}
	a.latency.summarize(&stats)
	if minutes := time.Since(a.since).Minutes(); minutes > 0 {
		stats.QueriesPerMinute = float64(a.total) / minutes
	}
	return stats
}
