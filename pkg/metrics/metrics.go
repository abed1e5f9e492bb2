// Package metrics defines the Prometheus collectors used by the crawler,
// indexer and searcher and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the search engine.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	SearchQueriesTotal *prometheus.CounterVec
	SearchLatency      *prometheus.HistogramVec
	SearchResultsCount prometheus.Histogram
	CacheHitsTotal     prometheus.Counter
	CacheMissesTotal   prometheus.Counter
	IndexReloadsTotal  *prometheus.CounterVec

	PagesFetchedTotal   *prometheus.CounterVec
	TrapURLsTotal       prometheus.Counter
	LinksQueuedTotal    prometheus.Counter
	CircuitBreakerState *prometheus.GaugeVec

	DocsIndexedTotal   *prometheus.CounterVec
	DocsSkippedTotal   *prometheus.CounterVec
	IndexBuildDuration *prometheus.HistogramVec
	IndexKeys          *prometheus.GaugeVec
}

var (
	latencyBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}
	resultBuckets  = []float64{0, 1, 5, 20, 100, 1000, 10000}
)

// New creates every collector on a fresh registry, so tests and multiple
// services in one process never collide.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	counter := func(name, help string) prometheus.Counter {
		return f.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
	}
	counterVec := func(name, help string, labels ...string) *prometheus.CounterVec {
		return f.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, labels)
	}
	gaugeVec := func(name, help string, labels ...string) *prometheus.GaugeVec {
		return f.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, labels)
	}
	histogramVec := func(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
		return f.NewHistogramVec(prometheus.HistogramOpts{Name: name, Help: help, Buckets: buckets}, labels)
	}

	return &Metrics{
		Registry: reg,

		HTTPRequestsTotal: counterVec("http_requests_total",
			"HTTP requests by method, path and status.", "method", "path", "status"),
		HTTPRequestDuration: histogramVec("http_request_duration_seconds",
			"HTTP request latency in seconds.", latencyBuckets, "method", "path"),
		HTTPRequestsInFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "HTTP requests currently being served.",
		}),

		SearchQueriesTotal: counterVec("search_queries_total",
			"Search queries by result type (hit, zero_result, error).", "result_type"),
		SearchLatency: histogramVec("search_latency_seconds",
			"Search latency in seconds by cache status.", latencyBuckets[:9], "cache_status"),
		SearchResultsCount: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "search_results_count",
			Help:    "Matching documents per search query.",
			Buckets: resultBuckets,
		}),
		CacheHitsTotal:   counter("cache_hits_total", "Search pages served from the cache."),
		CacheMissesTotal: counter("cache_misses_total", "Search pages computed because the cache missed."),
		IndexReloadsTotal: counterVec("index_reloads_total",
			"Index artifact reloads by status.", "status"),

		PagesFetchedTotal: counterVec("crawler_pages_fetched_total",
			"Pages taken from the frontier by fetch outcome (ok, failed).", "outcome"),
		TrapURLsTotal:    counter("crawler_trap_urls_total", "Outlinks classified as traps."),
		LinksQueuedTotal: counter("crawler_links_queued_total", "Outlinks handed to the frontier."),
		CircuitBreakerState: gaugeVec("circuit_breaker_state",
			"Circuit breaker state per host (0=closed, 1=open, 2=half-open).", "name"),

		DocsIndexedTotal: counterVec("docs_indexed_total",
			"Documents scanned in pass 1 by index kind.", "kind"),
		DocsSkippedTotal: counterVec("docs_skipped_total",
			"Documents skipped in pass 1 because their content was unreadable.", "kind"),
		IndexBuildDuration: histogramVec("index_build_duration_seconds",
			"Wall time of a full two-pass build by index kind.", prometheus.ExponentialBuckets(0.1, 2, 12), "kind"),
		IndexKeys: gaugeVec("index_keys",
			"Distinct keys in the most recently built index by kind.", "kind"),
	}
}

// Handler returns the Prometheus scrape HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
