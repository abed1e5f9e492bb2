package corpus

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/resilience"
)

// maxPageBytes caps how much of one response body is kept.
const maxPageBytes = 8 << 20

// HTTPFetcher fetches pages over the network with retry and one circuit
// breaker per host.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	retry     resilience.RetryConfig
	breakers  *resilience.Breakers
	logger    *slog.Logger
}

// NewHTTPFetcher builds a fetcher from crawler settings. m may be nil.
func NewHTTPFetcher(cfg config.CrawlerConfig, m *metrics.Metrics) *HTTPFetcher {
	cbCfg := resilience.CircuitBreakerConfig{
		FailureThreshold: 10,
		ResetTimeout:     30 * time.Second,
	}
	if m != nil {
		cbCfg.OnStateChange = func(name string, to resilience.State) {
			m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		}
	}
	return &HTTPFetcher{
		client:    &http.Client{},
		userAgent: cfg.UserAgent,
		timeout:   cfg.FetchTimeout,
		retry: resilience.RetryConfig{
			MaxAttempts:  cfg.FetchAttempts,
			InitialDelay: 200 * time.Millisecond,
			MaxDelay:     5 * time.Second,
		},
		breakers: resilience.NewBreakers("fetch", cbCfg),
		logger:   slog.Default().With("component", "http-fetcher"),
	}
}

// OpenHosts lists the hosts whose circuit is open.
func (f *HTTPFetcher) OpenHosts() []string {
	return f.breakers.Open()
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "invalid"
	}
	return strings.ToLower(u.Hostname())
}

// FetchURL downloads rawURL. Failures are logged and reported as a result
// with no content, never as an error.
func (f *HTTPFetcher) FetchURL(ctx context.Context, rawURL string) FetchResult {
	var (
		mu  sync.Mutex
		res FetchResult
	)
	err := resilience.Retry(ctx, "fetch", f.retry, func() error {
		return f.breakers.Get(hostOf(rawURL)).Execute(func() error {
			return resilience.WithTimeout(ctx, f.timeout, "fetch", func(ctx context.Context) error {
				r, err := f.fetchOnce(ctx, rawURL)
				mu.Lock()
				res = r
				mu.Unlock()
				return err
			})
		})
	})
	mu.Lock()
	defer mu.Unlock()
	if err != nil {
		f.logger.Warn("fetch failed", "url", rawURL, "http_code", res.HTTPCode, "error", err)
		return FetchResult{URL: rawURL, HTTPCode: res.HTTPCode}
	}
	return res
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, rawURL string) (FetchResult, error) {
	res := FetchResult{URL: rawURL}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return res, resilience.Permanent(fmt.Errorf("%w: %v", apperrors.ErrInvalidURL, err))
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return res, fmt.Errorf("%w: %v", apperrors.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	res.HTTPCode = resp.StatusCode
	res.FinalURL = resp.Request.URL.String()
	res.IsRedirected = res.FinalURL != rawURL
	switch {
	case resp.StatusCode >= 500:
		return res, fmt.Errorf("%w: status %d", apperrors.ErrFetchFailed, resp.StatusCode)
	case resp.StatusCode >= 400:
		return res, resilience.Permanent(fmt.Errorf("%w: status %d", apperrors.ErrFetchFailed, resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return res, fmt.Errorf("%w: reading body: %v", apperrors.ErrFetchFailed, err)
	}
	res.Content = body
	res.Size = len(body)
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err == nil {
			res.ContentType = mt
		} else {
			res.ContentType = ct
		}
	}
	return res, nil
}

// Live crawls over HTTP and saves every HTML page into a Store, so the
// indexer can later run over what was crawled.
type Live struct {
	fetcher *HTTPFetcher
	store   *Store
	logger  *slog.Logger
}

// NewLive pairs a fetcher with the store pages are saved into.
func NewLive(fetcher *HTTPFetcher, store *Store) *Live {
	return &Live{
		fetcher: fetcher,
		store:   store,
		logger:  slog.Default().With("component", "live-corpus"),
	}
}

// FetchURL fetches rawURL and stores the body when it is HTML.
func (l *Live) FetchURL(ctx context.Context, rawURL string) FetchResult {
	res := l.fetcher.FetchURL(ctx, rawURL)
	if res.Size == 0 || res.ContentType != "text/html" {
		return res
	}
	id := l.store.Reserve(rawURL)
	if err := l.store.Put(id, res.Content); err != nil {
		l.logger.Error("failed to store page", "url", rawURL, "doc_id", id, "error", err)
	}
	return res
}

// GetFileName reserves a document id for rawURL. Every URL the crawler
// accepts is indexable in a live crawl; pages whose fetch fails simply have
// no stored file and are skipped at index time.
func (l *Live) GetFileName(rawURL string) (string, bool) {
	return l.store.Reserve(rawURL), true
}

// Flush persists the store's bookkeeping.
func (l *Live) Flush() error {
	return l.store.Flush()
}
