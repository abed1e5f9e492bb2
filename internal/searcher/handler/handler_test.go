package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/searcher/parser"
	apperrors "github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/metrics"
)

type fakeExecutor struct {
	mu      sync.Mutex
	calls   int
	pages   []int
	reloads int
	err     error
}

func (f *fakeExecutor) Execute(_ context.Context, plan *parser.QueryPlan, page int) (*executor.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.pages = append(f.pages, page)
	if f.err != nil {
		return nil, f.err
	}
	if plan.Terms[0] == "okapi" {
		return &executor.SearchResult{Query: plan.RawQuery, Page: page, Results: []executor.Hit{}}, nil
	}
	return &executor.SearchResult{
		Query:        plan.RawQuery,
		Page:         page,
		TotalResults: 1,
		Results:      []executor.Hit{{DocID: "0/0", URL: "www.ics.uci.edu/zebra", Title: "Zebra", Score: 1.5}},
	}, nil
}

func (f *fakeExecutor) Reload(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reloads++
	return f.err
}

func (f *fakeExecutor) counts() (calls, reloads int, pages []int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls, f.reloads, append([]int(nil), f.pages...)
}

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, redis.Nil
	}
	return v, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memStore) DeleteByPattern(_ context.Context, pattern string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k := range m.data {
		if ok, _ := path.Match(pattern, k); ok {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

func newServer(t *testing.T, exec *fakeExecutor, opts Options) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	New(exec, opts).Routes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatal(err)
		}
	}
	return resp.StatusCode
}

func TestSearch(t *testing.T) {
	exec := &fakeExecutor{}
	agg := analytics.NewAggregator()
	srv := newServer(t, exec, Options{Tracker: agg, Metrics: metrics.New()})

	var res executor.SearchResult
	if code := getJSON(t, srv.URL+"/api/v1/search?q=Zebra&page=2", &res); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if res.TotalResults != 1 || len(res.Results) != 1 || res.Results[0].Title != "Zebra" {
		t.Errorf("result = %+v", res)
	}
	if _, _, pages := exec.counts(); len(pages) != 1 || pages[0] != 2 {
		t.Errorf("pages = %v", pages)
	}
	if s := agg.Stats(); s.TotalSearches != 1 || s.TopQueries[0].Query != "Zebra" {
		t.Errorf("stats = %+v", s)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	exec := &fakeExecutor{}
	srv := newServer(t, exec, Options{})

	var res executor.SearchResult
	if code := getJSON(t, srv.URL+"/api/v1/search?q=+++", &res); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if res.TotalResults != 0 || res.Results == nil || len(res.Results) != 0 {
		t.Errorf("result = %+v", res)
	}
	if calls, _, _ := exec.counts(); calls != 0 {
		t.Error("executor called for empty query")
	}
}

func TestSearchZeroResultsTracked(t *testing.T) {
	agg := analytics.NewAggregator()
	srv := newServer(t, &fakeExecutor{}, Options{Tracker: agg})
	getJSON(t, srv.URL+"/api/v1/search?q=okapi", nil)
	if s := agg.Stats(); s.ZeroResultCount != 1 {
		t.Errorf("ZeroResultCount = %d", s.ZeroResultCount)
	}
}

func TestSearchErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		url  string
		want int
	}{
		{"bad page", nil, "/api/v1/search?q=zebra&page=x", http.StatusBadRequest},
		{"negative page", nil, "/api/v1/search?q=zebra&page=-1", http.StatusBadRequest},
		{"not loaded", apperrors.ErrIndexNotLoaded, "/api/v1/search?q=zebra", http.StatusServiceUnavailable},
		{"missing length", apperrors.ErrMissingLength, "/api/v1/search?q=zebra", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, &fakeExecutor{err: tt.err}, Options{})
			var body map[string]string
			if code := getJSON(t, srv.URL+tt.url, &body); code != tt.want {
				t.Errorf("status = %d, want %d", code, tt.want)
			}
			if body["error"] == "" {
				t.Error("missing error message")
			}
		})
	}
}

func TestSearchUsesCache(t *testing.T) {
	exec := &fakeExecutor{}
	qc := cache.New(&memStore{data: map[string][]byte{}}, time.Minute, nil)
	srv := newServer(t, exec, Options{Cache: qc})

	for _, tt := range []struct{ q, want string }{{"zebra", "MISS"}, {"ZEBRA", "HIT"}} {
		resp, err := http.Get(srv.URL + "/api/v1/search?q=" + tt.q)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if got := resp.Header.Get(CacheHeader); got != tt.want {
			t.Errorf("q=%s: %s = %q, want %q", tt.q, CacheHeader, got, tt.want)
		}
	}
	if calls, _, _ := exec.counts(); calls != 1 {
		t.Errorf("executor calls = %d, want 1", calls)
	}

	var stats map[string]any
	getJSON(t, srv.URL+"/api/v1/cache/stats", &stats)
	if stats["hits"] != float64(1) || stats["misses"] != float64(1) {
		t.Errorf("stats = %v", stats)
	}

	resp, err := http.Post(srv.URL+"/api/v1/reload", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if _, reloads, _ := exec.counts(); resp.StatusCode != http.StatusOK || reloads != 1 {
		t.Fatalf("reload status = %d, reloads = %d", resp.StatusCode, reloads)
	}
	getJSON(t, srv.URL+"/api/v1/search?q=zebra", nil)
	if calls, _, _ := exec.counts(); calls != 2 {
		t.Errorf("cache not invalidated by reload, calls = %d", calls)
	}
}

func TestCacheEndpointsDisabled(t *testing.T) {
	srv := newServer(t, &fakeExecutor{}, Options{})
	var stats map[string]string
	getJSON(t, srv.URL+"/api/v1/cache/stats", &stats)
	if stats["status"] != "disabled" {
		t.Errorf("stats = %v", stats)
	}
	resp, err := http.Post(srv.URL+"/api/v1/cache/invalidate", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d", resp.StatusCode)
	}
}
