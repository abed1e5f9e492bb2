// Package frontier holds the queue of URLs a crawl still has to visit.
// Every implementation deduplicates: a URL is queued at most once per crawl,
// whatever its scheme.
package frontier

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// ErrEmpty is returned by NextURL when nothing is pending.
var ErrEmpty = errors.New("frontier is empty")

// Frontier is the crawl queue.
type Frontier interface {
	HasNextURL(ctx context.Context) (bool, error)
	// NextURL dequeues the oldest pending URL and counts it as fetched.
	NextURL(ctx context.Context) (string, error)
	// AddURL queues rawURL unless it was ever queued before.
	AddURL(ctx context.Context, rawURL string) error
	// Counts reports how many URLs were dequeued and how many are pending.
	Counts(ctx context.Context) (fetched, pending int, err error)
}

// Key is the dedup key of rawURL: trimmed, scheme removed.
func Key(rawURL string) string {
	u := strings.TrimSpace(rawURL)
	if i := strings.Index(u, "://"); i >= 0 {
		u = u[i+3:]
	}
	return u
}

// Memory is an in-process FIFO frontier.
type Memory struct {
	mu      sync.Mutex
	queue   []string
	seen    map[string]struct{}
	fetched int
}

// NewMemory creates a frontier seeded with seeds.
func NewMemory(seeds ...string) *Memory {
	m := &Memory{seen: make(map[string]struct{})}
	for _, s := range seeds {
		m.add(s)
	}
	return m
}

func (m *Memory) HasNextURL(context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue) > 0, nil
}

func (m *Memory) NextURL(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return "", ErrEmpty
	}
	next := m.queue[0]
	m.queue[0] = ""
	m.queue = m.queue[1:]
	m.fetched++
	return next, nil
}

func (m *Memory) AddURL(_ context.Context, rawURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.add(rawURL)
	return nil
}

func (m *Memory) add(rawURL string) {
	u := strings.TrimSpace(rawURL)
	if u == "" {
		return
	}
	key := Key(u)
	if _, ok := m.seen[key]; ok {
		return
	}
	m.seen[key] = struct{}{}
	m.queue = append(m.queue, u)
}

func (m *Memory) Counts(context.Context) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetched, len(m.queue), nil
}
