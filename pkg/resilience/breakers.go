package resilience

import "sync"

// Breakers hands out one CircuitBreaker per key, all sharing a config. The
// crawler keys them by host so one failing subdomain does not block the
// rest of the crawl.
type Breakers struct {
	prefix string
	cfg    CircuitBreakerConfig
	mu     sync.Mutex
	byKey  map[string]*CircuitBreaker
}

func NewBreakers(prefix string, cfg CircuitBreakerConfig) *Breakers {
	return &Breakers{prefix: prefix, cfg: cfg, byKey: make(map[string]*CircuitBreaker)}
}

// Get returns the breaker for key, creating it on first use. Its name is
// prefix:key.
func (b *Breakers) Get(key string) *CircuitBreaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	cb, ok := b.byKey[key]
	if !ok {
		cb = NewCircuitBreaker(b.prefix+":"+key, b.cfg)
		b.byKey[key] = cb
	}
	return cb
}

// Open lists the keys whose breaker is currently open.
func (b *Breakers) Open() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var keys []string
	for k, cb := range b.byKey {
		if cb.GetState() == StateOpen {
			keys = append(keys, k)
		}
	}
	return keys
}
