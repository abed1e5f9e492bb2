package analytics

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/kafka"
)

const (
	defaultBatchSize     = 64
	defaultFlushInterval = time.Second
)

// Collector publishes search events to Kafka in batches. Track never waits
// on the broker: events go through a buffered channel and a full buffer
// drops them, as does a closed collector.
type Collector struct {
	publisher     kafka.Publisher
	mu            sync.RWMutex
	closed        bool
	eventCh       chan SearchEvent
	batchSize     int
	flushInterval time.Duration
	dropped       atomic.Int64
	logger        *slog.Logger
	done          chan struct{}
}

func NewCollector(publisher kafka.Publisher, bufferSize int) *Collector {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	return &Collector{
		publisher:     publisher,
		eventCh:       make(chan SearchEvent, bufferSize),
		batchSize:     defaultBatchSize,
		flushInterval: defaultFlushInterval,
		logger:        slog.Default().With("component", "analytics-collector"),
		done:          make(chan struct{}),
	}
}

// Start publishes until Close is called or ctx is cancelled. A batch is
// sent when it is full or when the flush interval passes, whichever is
// first.
func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
	c.logger.Info("analytics collector started",
		"buffer_size", cap(c.eventCh),
		"batch_size", c.batchSize,
	)
}

func (c *Collector) run(ctx context.Context) {
	defer close(c.done)
	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	batch := make([]kafka.Event, 0, c.batchSize)
	flush := func(ctx context.Context) {
		if len(batch) == 0 {
			return
		}
		if err := c.publisher.Publish(ctx, batch...); err != nil {
			c.logger.Error("failed to publish analytics batch", "events", len(batch), "error", err)
		}
		batch = batch[:0]
	}
	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				flush(context.Background())
				return
			}
			batch = append(batch, toKafka(event))
			if len(batch) >= c.batchSize {
				flush(ctx)
			}
		case <-ticker.C:
			flush(ctx)
		case <-ctx.Done():
			// Whatever is already queued still goes out.
		drain:
			for {
				select {
				case event, ok := <-c.eventCh:
					if !ok {
						break drain
					}
					batch = append(batch, toKafka(event))
				default:
					break drain
				}
			}
			flush(context.Background())
			return
		}
	}
}

func toKafka(event SearchEvent) kafka.Event {
	return kafka.Event{Key: event.Query, Type: string(event.Type), Value: event}
}

// Track queues event, dropping it when the buffer is full or the collector
// is closed. It is safe to call concurrently with Close.
func (c *Collector) Track(event SearchEvent) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		c.drop("collector closed")
		return
	}
	select {
	case c.eventCh <- event:
	default:
		c.drop("buffer full")
	}
}

func (c *Collector) drop(reason string) {
	if n := c.dropped.Add(1); n&(n-1) == 0 {
		c.logger.Warn("analytics events dropped", "reason", reason, "total_dropped", n)
	}
}

// Dropped reports how many events Track discarded.
func (c *Collector) Dropped() int64 {
	return c.dropped.Load()
}

// Close stops accepting events and waits for the queued ones to be
// published. Call it after Start; calling it again is a no-op.
func (c *Collector) Close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.eventCh)
	}
	c.mu.Unlock()
	<-c.done
}
