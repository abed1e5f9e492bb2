// Package analytics records what users search for. The searcher tracks one
// SearchEvent per query; an Aggregator keeps running statistics in process
// and a Collector forwards events to Kafka when it is enabled.
package analytics

import "time"

type EventType string

const (
	EventSearch     EventType = "search"
	EventZeroResult EventType = "zero_result"
)

type SearchEvent struct {
	Type         EventType `json:"type"`
	Query        string    `json:"query"`
	Terms        []string  `json:"terms"`
	Page         int       `json:"page"`
	TotalResults int       `json:"total_results"`
	Returned     int       `json:"returned"`
	LatencyMs    int64     `json:"latency_ms"`
	CacheHit     bool      `json:"cache_hit"`
	Timestamp    time.Time `json:"timestamp"`
	RequestID    string    `json:"request_id"`
}

// Tracker accepts search events. Track must not block.
type Tracker interface {
	Track(event SearchEvent)
}

type tee []Tracker

func (t tee) Track(event SearchEvent) {
	for _, tr := range t {
		tr.Track(event)
	}
}

// Tee sends every event to each non-nil tracker.
func Tee(trackers ...Tracker) Tracker {
	var out tee
	for _, t := range trackers {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}
