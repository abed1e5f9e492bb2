package main

import (
	"fmt"
	"io"
	"math"
	"slices"
	"sort"
	"sync"
	"time"
)

// recorder accumulates samples from every worker.
type recorder struct {
	mu        sync.Mutex
	latencies []time.Duration
	statuses  map[int]int
	errors    int
	hits      int
	perQuery  map[string]*queryStats
}

type queryStats struct {
	Requests    int           `json:"requests"`
	ZeroResults int           `json:"zero_results"`
	Total       time.Duration `json:"-"`
	AvgMs       float64       `json:"avg_ms"`
	MaxResults  int           `json:"max_total_results"`
}

func newRecorder() *recorder {
	return &recorder{
		latencies: make([]time.Duration, 0, 100000),
		statuses:  make(map[int]int),
		perQuery:  make(map[string]*queryStats),
	}
}

func (r *recorder) record(query string, s sample) {
	if s.aborted {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.err != nil {
		r.errors++
		return
	}
	r.latencies = append(r.latencies, s.latency)
	r.statuses[s.status]++
	if s.status != 200 {
		return
	}
	if s.cacheHit {
		r.hits++
	}
	qs, ok := r.perQuery[query]
	if !ok {
		qs = &queryStats{}
		r.perQuery[query] = qs
	}
	qs.Requests++
	qs.Total += s.latency
	qs.MaxResults = max(qs.MaxResults, s.total)
	if s.total == 0 {
		qs.ZeroResults++
	}
}

type report struct {
	Total        int                    `json:"total_requests"`
	Successful   int                    `json:"successful"`
	Errors       int                    `json:"errors"`
	ErrorRate    float64                `json:"error_rate"`
	RPS          float64                `json:"requests_per_second"`
	CacheHitRate float64                `json:"cache_hit_rate"`
	Latency      map[string]string      `json:"latency"`
	Statuses     map[int]int            `json:"status_codes"`
	Queries      map[string]*queryStats `json:"queries"`
}

func (r *recorder) report(elapsed time.Duration) report {
	r.mu.Lock()
	defer r.mu.Unlock()

	rep := report{
		Errors:   r.errors,
		Statuses: r.statuses,
		Queries:  r.perQuery,
		Latency:  map[string]string{},
	}
	for code, n := range r.statuses {
		rep.Total += n
		if code >= 200 && code < 300 {
			rep.Successful += n
		} else {
			rep.Errors += n
		}
	}
	rep.Total += r.errors
	if rep.Total > 0 {
		rep.ErrorRate = float64(rep.Errors) / float64(rep.Total)
		rep.RPS = float64(rep.Total) / elapsed.Seconds()
	}
	if rep.Successful > 0 {
		rep.CacheHitRate = float64(r.hits) / float64(rep.Successful)
	}
	for _, qs := range r.perQuery {
		qs.AvgMs = float64(qs.Total.Microseconds()) / float64(qs.Requests) / 1000
	}

	lat := slices.Clone(r.latencies)
	slices.Sort(lat)
	if len(lat) > 0 {
		var sum float64
		for _, l := range lat {
			sum += float64(l)
		}
		mean := sum / float64(len(lat))
		var sq float64
		for _, l := range lat {
			sq += (float64(l) - mean) * (float64(l) - mean)
		}
		rep.Latency["min"] = lat[0].String()
		rep.Latency["avg"] = time.Duration(mean).String()
		for _, p := range []float64{50, 90, 95, 99} {
			rep.Latency[fmt.Sprintf("p%g", p)] = percentile(lat, p).String()
		}
		rep.Latency["max"] = lat[len(lat)-1].String()
		rep.Latency["stddev"] = time.Duration(math.Sqrt(sq / float64(len(lat)))).String()
	}
	return rep
}

func (rep report) print(w io.Writer) {
	fmt.Fprintln(w, "=== Results ===")
	fmt.Fprintf(w, "Total Requests:  %d\n", rep.Total)
	fmt.Fprintf(w, "Successful:      %d\n", rep.Successful)
	fmt.Fprintf(w, "Errors:          %d (%.2f%%)\n", rep.Errors, rep.ErrorRate*100)
	fmt.Fprintf(w, "Requests/sec:    %.2f\n", rep.RPS)
	fmt.Fprintf(w, "Cache Hit Rate:  %.1f%%\n", rep.CacheHitRate*100)

	if len(rep.Latency) > 0 {
		fmt.Fprintln(w, "\n=== Latency ===")
		for _, k := range []string{"min", "avg", "p50", "p90", "p95", "p99", "max", "stddev"} {
			fmt.Fprintf(w, "%-7s %s\n", k+":", rep.Latency[k])
		}
	}

	fmt.Fprintln(w, "\n=== Status Codes ===")
	codes := make([]int, 0, len(rep.Statuses))
	for code := range rep.Statuses {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		fmt.Fprintf(w, "  %d: %d\n", code, rep.Statuses[code])
	}

	if len(rep.Queries) > 0 {
		fmt.Fprintln(w, "\n=== Queries (slowest first) ===")
		names := make([]string, 0, len(rep.Queries))
		for q := range rep.Queries {
			names = append(names, q)
		}
		sort.Slice(names, func(i, j int) bool {
			a, b := rep.Queries[names[i]], rep.Queries[names[j]]
			if a.AvgMs != b.AvgMs {
				return a.AvgMs > b.AvgMs
			}
			return names[i] < names[j]
		})
		fmt.Fprintf(w, "  %-28s %8s %9s %8s %7s\n", "query", "requests", "avg_ms", "results", "zero")
		for _, q := range names {
			qs := rep.Queries[q]
			fmt.Fprintf(w, "  %-28s %8d %9.2f %8d %7d\n", q, qs.Requests, qs.AvgMs, qs.MaxResults, qs.ZeroResults)
		}
	}
}

// percentile uses the nearest-rank method on sorted.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	return sorted[min(max(idx, 0), len(sorted)-1)]
}
