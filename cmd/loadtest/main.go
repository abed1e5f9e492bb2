// Command loadtest drives GET /api/v1/search with a fixed query mix and
// reports throughput, latency percentiles, status codes, cache hit ratio
// and a per-query breakdown.
//
// Usage:
//
//	go run ./cmd/loadtest [-url http://localhost:8080] [-concurrency 10]
//	    [-duration 30s] [-pages 3] [-queries file] [-json]
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

var defaultQueries = []string{
	"machine learning",
	"informatics",
	"software engineering",
	"computer vision",
	"graduate admissions",
	"student affairs",
	"crista lopes",
	"mondego",
	"information retrieval",
	"artificial intelligence",
	"donald bren school",
	"uci ics",
	"security",
	"operating systems",
	"acm",
}

type options struct {
	baseURL     string
	concurrency int
	duration    time.Duration
	pages       int
	queries     []string
	jsonOut     bool
}

func main() {
	var opts options
	flag.StringVar(&opts.baseURL, "url", "http://localhost:8080", "base URL of the search service")
	flag.IntVar(&opts.concurrency, "concurrency", 10, "number of concurrent workers")
	flag.DurationVar(&opts.duration, "duration", 30*time.Second, "test duration")
	flag.IntVar(&opts.pages, "pages", 3, "result pages cycled through per query")
	queryFile := flag.String("queries", "", "file with one query per line (default: built-in ICS mix)")
	flag.BoolVar(&opts.jsonOut, "json", false, "print the report as JSON")
	flag.Parse()

	opts.pages = max(opts.pages, 1)
	opts.concurrency = max(opts.concurrency, 1)
	opts.queries = defaultQueries
	if *queryFile != "" {
		q, err := readQueries(*queryFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "loadtest: %v\n", err)
			os.Exit(2)
		}
		opts.queries = q
	}

	if !opts.jsonOut {
		fmt.Println("=== ICS Search Load Test ===")
		fmt.Printf("Target:      %s\n", opts.baseURL)
		fmt.Printf("Concurrency: %d\n", opts.concurrency)
		fmt.Printf("Duration:    %s\n", opts.duration)
		fmt.Printf("Queries:     %d unique x %d pages\n\n", len(opts.queries), opts.pages)
	}

	rec := newRecorder()
	elapsed := run(context.Background(), opts, rec)
	rep := rec.report(elapsed)

	if opts.jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(rep)
	} else {
		rep.print(os.Stdout)
	}
	if rep.Total == 0 {
		fmt.Fprintln(os.Stderr, "loadtest: no requests completed. Is the service running?")
		os.Exit(1)
	}
}

func readQueries(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening query file: %w", err)
	}
	defer f.Close()
	var queries []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if q := strings.TrimSpace(sc.Text()); q != "" && !strings.HasPrefix(q, "#") {
			queries = append(queries, q)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("query file %s has no queries", path)
	}
	return queries, nil
}

// run keeps opts.concurrency workers busy until the duration passes and
// returns how long it actually ran.
func run(ctx context.Context, opts options, rec *recorder) time.Duration {
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        opts.concurrency * 2,
			MaxIdleConnsPerHost: opts.concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	ctx, cancel := context.WithTimeout(ctx, opts.duration)
	defer cancel()

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for w := range opts.concurrency {
		g.Go(func() error {
			for i := w; ctx.Err() == nil; i++ {
				query := opts.queries[i%len(opts.queries)]
				page := (i / len(opts.queries)) % opts.pages
				rec.record(query, searchOnce(ctx, client, opts.baseURL, query, page))
			}
			return nil
		})
	}
	g.Wait()
	return time.Since(start)
}

// sample is the outcome of one search request.
type sample struct {
	latency  time.Duration
	status   int
	err      error
	total    int
	cacheHit bool
	// aborted marks requests cut off by the end of the run; they are not
	// counted.
	aborted bool
}

func searchOnce(ctx context.Context, client *http.Client, baseURL, query string, page int) sample {
	u := fmt.Sprintf("%s/api/v1/search?q=%s&page=%d", baseURL, url.QueryEscape(query), page)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return sample{err: err}
	}
	start := time.Now()
	resp, err := client.Do(req)
	s := sample{latency: time.Since(start)}
	if err != nil {
		s.err = err
		s.aborted = ctx.Err() != nil
		return s
	}
	defer resp.Body.Close()
	s.status = resp.StatusCode
	s.cacheHit = resp.Header.Get("X-Cache") == "HIT"
	if resp.StatusCode == http.StatusOK {
		var body struct {
			TotalResults int `json:"total_results"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
			s.total = body.TotalResults
		}
	}
	io.Copy(io.Discard, resp.Body)
	return s
}
