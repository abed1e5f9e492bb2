// Package crawler walks a frontier of URLs, fetches each page through a
// corpus, queues the valid links it finds and records trap URLs and crawl
// analytics. The loop is single-writer: frontier dequeue and trap-set
// updates all happen on the goroutine running Start.
package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/frontier"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/markup"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/metrics"
)

// Corpus fetches pages and says which URLs are indexable.
type Corpus interface {
	FetchURL(ctx context.Context, rawURL string) corpus.FetchResult
	GetFileName(rawURL string) (string, bool)
}

// Crawler runs one crawl.
type Crawler struct {
	frontier      frontier.Frontier
	corpus        Corpus
	allowedDomain string
	analyticsDir  string
	metrics       *metrics.Metrics
	logger        *slog.Logger

	trapSet map[string]struct{}
	stats   *stats

	finalizeOnce sync.Once
	report       Report
	finalizeErr  error
}

// New creates a Crawler. m may be nil.
func New(cfg config.CrawlerConfig, f frontier.Frontier, c Corpus, m *metrics.Metrics) *Crawler {
	return &Crawler{
		frontier:      f,
		corpus:        c,
		allowedDomain: strings.ToLower(cfg.AllowedDomain),
		analyticsDir:  cfg.AnalyticsDir,
		metrics:       m,
		logger:        slog.Default().With("component", "crawler"),
		trapSet:       make(map[string]struct{}),
		stats:         newStats(),
	}
}

// Start crawls until the frontier is exhausted or ctx is cancelled, then
// finalizes. A cancelled crawl still writes its analytics and returns the
// context's error.
func (c *Crawler) Start(ctx context.Context) error {
	c.logger.Info("crawl started", "allowed_domain", c.allowedDomain)
	loopErr := c.loop(ctx)
	if _, err := c.Finalize(); err != nil {
		if loopErr != nil {
			return fmt.Errorf("%w (finalize: %v)", loopErr, err)
		}
		return err
	}
	return loopErr
}

func (c *Crawler) loop(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			c.logger.Info("crawl interrupted", "reason", err)
			return err
		}
		ok, err := c.frontier.HasNextURL(ctx)
		if err != nil {
			return fmt.Errorf("checking frontier: %w", err)
		}
		if !ok {
			return nil
		}
		next, err := c.frontier.NextURL(ctx)
		if err != nil {
			return fmt.Errorf("dequeuing url: %w", err)
		}
		c.visit(ctx, next)
	}
}

func (c *Crawler) visit(ctx context.Context, rawURL string) {
	s := c.stats
	s.downloaded = append(s.downloaded, rawURL)
	host := ""
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Host
	}
	if !strings.HasPrefix(host, "www") {
		s.subdomains[host]++
	}

	fetched, pending, err := c.frontier.Counts(ctx)
	if err != nil {
		c.logger.Warn("frontier counts unavailable", "error", err)
	}
	c.logger.Info("fetching url", "url", rawURL, "fetched", fetched, "queue_size", pending)

	res := c.corpus.FetchURL(ctx, rawURL)
	if m := c.metrics; m != nil {
		outcome := "ok"
		if res.Size == 0 {
			outcome = "failed"
		}
		m.PagesFetchedTotal.WithLabelValues(outcome).Inc()
	}
	s.ensurePage(res.URL)

	for _, link := range c.ExtractNextLinks(res) {
		if !c.IsValid(link) {
			s.traps = append(s.traps, link)
			c.trapSet[link] = struct{}{}
			if m := c.metrics; m != nil {
				m.TrapURLsTotal.Inc()
			}
			continue
		}
		if _, ok := c.corpus.GetFileName(link); !ok {
			continue
		}
		if err := c.frontier.AddURL(ctx, link); err != nil {
			c.logger.Error("failed to queue url", "url", link, "error", err)
			continue
		}
		s.outlinks[res.URL]++
		if m := c.metrics; m != nil {
			m.LinksQueuedTotal.Inc()
		}
	}
}

// ExtractNextLinks returns the absolute form of every anchor href in a
// fetched page, updating the longest-page and word-frequency analytics on
// the way. Failed fetches yield no links. Links are not validated here.
func (c *Crawler) ExtractNextLinks(res corpus.FetchResult) []string {
	if res.URL == "" || res.Size == 0 || res.ContentType == "" || res.HTTPCode == 404 {
		return nil
	}
	doc, err := markup.ParseBytes(res.Content)
	if err != nil {
		c.logger.Warn("unparseable page", "url", res.URL, "error", err)
		return nil
	}
	c.stats.observePage(res.URL, tokenizer.Words(doc.Text(" ")))

	baseURL := res.URL
	if res.IsRedirected {
		baseURL = res.FinalURL
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		c.logger.Warn("malformed base url", "url", baseURL, "error", err)
		return nil
	}
	var links []string
	for _, href := range doc.Hrefs() {
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			c.logger.Debug("skipping malformed href", "href", href, "page", res.URL)
			continue
		}
		links = append(links, base.ResolveReference(ref).String())
	}
	return links
}

// Finalize builds the crawl report and writes the analytics files. Only the
// first call does any work; later calls return the same result.
func (c *Crawler) Finalize() (Report, error) {
	c.finalizeOnce.Do(func() {
		c.report = c.stats.report()
		c.finalizeErr = c.report.WriteFiles(c.analyticsDir)
		c.logger.Info("crawl finished",
			"downloaded", len(c.report.Downloaded),
			"traps", len(c.report.Traps),
			"subdomains", len(c.report.Subdomains),
			"longest_page", c.report.Longest.URL,
			"longest_page_words", c.report.Longest.Count,
		)
	})
	return c.report, c.finalizeErr
}
