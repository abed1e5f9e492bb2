package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/crawler"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/frontier"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	reset := flag.Bool("reset", false, "empty a postgres frontier before seeding")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup("crawler", cfg.Logging)
	slog.Info("starting crawler",
		"frontier", cfg.Crawler.Frontier,
		"live", cfg.Crawler.Live,
		"corpus_dir", cfg.Crawler.CorpusDir,
		"seeds", len(cfg.Crawler.SeedURLs),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	stopMetrics := metrics.Start(m, cfg.Metrics, "crawler")
	defer stopMetrics(context.Background())

	var f frontier.Frontier
	switch cfg.Crawler.Frontier {
	case "postgres":
		client, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			slog.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		pf, err := frontier.NewPostgres(ctx, client)
		if err != nil {
			slog.Error("failed to open postgres frontier", "error", err)
			os.Exit(1)
		}
		if *reset {
			if err := pf.Reset(ctx); err != nil {
				slog.Error("failed to reset frontier", "error", err)
				os.Exit(1)
			}
		}
		for _, seed := range cfg.Crawler.SeedURLs {
			if err := pf.AddURL(ctx, seed); err != nil {
				slog.Error("failed to seed frontier", "url", seed, "error", err)
				os.Exit(1)
			}
		}
		f = pf
	default:
		f = frontier.NewMemory(cfg.Crawler.SeedURLs...)
	}

	var (
		source    crawler.Corpus
		flush     func() error
		openHosts func() []string
	)
	if cfg.Crawler.Live {
		store, err := corpus.Create(cfg.Crawler.CorpusDir)
		if err != nil {
			slog.Error("failed to create corpus", "error", err)
			os.Exit(1)
		}
		fetcher := corpus.NewHTTPFetcher(cfg.Crawler, m)
		live := corpus.NewLive(fetcher, store)
		source, flush, openHosts = live, live.Flush, fetcher.OpenHosts
	} else {
		store, err := corpus.Open(cfg.Crawler.CorpusDir)
		if err != nil {
			slog.Error("failed to open corpus", "error", err)
			os.Exit(1)
		}
		source = store
	}

	c := crawler.New(cfg.Crawler, f, source, m)
	crawlErr := c.Start(ctx)
	if flush != nil {
		if err := flush(); err != nil {
			slog.Error("failed to flush corpus bookkeeping", "error", err)
		}
	}
	if crawlErr != nil && !errors.Is(crawlErr, context.Canceled) {
		slog.Error("crawl failed", "error", crawlErr)
		os.Exit(1)
	}

	if openHosts != nil {
		if hosts := openHosts(); len(hosts) > 0 {
			slog.Warn("hosts still failing at shutdown", "hosts", hosts)
		}
	}

	fetched, pending, err := f.Counts(context.Background())
	if err != nil {
		slog.Warn("failed to read frontier counts", "error", err)
	}
	slog.Info("crawler stopped",
		"fetched", fetched,
		"pending", pending,
		"analytics_dir", cfg.Crawler.AnalyticsDir,
		"interrupted", crawlErr != nil,
	)
}
