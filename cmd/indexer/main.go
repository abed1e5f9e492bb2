package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup("indexer", cfg.Logging)
	slog.Info("starting indexer",
		"corpus_dir", cfg.Indexer.CorpusDir,
		"data_dir", cfg.Indexer.DataDir,
		"workers", cfg.Indexer.Workers,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	stopMetrics := metrics.Start(m, cfg.Metrics, "indexer")
	defer stopMetrics(context.Background())

	store, err := corpus.Open(cfg.Indexer.CorpusDir)
	if err != nil {
		slog.Error("failed to open corpus", "error", err)
		os.Exit(1)
	}

	summary, err := indexer.BuildAll(ctx, store, cfg.Indexer, m)
	if err != nil {
		slog.Error("index build failed", "error", err)
		os.Exit(1)
	}

	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.IndexComplete)
		defer producer.Close()
		event, err := indexer.PublishComplete(ctx, producer, summary)
		if err != nil {
			slog.Error("failed to announce build", "error", err)
			os.Exit(1)
		}
		slog.Info("build announced",
			"topic", cfg.Kafka.Topics.IndexComplete,
			"build_id", event.BuildID,
		)
	}

	slog.Info("indexer stopped",
		"corpus_size", summary.CorpusSize,
		"unigram_keys", summary.UnigramKeys,
		"bigram_keys", summary.BigramKeys,
		"elapsed", summary.Elapsed,
	)
}
