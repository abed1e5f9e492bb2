package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/middleware"
	pkgredis "github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup("searcher", cfg.Logging)
	slog.Info("starting search service", "port", cfg.Server.Port, "data_dir", cfg.Indexer.DataDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	stopMetrics := metrics.Start(m, cfg.Metrics, "searcher")
	defer stopMetrics(context.Background())

	exec := executor.New(executor.Config{
		DataDir:       cfg.Indexer.DataDir,
		CorpusDir:     cfg.Indexer.CorpusDir,
		PageSize:      cfg.Search.PageSize,
		SnippetLength: cfg.Search.SnippetLength,
	})
	defer exec.Close()
	if err := exec.Reload(ctx); err != nil {
		m.IndexReloadsTotal.WithLabelValues("failed").Inc()
		slog.Warn("index not loaded, searches fail until a build completes", "error", err)
	} else {
		m.IndexReloadsTotal.WithLabelValues("ok").Inc()
	}

	var (
		queryCache  *cache.QueryCache
		redisClient *pkgredis.Client
	)
	if cfg.Search.CacheEnabled {
		redisClient, err = pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			queryCache = cache.New(redisClient, cfg.Redis.CacheTTL, m)
			slog.Info("search cache enabled",
				"addr", cfg.Redis.Addr,
				"ttl", cfg.Redis.CacheTTL,
			)
		}
	}

	aggregator := analytics.NewAggregator()
	var tracker analytics.Tracker = aggregator
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.SearchEvents)
		defer producer.Close()
		collector := analytics.NewCollector(producer, 10000)
		// Publishing outlives the signal so requests still draining are tracked;
		// Close flushes the final batch once the server has stopped.
		collector.Start(context.WithoutCancel(ctx))
		defer collector.Close()
		tracker = analytics.Tee(aggregator, collector)

		var inv consumer.Invalidator
		if queryCache != nil {
			inv = queryCache
		}
		reloads := kafka.NewConsumer(
			cfg.Kafka,
			cfg.Kafka.Topics.IndexComplete,
			consumer.HandleIndexComplete(exec, inv, cfg.Indexer.DataDir),
		)
		go func() {
			if err := consumer.New(reloads).Start(ctx); err != nil {
				slog.Error("index consumer error", "error", err)
			}
		}()
		slog.Info("listening for index builds", "topic", cfg.Kafka.Topics.IndexComplete)
	}

	checker := health.NewChecker()
	checker.Register("index", health.Condition(exec.Loaded, "no artifacts loaded"))
	if redisClient != nil {
		checker.Register("redis", health.PingCheck(redisClient.Ping, true))
	}

	h := handler.New(exec, handler.Options{Cache: queryCache, Tracker: tracker, Metrics: m})

	mux := http.NewServeMux()
	h.Routes(mux)
	analytics.NewHandler(aggregator).Routes(mux)
	checker.Routes(mux)

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	if cfg.Server.RateLimit > 0 {
		chain = middleware.RateLimit(middleware.NewLimiter(ctx, cfg.Server.RateLimit, time.Minute))(chain)
	}
	chain = middleware.CORS(middleware.DefaultCORSConfig(cfg.Server.CORSOrigins...))(chain)
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("search service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	// ListenAndServe returns as soon as Shutdown starts; in-flight requests
	// still use the tracker until Shutdown itself returns.
	<-shutdownDone

	slog.Info("search service stopped")
}
