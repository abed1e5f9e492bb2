// Command analytics aggregates the search events every searcher publishes.
//
// Searchers already keep per-process statistics; this service combines the
// events of all of them. It consumes the search events topic and serves the
// combined view at GET /api/v1/analytics.
//
// Usage:
//
//	go run ./cmd/analytics [-config configs/development.yaml] [-port 8090]
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

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/middleware"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	port := flag.Int("port", 0, "listen port (defaults to server.port + 10)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup("analytics", cfg.Logging)
	if !cfg.Kafka.Enabled {
		slog.Error("analytics service needs kafka.enabled: there is no other event source")
		os.Exit(1)
	}
	if *port == 0 {
		*port = cfg.Server.Port + 10
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	stopMetrics := metrics.Start(m, cfg.Metrics, "analytics")
	defer stopMetrics(context.Background())

	aggregator := analytics.NewAggregator()
	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.SearchEvents, analytics.HandleEvent(aggregator))

	checker := health.NewChecker()
	checker.Register("events", func(context.Context) health.ComponentHealth {
		if n := aggregator.Stats().TotalSearches; n > 0 {
			return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d events", n)}
		}
		return health.ComponentHealth{Status: health.StatusUp, Message: "no events yet"}
	})

	mux := http.NewServeMux()
	analytics.NewHandler(aggregator).Routes(mux)
	checker.Routes(mux)

	var chain http.Handler = mux
	chain = middleware.CORS(middleware.DefaultCORSConfig(cfg.Server.CORSOrigins...))(chain)
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("consuming search events", "topic", cfg.Kafka.Topics.SearchEvents)
		return consumer.Start(gctx)
	})
	g.Go(func() error {
		slog.Info("analytics service listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("analytics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("analytics service failed", "error", err)
		os.Exit(1)
	}
	stats := aggregator.Stats()
	slog.Info("analytics service stopped", "total_searches", stats.TotalSearches, "zero_results", stats.ZeroResultCount)
}
