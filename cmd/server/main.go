package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/samuelramdial/cumberland-storm-status/internal/adapter/httpapi"
	kafkaadapter "github.com/samuelramdial/cumberland-storm-status/internal/adapter/kafka"
	"github.com/samuelramdial/cumberland-storm-status/internal/adapter/ncdot"
	"github.com/samuelramdial/cumberland-storm-status/internal/adapter/sqlite"
	"github.com/samuelramdial/cumberland-storm-status/internal/config"
	"github.com/samuelramdial/cumberland-storm-status/internal/observability"
	"github.com/samuelramdial/cumberland-storm-status/internal/service"
)

// alwaysReady reports ready when no snapshot refresher is running; the API
// serves straight from the feed in that mode.
type alwaysReady struct{}

func (alwaysReady) CheckReadiness(context.Context) error { return nil }

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	db, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		logger.Error("failed to open database", "error", err, "path", cfg.SQLitePath)
		os.Exit(1)
	}
	defer db.Close()

	feed := ncdot.NewCachedClient(
		ncdot.NewClient(cfg.FeedBaseURL, cfg.FeedTimeout, metrics, logger),
		cfg.FeedCacheTTL,
		metrics,
	)

	closures := service.NewClosures(feed, cfg.DefaultCountyID, logger, metrics)
	requests := service.NewRequests(sqlite.NewRequestStore(db), logger, metrics)

	var publisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	var (
		snapshot *service.Snapshot
		ready    httpapi.ReadinessChecker = alwaysReady{}
	)
	if cfg.SnapshotEnabled {
		var pub service.Publisher
		if publisher != nil {
			pub = publisher
		}
		closureStore := sqlite.NewClosureStore(db)
		snapshot = service.NewSnapshot(closures, closureStore, pub,
			cfg.SnapshotInterval, logger, metrics)
		closures.UseSnapshotFallback(closureStore)
		ready = snapshot
	} else {
		logger.Info("snapshot refresher disabled")
	}

	srv := httpapi.NewServer(cfg.HTTPAddr, closures, requests, ready, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	if snapshot != nil {
		go func() {
			if err := snapshot.Run(ctx); err != nil {
				logger.Error("snapshot refresher error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
