package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/samuelramdial/cumberland-storm-status/internal/domain"
	"github.com/samuelramdial/cumberland-storm-status/internal/observability"
)

// SnapshotStore persists a denormalized closure batch.
type SnapshotStore interface {
	ReplaceAll(ctx context.Context, closures []domain.RoadClosure) error
}

// Publisher pushes a refreshed closure batch to downstream consumers. Optional.
type Publisher interface {
	PublishBatch(ctx context.Context, closures []domain.RoadClosure) error
}

// Snapshot periodically pulls the default county's closures and replaces the
// local snapshot, optionally publishing each refreshed batch. It runs out of
// band so API reads never wait on the upstream feed.
type Snapshot struct {
	closures  *Closures
	store     SnapshotStore
	publisher Publisher
	interval  time.Duration
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
}

// NewSnapshot creates the refresher. publisher may be nil.
func NewSnapshot(closures *Closures, store SnapshotStore, publisher Publisher, interval time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Snapshot {
	return &Snapshot{
		closures:  closures,
		store:     store,
		publisher: publisher,
		interval:  interval,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once at least one refresh has completed.
func (s *Snapshot) CheckReadiness(_ context.Context) error {
	if !s.ready.Load() {
		return errors.New("snapshot has not completed a refresh yet")
	}
	return nil
}

// Run refreshes the snapshot immediately and then on every interval tick until
// the context is cancelled. Refresh failures are logged and retried on the
// next tick.
func (s *Snapshot) Run(ctx context.Context) error {
	s.logger.Info("snapshot refresher started", "interval", s.interval)
	s.metrics.SnapshotRunning.Set(1)
	defer s.metrics.SnapshotRunning.Set(0)

	if err := s.RefreshOnce(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("initial snapshot refresh failed", "error", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("snapshot refresher stopping", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if err := s.RefreshOnce(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("snapshot refresh failed", "error", err)
			}
		}
	}
}

// RefreshOnce performs one fetch-normalize-store cycle.
func (s *Snapshot) RefreshOnce(ctx context.Context) error {
	start := time.Now()

	batch, err := s.closures.GetClosures(ctx, "", "")
	if err != nil {
		s.metrics.SnapshotRefreshes.WithLabelValues("error").Inc()
		return fmt.Errorf("refresh closures: %w", err)
	}

	if err := s.store.ReplaceAll(ctx, batch); err != nil {
		s.metrics.SnapshotRefreshes.WithLabelValues("error").Inc()
		return fmt.Errorf("store snapshot: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishBatch(ctx, batch); err != nil {
			// The local snapshot is already current, so a publish failure is
			// not worth failing the refresh over.
			s.logger.Warn("snapshot publish failed", "error", err, "batch_size", len(batch))
		}
	}

	s.metrics.SnapshotRefreshes.WithLabelValues("success").Inc()
	s.ready.Store(true)
	s.logger.Info("snapshot refreshed",
		"closures", len(batch), "duration", time.Since(start))
	return nil
}
