// Package scheduler wires up the cron job that periodically purges stale
// competitor-ad cache rows.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"adscope/internal/domain"
	"adscope/pkg/logger"
	"adscope/pkg/metrics"

	"github.com/robfig/cron/v3"
)

// Scheduler wraps robfig/cron and manages the cache purge sweep.
type Scheduler struct {
	cron            *cron.Cron
	cache           domain.CompetitorCacheRepository
	logger          *logger.Logger
	metrics         *metrics.Metrics
	spec            string
	freshnessWindow time.Duration
}

// New creates a Scheduler firing on the given cron spec (e.g. "@daily").
func New(cache domain.CompetitorCacheRepository, logger *logger.Logger, metrics *metrics.Metrics, spec string, freshnessWindow time.Duration) *Scheduler {
	return &Scheduler{
		cron:            cron.New(),
		cache:           cache,
		logger:          logger,
		metrics:         metrics,
		spec:            spec,
		freshnessWindow: freshnessWindow,
	}
}

// Start registers the sweep and starts the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runPurge(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.logger.WithField("spec", s.spec).Info("Cache purge scheduler started")
	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("Cache purge scheduler stopped")
}

// runPurge deletes rows older than the freshness window. Stale rows would be
// skipped by the freshness query anyway; the sweep just keeps the table from
// growing without bound.
func (s *Scheduler) runPurge(ctx context.Context) {
	cutoff := time.Now().Add(-s.freshnessWindow)

	purged, err := s.cache.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.WithError(err).Error("Cache purge sweep failed")
		return
	}

	s.metrics.RecordCachePurge(purged)
	s.logger.WithFields(map[string]any{
		"purged": purged,
		"cutoff": cutoff.Format(time.RFC3339),
	}).Info("Cache purge sweep completed")
}
