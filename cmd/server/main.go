package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"adscope/internal/delivery"
	"adscope/internal/domain"
	"adscope/internal/infrastructure"
	"adscope/internal/scheduler"
	"adscope/internal/usecase"
	"adscope/pkg/config"
	"adscope/pkg/logger"
	"adscope/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)
	log.Info("Starting adscope")

	m := metrics.New()
	ctx := context.Background()

	// Competitor-ad cache: Postgres when configured, in-memory otherwise.
	var cache domain.CompetitorCacheRepository
	if cfg.Storage.DatabaseURL != "" {
		pgCache, err := infrastructure.NewCompetitorCacheRepository(ctx, cfg.Storage.DatabaseURL, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to competitor cache database")
		}
		defer pgCache.Close()
		cache = pgCache
	} else {
		log.Warn("DATABASE_URL not set, using in-memory competitor cache")
		cache = infrastructure.NewMemoryCacheRepository(log)
	}

	// Search-job store: Redis when reachable; searches still work without it.
	var jobs domain.SearchJobStore
	jobStore, err := infrastructure.NewSearchJobStore(cfg.Storage.RedisURL, cfg.Storage.JobTTL)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, search job state will not be tracked")
	} else {
		defer jobStore.Close()
		jobs = jobStore
	}

	metaClient := infrastructure.NewMetaClient(
		cfg.Meta.BaseURL,
		cfg.Meta.AccessToken,
		cfg.Meta.RequestTimeout,
		cfg.Meta.RateLimitPerSecond,
		log,
		m,
	)
	scraperClient := infrastructure.NewScraperClient(
		cfg.Scraper.TriggerURL,
		cfg.Scraper.PollURL,
		cfg.Scraper.RequestTimeout,
		log,
		m,
	)

	insightsService := usecase.NewInsightsService(metaClient, log, m)
	competitorService := usecase.NewCompetitorService(
		cache,
		scraperClient,
		jobs,
		log,
		m,
		cfg.Storage.FreshnessWindow,
		cfg.Scraper.PollInterval,
		cfg.Scraper.MaxPollAttempts,
	)

	purgeScheduler := scheduler.New(cache, log, m, cfg.Storage.PurgeSchedule, cfg.Storage.FreshnessWindow)
	if err := purgeScheduler.Start(ctx); err != nil {
		log.WithError(err).Fatal("Failed to start cache purge scheduler")
	}
	defer purgeScheduler.Stop()

	handlers := delivery.NewHTTPHandlers(insightsService, competitorService, jobs, log, m)
	router := delivery.NewHTTPRouter(handlers, log, m, cfg.Server.RequestTimeout, cfg.Server.SearchTimeout)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router.SetupRoutes(),
	}

	go func() {
		log.WithField("port", cfg.Server.Port).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server shutdown failed")
	}
}
