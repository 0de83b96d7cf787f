package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"adscope/internal/domain"
	"adscope/pkg/logger"
	"adscope/pkg/metrics"

	"github.com/google/uuid"
)

const timeoutMessage = "Search is still processing; results may become available shortly, try again later"

// CompetitorService orchestrates keyword searches over the competitor-ad
// cache and the external scraping service: cache-first lookup, async job
// kickoff on a miss, then a bounded poll loop.
type CompetitorService struct {
	cache           domain.CompetitorCacheRepository
	scraper         domain.ScraperClient
	jobs            domain.SearchJobStore
	logger          *logger.Logger
	metrics         *metrics.Metrics
	freshnessWindow time.Duration
	pollInterval    time.Duration
	maxPollAttempts int
	now             func() time.Time
}

// NewCompetitorService creates a new competitor search service.
func NewCompetitorService(
	cache domain.CompetitorCacheRepository,
	scraper domain.ScraperClient,
	jobs domain.SearchJobStore,
	logger *logger.Logger,
	metrics *metrics.Metrics,
	freshnessWindow, pollInterval time.Duration,
	maxPollAttempts int,
) *CompetitorService {
	return &CompetitorService{
		cache:           cache,
		scraper:         scraper,
		jobs:            jobs,
		logger:          logger,
		metrics:         metrics,
		freshnessWindow: freshnessWindow,
		pollInterval:    pollInterval,
		maxPollAttempts: maxPollAttempts,
		now:             time.Now,
	}
}

// Search resolves a keyword to competitor ads. The returned result is always
// terminal (completed, failed, or timed_out); upstream errors are converted
// into the failed state, never propagated as raw errors.
func (s *CompetitorService) Search(ctx context.Context, keyword string) *domain.SearchResult {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return &domain.SearchResult{Status: domain.SearchCompleted, Ads: []domain.CompetitorAd{}}
	}

	log := s.logger.WithContext(ctx).WithField("keyword", keyword)

	// Cache errors fail open as a miss: a broken cache must not block a
	// fresh scrape.
	cutoff := s.now().Add(-s.freshnessWindow)
	cached, err := s.cache.FreshByKeyword(ctx, keyword, cutoff)
	if err != nil {
		log.WithError(err).Warn("Cache lookup failed, treating as miss")
		s.metrics.RecordSearch("cache_error")
	} else if len(cached) > 0 {
		log.WithField("ads", len(cached)).Info("Serving competitor ads from cache")
		s.metrics.RecordSearch("cache_hit")
		return &domain.SearchResult{
			Keyword:   keyword,
			Status:    domain.SearchCompleted,
			FromCache: true,
			Ads:       cached,
		}
	}

	log.Info("Cache miss, starting scrape job")
	s.metrics.RecordSearch("cache_miss")

	kickoff, err := s.scraper.StartSearch(ctx, keyword)
	if err != nil {
		log.WithError(err).Error("Failed to start scrape job")
		s.metrics.RecordSearch("failed")
		return &domain.SearchResult{
			Keyword: keyword,
			Status:  domain.SearchFailed,
			Message: fmt.Sprintf("failed to start competitor search: %v", err),
		}
	}

	// Fast path: the trigger itself returned completed results.
	if kickoff.Status == domain.SearchCompleted {
		log.WithField("ads", len(kickoff.Ads)).Info("Scrape completed synchronously")
		return s.complete(ctx, keyword, kickoff.Ads)
	}

	job := &domain.SearchJob{
		SearchID:  kickoff.SearchID,
		RunID:     kickoff.RunID,
		Keyword:   keyword,
		Status:    domain.SearchProcessing,
		StartedAt: s.now(),
		UpdatedAt: s.now(),
	}
	s.saveJob(ctx, job)

	return s.poll(ctx, job)
}

// CachedAds returns fresh cache rows for the keyword without ever
// triggering a scrape.
func (s *CompetitorService) CachedAds(ctx context.Context, keyword string) ([]domain.CompetitorAd, error) {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return []domain.CompetitorAd{}, nil
	}
	cutoff := s.now().Add(-s.freshnessWindow)
	ads, err := s.cache.FreshByKeyword(ctx, keyword, cutoff)
	if err != nil {
		return nil, fmt.Errorf("competitor cache lookup: %w", err)
	}
	return ads, nil
}

// poll drives the bounded retry loop: constant interval, one request in
// flight at a time, aborting between attempts when the context is done.
func (s *CompetitorService) poll(ctx context.Context, job *domain.SearchJob) *domain.SearchResult {
	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"keyword":   job.Keyword,
		"run_id":    job.RunID,
		"search_id": job.SearchID,
	})

	for job.AttemptsMade < s.maxPollAttempts {
		select {
		case <-ctx.Done():
			log.WithField("attempts", job.AttemptsMade).Warn("Search abandoned by caller")
			s.metrics.RecordSearch("cancelled")
			return s.fail(ctx, job, "search cancelled")
		case <-time.After(s.pollInterval):
		}

		job.AttemptsMade++
		job.UpdatedAt = s.now()

		result, err := s.scraper.PollSearch(ctx, job.RunID, job.SearchID)
		if err != nil {
			log.WithError(err).WithField("attempt", job.AttemptsMade).Error("Poll request failed")
			s.metrics.RecordSearch("failed")
			return s.fail(ctx, job, fmt.Sprintf("competitor search polling failed: %v", err))
		}

		switch result.Status {
		case domain.SearchCompleted:
			log.WithFields(map[string]any{
				"attempts": job.AttemptsMade,
				"ads":      len(result.Ads),
			}).Info("Scrape job completed")
			job.Status = domain.SearchCompleted
			s.saveJob(ctx, job)
			s.metrics.RecordPollAttempts(job.AttemptsMade)
			return s.complete(ctx, job.Keyword, result.Ads)
		case domain.SearchFailed:
			log.WithField("error", result.ErrorMessage).Error("Scrape job failed")
			s.metrics.RecordSearch("failed")
			return s.fail(ctx, job, result.ErrorMessage)
		default:
			s.saveJob(ctx, job)
		}
	}

	// The job may still complete server-side after the client gives up, so
	// the timeout message is distinct from a genuine failure.
	log.WithField("attempts", job.AttemptsMade).Warn("Scrape job polling timed out")
	s.metrics.RecordSearch("timed_out")
	s.metrics.RecordPollAttempts(job.AttemptsMade)
	job.Status = domain.SearchTimedOut
	job.ErrorMessage = timeoutMessage
	s.saveJob(ctx, job)
	return &domain.SearchResult{
		Keyword: job.Keyword,
		Status:  domain.SearchTimedOut,
		Message: timeoutMessage,
	}
}

// complete persists scraped ads into the cache and builds the terminal
// result. A cache write failure is logged but does not fail the search; the
// caller still gets the ads.
func (s *CompetitorService) complete(ctx context.Context, keyword string, scraped []domain.ScrapedAd) *domain.SearchResult {
	ads := s.toCacheEntries(keyword, scraped)
	if len(ads) > 0 {
		if err := s.cache.UpsertAds(ctx, ads); err != nil {
			s.logger.WithContext(ctx).WithError(err).WithField("keyword", keyword).Warn("Failed to persist competitor ads")
		}
	}
	s.metrics.RecordSearch("completed")
	return &domain.SearchResult{
		Keyword: keyword,
		Status:  domain.SearchCompleted,
		Ads:     ads,
	}
}

func (s *CompetitorService) fail(ctx context.Context, job *domain.SearchJob, message string) *domain.SearchResult {
	job.Status = domain.SearchFailed
	job.ErrorMessage = message
	s.saveJob(ctx, job)
	return &domain.SearchResult{
		Keyword: job.Keyword,
		Status:  domain.SearchFailed,
		Message: message,
	}
}

// saveJob updates the job store; store errors are logged only, the search
// result never depends on them.
func (s *CompetitorService) saveJob(ctx context.Context, job *domain.SearchJob) {
	if s.jobs == nil {
		return
	}
	if err := s.jobs.SaveJob(ctx, job); err != nil {
		s.logger.WithContext(ctx).WithError(err).WithField("search_id", job.SearchID).Warn("Failed to save search job state")
	}
}

// toCacheEntries normalizes scraped ads into cache rows keyed by
// (ad_id, keyword). Ads without an ID get a synthesized one so the upsert
// key is never null.
func (s *CompetitorService) toCacheEntries(keyword string, scraped []domain.ScrapedAd) []domain.CompetitorAd {
	now := s.now()
	ads := make([]domain.CompetitorAd, 0, len(scraped))

	for _, sa := range scraped {
		adID := sa.AdID
		if adID == "" {
			adID = fmt.Sprintf("%s-%d-%s", strings.ReplaceAll(sa.PageName, " ", "_"), now.UnixMilli(), uuid.NewString()[:8])
		}

		images := parseURLList(sa.ImageURLs)
		videos := parseURLList(sa.VideoURL)
		videoURL := ""
		if len(videos) > 0 {
			videoURL = videos[0]
		}

		format := "image"
		if videoURL != "" {
			format = "video"
		}

		ads = append(ads, domain.CompetitorAd{
			AdID:               adID,
			SearchKeyword:      keyword,
			PageName:           sa.PageName,
			ImageURLs:          images,
			VideoURL:           videoURL,
			AdCopy:             sa.AdCopy,
			CTAText:            sa.CTAText,
			AdFormat:           format,
			StartedRunningDate: sa.StartedRunningDate,
			IsActive:           true,
			ScrapedAt:          now,
		})
	}

	return ads
}

// parseURLList accepts either a JSON-array string or a plain URL.
func parseURLList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if strings.HasPrefix(raw, "[") {
		var urls []string
		if err := json.Unmarshal([]byte(raw), &urls); err == nil {
			return urls
		}
	}
	return []string{raw}
}
