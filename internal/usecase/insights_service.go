package usecase

import (
	"context"
	"sync"

	"adscope/internal/domain"
	"adscope/pkg/logger"
	"adscope/pkg/metrics"
)

// InsightsService fetches raw insights per ad, normalizes each record, and
// aggregates the batch.
type InsightsService struct {
	client  domain.InsightsClient
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// NewInsightsService creates a new insights service.
func NewInsightsService(client domain.InsightsClient, logger *logger.Logger, metrics *metrics.Metrics) *InsightsService {
	return &InsightsService{
		client:  client,
		logger:  logger,
		metrics: metrics,
	}
}

// AdMetricsBatch is the per-ad metrics list plus the aggregate summary.
type AdMetricsBatch struct {
	Ads     []domain.AdMetrics `json:"ads"`
	Summary domain.AdsSummary  `json:"summary"`
}

// CampaignMetrics fetches and normalizes insights for every ad concurrently.
// An individual ad's fetch failure degrades that ad to zero-valued metrics
// with a logged warning; it never aborts the rest of the batch.
func (s *InsightsService) CampaignMetrics(ctx context.Context, adIDs []string, dr domain.DateRange) (*AdMetricsBatch, error) {
	log := s.logger.WithContext(ctx)
	log.WithFields(map[string]any{
		"ads":  len(adIDs),
		"from": dr.From.Format("2006-01-02"),
		"to":   dr.To.Format("2006-01-02"),
	}).Info("Fetching ad metrics")

	results := make([]domain.AdMetrics, len(adIDs))

	var wg sync.WaitGroup
	for i, adID := range adIDs {
		wg.Add(1)
		go func(i int, adID string) {
			defer wg.Done()
			results[i] = s.fetchAndNormalize(ctx, adID, dr)
		}(i, adID)
	}
	wg.Wait()

	summary := Aggregate(results)

	log.WithFields(map[string]any{
		"ads":         len(results),
		"total_spend": summary.TotalSpend,
	}).Info("Ad metrics batch completed")

	return &AdMetricsBatch{Ads: results, Summary: summary}, nil
}

// fetchAndNormalize resolves one ad's context and raw insight, returning
// zero-valued metrics on any failure.
func (s *InsightsService) fetchAndNormalize(ctx context.Context, adID string, dr domain.DateRange) domain.AdMetrics {
	log := s.logger.WithContext(ctx)

	actx, err := s.client.FetchAdContext(ctx, adID)
	if err != nil {
		log.WithError(err).WithField("ad_id", adID).Warn("Failed to fetch ad context, using defaults")
		s.metrics.RecordNormalization("context_fallback")
		actx = &domain.AdContext{}
	}

	raw, err := s.client.FetchAdInsights(ctx, adID, dr)
	if err != nil {
		log.WithError(err).WithField("ad_id", adID).Warn("Failed to fetch ad insights, degrading to zero metrics")
		s.metrics.RecordNormalization("fetch_failed")
		return domain.AdMetrics{AdID: adID}
	}

	m := Normalize(raw, *actx)
	m.AdID = adID
	s.metrics.RecordNormalization("success")
	return m
}
