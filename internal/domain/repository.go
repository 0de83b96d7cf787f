package domain

import (
	"context"
	"time"
)

// InsightsClient is the ads-platform API boundary. Both calls may return any
// subset of fields; the normalizer tolerates whatever comes back.
type InsightsClient interface {
	FetchAdInsights(ctx context.Context, adID string, dr DateRange) (*RawAdInsight, error)
	FetchAdContext(ctx context.Context, adID string) (*AdContext, error)
}

// ScraperClient is the external scraping-service boundary.
type ScraperClient interface {
	StartSearch(ctx context.Context, keyword string) (*ScrapeKickoff, error)
	PollSearch(ctx context.Context, runID, searchID string) (*ScrapePoll, error)
}

// CompetitorCacheRepository is the durable competitor-ad cache.
type CompetitorCacheRepository interface {
	FreshByKeyword(ctx context.Context, keyword string, since time.Time) ([]CompetitorAd, error)
	UpsertAds(ctx context.Context, ads []CompetitorAd) error
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// SearchJobStore tracks in-flight search jobs so they can be inspected while
// the poll loop runs. Entries expire on their own; failures here must never
// fail a search.
type SearchJobStore interface {
	SaveJob(ctx context.Context, job *SearchJob) error
	GetJob(ctx context.Context, searchID string) (*SearchJob, error)
}
