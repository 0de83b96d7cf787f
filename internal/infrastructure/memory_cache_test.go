package infrastructure

import (
	"context"
	"testing"
	"time"

	"adscope/internal/domain"
	"adscope/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_UpsertUpdatesInPlace(t *testing.T) {
	repo := NewMemoryCacheRepository(logger.New("error"))
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.UpsertAds(ctx, []domain.CompetitorAd{
		{AdID: "a1", SearchKeyword: "shoes", AdCopy: "old", IsActive: true, ScrapedAt: now.Add(-time.Hour)},
	}))
	require.NoError(t, repo.UpsertAds(ctx, []domain.CompetitorAd{
		{AdID: "a1", SearchKeyword: "shoes", AdCopy: "new", IsActive: true, ScrapedAt: now},
	}))

	ads, err := repo.FreshByKeyword(ctx, "shoes", now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, ads, 1)
	assert.Equal(t, "new", ads[0].AdCopy)
}

func TestMemoryCache_SameAdSeparatePerKeyword(t *testing.T) {
	repo := NewMemoryCacheRepository(logger.New("error"))
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.UpsertAds(ctx, []domain.CompetitorAd{
		{AdID: "a1", SearchKeyword: "shoes", IsActive: true, ScrapedAt: now},
		{AdID: "a1", SearchKeyword: "boots", IsActive: true, ScrapedAt: now},
	}))

	shoes, err := repo.FreshByKeyword(ctx, "shoes", now.Add(-time.Hour))
	require.NoError(t, err)
	boots, err := repo.FreshByKeyword(ctx, "boots", now.Add(-time.Hour))
	require.NoError(t, err)

	assert.Len(t, shoes, 1)
	assert.Len(t, boots, 1)
}

func TestMemoryCache_FreshnessAndActivity(t *testing.T) {
	repo := NewMemoryCacheRepository(logger.New("error"))
	ctx := context.Background()
	now := time.Now()
	cutoff := now.Add(-7 * 24 * time.Hour)

	require.NoError(t, repo.UpsertAds(ctx, []domain.CompetitorAd{
		{AdID: "fresh", SearchKeyword: "shoes", IsActive: true, ScrapedAt: cutoff.Add(time.Second)},
		{AdID: "stale", SearchKeyword: "shoes", IsActive: true, ScrapedAt: cutoff.Add(-time.Second)},
		{AdID: "inactive", SearchKeyword: "shoes", IsActive: false, ScrapedAt: now},
	}))

	ads, err := repo.FreshByKeyword(ctx, "shoes", cutoff)
	require.NoError(t, err)
	require.Len(t, ads, 1)
	assert.Equal(t, "fresh", ads[0].AdID)
}

func TestMemoryCache_Purge(t *testing.T) {
	repo := NewMemoryCacheRepository(logger.New("error"))
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.UpsertAds(ctx, []domain.CompetitorAd{
		{AdID: "old", SearchKeyword: "shoes", IsActive: true, ScrapedAt: now.Add(-10 * 24 * time.Hour)},
		{AdID: "new", SearchKeyword: "shoes", IsActive: true, ScrapedAt: now},
	}))

	purged, err := repo.PurgeOlderThan(ctx, now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	ads, err := repo.FreshByKeyword(ctx, "shoes", now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, ads, 1)
	assert.Equal(t, "new", ads[0].AdID)
}
