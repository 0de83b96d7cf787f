package infrastructure

import (
	"context"
	"sync"
	"time"

	"adscope/internal/domain"
	"adscope/pkg/logger"
)

// MemoryCacheRepository is an in-memory CompetitorCacheRepository used when
// no database is configured. Entries are keyed by (ad_id, search_keyword)
// to match the Postgres upsert semantics.
type MemoryCacheRepository struct {
	data   map[string]map[string]domain.CompetitorAd
	mutex  sync.RWMutex
	logger *logger.Logger
}

func NewMemoryCacheRepository(logger *logger.Logger) *MemoryCacheRepository {
	return &MemoryCacheRepository{
		data:   make(map[string]map[string]domain.CompetitorAd),
		logger: logger,
	}
}

func (r *MemoryCacheRepository) FreshByKeyword(ctx context.Context, keyword string, since time.Time) ([]domain.CompetitorAd, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var ads []domain.CompetitorAd
	for _, ad := range r.data[keyword] {
		if ad.IsActive && !ad.ScrapedAt.Before(since) {
			ads = append(ads, ad)
		}
	}
	return ads, nil
}

func (r *MemoryCacheRepository) UpsertAds(ctx context.Context, ads []domain.CompetitorAd) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, ad := range ads {
		byID, ok := r.data[ad.SearchKeyword]
		if !ok {
			byID = make(map[string]domain.CompetitorAd)
			r.data[ad.SearchKeyword] = byID
		}
		byID[ad.AdID] = ad
	}

	r.logger.WithContext(ctx).WithField("count", len(ads)).Info("Stored competitor ads in memory")
	return nil
}

func (r *MemoryCacheRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var purged int64
	for keyword, byID := range r.data {
		for id, ad := range byID {
			if ad.ScrapedAt.Before(cutoff) {
				delete(byID, id)
				purged++
			}
		}
		if len(byID) == 0 {
			delete(r.data, keyword)
		}
	}
	return purged, nil
}
