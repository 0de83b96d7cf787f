package infrastructure

import (
	"context"
	"fmt"
	"time"

	"adscope/internal/domain"
	"adscope/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CompetitorCacheRepository persists competitor ads in Postgres, keyed by
// (ad_id, search_keyword) so the same ad surfacing in repeated searches for
// a keyword updates in place rather than duplicating.
type CompetitorCacheRepository struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// NewCompetitorCacheRepository connects a pool and ensures the table exists.
func NewCompetitorCacheRepository(ctx context.Context, databaseURL string, logger *logger.Logger) (*CompetitorCacheRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	repo := &CompetitorCacheRepository{pool: pool, logger: logger}
	if err := repo.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("Connected to competitor-ad cache database")
	return repo, nil
}

func (r *CompetitorCacheRepository) ensureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS competitor_ads (
			ad_id                TEXT        NOT NULL,
			search_keyword       TEXT        NOT NULL,
			page_name            TEXT        NOT NULL DEFAULT '',
			image_urls           TEXT[]      NOT NULL DEFAULT '{}',
			video_url            TEXT        NOT NULL DEFAULT '',
			ad_copy              TEXT        NOT NULL DEFAULT '',
			cta_text             TEXT        NOT NULL DEFAULT '',
			ad_format            TEXT        NOT NULL DEFAULT 'image',
			started_running_date TEXT        NOT NULL DEFAULT '',
			is_active            BOOLEAN     NOT NULL DEFAULT TRUE,
			scraped_at           TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (ad_id, search_keyword)
		);
		CREATE INDEX IF NOT EXISTS idx_competitor_ads_keyword_scraped
			ON competitor_ads (search_keyword, scraped_at);
	`
	if _, err := r.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to ensure competitor_ads schema: %w", err)
	}
	return nil
}

// FreshByKeyword returns active cache rows for the keyword scraped at or
// after since.
func (r *CompetitorCacheRepository) FreshByKeyword(ctx context.Context, keyword string, since time.Time) ([]domain.CompetitorAd, error) {
	query := `
		SELECT ad_id, search_keyword, page_name, image_urls, video_url,
		       ad_copy, cta_text, ad_format, started_running_date,
		       is_active, scraped_at
		FROM competitor_ads
		WHERE search_keyword = $1 AND scraped_at >= $2 AND is_active
		ORDER BY scraped_at DESC
	`

	rows, err := r.pool.Query(ctx, query, keyword, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query competitor cache: %w", err)
	}
	defer rows.Close()

	var ads []domain.CompetitorAd
	for rows.Next() {
		var ad domain.CompetitorAd
		if err := rows.Scan(
			&ad.AdID, &ad.SearchKeyword, &ad.PageName, &ad.ImageURLs,
			&ad.VideoURL, &ad.AdCopy, &ad.CTAText, &ad.AdFormat,
			&ad.StartedRunningDate, &ad.IsActive, &ad.ScrapedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan competitor ad: %w", err)
		}
		ads = append(ads, ad)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read competitor cache rows: %w", err)
	}

	return ads, nil
}

// UpsertAds writes a batch of cache rows, updating on (ad_id, search_keyword)
// conflicts.
func (r *CompetitorCacheRepository) UpsertAds(ctx context.Context, ads []domain.CompetitorAd) error {
	if len(ads) == 0 {
		return nil
	}

	query := `
		INSERT INTO competitor_ads (
			ad_id, search_keyword, page_name, image_urls, video_url,
			ad_copy, cta_text, ad_format, started_running_date,
			is_active, scraped_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (ad_id, search_keyword) DO UPDATE SET
			page_name = EXCLUDED.page_name,
			image_urls = EXCLUDED.image_urls,
			video_url = EXCLUDED.video_url,
			ad_copy = EXCLUDED.ad_copy,
			cta_text = EXCLUDED.cta_text,
			ad_format = EXCLUDED.ad_format,
			started_running_date = EXCLUDED.started_running_date,
			is_active = EXCLUDED.is_active,
			scraped_at = EXCLUDED.scraped_at
	`

	batch := &pgx.Batch{}
	for _, ad := range ads {
		batch.Queue(query,
			ad.AdID, ad.SearchKeyword, ad.PageName, ad.ImageURLs,
			ad.VideoURL, ad.AdCopy, ad.CTAText, ad.AdFormat,
			ad.StartedRunningDate, ad.IsActive, ad.ScrapedAt,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := range ads {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to upsert competitor ad %d: %w", i, err)
		}
	}

	r.logger.WithContext(ctx).WithField("count", len(ads)).Info("Upserted competitor ads")
	return nil
}

// PurgeOlderThan deletes rows scraped before cutoff and reports how many
// were removed.
func (r *CompetitorCacheRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM competitor_ads WHERE scraped_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge stale competitor ads: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Close releases the connection pool.
func (r *CompetitorCacheRepository) Close() {
	r.pool.Close()
}
