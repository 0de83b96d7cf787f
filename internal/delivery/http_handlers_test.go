package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"adscope/internal/domain"
	"adscope/internal/usecase"
	"adscope/pkg/logger"
	"adscope/pkg/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// One Metrics per test binary: the prometheus collectors register globally.
var testMetrics = metrics.New()

type fakeInsightsClient struct {
	insights map[string]*domain.RawAdInsight
}

func (c *fakeInsightsClient) FetchAdInsights(ctx context.Context, adID string, dr domain.DateRange) (*domain.RawAdInsight, error) {
	if raw, ok := c.insights[adID]; ok {
		return raw, nil
	}
	return nil, errors.New("unknown ad")
}

func (c *fakeInsightsClient) FetchAdContext(ctx context.Context, adID string) (*domain.AdContext, error) {
	return &domain.AdContext{AdsetCustomEventType: "LEAD"}, nil
}

type fakeCache struct {
	ads []domain.CompetitorAd
}

func (c *fakeCache) FreshByKeyword(ctx context.Context, keyword string, since time.Time) ([]domain.CompetitorAd, error) {
	return c.ads, nil
}

func (c *fakeCache) UpsertAds(ctx context.Context, ads []domain.CompetitorAd) error { return nil }

func (c *fakeCache) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type fakeScraper struct {
	kickoff    *domain.ScrapeKickoff
	kickoffErr error
	poll       *domain.ScrapePoll
}

func (s *fakeScraper) StartSearch(ctx context.Context, keyword string) (*domain.ScrapeKickoff, error) {
	return s.kickoff, s.kickoffErr
}

func (s *fakeScraper) PollSearch(ctx context.Context, runID, searchID string) (*domain.ScrapePoll, error) {
	return s.poll, nil
}

func newTestRouter(insights *fakeInsightsClient, cache *fakeCache, scraper *fakeScraper) http.Handler {
	log := logger.New("error")

	insightsService := usecase.NewInsightsService(insights, log, testMetrics)
	competitorService := usecase.NewCompetitorService(
		cache, scraper, nil, log, testMetrics,
		7*24*time.Hour, time.Millisecond, 2,
	)

	handlers := NewHTTPHandlers(insightsService, competitorService, nil, log, testMetrics)
	router := NewHTTPRouter(handlers, log, testMetrics, 5*time.Second, 5*time.Second)
	return router.SetupRoutes()
}

func doRequest(t *testing.T, handler http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	return w, decoded
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(&fakeInsightsClient{}, &fakeCache{}, &fakeScraper{})

	w, body := doRequest(t, router, "GET", "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])
}

func TestGetAdMetrics_MissingAdIDs(t *testing.T) {
	router := newTestRouter(&fakeInsightsClient{}, &fakeCache{}, &fakeScraper{})

	w, body := doRequest(t, router, "GET", "/api/v1/ads/metrics", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing required parameter", body["error"])
}

func TestGetAdMetrics_InvalidDate(t *testing.T) {
	router := newTestRouter(&fakeInsightsClient{}, &fakeCache{}, &fakeScraper{})

	w, _ := doRequest(t, router, "GET", "/api/v1/ads/metrics?ad_ids=a1&from=31-08-2026", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAdMetrics_ReturnsAdsAndSummary(t *testing.T) {
	insights := &fakeInsightsClient{
		insights: map[string]*domain.RawAdInsight{
			"a1": {
				Impressions:      1000,
				InlineLinkClicks: 50,
				Spend:            100,
				Actions:          []domain.ActionEntry{{ActionType: "lead", Value: 4}},
			},
		},
	}
	router := newTestRouter(insights, &fakeCache{}, &fakeScraper{})

	w, body := doRequest(t, router, "GET", "/api/v1/ads/metrics?ad_ids=a1&from=2026-08-01&to=2026-08-31", "")

	require.Equal(t, http.StatusOK, w.Code)

	ads := body["ads"].([]any)
	require.Len(t, ads, 1)
	first := ads[0].(map[string]any)
	assert.Equal(t, "a1", first["ad_id"])
	assert.Equal(t, 1000.0, first["impressions"])
	assert.Equal(t, 4.0, first["results"])

	summary := body["summary"].(map[string]any)
	assert.Equal(t, 100.0, summary["total_spend"])
}

func TestSearchCompetitors_InvalidBody(t *testing.T) {
	router := newTestRouter(&fakeInsightsClient{}, &fakeCache{}, &fakeScraper{})

	w, _ := doRequest(t, router, "POST", "/api/v1/competitors/search", "not json")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchCompetitors_CacheHit(t *testing.T) {
	cache := &fakeCache{ads: []domain.CompetitorAd{{AdID: "x1", SearchKeyword: "shoes"}}}
	router := newTestRouter(&fakeInsightsClient{}, cache, &fakeScraper{})

	w, body := doRequest(t, router, "POST", "/api/v1/competitors/search", `{"keyword": "shoes"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "completed", body["status"])
	assert.Equal(t, true, body["from_cache"])
}

func TestSearchCompetitors_FailureMapsToBadGateway(t *testing.T) {
	scraper := &fakeScraper{kickoffErr: errors.New("scraper down")}
	router := newTestRouter(&fakeInsightsClient{}, &fakeCache{}, scraper)

	w, body := doRequest(t, router, "POST", "/api/v1/competitors/search", `{"keyword": "shoes"}`)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "failed", body["status"])
}

func TestSearchCompetitors_TimeoutMapsToGatewayTimeout(t *testing.T) {
	scraper := &fakeScraper{
		kickoff: &domain.ScrapeKickoff{Status: domain.SearchProcessing, RunID: "r1", SearchID: "s1"},
		poll:    &domain.ScrapePoll{Status: domain.SearchProcessing},
	}
	router := newTestRouter(&fakeInsightsClient{}, &fakeCache{}, scraper)

	w, body := doRequest(t, router, "POST", "/api/v1/competitors/search", `{"keyword": "shoes"}`)

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, "timed_out", body["status"])
}

func TestGetCachedCompetitors_MissingKeyword(t *testing.T) {
	router := newTestRouter(&fakeInsightsClient{}, &fakeCache{}, &fakeScraper{})

	w, _ := doRequest(t, router, "GET", "/api/v1/competitors", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetCachedCompetitors_ReturnsAds(t *testing.T) {
	cache := &fakeCache{ads: []domain.CompetitorAd{{AdID: "x1"}, {AdID: "x2"}}}
	router := newTestRouter(&fakeInsightsClient{}, cache, &fakeScraper{})

	w, body := doRequest(t, router, "GET", "/api/v1/competitors?keyword=shoes", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["ads"], 2)
}

func TestGetSearchJob_StoreNotConfigured(t *testing.T) {
	router := newTestRouter(&fakeInsightsClient{}, &fakeCache{}, &fakeScraper{})

	w, _ := doRequest(t, router, "GET", "/api/v1/competitors/search/s1", "")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
