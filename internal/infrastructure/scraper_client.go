package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"adscope/internal/domain"
	"adscope/pkg/logger"
	"adscope/pkg/metrics"
)

// ScraperClient implements domain.ScraperClient against the external
// scraping service's trigger and poll endpoints.
type ScraperClient struct {
	client     *http.Client
	triggerURL string
	pollURL    string
	logger     *logger.Logger
	metrics    *metrics.Metrics
}

// NewScraperClient creates a new scraping-service client.
func NewScraperClient(triggerURL, pollURL string, timeout time.Duration, logger *logger.Logger, metrics *metrics.Metrics) *ScraperClient {
	return &ScraperClient{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		triggerURL: triggerURL,
		pollURL:    pollURL,
		logger:     logger,
		metrics:    metrics,
	}
}

// StartSearch kicks off a scrape for the keyword. The service may answer
// with completed ads directly (fast path) or with a processing handle.
func (c *ScraperClient) StartSearch(ctx context.Context, keyword string) (*domain.ScrapeKickoff, error) {
	payload := map[string]string{"keyword": keyword}

	var kickoff domain.ScrapeKickoff
	if err := c.post(ctx, "scraper_trigger", c.triggerURL, payload, &kickoff); err != nil {
		return nil, err
	}

	// A body carrying ads with no processing handle is a synchronous
	// completion even if the service omitted the status field.
	if kickoff.Status == "" {
		if len(kickoff.Ads) > 0 {
			kickoff.Status = domain.SearchCompleted
		} else {
			kickoff.Status = domain.SearchProcessing
		}
	}

	return &kickoff, nil
}

// PollSearch checks one in-flight scrape job.
func (c *ScraperClient) PollSearch(ctx context.Context, runID, searchID string) (*domain.ScrapePoll, error) {
	payload := map[string]string{"run_id": runID, "search_id": searchID}

	var poll domain.ScrapePoll
	if err := c.post(ctx, "scraper_poll", c.pollURL, payload, &poll); err != nil {
		return nil, err
	}
	return &poll, nil
}

// post performs one JSON POST and decodes the response into out.
func (c *ScraperClient) post(ctx context.Context, api, endpoint string, payload any, out any) error {
	start := time.Now()

	body, err := json.Marshal(payload)
	if err != nil {
		c.metrics.RecordExternalAPIFailure(api, "json_marshal")
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(body))
	if err != nil {
		c.metrics.RecordExternalAPIFailure(api, "request_creation")
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.RecordExternalAPIFailure(api, "network_error")
		return fmt.Errorf("failed to call scraping service: %w", err)
	}
	defer resp.Body.Close()

	duration := time.Since(start)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.RecordExternalAPICall(api, fmt.Sprintf("error_%d", resp.StatusCode), duration)
		return fmt.Errorf("scraping service returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.RecordExternalAPIFailure(api, "read_body")
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		c.metrics.RecordExternalAPIFailure(api, "json_parse")
		return fmt.Errorf("failed to parse scraping service response: %w", err)
	}

	c.metrics.RecordExternalAPICall(api, "success", duration)

	c.logger.WithContext(ctx).WithFields(map[string]any{
		"api":      api,
		"duration": duration,
	}).Debug("Scraping service call completed")

	return nil
}
