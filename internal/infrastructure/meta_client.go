package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"adscope/internal/domain"
	"adscope/pkg/logger"
	"adscope/pkg/metrics"

	"golang.org/x/time/rate"
)

// MetaClient implements domain.InsightsClient against the ads-platform Graph
// API. Responses are decoded through the flexible-number types in domain, so
// any subset of fields and any number/string mix is accepted.
type MetaClient struct {
	client      *http.Client
	baseURL     string
	accessToken string
	logger      *logger.Logger
	metrics     *metrics.Metrics
	rateLimiter *rate.Limiter
}

// NewMetaClient creates a new ads-platform API client.
func NewMetaClient(baseURL, accessToken string, timeout time.Duration, rps int, logger *logger.Logger, metrics *metrics.Metrics) *MetaClient {
	return &MetaClient{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL:     baseURL,
		accessToken: accessToken,
		logger:      logger,
		metrics:     metrics,
		rateLimiter: rate.NewLimiter(rate.Limit(rps), 10),
	}
}

// insightsEnvelope is the Graph API list wrapper around insight rows.
type insightsEnvelope struct {
	Data []domain.RawAdInsight `json:"data"`
}

// adConfigResponse carries the adset/campaign configuration needed to
// resolve an ad's result action type.
type adConfigResponse struct {
	Adset struct {
		OptimizationGoal string `json:"optimization_goal"`
		PromotedObject   struct {
			CustomEventType string `json:"custom_event_type"`
		} `json:"promoted_object"`
	} `json:"adset"`
	Campaign struct {
		Objective string `json:"objective"`
	} `json:"campaign"`
}

// FetchAdInsights fetches the raw insights record for one ad over a date
// range. A response with no rows yields an empty insight, not an error; the
// normalizer turns it into zero metrics.
func (c *MetaClient) FetchAdInsights(ctx context.Context, adID string, dr domain.DateRange) (*domain.RawAdInsight, error) {
	params := url.Values{}
	params.Set("fields", "impressions,reach,spend,clicks,inline_link_clicks,inline_link_click_ctr,ctr,cpc,cpm,cpp,frequency,conversions,conversion_values,actions,cost_per_action_type,video_thruplay_watched_actions")
	params.Set("time_range", fmt.Sprintf(`{"since":"%s","until":"%s"}`, dr.From.Format("2006-01-02"), dr.To.Format("2006-01-02")))

	var envelope insightsEnvelope
	if err := c.get(ctx, "insights", fmt.Sprintf("/%s/insights", adID), params, &envelope); err != nil {
		return nil, err
	}

	if len(envelope.Data) == 0 {
		return &domain.RawAdInsight{}, nil
	}
	return &envelope.Data[0], nil
}

// FetchAdContext fetches the adset optimization goal, custom event type, and
// campaign objective for one ad.
func (c *MetaClient) FetchAdContext(ctx context.Context, adID string) (*domain.AdContext, error) {
	params := url.Values{}
	params.Set("fields", "adset{optimization_goal,promoted_object{custom_event_type}},campaign{objective}")

	var cfg adConfigResponse
	if err := c.get(ctx, "ad_config", fmt.Sprintf("/%s", adID), params, &cfg); err != nil {
		return nil, err
	}

	return &domain.AdContext{
		AdsetOptimizationGoal: cfg.Adset.OptimizationGoal,
		AdsetCustomEventType:  cfg.Adset.PromotedObject.CustomEventType,
		CampaignObjective:     cfg.Campaign.Objective,
	}, nil
}

// get performs one rate-limited GET and decodes the JSON body into out.
func (c *MetaClient) get(ctx context.Context, api, path string, params url.Values, out any) error {
	start := time.Now()

	if err := c.rateLimiter.Wait(ctx); err != nil {
		c.metrics.RecordExternalAPIFailure(api, "rate_limit")
		return fmt.Errorf("rate limit exceeded: %w", err)
	}

	params.Set("access_token", c.accessToken)
	endpoint := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		c.metrics.RecordExternalAPIFailure(api, "request_creation")
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.RecordExternalAPIFailure(api, "network_error")
		return fmt.Errorf("failed to call ads API: %w", err)
	}
	defer resp.Body.Close()

	duration := time.Since(start)

	if resp.StatusCode != http.StatusOK {
		c.metrics.RecordExternalAPICall(api, fmt.Sprintf("error_%d", resp.StatusCode), duration)
		return fmt.Errorf("ads API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.RecordExternalAPIFailure(api, "read_body")
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		c.metrics.RecordExternalAPIFailure(api, "json_parse")
		return fmt.Errorf("failed to parse ads API response: %w", err)
	}

	c.metrics.RecordExternalAPICall(api, "success", duration)

	c.logger.WithContext(ctx).WithFields(map[string]any{
		"api":      api,
		"path":     path,
		"duration": duration,
	}).Debug("Ads API call completed")

	return nil
}
