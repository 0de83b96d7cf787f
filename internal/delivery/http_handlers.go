package delivery

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"adscope/internal/domain"
	"adscope/internal/usecase"
	"adscope/pkg/logger"
	"adscope/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// handles HTTP requests
type HTTPHandlers struct {
	insightsService   *usecase.InsightsService
	competitorService *usecase.CompetitorService
	jobs              domain.SearchJobStore
	logger            *logger.Logger
	metrics           *metrics.Metrics
}

// creates new HTTP handlers
func NewHTTPHandlers(
	insightsService *usecase.InsightsService,
	competitorService *usecase.CompetitorService,
	jobs domain.SearchJobStore,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *HTTPHandlers {
	return &HTTPHandlers{
		insightsService:   insightsService,
		competitorService: competitorService,
		jobs:              jobs,
		logger:            logger,
		metrics:           metrics,
	}
}

// GetAdMetrics returns normalized metrics plus a summary for a list of ads.
func (h *HTTPHandlers) GetAdMetrics(c *gin.Context) {
	start := time.Now()
	h.metrics.IncHTTPRequestsInFlight()
	defer h.metrics.DecHTTPRequestsInFlight()

	requestID := uuid.New().String()
	ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey, requestID)

	adIDsParam := c.Query("ad_ids")
	if adIDsParam == "" {
		h.metrics.RecordHTTPRequest("GET", "/ads/metrics", "400", time.Since(start))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Missing required parameter",
			"message":    "ad_ids parameter is required",
			"request_id": requestID,
		})
		return
	}

	var adIDs []string
	for _, id := range strings.Split(adIDsParam, ",") {
		if id = strings.TrimSpace(id); id != "" {
			adIDs = append(adIDs, id)
		}
	}

	dr, err := h.parseDateRange(c)
	if err != nil {
		h.metrics.RecordHTTPRequest("GET", "/ads/metrics", "400", time.Since(start))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Invalid date format",
			"message":    "Dates must be in YYYY-MM-DD format",
			"request_id": requestID,
		})
		return
	}

	batch, err := h.insightsService.CampaignMetrics(ctx, adIDs, dr)
	if err != nil {
		h.metrics.RecordHTTPRequest("GET", "/ads/metrics", "500", time.Since(start))
		h.logger.WithContext(ctx).WithError(err).Error("Failed to build ad metrics batch")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "Failed to retrieve ad metrics",
			"message":    err.Error(),
			"request_id": requestID,
		})
		return
	}

	h.metrics.RecordHTTPRequest("GET", "/ads/metrics", "200", time.Since(start))

	c.JSON(http.StatusOK, gin.H{
		"ads":        batch.Ads,
		"summary":    batch.Summary,
		"request_id": requestID,
	})
}

type searchRequest struct {
	Keyword string `json:"keyword"`
}

// SearchCompetitors runs one keyword search through the orchestrator,
// blocking through the bounded poll loop under the request context.
func (h *HTTPHandlers) SearchCompetitors(c *gin.Context) {
	start := time.Now()
	h.metrics.IncHTTPRequestsInFlight()
	defer h.metrics.DecHTTPRequestsInFlight()

	requestID := uuid.New().String()
	ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey, requestID)

	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.RecordHTTPRequest("POST", "/competitors/search", "400", time.Since(start))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Invalid request body",
			"message":    "expected JSON body with a keyword field",
			"request_id": requestID,
		})
		return
	}

	result := h.competitorService.Search(ctx, req.Keyword)

	status := http.StatusOK
	switch result.Status {
	case domain.SearchFailed:
		status = http.StatusBadGateway
	case domain.SearchTimedOut:
		status = http.StatusGatewayTimeout
	}

	h.metrics.RecordHTTPRequest("POST", "/competitors/search", strconv.Itoa(status), time.Since(start))

	c.JSON(status, gin.H{
		"keyword":    result.Keyword,
		"status":     result.Status,
		"from_cache": result.FromCache,
		"ads":        result.Ads,
		"message":    result.Message,
		"request_id": requestID,
	})
}

// GetCachedCompetitors reads the cache only; it never triggers a scrape.
func (h *HTTPHandlers) GetCachedCompetitors(c *gin.Context) {
	start := time.Now()
	h.metrics.IncHTTPRequestsInFlight()
	defer h.metrics.DecHTTPRequestsInFlight()

	requestID := uuid.New().String()
	ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey, requestID)

	keyword := c.Query("keyword")
	if keyword == "" {
		h.metrics.RecordHTTPRequest("GET", "/competitors", "400", time.Since(start))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Missing required parameter",
			"message":    "keyword parameter is required",
			"request_id": requestID,
		})
		return
	}

	ads, err := h.competitorService.CachedAds(ctx, keyword)
	if err != nil {
		h.metrics.RecordHTTPRequest("GET", "/competitors", "500", time.Since(start))
		h.logger.WithContext(ctx).WithError(err).Error("Failed to read competitor cache")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "Failed to read competitor cache",
			"message":    err.Error(),
			"request_id": requestID,
		})
		return
	}

	h.metrics.RecordHTTPRequest("GET", "/competitors", "200", time.Since(start))

	c.JSON(http.StatusOK, gin.H{
		"keyword":    keyword,
		"ads":        ads,
		"request_id": requestID,
	})
}

// GetSearchJob reports the stored state of an in-flight or recent search.
func (h *HTTPHandlers) GetSearchJob(c *gin.Context) {
	start := time.Now()
	h.metrics.IncHTTPRequestsInFlight()
	defer h.metrics.DecHTTPRequestsInFlight()

	requestID := uuid.New().String()
	ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey, requestID)

	if h.jobs == nil {
		h.metrics.RecordHTTPRequest("GET", "/competitors/search/:search_id", "503", time.Since(start))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":      "Search job tracking is not configured",
			"request_id": requestID,
		})
		return
	}

	searchID := c.Param("search_id")
	job, err := h.jobs.GetJob(ctx, searchID)
	if err != nil {
		h.metrics.RecordHTTPRequest("GET", "/competitors/search/:search_id", "500", time.Since(start))
		h.logger.WithContext(ctx).WithError(err).Error("Failed to read search job")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "Failed to read search job",
			"request_id": requestID,
		})
		return
	}
	if job == nil {
		h.metrics.RecordHTTPRequest("GET", "/competitors/search/:search_id", "404", time.Since(start))
		c.JSON(http.StatusNotFound, gin.H{
			"error":      "Search job not found",
			"request_id": requestID,
		})
		return
	}

	h.metrics.RecordHTTPRequest("GET", "/competitors/search/:search_id", "200", time.Since(start))
	c.JSON(http.StatusOK, gin.H{
		"job":        job,
		"request_id": requestID,
	})
}

// HealthCheck returns the health status of the service
func (h *HTTPHandlers) HealthCheck(c *gin.Context) {
	start := time.Now()
	h.metrics.IncHTTPRequestsInFlight()
	defer h.metrics.DecHTTPRequestsInFlight()

	requestID := uuid.New().String()

	health := gin.H{
		"status":     "healthy",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"service":    "adscope",
		"version":    "1.0.0",
		"request_id": requestID,
	}

	h.metrics.RecordHTTPRequest("GET", "/health", "200", time.Since(start))
	c.JSON(http.StatusOK, health)
}

// GetAPIInfo returns API v1 information and available endpoints
func (h *HTTPHandlers) GetAPIInfo(c *gin.Context) {
	start := time.Now()
	h.metrics.IncHTTPRequestsInFlight()
	defer h.metrics.DecHTTPRequestsInFlight()

	requestID := uuid.New().String()

	apiInfo := gin.H{
		"api_version": "v1",
		"service":     "adscope",
		"description": "Ad-metrics normalization and competitor-intelligence service",
		"endpoints": gin.H{
			"ads_metrics": gin.H{
				"path":        "/api/v1/ads/metrics",
				"methods":     []string{"GET"},
				"description": "Normalized metrics plus summary for a list of ads",
				"parameters": gin.H{
					"ad_ids": "Required: comma-separated ad IDs",
					"from":   "Optional: start date (YYYY-MM-DD, default 30 days ago)",
					"to":     "Optional: end date (YYYY-MM-DD, default today)",
				},
			},
			"competitors_search": gin.H{
				"path":        "/api/v1/competitors/search",
				"methods":     []string{"POST"},
				"description": "Cache-first competitor search by keyword; scrapes on a miss",
			},
			"competitors": gin.H{
				"path":        "/api/v1/competitors",
				"methods":     []string{"GET"},
				"description": "Cache-only competitor lookup, never triggers a scrape",
				"parameters":  gin.H{"keyword": "Required: search keyword"},
			},
			"search_job": gin.H{
				"path":        "/api/v1/competitors/search/:search_id",
				"methods":     []string{"GET"},
				"description": "State of an in-flight or recent scrape job",
			},
		},
		"request_id": requestID,
	}

	h.metrics.RecordHTTPRequest("GET", "/api/v1", "200", time.Since(start))
	c.JSON(http.StatusOK, apiInfo)
}

// parseDateRange parses the from/to query parameters.
func (h *HTTPHandlers) parseDateRange(c *gin.Context) (domain.DateRange, error) {
	dr := domain.DateRange{
		From: time.Now().AddDate(0, 0, -30),
		To:   time.Now(),
	}

	if fromStr := c.Query("from"); fromStr != "" {
		from, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			return domain.DateRange{}, err
		}
		dr.From = from
	}

	if toStr := c.Query("to"); toStr != "" {
		to, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			return domain.DateRange{}, err
		}
		dr.To = to
	}

	return dr, nil
}
