package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// External API metrics
	ExternalAPICalls    *prometheus.CounterVec
	ExternalAPIDuration *prometheus.HistogramVec
	ExternalAPIFailures *prometheus.CounterVec

	// Normalization metrics
	AdsNormalizedTotal *prometheus.CounterVec

	// Competitor search metrics
	SearchesTotal      *prometheus.CounterVec
	SearchPollAttempts prometheus.Histogram
	CacheRowsPurged    prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),

		ExternalAPICalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "external_api_calls_total",
				Help: "Total number of external API calls",
			},
			[]string{"api", "status"},
		),

		ExternalAPIDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "external_api_duration_seconds",
				Help:    "External API call duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"api"},
		),

		ExternalAPIFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "external_api_failures_total",
				Help: "Total number of external API failures",
			},
			[]string{"api", "error_type"},
		),

		AdsNormalizedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ads_normalized_total",
				Help: "Total number of ad insight records normalized",
			},
			[]string{"status"},
		),

		SearchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "competitor_searches_total",
				Help: "Total number of competitor searches by outcome",
			},
			[]string{"outcome"},
		),

		SearchPollAttempts: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "competitor_search_poll_attempts",
				Help:    "Poll attempts per completed competitor search",
				Buckets: []float64{1, 2, 4, 8, 12, 16, 20, 24},
			},
		),

		CacheRowsPurged: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "competitor_cache_rows_purged_total",
				Help: "Total number of stale competitor-ad cache rows deleted",
			},
		),
	}
}

// HTTP request metrics
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// External API call metrics
func (m *Metrics) RecordExternalAPICall(api, status string, duration time.Duration) {
	m.ExternalAPICalls.WithLabelValues(api, status).Inc()
	m.ExternalAPIDuration.WithLabelValues(api).Observe(duration.Seconds())
}

// External API failure metrics
func (m *Metrics) RecordExternalAPIFailure(api, errorType string) {
	m.ExternalAPIFailures.WithLabelValues(api, errorType).Inc()
}

// Normalization outcome counter
func (m *Metrics) RecordNormalization(status string) {
	m.AdsNormalizedTotal.WithLabelValues(status).Inc()
}

// Competitor search outcome counter
func (m *Metrics) RecordSearch(outcome string) {
	m.SearchesTotal.WithLabelValues(outcome).Inc()
}

// Poll attempts per search
func (m *Metrics) RecordPollAttempts(attempts int) {
	m.SearchPollAttempts.Observe(float64(attempts))
}

// Stale cache rows removed by the purge sweep
func (m *Metrics) RecordCachePurge(rows int64) {
	m.CacheRowsPurged.Add(float64(rows))
}

// HTTP requests in flight counter
func (m *Metrics) IncHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

// HTTP requests in flight counter
func (m *Metrics) DecHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}
