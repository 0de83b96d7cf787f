package delivery

import (
	"time"

	"adscope/internal/delivery/middleware"
	"adscope/pkg/logger"
	"adscope/pkg/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type HTTPRouter struct {
	handlers       *HTTPHandlers
	logger         *logger.Logger
	metrics        *metrics.Metrics
	requestTimeout time.Duration
	searchTimeout  time.Duration
}

func NewHTTPRouter(handlers *HTTPHandlers, logger *logger.Logger, metrics *metrics.Metrics, requestTimeout, searchTimeout time.Duration) *HTTPRouter {
	return &HTTPRouter{
		handlers:       handlers,
		logger:         logger,
		metrics:        metrics,
		requestTimeout: requestTimeout,
		searchTimeout:  searchTimeout,
	}
}

func (r *HTTPRouter) SetupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.Recovery(r.logger))
	router.Use(middleware.Metrics(r.metrics))

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Content-Type", "X-Request-ID"}
	config.ExposeHeaders = []string{"X-Request-ID"}

	router.Use(cors.New(config))

	// Health endpoint
	router.GET("/health", r.handlers.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(middleware.Timeout(r.requestTimeout))
	{
		v1.GET("/", r.handlers.GetAPIInfo)
		v1.GET("", r.handlers.GetAPIInfo)

		ads := v1.Group("/ads")
		{
			ads.GET("/metrics", r.handlers.GetAdMetrics)
		}

		competitors := v1.Group("/competitors")
		{
			competitors.GET("", r.handlers.GetCachedCompetitors)
			competitors.GET("/search/:search_id", r.handlers.GetSearchJob)
		}
	}

	// The search route blocks through the poll loop (up to ~2 minutes), so
	// it gets its own timeout instead of the API-wide one.
	search := router.Group("/api/v1/competitors")
	search.Use(middleware.Timeout(r.searchTimeout))
	{
		search.POST("/search", r.handlers.SearchCompetitors)
	}

	// Prometheus metrics endpoint
	router.GET("/metrics", middleware.PrometheusHandler())

	return router
}
