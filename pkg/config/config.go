package config

import (
	"os"
	"strconv"
	"time"
)

// Application settings
type Config struct {
	Server  ServerConfig
	Logging LoggingConfig
	Meta    MetaConfig
	Scraper ScraperConfig
	Storage StorageConfig
}

// Server settings
type ServerConfig struct {
	Port           string
	RequestTimeout time.Duration
	// SearchTimeout bounds the competitor-search route, which blocks
	// through the poll loop and needs more headroom than other routes.
	SearchTimeout time.Duration
}

// Ads-platform API settings
type MetaConfig struct {
	BaseURL            string
	AccessToken        string
	RequestTimeout     time.Duration
	RateLimitPerSecond int
}

// Scraping-service settings
type ScraperConfig struct {
	TriggerURL      string
	PollURL         string
	RequestTimeout  time.Duration
	PollInterval    time.Duration
	MaxPollAttempts int
}

// Postgres cache and Redis job-store settings
type StorageConfig struct {
	DatabaseURL     string
	RedisURL        string
	FreshnessWindow time.Duration
	JobTTL          time.Duration
	PurgeSchedule   string
}

// Logging settings
type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			RequestTimeout: getDurationEnv("REQUEST_TIMEOUT", "30s"),
			SearchTimeout:  getDurationEnv("SEARCH_TIMEOUT", "150s"),
		},
		Meta: MetaConfig{
			BaseURL:            getEnv("META_API_URL", "https://graph.facebook.com/v19.0"),
			AccessToken:        getEnv("META_ACCESS_TOKEN", ""),
			RequestTimeout:     getDurationEnv("META_REQUEST_TIMEOUT", "30s"),
			RateLimitPerSecond: getIntEnv("META_RATE_LIMIT_PER_SECOND", 100),
		},
		Scraper: ScraperConfig{
			TriggerURL:      getEnv("SCRAPER_TRIGGER_URL", ""),
			PollURL:         getEnv("SCRAPER_POLL_URL", ""),
			RequestTimeout:  getDurationEnv("SCRAPER_REQUEST_TIMEOUT", "30s"),
			PollInterval:    getDurationEnv("SCRAPER_POLL_INTERVAL", "5s"),
			MaxPollAttempts: getIntEnv("SCRAPER_MAX_POLL_ATTEMPTS", 24),
		},
		Storage: StorageConfig{
			DatabaseURL:     getEnv("DATABASE_URL", ""),
			RedisURL:        getEnv("REDIS_URL", "redis://localhost:6379/0"),
			FreshnessWindow: getDurationEnv("CACHE_FRESHNESS_WINDOW", "168h"),
			JobTTL:          getDurationEnv("SEARCH_JOB_TTL", "1h"),
			PurgeSchedule:   getEnv("CACHE_PURGE_SCHEDULE", "@daily"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationEnv(key, defaultValue string) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
