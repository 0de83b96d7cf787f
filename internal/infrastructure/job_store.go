package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"adscope/internal/domain"

	"github.com/redis/go-redis/v9"
)

// SearchJobStore keeps in-flight search jobs in Redis with a TTL so they can
// be inspected while the poll loop runs and disappear on their own.
type SearchJobStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSearchJobStore connects to Redis and verifies the connection.
func NewSearchJobStore(redisURL string, ttl time.Duration) (*SearchJobStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &SearchJobStore{client: client, ttl: ttl}, nil
}

func jobKey(searchID string) string {
	return fmt.Sprintf("search:job:%s", searchID)
}

// SaveJob writes the job state, refreshing its TTL.
func (s *SearchJobStore) SaveJob(ctx context.Context, job *domain.SearchJob) error {
	if job.SearchID == "" {
		return nil
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal search job: %w", err)
	}

	if err := s.client.Set(ctx, jobKey(job.SearchID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// GetJob returns the stored job, or nil when none exists.
func (s *SearchJobStore) GetJob(ctx context.Context, searchID string) (*domain.SearchJob, error) {
	data, err := s.client.Get(ctx, jobKey(searchID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var job domain.SearchJob
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal search job: %w", err)
	}
	return &job, nil
}

// Close closes the Redis connection.
func (s *SearchJobStore) Close() error {
	return s.client.Close()
}
