// Package cache implements the content-addressed result cache on Redis.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/smart-ats/internal/domain"
)

const keyPrefix = "analysis:"

// ResultCache stores finalized analyses keyed by the input-content hash so
// identical resume/job-description pairs are served without recomputation.
type ResultCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New constructs a ResultCache from a Redis URL.
func New(redisURL string, ttl time.Duration) (*ResultCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("op=cache.New: %w", err)
	}
	return &ResultCache{rdb: redis.NewClient(opts), ttl: ttl}, nil
}

// NewWithClient constructs a ResultCache around an existing client.
func NewWithClient(rdb *redis.Client, ttl time.Duration) *ResultCache {
	return &ResultCache{rdb: rdb, ttl: ttl}
}

// Key derives the cache key for a resume/job-description pair.
func Key(resumeText, jobDescription string) string {
	sum := sha256.Sum256([]byte(resumeText + jobDescription))
	return hex.EncodeToString(sum[:])
}

// Get loads a cached analysis. A miss is not an error.
func (c *ResultCache) Get(ctx domain.Context, key string) (domain.AnalysisResult, bool, error) {
	raw, err := c.rdb.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.AnalysisResult{}, false, nil
		}
		return domain.AnalysisResult{}, false, fmt.Errorf("op=cache.get: %w", err)
	}
	var res domain.AnalysisResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return domain.AnalysisResult{}, false, fmt.Errorf("op=cache.get: %w", err)
	}
	return res, true, nil
}

// Set stores a finalized analysis under the content hash. Concurrent writers
// for the same key store equivalent values, so last writer wins.
func (c *ResultCache) Set(ctx domain.Context, key string, r domain.AnalysisResult) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("op=cache.set: %w", err)
	}
	if err := c.rdb.Set(ctx, keyPrefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("op=cache.set: %w", err)
	}
	return nil
}

// Ping reports cache connectivity for readiness checks.
func (c *ResultCache) Ping(ctx domain.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Client exposes the underlying Redis client for readiness wiring.
func (c *ResultCache) Client() *redis.Client { return c.rdb }
