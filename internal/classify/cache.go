package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"time"

	"github.com/corona10/goimagehash"
	"github.com/redis/go-redis/v9"

	"github.com/akhmedovh4mid/GoogleAdsParser/internal/logging"
)

// Cache memoizes classification verdicts in Redis, keyed by a
// perceptual difference hash of the creative so re-screenshots of the
// same ad skip a paid model call. Every failure degrades to a live
// classification.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewCache connects to Redis at redisURL ("redis://...").
func NewCache(redisURL string, ttl time.Duration, logger *logging.Logger) (*Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Cache{client: client, ttl: ttl, logger: logger.Child("cache")}, nil
}

// Close releases the Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}

func cacheKey(img image.Image) (string, error) {
	hash, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return "", fmt.Errorf("failed to hash creative: %w", err)
	}
	return fmt.Sprintf("arbitrage:dhash:%016x", hash.GetHash()), nil
}

// Get returns a cached verdict for the creative, if any.
func (c *Cache) Get(ctx context.Context, img image.Image) (*Result, bool) {
	key, err := cacheKey(img)
	if err != nil {
		c.logger.Debug("cache key unavailable", "error", err)
		return nil, false
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("cache read failed", "error", err)
		}
		return nil, false
	}

	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		c.logger.Warn("cached verdict malformed, ignoring", "error", err)
		return nil, false
	}
	return &result, true
}

// Set stores a verdict for the creative.
func (c *Cache) Set(ctx context.Context, img image.Image, result *Result) {
	key, err := cacheKey(img)
	if err != nil {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", "error", err)
	}
}
