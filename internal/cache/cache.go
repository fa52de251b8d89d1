// Package cache memoizes per-URL crawl results in Redis. Cache failures
// are logged and swallowed; the crawl never depends on the cache working.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/contactcrawl/internal/domain"
	"github.com/jonesrussell/contactcrawl/internal/logger"
)

// DefaultTTL is how long a cached crawl result stays valid.
const DefaultTTL = 7 * 24 * time.Hour

// keyPrefix namespaces crawl-result keys in Redis.
const keyPrefix = "crawl:"

// ResponseCache stores PageResults keyed by URL hash. A nil client turns
// every operation into a no-op.
type ResponseCache struct {
	client *redis.Client
	ttl    time.Duration
	log    logger.Logger
}

// New creates a ResponseCache. client may be nil to disable caching.
func New(client *redis.Client, ttl time.Duration, log logger.Logger) *ResponseCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	if log == nil {
		log = logger.Nop()
	}

	return &ResponseCache{client: client, ttl: ttl, log: log}
}

// Key derives the Redis key for a URL.
func Key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Get returns the cached result for a URL, or (nil, false) on miss,
// disabled cache, or any backend failure.
func (c *ResponseCache) Get(ctx context.Context, url string) (*domain.PageResult, bool) {
	if c.client == nil {
		return nil, false
	}

	raw, err := c.client.Get(ctx, Key(url)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}

	if err != nil {
		c.log.Warn("cache get failed", logger.String("url", url), logger.Error(err))
		return nil, false
	}

	var result domain.PageResult
	if err := json.Unmarshal(raw, &result); err != nil {
		c.log.Warn("cache entry corrupt", logger.String("url", url), logger.Error(err))
		return nil, false
	}

	return &result, true
}

// Set stores a result for a URL. Failures are logged and dropped.
func (c *ResponseCache) Set(ctx context.Context, url string, result *domain.PageResult) {
	if c.client == nil || result == nil {
		return
	}

	raw, err := json.Marshal(result)
	if err != nil {
		c.log.Warn("cache encode failed", logger.String("url", url), logger.Error(err))
		return
	}

	if err := c.client.Set(ctx, Key(url), raw, c.ttl).Err(); err != nil {
		c.log.Warn("cache set failed", logger.String("url", url), logger.Error(err))
	}
}
