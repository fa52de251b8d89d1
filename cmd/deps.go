package cmd

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/contactcrawl/internal/cache"
	"github.com/jonesrussell/contactcrawl/internal/config"
	"github.com/jonesrussell/contactcrawl/internal/crawler"
	"github.com/jonesrussell/contactcrawl/internal/email"
	"github.com/jonesrussell/contactcrawl/internal/fetcher"
	"github.com/jonesrussell/contactcrawl/internal/logger"
	"github.com/jonesrussell/contactcrawl/internal/metrics"
	"github.com/jonesrussell/contactcrawl/internal/ratelimit"
	"github.com/jonesrussell/contactcrawl/internal/robots"
	"github.com/jonesrussell/contactcrawl/internal/safeurl"
	"github.com/jonesrussell/contactcrawl/internal/suppress"
)

// redisPingTimeout bounds the startup connectivity check.
const redisPingTimeout = 2 * time.Second

// connectRedis opens a Redis client and verifies the connection.
func connectRedis(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}

// buildCrawler assembles the full per-site pipeline from configuration.
// redisClient may be nil, which disables the response cache; m may be nil.
func buildCrawler(
	cfg *config.Config,
	log logger.Logger,
	m *metrics.Metrics,
	redisClient *redis.Client,
	dncDomains []string,
) *crawler.Crawler {
	limiter := ratelimit.New(ratelimit.Config{
		GlobalConcurrency: cfg.GlobalConcurrency,
		PerHostConcurrent: cfg.PerHostConcurrent,
		PerHostMinTime:    cfg.PerHostMinTime,
	})

	fetch := fetcher.New(fetcher.Config{
		UserAgent:  cfg.BotName,
		Timeout:    cfg.RequestTimeout,
		MaxRetries: cfg.MaxRetries,
	}, m, log)

	var pageCache crawler.PageCache
	if redisClient != nil {
		pageCache = cache.New(redisClient, 0, log)
	}

	var mx crawler.MXValidator
	if cfg.EnableMXCheck {
		mx = email.NewMXChecker(true)
	}

	return crawler.New(crawler.Deps{
		Gate:    safeurl.New(),
		Robots:  robots.New(nil, cfg.BotName, 0),
		Limiter: limiter,
		Cache:   pageCache,
		Fetcher: fetch,
		MX:      mx,
		DNC:     suppress.NewDNCList(dncDomains...),
		TOS:     suppress.NewTOSList(),
		Metrics: m,
		Logger:  log,
	}, cfg.BetweenRequests)
}
