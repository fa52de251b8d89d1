// Package config loads crawler configuration from environment variables,
// with optional .env file support.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Defaults for every tunable. Values are overridable through the
// environment variables named in the struct tags below.
const (
	DefaultBotName           = "CSV-Webcrawler/2.0"
	DefaultRequestTimeout    = 12 * time.Second
	DefaultMaxRetries        = 3
	DefaultBetweenRequests   = 150 * time.Millisecond
	DefaultGlobalConcurrency = 8
	DefaultPerHostMinTime    = time.Second
	DefaultPerHostConcurrent = 1
	DefaultWorkerConcurrency = 2
	DefaultLogLevel          = "info"
	DefaultMetricsAddress    = ":9090"
	DefaultAuditLogPath      = "audit.jsonl"
)

// Crawl config bounds. Out-of-range values are clamped at ingress.
const (
	MinPages               = 1
	MaxPages               = 10
	DefaultPages           = 5
	MinConcurrency         = 1
	MaxConcurrency         = 8
	DefaultSiteConcurrency = 4
)

// Config holds the full runtime configuration.
type Config struct {
	// RedisURL is the address of the cache and queue backend.
	RedisURL string
	// BotName is the user-agent presented to crawled sites.
	BotName string
	// RequestTimeout bounds a single page fetch.
	RequestTimeout time.Duration
	// MaxRetries is the 5xx retry budget per fetch.
	MaxRetries int
	// BetweenRequests is the politeness sleep between pages of one site.
	BetweenRequests time.Duration
	// GlobalConcurrency caps in-flight fetches across all hosts.
	GlobalConcurrency int
	// PerHostMinTime is the minimum spacing between fetches to one host.
	PerHostMinTime time.Duration
	// PerHostConcurrent caps in-flight fetches to one host.
	PerHostConcurrent int
	// WorkerConcurrency is the number of queue workers in one process.
	WorkerConcurrency int
	// EnableCache toggles the Redis response cache.
	EnableCache bool
	// EnableMXCheck toggles DNS MX validation of extracted emails.
	EnableMXCheck bool
	// LogLevel is the minimum log level.
	LogLevel string
	// MetricsAddress is the listen address of the health/metrics server.
	MetricsAddress string
	// AuditLogPath is the JSON-lines audit log file.
	AuditLogPath string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		RedisURL:          getString("REDIS_URL", "localhost:6379"),
		BotName:           getString("BOT_NAME", DefaultBotName),
		RequestTimeout:    getMillis("REQUEST_TIMEOUT_MS", DefaultRequestTimeout),
		MaxRetries:        getInt("MAX_RETRIES", DefaultMaxRetries),
		BetweenRequests:   getMillis("BETWEEN_REQUESTS_MS", DefaultBetweenRequests),
		GlobalConcurrency: getInt("GLOBAL_CONCURRENCY", DefaultGlobalConcurrency),
		PerHostMinTime:    getMillis("PER_HOST_MIN_TIME_MS", DefaultPerHostMinTime),
		PerHostConcurrent: getInt("PER_HOST_MAX_CONCURRENT", DefaultPerHostConcurrent),
		WorkerConcurrency: getInt("WORKER_CONCURRENCY", DefaultWorkerConcurrency),
		EnableCache:       getBool("ENABLE_CACHE", true),
		EnableMXCheck:     getBool("ENABLE_MX_CHECK", false),
		LogLevel:          getString("LOG_LEVEL", DefaultLogLevel),
		MetricsAddress:    getString("METRICS_ADDRESS", DefaultMetricsAddress),
		AuditLogPath:      getString("AUDIT_LOG_PATH", DefaultAuditLogPath),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.MaxRetries < 0 {
		return fmt.Errorf("MAX_RETRIES must be >= 0, got %d", c.MaxRetries)
	}

	if c.GlobalConcurrency < 1 {
		return fmt.Errorf("GLOBAL_CONCURRENCY must be >= 1, got %d", c.GlobalConcurrency)
	}

	if c.PerHostConcurrent < 1 {
		return fmt.Errorf("PER_HOST_MAX_CONCURRENT must be >= 1, got %d", c.PerHostConcurrent)
	}

	if c.WorkerConcurrency < 1 {
		return fmt.Errorf("WORKER_CONCURRENCY must be >= 1, got %d", c.WorkerConcurrency)
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT_MS must be > 0, got %s", c.RequestTimeout)
	}

	return nil
}

// getString reads a string variable with a fallback.
func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getInt reads an integer variable with a fallback. Unparsable values fall
// back silently; Validate catches out-of-range results.
func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}

	return n
}

// getMillis reads a millisecond-valued variable as a duration.
func getMillis(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}

	return time.Duration(n) * time.Millisecond
}

// getBool reads a boolean variable with a fallback.
func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}

	return b
}
