// Package robots fetches, parses and caches robots.txt policies per origin,
// exposing the user-agent scoped allow decision and crawl-delay.
package robots

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// defaultCacheTTL is how long a parsed policy stays valid per origin.
const defaultCacheTTL = time.Hour

// fetchTimeout bounds a single robots.txt request.
const fetchTimeout = 5 * time.Second

// robotsTxtPath is the well-known path for robots.txt files.
const robotsTxtPath = "/robots.txt"

// maxBodyBytes limits the size of robots.txt responses we will read.
const maxBodyBytes = 512 * 1024 // 512 KB

// Decision is the outcome of a robots check.
type Decision struct {
	// Allowed reports whether the URL may be fetched.
	Allowed bool
	// CrawlDelay is the requested minimum interval between requests,
	// zero if the policy does not specify one.
	CrawlDelay time.Duration
}

// Cache checks URLs against cached robots.txt policies. Any failure along
// the way degrades to a permissive decision.
type Cache struct {
	httpClient *http.Client
	userAgent  string
	cacheTTL   time.Duration

	mu      sync.RWMutex
	entries map[string]*cacheEntry // keyed by origin
}

// cacheEntry stores a parsed policy and its fetch time for one origin.
type cacheEntry struct {
	data      *robotstxt.RobotsData
	fetchedAt time.Time
	allowAll  bool // robots.txt missing, errored or unparsable
}

// New creates a robots Cache for the given user agent.
func New(httpClient *http.Client, userAgent string, cacheTTL time.Duration) *Cache {
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: fetchTimeout}
	}

	return &Cache{
		httpClient: httpClient,
		userAgent:  userAgent,
		cacheTTL:   cacheTTL,
		entries:    make(map[string]*cacheEntry),
	}
}

// Check resolves the allow decision and crawl-delay for a URL. Unparsable
// URLs, fetch errors and malformed policies all yield a permissive
// Decision; only an explicit Disallow for our agent blocks.
func (c *Cache) Check(ctx context.Context, rawURL string) Decision {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return Decision{Allowed: true}
	}

	origin := parsed.Scheme + "://" + strings.ToLower(parsed.Host)
	entry := c.getOrFetch(ctx, origin)

	if entry.allowAll || entry.data == nil {
		return Decision{Allowed: true}
	}

	group := entry.data.FindGroup(c.userAgent)

	decision := Decision{
		Allowed: entry.data.TestAgent(parsed.Path, c.userAgent),
	}
	if group != nil {
		decision.CrawlDelay = group.CrawlDelay
	}

	return decision
}

// getOrFetch returns a fresh cached entry or fetches and caches one.
func (c *Cache) getOrFetch(ctx context.Context, origin string) *cacheEntry {
	c.mu.RLock()
	entry, ok := c.entries[origin]
	c.mu.RUnlock()

	if ok && time.Since(entry.fetchedAt) <= c.cacheTTL {
		return entry
	}

	return c.fetchAndCache(ctx, origin)
}

// fetchAndCache fetches robots.txt for the origin and caches the outcome.
func (c *Cache) fetchAndCache(ctx context.Context, origin string) *cacheEntry {
	entry := c.fetch(ctx, origin)

	c.mu.Lock()
	c.entries[origin] = entry
	c.mu.Unlock()

	return entry
}

// fetch performs the robots.txt request and parses the response. Every
// failure mode returns an allow-all entry.
func (c *Cache) fetch(ctx context.Context, origin string) *cacheEntry {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+robotsTxtPath, http.NoBody)
	if err != nil {
		return &cacheEntry{fetchedAt: time.Now(), allowAll: true}
	}

	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &cacheEntry{fetchedAt: time.Now(), allowAll: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &cacheEntry{fetchedAt: time.Now(), allowAll: true}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &cacheEntry{fetchedAt: time.Now(), allowAll: true}
	}

	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return &cacheEntry{fetchedAt: time.Now(), allowAll: true}
	}

	return &cacheEntry{data: data, fetchedAt: time.Now()}
}
