// Package domain defines the value types shared across the crawl pipeline.
package domain

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Site identifies one company website to enrich.
type Site struct {
	// RootURL is scheme + "//" + host.
	RootURL string `json:"rootUrl"`
	// Host is lowercased and stripped of a leading "www." label.
	Host string `json:"host"`
	// CompanyName is the human-readable company name, may be empty.
	CompanyName string `json:"companyName"`
}

// NewSite normalizes a raw website value into a Site. Accepts bare hosts
// ("acme.se") as well as full URLs; non-HTTP(S) schemes are rejected.
func NewSite(rawURL, companyName string) (Site, error) {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return Site{}, fmt.Errorf("empty website value")
	}

	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return Site{}, fmt.Errorf("parse website %q: %w", rawURL, err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return Site{}, fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}

	host := strings.ToLower(parsed.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return Site{}, fmt.Errorf("no host in website %q", rawURL)
	}

	return Site{
		RootURL:     parsed.Scheme + "://" + host,
		Host:        host,
		CompanyName: strings.TrimSpace(companyName),
	}, nil
}

// maxTagsLen bounds the sanitized tags string.
const maxTagsLen = 100

// tagsSanitizer strips everything but word characters, commas, dashes and
// spaces from the tags value.
var tagsSanitizer = regexp.MustCompile(`[^\w,\- ]+`)

// CrawlConfig carries the per-job crawl tunables.
type CrawlConfig struct {
	// MaxPages is how many candidate pages to try per site, in [1,10].
	MaxPages int `json:"maxPages"`
	// Concurrency is how many sites may crawl in parallel, in [1,8].
	Concurrency int `json:"concurrency"`
	// Tags is a free-form label attached to emitted records.
	Tags string `json:"tags,omitempty"`
	// User identifies who requested the crawl, for the audit log.
	User string `json:"user,omitempty"`
}

// Clamp normalizes out-of-range values to the permitted bounds and
// sanitizes the tags string. Zero values adopt the defaults.
func (c CrawlConfig) Clamp() CrawlConfig {
	if c.MaxPages == 0 {
		c.MaxPages = 5
	}

	if c.Concurrency == 0 {
		c.Concurrency = 4
	}

	c.MaxPages = clamp(c.MaxPages, 1, 10)
	c.Concurrency = clamp(c.Concurrency, 1, 8)

	c.Tags = tagsSanitizer.ReplaceAllString(c.Tags, "")
	if len(c.Tags) > maxTagsLen {
		c.Tags = c.Tags[:maxTagsLen]
	}

	return c
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
