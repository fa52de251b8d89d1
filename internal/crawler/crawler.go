// Package crawler runs the per-site crawl state machine: candidate page
// selection, the per-URL safety pipeline, and aggregation of everything
// the extractors find into one SiteResult.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonesrussell/contactcrawl/internal/captcha"
	"github.com/jonesrussell/contactcrawl/internal/domain"
	"github.com/jonesrussell/contactcrawl/internal/email"
	"github.com/jonesrussell/contactcrawl/internal/extract"
	"github.com/jonesrussell/contactcrawl/internal/logger"
	"github.com/jonesrussell/contactcrawl/internal/metrics"
	"github.com/jonesrussell/contactcrawl/internal/robots"
	"github.com/jonesrussell/contactcrawl/internal/suppress"
)

// ErrRobotsDisallow marks a URL our agent may not fetch.
var ErrRobotsDisallow = errors.New("blocked by robots.txt")

// candidatePaths are tried in order, relative to the site root. The empty
// path is the root page itself.
var candidatePaths = []string{
	"",
	"/kontakt",
	"/kontakta-oss",
	"/om",
	"/om-oss",
	"/about",
	"/contact",
}

// Gate validates a URL before any network contact.
type Gate interface {
	Check(ctx context.Context, rawURL string) error
}

// RobotsChecker resolves the robots.txt decision for a URL.
type RobotsChecker interface {
	Check(ctx context.Context, rawURL string) robots.Decision
}

// TaskLimiter admits fetch tasks under the politeness limits.
type TaskLimiter interface {
	Do(ctx context.Context, host string, fn func(ctx context.Context) error) error
}

// PageCache memoizes crawl results per URL.
type PageCache interface {
	Get(ctx context.Context, url string) (*domain.PageResult, bool)
	Set(ctx context.Context, url string, result *domain.PageResult)
}

// PageFetcher retrieves a page's HTML.
type PageFetcher interface {
	FetchHTML(ctx context.Context, rawURL string) (string, error)
}

// MXValidator reports whether an email's domain accepts mail.
type MXValidator interface {
	Check(ctx context.Context, email string) bool
}

// Deps wires the crawler's collaborators. Metrics, Cache, DNC, TOS and MX
// may be nil; the corresponding step degrades to a no-op.
type Deps struct {
	Gate    Gate
	Robots  RobotsChecker
	Limiter TaskLimiter
	Cache   PageCache
	Fetcher PageFetcher
	MX      MXValidator
	DNC     *suppress.DNCList
	TOS     *suppress.TOSList
	Metrics *metrics.Metrics
	Logger  logger.Logger
}

// Crawler enriches one site at a time. Safe for concurrent use across
// sites; its collaborators carry the shared rate limits.
type Crawler struct {
	deps    Deps
	between time.Duration
	mxOn    bool
	sleep   func(context.Context, time.Duration) error
}

// New creates a Crawler. between is the politeness sleep applied before
// each fetch, raised to the host's crawl-delay when robots.txt asks for
// more.
func New(deps Deps, between time.Duration) *Crawler {
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}

	return &Crawler{
		deps:    deps,
		between: between,
		mxOn:    deps.MX != nil,
		sleep:   sleepCtx,
	}
}

// CrawlSite runs the full state machine for one site and returns its
// aggregate. Page-level failures are recorded on the result and never
// abort the site; only suppression and context cancellation stop early.
func (c *Crawler) CrawlSite(ctx context.Context, site domain.Site, cfg domain.CrawlConfig) *domain.SiteResult {
	cfg = cfg.Clamp()
	result := domain.NewSiteResult(site)

	if c.deps.DNC != nil && c.deps.DNC.Has(site.Host) {
		result.RecordError("", suppress.DNCReason)
		c.deps.Logger.Info("site suppressed", logger.String("host", site.Host))
		return result
	}

	if c.deps.TOS != nil {
		if reason, hit := c.deps.TOS.Check(site.Host); hit {
			result.RecordError("", reason)
		}
	}

	for _, pageURL := range candidateURLs(site.RootURL, cfg.MaxPages) {
		if ctx.Err() != nil {
			result.RecordError(pageURL, ctx.Err().Error())
			break
		}

		page, err := c.crawlPage(ctx, pageURL, site.Host)
		if errors.Is(err, ErrRobotsDisallow) {
			// Respecting robots.txt is normal operation, not a failure.
			// The robots-blocked counter already accounts for it.
			c.deps.Logger.Debug("page disallowed", logger.String("url", pageURL))
			continue
		}
		if err != nil {
			result.RecordError(pageURL, err.Error())
			c.deps.Logger.Debug("page failed",
				logger.String("url", pageURL),
				logger.Error(err),
			)
			continue
		}

		result.SourcePages = append(result.SourcePages, pageURL)
		c.merge(result, page)
	}

	c.deps.Logger.Info("site crawled",
		logger.String("host", site.Host),
		logger.Int("pages", len(result.SourcePages)),
		logger.Int("emails", len(result.Emails)),
		logger.Int("phones", len(result.Phones)),
		logger.Int("errors", len(result.Errors)),
	)

	return result
}

// crawlPage runs the per-URL pipeline: cache, safe-URL gate, robots,
// politeness sleep, rate-limited fetch, captcha detection, extraction,
// cleaning, cache write-back.
func (c *Crawler) crawlPage(ctx context.Context, pageURL, host string) (*domain.PageResult, error) {
	if c.deps.Cache != nil {
		if page, ok := c.deps.Cache.Get(ctx, pageURL); ok {
			return page, nil
		}
	}

	if err := c.deps.Gate.Check(ctx, pageURL); err != nil {
		return nil, err
	}

	decision := c.deps.Robots.Check(ctx, pageURL)
	if !decision.Allowed {
		if c.deps.Metrics != nil {
			c.deps.Metrics.RecordRobotsBlocked(host)
		}
		return nil, ErrRobotsDisallow
	}

	if wait := maxDuration(c.between, decision.CrawlDelay); wait > 0 {
		if err := c.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}

	var html string
	err := c.deps.Limiter.Do(ctx, host, func(ctx context.Context) error {
		fetched, err := c.deps.Fetcher.FetchHTML(ctx, pageURL)
		if err != nil {
			return err
		}
		html = fetched
		return nil
	})
	if err != nil {
		return nil, err
	}

	if det := captcha.Detect(html); det.Skip {
		if c.deps.Metrics != nil {
			c.deps.Metrics.RecordRequest(metrics.StatusCaptcha, host)
		}
		return nil, errors.New(det.Reason)
	}

	evidence, err := extract.Page(pageURL, html)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	page := cleanEvidence(evidence)

	if c.deps.Cache != nil {
		c.deps.Cache.Set(ctx, pageURL, page)
	}

	return page, nil
}

// cleanEvidence turns raw extractor evidence into a cacheable PageResult:
// each email is cleaned and validated, and duplicates within the page keep
// only their first (highest-priority) sighting.
func cleanEvidence(ev *extract.Evidence) *domain.PageResult {
	page := &domain.PageResult{
		Phones:  ev.Phones,
		Socials: ev.Socials,
	}

	seen := make(map[string]struct{})
	for _, hit := range ev.Emails {
		cleaned, ok := email.Clean(hit.Email)
		if !ok {
			continue
		}

		if _, dup := seen[cleaned]; dup {
			continue
		}
		seen[cleaned] = struct{}{}

		hit.Email = cleaned
		page.Emails = append(page.Emails, hit)
	}

	return page
}

// merge folds one page's result into the site aggregate. An email is
// classified and scored on first sighting, which also pins its discovery
// path to the extractor that surfaced it; later sightings only append
// their source.
func (c *Crawler) merge(result *domain.SiteResult, page *domain.PageResult) {
	for _, hit := range page.Emails {
		info, ok := result.Emails[hit.Email]
		if !ok {
			emailType := email.Classify(hit.Email, result.Domain)
			score := email.Score(hit.Email, result.Domain, emailType)

			result.Emails[hit.Email] = &domain.EmailInfo{
				Type:          emailType,
				Confidence:    email.Confidence(score),
				Sources:       []string{hit.Source},
				DiscoveryPath: hit.Source,
			}

			if c.deps.Metrics != nil {
				c.deps.Metrics.RecordContact(metrics.ContactEmail)
			}

			continue
		}

		if !containsString(info.Sources, hit.Source) {
			info.Sources = append(info.Sources, hit.Source)
		}
	}

	for _, phone := range page.Phones {
		if _, ok := result.Phones[phone]; ok {
			continue
		}

		result.Phones[phone] = struct{}{}
		if c.deps.Metrics != nil {
			c.deps.Metrics.RecordContact(metrics.ContactPhone)
		}
	}

	before := result.Socials
	result.Socials.Adopt(page.Socials)
	if c.deps.Metrics != nil && result.Socials != before {
		c.deps.Metrics.RecordContact(metrics.ContactSocial)
	}
}

// candidateURLs builds the page list for a site, truncated to maxPages.
func candidateURLs(rootURL string, maxPages int) []string {
	n := len(candidatePaths)
	if maxPages < n {
		n = maxPages
	}

	urls := make([]string, 0, n)
	for _, path := range candidatePaths[:n] {
		urls = append(urls, rootURL+path)
	}

	return urls
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// sleepCtx sleeps for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
