// Package fetcher performs polite HTTP page fetches with browser-like
// headers, bounded retries and typed failure classification.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonesrussell/contactcrawl/internal/logger"
	"github.com/jonesrussell/contactcrawl/internal/metrics"
)

// Failure kinds. The crawler records these on the site's error list and
// keeps going.
var (
	// ErrBlocked marks an HTTP 403 or 429 response.
	ErrBlocked = errors.New("blocked by server")
	// ErrNotFound marks an HTTP 404 response.
	ErrNotFound = errors.New("page not found")
	// ErrNonHTML marks a response whose content type is not text/html.
	ErrNonHTML = errors.New("response is not HTML")
	// ErrTimeout marks a request that exceeded its deadline.
	ErrTimeout = errors.New("request timed out")
)

// permanentError tags a failure that outer retry layers must not repeat.
type permanentError struct{ err error }

func (e *permanentError) Error() string   { return e.err.Error() }
func (e *permanentError) Unwrap() error   { return e.err }
func (e *permanentError) Retryable() bool { return false }

// DefaultTimeout bounds one page fetch.
const DefaultTimeout = 12 * time.Second

// DefaultMaxRetries is the 5xx retry budget.
const DefaultMaxRetries = 3

// Backoff parameters: min(baseDelay * 2^attempt, maxDelay) + rand(0, jitter).
const (
	baseDelay = time.Second
	maxDelay  = 8 * time.Second
	jitter    = time.Second
)

// maxBodyBytes limits the size of fetched page responses.
const maxBodyBytes = 10 * 1024 * 1024 // 10 MB

// acceptLanguage prioritizes Swedish content, matching the crawl targets.
const acceptLanguage = "sv-SE,sv;q=0.9,en;q=0.8"

// Config tunes the fetcher.
type Config struct {
	// UserAgent identifies the bot to crawled sites.
	UserAgent string
	// Timeout bounds one request, retries excluded.
	Timeout time.Duration
	// MaxRetries is the retry budget for 5xx responses.
	MaxRetries int
}

// Fetcher retrieves HTML pages.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
	maxRetries int
	metrics    *metrics.Metrics
	log        logger.Logger
	sleep      func(context.Context, time.Duration) error
}

// New creates a Fetcher. metrics may be nil.
func New(cfg Config, m *metrics.Metrics, log logger.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}

	if log == nil {
		log = logger.Nop()
	}

	return &Fetcher{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		userAgent:  cfg.UserAgent,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		metrics:    m,
		log:        log,
		sleep:      sleepCtx,
	}
}

// FetchHTML retrieves a page and returns its HTML body. 5xx responses are
// retried with exponential backoff and jitter; 4xx responses are not, and
// come back tagged so outer retry layers leave them alone.
func (f *Fetcher) FetchHTML(ctx context.Context, rawURL string) (string, error) {
	host := hostOf(rawURL)

	var lastErr error

	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			if err := f.sleep(ctx, backoffDelay(attempt-1)); err != nil {
				return "", err
			}
		}

		html, retryable, err := f.fetchOnce(ctx, rawURL, host)
		if err == nil {
			return html, nil
		}

		if !retryable {
			return "", &permanentError{err: err}
		}
		lastErr = err

		f.log.Debug("fetch retry",
			logger.String("url", rawURL),
			logger.Int("attempt", attempt+1),
			logger.Error(err),
		)
	}

	return "", lastErr
}

// fetchOnce performs a single GET. retryable is true only for 5xx and
// transient transport errors.
func (f *Fetcher) fetchOnce(ctx context.Context, rawURL, host string) (html string, retryable bool, err error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return "", false, fmt.Errorf("create request: %w", err)
	}

	f.setHeaders(req)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			f.record(metrics.StatusTimeout, host)
			return "", false, ErrTimeout
		}

		f.record(metrics.StatusError, host)
		return "", true, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		f.record(metrics.StatusBlocked, host)
		return "", false, fmt.Errorf("%w (HTTP %d)", ErrBlocked, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		f.record(metrics.StatusNotFound, host)
		return "", false, ErrNotFound
	case resp.StatusCode >= http.StatusInternalServerError:
		f.record(metrics.StatusError, host)
		return "", true, fmt.Errorf("server error: HTTP %d", resp.StatusCode)
	case resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices:
		f.record(metrics.StatusError, host)
		return "", false, fmt.Errorf("unexpected status: HTTP %d", resp.StatusCode)
	}

	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/html") {
		f.record(metrics.StatusNonHTML, host)
		return "", false, fmt.Errorf("%w (%s)", ErrNonHTML, ct)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		f.record(metrics.StatusError, host)
		return "", true, fmt.Errorf("read body: %w", err)
	}

	f.record(metrics.StatusSuccess, host)
	if f.metrics != nil {
		f.metrics.ObserveDuration(time.Since(start).Seconds())
	}

	return string(body), false, nil
}

// setHeaders applies the browser-like navigation header set.
func (f *Fetcher) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", acceptLanguage)
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "none")
	req.Header.Set("Sec-Fetch-User", "?1")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
}

// record counts a request outcome when metrics are wired.
func (f *Fetcher) record(status, host string) {
	if f.metrics != nil {
		f.metrics.RecordRequest(status, host)
	}
}

// backoffDelay computes the wait before retry number attempt+1.
func backoffDelay(attempt int) time.Duration {
	delay := baseDelay << attempt
	if delay > maxDelay {
		delay = maxDelay
	}

	return delay + time.Duration(rand.Int63n(int64(jitter)))
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

// isTimeout reports whether err is a deadline or transport timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// hostOf extracts the host label for metrics; falls back to the raw URL.
func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return rawURL
	}
	return parsed.Hostname()
}
