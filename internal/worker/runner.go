// Package worker executes enrichment jobs: a Runner fans one job's sites
// out under the configured concurrency, and a Pool consumes jobs from the
// broker with graceful drain.
package worker

import (
	"context"
	"sync"

	"github.com/jonesrussell/contactcrawl/internal/domain"
	"github.com/jonesrussell/contactcrawl/internal/logger"
)

// SiteCrawler enriches one site and builds its records.
type SiteCrawler interface {
	CrawlSite(ctx context.Context, site domain.Site, cfg domain.CrawlConfig) *domain.SiteResult
	Records(ctx context.Context, result *domain.SiteResult, cfg domain.CrawlConfig) []domain.ContactRecord
}

// ProgressFunc receives a snapshot after every completed site.
type ProgressFunc func(p domain.JobProgress)

// siteOutcome holds one site's contribution, indexed by site order so the
// assembled result is stable regardless of completion order.
type siteOutcome struct {
	host    string
	records []domain.ContactRecord
	errors  []domain.SiteError
}

// Runner executes one job at a time. Sites within the job run concurrently
// up to the job's configured concurrency.
type Runner struct {
	crawler SiteCrawler
	log     logger.Logger
}

// NewRunner creates a Runner.
func NewRunner(crawler SiteCrawler, log logger.Logger) *Runner {
	if log == nil {
		log = logger.Nop()
	}
	return &Runner{crawler: crawler, log: log}
}

// Run crawls the job's sites and assembles the result envelope. Site
// failures ride alongside records and never abort the job. When ctx is
// cancelled mid-job no further sites are scheduled, sites already in
// flight run to completion on a detached context, and the partial result
// comes back with the context's error so the caller can leave the job to
// the broker's redelivery.
func (r *Runner) Run(ctx context.Context, job *domain.Job, onProgress ProgressFunc) (*domain.JobResult, error) {
	cfg := job.Config.Clamp()
	total := len(job.Sites)
	outcomes := make([]siteOutcome, total)

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		processed int
		found     int
	)

	siteCtx := context.WithoutCancel(ctx)
	sem := make(chan struct{}, cfg.Concurrency)

	scheduled := 0
	for i, site := range job.Sites {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
		scheduled++

		wg.Add(1)
		go func(i int, site domain.Site) {
			defer wg.Done()
			defer func() { <-sem }()

			result := r.crawler.CrawlSite(siteCtx, site, cfg)
			records := r.crawler.Records(siteCtx, result, cfg)

			outcome := siteOutcome{host: site.Host, records: records}
			if len(result.Errors) > 0 {
				outcome.errors = result.Errors
			}

			mu.Lock()
			outcomes[i] = outcome
			processed++
			found += len(records)

			progress := domain.JobProgress{
				Percentage: processed * 100 / total,
				Current:    site.Host,
				Processed:  processed,
				Total:      total,
				Found:      found,
			}

			// Published under the lock so snapshots cannot arrive out of
			// order and regress the stored percentage.
			if onProgress != nil {
				onProgress(progress)
			}
			mu.Unlock()
		}(i, site)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return assembleResult(outcomes[:scheduled]), err
	}

	return assembleResult(outcomes), nil
}

// assembleResult flattens per-site outcomes in site order and computes the
// job statistics.
func assembleResult(outcomes []siteOutcome) *domain.JobResult {
	result := &domain.JobResult{}

	totalErrors := 0
	for _, o := range outcomes {
		result.Records = append(result.Records, o.records...)

		if len(o.errors) > 0 {
			result.Errors = append(result.Errors, domain.HostErrors{
				Host:   o.host,
				Errors: o.errors,
			})
			totalErrors += len(o.errors)
		}
	}

	result.Stats = domain.JobStats{
		TotalSites:   len(outcomes),
		TotalRecords: len(result.Records),
		TotalErrors:  totalErrors,
	}

	if len(outcomes) > 0 {
		result.Stats.AvgRecordsPerSite = float64(len(result.Records)) / float64(len(outcomes))
	}

	return result
}
