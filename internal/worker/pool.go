package worker

import (
	"context"
	"sync"
	"time"

	"github.com/jonesrussell/contactcrawl/internal/audit"
	"github.com/jonesrussell/contactcrawl/internal/domain"
	"github.com/jonesrussell/contactcrawl/internal/logger"
	"github.com/jonesrussell/contactcrawl/internal/metrics"
	"github.com/jonesrussell/contactcrawl/internal/queue"
)

// readErrorBackoff is the pause after a failed broker read.
const readErrorBackoff = time.Second

// JobSource supplies jobs from the broker.
type JobSource interface {
	Read(ctx context.Context) ([]*queue.ConsumedJob, error)
	Acknowledge(ctx context.Context, job *queue.ConsumedJob) error
}

// ProgressSink receives progress snapshots and final results.
type ProgressSink interface {
	SetProgress(ctx context.Context, jobID string, p domain.JobProgress) error
	SaveResult(ctx context.Context, jobID string, result *domain.JobResult) error
}

// Auditor records completed site crawls.
type Auditor interface {
	Record(entry audit.Entry) error
}

// Deps wires the pool's collaborators. Sink, Auditor and Metrics may be
// nil.
type Deps struct {
	Runner  *Runner
	Source  JobSource
	Sink    ProgressSink
	Auditor Auditor
	Metrics *metrics.Metrics
	Logger  logger.Logger
}

// Pool consumes jobs with a fixed number of workers. On context
// cancellation the workers stop reading, finish only the sites already in
// flight, and leave interrupted jobs unacknowledged so they return to
// other consumers via pending-entry reclaim.
type Pool struct {
	deps        Deps
	concurrency int
}

// NewPool creates a Pool with the given worker count.
func NewPool(deps Deps, concurrency int) *Pool {
	if concurrency < 1 {
		concurrency = 1
	}

	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}

	return &Pool{deps: deps, concurrency: concurrency}
}

// Run blocks until ctx is cancelled and every worker has drained.
func (p *Pool) Run(ctx context.Context) {
	var wg sync.WaitGroup

	for i := range p.concurrency {
		wg.Add(1)

		go func(id int) {
			defer wg.Done()
			p.worker(ctx, id)
		}(i)
	}

	wg.Wait()
}

// worker loops reading and processing jobs until the context is cancelled.
func (p *Pool) worker(ctx context.Context, id int) {
	log := p.deps.Logger.With(logger.Int("worker", id))
	log.Info("worker started")

	for {
		if ctx.Err() != nil {
			log.Info("worker draining")
			return
		}

		jobs, err := p.deps.Source.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("worker draining")
				return
			}

			log.Warn("broker read failed", logger.Error(err))

			select {
			case <-time.After(readErrorBackoff):
			case <-ctx.Done():
			}
			continue
		}

		for _, job := range jobs {
			p.processJob(ctx, log, job)
		}
	}
}

// processJob runs one job. If cancellation interrupts the job, the sites
// already in flight finish, the job stays unacknowledged, and the broker
// redelivers it once it has idled long enough.
func (p *Pool) processJob(ctx context.Context, log logger.Logger, consumed *queue.ConsumedJob) {
	job := consumed.Job

	// Broker and sink writes must survive cancellation during a drain.
	writeCtx := context.WithoutCancel(ctx)

	log.Info("job started",
		logger.String("jobId", job.ID),
		logger.Int("sites", len(job.Sites)),
		logger.Int64("delivery", consumed.Deliveries),
	)

	if p.deps.Metrics != nil {
		p.deps.Metrics.JobStarted()
		defer p.deps.Metrics.JobFinished()
	}

	result, runErr := p.deps.Runner.Run(ctx, job, func(progress domain.JobProgress) {
		if p.deps.Sink == nil {
			return
		}
		if err := p.deps.Sink.SetProgress(writeCtx, job.ID, progress); err != nil {
			log.Warn("progress write failed", logger.Error(err))
		}
	})

	if runErr != nil {
		log.Warn("job interrupted, left for redelivery",
			logger.String("jobId", job.ID),
			logger.Int("sitesDone", result.Stats.TotalSites),
		)
		return
	}

	if p.deps.Sink != nil {
		if err := p.deps.Sink.SaveResult(writeCtx, job.ID, result); err != nil {
			log.Error("result write failed", logger.String("jobId", job.ID), logger.Error(err))
		}
	}

	p.auditJob(job, result)

	if err := p.deps.Source.Acknowledge(writeCtx, consumed); err != nil {
		log.Warn("acknowledge failed", logger.String("jobId", job.ID), logger.Error(err))
	}

	log.Info("job finished",
		logger.String("jobId", job.ID),
		logger.Int("records", result.Stats.TotalRecords),
		logger.Int("errors", result.Stats.TotalErrors),
	)
}

// auditJob writes one audit entry per site in the job.
func (p *Pool) auditJob(job *domain.Job, result *domain.JobResult) {
	if p.deps.Auditor == nil {
		return
	}

	counts := make(map[string]int, len(job.Sites))
	for _, record := range result.Records {
		counts[record.Domain]++
	}

	for _, site := range job.Sites {
		entry := audit.Entry{
			JobID:        job.ID,
			Host:         site.Host,
			RecordsFound: counts[site.Host],
			User:         job.Config.User,
		}

		if err := p.deps.Auditor.Record(entry); err != nil {
			p.deps.Logger.Warn("audit write failed",
				logger.String("host", site.Host),
				logger.Error(err),
			)
		}
	}
}
