package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/contactcrawl/internal/audit"
	"github.com/jonesrussell/contactcrawl/internal/domain"
	"github.com/jonesrussell/contactcrawl/internal/egress"
	"github.com/jonesrussell/contactcrawl/internal/ingress"
	"github.com/jonesrussell/contactcrawl/internal/logger"
	"github.com/jonesrussell/contactcrawl/internal/worker"
)

// newCrawlCommand builds the one-shot CSV-in, CSV-out crawl command.
func newCrawlCommand() *cobra.Command {
	var (
		inputPath   string
		outputPath  string
		maxPages    int
		concurrency int
		tags        string
		user        string
		dncDomains  []string
	)

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl a CSV batch of websites and write contact records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadRuntime()
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			input, err := os.Open(inputPath)
			if err != nil {
				return fmt.Errorf("open input: %w", err)
			}
			defer input.Close()

			batch, err := ingress.Parse(input)
			if err != nil {
				return err
			}

			for _, rejection := range batch.Rejections {
				log.Warn("row rejected",
					logger.Int("row", rejection.Row),
					logger.String("website", rejection.Website),
					logger.String("reason", rejection.Reason),
				)
			}

			if len(batch.Sites) == 0 {
				return fmt.Errorf("no crawlable sites in %s", inputPath)
			}

			var redisClient *redis.Client
			if cfg.EnableCache {
				client, err := connectRedis(ctx, cfg.RedisURL)
				if err != nil {
					log.Warn("redis unavailable, crawling without cache", logger.Error(err))
				} else {
					redisClient = client
					defer client.Close()
				}
			}

			auditLog, err := audit.Open(cfg.AuditLogPath)
			if err != nil {
				return err
			}
			defer auditLog.Close()

			siteCrawler := buildCrawler(cfg, log, nil, redisClient, dncDomains)
			runner := worker.NewRunner(siteCrawler, log)

			job := &domain.Job{
				ID:    uuid.NewString(),
				Sites: batch.Sites,
				Config: domain.CrawlConfig{
					MaxPages:    maxPages,
					Concurrency: concurrency,
					Tags:        tags,
					User:        user,
				},
			}

			log.Info("crawl started",
				logger.String("jobId", job.ID),
				logger.Int("sites", len(job.Sites)),
				logger.Int("rejected", len(batch.Rejections)),
			)

			result, runErr := runner.Run(ctx, job, func(p domain.JobProgress) {
				log.Info("progress",
					logger.Int("percentage", p.Percentage),
					logger.String("current", p.Current),
					logger.Int("found", p.Found),
				)
			})

			if runErr != nil {
				log.Warn("crawl interrupted, writing partial results",
					logger.Int("sitesDone", result.Stats.TotalSites),
					logger.Int("sitesTotal", len(job.Sites)),
				)
			} else {
				auditSites(auditLog, log, job, result)
			}

			output, err := os.Create(outputPath)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			defer output.Close()

			if err := egress.WriteCSV(output, result.Records); err != nil {
				return err
			}

			egress.WriteSummary(os.Stdout, result)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&inputPath, "input", "i", "", "input CSV file (required)")
	flags.StringVarP(&outputPath, "output", "o", "contacts.csv", "output CSV file")
	flags.IntVar(&maxPages, "max-pages", 0, "candidate pages per site (1-10)")
	flags.IntVar(&concurrency, "concurrency", 0, "sites crawled in parallel (1-8)")
	flags.StringVar(&tags, "tags", "", "label attached to emitted records")
	flags.StringVar(&user, "user", "", "requesting user, recorded in the audit log")
	flags.StringSliceVar(&dncDomains, "dnc", nil, "do-not-contact domains")
	cobra.CheckErr(cmd.MarkFlagRequired("input"))

	return cmd
}

// auditSites writes one audit entry per site of a finished job.
func auditSites(auditLog *audit.Log, log logger.Logger, job *domain.Job, result *domain.JobResult) {
	counts := make(map[string]int, len(job.Sites))
	for _, record := range result.Records {
		counts[record.Domain]++
	}

	for _, site := range job.Sites {
		err := auditLog.Record(audit.Entry{
			JobID:        job.ID,
			Host:         site.Host,
			RecordsFound: counts[site.Host],
			User:         job.Config.User,
		})
		if err != nil {
			log.Warn("audit write failed", logger.String("host", site.Host), logger.Error(err))
		}
	}
}
