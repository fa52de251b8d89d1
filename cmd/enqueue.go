package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/contactcrawl/internal/domain"
	"github.com/jonesrussell/contactcrawl/internal/ingress"
	"github.com/jonesrussell/contactcrawl/internal/logger"
	"github.com/jonesrussell/contactcrawl/internal/queue"
)

// newEnqueueCommand builds the command that pushes a CSV batch onto the
// job queue for workers to pick up.
func newEnqueueCommand() *cobra.Command {
	var (
		inputPath   string
		maxPages    int
		concurrency int
		tags        string
		user        string
	)

	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Enqueue a CSV batch as an enrichment job",
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

			redisClient, err := connectRedis(ctx, cfg.RedisURL)
			if err != nil {
				return fmt.Errorf("connect to redis at %s: %w", cfg.RedisURL, err)
			}
			defer redisClient.Close()

			streams := queue.NewStreamsClientFromRedis(redisClient, "")
			producer := queue.NewProducer(streams, 0)

			job := &domain.Job{
				Sites: batch.Sites,
				Config: domain.CrawlConfig{
					MaxPages:    maxPages,
					Concurrency: concurrency,
					Tags:        tags,
					User:        user,
				},
			}

			messageID, err := producer.Enqueue(ctx, job)
			if err != nil {
				return err
			}

			log.Info("job enqueued",
				logger.String("jobId", job.ID),
				logger.String("messageId", messageID),
				logger.Int("sites", len(job.Sites)),
				logger.Int("rejected", len(batch.Rejections)),
			)

			fmt.Fprintln(cmd.OutOrStdout(), job.ID)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&inputPath, "input", "i", "", "input CSV file (required)")
	flags.IntVar(&maxPages, "max-pages", 0, "candidate pages per site (1-10)")
	flags.IntVar(&concurrency, "concurrency", 0, "sites crawled in parallel (1-8)")
	flags.StringVar(&tags, "tags", "", "label attached to emitted records")
	flags.StringVar(&user, "user", "", "requesting user, recorded in the audit log")
	cobra.CheckErr(cmd.MarkFlagRequired("input"))

	return cmd
}
