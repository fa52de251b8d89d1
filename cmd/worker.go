package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/contactcrawl/internal/audit"
	"github.com/jonesrussell/contactcrawl/internal/logger"
	"github.com/jonesrussell/contactcrawl/internal/metrics"
	"github.com/jonesrussell/contactcrawl/internal/queue"
	"github.com/jonesrussell/contactcrawl/internal/worker"
)

// serverShutdownTimeout bounds the health server drain on exit.
const serverShutdownTimeout = 5 * time.Second

// newWorkerCommand builds the queue-consuming worker command.
func newWorkerCommand() *cobra.Command {
	var dncDomains []string

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Consume enrichment jobs from the queue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadRuntime()
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			redisClient, err := connectRedis(ctx, cfg.RedisURL)
			if err != nil {
				return fmt.Errorf("connect to redis at %s: %w", cfg.RedisURL, err)
			}
			defer redisClient.Close()

			streams := queue.NewStreamsClientFromRedis(redisClient, "")

			consumer, err := queue.NewConsumer(streams, queue.ConsumerConfig{
				ConsumerID: "worker-" + uuid.NewString(),
			}, log)
			if err != nil {
				return err
			}

			if err := consumer.Initialize(ctx); err != nil {
				return err
			}

			auditLog, err := audit.Open(cfg.AuditLogPath)
			if err != nil {
				return err
			}
			defer auditLog.Close()

			m := metrics.New(prometheus.DefaultRegisterer)

			cacheClient := redisClient
			if !cfg.EnableCache {
				cacheClient = nil
			}

			siteCrawler := buildCrawler(cfg, log, m, cacheClient, dncDomains)

			pool := worker.NewPool(worker.Deps{
				Runner:  worker.NewRunner(siteCrawler, log),
				Source:  consumer,
				Sink:    queue.NewProgressStore(streams),
				Auditor: auditLog,
				Metrics: m,
				Logger:  log,
			}, cfg.WorkerConcurrency)

			server := newHealthServer(cfg.MetricsAddress, streams)

			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("health server failed", logger.Error(err))
				}
			}()

			log.Info("worker running",
				logger.Int("concurrency", cfg.WorkerConcurrency),
				logger.String("metrics", cfg.MetricsAddress),
			)

			pool.Run(ctx)

			shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Warn("health server shutdown failed", logger.Error(err))
			}

			log.Info("worker stopped")
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&dncDomains, "dnc", nil, "do-not-contact domains")

	return cmd
}

// newHealthServer builds the gin server exposing health and metrics.
func newHealthServer(addr string, streams *queue.StreamsClient) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		if err := streams.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "degraded",
				"redis":  err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
