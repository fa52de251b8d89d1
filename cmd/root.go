// Package cmd wires the contactcrawl CLI: a one-shot crawl command, the
// queue worker, and a batch enqueuer.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonesrussell/contactcrawl/internal/config"
	"github.com/jonesrussell/contactcrawl/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "contactcrawl",
	Short: "Polite contact-enrichment crawler for company websites",
	Long: `contactcrawl visits a bounded set of candidate pages per company
website, extracts email addresses, phone numbers and social profiles,
scores them, and emits structured contact records.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("log-level", "", "minimum log level (debug, info, warn, error)")
	flags.String("redis-url", "", "Redis address for cache and queue")

	cobra.CheckErr(viper.BindPFlag("log_level", flags.Lookup("log-level")))
	cobra.CheckErr(viper.BindPFlag("redis_url", flags.Lookup("redis-url")))
	cobra.CheckErr(viper.BindEnv("log_level", "LOG_LEVEL"))
	cobra.CheckErr(viper.BindEnv("redis_url", "REDIS_URL"))

	rootCmd.AddCommand(newCrawlCommand())
	rootCmd.AddCommand(newWorkerCommand())
	rootCmd.AddCommand(newEnqueueCommand())
}

// loadRuntime loads configuration, applies CLI overrides and builds the
// logger.
func loadRuntime() (*config.Config, logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	if v := viper.GetString("log_level"); v != "" {
		cfg.LogLevel = v
	}
	if v := viper.GetString("redis_url"); v != "" {
		cfg.RedisURL = v
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}

	return cfg, log, nil
}
