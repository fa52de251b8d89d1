package config_test

import (
	"testing"
	"time"

	"github.com/jonesrussell/contactcrawl/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.BotName != config.DefaultBotName {
		t.Errorf("BotName = %q, want %q", cfg.BotName, config.DefaultBotName)
	}

	if cfg.RequestTimeout != 12*time.Second {
		t.Errorf("RequestTimeout = %s, want 12s", cfg.RequestTimeout)
	}

	if cfg.GlobalConcurrency != 8 {
		t.Errorf("GlobalConcurrency = %d, want 8", cfg.GlobalConcurrency)
	}

	if !cfg.EnableCache {
		t.Error("EnableCache should default to true")
	}

	if cfg.EnableMXCheck {
		t.Error("EnableMXCheck should default to false")
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT_MS", "3000")
	t.Setenv("GLOBAL_CONCURRENCY", "2")
	t.Setenv("ENABLE_MX_CHECK", "true")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.RequestTimeout != 3*time.Second {
		t.Errorf("RequestTimeout = %s, want 3s", cfg.RequestTimeout)
	}

	if cfg.GlobalConcurrency != 2 {
		t.Errorf("GlobalConcurrency = %d, want 2", cfg.GlobalConcurrency)
	}

	if !cfg.EnableMXCheck {
		t.Error("EnableMXCheck should be true")
	}
}

func TestLoad_RejectsInvalidConcurrency(t *testing.T) {
	t.Setenv("GLOBAL_CONCURRENCY", "0")

	if _, err := config.Load(); err == nil {
		t.Fatal("expected validation error for GLOBAL_CONCURRENCY=0")
	}
}

func TestLoad_UnparsableIntFallsBack(t *testing.T) {
	t.Setenv("MAX_RETRIES", "many")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.MaxRetries != config.DefaultMaxRetries {
		t.Errorf("MaxRetries = %d, want default %d", cfg.MaxRetries, config.DefaultMaxRetries)
	}
}
