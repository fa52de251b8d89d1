// Package ratelimit schedules fetch tasks through two composed layers: a
// global admission limiter shared by all hosts, and a lazily created
// per-host limiter enforcing single-flight access with minimum spacing and
// a burst budget.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Layer defaults, overridable through Config.
const (
	DefaultGlobalConcurrency = 8
	DefaultGlobalMinTime     = 50 * time.Millisecond
	DefaultPerHostConcurrent = 1
	DefaultPerHostMinTime    = time.Second

	// The per-host burst bucket: 10 tokens refilling over 60 seconds.
	burstTokens     = 10
	burstRefillSpan = 60 * time.Second

	// Failed tasks are retried up to twice with a fixed delay.
	taskRetries           = 2
	DefaultTaskRetryDelay = 2 * time.Second
)

// Config tunes both limiter layers.
type Config struct {
	// GlobalConcurrency caps tasks in flight across all hosts.
	GlobalConcurrency int
	// GlobalMinTime is the minimum spacing between global admissions.
	GlobalMinTime time.Duration
	// PerHostConcurrent caps tasks in flight against one host.
	PerHostConcurrent int
	// PerHostMinTime is the minimum spacing between per-host admissions.
	PerHostMinTime time.Duration
	// RetryDelay is the fixed wait between attempts of a failed task.
	RetryDelay time.Duration
}

// withDefaults fills zero values.
func (c Config) withDefaults() Config {
	if c.GlobalConcurrency <= 0 {
		c.GlobalConcurrency = DefaultGlobalConcurrency
	}
	if c.GlobalMinTime <= 0 {
		c.GlobalMinTime = DefaultGlobalMinTime
	}
	if c.PerHostConcurrent <= 0 {
		c.PerHostConcurrent = DefaultPerHostConcurrent
	}
	if c.PerHostMinTime <= 0 {
		c.PerHostMinTime = DefaultPerHostMinTime
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultTaskRetryDelay
	}
	return c
}

// Limiter admits tasks only when both the global and the per-host layer
// allow them. Host limiters are created on demand and never evicted.
type Limiter struct {
	cfg Config

	globalSlots   chan struct{}
	globalSpacing *rate.Limiter

	mu    sync.Mutex
	hosts map[string]*hostLimiter
}

// hostLimiter is the inner layer for a single host.
type hostLimiter struct {
	slots   chan struct{}
	spacing *rate.Limiter
	bucket  *rate.Limiter
}

// New creates a Limiter.
func New(cfg Config) *Limiter {
	cfg = cfg.withDefaults()

	return &Limiter{
		cfg:           cfg,
		globalSlots:   make(chan struct{}, cfg.GlobalConcurrency),
		globalSpacing: rate.NewLimiter(rate.Every(cfg.GlobalMinTime), 1),
		hosts:         make(map[string]*hostLimiter),
	}
}

// Do runs fn once both layers admit it. The per-host layer is acquired
// inside the global slot and released first. A failing fn is retried up to
// twice with a fixed delay, unless the error marks itself non-retryable;
// slots are released between attempts so other hosts are not starved
// during the wait.
func (l *Limiter) Do(ctx context.Context, host string, fn func(ctx context.Context) error) error {
	var err error

	for attempt := 0; ; attempt++ {
		err = l.doOnce(ctx, host, fn)
		if err == nil || attempt >= taskRetries || !retryable(err) {
			return err
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		select {
		case <-time.After(l.cfg.RetryDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// retryable reports whether a task failure may be repeated. Errors that
// carry Retryable() false, like client-side fetch statuses, fail the task
// on the first attempt.
func retryable(err error) bool {
	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return true
}

// doOnce performs a single admission cycle and fn invocation.
func (l *Limiter) doOnce(ctx context.Context, host string, fn func(ctx context.Context) error) error {
	if err := l.globalSpacing.Wait(ctx); err != nil {
		return err
	}

	select {
	case l.globalSlots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-l.globalSlots }()

	h := l.host(host)

	if err := h.spacing.Wait(ctx); err != nil {
		return err
	}

	if err := h.bucket.Wait(ctx); err != nil {
		return err
	}

	select {
	case h.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-h.slots }()

	return fn(ctx)
}

// host returns the limiter for a host, creating it on first use.
func (l *Limiter) host(host string) *hostLimiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if h, ok := l.hosts[host]; ok {
		return h
	}

	h := &hostLimiter{
		slots:   make(chan struct{}, l.cfg.PerHostConcurrent),
		spacing: rate.NewLimiter(rate.Every(l.cfg.PerHostMinTime), 1),
		bucket:  rate.NewLimiter(rate.Every(burstRefillSpan/burstTokens), burstTokens),
	}
	l.hosts[host] = h

	return h
}

// HostCount reports how many per-host limiters exist. Used by metrics.
func (l *Limiter) HostCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.hosts)
}
