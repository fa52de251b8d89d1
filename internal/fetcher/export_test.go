package fetcher

import (
	"context"
	"time"
)

// SetSleep replaces the backoff sleep in tests.
func (f *Fetcher) SetSleep(fn func(context.Context, time.Duration) error) {
	f.sleep = fn
}
