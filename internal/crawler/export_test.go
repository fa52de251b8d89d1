package crawler

import (
	"context"
	"time"
)

// SetSleep replaces the politeness sleep so tests do not wait.
func (c *Crawler) SetSleep(fn func(context.Context, time.Duration) error) {
	c.sleep = fn
}
