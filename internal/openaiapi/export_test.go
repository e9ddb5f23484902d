package openaiapi

import (
	"context"
	"time"
)

// NoSleep disables backoff waits so retry tests run instantly.
func NoSleep(c *Client) *Client {
	c.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	return c
}

var RetryDelay = retryDelay
