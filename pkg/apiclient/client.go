package apiclient

import (
	"context"
	"log"
	"time"
)

// Client wraps provider calls with rate limiting and bounded retry.
// The limiter is injected so callers can share one across sources or
// swap it out entirely in tests.
type Client struct {
	limiter     Limiter
	maxAttempts int
	backoff     func(ctx context.Context, attempt int) error
}

func NewClient(limiter Limiter) *Client {
	if limiter == nil {
		limiter = NewWindowLimiter(nil)
	}
	return &Client{
		limiter:     limiter,
		maxAttempts: 3,
		backoff:     defaultBackoff,
	}
}

func defaultBackoff(ctx context.Context, attempt int) error {
	// 2s, 4s, 8s...
	return sleepCtx(ctx, time.Duration(1<<attempt)*2*time.Second)
}

// Do runs fn under the limiter, retrying failures up to three attempts
// with exponential backoff. Only auth and cursor errors return
// immediately; retrying those wastes quota and cannot succeed.
func (c *Client) Do(ctx context.Context, userID, source string, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx, userID, source); err != nil {
			return err
		}
		err := fn()
		if err == nil {
			return nil
		}
		if IsAuthError(err) || IsCursorInvalid(err) {
			return err
		}
		lastErr = err
		if attempt < c.maxAttempts-1 {
			log.Printf("[APIClient] %s call failed (attempt %d/%d), retrying: %v", source, attempt+1, c.maxAttempts, err)
			if berr := c.backoff(ctx, attempt); berr != nil {
				return berr
			}
		}
	}
	return lastErr
}
