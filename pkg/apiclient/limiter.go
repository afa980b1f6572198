package apiclient

import (
	"context"
	"sync"
	"time"
)

// Limiter gates outbound provider calls per (userID, source). Wait
// blocks until a slot is available or the context is cancelled.
type Limiter interface {
	Wait(ctx context.Context, userID, source string) error
}

// DefaultLimits are requests per minute per user, per source.
var DefaultLimits = map[string]int{
	"gmail":    250,
	"calendar": 100,
	"hubspot":  110,
	"slack":    50,
}

type window struct {
	start time.Time
	count int
}

// WindowLimiter is a fixed one-minute window counter. When a window is
// exhausted it sleeps until the window resets instead of failing, which
// matches how the sync services pace themselves against provider quotas.
type WindowLimiter struct {
	mu      sync.Mutex
	limits  map[string]int
	windows map[string]*window
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
}

func NewWindowLimiter(limits map[string]int) *WindowLimiter {
	if limits == nil {
		limits = DefaultLimits
	}
	return &WindowLimiter{
		limits:  limits,
		windows: make(map[string]*window),
		now:     time.Now,
		sleep:   sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (l *WindowLimiter) Wait(ctx context.Context, userID, source string) error {
	for {
		l.mu.Lock()
		limit, ok := l.limits[source]
		if !ok || limit <= 0 {
			l.mu.Unlock()
			return nil
		}
		key := userID + ":" + source
		w := l.windows[key]
		now := l.now()
		if w == nil || now.Sub(w.start) >= time.Minute {
			w = &window{start: now}
			l.windows[key] = w
		}
		if w.count < limit {
			w.count++
			l.mu.Unlock()
			return nil
		}
		wait := time.Minute - now.Sub(w.start)
		l.mu.Unlock()

		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// NopLimiter never blocks. Used in tests and for providers that manage
// their own pacing.
type NopLimiter struct{}

func (NopLimiter) Wait(ctx context.Context, userID, source string) error { return nil }
