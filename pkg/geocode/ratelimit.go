package geocode

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter throttles outbound calls to a quota-constrained provider.
// Acquire blocks until the provider's minimum inter-request interval has
// elapsed since the previous permitted call, or until ctx is canceled.
type Limiter interface {
	Acquire(ctx context.Context, providerKey string) error
}

// IntervalLimiter enforces a minimum interval between consecutive calls per
// provider key. Concurrent callers for the same key queue rather than race
// past the interval. Safe for concurrent use.
type IntervalLimiter struct {
	interval time.Duration
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewIntervalLimiter creates a limiter with the given minimum inter-request
// interval.
func NewIntervalLimiter(interval time.Duration) *IntervalLimiter {
	return &IntervalLimiter{
		interval: interval,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Acquire implements Limiter.
func (l *IntervalLimiter) Acquire(ctx context.Context, providerKey string) error {
	l.mu.Lock()
	lim, ok := l.limiters[providerKey]
	if !ok {
		// Burst of 1: the first call passes immediately, every subsequent
		// call is spaced at least one interval apart.
		lim = rate.NewLimiter(rate.Every(l.interval), 1)
		l.limiters[providerKey] = lim
	}
	l.mu.Unlock()

	return lim.Wait(ctx)
}

// NopLimiter never blocks. Used for providers that throttle server-side.
type NopLimiter struct{}

// Acquire implements Limiter.
func (NopLimiter) Acquire(context.Context, string) error { return nil }
