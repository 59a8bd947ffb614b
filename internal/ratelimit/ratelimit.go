// Package ratelimit wraps golang.org/x/time/rate for the two shapes used here:
// request-per-minute budgets for HTTP APIs and minimum spacing between uses of
// an RPC endpoint.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter wraps rate.Limiter.
type Limiter struct {
	limiter *rate.Limiter
}

// New allows requestsPerMinute with a burst of 10% of the budget.
func New(requestsPerMinute int) *Limiter {
	burst := requestsPerMinute / 10
	if burst < 1 {
		burst = 1
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), burst)}
}

// NewInterval allows one event per interval with no burst.
func NewInterval(interval time.Duration) *Limiter {
	return &Limiter{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until a token is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Allow reports whether an event may happen now and consumes a token if so.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// AllowAt is Allow evaluated at t.
func (l *Limiter) AllowAt(t time.Time) bool {
	return l.limiter.AllowN(t, 1)
}

// ReadyAt reports whether a token would be available at t without consuming it.
func (l *Limiter) ReadyAt(t time.Time) bool {
	return l.limiter.TokensAt(t) >= 1
}

