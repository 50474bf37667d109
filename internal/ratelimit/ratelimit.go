// Package ratelimit paces calls to external services on top of
// golang.org/x/time/rate.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter is a token-bucket limiter configured in requests per minute,
// the unit trade submission limits are expressed in.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a limiter allowing perMinute requests per minute with a
// small burst allowance.
func New(perMinute int) *Limiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	burst := perMinute / 10
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), burst),
	}
}

// Wait blocks until a token is available or the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Allow reports whether a request may proceed right now without waiting.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}
