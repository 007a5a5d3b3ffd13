// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ratelimit spaces outbound requests to one bibliographic source.
// Each source adapter owns exactly one Limiter; no limiter state is shared
// across adapters or reachable through package-level variables.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter enforces a minimum interval between requests to a single source.
// Waiters are released in submission order.
type Limiter struct {
	limiter *rate.Limiter
}

// New returns a Limiter that allows one request per interval with no burst
// beyond the first request. A non-positive interval disables limiting.
func New(interval time.Duration) *Limiter {
	if interval <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until the next request may be sent or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Allow reports whether a request may be sent immediately, consuming the
// slot if so.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}
