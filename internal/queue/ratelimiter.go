package queue

import (
	"context"
	"math"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter gates gateway throughput with a token bucket: tokens refill
// at a constant rate up to the burst capacity.
type RateLimiter struct {
	limiter    *rate.Limiter
	ratePerSec float64
	burst      float64
}

// NewRateLimiter creates a limiter adding ratePerSec tokens per second with
// the given burst capacity
func NewRateLimiter(ratePerSec, burst float64) *RateLimiter {
	if ratePerSec <= 0 {
		ratePerSec = 2.0
	}
	if burst < 1 {
		burst = ratePerSec
	}
	return &RateLimiter{
		limiter:    rate.NewLimiter(rate.Limit(ratePerSec), int(math.Ceil(burst))),
		ratePerSec: ratePerSec,
		burst:      burst,
	}
}

// TryAcquire takes a token without blocking
func (l *RateLimiter) TryAcquire() bool {
	return l.limiter.Allow()
}

// Acquire blocks until a token is available or the timeout expires.
// Returns true when a token was taken.
func (l *RateLimiter) Acquire(timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return l.limiter.Wait(ctx) == nil
}
