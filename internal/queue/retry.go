package queue

import (
	"context"
	"time"

	"github.com/kennethwltu/smspanel/internal/gateway"
)

// RetryPolicy wraps gateway calls with bounded exponential backoff. Only
// transient errors are retried; permanent errors escalate immediately.
// Sleeping between attempts blocks only the worker running the job.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration

	// sleep is injectable for tests; nil means context-aware time.Sleep
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetryPolicy creates a policy with the given bounds
func NewRetryPolicy(maxAttempts int, baseDelay, maxDelay time.Duration) RetryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if baseDelay <= 0 {
		baseDelay = 2 * time.Second
	}
	if maxDelay < baseDelay {
		maxDelay = baseDelay
	}
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
		MaxDelay:    maxDelay,
	}
}

// WithSleep returns a copy of the policy using the given sleep function
func (p RetryPolicy) WithSleep(sleep func(ctx context.Context, d time.Duration) error) RetryPolicy {
	p.sleep = sleep
	return p
}

// Delay computes the backoff before the given 1-based attempt's retry:
// min(base * 2^(attempt-1), max)
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// Do invokes fn up to MaxAttempts times. Transient errors are retried after
// the computed backoff; anything else propagates immediately. After
// exhaustion the last error is returned.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !gateway.IsTransient(err) {
			return err
		}
		if attempt == p.MaxAttempts {
			break
		}
		if sleepErr := sleep(ctx, p.Delay(attempt)); sleepErr != nil {
			return lastErr
		}
	}
	return lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
