package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterBurst(t *testing.T) {
	limiter := NewRateLimiter(1.0, 3)

	// Full burst available up front
	assert.True(t, limiter.TryAcquire())
	assert.True(t, limiter.TryAcquire())
	assert.True(t, limiter.TryAcquire())

	// Bucket drained
	assert.False(t, limiter.TryAcquire())
}

func TestRateLimiterRefill(t *testing.T) {
	limiter := NewRateLimiter(100.0, 1)

	assert.True(t, limiter.TryAcquire())
	assert.False(t, limiter.TryAcquire())

	// 100 tokens/sec: one token back within ~10ms
	time.Sleep(25 * time.Millisecond)
	assert.True(t, limiter.TryAcquire())
}

func TestRateLimiterAcquireBlocks(t *testing.T) {
	limiter := NewRateLimiter(50.0, 1)

	assert.True(t, limiter.TryAcquire())

	start := time.Now()
	ok := limiter.Acquire(time.Second)
	assert.True(t, ok)
	// Had to wait for a refill (1/50s = 20ms)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestRateLimiterAcquireTimeout(t *testing.T) {
	limiter := NewRateLimiter(0.5, 1)

	assert.True(t, limiter.TryAcquire())

	// Next token needs ~2s, timeout is much shorter
	start := time.Now()
	ok := limiter.Acquire(50 * time.Millisecond)
	assert.False(t, ok)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRateLimiterDefaults(t *testing.T) {
	limiter := NewRateLimiter(0, 0)
	assert.Equal(t, 2.0, limiter.ratePerSec)
	assert.Equal(t, 2.0, limiter.burst)
}
