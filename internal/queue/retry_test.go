package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kennethwltu/smspanel/internal/gateway"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSleep collects requested delays instead of sleeping
func recordingSleep(delays *[]time.Duration) func(ctx context.Context, d time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestRetryPolicyTransientThenSuccess(t *testing.T) {
	var delays []time.Duration
	policy := NewRetryPolicy(3, 2*time.Second, 10*time.Second).WithSleep(recordingSleep(&delays))

	calls := 0
	err := policy.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return gateway.WrapTransient(errors.New("connection reset"))
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, delays)
}

func TestRetryPolicyPermanentFailsImmediately(t *testing.T) {
	var delays []time.Duration
	policy := NewRetryPolicy(3, 2*time.Second, 10*time.Second).WithSleep(recordingSleep(&delays))

	calls := 0
	err := policy.Do(context.Background(), func() error {
		calls++
		return gateway.WrapPermanent(errors.New("number rejected"))
	})

	require.Error(t, err)
	assert.True(t, gateway.IsPermanent(err))
	assert.Equal(t, 1, calls)
	assert.Empty(t, delays)
}

func TestRetryPolicyUnclassifiedErrorNotRetried(t *testing.T) {
	var delays []time.Duration
	policy := NewRetryPolicy(3, 2*time.Second, 10*time.Second).WithSleep(recordingSleep(&delays))

	calls := 0
	err := policy.Do(context.Background(), func() error {
		calls++
		return errors.New("something unexpected")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, delays)
}

func TestRetryPolicyExhaustion(t *testing.T) {
	var delays []time.Duration
	policy := NewRetryPolicy(3, 2*time.Second, 10*time.Second).WithSleep(recordingSleep(&delays))

	calls := 0
	transientErr := gateway.WrapTransient(errors.New("timeout"))
	err := policy.Do(context.Background(), func() error {
		calls++
		return transientErr
	})

	require.Error(t, err)
	assert.Equal(t, transientErr, err)
	assert.Equal(t, 3, calls)
	// No sleep after the final attempt
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, delays)
}

func TestRetryPolicyDelayCappedAtMax(t *testing.T) {
	policy := NewRetryPolicy(5, 2*time.Second, 10*time.Second)

	assert.Equal(t, 2*time.Second, policy.Delay(1))
	assert.Equal(t, 4*time.Second, policy.Delay(2))
	assert.Equal(t, 8*time.Second, policy.Delay(3))
	assert.Equal(t, 10*time.Second, policy.Delay(4))
	assert.Equal(t, 10*time.Second, policy.Delay(5))
}

func TestRetryPolicyCancelledContext(t *testing.T) {
	policy := NewRetryPolicy(3, time.Hour, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	start := time.Now()
	err := policy.Do(ctx, func() error {
		calls++
		return gateway.WrapTransient(errors.New("timeout"))
	})

	// Cancellation interrupts the backoff sleep and returns the last error
	require.Error(t, err)
	assert.True(t, gateway.IsTransient(err))
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), time.Second)
}

func TestNewRetryPolicyDefaults(t *testing.T) {
	policy := NewRetryPolicy(0, 0, 0)

	assert.Equal(t, 3, policy.MaxAttempts)
	assert.Equal(t, 2*time.Second, policy.BaseDelay)
	assert.Equal(t, 2*time.Second, policy.MaxDelay)
}

func TestRetryPolicyRealSleep(t *testing.T) {
	// Small real delays to exercise the default context-aware sleep
	policy := NewRetryPolicy(2, 10*time.Millisecond, 20*time.Millisecond)

	calls := 0
	start := time.Now()
	err := policy.Do(context.Background(), func() error {
		calls++
		if calls == 1 {
			return gateway.WrapTransient(errors.New("blip"))
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}
