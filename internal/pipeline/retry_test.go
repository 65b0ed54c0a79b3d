package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reelgen/internal/domain"
)

func TestPolicyStopsAfterMaxAttempts(t *testing.T) {
	var waits []time.Duration
	p := Policy{
		MaxAttempts: 3,
		Backoff:     FixedBackoff(time.Millisecond),
		Retryable:   RetryableProviderError,
		OnRetry:     func(_ int, _ error, wait time.Duration) { waits = append(waits, wait) },
	}
	calls := 0
	attempts, err := p.Do(context.Background(), func(context.Context, int) error {
		calls++
		return errors.New("boom")
	})
	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Millisecond, time.Millisecond}, waits)
}

func TestPolicySucceedsOnRetry(t *testing.T) {
	p := Policy{MaxAttempts: 3, Backoff: FixedBackoff(0)}
	attempts, err := p.Do(context.Background(), func(_ context.Context, attempt int) error {
		if attempt < 2 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestPolicyDoesNotRetryUnauthorized(t *testing.T) {
	p := Policy{MaxAttempts: 3, Backoff: FixedBackoff(0), Retryable: RetryableProviderError}
	attempts, err := p.Do(context.Background(), func(context.Context, int) error {
		return domain.NewProviderError("openai", domain.FailureUnauthorized, errors.New("401"))
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestPolicyStopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{MaxAttempts: 5, Backoff: FixedBackoff(time.Hour)}
	done := make(chan int, 1)
	go func() {
		attempts, _ := p.Do(ctx, func(context.Context, int) error { return errors.New("fail") })
		done <- attempts
	}()
	cancel()
	select {
	case attempts := <-done:
		assert.Equal(t, 1, attempts)
	case <-time.After(time.Second):
		t.Fatal("Do did not return after cancellation")
	}
}

func TestExponentialBackoffBounds(t *testing.T) {
	backoff := ExponentialBackoff(100*time.Millisecond, time.Second)
	for attempt, ceiling := range map[int]time.Duration{
		1: 100 * time.Millisecond,
		2: 200 * time.Millisecond,
		3: 400 * time.Millisecond,
		6: time.Second,
	} {
		for i := 0; i < 20; i++ {
			d := backoff(attempt)
			assert.GreaterOrEqual(t, d, ceiling/2, "attempt %d", attempt)
			assert.LessOrEqual(t, d, ceiling, "attempt %d", attempt)
		}
	}
}

func TestRetryableProviderError(t *testing.T) {
	assert.True(t, RetryableProviderError(errors.New("network")))
	assert.True(t, RetryableProviderError(domain.NewProviderError("x", domain.FailureTimeout, nil)))
	assert.True(t, RetryableProviderError(domain.NewProviderError("x", domain.FailureInvalidResponse, nil)))
	assert.False(t, RetryableProviderError(domain.NewProviderError("x", domain.FailureUnauthorized, nil)))
	assert.False(t, RetryableProviderError(context.Canceled))
}
