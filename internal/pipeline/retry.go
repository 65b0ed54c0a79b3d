package pipeline

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"reelgen/internal/domain"
)

// BackoffFunc returns the delay before the given retry. attempt starts at 1
// for the wait between the first and second call.
type BackoffFunc func(attempt int) time.Duration

// Policy bounds how often a single operation is attempted.
type Policy struct {
	MaxAttempts int
	Backoff     BackoffFunc
	Retryable   func(error) bool
	// OnRetry, when set, is called after a failed attempt that will be retried.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// FixedBackoff waits the same delay between every attempt.
func FixedBackoff(d time.Duration) BackoffFunc {
	return func(int) time.Duration { return d }
}

// ExponentialBackoff doubles base on each attempt up to ceiling and applies full
// jitter in the upper half of the interval.
func ExponentialBackoff(base, ceiling time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		if attempt < 1 {
			attempt = 1
		}
		d := base
		for i := 1; i < attempt && d < ceiling; i++ {
			d *= 2
		}
		if d > ceiling {
			d = ceiling
		}
		if d <= 0 {
			return 0
		}
		half := d / 2
		return half + time.Duration(rand.Int64N(int64(half)+1))
	}
}

// RetryableProviderError retries everything except provider errors whose kind
// is not retryable. Context cancellation of the parent is never retried.
func RetryableProviderError(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var perr *domain.ProviderError
	if errors.As(err, &perr) {
		return perr.Kind.Retryable()
	}
	return true
}

// Do calls fn until it succeeds, returns a non-retryable error, or the
// attempts are used up. It returns the last error and the number of calls made.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) (int, error) {
	limit := p.MaxAttempts
	if limit < 1 {
		limit = 1
	}
	var err error
	for attempt := 1; attempt <= limit; attempt++ {
		if err = fn(ctx, attempt); err == nil {
			return attempt, nil
		}
		if attempt == limit || (p.Retryable != nil && !p.Retryable(err)) {
			return attempt, err
		}
		if ctx.Err() != nil {
			return attempt, err
		}
		var wait time.Duration
		if p.Backoff != nil {
			wait = p.Backoff(attempt)
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, wait)
		}
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return attempt, err
			case <-timer.C:
			}
		}
	}
	return limit, err
}
