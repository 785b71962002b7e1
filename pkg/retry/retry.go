// Package retry repeats idempotent calls until they succeed or the policy
// gives up.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

const (
	defaultDelay    = 100 * time.Millisecond
	defaultMaxDelay = 5 * time.Second
	maxShift        = 16
)

// Backoff returns the wait before retry number attempt, starting at 1.
type Backoff func(attempt int) time.Duration

// A Hinted error carries the server's own wait, e.g. from Retry-After.
// The hint replaces the backoff for that attempt.
type Hinted interface {
	RetryAfter() (time.Duration, bool)
}

type Policy struct {
	MaxAttempts int
	Backoff     Backoff
	// MaxDelay caps every wait, hinted ones included.
	MaxDelay  time.Duration
	Retryable func(error) bool
	// OnRetry runs before each wait.
	OnRetry func(attempt int, wait time.Duration, err error)
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Backoff == nil {
		p.Backoff = ExponentialBackoff(defaultDelay)
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = defaultMaxDelay
	}
	if p.Retryable == nil {
		p.Retryable = func(error) bool { return true }
	}
	return p
}

func (p Policy) wait(attempt int, err error) time.Duration {
	d := p.Backoff(attempt)

	var h Hinted
	if errors.As(err, &h) {
		if hint, ok := h.RetryAfter(); ok {
			d = hint
		}
	}
	return min(max(d, 0), p.MaxDelay)
}

// ExponentialBackoff waits delay, 2*delay, 4*delay... each with up to half
// of it added as jitter.
func ExponentialBackoff(delay time.Duration) Backoff {
	return func(attempt int) time.Duration {
		shift := min(max(attempt-1, 0), maxShift)
		base := delay << shift
		if base <= 1 {
			return base
		}
		return base + rand.N(base/2+1)
	}
}

func ConstantBackoff(delay time.Duration) Backoff {
	return func(int) time.Duration {
		return delay
	}
}

func Do(ctx context.Context, p Policy, fn func(context.Context) error) error {
	_, err := Value(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Value calls fn until it succeeds, fails with an error the policy does not
// retry, or the attempts are spent. The last error is returned.
func Value[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if err := ctx.Err(); err != nil {
		return zero, err
	}

	p = p.withDefaults()
	timer := time.NewTimer(0)
	<-timer.C
	defer timer.Stop()

	for attempt := 1; ; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if attempt == p.MaxAttempts || !p.Retryable(err) {
			return zero, err
		}

		d := p.wait(attempt, err)
		if p.OnRetry != nil {
			p.OnRetry(attempt, d, err)
		}

		timer.Reset(d)
		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("%w: %w", ctx.Err(), err)
		case <-timer.C:
		}
	}
}
