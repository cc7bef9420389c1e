// Package retry provides an explicit retry combinator for units of work that
// may fail with a transient, retryable error. The whole closure is re-executed
// on each attempt so callers can reload state before reapplying a mutation.
package retry

import (
	"context"
	"math/rand/v2"
	"time"
)

// Policy controls the attempt bound and backoff schedule.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first one.
	MaxAttempts int
	// InitialBackoff is the wait before the second attempt.
	InitialBackoff time.Duration
	// Multiplier scales the backoff after each failed attempt.
	Multiplier float64
	// JitterFraction randomizes each wait by ±fraction to avoid
	// thundering-herd retries. 0 disables jitter.
	JitterFraction float64
}

// DefaultPolicy returns the policy used for optimistic-concurrency conflicts:
// 4 attempts, 100ms initial backoff, doubling, ±25% jitter.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    4,
		InitialBackoff: 100 * time.Millisecond,
		Multiplier:     2.0,
		JitterFraction: 0.25,
	}
}

// backoff returns the wait before attempt n (0-indexed over failures).
func (p Policy) backoff(failure int) time.Duration {
	wait := float64(p.InitialBackoff)
	for i := 0; i < failure; i++ {
		wait *= p.Multiplier
	}
	if p.JitterFraction > 0 {
		wait += wait * p.JitterFraction * (2*rand.Float64() - 1) // #nosec G404 -- non-cryptographic jitter
	}
	return time.Duration(wait)
}

// Do executes op up to p.MaxAttempts times, retrying only when retryable
// reports true for the returned error. Between attempts it waits per the
// backoff schedule or until the context is done, whichever comes first.
// Non-retryable errors propagate immediately; exhausting the attempt bound
// returns the last retryable error.
func Do(ctx context.Context, p Policy, retryable func(error) bool, op func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.backoff(attempt - 1)):
			}
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}
