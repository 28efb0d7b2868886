package utils

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"math"
	"time"

	"usps-gateway/internal/common/errors"
)

// RetryPolicy retries an outbound call with exponential backoff.
//
// The delay after failed attempt n (1-based) is BaseDelay * 2^n, capped at
// MaxDelay. A caller deadline on ctx bounds the whole run: the policy gives up
// early when the next sleep would cross it.
type RetryPolicy struct {
	// MaxAttempts includes the initial attempt
	MaxAttempts int

	BaseDelay time.Duration
	MaxDelay  time.Duration

	// JitterFactor adds up to this fraction of the delay (0 disables)
	JitterFactor float64

	// IsRetryable decides whether an error is worth another attempt.
	// Defaults to errors.IsRetryable.
	IsRetryable func(error) bool

	// Sleep is swapped out in tests
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy returns 3 attempts with a 500ms base delay
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    30 * time.Second,
		IsRetryable: errors.IsRetryable,
	}
}

// Backoff returns the delay to wait after the given failed attempt
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	delay := time.Duration(float64(p.BaseDelay) * math.Pow(2, float64(attempt)))
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	if p.JitterFactor > 0 {
		jitter := int64(float64(delay) * p.JitterFactor)
		delay += time.Duration(randomInt64n(jitter))
	}
	return delay
}

// Execute runs fn until it succeeds, returns a non-retryable error, or the
// attempts are exhausted. The returned error is the last one produced by fn,
// with the attempt count recorded in its context.
func (p RetryPolicy) Execute(ctx context.Context, fn func(attempt int) error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	isRetryable := p.IsRetryable
	if isRetryable == nil {
		isRetryable = errors.IsRetryable
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	attempt := 0
	for attempt < maxAttempts {
		attempt++

		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) || attempt == maxAttempts {
			break
		}

		delay := p.Backoff(attempt)
		if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < delay {
			break
		}
		if err := sleep(ctx, delay); err != nil {
			break
		}
	}

	return withAttempts(lastErr, attempt)
}

// Retry executes fn with the default policy and the given attempt count
func Retry(ctx context.Context, attempts int, fn func() error) error {
	p := DefaultRetryPolicy()
	p.MaxAttempts = attempts
	return p.Execute(ctx, func(int) error { return fn() })
}

func withAttempts(err error, attempts int) error {
	if appErr, ok := errors.As(err); ok {
		return appErr.WithContext("attempts", attempts)
	}
	return errors.TransportError(err.Error(), err).WithContext("attempts", attempts)
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

// randomInt64n returns a random int64 in [0, n)
func randomInt64n(n int64) int64 {
	if n <= 0 {
		return 0
	}
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return time.Now().UnixNano() % n
	}
	return int64(binary.BigEndian.Uint64(b[:])>>1) % n
}
