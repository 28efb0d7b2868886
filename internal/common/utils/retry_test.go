package utils

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usps-gateway/internal/common/errors"
)

func recordingPolicy(attempts int) (RetryPolicy, *[]time.Duration) {
	var slept []time.Duration
	p := DefaultRetryPolicy()
	p.MaxAttempts = attempts
	p.BaseDelay = 100 * time.Millisecond
	p.Sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return p, &slept
}

func TestDefaultRetryPolicy(t *testing.T) {
	p := DefaultRetryPolicy()

	assert.Equal(t, 3, p.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, p.BaseDelay)
	assert.Equal(t, 30*time.Second, p.MaxDelay)
	assert.NotNil(t, p.IsRetryable)
}

func TestRetryPolicy_Backoff(t *testing.T) {
	p := RetryPolicy{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second}

	assert.Equal(t, 200*time.Millisecond, p.Backoff(1))
	assert.Equal(t, 400*time.Millisecond, p.Backoff(2))
	assert.Equal(t, 800*time.Millisecond, p.Backoff(3))
	assert.Equal(t, time.Second, p.Backoff(4))
}

func TestRetryPolicy_NotFoundIsAttemptedOnce(t *testing.T) {
	p, slept := recordingPolicy(3)

	attempts := 0
	err := p.Execute(context.Background(), func(int) error {
		attempts++
		return errors.APIError("Resource not found", 404, "")
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.Empty(t, *slept)

	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, 404, appErr.Status)
	assert.Equal(t, 1, appErr.Context["attempts"])
}

func TestRetryPolicy_RateLimitedTwiceThenSucceeds(t *testing.T) {
	p, slept := recordingPolicy(3)

	attempts := 0
	err := p.Execute(context.Background(), func(int) error {
		attempts++
		if attempts <= 2 {
			return errors.APIError("Rate limit exceeded", 429, "")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []time.Duration{200 * time.Millisecond, 400 * time.Millisecond}, *slept)
}

func TestRetryPolicy_ExhaustionReturnsLastError(t *testing.T) {
	p, _ := recordingPolicy(3)

	attempts := 0
	err := p.Execute(context.Background(), func(attempt int) error {
		attempts++
		return errors.APIError("USPS service unavailable", 503, "").WithContext("attempt_seen", attempt)
	})

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.KindAPI, appErr.Kind)
	assert.Equal(t, 3, appErr.Context["attempts"])
	assert.Equal(t, 3, appErr.Context["attempt_seen"])
}

func TestRetryPolicy_ValidationNeverRetried(t *testing.T) {
	p, _ := recordingPolicy(5)

	attempts := 0
	err := p.Execute(context.Background(), func(int) error {
		attempts++
		return errors.ValidationError("weight is required")
	})

	assert.True(t, errors.IsKind(err, errors.KindValidation))
	assert.Equal(t, 1, attempts)
}

func TestRetryPolicy_PlainErrorBecomesTransport(t *testing.T) {
	p, _ := recordingPolicy(2)
	cause := stderrors.New("connection refused")

	err := p.Execute(context.Background(), func(int) error { return cause })

	assert.True(t, errors.IsKind(err, errors.KindTransport))
	assert.ErrorIs(t, err, cause)
}

func TestRetryPolicy_DeadlineStopsEarly(t *testing.T) {
	p := DefaultRetryPolicy()
	p.BaseDelay = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	attempts := 0
	err := p.Execute(ctx, func(int) error {
		attempts++
		return errors.TransportError("timeout", nil)
	})

	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetryPolicy_CancelledDuringSleep(t *testing.T) {
	p := DefaultRetryPolicy()
	p.BaseDelay = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := p.Execute(ctx, func(int) error {
		attempts++
		cancel()
		return errors.TransportError("reset", nil)
	})

	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetry(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), 1, func() error {
		attempts++
		return errors.TransportError("x", nil)
	})
	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}
