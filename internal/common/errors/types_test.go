package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appError *AppError
		want     string
	}{
		{
			name:     "basic error",
			appError: ConfigurationError("USPS_CRID is required"),
			want:     "configuration: USPS_CRID is required",
		},
		{
			name:     "error with status",
			appError: APIError("Rate limit exceeded", 429, ""),
			want:     "api: Rate limit exceeded: status=429",
		},
		{
			name:     "error with cause",
			appError: TransportError("request failed", errors.New("connection reset")),
			want:     "transport: request failed: cause=connection reset",
		},
		{
			name: "context keys are sorted",
			appError: ValidationError("bad input").
				WithContext("zeta", 1).
				WithContext("alpha", "x"),
			want: "validation: bad input: context={alpha=x, zeta=1}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.appError.Error())
		})
	}
}

func TestRetryableByKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"validation", ValidationError("x"), false},
		{"configuration", ConfigurationError("x"), false},
		{"parse", ResponseParseError("x", nil), false},
		{"transport", TransportError("x", nil), true},
		{"api 404", APIError("x", 404, ""), false},
		{"api 429", APIError("x", 429, ""), true},
		{"api 503", APIError("x", 503, ""), true},
		{"auth 401", AuthenticationError("x", 401, ""), false},
		{"auth 500", AuthenticationError("x", 500, ""), true},
		{"plain error", errors.New("boom"), true},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestAs_WrappedError(t *testing.T) {
	inner := APIError("Resource not found", 404, `{"error":{}}`).WithOperation("CancelLabel")
	wrapped := fmt.Errorf("label client: %w", inner)

	appErr, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, 404, appErr.Status)
	assert.Equal(t, "CancelLabel", appErr.Operation)
	assert.True(t, IsKind(wrapped, KindAPI))
	assert.Equal(t, KindAPI, KindOf(wrapped))
	assert.Equal(t, KindInternal, KindOf(errors.New("other")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := TransportError("POST /label failed", cause)
	assert.ErrorIs(t, err, cause)
}

func TestWithDetails(t *testing.T) {
	err := APIError("Invalid request parameters", 400, "").WithDetails("a", "b")
	assert.Equal(t, []string{"a", "b"}, err.Details)
}

func TestClone_SharesNothing(t *testing.T) {
	original := AuthenticationError("invalid_client", 401, "").
		WithContext("family", "labels").
		WithDetails("client_id rejected")

	clone := original.Clone()
	clone.WithContext("attempts", 1).WithDetails("more").WithOperation("labels.create")

	assert.Equal(t, map[string]interface{}{"family": "labels"}, original.Context)
	assert.Equal(t, []string{"client_id rejected"}, original.Details)
	assert.Empty(t, original.Operation)
	assert.Equal(t, 1, clone.Context["attempts"])
}

func TestCopy(t *testing.T) {
	appErr := ValidationError("bad zip")
	copied := Copy(appErr)
	assert.NotSame(t, appErr, copied)
	assert.True(t, IsKind(copied, KindValidation))

	plain := fmt.Errorf("plain")
	assert.Same(t, plain, Copy(plain))
	assert.Nil(t, Copy(nil))
}
