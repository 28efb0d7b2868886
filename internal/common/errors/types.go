// Package errors defines the structured error taxonomy shared by every USPS
// client. Callers distinguish "fix your input" from "retry me" by Kind and
// Retryable instead of matching on message text.
package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies an AppError
type Kind string

const (
	// KindConfiguration is raised at construction time when credentials or
	// account identifiers are missing. Never retried.
	KindConfiguration Kind = "configuration"
	// KindValidation means caller input violated a required field, enum or
	// mutual-exclusivity rule. Never sent over the wire.
	KindValidation Kind = "validation"
	// KindAuthentication covers OAuth and payment-authorization failures
	KindAuthentication Kind = "authentication"
	// KindAPI is a non-2xx answer from a USPS endpoint
	KindAPI Kind = "api"
	// KindResponseParse is a 2xx answer whose body could not be decoded
	KindResponseParse Kind = "response_parse"
	// KindTransport is a network or timeout failure
	KindTransport Kind = "transport"
	// KindInternal is anything else
	KindInternal Kind = "internal"
)

// AppError is the single error type returned across package boundaries.
type AppError struct {
	Kind      Kind                   `json:"kind"`
	Message   string                 `json:"message"`
	Status    int                    `json:"status,omitempty"`
	Operation string                 `json:"operation,omitempty"`
	Retryable bool                   `json:"retryable"`
	Details   []string               `json:"details,omitempty"`
	Body      string                 `json:"-"`
	Cause     error                  `json:"-"`
	Context   map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	parts := []string{string(e.Kind), e.Message}

	if e.Status != 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.Status))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause=%v", e.Cause))
	}

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		contextParts := make([]string, 0, len(keys))
		for _, k := range keys {
			contextParts = append(contextParts, fmt.Sprintf("%s=%v", k, e.Context[k]))
		}
		parts = append(parts, fmt.Sprintf("context={%s}", strings.Join(contextParts, ", ")))
	}

	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Clone returns a copy of e that shares no map or slice with it
func (e *AppError) Clone() *AppError {
	c := *e
	if e.Context != nil {
		c.Context = make(map[string]interface{}, len(e.Context))
		for k, v := range e.Context {
			c.Context[k] = v
		}
	}
	if e.Details != nil {
		c.Details = append([]string(nil), e.Details...)
	}
	return &c
}

// Copy returns err with a top-level *AppError replaced by its clone. Errors
// handed to several goroutines go through Copy before anyone annotates them.
func Copy(err error) error {
	if appErr, ok := err.(*AppError); ok && appErr != nil {
		return appErr.Clone()
	}
	return err
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithOperation records which client operation produced the error
func (e *AppError) WithOperation(op string) *AppError {
	e.Operation = op
	return e
}

// WithDetails appends per-field detail strings
func (e *AppError) WithDetails(details ...string) *AppError {
	e.Details = append(e.Details, details...)
	return e
}

// ConfigurationError creates a new configuration error
func ConfigurationError(msg string) *AppError {
	return &AppError{
		Kind:    KindConfiguration,
		Message: msg,
	}
}

// ValidationError creates a new validation error
func ValidationError(msg string) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Message: msg,
	}
}

// Validationf creates a validation error with a formatted message
func Validationf(format string, args ...interface{}) *AppError {
	return ValidationError(fmt.Sprintf(format, args...))
}

// AuthenticationError creates an authentication error. It is retryable only
// when the issuer answered 429 or 5xx.
func AuthenticationError(msg string, status int, body string) *AppError {
	return &AppError{
		Kind:      KindAuthentication,
		Message:   msg,
		Status:    status,
		Body:      body,
		Retryable: RetryableStatus(status),
	}
}

// APIError creates an error for a non-2xx USPS response
func APIError(msg string, status int, body string) *AppError {
	return &AppError{
		Kind:      KindAPI,
		Message:   msg,
		Status:    status,
		Body:      body,
		Retryable: RetryableStatus(status),
	}
}

// ResponseParseError creates a new response parse error
func ResponseParseError(msg string, cause error) *AppError {
	return &AppError{
		Kind:    KindResponseParse,
		Message: msg,
		Cause:   cause,
	}
}

// TransportError creates a new transport error. Always retryable.
func TransportError(msg string, cause error) *AppError {
	return &AppError{
		Kind:      KindTransport,
		Message:   msg,
		Cause:     cause,
		Retryable: true,
	}
}

// InternalError creates a new internal error
func InternalError(msg string, cause error) *AppError {
	return &AppError{
		Kind:    KindInternal,
		Message: msg,
		Cause:   cause,
	}
}

// RetryableStatus reports whether an HTTP status is worth retrying: 429 and 5xx.
func RetryableStatus(status int) bool {
	return status == 429 || status >= 500
}

// As extracts an *AppError from err's chain
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsKind checks if an error is of a specific kind
func IsKind(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}

// KindOf returns the error kind if it's an AppError, otherwise KindInternal
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	appErr, ok := As(err)
	if !ok {
		return KindInternal
	}
	return appErr.Kind
}

// IsRetryable reports whether err should be retried. Errors that are not
// AppErrors are treated as transport failures.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	appErr, ok := As(err)
	if !ok {
		return true
	}
	return appErr.Retryable
}
