package usps

import (
	"net/http"

	"usps-gateway/internal/common/errors"
)

// Result is the uniform shape every client operation can be reduced to
type Result struct {
	Success    bool                   `json:"success"`
	StatusCode int                    `json:"status_code"`
	Data       map[string]interface{} `json:"data,omitempty"`
	Error      *ErrorDetail           `json:"error,omitempty"`
}

// ErrorDetail is the caller-safe projection of an AppError
type ErrorDetail struct {
	Kind      errors.Kind `json:"kind"`
	Message   string      `json:"message"`
	Operation string      `json:"operation,omitempty"`
	Retryable bool        `json:"retryable"`
	Details   []string    `json:"details,omitempty"`
}

// ToResult folds an operation's output into a Result. Transport causes and
// raw response bodies stay out of the projection.
func ToResult(data map[string]interface{}, err error) Result {
	if err == nil {
		return Result{Success: true, StatusCode: http.StatusOK, Data: data}
	}

	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.InternalError(err.Error(), err)
	}
	return Result{
		Success:    false,
		StatusCode: StatusFor(appErr),
		Error: &ErrorDetail{
			Kind:      appErr.Kind,
			Message:   appErr.Message,
			Operation: appErr.Operation,
			Retryable: appErr.Retryable,
			Details:   appErr.Details,
		},
	}
}

// StatusFor maps an error to the HTTP status a caller-facing surface should use
func StatusFor(appErr *errors.AppError) int {
	switch appErr.Kind {
	case errors.KindValidation:
		return http.StatusUnprocessableEntity
	case errors.KindConfiguration, errors.KindInternal:
		return http.StatusInternalServerError
	case errors.KindAuthentication:
		if appErr.Status == http.StatusUnauthorized || appErr.Status == http.StatusForbidden {
			return http.StatusUnauthorized
		}
		return http.StatusBadGateway
	case errors.KindAPI:
		if appErr.Status >= 400 && appErr.Status <= 599 {
			return appErr.Status
		}
		return http.StatusBadGateway
	case errors.KindResponseParse:
		return http.StatusBadGateway
	case errors.KindTransport:
		if appErr.Status == http.StatusServiceUnavailable {
			return http.StatusServiceUnavailable
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
