// Package classify maps USPS HTTP failures onto the shared error taxonomy.
package classify

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"usps-gateway/internal/common/errors"
)

var statusMessages = map[int]string{
	400: "Bad Request - Invalid request parameters",
	401: "Unauthorized - Check USPS credentials",
	403: "Access Denied - Check API permissions",
	404: "Not Found",
	422: "Validation failed",
	429: "Too Many Requests - Rate limit exceeded",
	500: "Internal Server Error - USPS service unavailable",
	503: "Service Unavailable - USPS service unavailable",
}

// StatusMessage returns the default human-readable message for status
func StatusMessage(status int) string {
	if msg, ok := statusMessages[status]; ok {
		return msg
	}
	return fmt.Sprintf("USPS API error: %d", status)
}

// Classify turns a non-2xx USPS response into an API error. A structured
// body ({"error": {"message", "errors": [...]}}, or a flat message/errors at
// the top level) overrides the status message and contributes per-field
// details.
func Classify(status int, body []byte, operation string) *errors.AppError {
	msg, details := describe(status, body)
	return errors.APIError(msg, status, string(body)).
		WithOperation(operation).
		WithDetails(details...)
}

// Authentication classifies a failed OAuth or payment-authorization call.
// Retryability still follows the status.
func Authentication(status int, body []byte, operation string) *errors.AppError {
	msg, details := describe(status, body)
	return errors.AuthenticationError(msg, status, string(body)).
		WithOperation(operation).
		WithDetails(details...)
}

func describe(status int, body []byte) (string, []string) {
	msg := StatusMessage(status)
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return msg, nil
	}

	root := gjson.ParseBytes(body)
	errNode := root.Get("error")

	switch {
	case errNode.IsObject():
		if m := firstString(errNode.Get("message"), root.Get("message")); m != "" {
			msg = m
		}
	case errNode.Type == gjson.String:
		// OAuth style: {"error": "invalid_client", "error_description": "..."}
		if m := firstString(root.Get("error_description"), errNode); m != "" {
			msg = m
		}
	default:
		// Flat bodies: {"message": "..."} or {"detail": "...", "errors": [...]}
		if m := firstString(root.Get("message"), root.Get("detail")); m != "" {
			msg = m
		}
	}

	items := errNode.Get("errors")
	if !items.IsArray() {
		items = root.Get("errors")
	}
	var details []string
	items.ForEach(func(_, item gjson.Result) bool {
		if d := detail(item); d != "" {
			details = append(details, d)
		}
		return true
	})

	if len(details) > 0 {
		msg += " | Details: " + strings.Join(details, "; ")
	}
	return msg, details
}

func firstString(values ...gjson.Result) string {
	for _, v := range values {
		if v.Type != gjson.String {
			continue
		}
		if s := strings.TrimSpace(v.String()); s != "" {
			return s
		}
	}
	return ""
}

func detail(item gjson.Result) string {
	parts := make([]string, 0, 2)
	if title := item.Get("title").String(); title != "" {
		parts = append(parts, title)
	}
	if d := item.Get("detail").String(); d != "" {
		parts = append(parts, d)
	}
	text := strings.Join(parts, ": ")
	if param := item.Get("source.parameter").String(); param != "" {
		if text == "" {
			return param
		}
		return fmt.Sprintf("%s (%s)", text, param)
	}
	return text
}
