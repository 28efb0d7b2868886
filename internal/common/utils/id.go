// Package utils holds small helpers shared by the USPS clients: the retry
// policy, request IDs, clocks and mailing-date formatting.
package utils

import (
	"github.com/google/uuid"
)

// GenerateRequestID returns a request ID used for X-Request-ID and log correlation
func GenerateRequestID() string {
	return "req-" + uuid.NewString()
}

// IsRequestID reports whether s looks like a value produced by GenerateRequestID
func IsRequestID(s string) bool {
	if len(s) < 4 || s[:4] != "req-" {
		return false
	}
	_, err := uuid.Parse(s[4:])
	return err == nil
}
