package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"usps-gateway/internal/common/errors"
)

// Checker accumulates rule violations, each message optionally prefixed
type Checker struct {
	messages []string
	prefix   string
}

// NewChecker creates an empty checker
func NewChecker() *Checker {
	return &Checker{}
}

// NewCheckerWithPrefix creates a checker whose messages start with prefix
func NewCheckerWithPrefix(prefix string) *Checker {
	return &Checker{prefix: prefix}
}

// Require records "<name> is required" when value is blank
func (c *Checker) Require(value, name string) *Checker {
	if strings.TrimSpace(value) == "" {
		c.Addf("%s is required", name)
	}
	return c
}

// MaxLength records a violation when value exceeds max characters
func (c *Checker) MaxLength(value string, max int, name string) *Checker {
	if utf8.RuneCountInString(value) > max {
		c.Addf("%s must be at most %d characters", name, max)
	}
	return c
}

// Range records a violation when value is outside [min, max]
func (c *Checker) Range(value, min, max float64, name string) *Checker {
	if value < min || value > max {
		c.Addf("%s must be between %g and %g", name, min, max)
	}
	return c
}

// Check records msg when ok is false
func (c *Checker) Check(ok bool, format string, args ...interface{}) *Checker {
	if !ok {
		c.Addf(format, args...)
	}
	return c
}

// Merge appends the violations from err, if it is a validation error
func (c *Checker) Merge(err error) *Checker {
	if err == nil {
		return c
	}
	appErr, ok := errors.As(err)
	if !ok || appErr.Kind != errors.KindValidation {
		c.Addf("%s", err.Error())
		return c
	}
	if len(appErr.Details) > 0 {
		for _, d := range appErr.Details {
			c.Addf("%s", d)
		}
		return c
	}
	c.Addf("%s", appErr.Message)
	return c
}

// Addf records a formatted violation
func (c *Checker) Addf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if c.prefix != "" {
		msg = c.prefix + "." + msg
	}
	c.messages = append(c.messages, msg)
}

// HasErrors reports whether any rule failed
func (c *Checker) HasErrors() bool {
	return len(c.messages) > 0
}

// Messages returns the recorded violations
func (c *Checker) Messages() []string {
	return c.messages
}

// Err returns nil or a single ValidationError carrying every violation
func (c *Checker) Err() error {
	switch len(c.messages) {
	case 0:
		return nil
	case 1:
		return errors.ValidationError(c.messages[0]).WithDetails(c.messages...)
	default:
		return errors.ValidationError("validation failed: " + strings.Join(c.messages, "; ")).WithDetails(c.messages...)
	}
}
