package utils

import (
	"sync"
	"time"
)

// MailingDateLayout is the date format USPS expects for mailingDate
const MailingDateLayout = "2006-01-02"

// Clock abstracts time.Now so token expiry can be tested deterministically
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock
type SystemClock struct{}

// Now returns time.Now()
func (SystemClock) Now() time.Time { return time.Now() }

// FakeClock is a manually advanced clock
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock returns a FakeClock starting at t
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t}
}

// Now returns the fake current time
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// MailingDate formats the day offset from now in USPS format
func MailingDate(clock Clock, dayOffset int) string {
	return clock.Now().AddDate(0, 0, dayOffset).Format(MailingDateLayout)
}

// MailingDateNotBefore reports whether date (YYYY-MM-DD) is on or after
// yesterday relative to clock. Unparseable dates return false.
func MailingDateNotBefore(clock Clock, date string) bool {
	d, err := time.ParseInLocation(MailingDateLayout, date, clock.Now().Location())
	if err != nil {
		return false
	}
	now := clock.Now()
	yesterday := time.Date(now.Year(), now.Month(), now.Day()-1, 0, 0, 0, 0, now.Location())
	return !d.Before(yesterday)
}
