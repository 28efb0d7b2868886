package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"usps-gateway/internal/common/errors"
)

// Limiter hands out per-key tokens
type Limiter interface {
	Wait(ctx context.Context, key string) error
	Allow(key string) bool
	Stats() map[string]interface{}
}

// LocalLimiter implements Limiter in process memory
type LocalLimiter struct {
	mu       sync.Mutex
	config   Config
	limiters map[string]*limiterEntry

	lastCleanup time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// NewLocalLimiter creates a per-key limiter
func NewLocalLimiter(config Config) (*LocalLimiter, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(err.Error())
	}
	return &LocalLimiter{
		config:      config,
		limiters:    make(map[string]*limiterEntry),
		lastCleanup: time.Now(),
	}, nil
}

// Wait blocks until key may proceed or ctx ends. A wait that would outlast
// the ctx deadline fails immediately as a retryable transport error.
func (rl *LocalLimiter) Wait(ctx context.Context, key string) error {
	if !rl.config.Enabled {
		return nil
	}
	if err := rl.limiterFor(key).Wait(ctx); err != nil {
		return errors.TransportError("rate limit wait aborted for "+key, err)
	}
	return nil
}

// Allow reports whether key may proceed now, consuming a token if so
func (rl *LocalLimiter) Allow(key string) bool {
	if !rl.config.Enabled {
		return true
	}
	return rl.limiterFor(key).Allow()
}

func (rl *LocalLimiter) limiterFor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if time.Since(rl.lastCleanup) > rl.config.CleanupPeriod {
		rl.cleanup()
	}

	entry, exists := rl.limiters[key]
	if !exists {
		entry = &limiterEntry{
			limiter: rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.BurstSize),
		}
		rl.limiters[key] = entry
		if len(rl.limiters) > rl.config.MaxKeys {
			rl.cleanup()
		}
	}
	entry.lastUsed = time.Now()
	return entry.limiter
}

// cleanup removes limiters that haven't been used recently
func (rl *LocalLimiter) cleanup() {
	cutoff := time.Now().Add(-rl.config.CleanupPeriod)
	for key, entry := range rl.limiters {
		if entry.lastUsed.Before(cutoff) {
			delete(rl.limiters, key)
		}
	}
	rl.lastCleanup = time.Now()
}

// Stats returns rate limiter statistics
func (rl *LocalLimiter) Stats() map[string]interface{} {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	keys := make(map[string]float64, len(rl.limiters))
	for key, entry := range rl.limiters {
		keys[key] = entry.limiter.Tokens()
	}
	return map[string]interface{}{
		"enabled":             rl.config.Enabled,
		"requests_per_second": rl.config.RequestsPerSecond,
		"burst_size":          rl.config.BurstSize,
		"available_tokens":    keys,
	}
}

var _ Limiter = (*LocalLimiter)(nil)
