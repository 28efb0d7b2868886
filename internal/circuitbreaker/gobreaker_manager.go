package circuitbreaker

import (
	"context"
	"sort"
	"sync"

	"usps-gateway/internal/common/logging"
)

// GoBreakerManager hands out one breaker per name
type GoBreakerManager struct {
	breakers map[string]*GoBreakerAdapter
	config   Config
	logger   logging.Logger
	mu       sync.RWMutex
}

// NewGoBreakerManager creates a manager whose breakers share config
func NewGoBreakerManager(config Config, logger logging.Logger) *GoBreakerManager {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &GoBreakerManager{
		breakers: make(map[string]*GoBreakerAdapter),
		config:   config,
		logger:   logger,
	}
}

// Get returns the breaker for name, creating it on first use
func (m *GoBreakerManager) Get(name string) *GoBreakerAdapter {
	m.mu.RLock()
	breaker, ok := m.breakers[name]
	m.mu.RUnlock()
	if ok {
		return breaker
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if breaker, ok := m.breakers[name]; ok {
		return breaker
	}
	breaker = NewGoBreaker(name, m.config, m.logger)
	m.breakers[name] = breaker
	return breaker
}

// Execute executes a function with circuit breaker protection
func (m *GoBreakerManager) Execute(ctx context.Context, name string, fn func() error) error {
	return m.Get(name).Execute(ctx, fn)
}

// AllStats returns statistics for all circuit breakers, sorted by name
func (m *GoBreakerManager) AllStats() []Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := make([]Stats, 0, len(m.breakers))
	for _, breaker := range m.breakers {
		stats = append(stats, breaker.Stats())
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })
	return stats
}

// IsOpen checks if a circuit breaker is in open state
func (m *GoBreakerManager) IsOpen(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if breaker, exists := m.breakers[name]; exists {
		return breaker.IsOpen()
	}
	return false
}
