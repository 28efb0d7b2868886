package testutil

import (
	"context"
	"sync"
	"time"

	"usps-gateway/internal/oauth2"
)

// MockTokenSource implements usps.TokenSource without any network calls
type MockTokenSource struct {
	mu          sync.Mutex
	value       string
	tokenCalls  map[string]int
	invalidated map[string]int

	// Control error injection
	ErrorOnMethod map[string]error
}

// NewMockTokenSource returns a source that always issues value
func NewMockTokenSource(value string) *MockTokenSource {
	return &MockTokenSource{
		value:         value,
		tokenCalls:    make(map[string]int),
		invalidated:   make(map[string]int),
		ErrorOnMethod: make(map[string]error),
	}
}

func (m *MockTokenSource) Token(_ context.Context, family, scope string) (*oauth2.CachedToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokenCalls[family]++
	if err := m.ErrorOnMethod["Token"]; err != nil {
		return nil, err
	}
	return &oauth2.CachedToken{
		Value:     m.value,
		TokenType: "Bearer",
		Scope:     scope,
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

func (m *MockTokenSource) Invalidate(_ context.Context, family string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidated[family]++
	return m.ErrorOnMethod["Invalidate"]
}

// TokenCalls returns how many tokens were requested for family
func (m *MockTokenSource) TokenCalls(family string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokenCalls[family]
}

// Invalidations returns how many times family was invalidated
func (m *MockTokenSource) Invalidations(family string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.invalidated[family]
}
