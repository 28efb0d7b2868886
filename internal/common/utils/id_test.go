package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateRequestID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateRequestID()
		assert.True(t, IsRequestID(id), id)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestIsRequestID(t *testing.T) {
	assert.False(t, IsRequestID(""))
	assert.False(t, IsRequestID("req-"))
	assert.False(t, IsRequestID("req-not-a-uuid"))
	assert.False(t, IsRequestID("6f1c2f7e-0c1d-4a43-9d53-3f0a4b2d8c11"))
	assert.True(t, IsRequestID("req-6f1c2f7e-0c1d-4a43-9d53-3f0a4b2d8c11"))
}
