package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowSpendsTokens(t *testing.T) {
	l := New()
	defer l.Stop()

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("client", 3, 0), "request %d within capacity", i)
	}
	assert.False(t, l.Allow("client", 3, 0), "bucket exhausted")
}

func TestKeysAreIndependent(t *testing.T) {
	l := New()
	defer l.Stop()

	assert.True(t, l.Allow("a", 1, 0))
	assert.False(t, l.Allow("a", 1, 0))
	assert.True(t, l.Allow("b", 1, 0))
}
