package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccessGateOpenMode(t *testing.T) {
	g := NewAccessGate(nil)
	assert.True(t, g.Allowed(1))
	assert.True(t, g.Allowed(-42))
	assert.True(t, g.Allowed(999999999))
}

func TestAccessGateAllowList(t *testing.T) {
	g := NewAccessGate([]string{"7", "42"})

	assert.True(t, g.Allowed(7))
	assert.True(t, g.Allowed(42))
	assert.False(t, g.Allowed(8))
	assert.False(t, g.Allowed(0))
}
