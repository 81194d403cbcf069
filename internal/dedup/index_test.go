package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndex_SeededMembership(t *testing.T) {
	idx := NewIndex([]string{"+923347600608", "+15551234567"})

	assert.True(t, idx.Contains("+923347600608"))
	assert.True(t, idx.Contains("+15551234567"))
	assert.False(t, idx.Contains("+442079460958"))
	assert.Equal(t, 2, idx.Len())
}

func TestIndex_AddRegistersInFlight(t *testing.T) {
	idx := NewIndex(nil)

	assert.False(t, idx.Contains("+971501234567"))
	idx.Add("+971501234567")
	assert.True(t, idx.Contains("+971501234567"))
}

func TestIndex_CheckAndAdd(t *testing.T) {
	idx := NewIndex([]string{"+923347600608"})

	assert.False(t, idx.CheckAndAdd("+923347600608"), "seeded phone must report duplicate")
	assert.True(t, idx.CheckAndAdd("+15551234567"), "first sight must be accepted")
	assert.False(t, idx.CheckAndAdd("+15551234567"), "second sight within batch must report duplicate")
	assert.Equal(t, 2, idx.Len())
}
