package keypool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsEmpty(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrEmptyPool)
}

func TestNextReturnsCurrentAndAdvances(t *testing.T) {
	pool, err := New([]string{"a", "b", "c"})
	require.NoError(t, err)

	assert.Equal(t, "a", pool.Next())
	assert.Equal(t, "b", pool.Next())
	assert.Equal(t, "c", pool.Next())
	// wraps around
	assert.Equal(t, "a", pool.Next())
}

func TestRotateAdvancesWithoutReturning(t *testing.T) {
	pool, err := New([]string{"a", "b"})
	require.NoError(t, err)

	assert.Equal(t, "a", pool.Current())
	pool.Rotate()
	assert.Equal(t, "b", pool.Current())
	pool.Rotate()
	assert.Equal(t, "a", pool.Current())
}

func TestRotationIsBoundedByPoolSize(t *testing.T) {
	keys := []string{"k1", "k2", "k3"}
	pool, err := New(keys)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for i := 0; i < pool.Size(); i++ {
		seen[pool.Current()] = true
		pool.Rotate()
	}

	assert.Len(t, seen, len(keys))
	// after a full rotation we are back at the start
	assert.Equal(t, "k1", pool.Current())
}
