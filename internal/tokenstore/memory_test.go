package tokenstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_ConsumeOnce(t *testing.T) {
	now := time.Now()
	s := NewMemoryStore(time.Minute, WithMemoryClock(func() time.Time { return now }))

	require.NoError(t, s.Issue("k"))
	assert.Equal(t, 1, s.Len())

	ok, err := s.TryConsume("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, s.Len())

	ok, err = s.TryConsume("k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_ExpiredTokenAbsent(t *testing.T) {
	now := time.Now()
	s := NewMemoryStore(time.Minute, WithMemoryClock(func() time.Time { return now }))
	require.NoError(t, s.Issue("k"))

	now = now.Add(time.Minute)
	ok, err := s.TryConsume("k")
	require.NoError(t, err)
	assert.False(t, ok, "age == TTL counts as expired")
	assert.Zero(t, s.Len())
}

func TestMemoryStore_ReissueRestartsTTL(t *testing.T) {
	now := time.Now()
	s := NewMemoryStore(time.Minute, WithMemoryClock(func() time.Time { return now }))

	require.NoError(t, s.Issue("k"))
	now = now.Add(45 * time.Second)
	require.NoError(t, s.Issue("k"))
	assert.Equal(t, 1, s.Len(), "re-issuance must not stack tokens")

	// 45s after the first issue but only 30s after the second: still live.
	now = now.Add(30 * time.Second)
	ok, err := s.TryConsume("k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStore_SweepBounded(t *testing.T) {
	now := time.Now()
	s := NewMemoryStore(time.Minute, WithMemoryClock(func() time.Time { return now }))
	for _, key := range []string{"a", "b", "c"} {
		require.NoError(t, s.Issue(key))
	}

	now = now.Add(2 * time.Minute)

	removed, err := s.SweepExpired(2)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, s.Len())

	removed, err = s.SweepExpired(2)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Zero(t, s.Len())
}
