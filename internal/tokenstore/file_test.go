package tokenstore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0a1b2c3d4e5f60718293a4b5c6d7e8f90a1b2c3d4e5f60718293a4b5c6d7e8f9"

func newTestStore(t *testing.T, ttl time.Duration, now *time.Time) *FileStore {
	t.Helper()
	return NewFileStore(t.TempDir(), ttl, WithClock(func() time.Time { return *now }))
}

func listEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestFileStore_IssueCreatesSingleEntry(t *testing.T) {
	now := time.Now()
	s := newTestStore(t, time.Minute, &now)

	require.NoError(t, s.Issue(testKey))

	names := listEntries(t, s.Dir())
	require.Len(t, names, 1)
	assert.Equal(t, testKey, names[0])

	// No stray temp files after a successful install.
	for _, name := range names {
		assert.False(t, strings.HasPrefix(name, tempPrefix))
	}
}

func TestFileStore_ReissueOverwrites(t *testing.T) {
	now := time.Now()
	s := newTestStore(t, time.Minute, &now)

	require.NoError(t, s.Issue(testKey))
	first, err := os.ReadFile(filepath.Join(s.Dir(), testKey))
	require.NoError(t, err)

	now = now.Add(10 * time.Second)
	require.NoError(t, s.Issue(testKey))

	names := listEntries(t, s.Dir())
	require.Len(t, names, 1, "re-issuance must not stack tokens")

	second, err := os.ReadFile(filepath.Join(s.Dir(), testKey))
	require.NoError(t, err)
	assert.NotEqual(t, string(first), string(second), "re-issue should restart the TTL with a later timestamp")
}

func TestFileStore_TryConsumeLiveToken(t *testing.T) {
	now := time.Now()
	s := newTestStore(t, time.Minute, &now)
	require.NoError(t, s.Issue(testKey))

	now = now.Add(30 * time.Second)
	ok, err := s.TryConsume(testKey)
	require.NoError(t, err)
	assert.True(t, ok, "token within TTL should be consumable")
	assert.Empty(t, listEntries(t, s.Dir()), "consumed token must be deleted")

	ok, err = s.TryConsume(testKey)
	require.NoError(t, err)
	assert.False(t, ok, "a token is consumable at most once")
}

func TestFileStore_TryConsumeExpiredToken(t *testing.T) {
	now := time.Now()
	s := newTestStore(t, time.Minute, &now)
	require.NoError(t, s.Issue(testKey))

	now = now.Add(time.Minute + time.Second)
	ok, err := s.TryConsume(testKey)
	require.NoError(t, err)
	assert.False(t, ok, "expired token must be treated as absent")
	assert.Empty(t, listEntries(t, s.Dir()), "expired token must be removed on observation")
}

func TestFileStore_TryConsumeMissing(t *testing.T) {
	now := time.Now()
	s := newTestStore(t, time.Minute, &now)

	ok, err := s.TryConsume(testKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStore_TryConsumeCorruptToken(t *testing.T) {
	now := time.Now()
	s := newTestStore(t, time.Minute, &now)
	require.NoError(t, os.MkdirAll(s.Dir(), 0700))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), testKey), []byte("not a timestamp"), 0600))

	ok, err := s.TryConsume(testKey)
	assert.False(t, ok)
	assert.Error(t, err, "corrupt token reported for diagnostics")
	assert.Empty(t, listEntries(t, s.Dir()), "corrupt token must be removed")
}

func TestFileStore_SweepBounded(t *testing.T) {
	now := time.Now()
	s := newTestStore(t, time.Minute, &now)
	for _, key := range []string{"aaa", "bbb", "ccc"} {
		require.NoError(t, s.Issue(key))
	}

	now = now.Add(2 * time.Minute)

	removed, err := s.SweepExpired(2)
	require.NoError(t, err)
	assert.Equal(t, 2, removed, "first bounded sweep removes at most maxChecked entries")
	assert.Len(t, listEntries(t, s.Dir()), 1)

	removed, err = s.SweepExpired(2)
	require.NoError(t, err)
	assert.Equal(t, 1, removed, "second sweep removes the remainder")
	assert.Empty(t, listEntries(t, s.Dir()))
}

func TestFileStore_SweepKeepsLiveTokens(t *testing.T) {
	now := time.Now()
	s := newTestStore(t, time.Minute, &now)
	require.NoError(t, s.Issue("live"))

	removed, err := s.SweepExpired(10)
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.Len(t, listEntries(t, s.Dir()), 1)
}

func TestFileStore_SweepSkipsTempFiles(t *testing.T) {
	now := time.Now()
	s := newTestStore(t, time.Minute, &now)
	require.NoError(t, os.MkdirAll(s.Dir(), 0700))

	// A crashed Issue can leave a temp file behind; sweeps must ignore it.
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), tempPrefix+"stray"), []byte("x"), 0600))

	removed, err := s.SweepExpired(10)
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.Len(t, listEntries(t, s.Dir()), 1)
}

func TestFileStore_SweepMissingDir(t *testing.T) {
	now := time.Now()
	s := NewFileStore(filepath.Join(t.TempDir(), "never-created"), time.Minute,
		WithClock(func() time.Time { return now }))

	removed, err := s.SweepExpired(10)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
