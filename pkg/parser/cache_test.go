package parser

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheGetSetRoundTrips(t *testing.T) {
	c, err := NewCache(10, nil, 0)
	require.NoError(t, err)

	_, ok := c.Get(context.Background(), 1, "nonce-1", "chiens")
	assert.False(t, ok)

	result := ParseResult{Transcription: "chiens", Best: "chien-s"}
	c.Set(context.Background(), 1, "nonce-1", "chiens", result)

	got, ok := c.Get(context.Background(), 1, "nonce-1", "chiens")
	require.True(t, ok)
	assert.Equal(t, result, got)

	// A different compile attempt never hits the stale entry.
	_, ok = c.Get(context.Background(), 1, "nonce-2", "chiens")
	assert.False(t, ok)
}

func TestCacheExportAndLoadRoundTrip(t *testing.T) {
	c, err := NewCache(10, nil, 0)
	require.NoError(t, err)
	c.Set(context.Background(), 1, "nonce-1", "chiens", ParseResult{Transcription: "chiens", Best: "chien-s"})

	path := filepath.Join(t.TempDir(), "cache.pickle")
	require.NoError(t, c.Export(path))

	loaded, err := NewCache(10, nil, 0)
	require.NoError(t, err)
	require.NoError(t, loaded.Load(path))

	got, ok := loaded.Get(context.Background(), 1, "nonce-1", "chiens")
	require.True(t, ok)
	assert.Equal(t, "chien-s", got.Best)
}

func TestCacheClearPersistsBeforePurging(t *testing.T) {
	c, err := NewCache(10, nil, 0)
	require.NoError(t, err)
	c.Set(context.Background(), 1, "nonce-1", "chiens", ParseResult{Transcription: "chiens", Best: "chien-s"})

	path := filepath.Join(t.TempDir(), "cache.pickle")
	require.NoError(t, c.Clear(true, path))

	_, ok := c.Get(context.Background(), 1, "nonce-1", "chiens")
	assert.False(t, ok)

	reloaded, err := NewCache(10, nil, 0)
	require.NoError(t, err)
	require.NoError(t, reloaded.Load(path))
	got, ok := reloaded.Get(context.Background(), 1, "nonce-1", "chiens")
	require.True(t, ok)
	assert.Equal(t, "chien-s", got.Best)
}
