package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-io/helpdesk-ce/internal/relevance"
)

func TestLocalCacheRoundTrip(t *testing.T) {
	lc := NewLocalCache(10, time.Minute)
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	require.NoError(t, lc.SetObject(ctx, "k1", payload{Name: "x", Count: 3}, 0))

	var got payload
	ok, err := lc.GetObject(ctx, "k1", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, payload{Name: "x", Count: 3}, got)

	ok, err = lc.GetObject(ctx, "missing", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocalCacheExpiry(t *testing.T) {
	lc := NewLocalCache(10, time.Minute)
	ctx := context.Background()

	require.NoError(t, lc.SetObject(ctx, "short", "v", time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	var got string
	ok, err := lc.GetObject(ctx, "short", &got)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, lc.Len())
}

func TestLocalCacheEvictsAtCapacity(t *testing.T) {
	lc := NewLocalCache(2, time.Minute)
	ctx := context.Background()

	require.NoError(t, lc.SetObject(ctx, "a", 1, 0))
	require.NoError(t, lc.SetObject(ctx, "b", 2, 0))
	require.NoError(t, lc.SetObject(ctx, "c", 3, 0))

	assert.Equal(t, 2, lc.Len())
}

func TestLocalCachePurgeExpired(t *testing.T) {
	lc := NewLocalCache(10, time.Minute)
	ctx := context.Background()

	require.NoError(t, lc.SetObject(ctx, "stale1", 1, time.Millisecond))
	require.NoError(t, lc.SetObject(ctx, "stale2", 2, time.Millisecond))
	require.NoError(t, lc.SetObject(ctx, "fresh", 3, time.Hour))
	time.Sleep(5 * time.Millisecond)

	assert.Equal(t, 2, lc.PurgeExpired())
	assert.Equal(t, 1, lc.Len())
}

func TestLocalCacheDelete(t *testing.T) {
	lc := NewLocalCache(10, time.Minute)
	ctx := context.Background()

	require.NoError(t, lc.SetObject(ctx, "k", "v", 0))
	require.NoError(t, lc.Delete(ctx, "k"))

	var got string
	ok, err := lc.GetObject(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVectorCacheAdapterRoundTrip(t *testing.T) {
	lc := NewLocalCache(10, time.Minute)
	vc := NewVectorCache(lc, time.Hour)

	_, ok := vc.GetVector("tv:abc")
	assert.False(t, ok)

	stamp := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	vc.SetVector("tv:abc", &relevance.TermVector{
		Counts:       map[string]int{"printer": 2, "jam": 1},
		Total:        5,
		LastModified: stamp,
	})

	got, ok := vc.GetVector("tv:abc")
	require.True(t, ok)
	assert.Equal(t, 2, got.Counts["printer"])
	assert.Equal(t, 5, got.Total)
	assert.True(t, stamp.Equal(got.LastModified))
}
