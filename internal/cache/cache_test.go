package cache

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCache(t *testing.T) Cache {
	t.Helper()
	c := NewMemoryCache(&Config{MaxKeys: 3, CleanupInterval: time.Minute}, zap.NewNop())
	t.Cleanup(func() { c.Close() })
	return c
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", "v", 10*time.Millisecond))
	require.NoError(t, c.Set(ctx, "forever", "v", 0))
	assert.True(t, c.Exists(ctx, "short"))

	time.Sleep(20 * time.Millisecond)
	assert.False(t, c.Exists(ctx, "short"))
	assert.True(t, c.Exists(ctx, "forever"))
}

func TestMemoryCacheEvictsWhenFull(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c", "d"} {
		require.NoError(t, c.Set(ctx, key, key, time.Minute))
	}

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Keys)
	assert.True(t, c.Exists(ctx, "d"))
}

func TestMemoryCacheIncrementAndPattern(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	n, err := c.Increment(ctx, "rate:1", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = c.Increment(ctx, "rate:1", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	require.NoError(t, c.Set(ctx, "text", "x", time.Minute))
	_, err = c.Increment(ctx, "text", 1)
	assert.Error(t, err)

	require.NoError(t, c.DeletePattern(ctx, "rate:*"))
	assert.False(t, c.Exists(ctx, "rate:1"))
	assert.True(t, c.Exists(ctx, "text"))
}

type board struct {
	Names []string `json:"names"`
}

func TestRememberCachesResult(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	calls := 0
	load := func() (board, error) {
		calls++
		return board{Names: []string{"ana", "ben"}}, nil
	}

	first, err := Remember(ctx, c, zap.NewNop(), "board", time.Minute, load)
	require.NoError(t, err)
	second, err := Remember(ctx, c, zap.NewNop(), "board", time.Minute, load)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestRememberDoesNotCacheErrors(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	_, err := Remember(ctx, c, zap.NewNop(), "k", time.Minute, func() (int, error) {
		return 0, errors.New("db down")
	})
	assert.Error(t, err)
	assert.False(t, c.Exists(ctx, "k"))
}

func TestMemorySetStore(t *testing.T) {
	s := NewMemorySetStore()
	ctx := context.Background()

	members, err := s.Members(ctx, "seen:u1")
	require.NoError(t, err)
	assert.Empty(t, members)

	require.NoError(t, s.Add(ctx, "seen:u1", "b1", "b2"))
	require.NoError(t, s.Add(ctx, "seen:u1", "b2", "b3"))

	members, err = s.Members(ctx, "seen:u1")
	require.NoError(t, err)
	sort.Strings(members)
	assert.Equal(t, []string{"b1", "b2", "b3"}, members)

	other, err := s.Members(ctx, "seen:u2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestNewCacheRejectsUnknownProvider(t *testing.T) {
	_, err := NewCache(&Config{Provider: "memcached"}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewSetStore(&Config{Provider: "memcached"}, zap.NewNop())
	assert.Error(t, err)
}
