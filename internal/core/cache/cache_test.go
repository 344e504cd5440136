package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := &Cache{RDB: redis.NewClient(&redis.Options{Addr: mr.Addr()}), Prefix: "test:"}
	t.Cleanup(func() { _ = c.Close() })
	return mr, c
}

type item struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

func TestGetOrLoadJSON_CachesUntilTTL(t *testing.T) {
	mr, c := setupTestRedis(t)
	ctx := context.Background()
	var calls int32
	load := func(context.Context) ([]item, error) {
		atomic.AddInt32(&calls, 1)
		return []item{{Query: "react", Count: 3}}, nil
	}

	got, err := GetOrLoadJSON(c, ctx, "popular", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, []item{{Query: "react", Count: 3}}, got)
	assert.True(t, mr.Exists("test:popular"))

	_, err = GetOrLoadJSON(c, ctx, "popular", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	mr.FastForward(2 * time.Minute)
	_, err = GetOrLoadJSON(c, ctx, "popular", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGetOrLoad_LoadErrorNotCached(t *testing.T) {
	mr, c := setupTestRedis(t)
	boom := errors.New("boom")
	_, err := c.GetOrLoad(context.Background(), "k", time.Minute, func(context.Context) ([]byte, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("test:k"))
}

func TestCache_DisabledFallsThrough(t *testing.T) {
	c := New("", "", 0)
	assert.False(t, c.Enabled())
	require.NoError(t, c.Ping(context.Background()))

	var calls int
	for i := 0; i < 2; i++ {
		got, err := GetOrLoadJSON(c, context.Background(), "k", time.Minute, func(context.Context) (int, error) {
			calls++
			return 7, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 7, got)
	}
	assert.Equal(t, 2, calls)
	assert.NoError(t, c.Invalidate(context.Background(), "k"))
}

func TestCache_Invalidate(t *testing.T) {
	mr, c := setupTestRedis(t)
	require.NoError(t, mr.Set("test:a", "1"))
	require.NoError(t, c.Invalidate(context.Background(), "a"))
	assert.False(t, mr.Exists("test:a"))
}
