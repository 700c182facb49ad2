package kv

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client, "gragolf:"), mr
}

func TestRedisStore_GetMiss(t *testing.T) {
	s, _ := setupTestRedis(t)

	v, ok, err := s.Get(context.Background(), "cart")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, v)
}

func TestRedisStore_SetGetDelete(t *testing.T) {
	s, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "cart", []byte(`[{"name":"x"}]`)))

	raw, err := mr.Get("gragolf:cart")
	require.NoError(t, err)
	assert.Equal(t, `[{"name":"x"}]`, raw)

	v, ok, err := s.Get(ctx, "cart")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte(`[{"name":"x"}]`), v)

	require.NoError(t, s.Delete(ctx, "cart"))
	assert.False(t, mr.Exists("gragolf:cart"))
}

func TestRedisStore_TypedStoreTreatsCorruptAsDefault(t *testing.T) {
	s, mr := setupTestRedis(t)
	ctx := context.Background()
	st := NewStore(s, zap.NewNop()).Namespace("o1")

	require.NoError(t, mr.Set("gragolf:origin:o1:cartCount", "garbage"))

	n, err := Get(ctx, st, KeyCartCount, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRedisStore_PingFailsWhenServerDown(t *testing.T) {
	s, mr := setupTestRedis(t)
	mr.Close()

	assert.Error(t, s.Ping(context.Background()))
	_, _, err := s.Get(context.Background(), "cart")
	assert.Error(t, err)
}
