package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	c := NewFromClient(rc, time.Hour)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestNewClientFailsWhenUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewClient(ctx, "127.0.0.1", 1, "", 0, time.Hour)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to connect to redis")
}

func TestEmbeddingRoundTrip(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	want := []float32{0.25, -1.5, 3}
	require.NoError(t, c.SetEmbedding(ctx, "k1", want))

	got, ok, err := c.GetEmbedding(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	assert.True(t, mr.Exists("tutorsim:embedding:k1"))
	assert.False(t, mr.Exists("k1"))
	assert.Equal(t, time.Hour, mr.TTL("tutorsim:embedding:k1"))
}

func TestGetEmbeddingMiss(t *testing.T) {
	c, _ := newTestClient(t)

	got, ok, err := c.GetEmbedding(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestGetEmbeddingCorruptValue(t *testing.T) {
	c, mr := newTestClient(t)
	require.NoError(t, mr.Set("tutorsim:embedding:bad", "not json"))

	_, ok, err := c.GetEmbedding(context.Background(), "bad")
	require.Error(t, err)
	assert.False(t, ok)
}

func TestPurgeRemovesOnlyEmbeddings(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.SetEmbedding(ctx, "a", []float32{1}))
	require.NoError(t, c.SetEmbedding(ctx, "b", []float32{2}))
	require.NoError(t, mr.Set("other:key", "keep"))

	removed, err := c.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	assert.False(t, mr.Exists("tutorsim:embedding:a"))
	assert.False(t, mr.Exists("tutorsim:embedding:b"))
	assert.True(t, mr.Exists("other:key"))

	removed, err = c.Purge(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
