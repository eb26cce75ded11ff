package redis

import (
	"context"
	"testing"
	"time"

	"credentials_service/internal/lib/keygen"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *RedisRepo) {
	t.Helper()

	mr := miniredis.RunT(t)
	repo := NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), ttl)
	t.Cleanup(repo.Close)

	return mr, repo
}

func TestMarkConsumed(t *testing.T) {
	mr, repo := newRepo(t, time.Hour)
	ctx := context.Background()

	first, err := repo.MarkConsumed(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := repo.MarkConsumed(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, again)

	assert.True(t, mr.Exists(consumedKeyPrefix+keygen.Hash("k1")))
	assert.False(t, mr.Exists(consumedKeyPrefix+"k1"), "raw key must not be stored")
	assert.Equal(t, time.Hour, mr.TTL(consumedKeyPrefix+keygen.Hash("k1")))
}

func TestRelease(t *testing.T) {
	_, repo := newRepo(t, time.Hour)
	ctx := context.Background()

	_, err := repo.MarkConsumed(ctx, "k1")
	require.NoError(t, err)

	require.NoError(t, repo.Release(ctx, "k1"))

	first, err := repo.MarkConsumed(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, first)
}

func TestMarkerExpires(t *testing.T) {
	mr, repo := newRepo(t, time.Minute)
	ctx := context.Background()

	_, err := repo.MarkConsumed(ctx, "k1")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	first, err := repo.MarkConsumed(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, first)
}

func TestMarkConsumed_ServerDown(t *testing.T) {
	mr, repo := newRepo(t, time.Hour)
	mr.Close()

	_, err := repo.MarkConsumed(context.Background(), "k1")
	require.Error(t, err)
}
