package revocations

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisRepo(t *testing.T) (*RedisRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisRepository(client, "test:revoked:"), mr
}

func TestRedisInsert_SetsTTLFromExpiry(t *testing.T) {
	repo, mr := newRedisRepo(t)
	ctx := context.Background()
	now := time.Now()

	inserted, err := repo.Insert(ctx, "tok", now, now.Add(10*time.Minute))
	require.NoError(t, err)
	assert.True(t, inserted)

	assert.True(t, mr.Exists("test:revoked:tok"))
	ttl := mr.TTL("test:revoked:tok")
	assert.InDelta(t, (10 * time.Minute).Seconds(), ttl.Seconds(), 1)
}

func TestRedisInsert_DuplicateIsNoop(t *testing.T) {
	repo, _ := newRedisRepo(t)
	ctx := context.Background()
	now := time.Now()

	first, err := repo.Insert(ctx, "tok", now, now.Add(time.Minute))
	require.NoError(t, err)
	second, err := repo.Insert(ctx, "tok", now, now.Add(time.Minute))
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)
}

func TestRedisInsert_AlreadyExpiredNotStored(t *testing.T) {
	repo, mr := newRedisRepo(t)
	now := time.Now()

	inserted, err := repo.Insert(context.Background(), "old", now, now.Add(-time.Second))
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.False(t, mr.Exists("test:revoked:old"))
}

func TestRedisExists_FollowsTTL(t *testing.T) {
	repo, mr := newRedisRepo(t)
	ctx := context.Background()
	now := time.Now()

	_, err := repo.Insert(ctx, "tok", now, now.Add(time.Minute))
	require.NoError(t, err)

	ok, err := repo.Exists(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Exists(ctx, "other")
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(2 * time.Minute)

	ok, err = repo.Exists(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisDeleteExpired_IsNoop(t *testing.T) {
	repo, _ := newRedisRepo(t)

	n, err := repo.DeleteExpired(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRedisStats(t *testing.T) {
	repo, mr := newRedisRepo(t)
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 150; i++ {
		_, err := repo.Insert(ctx, fmt.Sprintf("tok-%d", i), now, now.Add(time.Hour))
		require.NoError(t, err)
	}
	_, err := repo.Insert(ctx, "short", now, now.Add(2*time.Minute))
	require.NoError(t, err)
	// keys outside the prefix are ignored
	require.NoError(t, mr.Set("unrelated", "x"))

	s, err := repo.Stats(ctx, now.Add(5*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(151), s.Total)
	assert.Equal(t, int64(1), s.Expired)
	assert.Equal(t, int64(150), s.Active)
}

func TestRedis_Unavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 100 * time.Millisecond,
	})
	t.Cleanup(func() { _ = client.Close() })
	repo := NewRedisRepository(client, "")

	_, err := repo.Exists(context.Background(), "tok")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis error")
}
