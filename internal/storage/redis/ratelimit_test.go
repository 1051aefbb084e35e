package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rryowa/nexus/internal/util"
)

func newLimiter(t *testing.T, limit int) (*RateLimitStorage, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRateLimitStorage(client, &util.RateLimiterConfig{
		Limit:     limit,
		Interval:  time.Minute,
		BlockTime: 5 * time.Minute,
	}), mr
}

func TestAllow_BlocksAfterLimit(t *testing.T) {
	limiter, _ := newLimiter(t, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, _, err := limiter.Allow(ctx, "1.2.3.4:/api/auth/login")
		require.NoError(t, err)
		require.True(t, ok, "hit %d", i+1)
	}

	ok, retry, err := limiter.Allow(ctx, "1.2.3.4:/api/auth/login")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 5*time.Minute, retry)

	ok, retry, err = limiter.Allow(ctx, "1.2.3.4:/api/auth/login")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Positive(t, retry)
}

func TestAllow_KeysAreIndependent(t *testing.T) {
	limiter, _ := newLimiter(t, 1)
	ctx := context.Background()

	ok, _, err := limiter.Allow(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)

	ok, _, err = limiter.Allow(ctx, "b")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAllow_CounterCarriesWindowTTL(t *testing.T) {
	limiter, mr := newLimiter(t, 5)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _, err := limiter.Allow(ctx, "k")
		require.NoError(t, err)
	}

	assert.Equal(t, time.Minute, mr.TTL(countKeyPrefix+"k"))
	count, err := mr.Get(countKeyPrefix + "k")
	require.NoError(t, err)
	assert.Equal(t, "3", count)
}

func TestAllow_WindowExpires(t *testing.T) {
	limiter, mr := newLimiter(t, 1)
	ctx := context.Background()

	ok, _, err := limiter.Allow(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(time.Minute + time.Second)

	ok, _, err = limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAllow_BlockExpires(t *testing.T) {
	limiter, mr := newLimiter(t, 1)
	ctx := context.Background()

	_, _, _ = limiter.Allow(ctx, "k")
	ok, _, err := limiter.Allow(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)

	mr.FastForward(5*time.Minute + time.Second)

	ok, _, err = limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAllow_RedisDown(t *testing.T) {
	limiter, mr := newLimiter(t, 1)
	mr.Close()

	_, _, err := limiter.Allow(context.Background(), "k")
	require.Error(t, err)
}
