package ratelimit_test

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-travel/internal/ratelimit"
)

func newLimiter(t *testing.T) (ratelimit.Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return ratelimit.Limiter{Client: client, Prefix: "ratelimit:quote:"}, mr
}

func TestLimiterTakeExhaustsQuota(t *testing.T) {
	limiter, _ := newLimiter(t)
	ctx := context.Background()
	quota := ratelimit.Quota{Window: time.Minute, Max: 3}

	for i := 0; i < quota.Max; i++ {
		d, err := limiter.Take(ctx, "203.0.113.7", quota)
		require.NoError(t, err)
		require.True(t, d.Allowed, "request %d should fit the quota", i+1)
		require.Equal(t, quota.Max-(i+1), d.Remaining)
	}

	d, err := limiter.Take(ctx, "203.0.113.7", quota)
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Zero(t, d.Remaining)
}

func TestLimiterTakeIsolatesCallers(t *testing.T) {
	limiter, _ := newLimiter(t)
	ctx := context.Background()
	quota := ratelimit.Quota{Window: time.Minute, Max: 1}

	d, err := limiter.Take(ctx, "198.51.100.1", quota)
	require.NoError(t, err)
	require.True(t, d.Allowed)

	d, err = limiter.Take(ctx, "198.51.100.1", quota)
	require.NoError(t, err)
	require.False(t, d.Allowed)

	// A second caller quoting the same package is unaffected by the first
	// caller burning through its quota.
	d, err = limiter.Take(ctx, "198.51.100.2", quota)
	require.NoError(t, err)
	require.True(t, d.Allowed)
}

func TestLimiterTakeWindowExpires(t *testing.T) {
	limiter, mr := newLimiter(t)
	ctx := context.Background()
	quota := ratelimit.Quota{Window: 30 * time.Second, Max: 1}

	d, err := limiter.Take(ctx, "192.0.2.9", quota)
	require.NoError(t, err)
	require.True(t, d.Allowed)

	d, err = limiter.Take(ctx, "192.0.2.9", quota)
	require.NoError(t, err)
	require.False(t, d.Allowed)

	mr.FastForward(quota.Window)

	d, err = limiter.Take(ctx, "192.0.2.9", quota)
	require.NoError(t, err)
	require.True(t, d.Allowed)
}

func TestLimiterTakeDisabledWithoutClient(t *testing.T) {
	limiter := ratelimit.Limiter{}

	d, err := limiter.Take(context.Background(), "anyone", ratelimit.Quota{Window: time.Minute, Max: 5})
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.Equal(t, 5, d.Remaining)
}
