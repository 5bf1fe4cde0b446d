package rules_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-travel/internal/pricing"
	"github.com/noah-isme/backend-travel/internal/rules"
)

func newTestCache(t *testing.T, ttl time.Duration) (*rules.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return rules.NewCache(client, ttl), mr
}

func sampleSnapshot() pricing.Snapshot {
	return pricing.Snapshot{
		Package: pricing.Package{
			ID:       uuid.MustParse("11111111-2222-3333-4444-555555555555"),
			Name:     "Komodo Liveaboard",
			Currency: "USD",
			Active:   true,
		},
		Tiers: []pricing.Tier{
			{ID: uuid.New(), Type: pricing.TierAdult, Price: 450_00, Active: true},
		},
	}
}

func TestCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()
	snap := sampleSnapshot()

	_, hit, err := cache.Get(ctx, snap.Package.ID)
	require.NoError(t, err)
	require.False(t, hit)

	require.NoError(t, cache.Set(ctx, snap))

	got, hit, err := cache.Get(ctx, snap.Package.ID)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, snap.Package.ID, got.Package.ID)
	require.Len(t, got.Tiers, 1)
	require.Equal(t, pricing.Money(450_00), got.Tiers[0].Price)
}

func TestCacheInvalidate(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()
	snap := sampleSnapshot()

	require.NoError(t, cache.Set(ctx, snap))
	require.NoError(t, cache.Invalidate(ctx, snap.Package.ID))

	_, hit, err := cache.Get(ctx, snap.Package.ID)
	require.NoError(t, err)
	require.False(t, hit)
}

func TestCacheExpiry(t *testing.T) {
	cache, mr := newTestCache(t, time.Second)
	ctx := context.Background()
	snap := sampleSnapshot()

	require.NoError(t, cache.Set(ctx, snap))
	mr.FastForward(2 * time.Second)

	_, hit, err := cache.Get(ctx, snap.Package.ID)
	require.NoError(t, err)
	require.False(t, hit)
}

func TestCacheNilClientDisabled(t *testing.T) {
	cache := rules.NewCache(nil, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, sampleSnapshot()))
	_, hit, err := cache.Get(ctx, uuid.New())
	require.NoError(t, err)
	require.False(t, hit)
}
