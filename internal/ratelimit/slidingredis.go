package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Quota is the number of requests a single caller may issue inside a sliding
// window.
type Quota struct {
	Window time.Duration
	Max    int
}

// Decision is the outcome of counting one request against a quota.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter tracks per-caller quote traffic in Redis sorted sets, one set per
// caller under Prefix. A quote is cheap on a warm rule cache but pays a full
// rule fan-out on a miss, so sustained bursts from one caller are cut off
// rather than absorbed.
type Limiter struct {
	Client *redis.Client
	Prefix string
}

// Take registers one request for the caller and decides whether it still
// fits the quota. A nil client or a non-positive quota disables limiting.
func (l Limiter) Take(ctx context.Context, caller string, q Quota) (Decision, error) {
	reset := time.Now().Add(q.Window)
	if l.Client == nil || q.Max <= 0 || q.Window <= 0 {
		return Decision{Allowed: true, Remaining: clampNonNegative(q.Max), ResetAt: reset}, nil
	}

	now := time.Now()
	key := l.Prefix + caller
	cutoff := strconv.FormatInt(now.Add(-q.Window).UnixNano(), 10)

	pipe := l.Client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", cutoff)
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
	count := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, q.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{ResetAt: reset}, err
	}

	seen := int(count.Val())
	return Decision{
		Allowed:   seen <= q.Max,
		Remaining: clampNonNegative(q.Max - seen),
		ResetAt:   reset,
	}, nil
}

func clampNonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
