package rules

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-travel/internal/pricing"
)

// Cache stores marshalled rule snapshots in Redis so hot packages skip the
// fan-out read. A nil client disables caching entirely.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a snapshot cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func snapshotKey(packageID uuid.UUID) string {
	return fmt.Sprintf("rules:pkg:%s", packageID)
}

// Get loads a cached snapshot. It reports whether the key existed.
func (c *Cache) Get(ctx context.Context, packageID uuid.UUID) (pricing.Snapshot, bool, error) {
	if c == nil || c.client == nil {
		return pricing.Snapshot{}, false, nil
	}
	data, err := c.client.Get(ctx, snapshotKey(packageID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return pricing.Snapshot{}, false, nil
		}
		return pricing.Snapshot{}, false, err
	}
	var snap pricing.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return pricing.Snapshot{}, false, err
	}
	return snap, true, nil
}

// Set stores a snapshot with the configured TTL.
func (c *Cache) Set(ctx context.Context, snap pricing.Snapshot) error {
	if c == nil || c.client == nil || c.ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, snapshotKey(snap.Package.ID), data, c.ttl).Err()
}

// Invalidate drops the cached snapshot for a package. Admin mutations call
// this so rule edits take effect on the next quote.
func (c *Cache) Invalidate(ctx context.Context, packageID uuid.UUID) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, snapshotKey(packageID)).Err()
}
