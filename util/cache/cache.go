// Package cache wraps a Redis client used as a short-TTL read cache for
// availability pre-checks. Every helper tolerates a nil client so the
// application degrades gracefully when Redis is unreachable.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache struct {
	rdb *redis.Client
}

// New connects to Redis at addr. It returns a Cache with a nil client (a
// no-op cache) when addr is empty or the server does not answer a ping.
func New(addr string) *Cache {
	if addr == "" {
		return &Cache{}
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return &Cache{}
	}
	return &Cache{rdb: client}
}

func (c *Cache) Enabled() bool { return c != nil && c.rdb != nil }

// availability entries are versioned per vehicle; bumping the version on a
// booking write invalidates every cached range for that vehicle at once.

func (c *Cache) availabilityKey(ctx context.Context, vehicleID int64, start, end string) string {
	ver, _ := c.rdb.Get(ctx, fmt.Sprintf("avail:ver:%d", vehicleID)).Int64()
	return fmt.Sprintf("avail:%d:%d:%s:%s", vehicleID, ver, start, end)
}

// GetAvailability returns (available, found).
func (c *Cache) GetAvailability(ctx context.Context, vehicleID int64, start, end string) (bool, bool) {
	if !c.Enabled() {
		return false, false
	}
	v, err := c.rdb.Get(ctx, c.availabilityKey(ctx, vehicleID, start, end)).Result()
	if err != nil {
		return false, false
	}
	return v == "1", true
}

func (c *Cache) SetAvailability(ctx context.Context, vehicleID int64, start, end string, available bool, ttl time.Duration) {
	if !c.Enabled() {
		return
	}
	v := "0"
	if available {
		v = "1"
	}
	_ = c.rdb.Set(ctx, c.availabilityKey(ctx, vehicleID, start, end), v, ttl).Err()
}

// InvalidateVehicle bumps the vehicle's version counter, orphaning all of its
// cached availability entries. Called after every booking write.
func (c *Cache) InvalidateVehicle(ctx context.Context, vehicleID int64) {
	if !c.Enabled() {
		return
	}
	_ = c.rdb.Incr(ctx, fmt.Sprintf("avail:ver:%d", vehicleID)).Err()
}
