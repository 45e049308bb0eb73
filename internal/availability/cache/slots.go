// Package cache keeps slot listings in Redis. Entries are namespaced by a
// version counter per business day; bumping the counter orphans every listing
// of that day, which then expires through its TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"agenda/internal/availability/engine"
)

type SlotsKey struct {
	BusinessID  string
	ServiceID   string
	Date        string
	StaffID     string
	Granularity int
}

// Lookup is the outcome of a Get. Version is the business-day version the
// lookup was made against; a listing computed after a miss must be stored with
// it so that an invalidation racing the computation orphans the write.
type Lookup struct {
	Slots   []engine.SlotAvailability
	Hit     bool
	Version int64
}

type SlotCache interface {
	Get(ctx context.Context, key SlotsKey) (Lookup, error)
	// Set stores slots under version, as returned by the Get that missed.
	Set(ctx context.Context, key SlotsKey, version int64, slots []engine.SlotAvailability) error
	// Invalidate drops every cached listing of businessID on date (YYYY-MM-DD).
	Invalidate(ctx context.Context, businessID, date string) error
}

type redisSlotCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisSlotCache(rdb *redis.Client, ttl time.Duration) SlotCache {
	return &redisSlotCache{rdb: rdb, ttl: ttl}
}

func versionKey(businessID, date string) string {
	return fmt.Sprintf("agenda:slots:ver:%s:%s", businessID, date)
}

func dataKey(key SlotsKey, version int64) string {
	staff := key.StaffID
	if staff == "" {
		staff = "*"
	}
	return fmt.Sprintf("agenda:slots:%s:%s:v%d:%s:%s:%d",
		key.BusinessID, key.Date, version, key.ServiceID, staff, key.Granularity)
}

func (c *redisSlotCache) version(ctx context.Context, businessID, date string) (int64, error) {
	v, err := c.rdb.Get(ctx, versionKey(businessID, date)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (c *redisSlotCache) Get(ctx context.Context, key SlotsKey) (Lookup, error) {
	version, err := c.version(ctx, key.BusinessID, key.Date)
	if err != nil {
		return Lookup{}, fmt.Errorf("slot cache version: %w", err)
	}

	lookup := Lookup{Version: version}
	raw, err := c.rdb.Get(ctx, dataKey(key, version)).Bytes()
	if errors.Is(err, redis.Nil) {
		return lookup, nil
	}
	if err != nil {
		return Lookup{}, fmt.Errorf("slot cache get: %w", err)
	}

	if err := json.Unmarshal(raw, &lookup.Slots); err != nil {
		return Lookup{}, fmt.Errorf("slot cache decode: %w", err)
	}
	lookup.Hit = true
	return lookup, nil
}

func (c *redisSlotCache) Set(ctx context.Context, key SlotsKey, version int64, slots []engine.SlotAvailability) error {
	raw, err := json.Marshal(slots)
	if err != nil {
		return fmt.Errorf("slot cache encode: %w", err)
	}
	if err := c.rdb.Set(ctx, dataKey(key, version), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("slot cache set: %w", err)
	}
	return nil
}

func (c *redisSlotCache) Invalidate(ctx context.Context, businessID, date string) error {
	key := versionKey(businessID, date)
	pipe := c.rdb.TxPipeline()
	pipe.Incr(ctx, key)
	// The counter outlives every listing written under the previous version.
	pipe.Expire(ctx, key, 2*c.ttl+time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("slot cache invalidate: %w", err)
	}
	return nil
}

type noopSlotCache struct{}

// NewNoopSlotCache is used when Redis is disabled: every lookup misses.
func NewNoopSlotCache() SlotCache {
	return noopSlotCache{}
}

func (noopSlotCache) Get(context.Context, SlotsKey) (Lookup, error) {
	return Lookup{}, nil
}

func (noopSlotCache) Set(context.Context, SlotsKey, int64, []engine.SlotAvailability) error {
	return nil
}

func (noopSlotCache) Invalidate(context.Context, string, string) error {
	return nil
}
