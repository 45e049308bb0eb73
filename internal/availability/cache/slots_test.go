package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agenda/internal/availability/engine"
	"agenda/pkg/timewindow"
)

func newCache(t *testing.T) (*miniredis.Miniredis, SlotCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, NewRedisSlotCache(rdb, time.Minute)
}

func sampleSlots() []engine.SlotAvailability {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	return []engine.SlotAvailability{{
		Window:            timewindow.New(start, start.Add(time.Hour)),
		EligibleStaffIDs:  []string{"alice"},
		RemainingCapacity: 1,
	}}
}

func TestRedisSlotCache_RoundTrip(t *testing.T) {
	_, c := newCache(t)
	ctx := context.Background()
	key := SlotsKey{BusinessID: "biz", ServiceID: "cut", Date: "2026-03-02", Granularity: 15}

	miss, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, miss.Hit)

	require.NoError(t, c.Set(ctx, key, miss.Version, sampleSlots()))
	got, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, got.Hit)
	require.Len(t, got.Slots, 1)
	assert.True(t, got.Slots[0].Window.Start.Equal(sampleSlots()[0].Window.Start))
	assert.Equal(t, []string{"alice"}, got.Slots[0].EligibleStaffIDs)

	other := key
	other.StaffID = "bob"
	lookup, _ := c.Get(ctx, other)
	assert.False(t, lookup.Hit, "staff filter is part of the key")
}

// store mirrors the service: Get, compute, Set with the version Get saw.
func store(t *testing.T, c SlotCache, key SlotsKey, slots []engine.SlotAvailability) {
	t.Helper()
	lookup, err := c.Get(context.Background(), key)
	require.NoError(t, err)
	require.NoError(t, c.Set(context.Background(), key, lookup.Version, slots))
}

func TestRedisSlotCache_InvalidateDay(t *testing.T) {
	_, c := newCache(t)
	ctx := context.Background()
	monday := SlotsKey{BusinessID: "biz", ServiceID: "cut", Date: "2026-03-02", Granularity: 15}
	tuesday := monday
	tuesday.Date = "2026-03-03"

	store(t, c, monday, sampleSlots())
	store(t, c, tuesday, sampleSlots())
	require.NoError(t, c.Invalidate(ctx, "biz", "2026-03-02"))

	lookup, err := c.Get(ctx, monday)
	require.NoError(t, err)
	assert.False(t, lookup.Hit)

	lookup, _ = c.Get(ctx, tuesday)
	assert.True(t, lookup.Hit, "other days are untouched")

	store(t, c, monday, nil)
	lookup, _ = c.Get(ctx, monday)
	assert.True(t, lookup.Hit)
	assert.Empty(t, lookup.Slots)
}

func TestRedisSlotCache_SetAfterRacingInvalidation(t *testing.T) {
	_, c := newCache(t)
	ctx := context.Background()
	key := SlotsKey{BusinessID: "biz", ServiceID: "cut", Date: "2026-03-02", Granularity: 15}

	miss, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.False(t, miss.Hit)

	// A booking commits while the listing is computed.
	require.NoError(t, c.Invalidate(ctx, "biz", "2026-03-02"))
	require.NoError(t, c.Set(ctx, key, miss.Version, sampleSlots()))

	lookup, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, lookup.Hit, "a listing written under a superseded version is never served")
	assert.Equal(t, miss.Version+1, lookup.Version)
}

func TestRedisSlotCache_Expiry(t *testing.T) {
	mr, c := newCache(t)
	ctx := context.Background()
	key := SlotsKey{BusinessID: "biz", ServiceID: "cut", Date: "2026-03-02", Granularity: 15}

	store(t, c, key, sampleSlots())
	mr.FastForward(2 * time.Minute)

	lookup, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, lookup.Hit)
}

func TestRedisSlotCache_Unavailable(t *testing.T) {
	mr, c := newCache(t)
	mr.Close()

	_, err := c.Get(context.Background(), SlotsKey{BusinessID: "biz", Date: "2026-03-02"})
	assert.Error(t, err)
}

func TestNoopSlotCache(t *testing.T) {
	c := NewNoopSlotCache()
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, SlotsKey{}, 0, sampleSlots()))
	lookup, err := c.Get(ctx, SlotsKey{})
	assert.NoError(t, err)
	assert.False(t, lookup.Hit)
	assert.NoError(t, c.Invalidate(ctx, "biz", "2026-03-02"))
}
