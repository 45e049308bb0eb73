package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agenda/internal/availability/cache"
	"agenda/internal/availability/engine"
	availabilityerrors "agenda/internal/availability/errors"
	"agenda/internal/availability/validator"
	"agenda/pkg/config"
	apperrors "agenda/pkg/errors"
	"agenda/pkg/logger"
	"agenda/pkg/model"
	"agenda/pkg/timewindow"
)

type mockLoader struct {
	snap        *model.Snapshot
	err         error
	calls       int
	lastSpan    timewindow.Window
	customerIDs []string
}

func (m *mockLoader) LoadSnapshot(_ context.Context, businessID string, span timewindow.Window, customerIDs ...string) (*model.Snapshot, error) {
	m.calls++
	m.lastSpan = span
	m.customerIDs = customerIDs
	if m.err != nil {
		return nil, m.err
	}
	return m.snap, nil
}

type mockCache struct {
	stored      map[cache.SlotsKey][]engine.SlotAvailability
	getErr      error
	sets        int
	invalidated []string
}

func newMockCache() *mockCache {
	return &mockCache{stored: make(map[cache.SlotsKey][]engine.SlotAvailability)}
}

func (m *mockCache) Get(_ context.Context, key cache.SlotsKey) (cache.Lookup, error) {
	if m.getErr != nil {
		return cache.Lookup{}, m.getErr
	}
	slots, ok := m.stored[key]
	return cache.Lookup{Slots: slots, Hit: ok}, nil
}

func (m *mockCache) Set(_ context.Context, key cache.SlotsKey, _ int64, slots []engine.SlotAvailability) error {
	m.sets++
	m.stored[key] = slots
	return nil
}

func (m *mockCache) Invalidate(_ context.Context, businessID, date string) error {
	m.invalidated = append(m.invalidated, businessID+"/"+date)
	return nil
}

func monday() []model.DayHours {
	return []model.DayHours{{Weekday: 1, Open: "09:00", Close: "17:00"}}
}

func testSnapshot() *model.Snapshot {
	return &model.Snapshot{
		Business: model.Business{ID: "biz", Name: "Barber", Hours: monday()},
		Staff: []model.StaffMember{
			{ID: "alice", BusinessID: "biz", Name: "Alice", Active: true, Schedule: monday()},
			{ID: "bob", BusinessID: "biz", Name: "Bob", Active: false, Schedule: monday()},
		},
		Services: []model.Service{
			{ID: "cut", BusinessID: "biz", Name: "Haircut", Active: true, DurationMinutes: 60, MaxBookingsPerSlot: 1, EligibleStaffIDs: []string{"alice", "bob"}},
			{ID: "dye", BusinessID: "biz", Name: "Dye", Active: false, DurationMinutes: 60, MaxBookingsPerSlot: 1},
		},
		Customers: []model.Customer{{ID: "c1", BusinessID: "biz", Name: "Carol"}},
		Bookings: []model.Booking{{
			ID: "b1", BusinessID: "biz", ServiceID: "cut", StaffID: "alice", CustomerID: "c1",
			StartTime: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
			EndTime:   time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC),
			Status:    model.StatusConfirmed,
		}},
	}
}

func newTestService(loader *mockLoader, c cache.SlotCache) *availabilityService {
	cfg := &config.Config{SlotGranularityMinutes: 60, Log: logger.Discard()}
	svc := NewAvailabilityService(loader, c, validator.NewAvailabilityValidator(cfg.Log), cfg).(*availabilityService)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestListSlots(t *testing.T) {
	loader := &mockLoader{snap: testSnapshot()}
	c := newMockCache()
	svc := newTestService(loader, c)

	q := &validator.SlotsQuery{BusinessID: "biz", ServiceID: "cut", Date: "2026-03-02"}
	result, err := svc.ListSlots(context.Background(), q)
	require.NoError(t, err)

	assert.True(t, result.Advisory)
	assert.False(t, result.Cached)
	assert.Equal(t, 60, result.GranularityMinutes)
	// 09:00 through 16:00 minus the booked 10:00 hour.
	require.Len(t, result.Slots, 7)
	assert.Equal(t, 9, result.Slots[0].Window.Start.Hour())
	assert.Equal(t, 11, result.Slots[1].Window.Start.Hour())
	assert.Equal(t, []string{"alice"}, result.Slots[0].EligibleStaffIDs)

	day := timewindow.Day(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, day, loader.lastSpan)

	again, err := svc.ListSlots(context.Background(), q)
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, result.Slots, again.Slots)
	assert.Equal(t, 1, loader.calls, "second listing should be served from cache")
}

func TestListSlots_CacheErrorFallsThrough(t *testing.T) {
	loader := &mockLoader{snap: testSnapshot()}
	c := newMockCache()
	c.getErr = errors.New("connection refused")
	svc := newTestService(loader, c)

	result, err := svc.ListSlots(context.Background(), &validator.SlotsQuery{BusinessID: "biz", ServiceID: "cut", Date: "2026-03-02"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Slots)
	assert.Equal(t, 1, loader.calls)
	assert.Zero(t, c.sets, "a listing is not stored without a known day version")
}

// invalidatingLoader simulates a booking committing while the listing is
// being computed.
type invalidatingLoader struct {
	mockLoader
	cache cache.SlotCache
	once  bool
}

func (l *invalidatingLoader) LoadSnapshot(ctx context.Context, businessID string, span timewindow.Window, customerIDs ...string) (*model.Snapshot, error) {
	if !l.once {
		l.once = true
		if err := l.cache.Invalidate(ctx, businessID, "2026-03-02"); err != nil {
			return nil, err
		}
	}
	return l.mockLoader.LoadSnapshot(ctx, businessID, span, customerIDs...)
}

func TestListSlots_InvalidationDuringLoadIsNotCached(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	slotCache := cache.NewRedisSlotCache(rdb, time.Minute)

	loader := &invalidatingLoader{mockLoader: mockLoader{snap: testSnapshot()}, cache: slotCache}
	cfg := &config.Config{SlotGranularityMinutes: 60, Log: logger.Discard()}
	svc := NewAvailabilityService(loader, slotCache, validator.NewAvailabilityValidator(cfg.Log), cfg)
	q := &validator.SlotsQuery{BusinessID: "biz", ServiceID: "cut", Date: "2026-03-02"}

	first, err := svc.ListSlots(context.Background(), q)
	require.NoError(t, err)
	require.False(t, first.Cached)

	second, err := svc.ListSlots(context.Background(), q)
	require.NoError(t, err)
	assert.False(t, second.Cached, "listing computed before the invalidation must not be served")
	assert.Equal(t, 2, loader.calls)

	third, err := svc.ListSlots(context.Background(), q)
	require.NoError(t, err)
	assert.True(t, third.Cached)
}

func TestListSlots_ClosedDayIsEmptyNotNil(t *testing.T) {
	svc := newTestService(&mockLoader{snap: testSnapshot()}, cache.NewNoopSlotCache())

	result, err := svc.ListSlots(context.Background(), &validator.SlotsQuery{BusinessID: "biz", ServiceID: "cut", Date: "2026-03-03"})
	require.NoError(t, err)
	assert.NotNil(t, result.Slots)
	assert.Empty(t, result.Slots)
}

func TestListSlots_Errors(t *testing.T) {
	tests := []struct {
		name     string
		loader   *mockLoader
		query    validator.SlotsQuery
		wantCode string
	}{
		{
			name:     "bad date",
			loader:   &mockLoader{snap: testSnapshot()},
			query:    validator.SlotsQuery{BusinessID: "biz", ServiceID: "cut", Date: "02/03/2026"},
			wantCode: apperrors.CodeValidation,
		},
		{
			name:     "unknown business",
			loader:   &mockLoader{err: availabilityerrors.ErrBusinessNotFound},
			query:    validator.SlotsQuery{BusinessID: "nope", ServiceID: "cut", Date: "2026-03-02"},
			wantCode: apperrors.CodeNotFound,
		},
		{
			name:     "unknown service",
			loader:   &mockLoader{snap: testSnapshot()},
			query:    validator.SlotsQuery{BusinessID: "biz", ServiceID: "perm", Date: "2026-03-02"},
			wantCode: apperrors.CodeNotFound,
		},
		{
			name:     "inactive service",
			loader:   &mockLoader{snap: testSnapshot()},
			query:    validator.SlotsQuery{BusinessID: "biz", ServiceID: "dye", Date: "2026-03-02"},
			wantCode: apperrors.CodeInvalidInput,
		},
		{
			name:     "inactive staff",
			loader:   &mockLoader{snap: testSnapshot()},
			query:    validator.SlotsQuery{BusinessID: "biz", ServiceID: "cut", Date: "2026-03-02", StaffID: "bob"},
			wantCode: apperrors.CodeInvalidInput,
		},
		{
			name:     "storage failure",
			loader:   &mockLoader{err: errors.New("socket closed")},
			query:    validator.SlotsQuery{BusinessID: "biz", ServiceID: "cut", Date: "2026-03-02"},
			wantCode: apperrors.CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(tt.loader, cache.NewNoopSlotCache())
			_, err := svc.ListSlots(context.Background(), &tt.query)
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, tt.wantCode), "got %v", err)
		})
	}
}

func TestCheck(t *testing.T) {
	loader := &mockLoader{snap: testSnapshot()}
	svc := newTestService(loader, cache.NewNoopSlotCache())

	req := &validator.CheckRequest{
		ServiceID:  "cut",
		StaffID:    "alice",
		CustomerID: "c1",
		StartTime:  time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC),
		EndTime:    time.Date(2026, 3, 2, 11, 30, 0, 0, time.UTC),
	}
	result, err := svc.Check(context.Background(), "biz", req)
	require.NoError(t, err)
	assert.False(t, result.CanProceed)
	assert.True(t, result.Has(engine.KindStaffDoubleBooking))
	assert.True(t, result.Has(engine.KindCustomerDoubleBooking))
	assert.Equal(t, []string{"c1"}, loader.customerIDs)

	req.ExcludeBookingID = "b1"
	result, err = svc.Check(context.Background(), "biz", req)
	require.NoError(t, err)
	assert.True(t, result.CanProceed, "rescheduling a booking onto itself must not conflict: %+v", result.Conflicts)
}

func TestCheck_ReversedWindowIsAFinding(t *testing.T) {
	loader := &mockLoader{snap: testSnapshot()}
	svc := newTestService(loader, cache.NewNoopSlotCache())
	start := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		end  time.Time
	}{
		{"reversed", start.Add(-time.Hour)},
		{"empty", start},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.Check(context.Background(), "biz", &validator.CheckRequest{
				ServiceID: "cut", StaffID: "alice", CustomerID: "c1", StartTime: start, EndTime: tt.end,
			})
			require.NoError(t, err)
			assert.False(t, result.CanProceed)
			assert.True(t, result.Has(engine.KindInvalidRange))
			assert.False(t, loader.lastSpan.End.Before(loader.lastSpan.Start), "span handed to the loader must be ordered")
		})
	}
}

func TestCheck_InvalidRequest(t *testing.T) {
	svc := newTestService(&mockLoader{snap: testSnapshot()}, cache.NewNoopSlotCache())
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	_, err := svc.Check(context.Background(), "biz", &validator.CheckRequest{
		ServiceID: "cut", StartTime: start, EndTime: start.Add(time.Hour),
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = svc.Check(context.Background(), "", &validator.CheckRequest{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
}

func TestInvalidateDays(t *testing.T) {
	c := newMockCache()
	svc := newTestService(&mockLoader{}, c)

	require.NoError(t, svc.InvalidateDays(context.Background(), "biz", "2026-03-02", "2026-03-03"))
	assert.Equal(t, []string{"biz/2026-03-02", "biz/2026-03-03"}, c.invalidated)
}
