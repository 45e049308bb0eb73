package engine

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	availabilityerrors "agenda/internal/availability/errors"
	"agenda/pkg/model"
	"agenda/pkg/timewindow"
)

func starts(slots []SlotAvailability) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Window.Start.Format("15:04"))
	}
	return out
}

func TestListAvailableSlots_Basic(t *testing.T) {
	snap := baseSnapshot()
	svc := snap.Services["cut"]
	svc.DurationMinutes = 120
	snap.Services["cut"] = svc

	slots, err := NewAvailability(60).ListAvailableSlots(snap, "cut", monday, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "10:00", "11:00", "12:00", "13:00", "14:00", "15:00"}, starts(slots))
	for _, s := range slots {
		assert.Equal(t, []string{"alice"}, s.EligibleStaffIDs)
		assert.Equal(t, 1, s.RemainingCapacity)
		assert.Equal(t, 120, s.Window.DurationMinutes())
	}
}

func TestListAvailableSlots_DefaultGranularity(t *testing.T) {
	a := NewAvailability(0)
	assert.Equal(t, DefaultGranularityMinutes, a.Granularity())

	slots, err := a.ListAvailableSlots(baseSnapshot(), "cut", monday, "")
	require.NoError(t, err)
	// 09:00 through 16:00 every quarter hour.
	assert.Len(t, slots, 29)
}

func TestListAvailableSlots_ClosedDay(t *testing.T) {
	slots, err := NewAvailability(15).ListAvailableSlots(baseSnapshot(), "cut", monday.AddDate(0, 0, 1), "")
	require.NoError(t, err)
	assert.NotNil(t, slots)
	assert.Empty(t, slots)
}

func TestListAvailableSlots_DateIsCivil(t *testing.T) {
	lateEvening := time.Date(2026, 3, 2, 23, 30, 0, 0, time.FixedZone("EST", -5*3600))

	slots, err := NewAvailability(60).ListAvailableSlots(baseSnapshot(), "cut", lateEvening, "")
	require.NoError(t, err)
	require.NotEmpty(t, slots)
	assert.Equal(t, at("09:00"), slots[0].Window.Start)
}

func TestListAvailableSlots_BookingsAndStaff(t *testing.T) {
	snap := baseSnapshot()
	snap.Services["cut"] = withCapacity(snap.Services["cut"], 2)
	snap.Staff["bob"] = Staff{ID: "bob", BusinessID: "biz", Active: true, Schedule: WeeklySchedule{
		time.Monday: {Open: timewindow.MustParseClock("12:00"), Close: timewindow.MustParseClock("17:00")},
	}}
	svc := snap.Services["cut"]
	svc.EligibleStaffIDs = []string{"bob", "alice"}
	snap.Services["cut"] = svc
	snap.Bookings = []Booking{{
		ID: "b1", ServiceID: "cut", StaffID: "alice", CustomerID: "c2",
		Window: window("13:00", "14:00"), Status: model.StatusScheduled,
	}}

	slots, err := NewAvailability(60).ListAvailableSlots(snap, "cut", monday, "")
	require.NoError(t, err)

	byStart := map[string]SlotAvailability{}
	for _, s := range slots {
		byStart[s.Window.Start.Format("15:04")] = s
	}
	assert.Equal(t, []string{"alice"}, byStart["09:00"].EligibleStaffIDs)
	assert.Equal(t, []string{"alice", "bob"}, byStart["12:00"].EligibleStaffIDs)
	assert.Equal(t, []string{"bob"}, byStart["13:00"].EligibleStaffIDs)
	assert.Equal(t, 1, byStart["13:00"].RemainingCapacity)
	assert.Equal(t, 2, byStart["14:00"].RemainingCapacity)

	only, err := NewAvailability(60).ListAvailableSlots(snap, "cut", monday, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"12:00", "13:00", "14:00", "15:00", "16:00"}, starts(only))
}

func TestListAvailableSlots_SelfServe(t *testing.T) {
	snap := baseSnapshot()
	svc := snap.Services["cut"]
	svc.EligibleStaffIDs = nil
	snap.Services["cut"] = svc
	snap.Bookings = []Booking{{
		ID: "b1", ServiceID: "cut", CustomerID: "c2",
		Window: window("09:00", "10:00"), Status: model.StatusConfirmed,
	}}

	slots, err := NewAvailability(60).ListAvailableSlots(snap, "cut", monday, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"10:00", "11:00", "12:00", "13:00", "14:00", "15:00", "16:00"}, starts(slots))
	for _, s := range slots {
		assert.Empty(t, s.EligibleStaffIDs)
	}
}

func TestListAvailableSlots_Errors(t *testing.T) {
	snap := baseSnapshot()
	snap.Services["off"] = Service{ID: "off", BusinessID: "biz", DurationMinutes: 30, MaxBookingsPerSlot: 1}
	snap.Services["foreign"] = Service{ID: "foreign", BusinessID: "elsewhere", Active: true, DurationMinutes: 30, MaxBookingsPerSlot: 1}
	snap.Staff["zed"] = Staff{ID: "zed", BusinessID: "biz", Schedule: nineToFive()}

	tests := []struct {
		name      string
		serviceID string
		staffID   string
		want      error
	}{
		{"unknown service", "nope", "", availabilityerrors.ErrServiceNotFound},
		{"foreign service", "foreign", "", availabilityerrors.ErrServiceNotFound},
		{"inactive service", "off", "", availabilityerrors.ErrServiceInactive},
		{"unknown staff", "cut", "bob", availabilityerrors.ErrStaffNotFound},
		{"inactive staff", "cut", "zed", availabilityerrors.ErrStaffInactive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAvailability(15).ListAvailableSlots(snap, tt.serviceID, monday, tt.staffID)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

// richSnapshot mixes partial time off, buffers, an inactive eligible staff
// member, exhausted capacity and canceled bookings.
func richSnapshot() *Snapshot {
	snap := baseSnapshot()
	snap.Staff["alice"] = Staff{
		ID: "alice", BusinessID: "biz", Active: true, Schedule: nineToFive(),
		TimeOff: []TimeOff{{Date: DateOf(monday), Start: timewindow.MustParseClock("12:00"), End: timewindow.MustParseClock("13:00")}},
	}
	snap.Staff["bob"] = Staff{ID: "bob", BusinessID: "biz", Active: true, Schedule: WeeklySchedule{
		time.Monday: {Open: timewindow.MustParseClock("11:00"), Close: timewindow.MustParseClock("16:00")},
	}}
	snap.Staff["carol"] = Staff{ID: "carol", BusinessID: "biz", Active: false, Schedule: nineToFive()}
	snap.Services["cut"] = Service{
		ID: "cut", BusinessID: "biz", Active: true,
		DurationMinutes: 45, BufferMinutes: 15, MaxBookingsPerSlot: 2,
		EligibleStaffIDs: []string{"alice", "bob", "carol"},
	}
	snap.Customers["fresh"] = true
	snap.Bookings = []Booking{
		{ID: "b1", ServiceID: "cut", StaffID: "alice", CustomerID: "c1", Window: window("09:30", "10:15"), Status: model.StatusScheduled},
		{ID: "b2", ServiceID: "cut", CustomerID: "c2", Window: window("14:00", "15:00"), Status: model.StatusScheduled},
		{ID: "b3", ServiceID: "cut", CustomerID: "c3", Window: window("14:00", "15:00"), Status: model.StatusConfirmed},
		{ID: "b4", ServiceID: "cut", StaffID: "bob", CustomerID: "c1", Window: window("11:00", "11:45"), Status: model.StatusCanceled},
	}
	return snap
}

func TestListAvailableSlots_AgreesWithCheck(t *testing.T) {
	snap := richSnapshot()
	availability := NewAvailability(15)
	checker := NewConflictChecker()
	service := snap.Services["cut"]

	slots, err := availability.ListAvailableSlots(snap, "cut", monday, "")
	require.NoError(t, err)
	require.NotEmpty(t, slots)

	listed := map[int64][]string{}
	for _, s := range slots {
		listed[s.Window.Start.Unix()] = s.EligibleStaffIDs
	}

	staffScoped := map[Kind]bool{
		KindStaffNotEligible: true, KindBusinessClosed: true, KindOutsideBusinessHours: true,
		KindStaffNotScheduled: true, KindStaffTimeOffAllDay: true, KindOutsideStaffHours: true,
		KindStaffTimeOffPartial: true, KindCapacityExceeded: true, KindStaffDoubleBooking: true,
	}

	length := time.Duration(service.DurationMinutes) * time.Minute
	for start := monday; start.Before(monday.AddDate(0, 0, 1)); start = start.Add(15 * time.Minute) {
		for _, staffID := range []string{"alice", "bob"} {
			p := Proposal{ServiceID: "cut", StaffID: staffID, CustomerID: "fresh", Start: start, End: start.Add(length)}
			r := checker.Check(snap, p, before)

			eligible, ok := listed[start.Unix()]
			isListed := ok && slices.Contains(eligible, staffID)
			assert.Equal(t, isListed, r.CanProceed, "%s %s: %v", staffID, start.Format("15:04"), kinds(r))

			if !r.CanProceed {
				blocked := false
				for _, c := range r.Errors() {
					blocked = blocked || staffScoped[c.Kind]
				}
				assert.True(t, blocked, "%s %s: %v", staffID, start.Format("15:04"), kinds(r))
			}
		}
	}

	assert.NotContains(t, listed, at("14:00").Unix(), "capacity is exhausted at 14:00")
	for _, s := range slots {
		assert.NotContains(t, s.EligibleStaffIDs, "carol")
	}
}
