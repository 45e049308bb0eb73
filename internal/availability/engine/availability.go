package engine

import (
	"slices"
	"sort"
	"time"

	availabilityerrors "agenda/internal/availability/errors"
	"agenda/pkg/timewindow"
)

const DefaultGranularityMinutes = 15

type SlotAvailability struct {
	Window            timewindow.Window `json:"window" yaml:"window"`
	EligibleStaffIDs  []string          `json:"eligible_staff_ids" yaml:"eligible_staff_ids"`
	RemainingCapacity int               `json:"remaining_capacity" yaml:"remaining_capacity"`
}

// Availability lists bookable slots. It evaluates every candidate with the
// same rule functions ConflictChecker uses, so a listed slot passes Check for
// at least one of its listed staff members on the same snapshot.
type Availability struct {
	granularity int
}

func NewAvailability(granularityMinutes int) *Availability {
	if granularityMinutes <= 0 {
		granularityMinutes = DefaultGranularityMinutes
	}
	return &Availability{granularity: granularityMinutes}
}

func (a *Availability) Granularity() int {
	return a.granularity
}

type slotKey struct {
	start, end int64
}

// ListAvailableSlots returns the slots of serviceID on the calendar date of
// date, as observed in the business time zone. When staffID is empty every
// eligible staff member is considered. A service with no eligible staff is
// self-serve and its slots carry no staff.
func (a *Availability) ListAvailableSlots(snap *Snapshot, serviceID string, date time.Time, staffID string) ([]SlotAvailability, error) {
	service, conflict := lookupService(snap, serviceID)
	if conflict != nil {
		if conflict.Kind == KindServiceInactive {
			return nil, availabilityerrors.ErrServiceInactive
		}
		return nil, availabilityerrors.ErrServiceNotFound
	}

	day := civilDay(date, snap.location())
	open, ok := ResolveBusinessWindow(snap.Calendar, day)
	if !ok {
		return []SlotAvailability{}, nil
	}

	candidates, selfServe, err := candidateStaff(snap, service, staffID)
	if err != nil {
		return nil, err
	}

	windows := make(map[slotKey]timewindow.Window)
	collect := func(region timewindow.Window) {
		for w := range GenerateSlots(region, service.DurationMinutes, service.BufferMinutes, a.granularity) {
			windows[slotKey{w.Start.UnixNano(), w.End.UnixNano()}] = w
		}
	}

	if selfServe {
		collect(open)
	}
	for _, staff := range candidates {
		staffWindow, ok := ResolveStaffWindow(*staff, day).Available()
		if !ok {
			continue
		}
		if region, ok := timewindow.Intersect(open, staffWindow); ok {
			collect(region)
		}
	}

	ordered := make([]timewindow.Window, 0, len(windows))
	for _, w := range windows {
		ordered = append(ordered, w)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].Start.Equal(ordered[j].Start) {
			return ordered[i].Start.Before(ordered[j].Start)
		}
		return ordered[i].End.Before(ordered[j].End)
	})

	active := snap.activeBookings("")
	slots := make([]SlotAvailability, 0, len(ordered))
	for _, w := range ordered {
		if len(checkBusinessHours(snap, w)) > 0 {
			continue
		}
		remaining := RemainingCapacity(service, w, active)
		if remaining <= 0 {
			continue
		}

		eligible := []string{}
		for _, staff := range candidates {
			if len(checkEligibility(service, staff)) > 0 ||
				len(checkStaffHours(staff, w)) > 0 ||
				len(checkStaffDoubleBooking(snap, service, staff, w, active)) > 0 {
				continue
			}
			eligible = append(eligible, staff.ID)
		}
		if !selfServe && len(eligible) == 0 {
			continue
		}

		slots = append(slots, SlotAvailability{
			Window:            w,
			EligibleStaffIDs:  eligible,
			RemainingCapacity: remaining,
		})
	}

	return slots, nil
}

// candidateStaff resolves who may be assigned. Eligible ids that are unknown,
// foreign or inactive are skipped; an explicit staffID in that state is an error.
func candidateStaff(snap *Snapshot, service Service, staffID string) ([]*Staff, bool, error) {
	if staffID != "" {
		staff, conflict := lookupStaff(snap, staffID)
		if conflict != nil {
			if conflict.Kind == KindStaffInactive {
				return nil, false, availabilityerrors.ErrStaffInactive
			}
			return nil, false, availabilityerrors.ErrStaffNotFound
		}
		return []*Staff{staff}, false, nil
	}

	if len(service.EligibleStaffIDs) == 0 {
		return nil, true, nil
	}

	ids := slices.Clone(service.EligibleStaffIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	candidates := make([]*Staff, 0, len(ids))
	for _, id := range ids {
		staff, conflict := lookupStaff(snap, id)
		if conflict != nil {
			continue
		}
		candidates = append(candidates, staff)
	}
	return candidates, false, nil
}
