package engine

import (
	"fmt"
	"time"

	"agenda/pkg/timewindow"
)

const clockLayout = "15:04"

// ConflictChecker validates a proposed booking against a snapshot. The zero
// value is ready to use.
type ConflictChecker struct{}

func NewConflictChecker() *ConflictChecker {
	return &ConflictChecker{}
}

// Check runs every rule against p and returns all findings in rule order.
// Existence of the service, staff member and customer is checked first and a
// missing or inactive entity stops the check there. Everything after that
// accumulates.
//
// When p.StaffID is empty the booking is unassigned and the staff-scoped rules
// (staff existence, eligibility, staff hours, staff double booking) are skipped.
func (c *ConflictChecker) Check(snap *Snapshot, p Proposal, now time.Time) Result {
	service, conflict := lookupService(snap, p.ServiceID)
	if conflict != nil {
		return newResult([]Conflict{*conflict})
	}

	var staff *Staff
	if p.StaffID != "" {
		staff, conflict = lookupStaff(snap, p.StaffID)
		if conflict != nil {
			return newResult([]Conflict{*conflict})
		}
	}

	if !snap.Customers[p.CustomerID] {
		return newResult([]Conflict{{
			Kind:     KindCustomerNotFound,
			Severity: SeverityError,
			Message:  fmt.Sprintf("customer %q not found", p.CustomerID),
		}})
	}

	loc := snap.location()
	window := timewindow.New(p.Start, p.End).In(loc)
	active := snap.activeBookings(p.ExcludeBookingID)

	var conflicts []Conflict
	conflicts = append(conflicts, checkEligibility(service, staff)...)
	conflicts = append(conflicts, checkBusinessHours(snap, window)...)
	conflicts = append(conflicts, checkStaffHours(staff, window)...)
	conflicts = append(conflicts, checkCapacity(service, window, active)...)
	conflicts = append(conflicts, checkStaffDoubleBooking(snap, service, staff, window, active)...)
	conflicts = append(conflicts, checkCustomerDoubleBooking(p.CustomerID, window, active)...)
	conflicts = append(conflicts, checkRange(window)...)
	conflicts = append(conflicts, checkPastDate(window, now)...)

	return newResult(conflicts)
}

func lookupService(snap *Snapshot, id string) (Service, *Conflict) {
	service, ok := snap.Services[id]
	if !ok || service.BusinessID != snap.BusinessID {
		return Service{}, &Conflict{
			Kind:     KindServiceNotFound,
			Severity: SeverityError,
			Message:  fmt.Sprintf("service %q not found", id),
		}
	}
	if !service.Active {
		return Service{}, &Conflict{
			Kind:     KindServiceInactive,
			Severity: SeverityError,
			Message:  fmt.Sprintf("service %q is not active", id),
		}
	}
	return service, nil
}

func lookupStaff(snap *Snapshot, id string) (*Staff, *Conflict) {
	staff, ok := snap.Staff[id]
	if !ok || staff.BusinessID != snap.BusinessID {
		return nil, &Conflict{
			Kind:     KindStaffNotFound,
			Severity: SeverityError,
			Message:  fmt.Sprintf("staff member %q not found", id),
		}
	}
	if !staff.Active {
		return nil, &Conflict{
			Kind:     KindStaffInactive,
			Severity: SeverityError,
			Message:  fmt.Sprintf("staff member %q is not active", id),
		}
	}
	return &staff, nil
}

func checkEligibility(service Service, staff *Staff) []Conflict {
	if staff == nil || service.IsEligible(staff.ID) {
		return nil
	}
	return []Conflict{{
		Kind:     KindStaffNotEligible,
		Severity: SeverityError,
		Message:  fmt.Sprintf("staff member %q does not perform service %q", staff.ID, service.ID),
	}}
}

func checkBusinessHours(snap *Snapshot, window timewindow.Window) []Conflict {
	date := civilDay(window.Start, snap.location())
	open, ok := ResolveBusinessWindow(snap.Calendar, date)
	if !ok {
		return []Conflict{{
			Kind:     KindBusinessClosed,
			Severity: SeverityError,
			Message:  fmt.Sprintf("business is closed on %s %s", date.Weekday(), date.Format(timewindow.DateLayout)),
		}}
	}
	if !open.Contains(window) {
		return []Conflict{{
			Kind:     KindOutsideBusinessHours,
			Severity: SeverityError,
			Message:  fmt.Sprintf("%s is outside business hours %s", window, hoursLabel(open)),
		}}
	}
	return nil
}

func checkStaffHours(staff *Staff, window timewindow.Window) []Conflict {
	if staff == nil {
		return nil
	}
	date := civilDay(window.Start, window.Start.Location())
	day := ResolveStaffWindow(*staff, date)

	switch day.Status {
	case StaffNotScheduled:
		return []Conflict{{
			Kind:     KindStaffNotScheduled,
			Severity: SeverityError,
			Message:  fmt.Sprintf("staff member %q does not work on %s %s", staff.ID, date.Weekday(), date.Format(timewindow.DateLayout)),
		}}
	case StaffAllDayOff:
		return []Conflict{{
			Kind:     KindStaffTimeOffAllDay,
			Severity: SeverityError,
			Message:  fmt.Sprintf("staff member %q is off all day on %s", staff.ID, date.Format(timewindow.DateLayout)),
		}}
	}

	var conflicts []Conflict
	if !day.Window.Contains(window) {
		conflicts = append(conflicts, Conflict{
			Kind:     KindOutsideStaffHours,
			Severity: SeverityError,
			Message:  fmt.Sprintf("%s is outside staff member %q hours %s", window, staff.ID, hoursLabel(day.Window)),
		})
	}
	for _, off := range day.Exclusions {
		if !timewindow.Overlaps(off, window) {
			continue
		}
		conflicts = append(conflicts, Conflict{
			Kind:     KindStaffTimeOffPartial,
			Severity: SeverityError,
			Message:  fmt.Sprintf("%s overlaps staff member %q time off %s", window, staff.ID, hoursLabel(off)),
		})
	}
	return conflicts
}

func checkCapacity(service Service, window timewindow.Window, active []Booking) []Conflict {
	if RemainingCapacity(service, window, active) > 0 {
		return nil
	}
	return []Conflict{{
		Kind:     KindCapacityExceeded,
		Severity: SeverityError,
		Message:  fmt.Sprintf("service %q is fully booked for %s (max %d)", service.ID, window, service.MaxBookingsPerSlot),
	}}
}

// checkStaffDoubleBooking compares occupied windows: a booking keeps its staff
// member busy until its end plus the buffer of its own service.
func checkStaffDoubleBooking(snap *Snapshot, service Service, staff *Staff, window timewindow.Window, active []Booking) []Conflict {
	if staff == nil {
		return nil
	}
	occupied := window.Extend(service.buffer())

	var conflicts []Conflict
	for _, b := range active {
		if b.StaffID != staff.ID {
			continue
		}
		if !timewindow.Overlaps(occupied, b.Window.Extend(snap.bufferOf(b.ServiceID))) {
			continue
		}
		conflicts = append(conflicts, Conflict{
			Kind:             KindStaffDoubleBooking,
			Severity:         SeverityError,
			Message:          fmt.Sprintf("staff member %q is already booked %s", staff.ID, b.Window),
			RelatedBookingID: b.ID,
		})
	}
	return conflicts
}

func checkCustomerDoubleBooking(customerID string, window timewindow.Window, active []Booking) []Conflict {
	var conflicts []Conflict
	for _, b := range active {
		if b.CustomerID != customerID || !timewindow.Overlaps(window, b.Window) {
			continue
		}
		conflicts = append(conflicts, Conflict{
			Kind:             KindCustomerDoubleBooking,
			Severity:         SeverityError,
			Message:          fmt.Sprintf("customer %q already has a booking %s", customerID, b.Window),
			RelatedBookingID: b.ID,
		})
	}
	return conflicts
}

func checkRange(window timewindow.Window) []Conflict {
	if window.Valid() {
		return nil
	}
	return []Conflict{{
		Kind:     KindInvalidRange,
		Severity: SeverityError,
		Message: fmt.Sprintf("start %s must be before end %s",
			window.Start.Format(time.DateTime), window.End.Format(time.DateTime)),
	}}
}

func checkPastDate(window timewindow.Window, now time.Time) []Conflict {
	if !window.Start.Before(now) {
		return nil
	}
	return []Conflict{{
		Kind:     KindPastDate,
		Severity: SeverityWarning,
		Message:  fmt.Sprintf("booking starts in the past at %s", window.Start.Format(time.DateTime)),
	}}
}

func hoursLabel(w timewindow.Window) string {
	return w.Start.Format(clockLayout) + "-" + w.End.Format(clockLayout)
}
