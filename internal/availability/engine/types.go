// Package engine decides availability and booking legality over an immutable
// snapshot of one business. It performs no I/O and keeps no state between
// calls, so identical inputs always produce identical output.
//
// Listing is advisory. The only authoritative answer is ConflictChecker.Check
// run against a freshly loaded snapshot at commit time.
package engine

import (
	"slices"
	"strings"
	"time"

	"agenda/pkg/model"
	"agenda/pkg/timewindow"
)

type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
)

type Kind string

const (
	KindServiceNotFound       Kind = "service-not-found"
	KindServiceInactive       Kind = "service-inactive"
	KindStaffNotFound         Kind = "staff-not-found"
	KindStaffInactive         Kind = "staff-inactive"
	KindCustomerNotFound      Kind = "customer-not-found"
	KindStaffNotEligible      Kind = "staff-not-eligible"
	KindBusinessClosed        Kind = "business-closed"
	KindOutsideBusinessHours  Kind = "outside-business-hours"
	KindStaffNotScheduled     Kind = "staff-not-scheduled"
	KindStaffTimeOffAllDay    Kind = "staff-time-off-all-day"
	KindOutsideStaffHours     Kind = "outside-staff-hours"
	KindStaffTimeOffPartial   Kind = "staff-time-off-partial-overlap"
	KindCapacityExceeded      Kind = "capacity-exceeded"
	KindStaffDoubleBooking    Kind = "staff-double-booking"
	KindCustomerDoubleBooking Kind = "customer-double-booking"
	KindInvalidRange          Kind = "invalid-range"
	KindPastDate              Kind = "past-date"
)

type Conflict struct {
	Kind             Kind     `json:"kind" yaml:"kind"`
	Severity         Severity `json:"severity" yaml:"severity"`
	Message          string   `json:"message" yaml:"message"`
	RelatedBookingID string   `json:"related_booking_id,omitempty" yaml:"related_booking_id,omitempty"`
}

type Result struct {
	Conflicts  []Conflict `json:"conflicts" yaml:"conflicts"`
	CanProceed bool       `json:"can_proceed" yaml:"can_proceed"`
}

func newResult(conflicts []Conflict) Result {
	if conflicts == nil {
		conflicts = []Conflict{}
	}
	r := Result{Conflicts: conflicts, CanProceed: true}
	for _, c := range conflicts {
		if c.Severity == SeverityError {
			r.CanProceed = false
			break
		}
	}
	return r
}

// Has reports whether any finding of kind k is present.
func (r Result) Has(k Kind) bool {
	return slices.ContainsFunc(r.Conflicts, func(c Conflict) bool { return c.Kind == k })
}

func (r Result) Errors() []Conflict {
	return r.filter(SeverityError)
}

func (r Result) Warnings() []Conflict {
	return r.filter(SeverityWarning)
}

func (r Result) filter(s Severity) []Conflict {
	var out []Conflict
	for _, c := range r.Conflicts {
		if c.Severity == s {
			out = append(out, c)
		}
	}
	return out
}

// Hours is an open interval of a single day. A nil *Hours means closed.
type Hours struct {
	Open  timewindow.Clock
	Close timewindow.Clock
}

// WeeklySchedule is indexed by time.Weekday.
type WeeklySchedule [7]*Hours

func (w WeeklySchedule) On(day time.Weekday) (Hours, bool) {
	h := w[day]
	if h == nil || h.Open >= h.Close {
		return Hours{}, false
	}
	return *h, true
}

// Date is a calendar day with no time or zone attached.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// TimeOff is all-day when AllDay is set; otherwise it covers [Start, End) of Date.
type TimeOff struct {
	Date   Date
	AllDay bool
	Start  timewindow.Clock
	End    timewindow.Clock
}

type Staff struct {
	ID         string
	BusinessID string
	Active     bool
	Schedule   WeeklySchedule
	TimeOff    []TimeOff
}

type Service struct {
	ID                 string
	BusinessID         string
	Active             bool
	DurationMinutes    int
	BufferMinutes      int
	MaxBookingsPerSlot int
	EligibleStaffIDs   []string
}

func (s Service) IsEligible(staffID string) bool {
	return slices.Contains(s.EligibleStaffIDs, staffID)
}

func (s Service) buffer() time.Duration {
	return time.Duration(s.BufferMinutes) * time.Minute
}

type Booking struct {
	ID         string
	ServiceID  string
	StaffID    string
	CustomerID string
	Window     timewindow.Window
	Status     model.BookingStatus
}

// Snapshot is a point-in-time view of one business. Location is the zone in
// which weekly hours and time-off dates are interpreted.
type Snapshot struct {
	BusinessID string
	Location   *time.Location
	Calendar   WeeklySchedule
	Staff      map[string]Staff
	Services   map[string]Service
	Customers  map[string]bool
	Bookings   []Booking
}

func (s *Snapshot) location() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

// activeBookings returns scheduled and confirmed bookings other than exclude,
// ordered by start, then end, then id.
func (s *Snapshot) activeBookings(exclude string) []Booking {
	out := make([]Booking, 0, len(s.Bookings))
	for _, b := range s.Bookings {
		if !b.Status.IsActive() {
			continue
		}
		if exclude != "" && b.ID == exclude {
			continue
		}
		out = append(out, b)
	}
	slices.SortStableFunc(out, func(a, b Booking) int {
		if c := a.Window.Start.Compare(b.Window.Start); c != 0 {
			return c
		}
		if c := a.Window.End.Compare(b.Window.End); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func (s *Snapshot) bufferOf(serviceID string) time.Duration {
	if svc, ok := s.Services[serviceID]; ok {
		return svc.buffer()
	}
	return 0
}

// Proposal is a booking to be validated. ExcludeBookingID lets a reschedule
// re-check a booking without colliding with its own current state.
type Proposal struct {
	ServiceID        string    `json:"service_id"`
	StaffID          string    `json:"staff_id,omitempty"`
	CustomerID       string    `json:"customer_id"`
	Start            time.Time `json:"start_time"`
	End              time.Time `json:"end_time"`
	ExcludeBookingID string    `json:"exclude_booking_id,omitempty"`
}
