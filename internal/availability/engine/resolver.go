package engine

import (
	"slices"
	"time"

	"agenda/pkg/timewindow"
)

type StaffDayStatus int

const (
	StaffAvailable StaffDayStatus = iota
	StaffNotScheduled
	StaffAllDayOff
)

func (s StaffDayStatus) String() string {
	switch s {
	case StaffAvailable:
		return "available"
	case StaffNotScheduled:
		return "not-scheduled"
	case StaffAllDayOff:
		return "all-day-off"
	default:
		return "unknown"
	}
}

// StaffDay is a staff member's resolved working window on one date. Window is
// meaningful only when Status is StaffAvailable. Exclusions are partial
// time-off windows within that day, ordered by start.
type StaffDay struct {
	Status     StaffDayStatus
	Window     timewindow.Window
	Exclusions []timewindow.Window
}

func (d StaffDay) Available() (timewindow.Window, bool) {
	return d.Window, d.Status == StaffAvailable
}

// civilDay reinterprets the calendar date of t in loc, at midnight.
func civilDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// ResolveBusinessWindow returns the business opening window for date, using
// date's location. The second result is false when the business is closed.
func ResolveBusinessWindow(cal WeeklySchedule, date time.Time) (timewindow.Window, bool) {
	hours, ok := cal.On(date.Weekday())
	if !ok {
		return timewindow.Window{}, false
	}
	return timewindow.Between(date, hours.Open, hours.Close), true
}

// ResolveStaffWindow fails closed: a staff member with no schedule row for the
// weekday is not working that day.
func ResolveStaffWindow(staff Staff, date time.Time) StaffDay {
	hours, ok := staff.Schedule.On(date.Weekday())
	if !ok {
		return StaffDay{Status: StaffNotScheduled}
	}

	day := DateOf(date)
	var exclusions []timewindow.Window
	for _, off := range staff.TimeOff {
		if off.Date != day {
			continue
		}
		if off.AllDay {
			return StaffDay{Status: StaffAllDayOff}
		}
		if off.Start < off.End {
			exclusions = append(exclusions, timewindow.Between(date, off.Start, off.End))
		}
	}

	slices.SortFunc(exclusions, func(a, b timewindow.Window) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return a.End.Compare(b.End)
	})

	return StaffDay{
		Status:     StaffAvailable,
		Window:     timewindow.Between(date, hours.Open, hours.Close),
		Exclusions: exclusions,
	}
}
