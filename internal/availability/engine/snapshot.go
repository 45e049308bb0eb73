package engine

import (
	"fmt"
	"slices"
	"time"

	availabilityerrors "agenda/internal/availability/errors"
	"agenda/pkg/model"
	"agenda/pkg/timewindow"
)

// NewSnapshot converts stored documents into the engine's shapes. Records that
// belong to another business are dropped. Malformed clocks or dates are
// rejected rather than guessed at. A service's eligible staff is the union of
// its own list and every staff member that lists the service.
func NewSnapshot(doc *model.Snapshot) (*Snapshot, error) {
	if doc == nil || doc.Business.ID == "" {
		return nil, fmt.Errorf("%w: business is required", availabilityerrors.ErrInvalidSnapshot)
	}

	businessID := doc.Business.ID
	loc := doc.Business.Location()

	calendar, err := weeklyFromModel(doc.Business.Hours)
	if err != nil {
		return nil, fmt.Errorf("%w: business %s hours: %v", availabilityerrors.ErrInvalidSnapshot, businessID, err)
	}

	snap := &Snapshot{
		BusinessID: businessID,
		Location:   loc,
		Calendar:   calendar,
		Staff:      make(map[string]Staff, len(doc.Staff)),
		Services:   make(map[string]Service, len(doc.Services)),
		Customers:  make(map[string]bool, len(doc.Customers)),
		Bookings:   make([]Booking, 0, len(doc.Bookings)),
	}

	for _, m := range doc.Staff {
		if m.BusinessID != businessID {
			continue
		}
		staff, err := StaffFromModel(m)
		if err != nil {
			return nil, err
		}
		snap.Staff[staff.ID] = staff
	}

	for _, s := range doc.Services {
		if s.BusinessID != businessID {
			continue
		}
		snap.Services[s.ID] = ServiceFromModel(s)
	}
	mergeStaffServices(snap, doc.Staff)

	for _, c := range doc.Customers {
		if c.BusinessID != businessID {
			continue
		}
		snap.Customers[c.ID] = true
	}

	for _, b := range doc.Bookings {
		if b.BusinessID != businessID {
			continue
		}
		snap.Bookings = append(snap.Bookings, BookingFromModel(b, loc))
	}

	return snap, nil
}

func mergeStaffServices(snap *Snapshot, staff []model.StaffMember) {
	for _, m := range staff {
		if _, ok := snap.Staff[m.ID]; !ok {
			continue
		}
		for _, id := range m.ServiceIDs {
			service, ok := snap.Services[id]
			if !ok || service.IsEligible(m.ID) {
				continue
			}
			service.EligibleStaffIDs = append(service.EligibleStaffIDs, m.ID)
			slices.Sort(service.EligibleStaffIDs)
			snap.Services[id] = service
		}
	}
}

func StaffFromModel(m model.StaffMember) (Staff, error) {
	schedule, err := weeklyFromModel(m.Schedule)
	if err != nil {
		return Staff{}, fmt.Errorf("%w: staff %s schedule: %v", availabilityerrors.ErrInvalidSnapshot, m.ID, err)
	}

	timeOff := make([]TimeOff, 0, len(m.TimeOff))
	for _, t := range m.TimeOff {
		day, err := time.Parse(timewindow.DateLayout, t.Date)
		if err != nil {
			return Staff{}, fmt.Errorf("%w: staff %s time off date %q", availabilityerrors.ErrInvalidSnapshot, m.ID, t.Date)
		}
		entry := TimeOff{Date: DateOf(day), AllDay: t.AllDay}
		if !t.AllDay {
			if entry.Start, err = timewindow.ParseClock(t.Start); err != nil {
				return Staff{}, fmt.Errorf("%w: staff %s time off start: %v", availabilityerrors.ErrInvalidSnapshot, m.ID, err)
			}
			if entry.End, err = timewindow.ParseClock(t.End); err != nil {
				return Staff{}, fmt.Errorf("%w: staff %s time off end: %v", availabilityerrors.ErrInvalidSnapshot, m.ID, err)
			}
			if entry.Start >= entry.End {
				return Staff{}, fmt.Errorf("%w: staff %s time off %s-%s is empty", availabilityerrors.ErrInvalidSnapshot, m.ID, t.Start, t.End)
			}
		}
		timeOff = append(timeOff, entry)
	}

	return Staff{
		ID:         m.ID,
		BusinessID: m.BusinessID,
		Active:     m.Active,
		Schedule:   schedule,
		TimeOff:    timeOff,
	}, nil
}

func ServiceFromModel(s model.Service) Service {
	eligible := make([]string, len(s.EligibleStaffIDs))
	copy(eligible, s.EligibleStaffIDs)
	return Service{
		ID:                 s.ID,
		BusinessID:         s.BusinessID,
		Active:             s.Active,
		DurationMinutes:    s.DurationMinutes,
		BufferMinutes:      s.BufferMinutes,
		MaxBookingsPerSlot: s.MaxBookingsPerSlot,
		EligibleStaffIDs:   eligible,
	}
}

func BookingFromModel(b model.Booking, loc *time.Location) Booking {
	return Booking{
		ID:         b.ID,
		ServiceID:  b.ServiceID,
		StaffID:    b.StaffID,
		CustomerID: b.CustomerID,
		Window:     timewindow.New(b.StartTime, b.EndTime).In(loc),
		Status:     b.Status,
	}
}

func weeklyFromModel(rows []model.DayHours) (WeeklySchedule, error) {
	var w WeeklySchedule
	for _, row := range rows {
		if row.Weekday < 0 || row.Weekday > 6 {
			return w, fmt.Errorf("weekday %d out of range", row.Weekday)
		}
		if row.Closed {
			w[row.Weekday] = nil
			continue
		}
		open, err := timewindow.ParseClock(row.Open)
		if err != nil {
			return w, err
		}
		closing, err := timewindow.ParseClock(row.Close)
		if err != nil {
			return w, err
		}
		if open >= closing {
			return w, fmt.Errorf("%s opens at %s but closes at %s", time.Weekday(row.Weekday), row.Open, row.Close)
		}
		w[row.Weekday] = &Hours{Open: open, Close: closing}
	}
	return w, nil
}
