package model

import "time"

const (
	EventBookingCreated       = "booking.created"
	EventBookingRescheduled   = "booking.rescheduled"
	EventBookingStatusChanged = "booking.status_changed"

	EventSchemaVersion = "1"
)

// BookingEvent is published after a booking write commits. Previous is set
// when the write moved or released an occupied window.
type BookingEvent struct {
	Type       string    `json:"type"`
	BookingID  string    `json:"booking_id"`
	BusinessID string    `json:"business_id"`
	TimeZone   string    `json:"time_zone,omitempty"`
	Booking    Booking   `json:"booking"`
	Previous   *Booking  `json:"previous,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// maxZoneOffset bounds the UTC offset of any time zone.
const maxZoneOffset = 14 * time.Hour

// AffectedDates returns the distinct calendar dates, in the business time
// zone, whose availability the event changed. Without a known zone it
// returns every date the windows could fall on in any zone.
func (e BookingEvent) AffectedDates() []string {
	loc, widen := time.UTC, maxZoneOffset
	if e.TimeZone != "" {
		if l, err := time.LoadLocation(e.TimeZone); err == nil {
			loc, widen = l, 0
		}
	}

	var dates []string
	seen := make(map[string]bool)
	add := func(b *Booking) {
		if b == nil || b.StartTime.IsZero() || b.EndTime.IsZero() {
			return
		}
		// A window ending exactly at midnight does not touch the next day.
		last := b.EndTime.Add(widen - time.Nanosecond).In(loc)
		for d := b.StartTime.Add(-widen).In(loc); ; d = d.AddDate(0, 0, 1) {
			day := d.Format("2006-01-02")
			if !seen[day] {
				seen[day] = true
				dates = append(dates, day)
			}
			if day == last.Format("2006-01-02") || d.After(last) {
				break
			}
		}
	}
	add(&e.Booking)
	add(e.Previous)
	return dates
}
