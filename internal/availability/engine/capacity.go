package engine

import "agenda/pkg/timewindow"

// RemainingCapacity is the number of further bookings service can take in
// candidate. Every active booking of the service that overlaps candidate
// counts, whether or not it has a staff member assigned. Never negative.
func RemainingCapacity(service Service, candidate timewindow.Window, bookings []Booking) int {
	used := 0
	for _, b := range bookings {
		if b.ServiceID != service.ID || !b.Status.IsActive() {
			continue
		}
		if timewindow.Overlaps(b.Window, candidate) {
			used++
		}
	}
	return max(0, service.MaxBookingsPerSlot-used)
}
