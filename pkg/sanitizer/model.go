package sanitizer

import "agenda/pkg/model"

func SanitizeBooking(b *model.Booking) {
	b.BusinessID = NormalizeID(b.BusinessID)
	b.ServiceID = NormalizeID(b.ServiceID)
	b.StaffID = NormalizeID(b.StaffID)
	b.CustomerID = NormalizeID(b.CustomerID)
	b.Notes = NormalizeNotes(b.Notes)
}

func SanitizeReschedule(r *model.BookingReschedule) {
	if r.StaffID != nil {
		staffID := NormalizeID(*r.StaffID)
		r.StaffID = &staffID
	}
}

// SanitizeSnapshot normalizes every entity of a snapshot document in place.
func SanitizeSnapshot(snap *model.Snapshot) {
	snap.Business.ID = NormalizeID(snap.Business.ID)
	snap.Business.Name = NormalizeName(snap.Business.Name)

	for i := range snap.Staff {
		s := &snap.Staff[i]
		s.ID = NormalizeID(s.ID)
		s.BusinessID = NormalizeID(s.BusinessID)
		s.Name = NormalizeName(s.Name)
		s.ServiceIDs = NormalizeIDs(s.ServiceIDs)
	}
	for i := range snap.Services {
		s := &snap.Services[i]
		s.ID = NormalizeID(s.ID)
		s.BusinessID = NormalizeID(s.BusinessID)
		s.Name = NormalizeName(s.Name)
		s.EligibleStaffIDs = NormalizeIDs(s.EligibleStaffIDs)
	}
	for i := range snap.Customers {
		c := &snap.Customers[i]
		c.ID = NormalizeID(c.ID)
		c.BusinessID = NormalizeID(c.BusinessID)
		c.Name = NormalizeName(c.Name)
		c.Phone = NormalizePhone(c.Phone)
	}
	for i := range snap.Bookings {
		b := &snap.Bookings[i]
		b.ID = NormalizeID(b.ID)
		SanitizeBooking(b)
	}
}
