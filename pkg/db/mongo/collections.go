package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	BusinessesCollection   = "Businesses"
	StaffCollection        = "Staff"
	ServicesCollection     = "Services"
	CustomersCollection    = "Customers"
	BookingsCollection     = "Bookings"
	BookingLocksCollection = "Booking_locks"
)

// WithTimeout bounds ctx by timeout, keeping an earlier deadline. Inside a
// transaction the SessionContext is returned as is, since wrapping it would
// detach the operation from the session.
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		return context.WithDeadline(ctx, deadline)
	}
	return context.WithTimeout(ctx, timeout)
}
