package validator

import (
	"errors"
	"testing"
	"time"

	"agenda/pkg/logger"
	"agenda/pkg/model"
)

func validBooking() *model.Booking {
	start := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)
	return &model.Booking{
		BusinessID: "biz",
		ServiceID:  "cut",
		StaffID:    "alice",
		CustomerID: "c1",
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
	}
}

func TestValidateCreate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*model.Booking)
		wantField string
	}{
		{"valid", func(*model.Booking) {}, ""},
		{"missing service", func(b *model.Booking) { b.ServiceID = "" }, "ServiceID"},
		{"missing customer", func(b *model.Booking) { b.CustomerID = "" }, "CustomerID"},
		{"end before start", func(b *model.Booking) { b.EndTime = b.StartTime.Add(-time.Minute) }, "EndTime"},
		{"zero length", func(b *model.Booking) { b.EndTime = b.StartTime }, "EndTime"},
		{"created confirmed", func(b *model.Booking) { b.Status = model.StatusConfirmed }, "Status"},
		{"unknown status", func(b *model.Booking) { b.Status = "pending" }, "Status"},
	}

	v := NewBookingValidator(logger.Discard())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := validBooking()
			tt.mutate(b)
			err := v.ValidateCreate(b)

			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if b.Status != model.StatusScheduled {
					t.Errorf("status defaulted to %q", b.Status)
				}
				return
			}

			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			found := false
			for _, e := range verrs {
				if e.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on %s, got %v", tt.wantField, verrs)
			}
		})
	}
}

func TestValidateReschedule(t *testing.T) {
	v := NewBookingValidator(logger.Discard())
	start := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)

	if err := v.ValidateReschedule(&model.BookingReschedule{StartTime: start, EndTime: start.Add(time.Hour)}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := v.ValidateReschedule(&model.BookingReschedule{StartTime: start, EndTime: start}); err == nil {
		t.Errorf("expected error for empty window")
	}
	if err := v.ValidateReschedule(&model.BookingReschedule{EndTime: start}); err == nil {
		t.Errorf("expected error for missing start")
	}
}

func TestValidateStatusUpdate(t *testing.T) {
	v := NewBookingValidator(logger.Discard())

	if err := v.ValidateStatusUpdate(&model.BookingStatusUpdate{Status: model.StatusCanceled}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := v.ValidateStatusUpdate(&model.BookingStatusUpdate{Status: "archived"}); err == nil {
		t.Errorf("expected error for unknown status")
	}
}
