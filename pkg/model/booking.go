package model

import (
	"time"
)

type BookingStatus string

const (
	StatusScheduled BookingStatus = "scheduled"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCompleted BookingStatus = "completed"
	StatusCanceled  BookingStatus = "canceled"
	StatusNoShow    BookingStatus = "no_show"
)

// ActiveStatuses are the statuses that hold a slot.
var ActiveStatuses = []BookingStatus{StatusScheduled, StatusConfirmed}

var transitions = map[BookingStatus][]BookingStatus{
	StatusScheduled: {StatusConfirmed, StatusCanceled, StatusCompleted, StatusNoShow},
	StatusConfirmed: {StatusCanceled, StatusCompleted, StatusNoShow},
}

func (s BookingStatus) IsActive() bool {
	return s == StatusScheduled || s == StatusConfirmed
}

func (s BookingStatus) IsTerminal() bool {
	_, ok := transitions[s]
	return !ok
}

// CanTransition reports whether a booking in status s may move to next.
func (s BookingStatus) CanTransition(next BookingStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Booking struct {
	ID         string        `json:"id,omitempty" bson:"_id,omitempty" yaml:"id" validate:"omitempty,max=64"`
	BusinessID string        `json:"business_id" bson:"business_id" yaml:"business_id" validate:"required,max=64"`
	ServiceID  string        `json:"service_id" bson:"service_id" yaml:"service_id" validate:"required,max=64"`
	StaffID    string        `json:"staff_id,omitempty" bson:"staff_id,omitempty" yaml:"staff_id,omitempty" validate:"omitempty,max=64"`
	CustomerID string        `json:"customer_id" bson:"customer_id" yaml:"customer_id" validate:"required,max=64"`
	StartTime  time.Time     `json:"start_time" bson:"start_time" yaml:"start_time" validate:"required"`
	EndTime    time.Time     `json:"end_time" bson:"end_time" yaml:"end_time" validate:"required"`
	Status     BookingStatus `json:"status" bson:"status" yaml:"status" validate:"required,booking_status"`
	Notes      string        `json:"notes,omitempty" bson:"notes,omitempty" yaml:"notes,omitempty" validate:"max=500"`
	CreatedAt  time.Time     `json:"created_at" bson:"created_at" yaml:"-"`
	UpdatedAt  time.Time     `json:"updated_at,omitempty" bson:"updated_at,omitempty" yaml:"-"`
}

type BookingReschedule struct {
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required"`
	StaffID   *string   `json:"staff_id,omitempty" validate:"omitempty"`
}

type BookingStatusUpdate struct {
	Status BookingStatus `json:"status" validate:"required,booking_status"`
}
