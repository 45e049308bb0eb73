package model

import "time"

// MaxBufferMinutes is the largest turnaround a service may declare.
const MaxBufferMinutes = 480

// Service is a bookable offering. BufferMinutes is turnaround time the
// assigned staff member needs after a booking ends.
type Service struct {
	ID                 string    `json:"id,omitempty" bson:"_id,omitempty" yaml:"id" validate:"required,max=64"`
	BusinessID         string    `json:"business_id" bson:"business_id" yaml:"business_id" validate:"required,max=64"`
	Name               string    `json:"name" bson:"name" yaml:"name" validate:"required,min=2,max=100"`
	Active             bool      `json:"active" bson:"active" yaml:"active"`
	DurationMinutes    int       `json:"duration_minutes" bson:"duration_minutes" yaml:"duration_minutes" validate:"required,min=1,max=1440"`
	BufferMinutes      int       `json:"buffer_minutes" bson:"buffer_minutes" yaml:"buffer_minutes" validate:"min=0,max=480"`
	MaxBookingsPerSlot int       `json:"max_bookings_per_slot" bson:"max_bookings_per_slot" yaml:"max_bookings_per_slot" validate:"required,min=1,max=1000"`
	EligibleStaffIDs   []string  `json:"eligible_staff_ids,omitempty" bson:"eligible_staff_ids" yaml:"eligible_staff_ids,omitempty" validate:"omitempty,unique,dive,required"`
	CreatedAt          time.Time `json:"created_at" bson:"created_at" yaml:"-"`
}

type Customer struct {
	ID         string    `json:"id,omitempty" bson:"_id,omitempty" yaml:"id" validate:"required,max=64"`
	BusinessID string    `json:"business_id" bson:"business_id" yaml:"business_id" validate:"required,max=64"`
	Name       string    `json:"name" bson:"name" yaml:"name" validate:"required,min=2,max=100"`
	Phone      string    `json:"phone,omitempty" bson:"phone,omitempty" yaml:"phone,omitempty" validate:"omitempty,e164"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at" yaml:"-"`
}
