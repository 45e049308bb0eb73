package model

import "time"

// StaffMember is eligible for a service when either side lists the other.
type StaffMember struct {
	ID         string     `json:"id,omitempty" bson:"_id,omitempty" yaml:"id" validate:"required,max=64"`
	BusinessID string     `json:"business_id" bson:"business_id" yaml:"business_id" validate:"required,max=64"`
	Name       string     `json:"name" bson:"name" yaml:"name" validate:"required,min=2,max=100"`
	Active     bool       `json:"active" bson:"active" yaml:"active"`
	ServiceIDs []string   `json:"service_ids,omitempty" bson:"service_ids" yaml:"service_ids,omitempty" validate:"omitempty,unique,dive,required"`
	Schedule   []DayHours `json:"schedule" bson:"schedule" yaml:"schedule" validate:"max=7,unique=Weekday,dive"`
	TimeOff    []TimeOff  `json:"time_off,omitempty" bson:"time_off" yaml:"time_off,omitempty" validate:"omitempty,dive"`
	CreatedAt  time.Time  `json:"created_at" bson:"created_at" yaml:"-"`
}

// TimeOff is either a whole day (AllDay) or a Start-End sub-window of Date.
type TimeOff struct {
	Date   string `json:"date" bson:"date" yaml:"date" validate:"required,civil_date"`
	AllDay bool   `json:"all_day" bson:"all_day" yaml:"all_day"`
	Start  string `json:"start,omitempty" bson:"start,omitempty" yaml:"start,omitempty" validate:"required_if=AllDay false,omitempty,clock"`
	End    string `json:"end,omitempty" bson:"end,omitempty" yaml:"end,omitempty" validate:"required_if=AllDay false,omitempty,clock"`
	Reason string `json:"reason,omitempty" bson:"reason,omitempty" yaml:"reason,omitempty" validate:"max=200"`
}
