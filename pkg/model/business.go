package model

import (
	"time"
	_ "time/tzdata"
)

// DayHours is one row of a weekly schedule. Weekday follows time.Weekday
// (0 = Sunday). A closed row, or a missing row, means no hours that day.
type DayHours struct {
	Weekday int    `json:"weekday" bson:"weekday" yaml:"weekday" validate:"min=0,max=6"`
	Open    string `json:"open,omitempty" bson:"open,omitempty" yaml:"open,omitempty" validate:"required_if=Closed false,omitempty,clock"`
	Close   string `json:"close,omitempty" bson:"close,omitempty" yaml:"close,omitempty" validate:"required_if=Closed false,omitempty,clock"`
	Closed  bool   `json:"closed,omitempty" bson:"closed,omitempty" yaml:"closed,omitempty"`
}

type Business struct {
	ID        string     `json:"id,omitempty" bson:"_id,omitempty" yaml:"id" validate:"required,max=64"`
	Name      string     `json:"name" bson:"name" yaml:"name" validate:"required,min=2,max=100"`
	TimeZone  string     `json:"time_zone,omitempty" bson:"time_zone,omitempty" yaml:"time_zone,omitempty" validate:"omitempty,timezone"`
	Hours     []DayHours `json:"hours" bson:"hours" yaml:"hours" validate:"max=7,unique=Weekday,dive"`
	CreatedAt time.Time  `json:"created_at" bson:"created_at" yaml:"-"`
}

// Location falls back to UTC when the zone is empty or unknown.
func (b *Business) Location() *time.Location {
	if b.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(b.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
