package model

// Snapshot is everything the availability engine needs about one business,
// in storage shape. Snapshot files read by agendactl decode into it.
type Snapshot struct {
	Business  Business      `json:"business" yaml:"business" validate:"required"`
	Staff     []StaffMember `json:"staff" yaml:"staff" validate:"dive"`
	Services  []Service     `json:"services" yaml:"services" validate:"dive"`
	Customers []Customer    `json:"customers" yaml:"customers" validate:"dive"`
	Bookings  []Booking     `json:"bookings" yaml:"bookings" validate:"dive"`
}
