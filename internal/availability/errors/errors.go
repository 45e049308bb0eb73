package errors

import "errors"

var (
	ErrBusinessNotFound = errors.New("business not found")

	ErrServiceNotFound = errors.New("service not found")

	ErrServiceInactive = errors.New("service is not active")

	ErrStaffNotFound = errors.New("staff member not found")

	ErrStaffInactive = errors.New("staff member is not active")

	ErrInvalidID = errors.New("invalid ID format")

	ErrInvalidSnapshot = errors.New("invalid snapshot")
)
