package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrStatusChanged means a conditional write lost to a concurrent one.
	ErrStatusChanged = errors.New("booking status changed concurrently")

	ErrLockHeld = errors.New("booking lock held by another writer")
)
