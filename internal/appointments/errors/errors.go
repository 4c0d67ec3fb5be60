package errors

import "errors"

var (
	ErrNotFound = errors.New("appointment not found")

	ErrInvalidID = errors.New("invalid appointment ID format")

	// ErrSlotTaken is returned when the store rejects a write because another
	// occupying appointment already holds the provider/date/time.
	ErrSlotTaken = errors.New("slot already taken in store")

	// ErrStaleStatus is returned when the status changed between read and write.
	ErrStaleStatus = errors.New("appointment status changed concurrently")

	ErrLockHeld = errors.New("slot lock held by another request")
)
