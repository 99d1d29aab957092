package errors

import "errors"

var (
	ErrEventNotFound = errors.New("event not found")

	ErrDuplicateBooking = errors.New("user already has an active booking for this event")

	ErrBookingNotFound = errors.New("booking not found")

	ErrAlreadyCancelled = errors.New("booking is already cancelled")

	ErrAlreadyWaitlisted = errors.New("user is already on the waitlist for this event")

	ErrNotWaitlisted = errors.New("user is not on the waitlist for this event")

	ErrLockBusy = errors.New("event is locked by another operation")

	ErrInvalidID = errors.New("invalid ID format")
)
