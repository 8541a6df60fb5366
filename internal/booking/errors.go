// Package booking validates and applies booking, reschedule and cancel
// requests against the clinic calendar and the booking store.
package booking

import (
	"errors"
	"fmt"

	"dentalportal/internal/models"
)

var (
	ErrValidation = errors.New("invalid booking request")
	ErrConflict   = errors.New("slot already booked")
	ErrNotFound   = errors.New("booking not found")
)

// ValidationError reports a missing or invalid request field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ConflictError reports a slot already held by an active booking.
type ConflictError struct {
	Slot   models.SlotKey
	HeldBy string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("slot %s already booked", e.Slot)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// NotFoundError reports an unknown or cancelled booking id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("booking %s not found", e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }
