package services

import (
	"errors"
	"fmt"

	"mechanic-service-server/models"
)

// Business-rule failures surfaced to the transport layer. None of these are
// retried; gateway retry classification lives in the gateway package.
var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must be a positive integer in minor units")
	ErrConflict          = errors.New("conflict")
	ErrNotYourBooking    = errors.New("booking is assigned to a different mechanic")
	ErrCancelCompleted   = errors.New("completed bookings cannot be cancelled, raise a dispute instead")
	ErrNoMechanicFound   = errors.New("no available mechanic within the search radius")
)

// InvalidTransitionError names the current and requested booking state.
type InvalidTransitionError struct {
	From models.BookingStatus
	To   models.BookingStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid state transition from %q to %q", e.From, e.To)
}

// IsInvalidTransition reports whether err is a disallowed lifecycle move.
func IsInvalidTransition(err error) bool {
	var target *InvalidTransitionError
	return errors.As(err, &target)
}
