package service

import (
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/train-reservations/internal/model"
	"github.com/Shivanand-hulikatti/train-reservations/internal/repository"
)

// ErrInsufficientSeats is matched by every InsufficientSeatsError.
var ErrInsufficientSeats = errors.New("not enough seats available")

// ErrInvalidRequest is returned for malformed search or reserve input.
var ErrInvalidRequest = errors.New("invalid request")

// ErrInvalidBooking is returned when a booking request cannot be attempted.
var ErrInvalidBooking = errors.New("invalid booking request")

// Messages surfaced to callers, kept from the original wire contract.
const (
	MsgReserved     = "Reservation successful"
	MsgNotFound     = "Train not found"
	MsgNotEnough    = "Not enough seats available"
	MsgSearchFailed = "Failed to search trains"

	// MsgOutcomeUnknown prefixes transport failures. The filter service may
	// still have committed the seat after the call was abandoned.
	MsgOutcomeUnknown = "Reservation outcome unknown"
)

// InsufficientSeatsError reports a reservation that asked for more seats
// than the class had at the time of the attempt.
type InsufficientSeatsError struct {
	TrainID   string
	Class     model.TravelClass
	Requested int
	Available int
}

func (e *InsufficientSeatsError) Error() string {
	return fmt.Sprintf("not enough seats available on %s in %s: requested %d, available %d",
		e.TrainID, e.Class, e.Requested, e.Available)
}

func (e *InsufficientSeatsError) Is(target error) bool {
	return target == ErrInsufficientSeats
}

// ReserveError is a business failure reported by a remote filter service.
// It matches the same sentinels as the local errors of the same kind.
type ReserveError struct {
	Kind    model.FailureKind
	TrainID string
	Message string
}

func (e *ReserveError) Error() string {
	return fmt.Sprintf("reserve %s: %s", e.TrainID, e.Message)
}

func (e *ReserveError) Is(target error) bool {
	switch target {
	case repository.ErrNotFound:
		return e.Kind == model.FailureNotFound
	case ErrInsufficientSeats:
		return e.Kind == model.FailureInsufficientSeats
	case ErrInvalidRequest:
		return e.Kind == model.FailureInvalidRequest
	}
	return false
}

// FailureKindOf classifies a reservation error. Anything that is not a
// known business failure means the call could not complete and is
// reported as a transport failure.
func FailureKindOf(err error) model.FailureKind {
	var re *ReserveError
	switch {
	case errors.As(err, &re):
		return re.Kind
	case errors.Is(err, repository.ErrNotFound):
		return model.FailureNotFound
	case errors.Is(err, ErrInsufficientSeats):
		return model.FailureInsufficientSeats
	case errors.Is(err, ErrInvalidRequest):
		return model.FailureInvalidRequest
	}
	return model.FailureTransport
}

// FailureMessage returns the caller-facing message for a reservation error.
func FailureMessage(err error) string {
	var re *ReserveError
	if errors.As(err, &re) {
		return re.Message
	}
	switch FailureKindOf(err) {
	case model.FailureNotFound:
		return MsgNotFound
	case model.FailureInsufficientSeats:
		return MsgNotEnough
	case model.FailureInvalidRequest:
		return err.Error()
	}
	return fmt.Sprintf("%s: %v", MsgOutcomeUnknown, err)
}
