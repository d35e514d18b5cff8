// Package model defines the core domain types for the train search and
// booking system.
package model

import (
	"fmt"
	"time"
)

// TravelClass is a fare/seat tier. Each train tracks seats and fares
// independently per class.
type TravelClass string

const (
	First    TravelClass = "First"
	Business TravelClass = "Business"
	Standard TravelClass = "Standard"
)

// TravelClasses lists every class in display order.
var TravelClasses = []TravelClass{First, Business, Standard}

// Valid reports whether c is one of the known travel classes.
func (c TravelClass) Valid() bool {
	switch c {
	case First, Business, Standard:
		return true
	}
	return false
}

// TicketType is forwarded through booking for downstream billing and
// cancellation policy. It has no effect on seat pools or pricing here.
type TicketType string

const (
	Flexible    TicketType = "flexible"
	NotFlexible TicketType = "notFlexible"
)

// TrainRecord is the stored state of one train.
type TrainRecord struct {
	ID                string                  `json:"id"`
	DepartureStation  string                  `json:"departureStation"`
	ArrivalStation    string                  `json:"arrivalStation"`
	DepartureDateTime time.Time               `json:"departureDateTime"`
	ArrivalDateTime   time.Time               `json:"arrivalDateTime"`
	AvailableSeats    map[TravelClass]int     `json:"availableSeats"`
	Fares             map[TravelClass]float64 `json:"fares"`
}

// Seats returns the remaining seats for class. A class missing from the
// record has no seats.
func (t *TrainRecord) Seats(class TravelClass) int {
	return t.AvailableSeats[class]
}

// Validate checks the record invariants: a non-empty id, arrival after
// departure, and no negative seat count.
func (t *TrainRecord) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("train id is required")
	}
	if !t.ArrivalDateTime.After(t.DepartureDateTime) {
		return fmt.Errorf("train %s: arrival %s is not after departure %s",
			t.ID, t.ArrivalDateTime.Format(time.RFC3339), t.DepartureDateTime.Format(time.RFC3339))
	}
	for class, n := range t.AvailableSeats {
		if n < 0 {
			return fmt.Errorf("train %s: negative seat count %d for %s", t.ID, n, class)
		}
	}
	return nil
}

// Clone returns a deep copy so callers can mutate seat maps without
// touching shared state.
func (t TrainRecord) Clone() TrainRecord {
	out := t
	out.AvailableSeats = make(map[TravelClass]int, len(t.AvailableSeats))
	for k, v := range t.AvailableSeats {
		out.AvailableSeats[k] = v
	}
	out.Fares = make(map[TravelClass]float64, len(t.Fares))
	for k, v := range t.Fares {
		out.Fares[k] = v
	}
	return out
}

// TrainSummary is a search hit projected onto a single travel class.
type TrainSummary struct {
	ID                string    `json:"id"`
	DepartureDateTime time.Time `json:"departureDateTime"`
	ArrivalDateTime   time.Time `json:"arrivalDateTime"`
	AvailableSeats    int       `json:"availableSeats"`
	Fares             float64   `json:"fares"`
}

// SearchQuery selects trains on a route with enough seats in one class.
type SearchQuery struct {
	DepartureStation  string
	ArrivalStation    string
	EarliestDeparture time.Time
	RequiredSeats     int
	TravelClass       TravelClass
}

// SearchRequest is the JSON payload of POST /filter-trains.
type SearchRequest struct {
	DepartureStation  string      `json:"departureStation"`
	ArrivalStation    string      `json:"arrivalStation"`
	DepartureDateTime string      `json:"departureDateTime"`
	ReturnDateTime    string      `json:"returnDateTime,omitempty"`
	NumTickets        int         `json:"numTickets"`
	TravelClass       TravelClass `json:"travelClass"`
}

// NoTrainsMessage is the body message of an empty search result.
const NoTrainsMessage = "No available trains."

// MessageResponse carries a plain message, used for the empty search result.
type MessageResponse struct {
	Message string `json:"message"`
}

// SearchResult is a search reply as a client sees it. NoMatch is set when
// the filter service answered with NoTrainsMessage; it is not an error.
type SearchResult struct {
	Trains  []TrainSummary
	NoMatch bool
}

// ReserveRequest is the JSON payload of POST /update-reservation.
type ReserveRequest struct {
	TrainID     string      `json:"trainId"`
	TravelClass TravelClass `json:"travelClass"`
	NumTickets  int         `json:"numTickets"`
}

// ReserveResponse reports the outcome of a single reservation.
type ReserveResponse struct {
	Success        bool        `json:"success"`
	Message        string      `json:"message"`
	Reason         FailureKind `json:"reason,omitempty"`
	TrainID        string      `json:"trainId,omitempty"`
	TravelClass    TravelClass `json:"travelClass,omitempty"`
	RemainingSeats *int        `json:"remainingSeats,omitempty"`
	ReservationID  string      `json:"reservationId,omitempty"`
}

// Reservation is a committed seat decrement.
type Reservation struct {
	ID             string      `json:"id"`
	TrainID        string      `json:"trainId"`
	TravelClass    TravelClass `json:"travelClass"`
	NumTickets     int         `json:"numTickets"`
	RemainingSeats int         `json:"remainingSeats"`
	ReservedAt     time.Time   `json:"reservedAt"`
}

// FailureKind classifies why a reservation or booking did not complete.
type FailureKind string

const (
	FailureNotFound          FailureKind = "not_found"
	FailureInsufficientSeats FailureKind = "insufficient_seats"
	FailureTransport         FailureKind = "transport"
	FailureInvalidRequest    FailureKind = "invalid_request"
)

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
