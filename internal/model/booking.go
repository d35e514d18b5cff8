package model

// BookingRequest names the trains to reserve, in order, for one class.
type BookingRequest struct {
	TrainIDs    []string    `json:"trainIds"`
	TravelClass TravelClass `json:"travelClass"`
	TicketType  TicketType  `json:"ticketType"`
}

// BookingStatus is the aggregate status of a multi-train booking.
type BookingStatus string

const (
	// BookingSucceeded means every listed train was reserved.
	BookingSucceeded BookingStatus = "succeeded"
	// BookingPartial means at least one train was reserved before a
	// later train failed. Earlier reservations stay committed.
	BookingPartial BookingStatus = "partial"
	// BookingFailed means the first train failed and nothing was reserved.
	BookingFailed BookingStatus = "failed"
)

// TrainBookingStatus is the per-train state within a booking.
type TrainBookingStatus string

const (
	TrainReserved     TrainBookingStatus = "reserved"
	TrainFailed       TrainBookingStatus = "failed"
	TrainNotAttempted TrainBookingStatus = "not_attempted"
)

// TrainBooking records what happened to one train of a booking request.
type TrainBooking struct {
	TrainID       string             `json:"trainId"`
	Status        TrainBookingStatus `json:"status"`
	ReservationID string             `json:"reservationId,omitempty"`
	FailureKind   FailureKind        `json:"failureKind,omitempty"`
	Message       string             `json:"message,omitempty"`
}

// BookingFailure is the first failure that stopped a booking.
type BookingFailure struct {
	TrainID string      `json:"trainId"`
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

// Legacy result strings returned by the document protocol.
const (
	ResultSuccess     = "Successful reservation"
	ResultErrorPrefix = "Reservation error: "
)

// BookingOutcome aggregates the per-train results of a booking request.
type BookingOutcome struct {
	BookingID   string          `json:"bookingId"`
	Status      BookingStatus   `json:"status"`
	TravelClass TravelClass     `json:"travelClass"`
	TicketType  TicketType      `json:"ticketType"`
	Trains      []TrainBooking  `json:"trains"`
	Failure     *BookingFailure `json:"failure,omitempty"`
	Result      string          `json:"result"`
}

// ReservedTrainIDs returns the ids whose reservation was committed, in
// request order.
func (o *BookingOutcome) ReservedTrainIDs() []string {
	var ids []string
	for _, t := range o.Trains {
		if t.Status == TrainReserved {
			ids = append(ids, t.TrainID)
		}
	}
	return ids
}
