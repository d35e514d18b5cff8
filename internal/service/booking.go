package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/train-reservations/internal/model"
)

// Reserver performs one reservation against the filter service.
type Reserver interface {
	Reserve(ctx context.Context, req model.ReserveRequest) (*model.Reservation, error)
}

// LocalReserver calls a TrainService in the same process.
type LocalReserver struct {
	Trains *TrainService
}

// Reserve implements Reserver.
func (l LocalReserver) Reserve(ctx context.Context, req model.ReserveRequest) (*model.Reservation, error) {
	return l.Trains.Reserve(ctx, req.TrainID, req.TravelClass, req.NumTickets)
}

// ticketsPerTrain is how many seats a booking takes on each listed train.
const ticketsPerTrain = 1

// BookingService orchestrates multi-train bookings.
//
// Trains are reserved one at a time in request order. The first failure
// stops the loop; trains reserved before it stay reserved and the outcome
// is marked partial so the caller can decide whether to compensate.
type BookingService struct {
	reserver       Reserver
	reserveTimeout time.Duration
	logger         *slog.Logger
}

// NewBookingService constructs a BookingService. A positive
// reserveTimeout bounds every individual reserve call.
func NewBookingService(reserver Reserver, reserveTimeout time.Duration, logger *slog.Logger) *BookingService {
	return &BookingService{
		reserver:       reserver,
		reserveTimeout: reserveTimeout,
		logger:         logger,
	}
}

// Book reserves one seat of req.TravelClass on every train in
// req.TrainIDs. It returns an error only when the request is invalid and
// nothing was attempted; every attempted booking, including failed ones,
// comes back as an outcome.
func (s *BookingService) Book(ctx context.Context, req model.BookingRequest) (*model.BookingOutcome, error) {
	req, err := normalizeBooking(req)
	if err != nil {
		return nil, err
	}

	out := &model.BookingOutcome{
		BookingID:   uuid.NewString(),
		TravelClass: req.TravelClass,
		TicketType:  req.TicketType,
		Trains:      make([]model.TrainBooking, len(req.TrainIDs)),
	}
	for i, id := range req.TrainIDs {
		out.Trains[i] = model.TrainBooking{TrainID: id, Status: model.TrainNotAttempted}
	}

	logger := s.logger.With("booking_id", out.BookingID)
	for i, id := range req.TrainIDs {
		res, err := s.reserve(ctx, model.ReserveRequest{
			TrainID:     id,
			TravelClass: req.TravelClass,
			NumTickets:  ticketsPerTrain,
		})
		if err != nil {
			s.fail(out, i, err)
			logger.Warn("booking stopped",
				"status", out.Status,
				"train_id", id,
				"reason", out.Failure.Kind,
				"reserved", out.ReservedTrainIDs(),
				"error", err,
			)
			return out, nil
		}
		out.Trains[i].Status = model.TrainReserved
		out.Trains[i].ReservationID = res.ID
	}

	out.Status = model.BookingSucceeded
	out.Result = model.ResultSuccess
	logger.Info("booking succeeded",
		"trains", req.TrainIDs,
		"class", req.TravelClass,
		"ticket_type", req.TicketType,
	)
	return out, nil
}

func (s *BookingService) reserve(ctx context.Context, req model.ReserveRequest) (*model.Reservation, error) {
	if s.reserveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.reserveTimeout)
		defer cancel()
	}
	return s.reserver.Reserve(ctx, req)
}

// fail records err as the failure of train i and sets the aggregate status.
func (s *BookingService) fail(out *model.BookingOutcome, i int, err error) {
	kind := FailureKindOf(err)
	msg := FailureMessage(err)

	out.Trains[i].Status = model.TrainFailed
	out.Trains[i].FailureKind = kind
	out.Trains[i].Message = msg
	out.Failure = &model.BookingFailure{
		TrainID: out.Trains[i].TrainID,
		Kind:    kind,
		Message: msg,
	}
	out.Result = model.ResultErrorPrefix + msg
	if i == 0 {
		out.Status = model.BookingFailed
	} else {
		out.Status = model.BookingPartial
	}
}

func normalizeBooking(req model.BookingRequest) (model.BookingRequest, error) {
	ids := make([]string, 0, len(req.TrainIDs))
	for _, id := range req.TrainIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			return req, fmt.Errorf("%w: empty train id", ErrInvalidBooking)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return req, fmt.Errorf("%w: at least one train id is required", ErrInvalidBooking)
	}
	if !req.TravelClass.Valid() {
		return req, fmt.Errorf("%w: unknown travel class %q", ErrInvalidBooking, req.TravelClass)
	}
	req.TrainIDs = ids
	req.TicketType = model.TicketType(strings.TrimSpace(string(req.TicketType)))
	return req, nil
}
