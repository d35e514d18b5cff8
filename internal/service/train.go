// Package service implements train search, seat reservation and the
// multi-train booking orchestration on top of the catalog store.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/train-reservations/internal/model"
	"github.com/Shivanand-hulikatti/train-reservations/internal/repository"
)

// TrainService is the search/filter service. It holds no train state of
// its own: every call reads the store.
type TrainService struct {
	store  repository.TrainStore
	logger *slog.Logger
	now    func() time.Time
}

// NewTrainService constructs a TrainService over store.
func NewTrainService(store repository.TrainStore, logger *slog.Logger) *TrainService {
	return &TrainService{store: store, logger: logger, now: time.Now}
}

// Search returns the trains on the route leaving at or after
// q.EarliestDeparture with at least q.RequiredSeats seats in
// q.TravelClass, in store order. No match is an empty slice and a nil
// error.
func (s *TrainService) Search(ctx context.Context, q model.SearchQuery) ([]model.TrainSummary, error) {
	q.DepartureStation = strings.TrimSpace(q.DepartureStation)
	q.ArrivalStation = strings.TrimSpace(q.ArrivalStation)
	if q.DepartureStation == "" || q.ArrivalStation == "" {
		return nil, fmt.Errorf("%w: departure and arrival stations are required", ErrInvalidRequest)
	}
	if !q.TravelClass.Valid() {
		return nil, fmt.Errorf("%w: unknown travel class %q", ErrInvalidRequest, q.TravelClass)
	}
	if q.RequiredSeats < 1 {
		return nil, fmt.Errorf("%w: number of tickets must be at least 1", ErrInvalidRequest)
	}

	trains, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("search trains: %w", err)
	}

	results := []model.TrainSummary{}
	for i := range trains {
		t := &trains[i]
		if t.DepartureStation != q.DepartureStation || t.ArrivalStation != q.ArrivalStation {
			continue
		}
		if t.DepartureDateTime.Before(q.EarliestDeparture) {
			continue
		}
		if t.Seats(q.TravelClass) < q.RequiredSeats {
			continue
		}
		results = append(results, model.TrainSummary{
			ID:                t.ID,
			DepartureDateTime: t.DepartureDateTime,
			ArrivalDateTime:   t.ArrivalDateTime,
			AvailableSeats:    t.Seats(q.TravelClass),
			Fares:             t.Fares[q.TravelClass],
		})
	}
	return results, nil
}

// List returns every train.
func (s *TrainService) List(ctx context.Context) ([]model.TrainRecord, error) {
	return s.store.List(ctx)
}

// Get returns one train or repository.ErrNotFound.
func (s *TrainService) Get(ctx context.Context, id string) (*model.TrainRecord, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: train id is required", ErrInvalidRequest)
	}
	return s.store.Get(ctx, id)
}

// Reserve takes count seats of class on train id. It is the only
// operation that changes inventory.
//
// The seat check runs inside the store's serialized update against the
// current record, never against a count seen by an earlier search. On
// failure nothing is written: an unknown train yields
// repository.ErrNotFound and a short pool yields *InsufficientSeatsError.
func (s *TrainService) Reserve(ctx context.Context, id string, class model.TravelClass, count int) (*model.Reservation, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: train id is required", ErrInvalidRequest)
	}
	if !class.Valid() {
		return nil, fmt.Errorf("%w: unknown travel class %q", ErrInvalidRequest, class)
	}
	if count < 1 {
		return nil, fmt.Errorf("%w: number of tickets must be at least 1", ErrInvalidRequest)
	}

	rec, err := s.store.Update(ctx, id, func(rec *model.TrainRecord) error {
		available := rec.Seats(class)
		if available < count {
			return &InsufficientSeatsError{
				TrainID:   id,
				Class:     class,
				Requested: count,
				Available: available,
			}
		}
		rec.AvailableSeats[class] = available - count
		return nil
	})
	if err != nil {
		s.logger.Info("reservation rejected",
			"train_id", id,
			"class", class,
			"tickets", count,
			"reason", FailureKindOf(err),
			"error", err,
		)
		return nil, err
	}

	res := &model.Reservation{
		ID:             uuid.NewString(),
		TrainID:        id,
		TravelClass:    class,
		NumTickets:     count,
		RemainingSeats: rec.Seats(class),
		ReservedAt:     s.now().UTC(),
	}
	s.logger.Info("reservation committed",
		"reservation_id", res.ID,
		"train_id", id,
		"class", class,
		"tickets", count,
		"remaining", res.RemainingSeats,
	)
	return res, nil
}
