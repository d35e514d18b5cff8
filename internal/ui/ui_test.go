package ui

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/train-reservations/internal/model"
	"github.com/Shivanand-hulikatti/train-reservations/internal/service"
)

func render(t *testing.T, fn func(p *Printer) error) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, fn(NewPrinter(&buf, termenv.Ascii)))
	return buf.String()
}

func TestSearchStatesAreDistinct(t *testing.T) {
	dep := time.Date(2023, 6, 1, 8, 0, 0, 0, time.UTC)

	trains := render(t, func(p *Printer) error {
		return p.Search(&model.SearchResult{Trains: []model.TrainSummary{
			{ID: "T001", DepartureDateTime: dep, ArrivalDateTime: dep.Add(2 * time.Hour), AvailableSeats: 2, Fares: 100},
		}}, nil)
	})
	assert.Contains(t, trains, "T001")
	assert.Contains(t, trains, "2023-06-01 08:00")
	assert.Contains(t, trains, "100.00")
	assert.NotContains(t, trains, "\x1b[", "ascii profile writes no escape codes")

	noMatch := render(t, func(p *Printer) error {
		return p.Search(&model.SearchResult{NoMatch: true}, nil)
	})
	assert.Equal(t, MsgNoTrains+"\n", noMatch)

	failed := render(t, func(p *Printer) error {
		return p.Search(nil, errors.New("connection refused"))
	})
	assert.Equal(t, MsgSearchFailed+"\n", failed)

	invalid := render(t, func(p *Printer) error {
		return p.Search(nil, fmt.Errorf("%w: unknown travel class", service.ErrInvalidRequest))
	})
	assert.Contains(t, invalid, "Invalid search")
}

func TestBookingSucceeded(t *testing.T) {
	out := render(t, func(p *Printer) error {
		return p.Booking(&model.BookingOutcome{
			BookingID:   "b-1",
			Status:      model.BookingSucceeded,
			TravelClass: model.Business,
			TicketType:  model.Flexible,
			Trains:      []model.TrainBooking{{TrainID: "T001", Status: model.TrainReserved}},
		}, nil)
	})
	assert.Contains(t, out, MsgBookingCompleted)
	assert.Contains(t, out, "Reserved: T001 (Business, flexible)")
	assert.NotContains(t, out, "Failed:")
}

func TestBookingPartial(t *testing.T) {
	out := render(t, func(p *Printer) error {
		return p.Booking(&model.BookingOutcome{
			Status: model.BookingPartial,
			Trains: []model.TrainBooking{
				{TrainID: "T001", Status: model.TrainReserved},
				{TrainID: "T002", Status: model.TrainFailed},
				{TrainID: "T003", Status: model.TrainNotAttempted},
			},
			Failure: &model.BookingFailure{TrainID: "T002", Kind: model.FailureInsufficientSeats, Message: "Not enough seats available"},
		}, nil)
	})
	assert.Contains(t, out, MsgBookingPartial)
	assert.NotContains(t, out, MsgBookingCompleted)
	assert.NotContains(t, out, MsgBookingFailed)
	assert.Contains(t, out, "Reserved: T001")
	assert.Contains(t, out, "Failed:   T002: Not enough seats available [insufficient_seats]")
	assert.Contains(t, out, "Skipped:  T003")
}

func TestBookingFailedAndUnreachable(t *testing.T) {
	failed := render(t, func(p *Printer) error {
		return p.Booking(&model.BookingOutcome{
			Status:  model.BookingFailed,
			Trains:  []model.TrainBooking{{TrainID: "T999", Status: model.TrainFailed}},
			Failure: &model.BookingFailure{TrainID: "T999", Kind: model.FailureNotFound, Message: "Train not found"},
		}, nil)
	})
	assert.Contains(t, failed, MsgBookingFailed)
	assert.Contains(t, failed, "T999: Train not found [not_found]")
	assert.NotContains(t, failed, "Reserved:")

	unreachable := render(t, func(p *Printer) error {
		return p.Booking(nil, errors.New("dial tcp: connection refused"))
	})
	assert.Equal(t, MsgBookingUnreachable+"\n", unreachable)

	invalid := render(t, func(p *Printer) error {
		return p.Booking(nil, fmt.Errorf("%w: unknown travel class", service.ErrInvalidBooking))
	})
	assert.Contains(t, invalid, "Invalid booking")
}

func TestTrainsAndStations(t *testing.T) {
	dep := time.Date(2023, 6, 1, 8, 0, 0, 0, time.UTC)
	trains := []model.TrainRecord{
		{ID: "T001", DepartureStation: "Paris", ArrivalStation: "London", DepartureDateTime: dep,
			AvailableSeats: map[model.TravelClass]int{model.Business: 2}},
		{ID: "T002", DepartureStation: "London", ArrivalStation: "Brussels", DepartureDateTime: dep},
	}

	out := render(t, func(p *Printer) error { return p.Trains(trains, nil) })
	assert.Contains(t, out, "T001")
	assert.Contains(t, out, "BUSINESS")
	assert.Contains(t, out, "Brussels")
	assert.Contains(t, out, "Stations: Brussels, London, Paris\n")

	assert.Equal(t, []string{"Brussels", "London", "Paris"}, stations(trains))
}

func TestTrainsFailedAndEmpty(t *testing.T) {
	failed := render(t, func(p *Printer) error {
		return p.Trains(nil, errors.New("dial tcp: connection refused"))
	})
	assert.Equal(t, MsgCatalogFailed+"\n", failed)

	empty := render(t, func(p *Printer) error { return p.Trains(nil, nil) })
	assert.Equal(t, MsgCatalogEmpty+"\n", empty)
	assert.NotEqual(t, failed, empty)
}
