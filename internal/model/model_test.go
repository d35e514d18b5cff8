package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2023-06-01T08:30:00Z", time.Date(2023, 6, 1, 8, 30, 0, 0, time.UTC)},
		{"2023-06-01T08:30:00", time.Date(2023, 6, 1, 8, 30, 0, 0, time.UTC)},
		{"2023-06-01T08:30", time.Date(2023, 6, 1, 8, 30, 0, 0, time.UTC)},
		{"2023-06-01", time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParseDateTime(tt.in)
		require.NoError(t, err, tt.in)
		assert.True(t, tt.want.Equal(got), "%s: got %s", tt.in, got)
	}

	_, err := ParseDateTime("tomorrow")
	assert.Error(t, err)
}

func TestTrainRecordValidate(t *testing.T) {
	dep := time.Date(2023, 6, 1, 8, 0, 0, 0, time.UTC)
	rec := TrainRecord{
		ID:                "T001",
		DepartureDateTime: dep,
		ArrivalDateTime:   dep.Add(2 * time.Hour),
		AvailableSeats:    map[TravelClass]int{Business: 2},
	}
	require.NoError(t, rec.Validate())

	bad := rec.Clone()
	bad.ArrivalDateTime = dep
	assert.Error(t, bad.Validate())

	bad = rec.Clone()
	bad.AvailableSeats[Standard] = -1
	assert.Error(t, bad.Validate())
}

func TestCloneIsDeep(t *testing.T) {
	rec := TrainRecord{ID: "T001", AvailableSeats: map[TravelClass]int{First: 3}}
	cp := rec.Clone()
	cp.AvailableSeats[First] = 0
	assert.Equal(t, 3, rec.Seats(First))
	assert.Equal(t, 0, rec.Seats(Standard))
}

func TestReservedTrainIDs(t *testing.T) {
	out := BookingOutcome{Trains: []TrainBooking{
		{TrainID: "T001", Status: TrainReserved},
		{TrainID: "T002", Status: TrainFailed},
		{TrainID: "T003", Status: TrainNotAttempted},
	}}
	assert.Equal(t, []string{"T001"}, out.ReservedTrainIDs())
}
