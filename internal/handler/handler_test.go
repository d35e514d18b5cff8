package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/train-reservations/internal/model"
	"github.com/Shivanand-hulikatti/train-reservations/internal/repository"
	"github.com/Shivanand-hulikatti/train-reservations/internal/service"
)

var t0 = time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testTrains() []model.TrainRecord {
	return []model.TrainRecord{
		{
			ID: "T001", DepartureStation: "Paris", ArrivalStation: "London",
			DepartureDateTime: t0.Add(8 * time.Hour), ArrivalDateTime: t0.Add(10 * time.Hour),
			AvailableSeats: map[model.TravelClass]int{model.First: 5, model.Business: 2, model.Standard: 10},
			Fares:          map[model.TravelClass]float64{model.First: 150, model.Business: 100, model.Standard: 50},
		},
		{
			ID: "T002", DepartureStation: "Paris", ArrivalStation: "London",
			DepartureDateTime: t0.Add(14 * time.Hour), ArrivalDateTime: t0.Add(16 * time.Hour),
			AvailableSeats: map[model.TravelClass]int{model.First: 3, model.Business: 4},
			Fares:          map[model.TravelClass]float64{model.First: 140, model.Business: 95, model.Standard: 45},
		},
	}
}

func newTrainService(t *testing.T) *service.TrainService {
	t.Helper()
	data, err := json.Marshal(testTrains())
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "trains.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	store, err := repository.NewFileStore(path, discardLogger())
	require.NoError(t, err)
	return service.NewTrainService(store, discardLogger())
}

func newFilterServer(t *testing.T) (*httptest.Server, *service.TrainService) {
	t.Helper()
	svc := newTrainService(t)
	r := NewRouter(discardLogger())
	NewTrainHandler(svc, discardLogger()).Routes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, svc
}

func postJSON(t *testing.T, url, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestFilterTrains(t *testing.T) {
	srv, _ := newFilterServer(t)

	resp, body := postJSON(t, srv.URL+"/filter-trains", `{
		"departureStation": "Paris",
		"arrivalStation": "London",
		"departureDateTime": "2023-06-01T00:00:00",
		"returnDateTime": "2023-06-02T00:00:00",
		"numTickets": 2,
		"travelClass": "Business"
	}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var trains []model.TrainSummary
	require.NoError(t, json.Unmarshal(body, &trains))
	require.Len(t, trains, 2)
	assert.Equal(t, "T001", trains[0].ID)
	assert.Equal(t, 2, trains[0].AvailableSeats)
	assert.Equal(t, 100.0, trains[0].Fares)
	assert.Equal(t, "T002", trains[1].ID)
}

func TestFilterTrainsNoMatch(t *testing.T) {
	srv, _ := newFilterServer(t)

	// T002 has no Standard entry and T001 has 10.
	resp, body := postJSON(t, srv.URL+"/filter-trains", `{
		"departureStation": "Paris",
		"arrivalStation": "London",
		"departureDateTime": "2023-06-01T00:00:00",
		"numTickets": 11,
		"travelClass": "Standard"
	}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"message":"No available trains."}`, string(body))
}

func TestFilterTrainsBadRequest(t *testing.T) {
	srv, _ := newFilterServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"not json", `nope`},
		{"unknown field", `{"from":"Paris"}`},
		{"bad date", `{"departureStation":"Paris","arrivalStation":"London","departureDateTime":"June","numTickets":1,"travelClass":"First"}`},
		{"bad class", `{"departureStation":"Paris","arrivalStation":"London","departureDateTime":"2023-06-01","numTickets":1,"travelClass":"Economy"}`},
		{"zero tickets", `{"departureStation":"Paris","arrivalStation":"London","departureDateTime":"2023-06-01","numTickets":0,"travelClass":"First"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := postJSON(t, srv.URL+"/filter-trains", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			var e model.ErrorResponse
			require.NoError(t, json.Unmarshal(body, &e))
			assert.NotEmpty(t, e.Error)
		})
	}
}

func TestUpdateReservation(t *testing.T) {
	srv, svc := newFilterServer(t)

	resp, body := postJSON(t, srv.URL+"/update-reservation", `{"trainId":"T001","travelClass":"Business","numTickets":1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got model.ReserveResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.True(t, got.Success)
	assert.Equal(t, service.MsgReserved, got.Message)
	assert.NotEmpty(t, got.ReservationID)
	require.NotNil(t, got.RemainingSeats)
	assert.Equal(t, 1, *got.RemainingSeats)

	rec, err := svc.Get(t.Context(), "T001")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Seats(model.Business))
}

func TestUpdateReservationFailures(t *testing.T) {
	srv, svc := newFilterServer(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantReason model.FailureKind
		wantMsg    string
	}{
		{"unknown train", `{"trainId":"T999","travelClass":"Business","numTickets":1}`,
			http.StatusNotFound, model.FailureNotFound, service.MsgNotFound},
		{"not enough", `{"trainId":"T001","travelClass":"Business","numTickets":3}`,
			http.StatusConflict, model.FailureInsufficientSeats, service.MsgNotEnough},
		{"missing class", `{"trainId":"T002","travelClass":"Standard","numTickets":1}`,
			http.StatusConflict, model.FailureInsufficientSeats, service.MsgNotEnough},
		{"zero tickets", `{"trainId":"T001","travelClass":"Business","numTickets":0}`,
			http.StatusBadRequest, model.FailureInvalidRequest, ""},
		{"bad body", `[]`,
			http.StatusBadRequest, model.FailureInvalidRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := postJSON(t, srv.URL+"/update-reservation", tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var got model.ReserveResponse
			require.NoError(t, json.Unmarshal(body, &got))
			assert.False(t, got.Success)
			assert.Equal(t, tt.wantReason, got.Reason)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, got.Message)
			}
		})
	}

	rec, err := svc.Get(t.Context(), "T001")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Seats(model.Business), "rejected reservations change nothing")
}

func TestUpdateReservationConcurrent(t *testing.T) {
	srv, svc := newFilterServer(t)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := http.Post(srv.URL+"/update-reservation", "application/json",
				strings.NewReader(`{"trainId":"T001","travelClass":"Business","numTickets":1}`))
			if !assert.NoError(t, err) {
				return
			}
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, ok)
	rec, err := svc.Get(t.Context(), "T001")
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Seats(model.Business))
}

func TestListAndGetTrains(t *testing.T) {
	srv, _ := newFilterServer(t)

	resp, err := http.Get(srv.URL + "/trains")
	require.NoError(t, err)
	var trains []model.TrainRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&trains))
	resp.Body.Close()
	assert.Len(t, trains, 2)

	resp, err = http.Get(srv.URL + "/trains/T002")
	require.NoError(t, err)
	var rec model.TrainRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rec))
	resp.Body.Close()
	assert.Equal(t, "T002", rec.ID)
	assert.Equal(t, 4, rec.Seats(model.Business))

	resp, err = http.Get(srv.URL + "/trains/T999")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthCheck(t *testing.T) {
	srv, _ := newFilterServer(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
