// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/train-reservations/internal/model"
	"github.com/Shivanand-hulikatti/train-reservations/internal/repository"
	"github.com/Shivanand-hulikatti/train-reservations/internal/service"
)

// TrainHandler holds the HTTP handlers of the filter service.
type TrainHandler struct {
	svc    *service.TrainService
	logger *slog.Logger
}

// NewTrainHandler constructs a TrainHandler.
func NewTrainHandler(svc *service.TrainService, logger *slog.Logger) *TrainHandler {
	return &TrainHandler{svc: svc, logger: logger}
}

// Routes mounts the filter service endpoints on r.
func (h *TrainHandler) Routes(r chi.Router) {
	r.Post("/filter-trains", h.FilterTrains)
	r.Post("/update-reservation", h.UpdateReservation)
	r.Get("/trains", h.ListTrains)
	r.Get("/trains/{id}", h.GetTrain)
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// ─── Handlers ─────────────────────────────────────────────────────────────────

// FilterTrains handles POST /filter-trains
// Returns the matching trains, or 404 with the no-train message.
func (h *TrainHandler) FilterTrains(w http.ResponseWriter, r *http.Request) {
	var req model.SearchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	earliest, err := model.ParseDateTime(req.DepartureDateTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "departureDateTime: "+err.Error())
		return
	}

	trains, err := h.svc.Search(r.Context(), model.SearchQuery{
		DepartureStation:  req.DepartureStation,
		ArrivalStation:    req.ArrivalStation,
		EarliestDeparture: earliest,
		RequiredSeats:     req.NumTickets,
		TravelClass:       req.TravelClass,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("search failed", "error", err)
		writeError(w, http.StatusInternalServerError, service.MsgSearchFailed)
		return
	}

	if len(trains) == 0 {
		writeJSON(w, http.StatusNotFound, model.MessageResponse{Message: model.NoTrainsMessage})
		return
	}
	writeJSON(w, http.StatusOK, trains)
}

// UpdateReservation handles POST /update-reservation
// Takes seats from one class of one train, or reports why it could not.
func (h *TrainHandler) UpdateReservation(w http.ResponseWriter, r *http.Request) {
	var req model.ReserveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, model.ReserveResponse{
			Message: "invalid request body: " + err.Error(),
			Reason:  model.FailureInvalidRequest,
		})
		return
	}

	res, err := h.svc.Reserve(r.Context(), req.TrainID, req.TravelClass, req.NumTickets)
	if err != nil {
		resp := model.ReserveResponse{
			TrainID:     req.TrainID,
			TravelClass: req.TravelClass,
		}
		var short *service.InsufficientSeatsError
		switch {
		case errors.Is(err, repository.ErrNotFound):
			resp.Message, resp.Reason = service.MsgNotFound, model.FailureNotFound
			writeJSON(w, http.StatusNotFound, resp)
		case errors.As(err, &short):
			resp.Message, resp.Reason = service.MsgNotEnough, model.FailureInsufficientSeats
			resp.RemainingSeats = &short.Available
			writeJSON(w, http.StatusConflict, resp)
		case errors.Is(err, service.ErrInvalidRequest):
			resp.Message, resp.Reason = err.Error(), model.FailureInvalidRequest
			writeJSON(w, http.StatusBadRequest, resp)
		default:
			h.logger.Error("reservation failed", "train_id", req.TrainID, "error", err)
			resp.Message = "Failed to update reservation"
			writeJSON(w, http.StatusInternalServerError, resp)
		}
		return
	}

	writeJSON(w, http.StatusOK, model.ReserveResponse{
		Success:        true,
		Message:        service.MsgReserved,
		TrainID:        res.TrainID,
		TravelClass:    res.TravelClass,
		RemainingSeats: &res.RemainingSeats,
		ReservationID:  res.ID,
	})
}

// ListTrains handles GET /trains
// Returns a JSON array of all trains.
func (h *TrainHandler) ListTrains(w http.ResponseWriter, r *http.Request) {
	trains, err := h.svc.List(r.Context())
	if err != nil {
		h.logger.Error("list trains failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list trains")
		return
	}

	// Return an empty array rather than null for better client compatibility.
	if trains == nil {
		trains = []model.TrainRecord{}
	}

	writeJSON(w, http.StatusOK, trains)
}

// GetTrain handles GET /trains/{id}
func (h *TrainHandler) GetTrain(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	train, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "train not found")
			return
		}
		h.logger.Error("get train failed", "train_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get train")
		return
	}

	writeJSON(w, http.StatusOK, train)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
