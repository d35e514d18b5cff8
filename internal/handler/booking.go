package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/train-reservations/internal/model"
	"github.com/Shivanand-hulikatti/train-reservations/internal/service"
	"github.com/Shivanand-hulikatti/train-reservations/internal/soap"
)

// Booker runs multi-train bookings.
type Booker interface {
	Book(ctx context.Context, req model.BookingRequest) (*model.BookingOutcome, error)
}

// Searcher runs train searches on behalf of the SOAP searchTrains
// operation.
type Searcher interface {
	Search(ctx context.Context, req model.SearchRequest) (*model.SearchResult, error)
}

// BookingHandler serves the booking service: the SOAP endpoint, its WSDL
// and the JSON booking endpoint.
type BookingHandler struct {
	booker   Booker
	searcher Searcher
	logger   *slog.Logger
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(booker Booker, searcher Searcher, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{booker: booker, searcher: searcher, logger: logger}
}

// Routes mounts the booking service endpoints on r.
func (h *BookingHandler) Routes(r chi.Router) {
	r.Get("/wsdl", h.WSDL)
	r.Post("/wsdl", h.SOAP)
	r.Post("/bookings", h.CreateBooking)
}

// WSDL handles GET /wsdl?wsdl
func (h *BookingHandler) WSDL(w http.ResponseWriter, r *http.Request) {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		scheme = p
	}
	w.Header().Set("Content-Type", soap.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(soap.WSDL(scheme + "://" + r.Host + "/wsdl")))
}

// SOAP handles POST /wsdl
// Dispatches the searchTrains and bookTrain operations.
func (h *BookingHandler) SOAP(w http.ResponseWriter, r *http.Request) {
	req, err := soap.DecodeRequest(r.Body)
	if err != nil {
		writeFault(w, soap.FaultClient, err.Error())
		return
	}

	switch req.Operation {
	case soap.OpSearchTrains:
		h.searchTrains(w, r, req.Search)
	case soap.OpBookTrain:
		h.bookTrain(w, r, req.Book)
	}
}

func (h *BookingHandler) searchTrains(w http.ResponseWriter, r *http.Request, op *soap.SearchTrains) {
	q, err := op.SearchRequest()
	if err != nil {
		writeFault(w, soap.FaultClient, err.Error())
		return
	}

	res, err := h.searcher.Search(r.Context(), q)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			writeFault(w, soap.FaultClient, err.Error())
			return
		}
		h.logger.Error("relayed search failed", "error", err)
		writeFault(w, soap.FaultServer, service.MsgSearchFailed)
		return
	}

	// The result element carries the filter service's JSON reply as text.
	var payload any = res.Trains
	if res.NoMatch {
		payload = model.MessageResponse{Message: model.NoTrainsMessage}
	}
	result, err := json.Marshal(payload)
	if err != nil {
		writeFault(w, soap.FaultServer, service.MsgSearchFailed)
		return
	}
	writeSOAP(w, http.StatusOK, &soap.SearchTrainsResponse{NS: soap.ServiceNS, Result: string(result)})
}

func (h *BookingHandler) bookTrain(w http.ResponseWriter, r *http.Request, op *soap.BookTrain) {
	req, err := op.BookingRequest()
	if err != nil {
		writeFault(w, soap.FaultClient, err.Error())
		return
	}

	out, err := h.booker.Book(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidBooking) {
			writeFault(w, soap.FaultClient, err.Error())
			return
		}
		h.logger.Error("booking failed", "error", err)
		writeFault(w, soap.FaultServer, "Failed to book train")
		return
	}
	writeSOAP(w, http.StatusOK, soap.NewBookTrainResponse(out))
}

// CreateBooking handles POST /bookings
// Returns the booking outcome; the status code reflects the aggregate
// status so partial bookings are never reported as plain success.
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req model.BookingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	out, err := h.booker.Book(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidBooking) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("booking failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to book trains")
		return
	}

	writeJSON(w, bookingStatus(out), out)
}

func bookingStatus(out *model.BookingOutcome) int {
	switch out.Status {
	case model.BookingSucceeded:
		return http.StatusOK
	case model.BookingPartial:
		return http.StatusMultiStatus
	}
	if out.Failure != nil && out.Failure.Kind == model.FailureTransport {
		return http.StatusBadGateway
	}
	return http.StatusConflict
}

// writeSOAP encodes content before writing so an encoding error still
// produces a well-formed fault.
func writeSOAP(w http.ResponseWriter, status int, content any) {
	var buf bytes.Buffer
	if err := soap.Encode(&buf, content); err != nil {
		writeFault(w, soap.FaultServer, "failed to encode response")
		return
	}
	w.Header().Set("Content-Type", soap.ContentType)
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// writeFault sends a SOAP 1.1 fault, which always travels with status 500.
func writeFault(w http.ResponseWriter, code, msg string) {
	var buf bytes.Buffer
	_ = soap.EncodeFault(&buf, code, msg)
	w.Header().Set("Content-Type", soap.ContentType)
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = buf.WriteTo(w)
}
