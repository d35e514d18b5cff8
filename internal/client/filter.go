package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/train-reservations/internal/model"
	"github.com/Shivanand-hulikatti/train-reservations/internal/repository"
	"github.com/Shivanand-hulikatti/train-reservations/internal/service"
)

// FilterClient talks JSON to the filter service.
type FilterClient struct {
	baseURL string
	http    *http.Client
}

// NewFilterClient returns a client for the filter service at baseURL. A
// nil hc uses a client with DefaultTimeout.
func NewFilterClient(baseURL string, hc *http.Client) *FilterClient {
	return &FilterClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    defaultHTTPClient(hc),
	}
}

var _ service.Reserver = (*FilterClient)(nil)

// Search runs POST /filter-trains. The no-train reply comes back as a
// result with NoMatch set, never as an error.
func (c *FilterClient) Search(ctx context.Context, q model.SearchRequest) (*model.SearchResult, error) {
	const op = "search trains"
	req, err := newJSONRequest(ctx, http.MethodPost, c.baseURL+"/filter-trains", q)
	if err != nil {
		return nil, err
	}
	status, body, err := do(c.http, op, req)
	if err != nil {
		return nil, err
	}
	return DecodeSearchResult(op, status, body)
}

// DecodeSearchResult interprets a /filter-trains reply.
func DecodeSearchResult(op string, status int, body []byte) (*model.SearchResult, error) {
	switch status {
	case http.StatusOK:
		var trains []model.TrainSummary
		if err := json.Unmarshal(body, &trains); err != nil {
			return nil, transportErr(op, fmt.Errorf("decode trains: %w", err))
		}
		if trains == nil {
			trains = []model.TrainSummary{}
		}
		return &model.SearchResult{Trains: trains}, nil
	case http.StatusNotFound:
		var msg model.MessageResponse
		if err := json.Unmarshal(body, &msg); err == nil && msg.Message == model.NoTrainsMessage {
			return &model.SearchResult{Trains: []model.TrainSummary{}, NoMatch: true}, nil
		}
	case http.StatusBadRequest:
		return nil, fmt.Errorf("%w: %s", service.ErrInvalidRequest, errorMessage(body))
	}
	return nil, transportErr(op, &StatusError{Code: status, Body: snippet(body)})
}

// Reserve runs POST /update-reservation. Business rejections come back as
// *service.ReserveError; everything else that prevents a decision is a
// *TransportError.
func (c *FilterClient) Reserve(ctx context.Context, r model.ReserveRequest) (*model.Reservation, error) {
	const op = "reserve"
	req, err := newJSONRequest(ctx, http.MethodPost, c.baseURL+"/update-reservation", r)
	if err != nil {
		return nil, err
	}
	status, body, err := do(c.http, op, req)
	if err != nil {
		return nil, err
	}
	if status >= http.StatusInternalServerError {
		return nil, transportErr(op, &StatusError{Code: status, Body: snippet(body)})
	}

	var resp model.ReserveResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, transportErr(op, fmt.Errorf("decode reservation reply (status %d): %w", status, err))
	}

	if resp.Success && status < http.StatusMultipleChoices {
		res := &model.Reservation{
			ID:          resp.ReservationID,
			TrainID:     r.TrainID,
			TravelClass: r.TravelClass,
			NumTickets:  r.NumTickets,
			ReservedAt:  time.Now().UTC(),
		}
		if resp.RemainingSeats != nil {
			res.RemainingSeats = *resp.RemainingSeats
		}
		return res, nil
	}

	kind := resp.Reason
	if kind == "" {
		kind = kindOf(status, resp.Message)
	}
	if kind == "" {
		return nil, transportErr(op, fmt.Errorf("unrecognized rejection (status %d): %q", status, resp.Message))
	}
	msg := resp.Message
	if msg == "" {
		msg = string(kind)
	}
	return nil, &service.ReserveError{Kind: kind, TrainID: r.TrainID, Message: msg}
}

// kindOf classifies a rejection that carries no reason field, as sent by
// older filter services that only reply with a message.
func kindOf(status int, msg string) model.FailureKind {
	switch {
	case msg == service.MsgNotFound, status == http.StatusNotFound:
		return model.FailureNotFound
	case msg == service.MsgNotEnough, status == http.StatusConflict:
		return model.FailureInsufficientSeats
	case status == http.StatusBadRequest:
		return model.FailureInvalidRequest
	}
	return ""
}

// List runs GET /trains.
func (c *FilterClient) List(ctx context.Context) ([]model.TrainRecord, error) {
	const op = "list trains"
	req, err := newJSONRequest(ctx, http.MethodGet, c.baseURL+"/trains", nil)
	if err != nil {
		return nil, err
	}
	status, body, err := do(c.http, op, req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, transportErr(op, &StatusError{Code: status, Body: snippet(body)})
	}
	var trains []model.TrainRecord
	if err := json.Unmarshal(body, &trains); err != nil {
		return nil, transportErr(op, fmt.Errorf("decode trains: %w", err))
	}
	return trains, nil
}

// Get runs GET /trains/{id}. An unknown id yields repository.ErrNotFound.
func (c *FilterClient) Get(ctx context.Context, id string) (*model.TrainRecord, error) {
	const op = "get train"
	req, err := newJSONRequest(ctx, http.MethodGet, c.baseURL+"/trains/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	status, body, err := do(c.http, op, req)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("train %s: %w", id, repository.ErrNotFound)
	default:
		return nil, transportErr(op, &StatusError{Code: status, Body: snippet(body)})
	}
	var rec model.TrainRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, transportErr(op, fmt.Errorf("decode train: %w", err))
	}
	return &rec, nil
}

func errorMessage(body []byte) string {
	var e model.ErrorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return snippet(body)
}

// IsTransport reports whether err is a *TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
