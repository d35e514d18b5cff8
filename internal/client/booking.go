package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Shivanand-hulikatti/train-reservations/internal/model"
	"github.com/Shivanand-hulikatti/train-reservations/internal/service"
	"github.com/Shivanand-hulikatti/train-reservations/internal/soap"
)

// BookingClient calls the booking service's SOAP endpoint.
type BookingClient struct {
	endpoint string
	http     *http.Client
}

// NewBookingClient returns a client posting envelopes to endpoint, e.g.
// http://localhost:3001/wsdl.
func NewBookingClient(endpoint string, hc *http.Client) *BookingClient {
	return &BookingClient{endpoint: endpoint, http: defaultHTTPClient(hc)}
}

// Book runs the bookTrain operation. Client faults wrap
// service.ErrInvalidBooking; server faults and unreadable replies are
// *TransportError. A returned outcome may be partial or failed.
func (c *BookingClient) Book(ctx context.Context, req model.BookingRequest) (*model.BookingOutcome, error) {
	const op = "book trains"
	var resp soap.BookTrainResponse
	err := c.call(ctx, op, soap.OpBookTrain, &soap.BookTrain{
		NS:          soap.ServiceNS,
		TrainIDs:    soap.EncodeTrainIDs(req.TrainIDs),
		TravelClass: string(req.TravelClass),
		TicketType:  string(req.TicketType),
	}, &resp)
	if err != nil {
		var fault *soap.Fault
		if errors.As(err, &fault) && fault.Code == soap.FaultClient {
			return nil, fmt.Errorf("%w: %s", service.ErrInvalidBooking, fault.String)
		}
		return nil, err
	}
	return resp.Outcome(req.TravelClass, req.TicketType), nil
}

// Search runs the searchTrains operation, which relays the filter
// service's reply.
func (c *BookingClient) Search(ctx context.Context, q model.SearchRequest) (*model.SearchResult, error) {
	const op = "search trains"
	var resp soap.SearchTrainsResponse
	err := c.call(ctx, op, soap.OpSearchTrains, &soap.SearchTrains{
		NS:                soap.ServiceNS,
		DepartureStation:  q.DepartureStation,
		ArrivalStation:    q.ArrivalStation,
		DepartureDateTime: q.DepartureDateTime,
		ReturnDateTime:    q.ReturnDateTime,
		NumTickets:        fmt.Sprint(q.NumTickets),
		TravelClass:       string(q.TravelClass),
	}, &resp)
	if err != nil {
		var fault *soap.Fault
		if errors.As(err, &fault) && fault.Code == soap.FaultClient {
			return nil, fmt.Errorf("%w: %s", service.ErrInvalidRequest, fault.String)
		}
		return nil, err
	}

	var msg model.MessageResponse
	if json.Unmarshal([]byte(resp.Result), &msg) == nil && msg.Message == model.NoTrainsMessage {
		return &model.SearchResult{Trains: []model.TrainSummary{}, NoMatch: true}, nil
	}
	var trains []model.TrainSummary
	if err := json.Unmarshal([]byte(resp.Result), &trains); err != nil {
		return nil, transportErr(op, fmt.Errorf("decode relayed result: %w", err))
	}
	if trains == nil {
		trains = []model.TrainSummary{}
	}
	return &model.SearchResult{Trains: trains}, nil
}

// call posts one operation and decodes the reply into dst. A client fault
// is returned as *soap.Fault; any other failure is a *TransportError.
func (c *BookingClient) call(ctx context.Context, op, action string, content, dst any) error {
	var buf bytes.Buffer
	if err := soap.Encode(&buf, content); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", soap.ContentType)
	req.Header.Set("SOAPAction", soap.ServiceNS+"/"+action)

	status, body, err := do(c.http, op, req)
	if err != nil {
		return err
	}

	err = soap.DecodeResponse(bytes.NewReader(body), dst)
	var fault *soap.Fault
	switch {
	case errors.As(err, &fault):
		if fault.Code == soap.FaultClient {
			return fault
		}
		return transportErr(op, fault)
	case err != nil:
		return transportErr(op, fmt.Errorf("status %d: %w", status, err))
	case status != http.StatusOK:
		return transportErr(op, &StatusError{Code: status, Body: snippet(body)})
	}
	return nil
}
