// Package soap is the adapter between the legacy document-style booking
// protocol and the booking core. It decodes SOAP 1.1 envelopes into
// normalized requests and encodes outcomes and faults back into
// envelopes. Nothing outside this package sees XML.
package soap

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Shivanand-hulikatti/train-reservations/internal/model"
)

const (
	EnvelopeNS = "http://schemas.xmlsoap.org/soap/envelope/"
	ServiceNS  = "http://example.com/trainbooking.wsdl"

	// ContentType is the SOAP 1.1 media type.
	ContentType = "text/xml; charset=utf-8"
)

// Operation names.
const (
	OpSearchTrains = "searchTrains"
	OpBookTrain    = "bookTrain"
)

// Fault codes.
const (
	FaultClient = "soap:Client"
	FaultServer = "soap:Server"
)

// maxEnvelopeSize caps request bodies.
const maxEnvelopeSize = 1 << 20

var (
	// ErrMalformed is returned for bodies that are not a SOAP envelope.
	ErrMalformed = errors.New("malformed soap envelope")

	// ErrUnknownOperation is returned for operations this service lacks.
	ErrUnknownOperation = errors.New("unknown soap operation")
)

// Envelope matches a SOAP envelope in any namespace. Body.Content holds
// the raw operation element.
type Envelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		Content []byte `xml:",innerxml"`
	} `xml:"Body"`
}

// SearchTrains is the searchTrains request element.
type SearchTrains struct {
	XMLName           xml.Name `xml:"searchTrains"`
	NS                string   `xml:"xmlns,attr,omitempty"`
	DepartureStation  string   `xml:"departureStation"`
	ArrivalStation    string   `xml:"arrivalStation"`
	DepartureDateTime string   `xml:"departureDateTime"`
	ReturnDateTime    string   `xml:"returnDateTime,omitempty"`
	NumTickets        string   `xml:"numTickets"`
	TravelClass       string   `xml:"travelClass"`
}

// BookTrain is the bookTrain request element. TrainIDs is serialized as
// a JSON list, a comma-separated list, or a single id.
type BookTrain struct {
	XMLName     xml.Name `xml:"bookTrain"`
	NS          string   `xml:"xmlns,attr,omitempty"`
	TrainIDs    string   `xml:"trainIds"`
	TravelClass string   `xml:"travelClass"`
	TicketType  string   `xml:"ticketType"`
}

// SearchTrainsResponse carries the filter service's JSON reply verbatim.
type SearchTrainsResponse struct {
	XMLName xml.Name `xml:"searchTrainsResponse"`
	NS      string   `xml:"xmlns,attr,omitempty"`
	Result  string   `xml:"result"`
}

// BookTrainResponse carries the legacy result string plus the aggregate
// status, so a partial booking is never mistaken for success or failure.
type BookTrainResponse struct {
	XMLName          xml.Name `xml:"bookTrainResponse"`
	NS               string   `xml:"xmlns,attr,omitempty"`
	Result           string   `xml:"result"`
	Status           string   `xml:"status"`
	BookingID        string   `xml:"bookingId,omitempty"`
	ReservedTrainIDs []string `xml:"reservedTrainId"`
	FailedTrainID    string   `xml:"failedTrainId,omitempty"`
	FailureKind      string   `xml:"failureKind,omitempty"`
	FailureMessage   string   `xml:"failureMessage,omitempty"`
}

// Fault is a SOAP 1.1 fault as read by clients.
type Fault struct {
	XMLName xml.Name `xml:"Fault"`
	Code    string   `xml:"faultcode"`
	String  string   `xml:"faultstring"`
}

func (f *Fault) Error() string {
	return fmt.Sprintf("soap fault %s: %s", f.Code, f.String)
}

// faultOut is the wire form of Fault, prefixed into the envelope namespace.
type faultOut struct {
	XMLName xml.Name `xml:"soap:Fault"`
	Code    string   `xml:"faultcode"`
	String  string   `xml:"faultstring"`
}

type envelopeOut struct {
	XMLName xml.Name `xml:"soap:Envelope"`
	NS      string   `xml:"xmlns:soap,attr"`
	Body    struct {
		Content any
	} `xml:"soap:Body"`
}

// Request is a decoded operation. Exactly one of Search and Book is set.
type Request struct {
	Operation string
	Search    *SearchTrains
	Book      *BookTrain
}

// DecodeRequest reads one envelope and decodes its operation element.
func DecodeRequest(r io.Reader) (*Request, error) {
	content, err := readBody(r)
	if err != nil {
		return nil, err
	}
	start, dec, err := firstElement(content)
	if err != nil {
		return nil, err
	}

	req := &Request{Operation: start.Name.Local}
	switch start.Name.Local {
	case OpSearchTrains:
		req.Search = &SearchTrains{}
		err = dec.DecodeElement(req.Search, &start)
	case OpBookTrain:
		req.Book = &BookTrain{}
		err = dec.DecodeElement(req.Book, &start)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, start.Name.Local)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, start.Name.Local, err)
	}
	return req, nil
}

// SearchRequest converts the operation into the filter service's request.
func (s *SearchTrains) SearchRequest() (model.SearchRequest, error) {
	req := model.SearchRequest{
		DepartureStation:  strings.TrimSpace(s.DepartureStation),
		ArrivalStation:    strings.TrimSpace(s.ArrivalStation),
		DepartureDateTime: strings.TrimSpace(s.DepartureDateTime),
		ReturnDateTime:    strings.TrimSpace(s.ReturnDateTime),
		TravelClass:       model.TravelClass(strings.TrimSpace(s.TravelClass)),
	}
	n, err := strconv.Atoi(strings.TrimSpace(s.NumTickets))
	if err != nil {
		return req, fmt.Errorf("numTickets: %q is not a number", s.NumTickets)
	}
	req.NumTickets = n
	return req, nil
}

// BookingRequest normalizes the operation into the orchestrator's request.
func (b *BookTrain) BookingRequest() (model.BookingRequest, error) {
	ids, err := ParseTrainIDs(b.TrainIDs)
	if err != nil {
		return model.BookingRequest{}, err
	}
	return model.BookingRequest{
		TrainIDs:    ids,
		TravelClass: model.TravelClass(strings.TrimSpace(b.TravelClass)),
		TicketType:  model.TicketType(strings.TrimSpace(b.TicketType)),
	}, nil
}

// ParseTrainIDs decodes the serialized id list: a JSON array
// (`["T001","T002"]`), a comma-separated list, or a single id. Order is
// preserved and blank entries are dropped.
func ParseTrainIDs(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	var raw []string
	if strings.HasPrefix(s, "[") {
		if err := json.Unmarshal([]byte(s), &raw); err != nil {
			return nil, fmt.Errorf("trainIds: invalid JSON list: %w", err)
		}
	} else {
		raw = strings.Split(s, ",")
	}

	ids := make([]string, 0, len(raw))
	for _, id := range raw {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// EncodeTrainIDs serializes ids the way the legacy clients do.
func EncodeTrainIDs(ids []string) string {
	data, _ := json.Marshal(ids)
	return string(data)
}

// NewBookTrainResponse builds the response element for an outcome.
func NewBookTrainResponse(out *model.BookingOutcome) *BookTrainResponse {
	resp := &BookTrainResponse{
		NS:               ServiceNS,
		Result:           out.Result,
		Status:           string(out.Status),
		BookingID:        out.BookingID,
		ReservedTrainIDs: out.ReservedTrainIDs(),
	}
	if out.Failure != nil {
		resp.FailedTrainID = out.Failure.TrainID
		resp.FailureKind = string(out.Failure.Kind)
		resp.FailureMessage = out.Failure.Message
	}
	return resp
}

// Outcome converts a decoded response back into a booking outcome. Trains
// after the failed one are not reported on the wire and are omitted.
func (r *BookTrainResponse) Outcome(class model.TravelClass, ticketType model.TicketType) *model.BookingOutcome {
	out := &model.BookingOutcome{
		BookingID:   r.BookingID,
		Status:      model.BookingStatus(r.Status),
		TravelClass: class,
		TicketType:  ticketType,
		Result:      r.Result,
	}
	for _, id := range r.ReservedTrainIDs {
		out.Trains = append(out.Trains, model.TrainBooking{TrainID: id, Status: model.TrainReserved})
	}
	if r.FailedTrainID != "" {
		kind := model.FailureKind(r.FailureKind)
		out.Failure = &model.BookingFailure{TrainID: r.FailedTrainID, Kind: kind, Message: r.FailureMessage}
		out.Trains = append(out.Trains, model.TrainBooking{
			TrainID:     r.FailedTrainID,
			Status:      model.TrainFailed,
			FailureKind: kind,
			Message:     r.FailureMessage,
		})
	}
	return out
}

// Encode writes content wrapped in a SOAP envelope.
func Encode(w io.Writer, content any) error {
	env := envelopeOut{NS: EnvelopeNS}
	env.Body.Content = content
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	return xml.NewEncoder(w).Encode(env)
}

// EncodeFault writes a fault envelope.
func EncodeFault(w io.Writer, code, msg string) error {
	return Encode(w, faultOut{Code: code, String: msg})
}

// DecodeResponse reads a response envelope into dst. A fault comes back
// as a *Fault error.
func DecodeResponse(r io.Reader, dst any) error {
	content, err := readBody(r)
	if err != nil {
		return err
	}
	start, dec, err := firstElement(content)
	if err != nil {
		return err
	}
	if start.Name.Local == "Fault" {
		var f Fault
		if err := dec.DecodeElement(&f, &start); err != nil {
			return fmt.Errorf("%w: fault: %v", ErrMalformed, err)
		}
		return &f
	}
	if err := dec.DecodeElement(dst, &start); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, start.Name.Local, err)
	}
	return nil
}

func readBody(r io.Reader) ([]byte, error) {
	var env Envelope
	if err := xml.NewDecoder(io.LimitReader(r, maxEnvelopeSize)).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return env.Body.Content, nil
}

// firstElement finds the first element inside the body content.
func firstElement(content []byte) (xml.StartElement, *xml.Decoder, error) {
	dec := xml.NewDecoder(bytes.NewReader(content))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return xml.StartElement{}, nil, fmt.Errorf("%w: empty body", ErrMalformed)
		}
		if err != nil {
			return xml.StartElement{}, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start, dec, nil
		}
	}
}
