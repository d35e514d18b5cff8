// Package ui renders search and booking results for the terminal client.
//
// Every state the client can reach has its own rendering: a list of
// trains, no match, a failed search, a completed booking, a partial
// booking and a failed one. No match and a failed search never share
// wording, and a partial booking is never shown as success or failure.
package ui

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"

	"github.com/Shivanand-hulikatti/train-reservations/internal/model"
	"github.com/Shivanand-hulikatti/train-reservations/internal/service"
)

// Messages shown to the user.
const (
	MsgNoTrains           = "No trains available for these criteria. Please try different options."
	MsgSearchFailed       = "Failed to search trains. Please try again later."
	MsgBookingCompleted   = "Booking completed successfully!"
	MsgBookingPartial     = "Booking partially completed."
	MsgBookingFailed      = "Booking failed. Please try again."
	MsgBookingUnreachable = "Failed to connect to booking service. Please try again later."
	MsgCatalogFailed      = "Failed to load trains. Please try again later."
	MsgCatalogEmpty       = "No trains in the catalog."
)

const timeLayout = "2006-01-02 15:04"

// Printer writes styled output to one writer.
type Printer struct {
	w io.Writer

	errorStyle   lipgloss.Style
	successStyle lipgloss.Style
	warnStyle    lipgloss.Style
	faintStyle   lipgloss.Style
	headerStyle  lipgloss.Style
	cellStyle    lipgloss.Style
}

// NewPrinter returns a Printer for w. Pass termenv.Ascii to write plain
// text, e.g. when w is not a terminal.
func NewPrinter(w io.Writer, profile termenv.Profile) *Printer {
	re := lipgloss.NewRenderer(w, termenv.WithProfile(profile))
	re.SetColorProfile(profile)
	return &Printer{
		w:            w,
		errorStyle:   re.NewStyle().Foreground(lipgloss.Color("9")),
		successStyle: re.NewStyle().Foreground(lipgloss.Color("10")),
		warnStyle:    re.NewStyle().Foreground(lipgloss.Color("11")),
		faintStyle:   re.NewStyle().Foreground(lipgloss.Color("8")),
		headerStyle:  re.NewStyle().Bold(true).Padding(0, 1),
		cellStyle:    re.NewStyle().Padding(0, 1),
	}
}

// Search renders the reply to a search. err is the error returned by the
// search call, if any.
func (p *Printer) Search(res *model.SearchResult, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		return p.line(p.errorStyle, "Invalid search: "+err.Error())
	case err != nil:
		return p.line(p.errorStyle, MsgSearchFailed)
	case res.NoMatch || len(res.Trains) == 0:
		return p.line(p.warnStyle, MsgNoTrains)
	}

	rows := make([][]string, 0, len(res.Trains))
	for _, t := range res.Trains {
		rows = append(rows, []string{
			t.ID,
			t.DepartureDateTime.Format(timeLayout),
			t.ArrivalDateTime.Format(timeLayout),
			fmt.Sprint(t.AvailableSeats),
			fmt.Sprintf("%.2f", t.Fares),
		})
	}
	return p.table([]string{"TRAIN", "DEPARTS", "ARRIVES", "SEATS", "FARE"}, rows)
}

// Booking renders the outcome of a booking. err is the error returned by
// the booking call, if any.
func (p *Printer) Booking(out *model.BookingOutcome, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidBooking):
		return p.line(p.errorStyle, "Invalid booking: "+err.Error())
	case err != nil:
		return p.line(p.errorStyle, MsgBookingUnreachable)
	}

	var b strings.Builder
	switch out.Status {
	case model.BookingSucceeded:
		b.WriteString(p.successStyle.Render(MsgBookingCompleted))
	case model.BookingPartial:
		b.WriteString(p.warnStyle.Render(MsgBookingPartial))
	default:
		b.WriteString(p.errorStyle.Render(MsgBookingFailed))
	}
	b.WriteString("\n")

	if out.BookingID != "" {
		fmt.Fprintf(&b, "Booking:  %s\n", out.BookingID)
	}
	if ids := out.ReservedTrainIDs(); len(ids) > 0 {
		fmt.Fprintf(&b, "Reserved: %s (%s, %s)\n", strings.Join(ids, ", "), out.TravelClass, out.TicketType)
	}
	if f := out.Failure; f != nil {
		fmt.Fprintf(&b, "Failed:   %s: %s\n", f.TrainID, describeFailure(f))
	}
	var skipped []string
	for _, t := range out.Trains {
		if t.Status == model.TrainNotAttempted {
			skipped = append(skipped, t.TrainID)
		}
	}
	if len(skipped) > 0 {
		fmt.Fprintf(&b, "Skipped:  %s\n", strings.Join(skipped, ", "))
	}
	if out.Status == model.BookingPartial {
		b.WriteString(p.faintStyle.Render("Seats on reserved trains remain held."))
		b.WriteString("\n")
	}

	_, werr := io.WriteString(p.w, b.String())
	return werr
}

// Trains renders the full catalog with per-class seat counts, followed
// by the stations it serves. err is the error returned by the list call.
func (p *Printer) Trains(trains []model.TrainRecord, err error) error {
	switch {
	case err != nil:
		return p.line(p.errorStyle, MsgCatalogFailed)
	case len(trains) == 0:
		return p.line(p.warnStyle, MsgCatalogEmpty)
	}

	rows := make([][]string, 0, len(trains))
	for _, t := range trains {
		rows = append(rows, []string{
			t.ID,
			t.DepartureStation,
			t.ArrivalStation,
			t.DepartureDateTime.Format(timeLayout),
			fmt.Sprint(t.Seats(model.First)),
			fmt.Sprint(t.Seats(model.Business)),
			fmt.Sprint(t.Seats(model.Standard)),
		})
	}
	if err := p.table([]string{"TRAIN", "FROM", "TO", "DEPARTS", "FIRST", "BUSINESS", "STANDARD"}, rows); err != nil {
		return err
	}
	return p.line(p.faintStyle, "Stations: "+strings.Join(stations(trains), ", "))
}

// stations returns every station named in trains, sorted.
func stations(trains []model.TrainRecord) []string {
	var out []string
	for _, t := range trains {
		out = append(out, t.DepartureStation, t.ArrivalStation)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func describeFailure(f *model.BookingFailure) string {
	switch f.Kind {
	case model.FailureTransport:
		return "reserve call failed (" + f.Message + ")"
	case "":
		return f.Message
	}
	return f.Message + " [" + string(f.Kind) + "]"
}

func (p *Printer) line(style lipgloss.Style, msg string) error {
	_, err := fmt.Fprintln(p.w, style.Render(msg))
	return err
}

func (p *Printer) table(headers []string, rows [][]string) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(p.faintStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return p.headerStyle
			}
			return p.cellStyle
		})
	_, err := fmt.Fprintln(p.w, t.String())
	return err
}
