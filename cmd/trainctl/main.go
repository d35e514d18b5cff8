// trainctl is the terminal client: it searches the filter service and
// books through the booking service's SOAP endpoint.
//
//	trainctl search --from Paris --to London --date 2023-06-01T00:00:00 --tickets 2 --class Business
//	trainctl book --trains T001,T002 --class Business --ticket-type flexible
//	trainctl trains
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/muesli/termenv"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/Shivanand-hulikatti/train-reservations/internal/client"
	"github.com/Shivanand-hulikatti/train-reservations/internal/config"
	"github.com/Shivanand-hulikatti/train-reservations/internal/model"
	"github.com/Shivanand-hulikatti/train-reservations/internal/ui"
)

// exitError carries a non-zero exit status without an error message;
// the printer has already told the user what happened.
type exitError int

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", int(e)) }
func (e exitError) ExitCode() int { return int(e) }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	var coder interface{ ExitCode() int }
	if err != nil && !errors.As(err, &coder) {
		fmt.Fprintf(os.Stderr, "trainctl: %v\n", err)
	}
	os.Exit(exitCode(err))
}

// exitCode maps run's result to a process exit status: 0 on success, 2
// for usage errors, 3 for a partial booking and 1 for everything else.
func exitCode(err error) int {
	var coder interface{ ExitCode() int }
	switch {
	case err == nil:
		return 0
	case errors.As(err, &coder):
		return coder.ExitCode()
	}
	return 1
}

const usage = `usage: trainctl [--config FILE] <command> [flags]

commands:
  search   find trains with enough seats in one class
  book     reserve one seat on each listed train
  trains   list the catalog and its stations
`

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	global := pflag.NewFlagSet("trainctl", pflag.ContinueOnError)
	global.SetInterspersed(false)
	global.SetOutput(stderr)
	configPath := global.String("config", "", "YAML config file (default $"+config.EnvConfigPath+")")
	global.Usage = func() { fmt.Fprint(stderr, usage) }
	if err := global.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return exitError(2)
	}
	if global.NArg() == 0 {
		fmt.Fprint(stderr, usage)
		return exitError(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	profile := termenv.Ascii
	if f, ok := stdout.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		profile = termenv.ANSI256
	}
	app := &app{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Client.Timeout},
		printer: ui.NewPrinter(stdout, profile),
		stderr:  stderr,
	}

	cmd, rest := global.Arg(0), global.Args()[1:]
	switch cmd {
	case "search":
		return app.search(ctx, rest)
	case "book":
		return app.book(ctx, rest)
	case "trains":
		return app.trains(ctx, rest)
	}
	fmt.Fprintf(stderr, "trainctl: unknown command %q\n\n%s", cmd, usage)
	return exitError(2)
}

type app struct {
	cfg     *config.Config
	http    *http.Client
	printer *ui.Printer
	stderr  io.Writer
}

func (a *app) search(ctx context.Context, args []string) error {
	var req model.SearchRequest
	var class string
	flags := pflag.NewFlagSet("trainctl search", pflag.ContinueOnError)
	flags.StringVar(&req.DepartureStation, "from", "", "departure station")
	flags.StringVar(&req.ArrivalStation, "to", "", "arrival station")
	flags.StringVar(&req.DepartureDateTime, "date", "", "earliest departure, e.g. 2023-06-01T00:00:00")
	flags.StringVar(&req.ReturnDateTime, "return", "", "return date (informational)")
	flags.IntVar(&req.NumTickets, "tickets", 1, "number of tickets")
	flags.StringVar(&class, "class", string(model.Standard), "travel class: First, Business or Standard")
	if err := a.parse(flags, args); err != nil {
		return err
	}
	req.TravelClass = model.TravelClass(class)

	res, err := client.NewFilterClient(a.cfg.Booking.FilterURL, a.http).Search(ctx, req)
	if perr := a.printer.Search(res, err); perr != nil {
		return perr
	}
	if err != nil {
		return exitError(1)
	}
	return nil
}

func (a *app) book(ctx context.Context, args []string) error {
	var trains, class, ticketType string
	flags := pflag.NewFlagSet("trainctl book", pflag.ContinueOnError)
	flags.StringVar(&trains, "trains", "", "comma-separated train ids, booked in order")
	flags.StringVar(&class, "class", string(model.Standard), "travel class: First, Business or Standard")
	flags.StringVar(&ticketType, "ticket-type", string(model.Flexible), "flexible or notFlexible")
	if err := a.parse(flags, args); err != nil {
		return err
	}

	var ids []string
	for _, id := range strings.Split(trains, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	req := model.BookingRequest{
		TrainIDs:    ids,
		TravelClass: model.TravelClass(class),
		TicketType:  model.TicketType(ticketType),
	}

	out, err := client.NewBookingClient(a.cfg.Client.BookingURL, a.http).Book(ctx, req)
	if perr := a.printer.Booking(out, err); perr != nil {
		return perr
	}
	switch {
	case err != nil:
		return exitError(1)
	case out.Status == model.BookingPartial:
		return exitError(3)
	case out.Status != model.BookingSucceeded:
		return exitError(1)
	}
	return nil
}

func (a *app) trains(ctx context.Context, args []string) error {
	flags := pflag.NewFlagSet("trainctl trains", pflag.ContinueOnError)
	if err := a.parse(flags, args); err != nil {
		return err
	}

	trains, err := client.NewFilterClient(a.cfg.Booking.FilterURL, a.http).List(ctx)
	if perr := a.printer.Trains(trains, err); perr != nil {
		return perr
	}
	if err != nil {
		return exitError(1)
	}
	return nil
}

// parse parses a subcommand's flags. Asking for help is not a failure;
// any other parse error is a usage error.
func (a *app) parse(flags *pflag.FlagSet, args []string) error {
	flags.SetOutput(a.stderr)
	switch err := flags.Parse(args); {
	case errors.Is(err, pflag.ErrHelp):
		return exitError(0)
	case err != nil:
		return exitError(2)
	}
	return nil
}
