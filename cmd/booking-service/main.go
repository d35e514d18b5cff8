// booking-service exposes the SOAP booking endpoint and reserves seats
// through the filter service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/Shivanand-hulikatti/train-reservations/internal/client"
	"github.com/Shivanand-hulikatti/train-reservations/internal/config"
	"github.com/Shivanand-hulikatti/train-reservations/internal/handler"
	"github.com/Shivanand-hulikatti/train-reservations/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "booking-service: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath, addr, filterURL string
	flags := pflag.NewFlagSet("booking-service", pflag.ContinueOnError)
	flags.StringVar(&configPath, "config", "", "YAML config file (default $"+config.EnvConfigPath+")")
	flags.StringVar(&addr, "addr", "", "listen address, overrides booking.addr")
	flags.StringVar(&filterURL, "filter-url", "", "filter service base URL, overrides booking.filter_url")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Booking.Addr = addr
	}
	if filterURL != "" {
		cfg.Booking.FilterURL = filterURL
	}
	logger := cfg.Log.NewLogger(os.Stderr).With("service", "booking")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 1. Wire up layers ────────────────────────────────────────────────
	filter := client.NewFilterClient(cfg.Booking.FilterURL, &http.Client{Timeout: client.DefaultTimeout})
	bookingSvc := service.NewBookingService(filter, cfg.Booking.ReserveTimeout, logger)
	bookingHandler := handler.NewBookingHandler(bookingSvc, filter, logger)
	logger.Info("reserving through filter service",
		"filter_url", cfg.Booking.FilterURL,
		"reserve_timeout", cfg.Booking.ReserveTimeout,
	)

	// ── 2. Build the router ───────────────────────────────────────────────
	r := handler.NewRouter(logger)
	bookingHandler.Routes(r)

	// ── 3. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         cfg.Booking.Addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return handler.Serve(ctx, srv, cfg.Booking.ShutdownTimeout, logger)
}
