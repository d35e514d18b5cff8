// filter-service serves train search and the seat reservation endpoint
// over the configured catalog store.
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

	"github.com/Shivanand-hulikatti/train-reservations/internal/config"
	"github.com/Shivanand-hulikatti/train-reservations/internal/handler"
	"github.com/Shivanand-hulikatti/train-reservations/internal/repository"
	"github.com/Shivanand-hulikatti/train-reservations/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "filter-service: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath, addr string
	flags := pflag.NewFlagSet("filter-service", pflag.ContinueOnError)
	flags.StringVar(&configPath, "config", "", "YAML config file (default $"+config.EnvConfigPath+")")
	flags.StringVar(&addr, "addr", "", "listen address, overrides filter.addr")
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
		cfg.Filter.Addr = addr
	}
	logger := cfg.Log.NewLogger(os.Stderr).With("service", "filter")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 1. Open the catalog store ─────────────────────────────────────────
	store, closeStore, err := repository.Open(ctx, cfg.Store, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeStore()
	logger.Info("catalog store ready", "driver", cfg.Store.Driver)

	// ── 2. Wire up layers ────────────────────────────────────────────────
	trainSvc := service.NewTrainService(store, logger)
	trainHandler := handler.NewTrainHandler(trainSvc, logger)

	// ── 3. Build the router ───────────────────────────────────────────────
	r := handler.NewRouter(logger)
	trainHandler.Routes(r)

	// ── 4. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         cfg.Filter.Addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return handler.Serve(ctx, srv, cfg.Filter.ShutdownTimeout, logger)
}
