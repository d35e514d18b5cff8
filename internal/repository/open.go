package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Shivanand-hulikatti/train-reservations/internal/config"
	"github.com/Shivanand-hulikatti/train-reservations/internal/database"
)

// Open builds the store selected by cfg.Driver. SQL stores are seeded
// from cfg.Seed when it is set and the table is empty. The returned
// close function releases the store and any pool behind it.
func Open(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (TrainStore, func(), error) {
	switch cfg.Driver {
	case config.DriverFile:
		store, err := NewFileStore(cfg.Path, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil

	case config.DriverSQLite:
		store, err := OpenSQLiteStore(cfg.Path, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := seed(ctx, cfg.Seed, store.Seed); err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil

	case config.DriverPostgres:
		pool, err := database.NewPool(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, nil, err
		}
		store, err := NewPostgresStore(ctx, pool, logger)
		if err == nil {
			err = seed(ctx, cfg.Seed, store.Seed)
		}
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

func seed(ctx context.Context, path string, fn func(context.Context, *Snapshot) (int, error)) error {
	if path == "" {
		return nil
	}
	snap, err := ReadSnapshotFile(path)
	if err != nil {
		return fmt.Errorf("read seed: %w", err)
	}
	if _, err := fn(ctx, snap); err != nil {
		return fmt.Errorf("seed store: %w", err)
	}
	return nil
}
