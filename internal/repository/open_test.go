package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/train-reservations/internal/config"
)

func TestOpenFileStore(t *testing.T) {
	store, closeStore, err := Open(context.Background(), config.StoreConfig{
		Driver: config.DriverFile,
		Path:   writeSeed(t, testTrains()),
	}, discardLogger())
	require.NoError(t, err)
	defer closeStore()

	trains, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, trains, 2)
}

func TestOpenSQLiteSeedsFromFile(t *testing.T) {
	cfg := config.StoreConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "trains.db"),
		Seed:   writeSeed(t, testTrains()),
	}
	ctx := context.Background()

	store, closeStore, err := Open(ctx, cfg, discardLogger())
	require.NoError(t, err)
	_, err = store.Update(ctx, "T001", decrement("Business", 2))
	require.NoError(t, err)
	closeStore()

	// Reopening with the same seed keeps the decremented inventory.
	store, closeStore, err = Open(ctx, cfg, discardLogger())
	require.NoError(t, err)
	defer closeStore()
	rec, err := store.Get(ctx, "T001")
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Seats("Business"))
}

func TestOpenErrors(t *testing.T) {
	ctx := context.Background()

	_, _, err := Open(ctx, config.StoreConfig{Driver: "redis"}, discardLogger())
	assert.Error(t, err)

	_, _, err = Open(ctx, config.StoreConfig{Driver: config.DriverFile, Path: filepath.Join(t.TempDir(), "missing.json")}, discardLogger())
	assert.Error(t, err)

	_, _, err = Open(ctx, config.StoreConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "trains.db"),
		Seed:   filepath.Join(t.TempDir(), "missing.json"),
	}, discardLogger())
	assert.Error(t, err)
}
