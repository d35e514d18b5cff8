package repository

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/train-reservations/internal/model"
)

// openPostgres connects to TRAINS_TEST_POSTGRES_DSN and starts from an
// empty trains table. The test is skipped when the variable is unset.
func openPostgres(t *testing.T) *PostgresStore {
	t.Helper()
	dsn := os.Getenv("TRAINS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TRAINS_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `DROP TABLE IF EXISTS trains`)
	require.NoError(t, err)

	store, err := NewPostgresStore(ctx, pool, discardLogger())
	require.NoError(t, err)
	n, err := store.Seed(ctx, &Snapshot{Trains: testTrains()})
	require.NoError(t, err)
	require.Equal(t, 2, n)
	return store
}

func TestPostgresStore(t *testing.T) {
	store := openPostgres(t)
	ctx := context.Background()

	trains, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, trains, 2)
	assert.Equal(t, "T001", trains[0].ID)

	_, err = store.Get(ctx, "T999")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Update(ctx, "T001", decrement(model.Standard, 11))
	assert.ErrorIs(t, err, errNoSeats)

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
	)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Update(ctx, "T001", decrement(model.Business, 1)); err == nil {
				succeeded.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(2), succeeded.Load())

	rec, err := store.Get(ctx, "T001")
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Seats(model.Business))
	assert.Equal(t, 10, rec.Seats(model.Standard))
}
