package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/train-reservations/internal/model"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS trains (
	id                TEXT PRIMARY KEY,
	departure_station TEXT NOT NULL,
	arrival_station   TEXT NOT NULL,
	departure_at      TIMESTAMPTZ NOT NULL,
	arrival_at        TIMESTAMPTZ NOT NULL,
	available_seats   JSONB NOT NULL,
	fares             JSONB NOT NULL,
	version           BIGINT NOT NULL DEFAULT 0,
	position          SERIAL,
	CHECK (arrival_at > departure_at)
)`

const postgresColumns = `id, departure_station, arrival_station, departure_at, arrival_at, available_seats, fares`

// PostgresStore keeps one row per train. Seat maps live in JSONB columns.
type PostgresStore struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgresStore creates the schema if needed.
func NewPostgresStore(ctx context.Context, db *pgxpool.Pool, logger *slog.Logger) (*PostgresStore, error) {
	if _, err := db.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("create trains table: %w", err)
	}
	return &PostgresStore{db: db, logger: logger}, nil
}

// Seed inserts the snapshot's trains when the table is empty. Existing
// rows are never overwritten: seat counts only change via Update.
func (s *PostgresStore) Seed(ctx context.Context, snap *Snapshot) (int, error) {
	var count int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM trains`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count trains: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for i := range snap.Trains {
		rec := &snap.Trains[i]
		seats, fares, err := encodeMaps(rec)
		if err != nil {
			return 0, err
		}
		batch.Queue(
			`INSERT INTO trains (`+postgresColumns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (id) DO NOTHING`,
			rec.ID, rec.DepartureStation, rec.ArrivalStation,
			rec.DepartureDateTime, rec.ArrivalDateTime, seats, fares,
		)
	}
	if err := s.db.SendBatch(ctx, batch).Close(); err != nil {
		return 0, fmt.Errorf("seed trains: %w", err)
	}
	s.logger.Info("postgres store seeded", "trains", len(snap.Trains))
	return len(snap.Trains), nil
}

// List returns every train in insertion order.
func (s *PostgresStore) List(ctx context.Context) ([]model.TrainRecord, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+postgresColumns+` FROM trains ORDER BY position, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list trains: %w", err)
	}
	defer rows.Close()

	var trains []model.TrainRecord
	for rows.Next() {
		rec, err := scanTrain(rows)
		if err != nil {
			return nil, err
		}
		trains = append(trains, *rec)
	}
	return trains, rows.Err()
}

// Get returns a single train or ErrNotFound.
func (s *PostgresStore) Get(ctx context.Context, id string) (*model.TrainRecord, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+postgresColumns+` FROM trains WHERE id = $1`,
		id,
	)
	return scanTrain(row)
}

// Update locks the train's row with SELECT ... FOR UPDATE, applies fn and
// writes the row back in the same transaction. A concurrent Update on the
// same train blocks on the row lock until this one commits or rolls back,
// and then reads the committed seat counts.
func (s *PostgresStore) Update(ctx context.Context, id string, fn UpdateFunc) (_ *model.TrainRecord, err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	rec, err := scanTrain(tx.QueryRow(ctx,
		`SELECT `+postgresColumns+` FROM trains WHERE id = $1 FOR UPDATE`,
		id,
	))
	if err != nil {
		return nil, err
	}

	if err = fn(rec); err != nil {
		return nil, err
	}
	if err = checkUpdated(id, rec); err != nil {
		return nil, err
	}

	seats, fares, err := encodeMaps(rec)
	if err != nil {
		return nil, err
	}
	_, err = tx.Exec(ctx,
		`UPDATE trains
		 SET available_seats = $2, fares = $3, version = version + 1
		 WHERE id = $1`,
		id, seats, fares,
	)
	if err != nil {
		return nil, fmt.Errorf("update train: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return rec, nil
}

// Close is a no-op; the pool is owned by the caller.
func (s *PostgresStore) Close() error { return nil }

func scanTrain(row pgx.Row) (*model.TrainRecord, error) {
	var (
		rec          model.TrainRecord
		seats, fares []byte
	)
	err := row.Scan(&rec.ID, &rec.DepartureStation, &rec.ArrivalStation,
		&rec.DepartureDateTime, &rec.ArrivalDateTime, &seats, &fares)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan train: %w", err)
	}
	if err := decodeMaps(&rec, seats, fares); err != nil {
		return nil, err
	}
	rec.DepartureDateTime = rec.DepartureDateTime.UTC()
	rec.ArrivalDateTime = rec.ArrivalDateTime.UTC()
	return &rec, nil
}

func encodeMaps(rec *model.TrainRecord) (seats, fares string, err error) {
	s, err := json.Marshal(rec.AvailableSeats)
	if err != nil {
		return "", "", fmt.Errorf("encode seats: %w", err)
	}
	f, err := json.Marshal(rec.Fares)
	if err != nil {
		return "", "", fmt.Errorf("encode fares: %w", err)
	}
	return string(s), string(f), nil
}

func decodeMaps(rec *model.TrainRecord, seats, fares []byte) error {
	if err := json.Unmarshal(seats, &rec.AvailableSeats); err != nil {
		return fmt.Errorf("decode seats for %s: %w", rec.ID, err)
	}
	if err := json.Unmarshal(fares, &rec.Fares); err != nil {
		return fmt.Errorf("decode fares for %s: %w", rec.ID, err)
	}
	return nil
}
