package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/Shivanand-hulikatti/train-reservations/internal/database"
	"github.com/Shivanand-hulikatti/train-reservations/internal/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS trains (
	position          INTEGER PRIMARY KEY AUTOINCREMENT,
	id                TEXT NOT NULL UNIQUE,
	departure_station TEXT NOT NULL,
	arrival_station   TEXT NOT NULL,
	departure_at      TEXT NOT NULL,
	arrival_at        TEXT NOT NULL,
	available_seats   TEXT NOT NULL,
	fares             TEXT NOT NULL,
	version           INTEGER NOT NULL DEFAULT 0
);
`

const sqliteColumns = `id, departure_station, arrival_station, departure_at, arrival_at, available_seats, fares`

// SQLiteStore keeps one row per train in a local SQLite database.
// Writers use BEGIN IMMEDIATE, which takes the database write lock up
// front, so the read-check-write inside Update never interleaves with
// another writer.
type SQLiteStore struct {
	pool   *database.SQLitePool
	logger *slog.Logger
}

// OpenSQLiteStore opens (or creates) the database at path.
func OpenSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	pool, err := database.OpenSQLite(database.SQLiteConfig{
		Path:   path,
		Logger: logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, sqliteSchema, nil)
		},
	})
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{pool: pool, logger: logger}, nil
}

// Seed inserts the snapshot's trains when the table is empty.
func (s *SQLiteStore) Seed(ctx context.Context, snap *Snapshot) (n int, err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, err
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer endTransaction(&err)

	var count int
	err = sqlitex.Execute(conn, `SELECT COUNT(*) FROM trains`, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			count = stmt.ColumnInt(0)
			return nil
		},
	})
	if err != nil {
		return 0, fmt.Errorf("count trains: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	for i := range snap.Trains {
		rec := &snap.Trains[i]
		seats, fares, encErr := encodeMaps(rec)
		if encErr != nil {
			return 0, encErr
		}
		err = sqlitex.Execute(conn,
			`INSERT INTO trains (`+sqliteColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			&sqlitex.ExecOptions{Args: []any{
				rec.ID, rec.DepartureStation, rec.ArrivalStation,
				formatTime(rec.DepartureDateTime), formatTime(rec.ArrivalDateTime),
				seats, fares,
			}},
		)
		if err != nil {
			return 0, fmt.Errorf("insert train %s: %w", rec.ID, err)
		}
	}
	s.logger.Info("sqlite store seeded", "trains", len(snap.Trains))
	return len(snap.Trains), nil
}

// List returns every train in insertion order.
func (s *SQLiteStore) List(ctx context.Context) ([]model.TrainRecord, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	var trains []model.TrainRecord
	err = sqlitex.Execute(conn,
		`SELECT `+sqliteColumns+` FROM trains ORDER BY position`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				rec, err := readTrain(stmt)
				if err != nil {
					return err
				}
				trains = append(trains, *rec)
				return nil
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("list trains: %w", err)
	}
	return trains, nil
}

// Get returns a single train or ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.TrainRecord, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)
	return getTrain(conn, id)
}

// Update applies fn to train id inside an IMMEDIATE transaction.
func (s *SQLiteStore) Update(ctx context.Context, id string, fn UpdateFunc) (_ *model.TrainRecord, err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer endTransaction(&err)

	rec, err := getTrain(conn, id)
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
	err = sqlitex.Execute(conn,
		`UPDATE trains SET available_seats = ?, fares = ?, version = version + 1 WHERE id = ?`,
		&sqlitex.ExecOptions{Args: []any{seats, fares, id}},
	)
	if err != nil {
		return nil, fmt.Errorf("update train: %w", err)
	}
	return rec, nil
}

// Close closes the connection pool.
func (s *SQLiteStore) Close() error {
	return s.pool.Close()
}

func getTrain(conn *sqlite.Conn, id string) (*model.TrainRecord, error) {
	var rec *model.TrainRecord
	err := sqlitex.Execute(conn,
		`SELECT `+sqliteColumns+` FROM trains WHERE id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{id},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				var err error
				rec, err = readTrain(stmt)
				return err
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("get train: %w", err)
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	return rec, nil
}

func readTrain(stmt *sqlite.Stmt) (*model.TrainRecord, error) {
	rec := &model.TrainRecord{
		ID:               stmt.ColumnText(0),
		DepartureStation: stmt.ColumnText(1),
		ArrivalStation:   stmt.ColumnText(2),
	}
	var err error
	if rec.DepartureDateTime, err = time.Parse(time.RFC3339Nano, stmt.ColumnText(3)); err != nil {
		return nil, fmt.Errorf("parse departure of %s: %w", rec.ID, err)
	}
	if rec.ArrivalDateTime, err = time.Parse(time.RFC3339Nano, stmt.ColumnText(4)); err != nil {
		return nil, fmt.Errorf("parse arrival of %s: %w", rec.ID, err)
	}
	if err := decodeMaps(rec, []byte(stmt.ColumnText(5)), []byte(stmt.ColumnText(6))); err != nil {
		return nil, err
	}
	return rec, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
