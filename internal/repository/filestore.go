package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/renameio/v2"

	"github.com/Shivanand-hulikatti/train-reservations/internal/model"
)

// FileStore keeps the catalog as a single JSON snapshot on disk.
//
// Every read goes to the file; nothing is cached between calls. Writes
// replace the file with an atomic rename, so a concurrent reader sees
// either the old snapshot or the new one, never a partial write.
//
// Update takes two locks. The per-train lock is held across the whole
// read-check-write, so two reservations on one train cannot both see the
// pre-decrement count. The commit lock is held only while the updated
// record is spliced into a freshly read snapshot and written back, so
// commits for different trains cannot overwrite each other.
type FileStore struct {
	path   string
	logger *slog.Logger

	trains   *keyLocks
	commitMu sync.Mutex
}

// NewFileStore opens the snapshot at path and validates it.
func NewFileStore(path string, logger *slog.Logger) (*FileStore, error) {
	snap, err := ReadSnapshotFile(path)
	if err != nil {
		return nil, err
	}
	logger.Info("file store opened",
		"path", path,
		"trains", len(snap.Trains),
		"version", snap.Version,
	)
	return &FileStore{
		path:   path,
		logger: logger,
		trains: newKeyLocks(),
	}, nil
}

// List returns every train in file order.
func (s *FileStore) List(ctx context.Context) ([]model.TrainRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap, err := ReadSnapshotFile(s.path)
	if err != nil {
		return nil, err
	}
	return snap.Trains, nil
}

// Get returns a single train or ErrNotFound.
func (s *FileStore) Get(ctx context.Context, id string) (*model.TrainRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap, err := ReadSnapshotFile(s.path)
	if err != nil {
		return nil, err
	}
	i := snap.index(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	rec := snap.Trains[i]
	return &rec, nil
}

// Update applies fn to train id under the train's lock and persists the
// whole snapshot before returning.
func (s *FileStore) Update(ctx context.Context, id string, fn UpdateFunc) (*model.TrainRecord, error) {
	unlock, err := s.trains.lock(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lock train %s: %w", id, err)
	}
	defer unlock()

	// Only holders of this train's lock write this record, so what we
	// read here stays current until we commit.
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rec := current.Clone()
	if err := fn(&rec); err != nil {
		return nil, err
	}
	if err := checkUpdated(id, &rec); err != nil {
		return nil, err
	}

	version, err := s.commit(rec)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("train updated", "train_id", id, "version", version)
	return &rec, nil
}

// commit writes rec into the latest snapshot and bumps its version.
func (s *FileStore) commit(rec model.TrainRecord) (int64, error) {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	snap, err := ReadSnapshotFile(s.path)
	if err != nil {
		return 0, err
	}
	i := snap.index(rec.ID)
	if i < 0 {
		return 0, ErrNotFound
	}
	snap.Trains[i] = rec
	snap.Version++

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("encode snapshot: %w", err)
	}
	if err := renameio.WriteFile(s.path, data, 0o644); err != nil {
		return 0, fmt.Errorf("write snapshot: %w", err)
	}
	return snap.Version, nil
}

// Close is a no-op; the file is not held open between calls.
func (s *FileStore) Close() error { return nil }
