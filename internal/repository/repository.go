// Package repository implements the train catalog store.
//
// Every backend offers the same contract: reads return committed state
// only, and Update runs its callback against the current record while no
// other Update on the same train can interleave. That serialized
// read-check-write is what keeps two reservations from both spending the
// same seats.
package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/Shivanand-hulikatti/train-reservations/internal/model"
)

// ErrNotFound is returned when a requested train does not exist.
var ErrNotFound = errors.New("not found")

// UpdateFunc mutates a train record in place. Returning an error aborts
// the update and nothing is persisted; the error is returned unchanged
// from TrainStore.Update.
type UpdateFunc func(rec *model.TrainRecord) error

// TrainStore is the single owner of train record state.
type TrainStore interface {
	// List returns every train in stable store order.
	List(ctx context.Context) ([]model.TrainRecord, error)

	// Get returns one train or ErrNotFound.
	Get(ctx context.Context, id string) (*model.TrainRecord, error)

	// Update applies fn to the current state of train id and durably
	// persists the result before returning it. Updates to the same train
	// are serialized; updates to different trains may run in parallel.
	Update(ctx context.Context, id string, fn UpdateFunc) (*model.TrainRecord, error)

	Close() error
}

// Snapshot is the persisted form of the whole catalog.
type Snapshot struct {
	// Version increases by one on every committed update.
	Version int64               `json:"version"`
	Trains  []model.TrainRecord `json:"trains"`
}

// index returns the position of train id, or -1.
func (s *Snapshot) index(id string) int {
	for i := range s.Trains {
		if s.Trains[i].ID == id {
			return i
		}
	}
	return -1
}

// Validate checks every record and rejects duplicate ids.
func (s *Snapshot) Validate() error {
	seen := make(map[string]struct{}, len(s.Trains))
	for i := range s.Trains {
		rec := &s.Trains[i]
		if err := rec.Validate(); err != nil {
			return err
		}
		if _, dup := seen[rec.ID]; dup {
			return fmt.Errorf("duplicate train id %s", rec.ID)
		}
		seen[rec.ID] = struct{}{}
	}
	return nil
}

// DecodeSnapshot parses a catalog snapshot. A bare JSON array of trains
// is accepted as version 0, which is how seed files are written.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	data = bytes.TrimSpace(data)
	var snap Snapshot
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &snap.Trains); err != nil {
			return nil, fmt.Errorf("decode trains: %w", err)
		}
	} else if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("invalid snapshot: %w", err)
	}
	return &snap, nil
}

// ReadSnapshotFile loads and validates a snapshot from disk.
func ReadSnapshotFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return DecodeSnapshot(data)
}

// checkUpdated enforces the record invariants after an UpdateFunc ran.
func checkUpdated(id string, rec *model.TrainRecord) error {
	if rec.ID != id {
		return fmt.Errorf("update changed train id %s to %s", id, rec.ID)
	}
	return rec.Validate()
}
