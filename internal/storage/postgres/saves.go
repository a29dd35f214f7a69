package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/tactics/internal/storage"
)

// DefaultSlot is the save slot used when none is configured.
const DefaultSlot = "default"

// SaveRepository is a storage.Store keeping one snapshot per slot in the
// saves table as a JSONB document.
type SaveRepository struct {
	db   *pgxpool.Pool
	slot string
}

// NewSaveRepository creates a SaveRepository for slot; an empty slot selects DefaultSlot.
//
// Precondition: db must be a valid, open connection pool.
func NewSaveRepository(db *pgxpool.Pool, slot string) *SaveRepository {
	if slot == "" {
		slot = DefaultSlot
	}
	return &SaveRepository{db: db, slot: slot}
}

// Save upserts the snapshot for the repository's slot.
func (r *SaveRepository) Save(ctx context.Context, snap storage.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO saves (slot, payload, level, saved_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (slot) DO UPDATE
		SET payload = EXCLUDED.payload,
		    level = EXCLUDED.level,
		    saved_at = EXCLUDED.saved_at,
		    updated_at = NOW()`,
		r.slot, payload, snap.Level, snap.SavedAt,
	)
	if err != nil {
		return fmt.Errorf("saving slot %q: %w", r.slot, err)
	}
	return nil
}

// Load returns the snapshot for the repository's slot.
//
// Postcondition: Returns storage.ErrNoSavedGame when the slot is empty.
func (r *SaveRepository) Load(ctx context.Context) (storage.Snapshot, error) {
	var payload []byte
	err := r.db.QueryRow(ctx, `SELECT payload FROM saves WHERE slot = $1`, r.slot).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.Snapshot{}, storage.ErrNoSavedGame
	}
	if err != nil {
		return storage.Snapshot{}, fmt.Errorf("loading slot %q: %w", r.slot, err)
	}
	var snap storage.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return storage.Snapshot{}, fmt.Errorf("decoding slot %q: %w", r.slot, err)
	}
	return snap, nil
}

// Delete removes the slot's snapshot. Deleting an empty slot is not an error.
func (r *SaveRepository) Delete(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM saves WHERE slot = $1`, r.slot); err != nil {
		return fmt.Errorf("deleting slot %q: %w", r.slot, err)
	}
	return nil
}
