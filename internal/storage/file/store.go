// Package file stores the saved game as a JSON document on an afero filesystem.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/cory-johannsen/tactics/internal/storage"
)

// Store is a storage.Store backed by a single JSON file.
type Store struct {
	fs   afero.Fs
	path string
}

// NewStore creates a Store writing to path on fsys.
//
// Precondition: path must be non-empty.
func NewStore(fsys afero.Fs, path string) *Store {
	return &Store{fs: fsys, path: path}
}

// Save writes snap to a temporary file and renames it over the target so a
// crash never leaves a half-written save.
func (s *Store) Save(ctx context.Context, snap storage.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating save dir %q: %w", dir, err)
		}
	}
	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %q: %w", tmp, err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing %q: %w", s.path, err)
	}
	return nil
}

// Load reads the saved snapshot.
//
// Postcondition: Returns storage.ErrNoSavedGame when the file does not exist.
func (s *Store) Load(ctx context.Context) (storage.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return storage.Snapshot{}, err
	}
	data, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, os.ErrNotExist) {
		return storage.Snapshot{}, storage.ErrNoSavedGame
	}
	if err != nil {
		return storage.Snapshot{}, fmt.Errorf("reading %q: %w", s.path, err)
	}
	var snap storage.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return storage.Snapshot{}, fmt.Errorf("decoding %q: %w", s.path, err)
	}
	return snap, nil
}
