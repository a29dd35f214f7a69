// Package storage defines the saved-game snapshot and the Store contract
// that file and database backends implement.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNoSavedGame is returned by Load when nothing has been saved yet.
var ErrNoSavedGame = errors.New("no saved game")

// UnitRecord is one unit on the board.
type UnitRecord struct {
	ID      string  `json:"id"`
	Class   string  `json:"class"`
	Level   int     `json:"level"`
	Attack  float64 `json:"attack"`
	Defence float64 `json:"defence"`
	Health  float64 `json:"health"`
	Cell    int     `json:"position"`
}

// SideRecord is one side's turn slice: its selected cell and highlighted sets.
type SideRecord struct {
	Selected int   `json:"selected"`
	Move     []int `json:"move,omitempty"`
	Attack   []int `json:"attack,omitempty"`
	Reselect []int `json:"reselect,omitempty"`
}

// Snapshot is a complete saved game.
type Snapshot struct {
	Units   []UnitRecord `json:"units"`
	Player  SideRecord   `json:"playerNow"`
	Enemy   SideRecord   `json:"enemyNow"`
	Level   int          `json:"gameLevel"`
	SavedAt time.Time    `json:"savedAt"`
}

// Store persists one snapshot slot.
type Store interface {
	// Save replaces the stored snapshot.
	Save(ctx context.Context, snap Snapshot) error
	// Load returns the stored snapshot or ErrNoSavedGame.
	Load(ctx context.Context) (Snapshot, error)
}
