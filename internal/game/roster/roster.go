// Package roster tracks which character stands on which cell.
package roster

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/tactics/internal/game/board"
	"github.com/cory-johannsen/tactics/internal/game/character"
)

var (
	// ErrOutOfBounds is returned for a cell that is not on the board.
	ErrOutOfBounds = errors.New("cell out of bounds")
	// ErrOccupied is returned when a cell already holds a unit.
	ErrOccupied = errors.New("cell occupied")
	// ErrEmpty is returned when a cell holds no unit.
	ErrEmpty = errors.New("cell empty")
)

// Unit is a character standing on a cell.
type Unit struct {
	Character *character.Character
	Cell      int
}

// Faction is a shortcut for the character's faction.
func (u *Unit) Faction() character.Faction { return u.Character.Faction() }

// Registry holds the units on the board in insertion order.
//
// Invariant: no two units share a cell and every cell is on the board.
type Registry struct {
	size   int
	units  []*Unit
	byCell map[int]*Unit
}

// New creates an empty Registry for a size×size board.
//
// Precondition: size >= 1.
func New(size int) *Registry {
	return &Registry{size: size, byCell: make(map[int]*Unit)}
}

// Size returns the board side length.
func (r *Registry) Size() int { return r.size }

// Place appends c on cell.
//
// Postcondition: On success At(cell) returns the new unit.
func (r *Registry) Place(c *character.Character, cell int) (*Unit, error) {
	if c == nil {
		return nil, errors.New("place: nil character")
	}
	if !board.Contains(cell, r.size) {
		return nil, fmt.Errorf("place %s at %d: %w", c.Class, cell, ErrOutOfBounds)
	}
	if _, ok := r.byCell[cell]; ok {
		return nil, fmt.Errorf("place %s at %d: %w", c.Class, cell, ErrOccupied)
	}
	u := &Unit{Character: c, Cell: cell}
	r.units = append(r.units, u)
	r.byCell[cell] = u
	return u, nil
}

// At returns the unit on cell.
func (r *Registry) At(cell int) (*Unit, bool) {
	u, ok := r.byCell[cell]
	return u, ok
}

// ByID finds a unit by character ID.
func (r *Registry) ByID(id string) (*Unit, bool) {
	for _, u := range r.units {
		if u.Character.ID == id {
			return u, true
		}
	}
	return nil, false
}

// Move relocates the unit on from to the empty cell to.
func (r *Registry) Move(from, to int) error {
	u, ok := r.byCell[from]
	if !ok {
		return fmt.Errorf("move from %d: %w", from, ErrEmpty)
	}
	if !board.Contains(to, r.size) {
		return fmt.Errorf("move to %d: %w", to, ErrOutOfBounds)
	}
	if _, busy := r.byCell[to]; busy {
		return fmt.Errorf("move to %d: %w", to, ErrOccupied)
	}
	delete(r.byCell, from)
	u.Cell = to
	r.byCell[to] = u
	return nil
}

// Remove takes the unit on cell off the board, keeping the order of the rest.
func (r *Registry) Remove(cell int) (*Unit, bool) {
	u, ok := r.byCell[cell]
	if !ok {
		return nil, false
	}
	delete(r.byCell, cell)
	for i, x := range r.units {
		if x == u {
			r.units = append(r.units[:i], r.units[i+1:]...)
			break
		}
	}
	return u, true
}

// Units returns every unit in registry order. The slice is a copy; the units are not.
func (r *Registry) Units() []*Unit {
	out := make([]*Unit, len(r.units))
	copy(out, r.units)
	return out
}

// Faction returns the units of f in registry order.
func (r *Registry) Faction(f character.Faction) []*Unit {
	var out []*Unit
	for _, u := range r.units {
		if u.Faction() == f {
			out = append(out, u)
		}
	}
	return out
}

// Count returns the number of living units of f.
func (r *Registry) Count(f character.Faction) int {
	n := 0
	for _, u := range r.units {
		if u.Faction() == f && u.Character.Alive() {
			n++
		}
	}
	return n
}

// Positions returns the cells held by f in registry order.
func (r *Registry) Positions(f character.Faction) []int {
	var out []int
	for _, u := range r.units {
		if u.Faction() == f {
			out = append(out, u.Cell)
		}
	}
	return out
}

// Occupied returns the set of all held cells.
func (r *Registry) Occupied() board.Set {
	s := make(board.Set, len(r.units))
	for c := range r.byCell {
		s.Add(c)
	}
	return s
}

// Reset replaces the whole board with units. The registry is left untouched
// if any unit is off the board or two units collide.
func (r *Registry) Reset(units []Unit) error {
	byCell := make(map[int]*Unit, len(units))
	list := make([]*Unit, 0, len(units))
	for i := range units {
		u := units[i]
		if u.Character == nil {
			return fmt.Errorf("reset: unit %d has no character", i)
		}
		if !board.Contains(u.Cell, r.size) {
			return fmt.Errorf("reset: unit %d at %d: %w", i, u.Cell, ErrOutOfBounds)
		}
		if _, ok := byCell[u.Cell]; ok {
			return fmt.Errorf("reset: unit %d at %d: %w", i, u.Cell, ErrOccupied)
		}
		p := &u
		byCell[u.Cell] = p
		list = append(list, p)
	}
	r.units, r.byCell = list, byCell
	return nil
}
