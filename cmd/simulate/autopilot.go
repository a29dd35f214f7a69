package main

import (
	"context"
	"errors"

	"github.com/cory-johannsen/tactics/internal/game/board"
	"github.com/cory-johannsen/tactics/internal/game/character"
	"github.com/cory-johannsen/tactics/internal/game/roster"
	"github.com/cory-johannsen/tactics/internal/game/turn"
)

// errStuck is returned when no player unit has a legal action.
var errStuck = errors.New("no player unit can act")

// game is the part of turn.Controller the autopilot drives.
type game interface {
	Units() []roster.Unit
	Turn() turn.TurnState
	SelectUnit(cell int) error
	Move(ctx context.Context, cell int) error
	Attack(ctx context.Context, cell int) error
}

// autopilot plays the human side: the first unit with an enemy in reach
// attacks it, otherwise the first unit that can close in on an enemy moves.
type autopilot struct {
	size int
}

// step plays one player action.
func (a autopilot) step(ctx context.Context, g game) error {
	units := g.Units()
	occupied := board.NewSet()
	var enemies []int
	for _, u := range units {
		occupied.Add(u.Cell)
		if u.Faction() == character.FactionEnemy {
			enemies = append(enemies, u.Cell)
		}
	}

	mover, dest := board.NoCell, board.NoCell
	best := -1
	for _, u := range units {
		if u.Faction() != character.FactionPlayer {
			continue
		}
		if err := g.SelectUnit(u.Cell); err != nil {
			return err
		}
		side := g.Turn().Player
		for _, e := range enemies {
			if side.Attack.Has(e) {
				return g.Attack(ctx, e)
			}
		}
		here := a.nearest(u.Cell, enemies)
		for _, cell := range side.Move.Sorted() {
			if occupied.Has(cell) {
				continue
			}
			if gain := here - a.nearest(cell, enemies); gain > best {
				best, mover, dest = gain, u.Cell, cell
			}
		}
	}
	if mover == board.NoCell {
		return errStuck
	}
	if err := g.SelectUnit(mover); err != nil {
		return err
	}
	return g.Move(ctx, dest)
}

// nearest returns the Chebyshev distance from cell to the closest target.
func (a autopilot) nearest(cell int, targets []int) int {
	best := 2 * a.size
	for _, t := range targets {
		dr := abs(board.RowOf(cell, a.size) - board.RowOf(t, a.size))
		dc := abs(board.ColOf(cell, a.size) - board.ColOf(t, a.size))
		best = min(best, max(dr, dc))
	}
	return best
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
