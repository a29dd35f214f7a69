package ai

import (
	"github.com/cory-johannsen/tactics/internal/game/board"
	"github.com/cory-johannsen/tactics/internal/game/dice"
)

// Action is what an enemy does with its turn.
type Action string

const (
	ActionAttack Action = "attack"
	ActionMove   Action = "move"
	ActionPass   Action = "pass"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionAttack, ActionMove, ActionPass:
		return true
	}
	return false
}

// UnitState captures a unit at planning time.
type UnitState struct {
	ID     string
	Cell   int
	Health float64
}

// WorldState is the snapshot the planner decides on for one acting enemy.
//
// Invariant: Actor must not be nil.
type WorldState struct {
	Actor *UnitState
	// Targets are the living player units inside the actor's attack square,
	// in registry order.
	Targets []*UnitState
	// FreeCells are the unoccupied cells of the actor's move square, ascending.
	FreeCells []int
	// SelectedCell is the cell the human has selected, or board.NoCell.
	SelectedCell int
}

// HasTarget reports whether anything can be attacked.
func (ws *WorldState) HasTarget() bool { return len(ws.Targets) > 0 }

// CanMove reports whether any destination is free.
func (ws *WorldState) CanMove() bool { return len(ws.FreeCells) > 0 }

// PreferredTarget returns the unit on the human's selected cell when it is a
// candidate, otherwise the last candidate in registry order.
//
// Postcondition: nil iff there are no targets.
func (ws *WorldState) PreferredTarget() *UnitState {
	if len(ws.Targets) == 0 {
		return nil
	}
	if ws.SelectedCell != board.NoCell {
		for _, t := range ws.Targets {
			if t.Cell == ws.SelectedCell {
				return t
			}
		}
	}
	return ws.Targets[len(ws.Targets)-1]
}

// WeakestTarget returns the candidate with the lowest health; ties go to the
// earlier one in registry order.
func (ws *WorldState) WeakestTarget() *UnitState {
	if len(ws.Targets) == 0 {
		return nil
	}
	weakest := ws.Targets[0]
	for _, t := range ws.Targets[1:] {
		if t.Health < weakest.Health {
			weakest = t
		}
	}
	return weakest
}

// ResolveTarget maps an operator target token to a cell.
//
// Postcondition: Returns board.NoCell when the token cannot be satisfied.
func (ws *WorldState) ResolveTarget(token string, src dice.Source) int {
	switch token {
	case "preferred_target":
		if t := ws.PreferredTarget(); t != nil {
			return t.Cell
		}
	case "weakest_target":
		if t := ws.WeakestTarget(); t != nil {
			return t.Cell
		}
	case "random_free_cell":
		if ws.CanMove() {
			return dice.Pick(src, ws.FreeCells)
		}
	case "self":
		return ws.Actor.Cell
	}
	return board.NoCell
}
