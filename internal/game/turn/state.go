// Package turn runs the game loop: it validates player input, applies moves
// and attacks, lets the enemy answer and advances levels.
package turn

import (
	"github.com/cory-johannsen/tactics/internal/game/board"
	"github.com/cory-johannsen/tactics/internal/game/character"
)

// Stage is the controller's position in the turn cycle.
type Stage int

const (
	StageNotStarted Stage = iota
	StagePlayerSelecting
	StagePlayerUnitSelected
	StageEnemyActing
	StageLevelCleared
	StageGameOver
)

var stageNames = [...]string{
	StageNotStarted:         "not-started",
	StagePlayerSelecting:    "player-selecting",
	StagePlayerUnitSelected: "player-unit-selected",
	StageEnemyActing:        "enemy-acting",
	StageLevelCleared:       "level-cleared",
	StageGameOver:           "game-over",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// Outcome is how a finished game ended.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeVictory
	OutcomeDefeat
)

func (o Outcome) String() string {
	switch o {
	case OutcomeVictory:
		return "victory"
	case OutcomeDefeat:
		return "defeat"
	default:
		return "none"
	}
}

// Side is one faction's turn slice: the selected cell and what it can reach.
//
// Invariant: Selected is in none of the sets.
type Side struct {
	Selected int
	Move     board.Set
	Attack   board.Set
	Reselect board.Set
}

func emptySide() Side {
	return Side{Selected: board.NoCell, Move: board.Set{}, Attack: board.Set{}, Reselect: board.Set{}}
}

func sideFrom(selected int, r board.Reach) Side {
	return Side{Selected: selected, Move: r.Move, Attack: r.Attack, Reselect: r.Reselect}
}

func (s Side) clone() Side {
	return Side{Selected: s.Selected, Move: s.Move.Clone(), Attack: s.Attack.Clone(), Reselect: s.Reselect.Clone()}
}

// TurnState is everything the presentation layer highlights.
type TurnState struct {
	Acting character.Faction
	Player Side
	Enemy  Side
}

func newTurnState() TurnState {
	return TurnState{Acting: character.FactionPlayer, Player: emptySide(), Enemy: emptySide()}
}

func (t TurnState) clone() TurnState {
	return TurnState{Acting: t.Acting, Player: t.Player.clone(), Enemy: t.Enemy.clone()}
}
