package ai

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tactics/internal/game/board"
	"github.com/cory-johannsen/tactics/internal/game/character"
	"github.com/cory-johannsen/tactics/internal/game/combat"
	"github.com/cory-johannsen/tactics/internal/game/dice"
	"github.com/cory-johannsen/tactics/internal/game/roster"
)

// Result describes one enemy action after it was applied to the board.
type Result struct {
	// ActorID is the acting enemy's character ID; empty when no enemy could act.
	ActorID string
	// From is the actor's cell before acting.
	From int
	// Reach is the actor's move and attack squares at From.
	Reach board.Reach
	// Action is what was done.
	Action Action
	// To is the destination for a move or the defender's cell for an attack.
	To int
	// Hit is set for attacks.
	Hit *combat.Hit
}

// Controller picks and executes one enemy action per call.
type Controller struct {
	calc    *board.Calculator
	planner *Planner
	src     dice.Source
	logger  *zap.Logger
}

// NewController creates a Controller. A nil planner selects the native rules.
//
// Precondition: calc, src and logger must be non-nil.
func NewController(calc *board.Calculator, planner *Planner, src dice.Source, logger *zap.Logger) *Controller {
	return &Controller{calc: calc, planner: planner, src: src, logger: logger}
}

// ChooseActor returns the enemy the player just attacked if it is still on
// the board, else the first living enemy in registry order.
func (c *Controller) ChooseActor(reg *roster.Registry, attackedID string) (*roster.Unit, bool) {
	if attackedID != "" {
		if u, ok := reg.ByID(attackedID); ok && u.Faction() == character.FactionEnemy && u.Character.Alive() {
			return u, true
		}
	}
	for _, u := range reg.Faction(character.FactionEnemy) {
		if u.Character.Alive() {
			return u, true
		}
	}
	return nil, false
}

// BuildState snapshots the board from actor's point of view.
//
// Precondition: actor is on reg.
func (c *Controller) BuildState(reg *roster.Registry, actor *roster.Unit, reach board.Reach, selected int) *WorldState {
	ws := &WorldState{
		Actor:        &UnitState{ID: actor.Character.ID, Cell: actor.Cell, Health: actor.Character.Health},
		SelectedCell: selected,
	}
	for _, u := range reg.Faction(character.FactionPlayer) {
		if u.Character.Alive() && reach.Attack.Has(u.Cell) {
			ws.Targets = append(ws.Targets, &UnitState{ID: u.Character.ID, Cell: u.Cell, Health: u.Character.Health})
		}
	}
	occupied := reg.Occupied()
	for _, cell := range reach.Move.Sorted() {
		if !occupied.Has(cell) {
			ws.FreeCells = append(ws.FreeCells, cell)
		}
	}
	return ws
}

// Decide chooses an action for ws. The planner's first action is used when
// it is legal for ws; otherwise the native rules decide.
func (c *Controller) Decide(ws *WorldState) PlannedAction {
	if c.planner != nil {
		plan, err := c.planner.Plan(ws)
		if err != nil {
			c.logger.Warn("ai: planning failed", zap.Error(err))
		} else if len(plan) > 0 && legal(ws, plan[0]) {
			return plan[0]
		} else if len(plan) > 0 {
			c.logger.Warn("ai: planner chose an illegal action",
				zap.String("action", string(plan[0].Action)),
				zap.Int("cell", plan[0].Cell),
			)
		}
	}
	return c.native(ws)
}

func (c *Controller) native(ws *WorldState) PlannedAction {
	switch {
	case ws.HasTarget():
		return PlannedAction{Action: ActionAttack, Cell: ws.PreferredTarget().Cell}
	case ws.CanMove():
		return PlannedAction{Action: ActionMove, Cell: dice.Pick(c.src, ws.FreeCells)}
	default:
		return PlannedAction{Action: ActionPass, Cell: board.NoCell}
	}
}

func legal(ws *WorldState, a PlannedAction) bool {
	switch a.Action {
	case ActionAttack:
		for _, t := range ws.Targets {
			if t.Cell == a.Cell {
				return true
			}
		}
	case ActionMove:
		for _, f := range ws.FreeCells {
			if f == a.Cell {
				return true
			}
		}
	case ActionPass:
		return true
	}
	return false
}

// TakeTurn lets one enemy act and applies the result to reg. selected is
// the human's selected cell, used for the attack tie-break.
//
// Postcondition: With no living enemy the result has an empty ActorID and
// ActionPass; reg is unchanged.
func (c *Controller) TakeTurn(reg *roster.Registry, attackedID string, selected int) (Result, error) {
	actor, ok := c.ChooseActor(reg, attackedID)
	if !ok {
		return Result{Action: ActionPass, From: board.NoCell, To: board.NoCell}, nil
	}
	reach := c.calc.Reach(actor.Cell, actor.Character.Class, reg.Positions(character.FactionEnemy))
	ws := c.BuildState(reg, actor, reach, selected)
	decision := c.Decide(ws)

	res := Result{
		ActorID: actor.Character.ID,
		From:    actor.Cell,
		Reach:   reach,
		Action:  decision.Action,
		To:      decision.Cell,
	}
	switch decision.Action {
	case ActionAttack:
		hit, err := combat.Resolve(reg, actor.Cell, decision.Cell)
		if err != nil {
			return res, fmt.Errorf("ai: enemy attack: %w", err)
		}
		res.Hit = &hit
	case ActionMove:
		if err := reg.Move(actor.Cell, decision.Cell); err != nil {
			return res, fmt.Errorf("ai: enemy move: %w", err)
		}
	}
	c.logger.Debug("ai: enemy acted",
		zap.String("actor", res.ActorID),
		zap.String("class", actor.Character.Class.String()),
		zap.String("action", string(res.Action)),
		zap.Int("from", res.From),
		zap.Int("to", res.To),
	)
	return res, nil
}
