package turn

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/cory-johannsen/tactics/internal/game/ai"
	"github.com/cory-johannsen/tactics/internal/game/board"
	"github.com/cory-johannsen/tactics/internal/game/character"
	"github.com/cory-johannsen/tactics/internal/game/combat"
	"github.com/cory-johannsen/tactics/internal/game/progression"
	"github.com/cory-johannsen/tactics/internal/game/roster"
	"github.com/cory-johannsen/tactics/internal/observability"
	"github.com/cory-johannsen/tactics/internal/storage"
)

// Deps are the controller's collaborators.
type Deps struct {
	Calculator  *board.Calculator
	Progression *progression.Progression
	AI          *ai.Controller
	Table       *character.Table
	// Store is optional; Save and Load fail with ErrUnbound without it.
	Store  storage.Store
	Logger *zap.Logger
	// Tracer is optional; the global provider's "tactics/turn" tracer is used otherwise.
	Tracer trace.Tracer
}

// Controller owns one game. It is not safe for concurrent use.
type Controller struct {
	deps     Deps
	tracer   trace.Tracer
	listener Listener

	reg      *roster.Registry
	stage    Stage
	outcome  Outcome
	level    progression.LevelState
	turn     TurnState
	attacked string // ID of the enemy the player hit this turn
}

// NewController creates a Controller in StageNotStarted.
//
// Precondition: Calculator, Progression, AI, Table and Logger must be non-nil.
func NewController(deps Deps) *Controller {
	tracer := deps.Tracer
	if tracer == nil {
		tracer = observability.Tracer("turn")
	}
	return &Controller{
		deps:   deps,
		tracer: tracer,
		reg:    roster.New(deps.Calculator.Size()),
		level:  progression.LevelState{Level: 1, Cap: deps.Progression.Cap()},
		turn:   newTurnState(),
	}
}

// Attach binds the presentation listener.
func (c *Controller) Attach(l Listener) { c.listener = l }

// State returns the current stage.
func (c *Controller) State() Stage { return c.stage }

// Outcome returns how the game ended; OutcomeNone while it is running.
func (c *Controller) Outcome() Outcome { return c.outcome }

// Turn returns a copy of the highlighted turn state.
func (c *Controller) Turn() TurnState { return c.turn.clone() }

// Level returns the current level number.
func (c *Controller) Level() int { return c.level.Level }

// Units returns copies of every unit on the board in registry order.
func (c *Controller) Units() []roster.Unit {
	units := c.reg.Units()
	out := make([]roster.Unit, len(units))
	for i, u := range units {
		out[i] = roster.Unit{Character: u.Character.Clone(), Cell: u.Cell}
	}
	return out
}

// Start begins a new game at level 1.
//
// Postcondition: On success the stage is StagePlayerSelecting.
func (c *Controller) Start(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "turn.start")
	defer span.End()
	if c.listener == nil {
		return &BindingError{Missing: "listener"}
	}
	reg := roster.New(c.deps.Calculator.Size())
	if err := c.deps.Progression.Seed(reg, 1, nil); err != nil {
		return fmt.Errorf("starting game: %w", err)
	}
	c.reg = reg
	c.level = progression.LevelState{Level: 1, Cap: c.deps.Progression.Cap()}
	c.outcome = OutcomeNone
	c.beginLevel(ctx)
	return nil
}

// Click dispatches a cell click by occupancy: own unit selects, enemy unit
// attacks and an empty cell moves.
func (c *Controller) Click(ctx context.Context, cell int) error {
	if err := c.requirePlayerTurn(); err != nil {
		return err
	}
	if !board.Contains(cell, c.reg.Size()) {
		return invalid("cell %d is off the board", cell)
	}
	u, ok := c.reg.At(cell)
	switch {
	case !ok:
		return c.Move(ctx, cell)
	case u.Faction() == character.FactionPlayer:
		return c.SelectUnit(cell)
	default:
		return c.Attack(ctx, cell)
	}
}

// SelectUnit selects the player's unit on cell, replacing any prior selection.
func (c *Controller) SelectUnit(cell int) error {
	if err := c.requirePlayerTurn(); err != nil {
		return err
	}
	u, ok := c.reg.At(cell)
	if !ok || u.Faction() != character.FactionPlayer || !u.Character.Alive() {
		return invalid("no player unit on cell %d", cell)
	}
	c.selectPlayer(u)
	c.emit(Event{Kind: EventSelection, Side: character.FactionPlayer, Cells: []int{cell}})
	return nil
}

// Move walks the selected unit to the empty cell and runs the enemy turn.
func (c *Controller) Move(ctx context.Context, cell int) error {
	ctx, span := c.tracer.Start(ctx, "turn.move", trace.WithAttributes(attribute.Int("cell", cell)))
	defer span.End()
	if err := c.requireSelection(); err != nil {
		return err
	}
	from := c.turn.Player.Selected
	if !c.turn.Player.Move.Has(cell) {
		return invalid("cell %d is out of move range of %d", cell, from)
	}
	if _, busy := c.reg.At(cell); busy {
		return invalid("cell %d is occupied", cell)
	}
	if err := c.reg.Move(from, cell); err != nil {
		return fmt.Errorf("moving %d to %d: %w", from, cell, err)
	}
	c.turn.Player.Selected = cell
	c.attacked = ""
	c.emit(Event{Kind: EventMoved, Side: character.FactionPlayer, Cells: []int{from, cell}})
	return c.enemyTurn(ctx, true)
}

// Attack strikes the enemy on cell with the selected unit and runs the enemy turn.
func (c *Controller) Attack(ctx context.Context, cell int) error {
	ctx, span := c.tracer.Start(ctx, "turn.attack", trace.WithAttributes(attribute.Int("cell", cell)))
	defer span.End()
	if err := c.requireSelection(); err != nil {
		return err
	}
	from := c.turn.Player.Selected
	if !c.turn.Player.Attack.Has(cell) {
		return invalid("cell %d is out of attack range of %d", cell, from)
	}
	target, ok := c.reg.At(cell)
	if !ok || target.Faction() != character.FactionEnemy {
		return invalid("no enemy on cell %d", cell)
	}
	targetID := target.Character.ID
	hit, err := combat.Resolve(c.reg, from, cell)
	if err != nil {
		c.reportInvariant(err)
		return err
	}
	span.SetAttributes(attribute.Float64("damage", hit.Amount), attribute.Bool("killed", hit.Killed))
	c.attacked = targetID
	c.emit(Event{Kind: EventDamaged, Side: character.FactionPlayer, Cells: []int{from, cell}, Amount: hit.Amount, Removed: hit.Killed})
	return c.enemyTurn(ctx, false)
}

// enemyTurn lets one enemy answer, or clears the level when none is left.
func (c *Controller) enemyTurn(ctx context.Context, selectedMoved bool) error {
	ctx, span := c.tracer.Start(ctx, "turn.enemy")
	defer span.End()

	c.stage = StageEnemyActing
	c.turn.Acting = character.FactionEnemy
	if c.reg.Count(character.FactionEnemy) == 0 {
		return c.clearLevel(ctx)
	}

	res, err := c.deps.AI.TakeTurn(c.reg, c.attacked, c.turn.Player.Selected)
	c.attacked = ""
	if err != nil {
		c.reportInvariant(err)
		c.resumePlayer(selectedMoved)
		return err
	}
	span.SetAttributes(attribute.String("action", string(res.Action)), attribute.String("actor", res.ActorID))

	enemyCell := res.From
	switch res.Action {
	case ai.ActionMove:
		enemyCell = res.To
		c.emit(Event{Kind: EventMoved, Side: character.FactionEnemy, Cells: []int{res.From, res.To}})
	case ai.ActionAttack:
		c.emit(Event{Kind: EventDamaged, Side: character.FactionEnemy, Cells: []int{res.From, res.To},
			Amount: res.Hit.Amount, Removed: res.Hit.Killed})
	}
	c.turn.Enemy = sideFrom(res.From, res.Reach)
	c.turn.Enemy.Selected = enemyCell

	if c.reg.Count(character.FactionPlayer) == 0 {
		c.finish(OutcomeDefeat)
		return nil
	}
	c.resumePlayer(selectedMoved)
	return nil
}

// resumePlayer hands the turn back. A unit that attacked and survived stays
// selected; a unit that moved or died is deselected.
func (c *Controller) resumePlayer(selectedMoved bool) {
	c.turn.Acting = character.FactionPlayer
	if !selectedMoved {
		if u, ok := c.reg.At(c.turn.Player.Selected); ok && u.Faction() == character.FactionPlayer {
			c.selectPlayer(u)
			return
		}
	}
	c.deselectPlayer()
	c.stage = StagePlayerSelecting
}

// deselectPlayer drops the player's highlights and tells the listener when
// a cell had been selected.
func (c *Controller) deselectPlayer() {
	had := c.turn.Player.Selected != board.NoCell
	c.turn.Player = emptySide()
	if had {
		c.emit(Event{Kind: EventSelection, Side: character.FactionPlayer})
	}
}

func (c *Controller) clearLevel(ctx context.Context) error {
	_, span := c.tracer.Start(ctx, "turn.level_cleared", trace.WithAttributes(attribute.Int("level", c.level.Level)))
	defer span.End()

	c.stage = StageLevelCleared
	next, err := c.deps.Progression.Advance(c.reg, c.level)
	if err != nil {
		c.resumePlayer(true)
		return fmt.Errorf("advancing from level %d: %w", c.level.Level, err)
	}
	c.level = next
	if next.Won() {
		c.finish(OutcomeVictory)
		return nil
	}
	c.beginLevel(ctx)
	return nil
}

func (c *Controller) beginLevel(ctx context.Context) {
	c.deselectPlayer()
	c.turn = newTurnState()
	c.stage = StagePlayerSelecting
	c.attacked = ""
	c.deps.Logger.Info("level started",
		zap.Int("level", c.level.Level),
		zap.Int("players", c.reg.Count(character.FactionPlayer)),
		zap.Int("enemies", c.reg.Count(character.FactionEnemy)),
	)
	trace.SpanFromContext(ctx).AddEvent("level_started", trace.WithAttributes(attribute.Int("level", c.level.Level)))
	c.emit(Event{Kind: EventLevelStarted, Level: c.level.Level})
}

func (c *Controller) finish(o Outcome) {
	c.stage = StageGameOver
	c.outcome = o
	c.turn.Acting = character.FactionNone
	c.deselectPlayer()
	c.deps.Logger.Info("game over", zap.String("outcome", o.String()), zap.Int("level", c.level.Level))
	c.emit(Event{Kind: EventGameOver, Level: c.level.Level, Outcome: o})
}

func (c *Controller) selectPlayer(u *roster.Unit) {
	reach := c.deps.Calculator.Reach(u.Cell, u.Character.Class, c.reg.Positions(character.FactionPlayer))
	c.turn.Player = sideFrom(u.Cell, reach)
	c.stage = StagePlayerUnitSelected
}

func (c *Controller) requirePlayerTurn() error {
	switch c.stage {
	case StagePlayerSelecting, StagePlayerUnitSelected:
		return nil
	default:
		return invalid("no player input accepted in stage %s", c.stage)
	}
}

func (c *Controller) requireSelection() error {
	if err := c.requirePlayerTurn(); err != nil {
		return err
	}
	if c.stage != StagePlayerUnitSelected {
		return invalid("no unit selected")
	}
	return nil
}

// reportInvariant logs combat invariant violations at DPanic, which panics
// under a development logger.
func (c *Controller) reportInvariant(err error) {
	if errors.Is(err, combat.ErrInvariant) {
		c.deps.Logger.DPanic("combat invariant violated", zap.Error(err))
	}
}

func (c *Controller) emit(e Event) {
	if c.listener != nil {
		c.listener.OnEvent(e)
	}
}
