package turn

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/cory-johannsen/tactics/internal/game/board"
	"github.com/cory-johannsen/tactics/internal/game/character"
	"github.com/cory-johannsen/tactics/internal/game/progression"
	"github.com/cory-johannsen/tactics/internal/game/roster"
	"github.com/cory-johannsen/tactics/internal/storage"
)

// Save writes the current game to the bound store.
//
// Precondition: A game must have been started or loaded.
func (c *Controller) Save(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "turn.save")
	defer span.End()
	if c.deps.Store == nil {
		return &BindingError{Missing: "store"}
	}
	if c.stage == StageNotStarted {
		return invalid("no game to save")
	}
	snap := c.snapshot()
	span.SetAttributes(attribute.Int("units", len(snap.Units)), attribute.Int("level", snap.Level))
	if err := c.deps.Store.Save(ctx, snap); err != nil {
		return fmt.Errorf("saving game: %w", err)
	}
	c.deps.Logger.Info("game saved", zap.Int("level", snap.Level), zap.Int("units", len(snap.Units)))
	return nil
}

// Load replaces the current game with the stored one. A player unit that
// was selected when saving is selected again with freshly computed ranges.
//
// Postcondition: On error the current game is unchanged.
func (c *Controller) Load(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "turn.load")
	defer span.End()
	if c.listener == nil {
		return &BindingError{Missing: "listener"}
	}
	if c.deps.Store == nil {
		return &BindingError{Missing: "store"}
	}
	snap, err := c.deps.Store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading game: %w", err)
	}
	reg, err := c.restoreRegistry(snap.Units)
	if err != nil {
		return fmt.Errorf("loading game: %w", err)
	}
	if snap.Level < 1 {
		return fmt.Errorf("loading game: invalid level %d", snap.Level)
	}

	c.reg = reg
	c.level = progression.LevelState{Level: snap.Level, Cap: c.deps.Progression.Cap()}
	c.turn = newTurnState()
	c.turn.Enemy = sideFromRecord(snap.Enemy)
	c.attacked = ""
	c.outcome = OutcomeNone
	c.stage = StagePlayerSelecting
	span.SetAttributes(attribute.Int("level", snap.Level))
	c.deps.Logger.Info("game loaded", zap.Int("level", snap.Level), zap.Int("units", len(snap.Units)))

	switch {
	case c.level.Won():
		c.finish(OutcomeVictory)
		return nil
	case reg.Count(character.FactionPlayer) == 0:
		c.finish(OutcomeDefeat)
		return nil
	}
	if u, ok := reg.At(snap.Player.Selected); ok && u.Faction() == character.FactionPlayer {
		c.selectPlayer(u)
	}
	trace.SpanFromContext(ctx).AddEvent("restored", trace.WithAttributes(attribute.String("stage", c.stage.String())))
	c.emit(Event{Kind: EventLevelStarted, Level: c.level.Level})
	if c.stage == StagePlayerUnitSelected {
		c.emit(Event{Kind: EventSelection, Side: character.FactionPlayer, Cells: []int{c.turn.Player.Selected}})
	}
	return nil
}

func (c *Controller) snapshot() storage.Snapshot {
	units := c.reg.Units()
	records := make([]storage.UnitRecord, 0, len(units))
	for _, u := range units {
		records = append(records, storage.UnitRecord{
			ID:      u.Character.ID,
			Class:   u.Character.Class.String(),
			Level:   u.Character.Level,
			Attack:  u.Character.Attack,
			Defence: u.Character.Defence,
			Health:  u.Character.Health,
			Cell:    u.Cell,
		})
	}
	return storage.Snapshot{
		Units:   records,
		Player:  recordFromSide(c.turn.Player),
		Enemy:   recordFromSide(c.turn.Enemy),
		Level:   c.level.Level,
		SavedAt: time.Now().UTC(),
	}
}

func (c *Controller) restoreRegistry(records []storage.UnitRecord) (*roster.Registry, error) {
	units := make([]roster.Unit, 0, len(records))
	for _, r := range records {
		class, err := character.ParseClass(r.Class)
		if err != nil {
			return nil, fmt.Errorf("unit %s: %w", r.ID, err)
		}
		if _, ok := c.deps.Table.Profile(class); !ok {
			return nil, fmt.Errorf("unit %s: no profile for class %s", r.ID, class)
		}
		if r.Health <= 0 {
			return nil, fmt.Errorf("unit %s: dead unit on the board", r.ID)
		}
		units = append(units, roster.Unit{
			Character: &character.Character{
				ID:      r.ID,
				Class:   class,
				Level:   r.Level,
				Attack:  r.Attack,
				Defence: r.Defence,
				Health:  r.Health,
			},
			Cell: r.Cell,
		})
	}
	reg := roster.New(c.deps.Calculator.Size())
	if err := reg.Reset(units); err != nil {
		return nil, err
	}
	return reg, nil
}

func recordFromSide(s Side) storage.SideRecord {
	return storage.SideRecord{
		Selected: s.Selected,
		Move:     s.Move.Sorted(),
		Attack:   s.Attack.Sorted(),
		Reselect: s.Reselect.Sorted(),
	}
}

func sideFromRecord(r storage.SideRecord) Side {
	return Side{
		Selected: r.Selected,
		Move:     board.NewSet(r.Move...),
		Attack:   board.NewSet(r.Attack...),
		Reselect: board.NewSet(r.Reselect...),
	}
}
