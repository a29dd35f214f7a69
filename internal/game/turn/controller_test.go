package turn_test

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/tactics/internal/game/ai"
	"github.com/cory-johannsen/tactics/internal/game/board"
	"github.com/cory-johannsen/tactics/internal/game/character"
	"github.com/cory-johannsen/tactics/internal/game/dice"
	"github.com/cory-johannsen/tactics/internal/game/progression"
	"github.com/cory-johannsen/tactics/internal/game/turn"
	"github.com/cory-johannsen/tactics/internal/observability"
	"github.com/cory-johannsen/tactics/internal/storage"
	"github.com/cory-johannsen/tactics/internal/storage/file"
)

const savePath = "saves/game.json"

type recorder struct{ events []turn.Event }

func (r *recorder) OnEvent(e turn.Event) { r.events = append(r.events, e) }

func (r *recorder) kinds() []turn.EventKind {
	out := make([]turn.EventKind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

type fixture struct {
	ctl   *turn.Controller
	rec   *recorder
	store *file.Store
	logs  *observer.ObservedLogs
}

func newFixture(t *testing.T, withStore bool) *fixture {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	table := character.DefaultTable()
	src := dice.NewSeededSource(11)
	calc := board.NewCalculator(board.DefaultSize, table)
	gen := character.NewGenerator(table, dice.NewLoggedRoller(src, logger))
	prog := progression.New(progression.Config{
		BoardSize:        board.DefaultSize,
		LevelCap:         progression.DefaultLevelCap,
		InitialSquadSize: 2,
	}, gen, src, logger)

	f := &fixture{rec: &recorder{}, logs: logs}
	deps := turn.Deps{
		Calculator:  calc,
		Progression: prog,
		AI:          ai.NewController(calc, nil, src, logger),
		Table:       table,
		Logger:      logger,
		Tracer:      observability.NoopTracer(),
	}
	if withStore {
		f.store = file.NewStore(afero.NewMemMapFs(), savePath)
		deps.Store = f.store
	}
	f.ctl = turn.NewController(deps)
	f.ctl.Attach(f.rec)
	return f
}

func unit(id string, class character.Class, cell int, attack, defence, health float64) storage.UnitRecord {
	return storage.UnitRecord{ID: id, Class: class.String(), Level: 1, Attack: attack, Defence: defence, Health: health, Cell: cell}
}

// load puts a hand-built board into play through the store.
func (f *fixture) load(t *testing.T, level int, units ...storage.UnitRecord) {
	t.Helper()
	snap := storage.Snapshot{
		Units:  units,
		Player: storage.SideRecord{Selected: board.NoCell},
		Enemy:  storage.SideRecord{Selected: board.NoCell},
		Level:  level,
	}
	require.NoError(t, f.store.Save(context.Background(), snap))
	require.NoError(t, f.ctl.Load(context.Background()))
}

func TestNewController_NotStarted(t *testing.T) {
	f := newFixture(t, false)
	assert.Equal(t, turn.StageNotStarted, f.ctl.State())
	assert.Equal(t, turn.OutcomeNone, f.ctl.Outcome())
	assert.Empty(t, f.ctl.Units())
	assert.ErrorIs(t, f.ctl.Click(context.Background(), 0), turn.ErrInvalidAction)
}

func TestStart_SeedsFirstLevel(t *testing.T) {
	f := newFixture(t, false)
	require.NoError(t, f.ctl.Start(context.Background()))

	assert.Equal(t, turn.StagePlayerSelecting, f.ctl.State())
	assert.Equal(t, 1, f.ctl.Level())
	var players, enemies int
	for _, u := range f.ctl.Units() {
		col := board.ColOf(u.Cell, board.DefaultSize)
		switch u.Faction() {
		case character.FactionPlayer:
			players++
			assert.Less(t, col, 2)
		case character.FactionEnemy:
			enemies++
			assert.GreaterOrEqual(t, col, board.DefaultSize-2)
		}
		assert.Equal(t, 1, u.Character.Level)
	}
	assert.Equal(t, 2, players)
	assert.Equal(t, 2, enemies)

	ts := f.ctl.Turn()
	assert.Equal(t, character.FactionPlayer, ts.Acting)
	assert.Equal(t, board.NoCell, ts.Player.Selected)
	assert.Equal(t, []turn.EventKind{turn.EventLevelStarted}, f.rec.kinds())
	assert.Equal(t, 1, f.logs.FilterMessage("level started").Len())
}

func TestStart_WithoutListener(t *testing.T) {
	f := newFixture(t, false)
	f.ctl.Attach(nil)
	err := f.ctl.Start(context.Background())
	require.ErrorIs(t, err, turn.ErrUnbound)
	var be *turn.BindingError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "listener", be.Missing)
	assert.Equal(t, turn.StageNotStarted, f.ctl.State())
}

func TestSelectUnit_ComputesRanges(t *testing.T) {
	f := newFixture(t, true)
	f.load(t, 1,
		unit("p1", character.Swordsman, 0, 40, 10, 50),
		unit("p2", character.Bowman, 2, 25, 25, 50),
		unit("e1", character.Undead, 63, 40, 10, 50),
	)
	require.NoError(t, f.ctl.SelectUnit(0))

	ts := f.ctl.Turn()
	assert.Equal(t, turn.StagePlayerUnitSelected, f.ctl.State())
	assert.Equal(t, 0, ts.Player.Selected)
	assert.False(t, ts.Player.Move.Has(0))
	assert.True(t, ts.Player.Move.Has(36))
	assert.False(t, ts.Player.Move.Has(40))
	assert.True(t, ts.Player.Attack.Has(9))
	assert.False(t, ts.Player.Attack.Has(2+board.DefaultSize*2))
	assert.Equal(t, []int{2}, ts.Player.Reselect.Sorted())

	// Clicking a friend switches selection.
	require.NoError(t, f.ctl.Click(context.Background(), 2))
	assert.Equal(t, 2, f.ctl.Turn().Player.Selected)
	assert.Equal(t, []int{0}, f.ctl.Turn().Player.Reselect.Sorted())
}

func TestSelectUnit_RejectsEnemyAndEmpty(t *testing.T) {
	f := newFixture(t, true)
	f.load(t, 1,
		unit("p1", character.Swordsman, 0, 40, 10, 50),
		unit("e1", character.Undead, 63, 40, 10, 50),
	)
	assert.ErrorIs(t, f.ctl.SelectUnit(63), turn.ErrInvalidAction)
	assert.ErrorIs(t, f.ctl.SelectUnit(30), turn.ErrInvalidAction)
	assert.Equal(t, turn.StagePlayerSelecting, f.ctl.State())
}

func TestMove_RejectedLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t, true)
	f.load(t, 1,
		unit("p1", character.Magician, 0, 10, 40, 50),
		unit("p2", character.Bowman, 1, 25, 25, 50),
		unit("e1", character.Undead, 63, 40, 10, 50),
	)
	require.NoError(t, f.ctl.SelectUnit(0))
	before := f.ctl.Turn()
	units := f.ctl.Units()
	events := len(f.rec.events)

	ctx := context.Background()
	assert.ErrorIs(t, f.ctl.Move(ctx, 27), turn.ErrInvalidAction)
	assert.ErrorIs(t, f.ctl.Move(ctx, 1), turn.ErrInvalidAction)
	assert.ErrorIs(t, f.ctl.Attack(ctx, 63), turn.ErrInvalidAction)
	assert.ErrorIs(t, f.ctl.Click(ctx, 64), turn.ErrInvalidAction)

	assert.Equal(t, before, f.ctl.Turn())
	assert.Equal(t, units, f.ctl.Units())
	assert.Equal(t, turn.StagePlayerUnitSelected, f.ctl.State())
	assert.Len(t, f.rec.events, events)
}

func TestMove_WithoutSelection(t *testing.T) {
	f := newFixture(t, true)
	f.load(t, 1,
		unit("p1", character.Swordsman, 0, 40, 10, 50),
		unit("e1", character.Undead, 63, 40, 10, 50),
	)
	assert.ErrorIs(t, f.ctl.Move(context.Background(), 1), turn.ErrInvalidAction)
	assert.ErrorIs(t, f.ctl.Click(context.Background(), 1), turn.ErrInvalidAction)
}

func TestMove_EnemyAnswersAndSelectionClears(t *testing.T) {
	f := newFixture(t, true)
	f.load(t, 1,
		unit("p1", character.Swordsman, 0, 40, 10, 50),
		unit("e1", character.Daemon, 63, 10, 10, 50),
	)
	require.NoError(t, f.ctl.SelectUnit(0))
	require.NoError(t, f.ctl.Click(context.Background(), 9))

	assert.Equal(t, turn.StagePlayerSelecting, f.ctl.State())
	ts := f.ctl.Turn()
	assert.Equal(t, board.NoCell, ts.Player.Selected)
	assert.Equal(t, character.FactionPlayer, ts.Acting)
	assert.NotEqual(t, board.NoCell, ts.Enemy.Selected)

	n := len(f.rec.events)
	require.GreaterOrEqual(t, n, 4)
	playerMove, enemyMove, cleared := f.rec.events[n-3], f.rec.events[n-2], f.rec.events[n-1]
	assert.Equal(t, turn.EventMoved, playerMove.Kind)
	assert.Equal(t, character.FactionPlayer, playerMove.Side)
	assert.Equal(t, []int{0, 9}, playerMove.Cells)
	assert.Equal(t, character.FactionEnemy, enemyMove.Side)
	assert.Equal(t, turn.EventSelection, cleared.Kind)
	assert.Equal(t, character.FactionPlayer, cleared.Side)
	assert.Empty(t, cleared.Cells)
}

func TestAttack_SurvivorStaysSelected(t *testing.T) {
	f := newFixture(t, true)
	f.load(t, 1,
		unit("p1", character.Swordsman, 0, 40, 10, 50),
		unit("e1", character.Daemon, 1, 10, 10, 100),
		unit("e2", character.Undead, 63, 40, 10, 50),
	)
	require.NoError(t, f.ctl.SelectUnit(0))
	require.NoError(t, f.ctl.Attack(context.Background(), 1))

	units := map[string]float64{}
	for _, u := range f.ctl.Units() {
		units[u.Character.ID] = u.Character.Health
	}
	assert.InDelta(t, 70.0, units["e1"], 1e-9)
	// The attacked daemon answers: max(10-10, 1).
	assert.InDelta(t, 49.0, units["p1"], 1e-9)
	assert.Equal(t, turn.StagePlayerUnitSelected, f.ctl.State())
	assert.Equal(t, 0, f.ctl.Turn().Player.Selected)
	assert.Equal(t, 1, f.ctl.Turn().Enemy.Selected)

	last := f.rec.events[len(f.rec.events)-1]
	assert.Equal(t, turn.EventDamaged, last.Kind)
	assert.Equal(t, []int{1, 0}, last.Cells)
	assert.InDelta(t, 1.0, last.Amount, 1e-9)
}

func TestAttack_KillingLastEnemyAdvancesLevel(t *testing.T) {
	f := newFixture(t, true)
	f.load(t, 1,
		unit("p1", character.Swordsman, 0, 1000, 10, 40),
		unit("e1", character.Undead, 1, 40, 10, 10),
	)
	require.NoError(t, f.ctl.SelectUnit(0))
	require.NoError(t, f.ctl.Click(context.Background(), 1))

	assert.Equal(t, 2, f.ctl.Level())
	assert.Equal(t, turn.StagePlayerSelecting, f.ctl.State())
	var players, enemies int
	var veteran *character.Character
	for _, u := range f.ctl.Units() {
		switch u.Faction() {
		case character.FactionPlayer:
			players++
			if u.Character.ID == "p1" {
				veteran = u.Character
			}
		case character.FactionEnemy:
			enemies++
		}
	}
	assert.Equal(t, 3, players)
	assert.Equal(t, 3, enemies)
	require.NotNil(t, veteran)
	assert.Equal(t, 2, veteran.Level)
	assert.InDelta(t, 100.0, veteran.Health, 1e-9)
	assert.InDelta(t, 1200.0, veteran.Attack, 1e-9)

	kinds := f.rec.kinds()
	assert.Equal(t, turn.EventLevelStarted, kinds[len(kinds)-1])
	n := len(f.rec.events)
	assert.Equal(t, 2, f.rec.events[n-1].Level)
	assert.Equal(t, turn.EventSelection, f.rec.events[n-2].Kind)
	assert.Empty(t, f.rec.events[n-2].Cells)
	assert.True(t, f.rec.events[n-3].Removed)
}

func TestAttack_ClearingFinalLevelWins(t *testing.T) {
	f := newFixture(t, true)
	f.load(t, progression.DefaultLevelCap,
		unit("p1", character.Swordsman, 0, 1000, 10, 40),
		unit("e1", character.Undead, 1, 40, 10, 10),
	)
	require.NoError(t, f.ctl.SelectUnit(0))
	require.NoError(t, f.ctl.Attack(context.Background(), 1))

	assert.Equal(t, turn.StageGameOver, f.ctl.State())
	assert.Equal(t, turn.OutcomeVictory, f.ctl.Outcome())
	last := f.rec.events[len(f.rec.events)-1]
	assert.Equal(t, turn.EventGameOver, last.Kind)
	assert.Equal(t, turn.OutcomeVictory, last.Outcome)

	// Input is ignored once the game is over.
	assert.ErrorIs(t, f.ctl.Click(context.Background(), 0), turn.ErrInvalidAction)
	assert.ErrorIs(t, f.ctl.SelectUnit(0), turn.ErrInvalidAction)
}

func TestEnemyKillingLastPlayerLoses(t *testing.T) {
	f := newFixture(t, true)
	f.load(t, 1,
		unit("p1", character.Magician, 0, 10, 40, 1),
		unit("e1", character.Undead, 1, 40, 10, 50),
	)
	require.NoError(t, f.ctl.SelectUnit(0))
	require.NoError(t, f.ctl.Move(context.Background(), 8))

	assert.Equal(t, turn.StageGameOver, f.ctl.State())
	assert.Equal(t, turn.OutcomeDefeat, f.ctl.Outcome())
	assert.Equal(t, board.NoCell, f.ctl.Turn().Player.Selected)
	n := len(f.rec.events)
	require.GreaterOrEqual(t, n, 3)
	assert.Equal(t, turn.EventDamaged, f.rec.events[n-3].Kind)
	assert.True(t, f.rec.events[n-3].Removed)
	assert.Equal(t, turn.EventSelection, f.rec.events[n-2].Kind)
	assert.Empty(t, f.rec.events[n-2].Cells)
	assert.Equal(t, turn.EventGameOver, f.rec.events[n-1].Kind)
	for _, u := range f.ctl.Units() {
		assert.Equal(t, character.FactionEnemy, u.Faction())
	}
	assert.Equal(t, 1, f.logs.FilterMessage("game over").Len())
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	require.NoError(t, f.ctl.Start(ctx))
	var player int
	for _, u := range f.ctl.Units() {
		if u.Faction() == character.FactionPlayer {
			player = u.Cell
			break
		}
	}
	require.NoError(t, f.ctl.SelectUnit(player))
	require.NoError(t, f.ctl.Save(ctx))

	table := character.DefaultTable()
	calc := board.NewCalculator(board.DefaultSize, table)
	src := dice.NewSeededSource(1)
	restored := turn.NewController(turn.Deps{
		Calculator:  calc,
		Progression: progression.New(progression.Config{BoardSize: 8, LevelCap: 4, InitialSquadSize: 2}, character.NewGenerator(table, dice.NewLoggedRoller(src, zap.NewNop())), src, zap.NewNop()),
		AI:          ai.NewController(calc, nil, src, zap.NewNop()),
		Table:       table,
		Store:       f.store,
		Logger:      zap.NewNop(),
	})
	rec := &recorder{}
	restored.Attach(rec)
	require.NoError(t, restored.Load(ctx))

	assert.Equal(t, f.ctl.Units(), restored.Units())
	assert.Equal(t, f.ctl.Level(), restored.Level())
	assert.Equal(t, turn.StagePlayerUnitSelected, restored.State())
	assert.Equal(t, f.ctl.Turn().Player, restored.Turn().Player)
	assert.Equal(t, []turn.EventKind{turn.EventLevelStarted, turn.EventSelection}, rec.kinds())
}

func TestSave_RequiresStoreAndGame(t *testing.T) {
	f := newFixture(t, false)
	err := f.ctl.Save(context.Background())
	assert.ErrorIs(t, err, turn.ErrUnbound)

	g := newFixture(t, true)
	assert.ErrorIs(t, g.ctl.Save(context.Background()), turn.ErrInvalidAction)
}

func TestLoad_NoSavedGame(t *testing.T) {
	f := newFixture(t, true)
	err := f.ctl.Load(context.Background())
	assert.ErrorIs(t, err, storage.ErrNoSavedGame)
	assert.Equal(t, turn.StageNotStarted, f.ctl.State())
}

func TestLoad_RejectsBadSnapshot(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	bad := []storage.Snapshot{
		{Level: 1, Units: []storage.UnitRecord{{ID: "x", Class: "dragon", Health: 10}}},
		{Level: 1, Units: []storage.UnitRecord{unit("a", character.Bowman, 3, 1, 1, 1), unit("b", character.Vampire, 3, 1, 1, 1)}},
		{Level: 1, Units: []storage.UnitRecord{unit("a", character.Bowman, 99, 1, 1, 1)}},
		{Level: 1, Units: []storage.UnitRecord{unit("a", character.Bowman, 3, 1, 1, 0)}},
		{Level: 0, Units: []storage.UnitRecord{unit("a", character.Bowman, 3, 1, 1, 1)}},
	}
	for i, snap := range bad {
		require.NoError(t, f.store.Save(ctx, snap))
		assert.Error(t, f.ctl.Load(ctx), "snapshot %d", i)
		assert.Equal(t, turn.StageNotStarted, f.ctl.State(), "snapshot %d", i)
	}
}

func TestLoad_FinishedGames(t *testing.T) {
	f := newFixture(t, true)
	f.load(t, progression.DefaultLevelCap+1, unit("p1", character.Bowman, 3, 1, 1, 1))
	assert.Equal(t, turn.OutcomeVictory, f.ctl.Outcome())

	g := newFixture(t, true)
	g.load(t, 2, unit("e1", character.Vampire, 3, 1, 1, 1))
	assert.Equal(t, turn.OutcomeDefeat, g.ctl.Outcome())
}

func TestLoad_WithoutStore(t *testing.T) {
	f := newFixture(t, false)
	err := f.ctl.Load(context.Background())
	var be *turn.BindingError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "store", be.Missing)
}
