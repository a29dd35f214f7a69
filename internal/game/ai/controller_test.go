package ai_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/tactics/internal/game/ai"
	"github.com/cory-johannsen/tactics/internal/game/board"
	"github.com/cory-johannsen/tactics/internal/game/character"
	"github.com/cory-johannsen/tactics/internal/game/dice"
	"github.com/cory-johannsen/tactics/internal/game/roster"
	"github.com/cory-johannsen/tactics/internal/scripting"
)

func place(t *testing.T, reg *roster.Registry, id string, class character.Class, cell int, health float64) {
	t.Helper()
	p, ok := character.DefaultTable().Profile(class)
	require.True(t, ok)
	_, err := reg.Place(&character.Character{ID: id, Class: class, Level: 1, Attack: p.Attack, Defence: p.Defence, Health: health}, cell)
	require.NoError(t, err)
}

func newCalc() *board.Calculator { return board.NewCalculator(8, character.DefaultTable()) }

func scriptedPlanner(t *testing.T, src dice.Source) *ai.Planner {
	t.Helper()
	logger := zaptest.NewLogger(t)
	mgr := scripting.NewManager(dice.NewLoggedRoller(src, logger), logger, 0)
	t.Cleanup(mgr.Close)
	require.NoError(t, mgr.LoadSource(ai.DefaultScriptFile, ai.DefaultScript()))
	d, err := ai.DefaultDomain()
	require.NoError(t, err)
	return ai.NewPlanner(d, mgr, src)
}

func TestController_ChooseActor(t *testing.T) {
	reg := roster.New(8)
	place(t, reg, "p1", character.Swordsman, 0, 50)
	place(t, reg, "e1", character.Undead, 6, 50)
	place(t, reg, "e2", character.Vampire, 7, 50)
	c := ai.NewController(newCalc(), nil, &dice.FixedSource{}, zap.NewNop())

	u, ok := c.ChooseActor(reg, "e2")
	require.True(t, ok)
	assert.Equal(t, "e2", u.Character.ID)

	u, ok = c.ChooseActor(reg, "gone")
	require.True(t, ok)
	assert.Equal(t, "e1", u.Character.ID)

	u, ok = c.ChooseActor(reg, "p1")
	require.True(t, ok)
	assert.Equal(t, "e1", u.Character.ID, "a player ID never selects a player unit")

	reg.Remove(6)
	reg.Remove(7)
	_, ok = c.ChooseActor(reg, "")
	assert.False(t, ok)
}

func TestController_TakeTurn_AttacksSelectedThenLast(t *testing.T) {
	for name, planner := range map[string]func(t *testing.T) *ai.Planner{
		"native":  func(*testing.T) *ai.Planner { return nil },
		"planner": func(t *testing.T) *ai.Planner { return scriptedPlanner(t, &dice.FixedSource{}) },
	} {
		t.Run(name, func(t *testing.T) {
			reg := roster.New(8)
			place(t, reg, "p1", character.Bowman, 1, 50)
			place(t, reg, "p2", character.Bowman, 10, 50)
			place(t, reg, "p3", character.Bowman, 8, 50)
			place(t, reg, "e1", character.Undead, 9, 50)
			c := ai.NewController(newCalc(), planner(t), &dice.FixedSource{}, zaptest.NewLogger(t))

			res, err := c.TakeTurn(reg, "", 10)
			require.NoError(t, err)
			assert.Equal(t, ai.ActionAttack, res.Action)
			assert.Equal(t, 10, res.To)
			require.NotNil(t, res.Hit)
			assert.Equal(t, 15.0, res.Hit.Amount)
			assert.Equal(t, 9, res.From)
			assert.False(t, res.Reach.Attack.Has(9))

			res, err = c.TakeTurn(reg, "", board.NoCell)
			require.NoError(t, err)
			assert.Equal(t, 8, res.To, "without a selected candidate the last in registry order is attacked")
		})
	}
}

func TestController_TakeTurn_MovesToFreeCell(t *testing.T) {
	reg := roster.New(8)
	place(t, reg, "p1", character.Swordsman, 0, 50)
	place(t, reg, "e1", character.Daemon, 63, 50)
	place(t, reg, "e2", character.Daemon, 62, 50)
	c := ai.NewController(newCalc(), scriptedPlanner(t, &dice.FixedSource{}), &dice.FixedSource{}, zap.NewNop())

	res, err := c.TakeTurn(reg, "", board.NoCell)
	require.NoError(t, err)
	assert.Equal(t, ai.ActionMove, res.Action)
	assert.Equal(t, 54, res.To, "first free cell of {54, 55} with a zero draw")
	u, ok := reg.At(54)
	require.True(t, ok)
	assert.Equal(t, "e1", u.Character.ID)
}

func TestController_TakeTurn_PassesWhenBoxedIn(t *testing.T) {
	reg := roster.New(8)
	place(t, reg, "p1", character.Magician, 0, 50)
	place(t, reg, "e1", character.Daemon, 63, 50)
	place(t, reg, "e2", character.Daemon, 62, 50)
	place(t, reg, "e3", character.Daemon, 55, 50)
	place(t, reg, "e4", character.Daemon, 54, 50)
	c := ai.NewController(newCalc(), nil, &dice.FixedSource{}, zap.NewNop())

	res, err := c.TakeTurn(reg, "", board.NoCell)
	require.NoError(t, err)
	assert.Equal(t, ai.ActionPass, res.Action)
	assert.Equal(t, "e1", res.ActorID)
	_, ok := reg.At(63)
	assert.True(t, ok)
}

func TestController_TakeTurn_NoEnemies(t *testing.T) {
	reg := roster.New(8)
	place(t, reg, "p1", character.Magician, 0, 50)
	c := ai.NewController(newCalc(), nil, &dice.FixedSource{}, zap.NewNop())
	res, err := c.TakeTurn(reg, "", board.NoCell)
	require.NoError(t, err)
	assert.Empty(t, res.ActorID)
	assert.Equal(t, ai.ActionPass, res.Action)
}

// illegalCaller makes every precondition pass so the planner always attacks,
// even with no target in reach.
type illegalCaller struct{}

func (illegalCaller) CallHook(string, ...lua.LValue) (lua.LValue, error) { return lua.LTrue, nil }

func TestController_Decide_FallsBackOnIllegalPlan(t *testing.T) {
	d, err := ai.DefaultDomain()
	require.NoError(t, err)
	p := ai.NewPlanner(d, illegalCaller{}, &dice.FixedSource{})
	c := ai.NewController(newCalc(), p, &dice.FixedSource{}, zap.NewNop())

	got := c.Decide(&ai.WorldState{Actor: &ai.UnitState{}, FreeCells: []int{5}, SelectedCell: board.NoCell})
	assert.Equal(t, ai.ActionMove, got.Action)
	assert.Equal(t, 5, got.Cell)
}
