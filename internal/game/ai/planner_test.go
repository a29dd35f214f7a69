package ai_test

import (
	"testing"

	lua "github.com/yuin/gopher-lua"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/tactics/internal/game/ai"
	"github.com/cory-johannsen/tactics/internal/game/board"
	"github.com/cory-johannsen/tactics/internal/game/dice"
)

// hookTable answers each hook with a fixed value and records the calls.
type hookTable struct {
	answers map[string]lua.LValue
	calls   []string
	args    [][]lua.LValue
}

func (h *hookTable) CallHook(hook string, args ...lua.LValue) (lua.LValue, error) {
	h.calls = append(h.calls, hook)
	h.args = append(h.args, args)
	if v, ok := h.answers[hook]; ok {
		return v, nil
	}
	return lua.LNil, nil
}

func skirmisher(t testing.TB) *ai.Domain {
	t.Helper()
	d, err := ai.DefaultDomain()
	if err != nil {
		t.Fatalf("DefaultDomain: %v", err)
	}
	return d
}

func TestPlanner_Plan_AttacksWhenHasTarget(t *testing.T) {
	caller := &hookTable{answers: map[string]lua.LValue{"has_target": lua.LTrue}}
	p := ai.NewPlanner(skirmisher(t), caller, &dice.FixedSource{})
	ws := &ai.WorldState{
		Actor:        &ai.UnitState{ID: "e", Cell: 10, Health: 40},
		Targets:      []*ai.UnitState{{ID: "a", Cell: 9}, {ID: "b", Cell: 11}},
		FreeCells:    []int{2, 3},
		SelectedCell: board.NoCell,
	}
	plan, err := p.Plan(ws)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan) != 1 || plan[0].Action != ai.ActionAttack || plan[0].Cell != 11 {
		t.Fatalf("expected attack on 11, got %+v", plan)
	}
	if len(caller.args) == 0 || caller.args[0][0] != lua.LNumber(2) || caller.args[0][1] != lua.LNumber(2) || caller.args[0][2] != lua.LNumber(40) {
		t.Fatalf("unexpected precondition args %v", caller.args)
	}
}

func TestPlanner_Plan_MovesWhenOnlyCanMove(t *testing.T) {
	caller := &hookTable{answers: map[string]lua.LValue{"has_target": lua.LFalse, "can_move": lua.LTrue}}
	p := ai.NewPlanner(skirmisher(t), caller, &dice.FixedSource{Values: []int{1}})
	ws := &ai.WorldState{Actor: &ai.UnitState{Cell: 10}, FreeCells: []int{2, 3, 4}, SelectedCell: board.NoCell}
	plan, err := p.Plan(ws)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan) != 1 || plan[0].Action != ai.ActionMove || plan[0].Cell != 3 {
		t.Fatalf("expected move to 3, got %+v", plan)
	}
}

func TestPlanner_Plan_HoldsWhenNothingApplies(t *testing.T) {
	p := ai.NewPlanner(skirmisher(t), &hookTable{}, &dice.FixedSource{})
	plan, err := p.Plan(&ai.WorldState{Actor: &ai.UnitState{}, SelectedCell: board.NoCell})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan) != 1 || plan[0].Action != ai.ActionPass || plan[0].Cell != board.NoCell {
		t.Fatalf("expected pass, got %+v", plan)
	}
}

func TestPlanner_Plan_NilState(t *testing.T) {
	p := ai.NewPlanner(skirmisher(t), &hookTable{}, &dice.FixedSource{})
	if _, err := p.Plan(nil); err == nil {
		t.Fatal("expected error for nil state")
	}
	if _, err := p.Plan(&ai.WorldState{}); err == nil {
		t.Fatal("expected error for nil actor")
	}
}

func TestNewPlanner_PanicsOnNil(t *testing.T) {
	for name, fn := range map[string]func(){
		"domain": func() { ai.NewPlanner(nil, &hookTable{}, &dice.FixedSource{}) },
		"caller": func() { ai.NewPlanner(&ai.Domain{}, nil, &dice.FixedSource{}) },
		"src":    func() { ai.NewPlanner(&ai.Domain{}, &hookTable{}, nil) },
	} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("expected panic for nil %s", name)
				}
			}()
			fn()
		}()
	}
}

func TestPlanner_Plan_DoesNotMutateDomain(t *testing.T) {
	d := skirmisher(t)
	before := append([]string{}, d.MethodsForTask(ai.RootTask)[0].Subtasks...)
	p := ai.NewPlanner(d, &hookTable{answers: map[string]lua.LValue{"has_target": lua.LTrue}}, &dice.FixedSource{})
	for i := 0; i < 3; i++ {
		_, _ = p.Plan(&ai.WorldState{Actor: &ai.UnitState{}, Targets: []*ai.UnitState{{Cell: 1}}, SelectedCell: board.NoCell})
	}
	after := d.MethodsForTask(ai.RootTask)[0].Subtasks
	if len(after) != len(before) || after[0] != before[0] {
		t.Fatalf("domain subtasks mutated: %v -> %v", before, after)
	}
}

func TestProperty_Planner_AlwaysReturnsOneLegalAction(t *testing.T) {
	d := skirmisher(t)
	rapid.Check(t, func(rt *rapid.T) {
		nTargets := rapid.IntRange(0, 4).Draw(rt, "targets")
		free := rapid.SliceOfDistinct(rapid.IntRange(0, 63), rapid.ID[int]).Draw(rt, "free")
		ws := &ai.WorldState{Actor: &ai.UnitState{Cell: 0}, FreeCells: free, SelectedCell: board.NoCell}
		for i := 0; i < nTargets; i++ {
			ws.Targets = append(ws.Targets, &ai.UnitState{Cell: 64 + i})
		}
		caller := &hookTable{answers: map[string]lua.LValue{
			"has_target": lua.LBool(ws.HasTarget()),
			"can_move":   lua.LBool(ws.CanMove()),
		}}
		p := ai.NewPlanner(d, caller, dice.NewSeededSource(rapid.Uint64().Draw(rt, "seed")))
		plan, err := p.Plan(ws)
		if err != nil || len(plan) != 1 {
			rt.Fatalf("expected one action, got %v, %v", plan, err)
		}
		switch {
		case nTargets > 0 && plan[0].Action != ai.ActionAttack:
			rt.Fatalf("expected attack, got %s", plan[0].Action)
		case nTargets == 0 && len(free) > 0 && plan[0].Action != ai.ActionMove:
			rt.Fatalf("expected move, got %s", plan[0].Action)
		case nTargets == 0 && len(free) == 0 && plan[0].Action != ai.ActionPass:
			rt.Fatalf("expected pass, got %s", plan[0].Action)
		}
	})
}
