package ai

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/tactics/internal/game/board"
	"github.com/cory-johannsen/tactics/internal/game/dice"
)

// ScriptCaller is the interface required by the Planner to evaluate Lua preconditions.
type ScriptCaller interface {
	// CallHook calls a named Lua function. Returns (LNil, nil) if the function is not defined.
	CallHook(hook string, args ...lua.LValue) (lua.LValue, error)
}

// PlannedAction is one primitive action produced by the planner.
type PlannedAction struct {
	Action Action
	Cell   int // board.NoCell for pass
}

// Planner evaluates an HTN domain for the acting enemy.
//
// Invariant: domain, caller and src must not be nil.
type Planner struct {
	domain *Domain
	caller ScriptCaller
	src    dice.Source
}

// NewPlanner constructs a Planner.
//
// Precondition: domain, caller and src must not be nil.
func NewPlanner(domain *Domain, caller ScriptCaller, src dice.Source) *Planner {
	if domain == nil {
		panic("ai.NewPlanner: domain must not be nil")
	}
	if caller == nil {
		panic("ai.NewPlanner: caller must not be nil")
	}
	if src == nil {
		panic("ai.NewPlanner: src must not be nil")
	}
	return &Planner{domain: domain, caller: caller, src: src}
}

// Domain returns the planner's domain.
func (p *Planner) Domain() *Domain { return p.domain }

// Plan decomposes the root task against state and returns the ordered plan.
//
// Precondition: state and state.Actor must not be nil.
// Postcondition: returns a non-nil slice (may be empty); Lua failures count
// as a false precondition.
func (p *Planner) Plan(state *WorldState) ([]PlannedAction, error) {
	if state == nil || state.Actor == nil {
		return nil, fmt.Errorf("ai.Planner.Plan: state and state.Actor must not be nil")
	}

	queue := []string{RootTask}
	result := []PlannedAction{}

	const maxSteps = 32
	for steps := 0; len(queue) > 0 && steps < maxSteps; steps++ {
		current := queue[0]
		queue = queue[1:]

		if op, ok := p.domain.OperatorByID(current); ok {
			cell := board.NoCell
			if op.Action != ActionPass {
				cell = state.ResolveTarget(op.Target, p.src)
			}
			result = append(result, PlannedAction{Action: op.Action, Cell: cell})
			continue
		}

		method := p.findApplicableMethod(current, state)
		if method == nil {
			continue
		}
		queue = append(append([]string{}, method.Subtasks...), queue...)
	}
	return result, nil
}

// findApplicableMethod returns the first method for taskID whose
// precondition passes, or nil.
func (p *Planner) findApplicableMethod(taskID string, state *WorldState) *Method {
	for _, m := range p.domain.MethodsForTask(taskID) {
		if m.Precondition == "" {
			return m
		}
		val, _ := p.caller.CallHook(m.Precondition,
			lua.LNumber(len(state.Targets)),
			lua.LNumber(len(state.FreeCells)),
			lua.LNumber(state.Actor.Health),
		)
		if val == lua.LTrue {
			return m
		}
	}
	return nil
}
