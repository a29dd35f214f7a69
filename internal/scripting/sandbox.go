// Package scripting provides a sandboxed GopherLua environment for AI
// precondition scripts. It has no dependency on game packages; scripts see
// only plain numbers and the engine.* helper modules.
package scripting

import (
	"context"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the opcode budget of one script call when no
// override is configured.
const DefaultInstructionLimit = 100_000

// countingContext cancels itself after Done has been called limit times.
// GopherLua's context-aware main loop calls Done once per opcode, which makes
// this an exact instruction budget.
type countingContext struct {
	context.Context
	cancel    context.CancelFunc
	remaining *atomic.Int64
}

func (c *countingContext) Done() <-chan struct{} {
	if c.remaining.Add(-1) <= 0 {
		c.cancel()
	}
	return c.Context.Done()
}

// newBudget returns a context that cancels after limit opcodes.
//
// Precondition: limit > 0.
func newBudget(limit int) (context.Context, context.CancelFunc) {
	base, cancel := context.WithCancel(context.Background())
	rem := &atomic.Int64{}
	rem.Store(int64(limit))
	return &countingContext{Context: base, cancel: cancel, remaining: rem}, cancel
}

// NewSandboxedState creates a GopherLua LState with only the base, table,
// string and math libraries, the file and loader globals removed, and an
// instruction budget of instLimit opcodes installed.
//
// Precondition: instLimit >= 0; 0 selects DefaultInstructionLimit.
// Postcondition: The caller owns the LState and must Close it and call the
// returned cancel func.
func NewSandboxedState(instLimit int) (*lua.LState, context.CancelFunc) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "collectgarbage", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
	ctx, cancel := newBudget(normalizeLimit(instLimit))
	L.SetContext(ctx)
	return L, cancel
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultInstructionLimit
	}
	return limit
}
