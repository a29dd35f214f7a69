package scripting

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/spf13/afero"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/tactics/internal/game/dice"
)

// Manager owns one sandboxed LState and dispatches hook calls into it. Each
// call runs under a fresh instruction budget.
//
// Manager is safe for concurrent CallHook; calls are serialized.
type Manager struct {
	mu        sync.Mutex
	L         *lua.LState
	cancel    func()
	instLimit int
	roller    *dice.Roller
	logger    *zap.Logger
}

// NewManager creates a Manager with an empty VM.
//
// Precondition: roller and logger must be non-nil; instLimit >= 0.
func NewManager(roller *dice.Roller, logger *zap.Logger, instLimit int) *Manager {
	if roller == nil {
		panic("scripting.NewManager: roller must not be nil")
	}
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	m := &Manager{instLimit: normalizeLimit(instLimit), roller: roller, logger: logger}
	m.L, m.cancel = NewSandboxedState(m.instLimit)
	m.RegisterModules(m.L)
	return m
}

// LoadSource executes a chunk of Lua source, defining its globals in the VM.
//
// Postcondition: Returns an error wrapping the Lua error when the chunk fails
// to compile, raises, or exceeds the budget.
func (m *Manager) LoadSource(name, src string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.L == nil {
		return fmt.Errorf("scripting: loading %q: manager closed", name)
	}
	m.resetBudget()
	if err := m.L.DoString(src); err != nil {
		return fmt.Errorf("scripting: loading %q: %w", name, err)
	}
	return nil
}

// LoadFile reads path from fsys and executes it.
func (m *Manager) LoadFile(fsys afero.Fs, path string) error {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return fmt.Errorf("scripting: reading %q: %w", path, err)
	}
	return m.LoadSource(path, string(data))
}

// LoadDir executes every *.lua file in dir in lexicographic order.
func (m *Manager) LoadDir(fsys afero.Fs, dir string) error {
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	for _, f := range files {
		if err := m.LoadFile(fsys, f); err != nil {
			return err
		}
	}
	return nil
}

// CallHook calls the named global function with args. A missing hook or a
// closed manager yields (LNil, nil). Lua runtime errors, including an
// exhausted budget, are logged at Warn level and never propagated.
//
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.L == nil {
		m.logger.Info("scripting: hook called after close", zap.String("hook", hook))
		return lua.LNil, nil
	}
	fn := m.L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}
	m.resetBudget()
	if err := m.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}
	ret := m.L.Get(-1)
	m.L.Pop(1)
	return ret, nil
}

// Close releases the VM. Further calls are no-ops.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.L == nil {
		return
	}
	m.cancel()
	m.L.Close()
	m.L, m.cancel = nil, nil
}

// resetBudget installs a fresh instruction budget. Caller holds mu.
func (m *Manager) resetBudget() {
	m.cancel()
	ctx, cancel := newBudget(m.instLimit)
	m.L.SetContext(ctx)
	m.cancel = cancel
}
