package scripting

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/duelsim/internal/game/effect"
	"github.com/cory-johannsen/duelsim/internal/game/scenario"
)

// Hook names called by Handle, keyed by event kind.
var hookNames = map[scenario.EventKind]string{
	scenario.EventAttack:         "on_attack",
	scenario.EventAfflictionTick: "on_dot",
	scenario.EventEffectExpired:  "on_expire",
	scenario.EventDefeated:       "on_defeat",
}

// Manager owns one sandboxed LState and dispatches scenario events to it.
//
// Manager implements scenario.EventSink. It is safe for concurrent use; calls
// into the VM are serialized.
type Manager struct {
	mu        sync.Mutex
	L         *lua.LState
	instLimit int
	logger    *zap.Logger
}

// NewManager creates a Manager with no script loaded.
//
// Precondition: logger must be non-nil.
// Postcondition: Returns a non-nil Manager.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{logger: logger}
}

// Load creates a fresh sandboxed VM, registers the engine.* modules, then
// executes path. If path is a directory every *.lua file in it runs in
// lexicographic order. A previously loaded VM is replaced.
//
// Precondition: path must name a readable file or directory.
// Postcondition: VM is registered; returns error on read or Lua load failure.
func (m *Manager) Load(path string, instLimit int) error {
	files, err := luaFiles(path)
	if err != nil {
		return err
	}

	L := NewSandboxedState(instLimit)
	m.RegisterModules(L)
	for _, f := range files {
		if err := L.DoFile(f); err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q: %w", f, err)
		}
	}

	m.mu.Lock()
	if m.L != nil {
		m.L.Close()
	}
	m.L = L
	m.instLimit = instLimit
	m.mu.Unlock()

	m.logger.Debug("scripting: loaded", zap.String("path", path), zap.Int("files", len(files)))
	return nil
}

func luaFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("scripting: reading %q: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("scripting: reading script dir %q: %w", path, err)
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			out = append(out, filepath.Join(path, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

// CallHook calls the named Lua global function with a fresh instruction budget.
// Returns (LNil, nil) if no VM is loaded or the hook is not defined. Lua runtime
// errors, including an exhausted budget, are logged at Warn level and never
// propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callLocked(hook, args...), nil
}

// Handle implements scenario.EventSink by calling the hook for e.Kind with an
// event table. Events with no defined hook cost no Lua work.
func (m *Manager) Handle(_ context.Context, e scenario.Event) {
	hook, ok := hookNames[e.Kind]
	if !ok {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.L == nil || m.L.GetGlobal(hook).Type() != lua.LTFunction {
		return
	}
	m.callLocked(hook, m.eventTable(e))
}

func (m *Manager) callLocked(hook string, args ...lua.LValue) lua.LValue {
	if m.L == nil {
		return lua.LNil
	}
	fn := m.L.GetGlobal(hook)
	if fn.Type() != lua.LTFunction {
		return lua.LNil
	}

	release := armLimit(m.L, m.instLimit)
	defer release()

	if err := m.L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil
	}

	ret := m.L.Get(-1)
	m.L.Pop(1)
	return ret
}

func (m *Manager) eventTable(e scenario.Event) *lua.LTable {
	t := m.L.NewTable()
	t.RawSetString("run_id", lua.LString(e.RunID.String()))
	t.RawSetString("tick", lua.LNumber(e.Tick))
	t.RawSetString("seconds", lua.LNumber(float64(e.Tick)/scenario.TicksPerSecond))
	t.RawSetString("kind", lua.LString(e.Kind.String()))
	t.RawSetString("side", lua.LString(e.Actor.String()))
	t.RawSetString("actor", lua.LString(e.ActorName))
	t.RawSetString("target", lua.LString(e.TargetName))
	t.RawSetString("target_health", lua.LNumber(e.TargetHealth))
	t.RawSetString("narrative", lua.LString(e.Narrative))
	if e.Effect != effect.NoID {
		t.RawSetString("effect", lua.LString(e.Effect.String()))
	}
	if a := e.Attack; a != nil {
		t.RawSetString("dealt", lua.LNumber(a.Dealt.Total()))
		t.RawSetString("raw", lua.LNumber(a.Raw.Total()))
		t.RawSetString("on_hit", lua.LNumber(a.OnHit.Total()))
		t.RawSetString("crit", lua.LBool(a.Crit))
	}
	if d := e.Affliction; d != nil {
		t.RawSetString("dealt", lua.LNumber(d.Dealt.Total()))
		t.RawSetString("stacks", lua.LNumber(d.Stacks))
	}
	return t
}

// Close releases the VM. Subsequent calls are no-ops.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.L != nil {
		m.L.Close()
		m.L = nil
	}
}
