// Package scripting provides a sandboxed GopherLua environment for duel event
// hooks. Scripts observe a running scenario; they cannot change its outcome.
package scripting

import (
	"context"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the maximum number of Lua opcodes allowed per
// load or hook call when no override is configured.
const DefaultInstructionLimit = 100_000

// budget is a context that cancels itself once Done has been called
// remaining times. GopherLua's mainLoopWithContext calls Done once per
// opcode, so a budget counts executed instructions exactly.
type budget struct {
	context.Context
	cancel    context.CancelFunc
	remaining atomic.Int64
}

func (b *budget) Done() <-chan struct{} {
	if b.remaining.Add(-1) <= 0 {
		b.cancel()
	}
	return b.Context.Done()
}

// armLimit installs a fresh budget of instLimit opcodes on L, or
// DefaultInstructionLimit when instLimit <= 0. The returned function
// releases it.
func armLimit(L *lua.LState, instLimit int) func() {
	if instLimit <= 0 {
		instLimit = DefaultInstructionLimit
	}
	ctx, cancel := context.WithCancel(context.Background())
	b := &budget{Context: ctx, cancel: cancel}
	b.remaining.Store(int64(instLimit))
	L.SetContext(b)
	return func() {
		cancel()
		L.RemoveContext()
	}
}

// NewSandboxedState creates a GopherLua state for hook scripts. Only the base,
// table, string and math libraries are opened, and the globals that reach the
// host (dofile, loadfile, load, collectgarbage, require) are removed.
//
// The state starts with one budget of instLimit opcodes shared by every chunk
// run on it; Manager replaces it with a fresh budget per load and hook call.
//
// Precondition: instLimit >= 0; 0 uses DefaultInstructionLimit.
// Postcondition: Returns a non-nil LState owned by the caller, who must Close it.
func NewSandboxedState(instLimit int) *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, open := range []lua.LGFunction{lua.OpenBase, lua.OpenTable, lua.OpenString, lua.OpenMath} {
		open(L)
	}
	for _, name := range []string{"dofile", "loadfile", "load", "collectgarbage", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
	armLimit(L, instLimit)
	return L
}
