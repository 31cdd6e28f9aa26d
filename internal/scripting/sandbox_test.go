package scripting_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/duelsim/internal/scripting"
)

// sumLoop runs roughly a few hundred opcodes.
const sumLoop = `local s = 0 for i = 1, 100 do s = s + i end`

func TestNewSandboxedState_HostAccessRemoved(t *testing.T) {
	L := scripting.NewSandboxedState(0)
	defer L.Close()
	for _, name := range []string{"os", "io", "debug", "dofile", "loadfile", "load", "collectgarbage", "require"} {
		assert.Equal(t, lua.LNil, L.GetGlobal(name), "%s must not be reachable from a hook script", name)
	}
}

func TestNewSandboxedState_DuelArithmeticAvailable(t *testing.T) {
	L := scripting.NewSandboxedState(0)
	defer L.Close()
	require.NoError(t, L.DoString(`
		local dealt = 60 * (100 / (100 + 38))
		label = string.format("%.2f", dealt)
		stacks = math.min(7, 5)
		names = table.concat({"A", "B"}, ",")
	`))
	assert.Equal(t, lua.LString("43.48"), L.GetGlobal("label"))
	assert.Equal(t, lua.LNumber(5), L.GetGlobal("stacks"))
	assert.Equal(t, lua.LString("A,B"), L.GetGlobal("names"))
}

func TestNewSandboxedState_BudgetCoversEveryChunkUntilReArmed(t *testing.T) {
	L := scripting.NewSandboxedState(2000)
	defer L.Close()

	require.NoError(t, L.DoString(sumLoop), "one loop fits the load budget")
	var err error
	for i := 0; i < 50 && err == nil; i++ {
		err = L.DoString(sumLoop)
	}
	assert.Error(t, err, "chunks run on a bare state share one budget")
}

func TestManager_HookBudgetIsReArmedPerCall(t *testing.T) {
	mgr, logs := newTestManager(t)
	dir := writeTempLua(t, "hooks.lua", fmt.Sprintf(`
		calls = 0
		function on_attack(e)
			calls = calls + 1
			%s
			return calls
		end
		function on_defeat(e)
			while true do end
		end
	`, sumLoop))
	require.NoError(t, mgr.Load(dir, 2000))

	for i := 1; i <= 50; i++ {
		ret, err := mgr.CallHook("on_attack")
		require.NoError(t, err)
		require.Equal(t, lua.LNumber(i), ret, "hook call %d ran out of budget", i)
	}

	ret, err := mgr.CallHook("on_defeat")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
	assert.True(t, hasLevel(logs, zap.WarnLevel), "an exhausted budget is logged")

	ret, err = mgr.CallHook("on_attack")
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(51), ret, "the VM stays usable after an exhausted budget")
}

// Property: no budget lets an unbounded hook run forever.
func TestProperty_SpinningChunkAlwaysStopped(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		limit := rapid.IntRange(1, 5000).Draw(rt, "limit")
		L := scripting.NewSandboxedState(limit)
		defer L.Close()
		if err := L.DoString(`while true do end`); err == nil {
			rt.Fatalf("spin finished with limit=%d", limit)
		}
	})
}
