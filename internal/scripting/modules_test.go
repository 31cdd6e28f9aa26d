package scripting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/duelsim/internal/scripting"
)

func runScript(t *testing.T, mgr *scripting.Manager, luaSrc, hook string, args ...lua.LValue) lua.LValue {
	t.Helper()
	require.NoError(t, mgr.Load(writeTempLua(t, "test.lua", luaSrc), 0))
	ret, err := mgr.CallHook(hook, args...)
	require.NoError(t, err)
	return ret
}

func TestEngineLog_WritesToLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	mgr := scripting.NewManager(zap.New(core))
	defer mgr.Close()

	runScript(t, mgr, `
		function do_log()
			engine.log.info("hello from lua")
		end
	`, "do_log")

	entries := logs.FilterMessage("hello from lua").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, "lua", entries[0].ContextMap()["source"])
}

func TestEngineLog_AllLevels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	mgr := scripting.NewManager(zap.New(core))
	defer mgr.Close()

	runScript(t, mgr, `
		function do_all_logs()
			engine.log.debug("d")
			engine.log.info("i")
			engine.log.warn("w")
			engine.log.error("e")
		end
	`, "do_all_logs")

	levels := map[string]zapcore.Level{}
	for _, e := range logs.All() {
		levels[e.Message] = e.Level
	}
	assert.Equal(t, zap.DebugLevel, levels["d"])
	assert.Equal(t, zap.InfoLevel, levels["i"])
	assert.Equal(t, zap.WarnLevel, levels["w"])
	assert.Equal(t, zap.ErrorLevel, levels["e"])
}

func TestEngineLog_NonStringArgumentIsRuntimeError(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	mgr := scripting.NewManager(zap.New(core))
	defer mgr.Close()

	ret := runScript(t, mgr, `
		function bad_log()
			engine.log.info({})
			return 1
		end
	`, "bad_log")
	assert.Equal(t, lua.LNil, ret)
	assert.NotEmpty(t, logs.FilterLevelExact(zap.WarnLevel).All())
}

func TestEngineDuel_TicksPerSecond(t *testing.T) {
	mgr, _ := newTestManager(t)
	ret := runScript(t, mgr, `function rate() return engine.duel.ticks_per_second end`, "rate")
	assert.Equal(t, lua.LNumber(30), ret)
}

func TestEngineDuel_Seconds(t *testing.T) {
	mgr, _ := newTestManager(t)
	ret := runScript(t, mgr, `function secs(t) return engine.duel.seconds(t) end`, "secs", lua.LNumber(45))
	assert.Equal(t, lua.LNumber(1.5), ret)
}

func TestProperty_EngineDuelSecondsMatchesRate(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.Load(writeTempLua(t, "secs.lua", `function secs(t) return engine.duel.seconds(t) end`), 0))
	rapid.Check(t, func(rt *rapid.T) {
		tick := rapid.IntRange(0, 100_000).Draw(rt, "tick")
		ret, err := mgr.CallHook("secs", lua.LNumber(tick))
		if err != nil {
			rt.Fatalf("CallHook: %v", err)
		}
		got := float64(ret.(lua.LNumber))
		if want := float64(tick) / 30; got != want {
			rt.Fatalf("seconds(%d) = %v, want %v", tick, got, want)
		}
	})
}
