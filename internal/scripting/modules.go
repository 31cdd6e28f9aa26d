package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/duelsim/internal/game/scenario"
)

// RegisterModules registers all engine.* Lua tables into L:
//
//	engine.log.debug|info|warn|error(msg)  write to the Manager's logger
//	engine.duel.ticks_per_second           simulation rate
//	engine.duel.seconds(tick)              tick converted to simulated seconds
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetGlobal("engine", engine)

	logTbl := L.NewTable()
	for name, level := range map[string]func(string, ...zap.Field){
		"debug": m.logger.Debug,
		"info":  m.logger.Info,
		"warn":  m.logger.Warn,
		"error": m.logger.Error,
	} {
		L.SetField(logTbl, name, L.NewFunction(func(L *lua.LState) int {
			level(L.CheckString(1), zap.String("source", "lua"))
			return 0
		}))
	}
	L.SetField(engine, "log", logTbl)

	duel := L.NewTable()
	L.SetField(duel, "ticks_per_second", lua.LNumber(scenario.TicksPerSecond))
	L.SetField(duel, "seconds", L.NewFunction(func(L *lua.LState) int {
		tick := L.CheckNumber(1)
		L.Push(lua.LNumber(float64(tick) / scenario.TicksPerSecond))
		return 1
	}))
	L.SetField(engine, "duel", duel)
}
