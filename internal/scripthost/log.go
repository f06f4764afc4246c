package scripthost

import lua "github.com/yuin/gopher-lua"

// registerLog exposes LOG.Error/Warn/Info/Debug, a thin facade
// over internal/logging mirroring the teacher's single shared
// TerminalOutput instance rather than letting every script write
// directly, grounded in original_source's logging/logger.rs Log
// UserData methods.
func (h *Host) registerLog() {
	t := h.L.NewTable()
	for _, level := range []struct {
		name string
		fn   func(msg any, args ...any)
	}{
		{"Error", log.Error},
		{"Warn", log.Warn},
		{"Info", log.Info},
		{"Debug", log.Debug},
	} {
		fn := level.fn
		t.RawSetString(level.name, h.L.NewFunction(func(L *lua.LState) int {
			msg := L.CheckString(1)
			fn(msg)
			return 0
		}))
	}
	h.L.SetGlobal("LOG", t)
}
