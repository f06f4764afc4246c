package scripthost

import lua "github.com/yuin/gopher-lua"

// registerShortcuts exposes SHORTCUTS.register(keys, handler) to the
// sandbox, delegating straight to internal/shortcuts (spec.md §4.6,
// "SHORTCUTS"), grounded in shortcuts.rs's Shortcuts UserData method.
func (h *Host) registerShortcuts() {
	t := h.L.NewTable()

	t.RawSetString("register", h.L.NewFunction(func(L *lua.LState) int {
		keysTable := L.CheckTable(1)
		handler := L.CheckFunction(2)
		keys := stringArray(keysTable)

		err := h.Shortcuts.Register(keys, func() error {
			return L.CallByParam(lua.P{Fn: handler, NRet: 0, Protect: true})
		})
		if err != nil {
			return raiseError(L, err)
		}
		return 0
	}))

	h.L.SetGlobal("SHORTCUTS", t)
}
