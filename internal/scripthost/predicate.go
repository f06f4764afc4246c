package scripthost

import lua "github.com/yuin/gopher-lua"

// registerPredicate exposes PREDICATE.Always/Never/Times(n), the
// built-in predicate factories scripts pass as a Layout's optional
// gate (spec.md §4.6), grounded in script_data_types.rs's predicate
// helpers (the original ships the same three variants as Lua
// closures generated from Rust).
func (h *Host) registerPredicate() {
	t := h.L.NewTable()

	// Always and Never are predicates themselves (no call needed at
	// registration time): `predicate = PREDICATE.Always`.
	t.RawSetString("Always", h.L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LBool(true))
		return 1
	}))

	t.RawSetString("Never", h.L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LBool(false))
		return 1
	}))

	t.RawSetString("Times", h.L.NewFunction(func(L *lua.LState) int {
		n := L.CheckInt(1)
		remaining := n
		L.Push(L.NewFunction(func(L *lua.LState) int {
			ok := remaining > 0
			if ok {
				remaining--
			}
			L.Push(lua.LBool(ok))
			return 1
		}))
		return 1
	}))

	h.L.SetGlobal("PREDICATE", t)
}
