package scripthost

import (
	"github.com/omniled/omniled/internal/wire"
)

// registerState seeds the STATE global layouts read from, grounded in
// common.rs's proto_to_lua_value and the tree it feeds (spec.md §3
// "State tree", §4.2 "Scripted state and deep-merge"). original_source
// exposes the accumulated tree as part of the globals available to a
// layout closure rather than as a function argument; STATE reproduces
// that by being rebuilt in place every time an Application event is
// merged in, so a layout simply reads STATE.foo.bar like any other
// table.
func (h *Host) registerState() {
	h.L.SetGlobal("STATE", h.L.NewTable())
}

// syncState rebuilds the STATE global from the tree's current root
// after HandleEvent has merged in an Application event.
func (h *Host) syncState() {
	h.L.SetGlobal("STATE", toLua(h.L, wire.Table(h.state.Root())))
}
