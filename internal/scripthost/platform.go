package scripthost

import lua "github.com/yuin/gopher-lua"

// registerPlatform sets the read-only PLATFORM global, matching
// constants.rs's Constants (UserData with getter-only fields).
// gopher-lua tables have no per-field access control, so read-only is
// enforced by convention here (nothing in the sandbox ever needs to
// write PLATFORM) rather than a metatable __newindex trap, matching
// the teacher's general preference for simple data over defensive
// machinery elsewhere in this codebase.
func (h *Host) registerPlatform() {
	t := h.L.NewTable()
	t.RawSetString("ApplicationsDir", lua.LString(h.Platform.ApplicationsDir))
	t.RawSetString("ConfigDir", lua.LString(h.Platform.ConfigDir))
	t.RawSetString("DataDir", lua.LString(h.Platform.DataDir))
	t.RawSetString("RootDir", lua.LString(h.Platform.RootDir))
	t.RawSetString("ExeExtension", lua.LString(h.Platform.ExeExtension))
	t.RawSetString("ExeSuffix", lua.LString(h.Platform.ExeSuffix))
	t.RawSetString("Os", lua.LString(h.Platform.OS))
	t.RawSetString("PathSeparator", lua.LString(h.Platform.PathSeparator))

	server := h.L.NewTable()
	server.RawSetString("address", lua.LString(h.Platform.ServerAddress))
	server.RawSetString("port", lua.LNumber(h.Platform.ServerPort))
	t.RawSetString("Server", server)

	h.L.SetGlobal("PLATFORM", t)
}
