package apploader

import lua "github.com/yuin/gopher-lua"

// openSandboxLibs opens the same curated library subset as
// internal/scripthost.New and internal/config's sandboxes (spec.md
// §4.6).
func openSandboxLibs(L *lua.LState) {
	for _, pair := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		if err := L.CallByParam(lua.P{Fn: L.NewFunction(pair.fn), NRet: 0, Protect: true}, lua.LString(pair.name)); err != nil {
			log.Error("failed to open sandbox library", "lib", pair.name, "err", err)
		}
	}
}

func registerPlatform(L *lua.LState, p Platform) {
	t := L.NewTable()
	t.RawSetString("ApplicationsDir", lua.LString(p.ApplicationsDir))
	t.RawSetString("ConfigDir", lua.LString(p.ConfigDir))
	t.RawSetString("DataDir", lua.LString(p.DataDir))
	t.RawSetString("RootDir", lua.LString(p.RootDir))
	t.RawSetString("ExeExtension", lua.LString(p.ExeExtension))
	t.RawSetString("ExeSuffix", lua.LString(p.ExeSuffix))
	t.RawSetString("Os", lua.LString(p.OS))
	t.RawSetString("PathSeparator", lua.LString(p.PathSeparator))

	server := L.NewTable()
	server.RawSetString("address", lua.LString(p.ServerAddress))
	server.RawSetString("port", lua.LNumber(p.ServerPort))
	t.RawSetString("Server", server)

	L.SetGlobal("PLATFORM", t)
}

func registerLog(L *lua.LState) {
	t := L.NewTable()
	for _, lvl := range []struct {
		name string
		fn   func(msg any, keyvals ...any)
	}{
		{"Error", log.Error},
		{"Warn", log.Warn},
		{"Info", log.Info},
		{"Debug", log.Debug},
	} {
		fn := lvl.fn
		t.RawSetString(lvl.name, L.NewFunction(func(L *lua.LState) int {
			fn(L.CheckString(1))
			return 0
		}))
	}
	L.SetGlobal("LOG", t)
}

func optString(t *lua.LTable, key string, def string) string {
	if s, ok := t.RawGetString(key).(lua.LString); ok {
		return string(s)
	}
	return def
}

func asSubTable(L *lua.LState, t *lua.LTable, key string) *lua.LTable {
	if sub, ok := t.RawGetString(key).(*lua.LTable); ok {
		return sub
	}
	return L.NewTable()
}

func stringArray(t *lua.LTable) []string {
	out := make([]string, 0, t.Len())
	t.ForEach(func(_, v lua.LValue) {
		if s, ok := v.(lua.LString); ok {
			out = append(out, string(s))
		}
	})
	return out
}
