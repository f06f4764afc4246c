package config

import lua "github.com/yuin/gopher-lua"

// PlatformConstants is the subset of scripthost.Platform needed before
// the scripts document (and hence the full Host) exists: settings.lua
// and devices.lua both see a PLATFORM table while they're evaluated,
// grounded in constants.rs's Constants being available to every
// config document, not just scripts (spec.md §6).
type PlatformConstants struct {
	ApplicationsDir string
	ConfigDir       string
	DataDir         string
	RootDir         string
	ExeExtension    string
	ExeSuffix       string
	OS              string
	PathSeparator   string
}

// openSandboxLibs opens the same curated library subset as
// internal/scripthost.New: base/table/string/math, nothing that
// touches the filesystem or the process (spec.md §4.6).
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

func registerPlatformConstants(L *lua.LState, p PlatformConstants) {
	t := L.NewTable()
	t.RawSetString("ApplicationsDir", lua.LString(p.ApplicationsDir))
	t.RawSetString("ConfigDir", lua.LString(p.ConfigDir))
	t.RawSetString("DataDir", lua.LString(p.DataDir))
	t.RawSetString("RootDir", lua.LString(p.RootDir))
	t.RawSetString("ExeExtension", lua.LString(p.ExeExtension))
	t.RawSetString("ExeSuffix", lua.LString(p.ExeSuffix))
	t.RawSetString("Os", lua.LString(p.OS))
	t.RawSetString("PathSeparator", lua.LString(p.PathSeparator))
	L.SetGlobal("PLATFORM", t)
}

func registerLog(L *lua.LState) {
	t := L.NewTable()
	for _, lvl := range []struct {
		name string
		fn   func(msg interface{}, keyvals ...interface{})
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

func optInt(t *lua.LTable, key string, def int) int {
	if n, ok := t.RawGetString(key).(lua.LNumber); ok {
		return int(n)
	}
	return def
}

func optString(t *lua.LTable, key string, def string) string {
	if s, ok := t.RawGetString(key).(lua.LString); ok {
		return string(s)
	}
	return def
}

func optBool(t *lua.LTable, key string, def bool) bool {
	if b, ok := t.RawGetString(key).(lua.LBool); ok {
		return bool(b)
	}
	return def
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
