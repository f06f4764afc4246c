package scripthost

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/omniled/omniled/internal/wire"
)

// toLua converts a dispatcher-produced handler value (spec.md §4.1's
// fieldToScalar result: bool/int64/float64/string/[]wire.Field/
// wire.Table/wire.Image/nil) into the equivalent Lua value, the
// inverse of original_source's common.rs proto_to_lua_value.
func toLua(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case int64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []wire.Field:
		t := L.NewTable()
		for i, item := range val {
			t.RawSetInt(i+1, toLua(L, fieldToAny(item)))
		}
		return t
	case wire.Table:
		t := L.NewTable()
		for k, item := range val {
			t.RawSetString(k, toLua(L, fieldToAny(item)))
		}
		return t
	case wire.Image:
		t := L.NewTable()
		t.RawSetString("format", lua.LString(val.Format))
		bytesTable := L.NewTable()
		for i, b := range val.Bytes {
			bytesTable.RawSetInt(i+1, lua.LNumber(b))
		}
		t.RawSetString("bytes", bytesTable)
		return t
	default:
		return lua.LNil
	}
}

// fieldToAny mirrors dispatcher's fieldToScalar so nested array/table
// values (which still carry wire.Field leaves) convert recursively.
func fieldToAny(f wire.Field) any {
	switch f.Kind {
	case wire.KindBool:
		return f.Bool
	case wire.KindInt64:
		return f.Int64
	case wire.KindFloat64:
		return f.Float64
	case wire.KindString:
		return f.String
	case wire.KindArray:
		return f.Array
	case wire.KindTable:
		return f.Table
	case wire.KindImage:
		return f.Image
	default:
		return nil
	}
}

// luaToString is a small helper for optional string table fields.
func luaToString(v lua.LValue) (string, bool) {
	s, ok := v.(lua.LString)
	return string(s), ok
}

// optInt reads an optional integer field from a table, returning def
// if absent.
func optInt(t *lua.LTable, key string, def int) int {
	v := t.RawGetString(key)
	if n, ok := v.(lua.LNumber); ok {
		return int(n)
	}
	return def
}

// optFloat reads an optional float field from a table, returning def
// if absent.
func optFloat(t *lua.LTable, key string, def float64) float64 {
	v := t.RawGetString(key)
	if n, ok := v.(lua.LNumber); ok {
		return float64(n)
	}
	return def
}

// optBool reads an optional boolean field from a table, returning def
// if absent.
func optBool(t *lua.LTable, key string, def bool) bool {
	v := t.RawGetString(key)
	if b, ok := v.(lua.LBool); ok {
		return bool(b)
	}
	return def
}

// optString reads an optional string field from a table, returning def
// if absent.
func optString(t *lua.LTable, key string, def string) string {
	v := t.RawGetString(key)
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return def
}

// stringArray converts a Lua array table of strings into a []string.
func stringArray(t *lua.LTable) []string {
	out := make([]string, 0, t.Len())
	t.ForEach(func(_, v lua.LValue) {
		if s, ok := luaToString(v); ok {
			out = append(out, s)
		}
	})
	return out
}
