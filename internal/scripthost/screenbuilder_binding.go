package scripthost

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/omniled/omniled/internal/renderer"
	"github.com/omniled/omniled/internal/scheduler"
)

// parseLayout converts a Lua {layout=fn, predicate=fn?, run_on={...}}
// table into a scheduler.Layout, wrapping the Lua callables so the
// scheduler can call them without knowing about Lua at all (spec.md
// §3, "Layout").
func (h *Host) parseLayout(t *lua.LTable) (scheduler.Layout, error) {
	layoutFn, ok := t.RawGetString("layout").(*lua.LFunction)
	if !ok {
		return scheduler.Layout{}, lua.RuntimeError("layout table is missing a 'layout' function")
	}

	runOnNames := stringArray(asTable(h.L, t, "run_on"))
	runOn := make(map[string]bool, len(runOnNames))
	for _, n := range runOnNames {
		runOn[n] = true
	}

	var predicate scheduler.Predicate
	if predFn, ok := t.RawGetString("predicate").(*lua.LFunction); ok {
		predicate = func() bool {
			L := h.L
			if err := L.CallByParam(lua.P{Fn: predFn, NRet: 1, Protect: true}); err != nil {
				log.Error("predicate failed", "err", err)
				return false
			}
			ret := L.Get(-1)
			L.Pop(1)
			return lua.LVAsBool(ret)
		}
	}

	run := func() renderer.LayoutData {
		L := h.L
		if err := L.CallByParam(lua.P{Fn: layoutFn, NRet: 1, Protect: true}); err != nil {
			log.Error("layout function failed", "err", err)
			return renderer.LayoutData{}
		}
		ret := L.Get(-1)
		L.Pop(1)

		data, ok := ret.(*lua.LTable)
		if !ok {
			log.Error("layout function must return a table with widgets/duration")
			return renderer.LayoutData{}
		}

		widgetsTable := asTable(L, data, "widgets")
		return renderer.LayoutData{
			Widgets:    widgetsFromTable(widgetsTable),
			DurationMS: optInt(data, "duration", 0),
		}
	}

	return scheduler.Layout{Run: run, Predicate: predicate, RunOn: runOn}, nil
}

// registerScreenBuilder exposes ScreenBuilder.new(name), returning a
// chainable table of with_layout/with_layout_group/
// with_layout_group_toggle/register methods, matching
// script_handler.rs's ScreenBuilder/ScreenBuilderImpl pair.
func (h *Host) registerScreenBuilder() {
	ctor := h.L.NewTable()
	ctor.RawSetString("new", h.L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		b, err := scheduler.NewScreenBuilder(h.Registry, h.Catalog, h.Shortcuts, h.Renderer, name)
		if err != nil {
			return raiseError(L, err)
		}
		L.Push(h.screenBuilderTable(b))
		return 1
	}))
	h.L.SetGlobal("ScreenBuilder", ctor)
}

func (h *Host) screenBuilderTable(b *scheduler.ScreenBuilder) *lua.LTable {
	t := h.L.NewTable()

	t.RawSetString("with_layout", h.L.NewFunction(func(L *lua.LState) int {
		layoutTbl := L.CheckTable(2)
		layout, err := h.parseLayout(layoutTbl)
		if err != nil {
			return raiseError(L, err)
		}
		if err := b.WithLayout(layout); err != nil {
			return raiseError(L, err)
		}
		L.Push(t)
		return 1
	}))

	t.RawSetString("with_layout_group", h.L.NewFunction(func(L *lua.LState) int {
		arr := L.CheckTable(2)
		layouts := make([]scheduler.Layout, 0, arr.Len())
		var parseErr error
		arr.ForEach(func(_, v lua.LValue) {
			if parseErr != nil {
				return
			}
			lt, ok := v.(*lua.LTable)
			if !ok {
				parseErr = lua.RuntimeError("with_layout_group expects an array of layout tables")
				return
			}
			layout, err := h.parseLayout(lt)
			if err != nil {
				parseErr = err
				return
			}
			layouts = append(layouts, layout)
		})
		if parseErr != nil {
			return raiseError(L, parseErr)
		}
		if err := b.WithLayoutGroup(layouts); err != nil {
			return raiseError(L, err)
		}
		L.Push(t)
		return 1
	}))

	t.RawSetString("with_layout_group_toggle", h.L.NewFunction(func(L *lua.LState) int {
		keys := stringArray(L.CheckTable(2))
		if err := b.WithLayoutGroupToggle(keys); err != nil {
			return raiseError(L, err)
		}
		L.Push(t)
		return 1
	}))

	t.RawSetString("register", h.L.NewFunction(func(L *lua.LState) int {
		if err := b.Register(); err != nil {
			return raiseError(L, err)
		}
		return 0
	}))

	return t
}
