// Package state implements the script-visible state tree and its
// deep-merge update operator (spec.md §4.2), grounded in
// original_source's common/common.rs (proto_to_lua_value) and
// events/dispatcher.rs (which routes the same Application events this
// tree accumulates). The merge itself is kept independent of the
// script host so its invariants (spec.md §8) are directly testable.
package state

import (
	"sort"

	"github.com/samber/lo"

	"github.com/omniled/omniled/internal/wire"
)

// Tree is the sandbox-visible nested mapping rooted at the top-level
// application names (spec.md §3, "State tree").
type Tree struct {
	root wire.Table
}

// New returns an empty Tree.
func New() *Tree {
	return &Tree{root: wire.Table{}}
}

// Get returns the current value at a top-level name, or the zero
// Field if absent.
func (t *Tree) Get(name string) wire.Field {
	return t.root[name]
}

// Root exposes the tree's backing table for read-only iteration (used
// by script bindings that expose the whole environment).
func (t *Tree) Root() wire.Table { return t.root }

// Names returns every top-level application name currently present in
// the tree, sorted, for diagnostics (cmd/omniledctl's state inspector).
func (t *Tree) Names() []string {
	names := lo.Keys(t.root)
	sort.Strings(names)
	return names
}

// Assign applies an incoming Application event's fields to the
// top-level entry named after the event's source, per the assign
// recursion in spec.md §4.2:
//
//   - If value is a table (every incoming table is treated as carrying
//     the cleanup-marker), ensure parent[key] exists as a table and
//     recurse on every child; an ExplicitNone child deletes its key.
//   - Otherwise assign parent[key] = value outright (or delete it if
//     value is the explicit-None sentinel).
//
// Arrays are always leaves: assignment replaces them wholesale, never
// merges element-wise (spec.md §4.2, §9 open question — arrays never
// carry the cleanup marker in this implementation).
func (t *Tree) Assign(name string, value wire.Field) {
	assign(t.root, name, value)
}

func assign(parent wire.Table, key string, value wire.Field) {
	if value.Kind == wire.KindNone && value.ExplicitNone {
		delete(parent, key)
		return
	}

	if value.Kind == wire.KindTable {
		child, ok := parent[key]
		if !ok || child.Kind != wire.KindTable {
			child = wire.NewTable(wire.Table{})
			parent[key] = child
		}
		for k, v := range value.Table {
			assign(child.Table, k, v)
		}
		return
	}

	parent[key] = value
}
