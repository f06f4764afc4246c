package state

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/omniled/omniled/internal/wire"
)

// TestDeepClear reproduces spec.md §8 scenario 4: state initially
// A={b={c=1, d=2}}; Application{"A", {b:{c:None}}} with the
// cleanup-marker arrives; expected post-state A={b={d=2}}.
func TestDeepClear(t *testing.T) {
	tree := New()
	tree.Assign("A", wire.NewTable(wire.Table{
		"b": wire.NewTable(wire.Table{
			"c": wire.NewInt64(1),
			"d": wire.NewInt64(2),
		}),
	}))

	tree.Assign("A", wire.NewTable(wire.Table{
		"b": wire.NewTable(wire.Table{
			"c": wire.NewExplicitNone(),
		}),
	}))

	a := tree.Get("A")
	assert.Equal(t, wire.KindTable, a.Kind)
	b := a.Table["b"]
	assert.Equal(t, wire.KindTable, b.Kind)
	_, hasC := b.Table["c"]
	assert.False(t, hasC)
	assert.Equal(t, int64(2), b.Table["d"].Int64)
}

// TestPartialUpdateLeavesUnmentionedKeysAlone exercises the general
// deep-merge invariant from spec.md §8: keys not mentioned in the
// update retain their prior value.
func TestPartialUpdateLeavesUnmentionedKeysAlone(t *testing.T) {
	tree := New()
	tree.Assign("CLOCK", wire.NewTable(wire.Table{
		"hours":   wire.NewInt64(10),
		"minutes": wire.NewInt64(30),
	}))

	tree.Assign("CLOCK", wire.NewTable(wire.Table{
		"minutes": wire.NewInt64(31),
	}))

	clock := tree.Get("CLOCK")
	assert.Equal(t, int64(10), clock.Table["hours"].Int64)
	assert.Equal(t, int64(31), clock.Table["minutes"].Int64)
}

// TestArraysReplaceWholesale confirms arrays are leaves, never merged
// element-wise (spec.md §4.2, §9).
func TestArraysReplaceWholesale(t *testing.T) {
	tree := New()
	tree.Assign("A", wire.NewTable(wire.Table{
		"items": wire.NewArray([]wire.Field{wire.NewInt64(1), wire.NewInt64(2), wire.NewInt64(3)}),
	}))
	tree.Assign("A", wire.NewTable(wire.Table{
		"items": wire.NewArray([]wire.Field{wire.NewInt64(9)}),
	}))

	items := tree.Get("A").Table["items"].Array
	assert.Len(t, items, 1)
	assert.Equal(t, int64(9), items[0].Int64)
}
