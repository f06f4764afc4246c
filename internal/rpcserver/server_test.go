package rpcserver

import (
	"testing"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/omniled/omniled/internal/state"
	"github.com/omniled/omniled/internal/wire"
)

// TestStructValueToFieldExplicitNone covers spec.md §9's "strong_none"
// wire signal end to end: a present google.protobuf.NullValue (as
// opposed to the key being absent from the Struct's Fields map
// entirely) must convert to wire.Field{Kind: KindNone, ExplicitNone:
// true}, and feeding that straight into internal/state's deep-merge
// must delete the key rather than overwrite it with a blank value —
// spec.md §8 scenario 4 ("Deep clear") exercised across the real
// plugin-facing conversion path, not just the state-tree test's
// hand-built sentinel.
func TestStructValueToFieldExplicitNone(t *testing.T) {
	field := structValueToField(structpb.NewNullValue())

	if field.Kind != wire.KindNone || !field.ExplicitNone {
		t.Fatalf("expected an explicit-none Field, got %+v", field)
	}

	tree := state.New()
	tree.Assign("A", wire.NewTable(wire.Table{
		"b": wire.NewTable(wire.Table{"c": wire.NewInt64(1), "d": wire.NewInt64(2)}),
	}))

	tree.Assign("A", wire.NewTable(wire.Table{
		"b": wire.NewTable(wire.Table{"c": field}),
	}))

	b := tree.Get("A").Table["b"]
	if _, stillPresent := b.Table["c"]; stillPresent {
		t.Fatalf("expected explicit-none to delete key c, got %+v", b.Table)
	}
	if got := b.Table["d"]; got.Int64 != 2 {
		t.Fatalf("expected unmentioned key d to survive the merge, got %+v", got)
	}
}

func TestStructValueToFieldScalarsAndNesting(t *testing.T) {
	s, err := structpb.NewStruct(map[string]any{
		"hours":   float64(10),
		"enabled": true,
		"label":   "clock",
		"nested":  map[string]any{"x": float64(1)},
		"items":   []any{float64(1), float64(2)},
	})
	if err != nil {
		t.Fatalf("unexpected error building struct: %v", err)
	}

	got := make(wire.Table, len(s.Fields))
	for k, v := range s.Fields {
		got[k] = structValueToField(v)
	}

	if got["hours"].Kind != wire.KindFloat64 || got["hours"].Float64 != 10 {
		t.Fatalf("expected hours=10 float, got %+v", got["hours"])
	}
	if got["enabled"].Kind != wire.KindBool || !got["enabled"].Bool {
		t.Fatalf("expected enabled=true bool, got %+v", got["enabled"])
	}
	if got["label"].Kind != wire.KindString || got["label"].String != "clock" {
		t.Fatalf("expected label=clock string, got %+v", got["label"])
	}
	if got["nested"].Kind != wire.KindTable || got["nested"].Table["x"].Float64 != 1 {
		t.Fatalf("expected nested table with x=1, got %+v", got["nested"])
	}
	if got["items"].Kind != wire.KindArray || len(got["items"].Array) != 2 {
		t.Fatalf("expected a 2-element array, got %+v", got["items"])
	}
}

func TestIdentifierPatternValidation(t *testing.T) {
	valid := []string{"CLOCK", "AUDIO_VOLUME", "_PRIVATE", "A1"}
	for _, name := range valid {
		if !identifierPattern.MatchString(name) {
			t.Errorf("expected %q to match the identifier pattern", name)
		}
	}

	invalid := []string{"", "clock", "1CLOCK", "CLOCK-NAME", "CLOCK.HOURS"}
	for _, name := range invalid {
		if identifierPattern.MatchString(name) {
			t.Errorf("expected %q to be rejected by the identifier pattern", name)
		}
	}
}
