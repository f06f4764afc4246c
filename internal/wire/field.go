// Package wire defines the Field/Table value types exchanged over the
// plugin RPC (spec.md §6) and consumed by the script sandbox. Field is
// a closed sum type at the host/script boundary: the sandbox converts
// into it once, and the renderer never touches raw wire values again
// (spec.md §9, "Dynamic values from scripts").
package wire

// Kind enumerates the Field sum type's active alternative. The zero
// value, KindNone, represents the wire "none" case, which the deep
// merge in internal/state treats as an explicit clear when it arrives
// as a cleanup-marker child (spec.md §4.2).
type Kind int

const (
	KindNone Kind = iota
	KindBool
	KindInt64
	KindFloat64
	KindString
	KindArray
	KindTable
	KindImage
)

// Image carries an encoded image blob with its declared format, one of
// the leaf primitives an event's field tree may bottom out in.
type Image struct {
	Format string
	Bytes  []byte
}

// Field is the recursive value type {string -> Field} described in
// spec.md §6. Exactly one of the typed members is meaningful,
// selected by Kind.
type Field struct {
	Kind Kind

	Bool    bool
	Int64   int64
	Float64 float64
	String  string
	Array   []Field
	Table   Table

	// Image holds the decoded image payload when Kind == KindImage.
	Image Image

	// ExplicitNone marks this field as a "strong_none": the producer
	// sent it with the cleanup-marker present but no value, meaning
	// "remove this key" rather than "key was never mentioned". See
	// spec.md §4.2 and §9 (open question on strong_none semantics).
	ExplicitNone bool
}

// Table is an unordered string-keyed map of Field values — one level
// of the recursive wire Table type.
type Table map[string]Field

// NewBool, NewInt64, NewFloat64, and NewString build leaf Fields.
func NewBool(b bool) Field       { return Field{Kind: KindBool, Bool: b} }
func NewInt64(i int64) Field     { return Field{Kind: KindInt64, Int64: i} }
func NewFloat64(f float64) Field { return Field{Kind: KindFloat64, Float64: f} }
func NewString(s string) Field   { return Field{Kind: KindString, String: s} }

// NewArray and NewTable build interior nodes.
func NewArray(items []Field) Field { return Field{Kind: KindArray, Array: items} }
func NewTable(t Table) Field       { return Field{Kind: KindTable, Table: t} }

// NewExplicitNone builds the sentinel used by producers to clear a
// sub-field explicitly, as opposed to simply omitting it.
func NewExplicitNone() Field { return Field{Kind: KindNone, ExplicitNone: true} }

// IsZero reports whether the Field is the unset zero value (as
// opposed to an explicit clear marker).
func (f Field) IsZero() bool { return f.Kind == KindNone && !f.ExplicitNone }
