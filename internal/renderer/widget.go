package renderer

// FontSizeMode selects how Text derives its rendered font size
// (spec.md §3).
type FontSizeMode int

const (
	FontSizeExplicit FontSizeMode = iota
	FontSizeAutoFull
	FontSizeAutoUpper
)

// Range clamps a Bar's value (spec.md §3).
type Range struct {
	Min, Max float64
}

// Bar is the fill-fraction widget (spec.md §3).
type Bar struct {
	Value     float64
	Range     Range
	Vertical  bool
	Position  Point
	Size      Size
	Modifiers Modifiers
}

// DecodedImage is a cache-resolved, already thresholded frame sequence
// backing an Image widget (spec.md §3, "Image entry"); produced by
// internal/renderer's image cache.
type DecodedImage struct {
	Size   Size
	Frames []*Buffer // one bit-buffer per frame; len==1 for a static image
}

// Image is the animated-or-static picture widget (spec.md §3).
type Image struct {
	ImageRef       DecodedImage
	Animated       bool
	Threshold      uint8
	Repeats        Repeat
	AnimationGroup string // optional explicit key; falls back to a widget hash
	Delay          int    // optional edge_step_time override
	Rate           int    // optional step_time override
	Position       Point
	Size           Size
	Modifiers      Modifiers
}

// Text is the glyph-layout widget (spec.md §3).
type Text struct {
	Text           string
	FontSize       int // 0 means "derive automatically"
	FontSizeMode   FontSizeMode
	Scrolling      bool
	Repeats        Repeat
	AnimationGroup string
	Delay          int
	Rate           int
	Position       Point
	Size           Size
	Hash           uint64
	Modifiers      Modifiers
}

// WidgetKind discriminates the Widget sum type.
type WidgetKind int

const (
	WidgetBar WidgetKind = iota
	WidgetImage
	WidgetText
)

// Widget is the sum type rendered in order by Renderer.Render
// (spec.md §3).
type Widget struct {
	Kind  WidgetKind
	Bar   Bar
	Image Image
	Text  Text
}

// LayoutData is what a script layout function returns each time it is
// invoked by the scheduler (spec.md §3).
type LayoutData struct {
	Widgets    []Widget
	DurationMS int
}
