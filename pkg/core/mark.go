package core

// Mark is a render-ready point annotation. Pivot is the only field the index
// interprets; everything else is carried through to geometry generation.
type Mark struct {
	Pivot       Position2D `json:"pivot"`
	Symbol      string     `json:"symbol"`
	Anchor      Anchor     `json:"anchor"`
	PixelOffset Position2D `json:"pixelOffset"`
	Depth       float32    `json:"depth"`
	Priority    uint16     `json:"priority"`
}

// Line is a render-ready polyline annotation.
type Line struct {
	Points Polyline `json:"points"`
	Color  uint32   `json:"color"` // packed RGBA
	Width  float32  `json:"width"`
	Depth  float32  `json:"depth"`
}

// MarkCollection is a group's current set of marks. A mark is identified by
// its position in the slice; replacing the slice invalidates prior indexes.
type MarkCollection []Mark

// LineCollection is a group's current set of lines, identified by position.
type LineCollection []Line
