package core

// GroupID identifies one logical layer of user annotations, e.g. a bookmark
// category. IDs are assigned by the host and are opaque to this module.
type GroupID int64

// Position2D represents a projected EPSG:3857 coordinate without GIS dependencies
type Position2D struct {
	X float64 `json:"x"` // easting
	Y float64 `json:"y"` // northing
}

// Polyline is an ordered sequence of projected coordinates.
type Polyline []Position2D

// Anchor describes how a mark's symbol is attached to its pivot.
type Anchor uint8

const (
	AnchorCenter Anchor = iota
	AnchorBottom
	AnchorTop
)
