package geo

import (
	"errors"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"

	"github.com/mapgrid/usermarks/pkg/core"
)

// GEO POINTS
// Positions are always stored as EPSG:3857, matching the projected space the
// tiling scheme expects. Geometry persisted through the storage backends is
// kept in WKB, so the simplefeatures types can round-trip it with their
// inherent Scan/Value support.

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// Position3857From4326 projects a longitude/latitude pair into EPSG:3857.
func Position3857From4326(longitude, latitude float64) core.Position2D {
	epsg := wgs84.EPSG()
	f := epsg.Transform(4326, 3857)
	x, y, _ := f(longitude, latitude, 0)
	return core.Position2D{X: x, Y: y}
}

// PointFromPosition converts a core.Position2D to a simplefeatures point for
// storage as WKB.
func PointFromPosition(p core.Position2D) geom.Point {
	return geom.NewPoint(
		geom.Coordinates{
			XY:   geom.XY{X: p.X, Y: p.Y},
			Type: geom.DimXY,
		},
	)
}

// PositionFromPoint converts a simplefeatures point back to a core.Position2D.
// Empty points are invalid; a mark always has a pivot.
func PositionFromPoint(pt geom.Point) (core.Position2D, error) {
	coords, ok := pt.Coordinates()
	if !ok {
		return core.Position2D{}, ErrInvalidCoordinates
	}
	return core.Position2D{X: coords.XY.X, Y: coords.XY.Y}, nil
}
