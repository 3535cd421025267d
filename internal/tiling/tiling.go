// Package tiling maps projected coordinates onto the XYZ tiled map surface.
package tiling

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/wroge/wgs84"

	"github.com/mapgrid/usermarks/pkg/core"
)

// TileSize default tile edge in pixels
const TileSize = 256

// MinZoom is the lowest resolution tier annotations are indexed at.
const MinZoom = 1

// MaxSupportedZoom bounds configurable zoom ranges to what the XYZ scheme addresses.
const MaxSupportedZoom = 20

// ErrZoomRange is returned when a configured zoom range is outside [MinZoom, MaxSupportedZoom].
var ErrZoomRange = errors.New("zoom range out of bounds")

// TileKey identifies one tile of the map surface at one zoom level.
// Comparable; usable directly as a map key.
type TileKey struct {
	X    uint32
	Y    uint32
	Zoom int
}

// Less orders keys by zoom, then Y, then X.
func (k TileKey) Less(o TileKey) bool {
	if k.Zoom != o.Zoom {
		return k.Zoom < o.Zoom
	}
	if k.Y != o.Y {
		return k.Y < o.Y
	}
	return k.X < o.X
}

// String renders the key as z/x/y.
func (k TileKey) String() string {
	return fmt.Sprintf("%d/%d/%d", k.Zoom, k.X, k.Y)
}

// ParseTileKey parses a "z/x/y" string into a TileKey.
func ParseTileKey(s string) (TileKey, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return TileKey{}, fmt.Errorf("tile key %q is not z/x/y", s)
	}
	z, err := strconv.Atoi(parts[0])
	if err != nil {
		return TileKey{}, fmt.Errorf("tile key %q: bad zoom: %w", s, err)
	}
	if z < MinZoom || z > MaxSupportedZoom {
		return TileKey{}, fmt.Errorf("%w: zoom %d", ErrZoomRange, z)
	}
	x, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return TileKey{}, fmt.Errorf("tile key %q: bad x: %w", s, err)
	}
	y, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return TileKey{}, fmt.Errorf("tile key %q: bad y: %w", s, err)
	}
	return TileKey{X: uint32(x), Y: uint32(y), Zoom: z}, nil
}

// Scheme computes tile keys from projected coordinates. Implementations must
// be deterministic: the same point and zoom always map to the same key, and
// tiles at one zoom partition the surface with no gaps or overlaps.
type Scheme interface {
	TileFor(p core.Position2D, zoom int) TileKey
	MaxZoom() int
}

// Mercator tiles EPSG:3857 positions on the standard web-mercator XYZ grid.
type Mercator struct {
	maxZoom  int
	toLonLat func(x, y, z float64) (float64, float64, float64)
}

// NewMercator creates a Mercator scheme indexing zooms [MinZoom, maxZoom].
func NewMercator(maxZoom int) (*Mercator, error) {
	if maxZoom < MinZoom || maxZoom > MaxSupportedZoom {
		return nil, fmt.Errorf("%w: maxZoom %d not in [%d, %d]", ErrZoomRange, maxZoom, MinZoom, MaxSupportedZoom)
	}
	epsg := wgs84.EPSG()
	return &Mercator{
		maxZoom:  maxZoom,
		toLonLat: epsg.Transform(3857, 4326),
	}, nil
}

// TileFor returns the tile containing p at the given zoom. Zoom values outside
// the supported range are clamped rather than rejected; callers iterate
// [MinZoom, MaxZoom()] so this only matters for ad-hoc lookups.
func (m *Mercator) TileFor(p core.Position2D, zoom int) TileKey {
	if zoom < MinZoom {
		zoom = MinZoom
	} else if zoom > m.maxZoom {
		zoom = m.maxZoom
	}
	lon, lat, _ := m.toLonLat(p.X, p.Y, 0)
	t := maptile.At(orb.Point{lon, lat}, maptile.Zoom(zoom))
	return TileKey{X: t.X, Y: t.Y, Zoom: zoom}
}

// MaxZoom returns the highest indexed zoom level.
func (m *Mercator) MaxZoom() int {
	return m.maxZoom
}

// Bound returns the projected EPSG:3857 rectangle covered by the key.
func (m *Mercator) Bound(k TileKey) (min, max core.Position2D) {
	t := maptile.New(k.X, k.Y, maptile.Zoom(k.Zoom))
	b := t.Bound()
	fromLonLat := wgs84.EPSG().Transform(4326, 3857)
	minX, minY, _ := fromLonLat(b.Min[0], b.Min[1], 0)
	maxX, maxY, _ := fromLonLat(b.Max[0], b.Max[1], 0)
	return core.Position2D{X: minX, Y: minY}, core.Position2D{X: maxX, Y: maxY}
}
