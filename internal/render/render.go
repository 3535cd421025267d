// Package render defines the geometry payloads handed to the display frontend
// and the collaborator that materializes them per tile.
package render

import (
	"github.com/mapgrid/usermarks/internal/tiling"
	"github.com/mapgrid/usermarks/pkg/core"
)

// TextureRegion describes one sub-rectangle of a texture atlas page.
type TextureRegion struct {
	U0, V0 float32
	U1, V1 float32
	Page   int
}

// TextureProvider resolves symbol names to atlas regions. Providers are
// non-owning references: a provider passed into geometry generation is only
// valid for the duration of that call.
type TextureProvider interface {
	Texture(symbol string) (TextureRegion, bool)
}

// Vertex is one point of generated screen-space geometry.
type Vertex struct {
	X, Y float32 // position relative to the tile origin, in pixels
	U, V float32 // atlas coordinates
}

// Data is the opaque geometry payload produced for one (tile, group) pair.
// Ownership transfers to whoever receives it from the flush callback; the
// producer retains no reference after handoff.
type Data struct {
	Tile     tiling.TileKey
	Vertices []Vertex
	Indices  []uint16
	Page     int
}

// Empty reports whether the payload carries no geometry.
func (d Data) Empty() bool {
	return len(d.Vertices) == 0
}

// Cacher materializes draw data for the marks of one group present in one
// tile. indexes name positions in marks; out-of-range entries are skipped.
type Cacher interface {
	CacheMarks(key tiling.TileKey, textures TextureProvider, marks core.MarkCollection, indexes []int) Data
}
