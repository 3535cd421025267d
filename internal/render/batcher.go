package render

import (
	"github.com/mapgrid/usermarks/internal/tiling"
	"github.com/mapgrid/usermarks/pkg/core"
)

// webMercatorHalfExtent is half the EPSG:3857 world extent in meters.
const webMercatorHalfExtent = 20037508.342789244

// SymbolSize is the on-screen edge of a mark sprite in pixels.
const SymbolSize = 32

// Batcher is a basic Cacher that builds one textured quad per referenced
// mark, positioned in pixels relative to the requested tile's origin.
type Batcher struct{}

// NewBatcher creates a Batcher.
func NewBatcher() *Batcher {
	return &Batcher{}
}

// CacheMarks builds quad geometry for the marks named by indexes. Marks whose
// symbol is unknown to the provider contribute no geometry. All quads in one
// payload share the atlas page of the first resolved symbol; marks on other
// pages are dropped (single draw call per payload).
func (b *Batcher) CacheMarks(key tiling.TileKey, textures TextureProvider, marks core.MarkCollection, indexes []int) Data {
	data := Data{Tile: key, Page: -1}

	for _, idx := range indexes {
		if idx < 0 || idx >= len(marks) {
			continue
		}
		mark := marks[idx]

		region, ok := resolve(textures, mark.Symbol)
		if !ok {
			continue
		}
		if data.Page == -1 {
			data.Page = region.Page
		} else if region.Page != data.Page {
			continue
		}

		px, py := tilePixel(mark.Pivot, key)
		px += float32(mark.PixelOffset.X)
		py += float32(mark.PixelOffset.Y)

		half := float32(SymbolSize) / 2
		top := py - half
		bottom := py + half
		switch mark.Anchor {
		case core.AnchorBottom:
			top -= half
			bottom -= half
		case core.AnchorTop:
			top += half
			bottom += half
		}
		appendQuad(&data, px-half, top, px+half, bottom, region)
	}

	return data
}

func resolve(textures TextureProvider, symbol string) (TextureRegion, bool) {
	if textures == nil {
		return TextureRegion{}, false
	}
	return textures.Texture(symbol)
}

// tilePixel converts a projected position to pixels relative to the tile origin.
func tilePixel(p core.Position2D, key tiling.TileKey) (float32, float32) {
	worldPixels := float64(uint64(1)<<uint(key.Zoom)) * tiling.TileSize
	// EPSG:3857 Y grows north, pixel Y grows south.
	gx := (p.X + webMercatorHalfExtent) / (2 * webMercatorHalfExtent) * worldPixels
	gy := (webMercatorHalfExtent - p.Y) / (2 * webMercatorHalfExtent) * worldPixels
	return float32(gx - float64(key.X)*tiling.TileSize), float32(gy - float64(key.Y)*tiling.TileSize)
}

func appendQuad(data *Data, x0, y0, x1, y1 float32, r TextureRegion) {
	base := uint16(len(data.Vertices))
	data.Vertices = append(data.Vertices,
		Vertex{X: x0, Y: y0, U: r.U0, V: r.V0},
		Vertex{X: x1, Y: y0, U: r.U1, V: r.V0},
		Vertex{X: x1, Y: y1, U: r.U1, V: r.V1},
		Vertex{X: x0, Y: y1, U: r.U0, V: r.V1},
	)
	data.Indices = append(data.Indices, base, base+1, base+2, base, base+2, base+3)
}
