package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapgrid/usermarks/internal/render"
	"github.com/mapgrid/usermarks/internal/tiling"
	"github.com/mapgrid/usermarks/pkg/core"
)

// gridScheme maps positions directly to tile coordinates so tests can place
// annotations in specific tiles without projection math.
type gridScheme struct {
	maxZoom int
}

func (s gridScheme) TileFor(p core.Position2D, zoom int) tiling.TileKey {
	if zoom < tiling.MinZoom {
		zoom = tiling.MinZoom
	} else if zoom > s.maxZoom {
		zoom = s.maxZoom
	}
	return tiling.TileKey{X: uint32(p.X), Y: uint32(p.Y), Zoom: zoom}
}

func (s gridScheme) MaxZoom() int { return s.maxZoom }

type cacheCall struct {
	key     tiling.TileKey
	indexes []int
}

type recordingCacher struct {
	calls []cacheCall
}

func (c *recordingCacher) CacheMarks(key tiling.TileKey, textures render.TextureProvider, marks core.MarkCollection, indexes []int) render.Data {
	c.calls = append(c.calls, cacheCall{key: key, indexes: append([]int(nil), indexes...)})
	return render.Data{Tile: key}
}

type flushRecorder struct {
	groups []core.GroupID
	data   []render.Data
}

func (f *flushRecorder) flush(group core.GroupID, data render.Data) {
	f.groups = append(f.groups, group)
	f.data = append(f.data, data)
}

func newTestGenerator(t *testing.T, maxZoom int) (*Generator, *recordingCacher, *flushRecorder) {
	t.Helper()
	cacher := &recordingCacher{}
	flusher := &flushRecorder{}
	gen, err := New(gridScheme{maxZoom: maxZoom}, cacher, flusher.flush, nil)
	require.NoError(t, err)
	return gen, cacher, flusher
}

func markAt(x, y float64) core.Mark {
	return core.Mark{Pivot: core.Position2D{X: x, Y: y}, Symbol: "pin"}
}

func TestNewRequiresCollaborators(t *testing.T) {
	cacher := &recordingCacher{}
	flusher := &flushRecorder{}
	scheme := gridScheme{maxZoom: 3}

	_, err := New(scheme, cacher, nil, nil)
	assert.ErrorIs(t, err, ErrNilFlush)

	_, err = New(nil, cacher, flusher.flush, nil)
	assert.ErrorIs(t, err, ErrNilScheme)

	_, err = New(scheme, nil, flusher.flush, nil)
	assert.ErrorIs(t, err, ErrNilCacher)

	gen, err := New(scheme, cacher, flusher.flush, nil)
	require.NoError(t, err)
	assert.NotNil(t, gen)
}

func TestSetMarksIndexesEveryZoom(t *testing.T) {
	gen, _, _ := newTestGenerator(t, 3)

	gen.SetMarks(7, core.MarkCollection{markAt(5, 5)})

	// one tile per zoom level 1..3
	assert.Equal(t, 3, gen.IndexedTileCount())
	for zoom := 1; zoom <= 3; zoom++ {
		entries, ok := gen.tiles[tiling.TileKey{X: 5, Y: 5, Zoom: zoom}]
		require.True(t, ok, "zoom %d missing", zoom)
		require.Contains(t, entries, core.GroupID(7))
		assert.Equal(t, []int{0}, entries[7].Marks)
	}
}

func TestSetMarksRebuildsFromScratch(t *testing.T) {
	gen, _, _ := newTestGenerator(t, 2)

	gen.SetMarks(1, core.MarkCollection{markAt(1, 1)})
	require.Equal(t, 2, gen.IndexedTileCount())

	gen.SetMarks(1, core.MarkCollection{markAt(9, 9)})

	assert.Equal(t, 2, gen.IndexedTileCount())
	_, stale := gen.tiles[tiling.TileKey{X: 1, Y: 1, Zoom: 1}]
	assert.False(t, stale, "old tile survived the rebuild")
	_, fresh := gen.tiles[tiling.TileKey{X: 9, Y: 9, Zoom: 1}]
	assert.True(t, fresh)
}

func TestEmptyCollectionCompactsAway(t *testing.T) {
	gen, _, _ := newTestGenerator(t, 2)

	gen.SetMarks(1, core.MarkCollection{markAt(1, 1)})
	require.Equal(t, 2, gen.IndexedTileCount())

	gen.SetMarks(1, core.MarkCollection{})
	assert.Equal(t, 0, gen.IndexedTileCount())
}

func TestLinesIndexDistinctVertexTiles(t *testing.T) {
	gen, _, _ := newTestGenerator(t, 1)

	// revisiting a tile must not duplicate the line's entry
	line := core.Line{Points: core.Polyline{
		{X: 1, Y: 1},
		{X: 2, Y: 2},
		{X: 1, Y: 1},
	}}
	gen.SetLines(3, core.LineCollection{line})

	assert.Equal(t, 2, gen.IndexedTileCount())
	entries := gen.tiles[tiling.TileKey{X: 1, Y: 1, Zoom: 1}]
	require.Contains(t, entries, core.GroupID(3))
	assert.Equal(t, []int{0}, entries[3].Lines)
}

func TestMarksAndLinesIndexedIndependently(t *testing.T) {
	gen, _, _ := newTestGenerator(t, 1)

	gen.SetMarks(1, core.MarkCollection{markAt(4, 4)})
	gen.SetLines(1, core.LineCollection{{Points: core.Polyline{{X: 4, Y: 4}, {X: 5, Y: 5}}}})

	entries := gen.tiles[tiling.TileKey{X: 4, Y: 4, Zoom: 1}]
	require.Contains(t, entries, core.GroupID(1))
	assert.Equal(t, []int{0}, entries[1].Marks)
	assert.Equal(t, []int{0}, entries[1].Lines)

	// replacing marks must leave the line index untouched
	gen.SetMarks(1, core.MarkCollection{})
	entries = gen.tiles[tiling.TileKey{X: 4, Y: 4, Zoom: 1}]
	require.Contains(t, entries, core.GroupID(1))
	assert.Empty(t, entries[1].Marks)
	assert.Equal(t, []int{0}, entries[1].Lines)
}

func TestClearRemovesGroupCompletely(t *testing.T) {
	gen, _, flusher := newTestGenerator(t, 2)

	gen.SetMarks(5, core.MarkCollection{markAt(1, 1)})
	gen.SetLines(5, core.LineCollection{{Points: core.Polyline{{X: 2, Y: 2}, {X: 3, Y: 3}}}})
	gen.SetVisibility(5, true)
	require.NotZero(t, gen.IndexedTileCount())

	gen.Clear(5)

	assert.Equal(t, 0, gen.IndexedTileCount())
	assert.False(t, gen.IsVisible(5))

	gen.Generate(tiling.TileKey{X: 1, Y: 1, Zoom: 1}, nil)
	assert.Empty(t, flusher.groups)
}

func TestClearUnknownGroupIsNoop(t *testing.T) {
	gen, _, _ := newTestGenerator(t, 2)

	gen.SetMarks(1, core.MarkCollection{markAt(1, 1)})
	before := gen.IndexedTileCount()

	gen.Clear(99)
	assert.Equal(t, before, gen.IndexedTileCount())
}

func TestVisibilityGatesGenerationOnly(t *testing.T) {
	gen, _, flusher := newTestGenerator(t, 1)
	key := tiling.TileKey{X: 1, Y: 1, Zoom: 1}

	gen.SetMarks(2, core.MarkCollection{markAt(1, 1)})
	require.Equal(t, 1, gen.IndexedTileCount())

	// invisible groups stay indexed but emit nothing
	gen.Generate(key, nil)
	assert.Empty(t, flusher.groups)

	gen.SetVisibility(2, true)
	gen.Generate(key, nil)
	require.Len(t, flusher.groups, 1)
	assert.Equal(t, core.GroupID(2), flusher.groups[0])
	assert.Equal(t, key, flusher.data[0].Tile)

	gen.SetVisibility(2, false)
	gen.Generate(key, nil)
	assert.Len(t, flusher.groups, 1)
	assert.Equal(t, 1, gen.IndexedTileCount())
}

func TestGenerateUnknownTile(t *testing.T) {
	gen, cacher, flusher := newTestGenerator(t, 1)

	gen.SetMarks(1, core.MarkCollection{markAt(1, 1)})
	gen.SetVisibility(1, true)

	gen.Generate(tiling.TileKey{X: 50, Y: 50, Zoom: 1}, nil)
	assert.Empty(t, cacher.calls)
	assert.Empty(t, flusher.groups)
}

func TestGenerateEmitsGroupsInOrder(t *testing.T) {
	gen, _, flusher := newTestGenerator(t, 1)
	key := tiling.TileKey{X: 3, Y: 3, Zoom: 1}

	// register in reverse to make the ordering observable
	gen.SetMarks(9, core.MarkCollection{markAt(3, 3)})
	gen.SetMarks(2, core.MarkCollection{markAt(3, 3)})
	gen.SetMarks(5, core.MarkCollection{markAt(3, 3)})
	for _, g := range []core.GroupID{9, 2, 5} {
		gen.SetVisibility(g, true)
	}

	gen.Generate(key, nil)
	assert.Equal(t, []core.GroupID{2, 5, 9}, flusher.groups)
}

func TestGenerateOnePayloadPerGroup(t *testing.T) {
	gen, cacher, flusher := newTestGenerator(t, 1)
	key := tiling.TileKey{X: 1, Y: 1, Zoom: 1}

	gen.SetMarks(4, core.MarkCollection{markAt(1, 1), markAt(1, 1), markAt(1, 1)})
	gen.SetVisibility(4, true)

	gen.Generate(key, nil)
	require.Len(t, flusher.groups, 1)
	require.Len(t, cacher.calls, 1)
	assert.Equal(t, []int{0, 1, 2}, cacher.calls[0].indexes)
}

func TestLineOnlyGroupStillEmits(t *testing.T) {
	gen, cacher, flusher := newTestGenerator(t, 1)
	key := tiling.TileKey{X: 6, Y: 6, Zoom: 1}

	gen.SetLines(1, core.LineCollection{{Points: core.Polyline{{X: 6, Y: 6}, {X: 7, Y: 7}}}})
	gen.SetVisibility(1, true)

	gen.Generate(key, nil)
	require.Len(t, flusher.groups, 1)
	require.Len(t, cacher.calls, 1)
	assert.Empty(t, cacher.calls[0].indexes)
}

func TestMultipleGroupsShareTile(t *testing.T) {
	gen, _, flusher := newTestGenerator(t, 1)
	key := tiling.TileKey{X: 2, Y: 2, Zoom: 1}

	gen.SetMarks(1, core.MarkCollection{markAt(2, 2)})
	gen.SetMarks(2, core.MarkCollection{markAt(2, 2)})
	gen.SetVisibility(1, true)
	// group 2 stays invisible

	gen.Generate(key, nil)
	assert.Equal(t, []core.GroupID{1}, flusher.groups)

	// clearing group 1 must not disturb group 2's entries
	gen.Clear(1)
	assert.Equal(t, 1, gen.IndexedTileCount())
	entries := gen.tiles[key]
	assert.Contains(t, entries, core.GroupID(2))
	assert.NotContains(t, entries, core.GroupID(1))
}
