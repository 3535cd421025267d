// Package index maintains the multi-resolution spatial index of user
// annotations and produces renderable geometry for requested tiles.
//
// The index is derived state: its sole source of truth is the per-group mark
// and line collections, and it is rebuilt for a group whenever that group's
// collection is replaced. All methods assume a single caller; the package
// performs no internal locking (see internal/worker for the serialization).
package index

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/mapgrid/usermarks/internal/render"
	"github.com/mapgrid/usermarks/internal/tiling"
	"github.com/mapgrid/usermarks/pkg/core"
)

// ErrNilFlush is returned by New when no flush callback is provided.
var ErrNilFlush = errors.New("flush callback must not be nil")

// ErrNilScheme is returned by New when no tiling scheme is provided.
var ErrNilScheme = errors.New("tiling scheme must not be nil")

// ErrNilCacher is returned by New when no geometry cacher is provided.
var ErrNilCacher = errors.New("geometry cacher must not be nil")

// FlushFn receives generated geometry. Ownership of data transfers to the
// callee; the generator keeps no reference after the call returns.
type FlushFn func(group core.GroupID, data render.Data)

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Entry names which of a group's marks and lines are present in one tile.
type Entry struct {
	Marks []int
	Lines []int
}

func (e *Entry) empty() bool {
	return len(e.Marks) == 0 && len(e.Lines) == 0
}

type groupEntries map[core.GroupID]*Entry

// Generator owns the annotation store, the visibility set and the spatial
// index, and emits geometry for requested tiles through the flush callback.
type Generator struct {
	scheme tiling.Scheme
	cacher render.Cacher
	flush  FlushFn
	log    Logger

	marks   map[core.GroupID]core.MarkCollection
	lines   map[core.GroupID]core.LineCollection
	visible map[core.GroupID]struct{}
	tiles   map[tiling.TileKey]groupEntries

	reindexed metric.Int64Counter
	flushed   metric.Int64Counter
}

// New creates a Generator. The flush callback, scheme and cacher are required;
// logger may be nil.
func New(scheme tiling.Scheme, cacher render.Cacher, flush FlushFn, log Logger) (*Generator, error) {
	if flush == nil {
		return nil, ErrNilFlush
	}
	if scheme == nil {
		return nil, ErrNilScheme
	}
	if cacher == nil {
		return nil, ErrNilCacher
	}

	g := &Generator{
		scheme:  scheme,
		cacher:  cacher,
		flush:   flush,
		log:     log,
		marks:   make(map[core.GroupID]core.MarkCollection),
		lines:   make(map[core.GroupID]core.LineCollection),
		visible: make(map[core.GroupID]struct{}),
		tiles:   make(map[tiling.TileKey]groupEntries),
	}

	m := meter()
	var err error

	g.reindexed, err = m.Int64Counter(
		"usermarks.index.reindexed",
		metric.WithDescription("Total group reindex passes"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating reindex counter: %w", err)
	}

	g.flushed, err = m.Int64Counter(
		"usermarks.geometry.flushed",
		metric.WithDescription("Total render data payloads flushed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating flush counter: %w", err)
	}

	return g, nil
}

// SetMarks replaces the group's mark collection and rebuilds the group's mark
// index across all zoom levels. Lines and visibility are untouched.
func (g *Generator) SetMarks(group core.GroupID, marks core.MarkCollection) {
	g.marks[group] = marks
	g.reindexMarks(group)
}

// SetLines replaces the group's line collection and rebuilds the group's line
// index across all zoom levels. Marks and visibility are untouched.
func (g *Generator) SetLines(group core.GroupID, lines core.LineCollection) {
	g.lines[group] = lines
	g.reindexLines(group)
}

// Clear removes the group's visibility flag and both collections, then purges
// the group from the index. Clearing an unknown group is a no-op.
func (g *Generator) Clear(group core.GroupID) {
	delete(g.visible, group)
	delete(g.marks, group)
	delete(g.lines, group)
	g.reindexMarks(group)
	g.reindexLines(group)
}

// SetVisibility marks the group eligible (or not) for geometry generation.
// The index itself is unaffected.
func (g *Generator) SetVisibility(group core.GroupID, visible bool) {
	if visible {
		g.visible[group] = struct{}{}
	} else {
		delete(g.visible, group)
	}
}

// IsVisible reports whether the group is currently eligible for generation.
func (g *Generator) IsVisible(group core.GroupID) bool {
	_, ok := g.visible[group]
	return ok
}

// IndexedTileCount returns the number of tiles currently holding index entries.
func (g *Generator) IndexedTileCount() int {
	return len(g.tiles)
}

// reindexMarks rebuilds the group's mark index: clear the group's mark lists
// everywhere, then re-add every mark at every zoom level, then compact.
func (g *Generator) reindexMarks(group core.GroupID) {
	for _, entries := range g.tiles {
		if e, ok := entries[group]; ok {
			e.Marks = e.Marks[:0]
		}
	}

	marks, ok := g.marks[group]
	if !ok {
		g.compact()
		return
	}

	for markIndex := range marks {
		for zoom := tiling.MinZoom; zoom <= g.scheme.MaxZoom(); zoom++ {
			key := g.scheme.TileFor(marks[markIndex].Pivot, zoom)
			e := g.entryFor(key, group)
			e.Marks = append(e.Marks, markIndex)
		}
	}

	g.compact()
	g.reindexed.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("kind", "marks")))
	if g.log != nil {
		g.log.Debug("reindexed marks", "group", int64(group), "marks", len(marks), "tiles", len(g.tiles))
	}
}

// reindexLines rebuilds the group's line index. A line is indexed under the
// distinct tiles containing its vertices, once per tile even if the line
// revisits one. Tiles a segment crosses between vertices are not covered;
// this vertex-only approximation is intentional and kept as-is.
func (g *Generator) reindexLines(group core.GroupID) {
	for _, entries := range g.tiles {
		if e, ok := entries[group]; ok {
			e.Lines = e.Lines[:0]
		}
	}

	lines, ok := g.lines[group]
	if !ok {
		g.compact()
		return
	}

	for lineIndex := range lines {
		for zoom := tiling.MinZoom; zoom <= g.scheme.MaxZoom(); zoom++ {
			touched := make(map[tiling.TileKey]struct{})
			for _, p := range lines[lineIndex].Points {
				touched[g.scheme.TileFor(p, zoom)] = struct{}{}
			}
			for key := range touched {
				e := g.entryFor(key, group)
				e.Lines = append(e.Lines, lineIndex)
			}
		}
	}

	g.compact()
	g.reindexed.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("kind", "lines")))
	if g.log != nil {
		g.log.Debug("reindexed lines", "group", int64(group), "lines", len(lines), "tiles", len(g.tiles))
	}
}

// entryFor returns the (tile, group) entry, creating it if needed.
func (g *Generator) entryFor(key tiling.TileKey, group core.GroupID) *Entry {
	entries, ok := g.tiles[key]
	if !ok {
		entries = make(groupEntries)
		g.tiles[key] = entries
	}

	e, ok := entries[group]
	if !ok {
		e = &Entry{}
		entries[group] = e
	}
	return e
}

// compact removes empty entries and tiles so that a key is present iff it
// still names at least one mark or line.
func (g *Generator) compact() {
	for key, entries := range g.tiles {
		for group, e := range entries {
			if e.empty() {
				delete(entries, group)
			}
		}
		if len(entries) == 0 {
			delete(g.tiles, key)
		}
	}
}

// Generate produces geometry for every visible group present in the tile and
// hands each payload to the flush callback, one payload per group, in group
// order. Unknown tiles and invisible groups produce nothing; neither is an
// error. textures is only borrowed for the duration of the call.
func (g *Generator) Generate(key tiling.TileKey, textures render.TextureProvider) {
	entries, ok := g.tiles[key]
	if !ok {
		return
	}

	groups := make([]core.GroupID, 0, len(entries))
	for group := range entries {
		groups = append(groups, group)
	}
	slices.Sort(groups)

	for _, group := range groups {
		if _, visible := g.visible[group]; !visible {
			continue
		}

		data := g.cacher.CacheMarks(key, textures, g.marks[group], entries[group].Marks)
		g.flush(group, data)
		g.flushed.Add(context.Background(), 1)
	}
}
