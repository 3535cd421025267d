// Package convert provides functions to convert GORM models to core models
package convert

import (
	"fmt"

	"github.com/mapgrid/usermarks/internal/geo"
	"github.com/mapgrid/usermarks/internal/model"
	"github.com/mapgrid/usermarks/pkg/core"
)

// MarkToCore converts a GORM MarkRecord to a core.Mark. A record with an
// empty pivot is corrupt and rejected.
func MarkToCore(m model.MarkRecord) (core.Mark, error) {
	pivot, err := geo.PositionFromPoint(m.Pivot)
	if err != nil {
		return core.Mark{}, fmt.Errorf("mark %d pivot: %w", m.Ordinal, err)
	}
	return core.Mark{
		Pivot:       pivot,
		Symbol:      m.Symbol,
		Anchor:      core.Anchor(m.Anchor),
		PixelOffset: core.Position2D{X: m.OffsetX, Y: m.OffsetY},
		Depth:       m.Depth,
		Priority:    m.Priority,
	}, nil
}

// LineToCore converts a GORM LineRecord to a core.Line.
func LineToCore(l model.LineRecord) (core.Line, error) {
	var points core.Polyline
	if len(l.Points) > 0 {
		parsed, err := geo.ParsePolylineToCore(string(l.Points))
		if err != nil {
			return core.Line{}, fmt.Errorf("decoding line %d points: %w", l.Ordinal, err)
		}
		points = parsed
	}
	return core.Line{
		Points: points,
		Color:  l.Color,
		Width:  l.Width,
		Depth:  l.Depth,
	}, nil
}

// GroupToCore converts a persisted AnnotationGroup into the collections the
// index core consumes. Marks and lines are ordered by Ordinal so persisted
// indexes stay stable across reloads.
func GroupToCore(g model.AnnotationGroup) (core.GroupID, core.MarkCollection, core.LineCollection, error) {
	marks := make(core.MarkCollection, len(g.Marks))
	for _, m := range g.Marks {
		if m.Ordinal < 0 || m.Ordinal >= len(marks) {
			return 0, nil, nil, fmt.Errorf("mark ordinal %d out of range for group %d", m.Ordinal, g.GroupID)
		}
		mark, err := MarkToCore(m)
		if err != nil {
			return 0, nil, nil, fmt.Errorf("group %d: %w", g.GroupID, err)
		}
		marks[m.Ordinal] = mark
	}

	lines := make(core.LineCollection, len(g.Lines))
	for _, l := range g.Lines {
		if l.Ordinal < 0 || l.Ordinal >= len(lines) {
			return 0, nil, nil, fmt.Errorf("line ordinal %d out of range for group %d", l.Ordinal, g.GroupID)
		}
		line, err := LineToCore(l)
		if err != nil {
			return 0, nil, nil, err
		}
		lines[l.Ordinal] = line
	}

	return core.GroupID(g.GroupID), marks, lines, nil
}
