package convert

import (
	"encoding/json"
	"fmt"

	"github.com/mapgrid/usermarks/internal/geo"
	"github.com/mapgrid/usermarks/internal/model"
	"github.com/mapgrid/usermarks/pkg/core"
)

// MarkToGorm converts a core.Mark to a GORM MarkRecord at the given ordinal.
func MarkToGorm(m core.Mark, ordinal int) model.MarkRecord {
	return model.MarkRecord{
		Ordinal:  ordinal,
		Pivot:    geo.PointFromPosition(m.Pivot),
		Symbol:   m.Symbol,
		Anchor:   uint8(m.Anchor),
		OffsetX:  m.PixelOffset.X,
		OffsetY:  m.PixelOffset.Y,
		Depth:    m.Depth,
		Priority: m.Priority,
	}
}

// LineToGorm converts a core.Line to a GORM LineRecord at the given ordinal.
func LineToGorm(l core.Line, ordinal int) (model.LineRecord, error) {
	coords := make([][]float64, len(l.Points))
	for i, p := range l.Points {
		coords[i] = []float64{p.X, p.Y}
	}
	payload, err := json.Marshal(coords)
	if err != nil {
		return model.LineRecord{}, fmt.Errorf("encoding line %d points: %w", ordinal, err)
	}
	return model.LineRecord{
		Ordinal: ordinal,
		Points:  payload,
		Color:   l.Color,
		Width:   l.Width,
		Depth:   l.Depth,
	}, nil
}

// GroupToGorm assembles a persistable AnnotationGroup from core collections.
func GroupToGorm(id core.GroupID, name string, visible bool, marks core.MarkCollection, lines core.LineCollection) (model.AnnotationGroup, error) {
	g := model.AnnotationGroup{
		GroupID: int64(id),
		Name:    name,
		Visible: visible,
	}

	g.Marks = make([]model.MarkRecord, 0, len(marks))
	for i, m := range marks {
		g.Marks = append(g.Marks, MarkToGorm(m, i))
	}

	g.Lines = make([]model.LineRecord, 0, len(lines))
	for i, l := range lines {
		rec, err := LineToGorm(l, i)
		if err != nil {
			return model.AnnotationGroup{}, err
		}
		g.Lines = append(g.Lines, rec)
	}

	return g, nil
}
