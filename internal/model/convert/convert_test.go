package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapgrid/usermarks/internal/model"
	"github.com/mapgrid/usermarks/pkg/core"
)

func TestGroupRoundtrip(t *testing.T) {
	marks := core.MarkCollection{
		{
			Pivot:       core.Position2D{X: 1490000, Y: 6890000},
			Symbol:      "pin",
			Anchor:      core.AnchorBottom,
			PixelOffset: core.Position2D{X: 4, Y: -2},
			Depth:       0.5,
			Priority:    12,
		},
		{
			Pivot:  core.Position2D{X: -300000, Y: 250000},
			Symbol: "star",
		},
	}
	lines := core.LineCollection{
		{
			Points: core.Polyline{{X: 0, Y: 0}, {X: 100, Y: 100}, {X: 200, Y: 50}},
			Color:  0xFF00FF00,
			Width:  3.5,
			Depth:  1.25,
		},
	}

	rec, err := GroupToGorm(7, "bookmarks", true, marks, lines)
	require.NoError(t, err)
	assert.Equal(t, int64(7), rec.GroupID)
	assert.Equal(t, "bookmarks", rec.Name)
	assert.True(t, rec.Visible)
	require.Len(t, rec.Marks, 2)
	require.Len(t, rec.Lines, 1)

	id, gotMarks, gotLines, err := GroupToCore(rec)
	require.NoError(t, err)
	assert.Equal(t, core.GroupID(7), id)
	assert.Equal(t, marks, gotMarks)
	assert.Equal(t, lines, gotLines)
}

func TestGroupToCoreOrdersByOrdinal(t *testing.T) {
	// persisted rows may come back in any order; ordinals restore it
	g := model.AnnotationGroup{GroupID: 1, Name: "g"}
	for _, ordinal := range []int{2, 0, 1} {
		g.Marks = append(g.Marks, MarkToGorm(core.Mark{
			Pivot:  core.Position2D{X: float64(ordinal), Y: 0},
			Symbol: "pin",
		}, ordinal))
	}

	_, marks, _, err := GroupToCore(g)
	require.NoError(t, err)
	require.Len(t, marks, 3)
	for i, m := range marks {
		assert.Equal(t, float64(i), m.Pivot.X)
	}
}

func TestGroupToCoreRejectsBadOrdinal(t *testing.T) {
	g := model.AnnotationGroup{GroupID: 1, Name: "g"}
	g.Marks = append(g.Marks, MarkToGorm(core.Mark{Symbol: "pin"}, 5))

	_, _, _, err := GroupToCore(g)
	assert.Error(t, err)
}

func TestGroupToCoreRejectsEmptyPivot(t *testing.T) {
	g := model.AnnotationGroup{GroupID: 1, Name: "g"}
	g.Marks = append(g.Marks, model.MarkRecord{Ordinal: 0, Symbol: "pin"})

	_, _, _, err := GroupToCore(g)
	assert.Error(t, err)
}

func TestLineToCoreBadPayload(t *testing.T) {
	rec := model.LineRecord{Ordinal: 0, Points: []byte("not json")}
	_, err := LineToCore(rec)
	assert.Error(t, err)
}

func TestEmptyGroupRoundtrip(t *testing.T) {
	rec, err := GroupToGorm(3, "empty", false, nil, nil)
	require.NoError(t, err)

	id, marks, lines, err := GroupToCore(rec)
	require.NoError(t, err)
	assert.Equal(t, core.GroupID(3), id)
	assert.Empty(t, marks)
	assert.Empty(t, lines)
}
