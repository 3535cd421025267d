package gormstore

import (
	"encoding/json"
	"testing"

	"github.com/glebarez/sqlite"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mapgrid/usermarks/internal/model"
	"github.com/mapgrid/usermarks/pkg/core"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	b := New(db)
	require.NoError(t, b.Init())
	return b
}

func testGroup(t *testing.T, id int64, name string, markCount int) *model.AnnotationGroup {
	t.Helper()
	g := &model.AnnotationGroup{GroupID: id, Name: name, Visible: true}
	for i := 0; i < markCount; i++ {
		g.Marks = append(g.Marks, model.MarkRecord{
			Ordinal: i,
			Pivot:   geom.NewPoint(geom.Coordinates{XY: geom.XY{X: float64(i), Y: 200}, Type: geom.DimXY}),
			Symbol:  "pin",
		})
	}
	points, err := json.Marshal([][]float64{{0, 0}, {100, 100}})
	require.NoError(t, err)
	g.Lines = append(g.Lines, model.LineRecord{Ordinal: 0, Points: points, Width: 2})
	return g
}

func TestSaveLoadGroup(t *testing.T) {
	b := newTestBackend(t)

	require.NoError(t, b.SaveGroup(testGroup(t, 1, "bookmarks", 2)))

	g, ok, err := b.LoadGroup(core.GroupID(1))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "bookmarks", g.Name)
	assert.Len(t, g.Marks, 2)
	assert.Len(t, g.Lines, 1)

	// WKB pivot survives the roundtrip
	coords, has := g.Marks[1].Pivot.Coordinates()
	require.True(t, has)
	assert.Equal(t, 1.0, coords.XY.X)
	assert.Equal(t, 200.0, coords.XY.Y)

	_, ok, err = b.LoadGroup(core.GroupID(42))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSaveGroupTwiceReplaces(t *testing.T) {
	b := newTestBackend(t)

	require.NoError(t, b.SaveGroup(testGroup(t, 1, "before", 3)))
	require.NoError(t, b.SaveGroup(testGroup(t, 1, "after", 1)))

	g, ok, err := b.LoadGroup(core.GroupID(1))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "after", g.Name)
	assert.Len(t, g.Marks, 1)
	assert.Len(t, g.Lines, 1)

	groups, err := b.LoadGroups()
	require.NoError(t, err)
	assert.Len(t, groups, 1)
}

func TestDeleteThenSaveAgain(t *testing.T) {
	b := newTestBackend(t)

	require.NoError(t, b.SaveGroup(testGroup(t, 1, "bookmarks", 1)))
	require.NoError(t, b.DeleteGroup(core.GroupID(1)))

	_, ok, err := b.LoadGroup(core.GroupID(1))
	require.NoError(t, err)
	require.False(t, ok)

	// the group_id slot must be reusable after a delete
	require.NoError(t, b.SaveGroup(testGroup(t, 1, "reborn", 2)))
	g, ok, err := b.LoadGroup(core.GroupID(1))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "reborn", g.Name)
	assert.Len(t, g.Marks, 2)
}

func TestDeleteAbsentGroupIsNoop(t *testing.T) {
	b := newTestBackend(t)
	assert.NoError(t, b.DeleteGroup(core.GroupID(7)))
}

func TestLoadGroupsOrdered(t *testing.T) {
	b := newTestBackend(t)
	for _, id := range []int64{5, 1, 3} {
		require.NoError(t, b.SaveGroup(testGroup(t, id, "g", 1)))
	}

	groups, err := b.LoadGroups()
	require.NoError(t, err)
	require.Len(t, groups, 3)
	assert.Equal(t, int64(1), groups[0].GroupID)
	assert.Equal(t, int64(3), groups[1].GroupID)
	assert.Equal(t, int64(5), groups[2].GroupID)
}
