package geo

import (
	"errors"
	"math"
	"testing"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/mapgrid/usermarks/pkg/core"
)

func TestPosition3857From4326(t *testing.T) {
	origin := Position3857From4326(0, 0)
	if math.Abs(origin.X) > 1e-6 || math.Abs(origin.Y) > 1e-6 {
		t.Errorf("origin projects to %v, want (0, 0)", origin)
	}

	// the antimeridian lands on the edge of the web mercator extent
	edge := Position3857From4326(180, 0)
	if math.Abs(edge.X-20037508.342789244) > 1.0 {
		t.Errorf("antimeridian X = %v, want ~20037508.34", edge.X)
	}

	east := Position3857From4326(13.4, 52.5)
	west := Position3857From4326(-13.4, 52.5)
	if math.Abs(east.X+west.X) > 1e-6 {
		t.Errorf("mirrored longitudes not symmetric: %v vs %v", east.X, west.X)
	}
}

func TestPointPositionRoundtrip(t *testing.T) {
	in := core.Position2D{X: 1234.5, Y: -6789.25}
	out, err := PositionFromPoint(PointFromPosition(in))
	if err != nil {
		t.Fatalf("PositionFromPoint error = %v", err)
	}
	if out != in {
		t.Errorf("roundtrip got %v, want %v", out, in)
	}
}

func TestPositionFromEmptyPoint(t *testing.T) {
	_, err := PositionFromPoint(geom.NewEmptyPoint(geom.DimXY))
	if !errors.Is(err, ErrInvalidCoordinates) {
		t.Errorf("error = %v, want ErrInvalidCoordinates", err)
	}
}

func TestParsePolylineToCore(t *testing.T) {
	polyline, err := ParsePolylineToCore("[[1,2],[3,4]]")
	if err != nil {
		t.Fatalf("ParsePolylineToCore error = %v", err)
	}
	want := core.Polyline{{X: 1, Y: 2}, {X: 3, Y: 4}}
	if len(polyline) != len(want) {
		t.Fatalf("got %d points, want %d", len(polyline), len(want))
	}
	for i := range want {
		if polyline[i] != want[i] {
			t.Errorf("point %d = %v, want %v", i, polyline[i], want[i])
		}
	}

	if _, err := ParsePolylineToCore("[[0,0]]"); err == nil {
		t.Error("single-point polyline accepted, want error")
	}
	if _, err := ParsePolylineToCore("not json"); err == nil {
		t.Error("invalid JSON accepted, want error")
	}
	if _, err := ParsePolylineToCore("[[0,0],[1]]"); err == nil {
		t.Error("short coordinate accepted, want error")
	}
}
