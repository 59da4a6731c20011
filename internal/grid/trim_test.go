package grid

import (
	"math"
	"testing"

	"github.com/banshee-data/hailmosaic/internal/geo"
)

// paddedGrid builds a 5x6 grid that is no-data except a 2x3 block at
// rows 1-2, cols 2-4, with one NaN hole inside the block.
func paddedGrid() *Grid {
	g := New(5, 6, geo.CRSWebMercator)
	for i := range g.Y {
		g.Y[i] = 100 + float64(i)*10
	}
	for j := range g.X {
		g.X[j] = 200 + float64(j)*10
	}
	g.Set(1, 2, 1)
	g.Set(1, 3, 2)
	g.Set(1, 4, 3)
	g.Set(2, 2, 4)
	// (2, 3) stays no-data: an interior hole, not an edge.
	g.Set(2, 4, 6)
	return g
}

func TestTrimEmptyEdges(t *testing.T) {
	g := paddedGrid()
	out := TrimEmptyEdges(g)

	if out.Rows != 2 || out.Cols != 3 {
		t.Fatalf("trimmed shape = %dx%d, want 2x3", out.Rows, out.Cols)
	}
	if out.Y[0] != g.Y[1] || out.X[0] != g.X[2] {
		t.Errorf("trimmed axes start at (%v, %v), want (%v, %v)", out.Y[0], out.X[0], g.Y[1], g.X[2])
	}
	if got := out.At(0, 0); got != 1 {
		t.Errorf("At(0,0) = %v, want 1", got)
	}
	if got := out.At(1, 2); got != 6 {
		t.Errorf("At(1,2) = %v, want 6", got)
	}
	if !math.IsNaN(out.At(1, 1)) {
		t.Errorf("interior hole = %v, want NaN preserved", out.At(1, 1))
	}
	if out.CRS != geo.CRSWebMercator {
		t.Errorf("CRS = %q, want carried through", out.CRS)
	}
}

func TestTrimEmptyEdgesNoPadding(t *testing.T) {
	g := New(3, 3, geo.CRSWGS84)
	for i := range g.Values {
		g.Values[i] = float64(i)
	}
	out := TrimEmptyEdges(g)
	if out.Rows != 3 || out.Cols != 3 {
		t.Fatalf("dense grid trimmed to %dx%d", out.Rows, out.Cols)
	}
}

func TestTrimEmptyEdgesAllNoData(t *testing.T) {
	g := New(4, 4, geo.CRSWGS84)
	out := TrimEmptyEdges(g)
	if out != g {
		t.Fatal("all-empty grid should come back unchanged")
	}
}
