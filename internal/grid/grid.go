// Package grid implements the geometric core of the sweep pipeline:
// polar projection to an irregular point cloud, scattered-data
// resampling onto regular grids, reprojection onto the shared reference
// grid, and edge trimming.
package grid

import (
	"fmt"
	"math"
	"time"
)

// Meta carries scene attributes forward through the pipeline and into
// persisted artifacts.
type Meta struct {
	SiteID      string
	SiteLat     float64
	SiteLon     float64
	MaxRangeKm  float64
	ProductName string
	ProductTime time.Time // UTC
}

// Grid is a regular raster: row-major Values with NaN marking no-data,
// and strictly increasing cell-centre axes. Y holds the row coordinate
// (latitude or northing), X the column coordinate (longitude or
// easting), so Values[i*Cols+j] corresponds to (Y[i], X[j]).
type Grid struct {
	Rows, Cols int
	Y, X       []float64
	Values     []float64
	CRS        string
	Meta       Meta
}

// New allocates a rows x cols grid with every cell set to no-data.
func New(rows, cols int, crs string) *Grid {
	v := make([]float64, rows*cols)
	for i := range v {
		v[i] = math.NaN()
	}
	return &Grid{
		Rows:   rows,
		Cols:   cols,
		Y:      make([]float64, rows),
		X:      make([]float64, cols),
		Values: v,
		CRS:    crs,
	}
}

// At returns the value at (row i, col j).
func (g *Grid) At(i, j int) float64 { return g.Values[i*g.Cols+j] }

// Set writes the value at (row i, col j).
func (g *Grid) Set(i, j int, v float64) { g.Values[i*g.Cols+j] = v }

// Name returns the canonical artifact name for the grid's scene:
// <site>_<product>_<isotime>.
func (g *Grid) Name() string {
	return fmt.Sprintf("%s_%s_%s", g.Meta.SiteID, g.Meta.ProductName,
		g.Meta.ProductTime.UTC().Format(time.RFC3339))
}

// Clone returns a deep copy.
func (g *Grid) Clone() *Grid {
	c := &Grid{
		Rows:   g.Rows,
		Cols:   g.Cols,
		Y:      append([]float64(nil), g.Y...),
		X:      append([]float64(nil), g.X...),
		Values: append([]float64(nil), g.Values...),
		CRS:    g.CRS,
		Meta:   g.Meta,
	}
	return c
}

// CellsMatch reports whether two grids share an identical cell grid:
// same shape and per-cell coordinates within tol.
func (g *Grid) CellsMatch(o *Grid, tol float64) bool {
	if g.Rows != o.Rows || g.Cols != o.Cols || g.CRS != o.CRS {
		return false
	}
	for i := range g.Y {
		if math.Abs(g.Y[i]-o.Y[i]) > tol {
			return false
		}
	}
	for j := range g.X {
		if math.Abs(g.X[j]-o.X[j]) > tol {
			return false
		}
	}
	return true
}

// checkAxes verifies the strict monotonicity invariant on both axes.
func (g *Grid) checkAxes() error {
	for i := 1; i < len(g.Y); i++ {
		if g.Y[i] <= g.Y[i-1] {
			return fmt.Errorf("y axis not strictly increasing at %d", i)
		}
	}
	for j := 1; j < len(g.X); j++ {
		if g.X[j] <= g.X[j-1] {
			return fmt.Errorf("x axis not strictly increasing at %d", j)
		}
	}
	return nil
}
