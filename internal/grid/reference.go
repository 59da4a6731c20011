package grid

import (
	"fmt"
	"math"

	"github.com/banshee-data/hailmosaic/internal/geo"
	"github.com/banshee-data/hailmosaic/internal/monitoring"
)

// BoundingBox is a geographic extent in degrees.
type BoundingBox struct {
	MinLon, MinLat, MaxLon, MaxLat float64
}

// ConusBounds covers the continental United States, the extent every
// processed scene is aligned into.
var ConusBounds = BoundingBox{MinLon: -125, MinLat: 24, MaxLon: -66, MaxLat: 50}

// DefaultReferenceResolutionM is the reference grid cell size in
// meters.
const DefaultReferenceResolutionM = 1000

// BuildReference constructs the process-wide reference grid: the
// bounding box projected to Web Mercator and discretised at the given
// resolution, all cells empty (zero). Construction is deterministic:
// the same box and resolution always yield the same grid.
func BuildReference(b BoundingBox, resolutionM float64) (*Grid, error) {
	if resolutionM <= 0 {
		return nil, fmt.Errorf("reference resolution must be positive, got %v", resolutionM)
	}
	if b.MinLon >= b.MaxLon || b.MinLat >= b.MaxLat {
		return nil, fmt.Errorf("degenerate reference bounds %+v", b)
	}

	x0, y0 := geo.ToWebMercator(b.MinLat, b.MinLon)
	x1, y1 := geo.ToWebMercator(b.MaxLat, b.MaxLon)

	cols := int(math.Ceil((x1 - x0) / resolutionM))
	rows := int(math.Ceil((y1 - y0) / resolutionM))
	if rows < 2 || cols < 2 {
		return nil, fmt.Errorf("reference bounds too small for %vm resolution", resolutionM)
	}

	g := New(rows, cols, geo.CRSWebMercator)
	for i := range g.Y {
		g.Y[i] = y0 + (float64(i)+0.5)*resolutionM
	}
	for j := range g.X {
		g.X[j] = x0 + (float64(j)+0.5)*resolutionM
	}
	for i := range g.Values {
		g.Values[i] = 0
	}
	return g, nil
}

// ReferenceStore is the durable cache the lazily built reference grid
// is read from and written to. Satisfied by the artifact codec helpers.
type ReferenceStore interface {
	ReadGrid(path string) (*Grid, error)
	WriteGrid(path string, g *Grid) error
	Exists(path string) bool
}

// LoadOrBuildReference returns the cached reference grid, building and
// caching it when the cache file is missing. Rebuilding from the same
// bounds and resolution reproduces the cached grid exactly, so a lost
// cache is never a correctness problem.
func LoadOrBuildReference(store ReferenceStore, path string, b BoundingBox, resolutionM float64) (*Grid, error) {
	if store.Exists(path) {
		g, err := store.ReadGrid(path)
		if err != nil {
			return nil, fmt.Errorf("read reference grid cache: %w", err)
		}
		return g, nil
	}

	g, err := BuildReference(b, resolutionM)
	if err != nil {
		return nil, err
	}
	if err := store.WriteGrid(path, g); err != nil {
		return nil, fmt.Errorf("cache reference grid: %w", err)
	}
	monitoring.Logf("built reference grid %dx%d at %vm into %s", g.Rows, g.Cols, resolutionM, path)
	return g, nil
}
