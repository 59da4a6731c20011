package grid

import (
	"math"

	"github.com/fogleman/delaunay"
	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/hailmosaic/internal/geo"
	"github.com/banshee-data/hailmosaic/internal/radar"
)

// barycentricEps tolerates cells that land exactly on a triangle edge.
const barycentricEps = 1e-9

// Resample interpolates an irregular point cloud onto a regular WGS84
// grid spanning the cloud's bounding box, with rays*scale rows and
// gates*scale columns. Interpolation is Delaunay triangulation with
// barycentric linear weighting; cells outside the convex hull stay
// no-data. The output satisfies the orientation contract directly:
// Values[i,j] corresponds to (Y[i], X[j]) with both axes strictly
// increasing, because cells are addressed through the target axes
// during triangle rasterisation.
func Resample(pc *PointCloud, scale int) (*Grid, error) {
	if scale < 1 {
		scale = 1
	}

	points, values := dedupePoints(pc)
	if len(points) < 3 {
		return nil, &radar.InsufficientDataError{
			Site:   pc.Meta.SiteID,
			Points: len(points),
			Reason: "fewer than 3 distinct points",
		}
	}

	tri, err := delaunay.Triangulate(points)
	if err != nil || len(tri.Triangles) == 0 {
		return nil, &radar.InsufficientDataError{
			Site:   pc.Meta.SiteID,
			Points: len(points),
			Reason: "no triangulation (collinear input)",
		}
	}

	rows := pc.Rays * scale
	cols := pc.Gates * scale
	if rows < 2 || cols < 2 {
		return nil, &radar.InsufficientDataError{
			Site:   pc.Meta.SiteID,
			Points: len(points),
			Reason: "target grid degenerate",
		}
	}
	g := New(rows, cols, geo.CRSWGS84)
	g.Meta = pc.Meta
	floats.Span(g.Y, floats.Min(pc.Lat), floats.Max(pc.Lat))
	floats.Span(g.X, floats.Min(pc.Lon), floats.Max(pc.Lon))

	dy := (g.Y[rows-1] - g.Y[0]) / float64(rows-1)
	dx := (g.X[cols-1] - g.X[0]) / float64(cols-1)
	if dy <= 0 || dx <= 0 {
		return nil, &radar.InsufficientDataError{
			Site:   pc.Meta.SiteID,
			Points: len(points),
			Reason: "degenerate spatial extent",
		}
	}

	// Rasterise each triangle: visit only the grid cells inside its
	// bounding box and fill those with non-negative barycentric
	// coordinates. Shared edges are written twice with the same result.
	for t := 0; t < len(tri.Triangles); t += 3 {
		a := tri.Points[tri.Triangles[t]]
		b := tri.Points[tri.Triangles[t+1]]
		c := tri.Points[tri.Triangles[t+2]]
		va := values[tri.Triangles[t]]
		vb := values[tri.Triangles[t+1]]
		vc := values[tri.Triangles[t+2]]

		denom := (b.Y-c.Y)*(a.X-c.X) + (c.X-b.X)*(a.Y-c.Y)
		if math.Abs(denom) < 1e-300 {
			continue
		}

		minX := math.Min(a.X, math.Min(b.X, c.X))
		maxX := math.Max(a.X, math.Max(b.X, c.X))
		minY := math.Min(a.Y, math.Min(b.Y, c.Y))
		maxY := math.Max(a.Y, math.Max(b.Y, c.Y))

		j0 := clamp(int(math.Ceil((minX-g.X[0])/dx-barycentricEps)), 0, cols-1)
		j1 := clamp(int(math.Floor((maxX-g.X[0])/dx+barycentricEps)), 0, cols-1)
		i0 := clamp(int(math.Ceil((minY-g.Y[0])/dy-barycentricEps)), 0, rows-1)
		i1 := clamp(int(math.Floor((maxY-g.Y[0])/dy+barycentricEps)), 0, rows-1)

		for i := i0; i <= i1; i++ {
			py := g.Y[i]
			for j := j0; j <= j1; j++ {
				px := g.X[j]
				w0 := ((b.Y-c.Y)*(px-c.X) + (c.X-b.X)*(py-c.Y)) / denom
				w1 := ((c.Y-a.Y)*(px-c.X) + (a.X-c.X)*(py-c.Y)) / denom
				w2 := 1 - w0 - w1
				if w0 < -barycentricEps || w1 < -barycentricEps || w2 < -barycentricEps {
					continue
				}
				g.Set(i, j, w0*va+w1*vb+w2*vc)
			}
		}
	}

	return g, nil
}

// dedupePoints collapses coincident cloud points before triangulation.
// Polar grids always repeat the site location at range zero for every
// ray; the triangulator must see it once.
func dedupePoints(pc *PointCloud) ([]delaunay.Point, []float64) {
	seen := make(map[[2]float64]bool, len(pc.Lat))
	points := make([]delaunay.Point, 0, len(pc.Lat))
	values := make([]float64, 0, len(pc.Lat))
	for i := range pc.Lat {
		key := [2]float64{pc.Lat[i], pc.Lon[i]}
		if seen[key] {
			continue
		}
		seen[key] = true
		points = append(points, delaunay.Point{X: pc.Lon[i], Y: pc.Lat[i]})
		values = append(values, pc.Value[i])
	}
	return points, values
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
