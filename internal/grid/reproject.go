package grid

import (
	"math"

	"github.com/banshee-data/hailmosaic/internal/geo"
	"github.com/banshee-data/hailmosaic/internal/radar"
)

// nodeSnapEps is the fractional-index tolerance below which a sample
// point is treated as landing exactly on a source node. Sampling on the
// node returns the stored value untouched, which makes reprojection of
// an already-aligned grid idempotent.
const nodeSnapEps = 1e-9

// ReprojectMatch resamples src onto the reference grid's CRS and exact
// cell alignment. The output's cell grid is identical, cell for cell,
// to ref's; its values come from bilinear sampling of src at each
// reference cell centre, no-data where the centre falls outside src or
// touches a missing neighbour. A CRS pairing the pipeline cannot
// transform is a ReprojectionError for this scene.
func ReprojectMatch(src, ref *Grid) (*Grid, error) {
	if err := src.checkAxes(); err != nil {
		return nil, &radar.ReprojectionError{SrcCRS: src.CRS, DstCRS: ref.CRS, Reason: err.Error()}
	}

	toSrc, err := transformFunc(ref.CRS, src.CRS)
	if err != nil {
		return nil, err
	}

	out := New(ref.Rows, ref.Cols, ref.CRS)
	copy(out.Y, ref.Y)
	copy(out.X, ref.X)
	out.Meta = src.Meta

	for i, y := range out.Y {
		for j, x := range out.X {
			sy, sx := toSrc(y, x)
			out.Set(i, j, bilinear(src, sy, sx))
		}
	}
	return out, nil
}

// transformFunc returns a (y, x) -> (y, x) coordinate transform between
// the two supported frames.
func transformFunc(fromCRS, toCRS string) (func(y, x float64) (float64, float64), error) {
	switch {
	case fromCRS == toCRS:
		return func(y, x float64) (float64, float64) { return y, x }, nil
	case fromCRS == geo.CRSWebMercator && toCRS == geo.CRSWGS84:
		return func(y, x float64) (float64, float64) {
			lat, lon := geo.FromWebMercator(x, y)
			return lat, lon
		}, nil
	case fromCRS == geo.CRSWGS84 && toCRS == geo.CRSWebMercator:
		return func(y, x float64) (float64, float64) {
			mx, my := geo.ToWebMercator(y, x)
			return my, mx
		}, nil
	default:
		return nil, &radar.ReprojectionError{
			SrcCRS: toCRS,
			DstCRS: fromCRS,
			Reason: "unsupported CRS pairing",
		}
	}
}

// bilinear samples g at (y, x). Points outside the grid extent return
// NaN; so does any sample whose contributing neighbours include a
// no-data cell. Samples on a node return that node's value exactly.
func bilinear(g *Grid, y, x float64) float64 {
	fi, ok := fracIndex(g.Y, y)
	if !ok {
		return math.NaN()
	}
	fj, ok := fracIndex(g.X, x)
	if !ok {
		return math.NaN()
	}

	i0 := int(fi)
	j0 := int(fj)
	ti := fi - float64(i0)
	tj := fj - float64(j0)

	// Snap to exact nodes. Keeps aligned-grid reprojection an identity
	// and avoids smearing no-data into on-node samples.
	if ti < nodeSnapEps && tj < nodeSnapEps {
		return g.At(i0, j0)
	}
	if ti > 1-nodeSnapEps {
		i0, ti = i0+1, 0
	}
	if tj > 1-nodeSnapEps {
		j0, tj = j0+1, 0
	}
	if ti < nodeSnapEps && tj < nodeSnapEps {
		return g.At(i0, j0)
	}

	i1 := i0
	if ti >= nodeSnapEps {
		i1 = i0 + 1
	}
	j1 := j0
	if tj >= nodeSnapEps {
		j1 = j0 + 1
	}

	v00 := g.At(i0, j0)
	v01 := g.At(i0, j1)
	v10 := g.At(i1, j0)
	v11 := g.At(i1, j1)
	if math.IsNaN(v00) || math.IsNaN(v01) || math.IsNaN(v10) || math.IsNaN(v11) {
		return math.NaN()
	}

	top := v00*(1-tj) + v01*tj
	bot := v10*(1-tj) + v11*tj
	return top*(1-ti) + bot*ti
}

// fracIndex locates v on a strictly increasing axis as a fractional
// index in [0, len-1]. Axes produced by this package are uniformly
// spaced, so the index is computed directly from the span.
func fracIndex(axis []float64, v float64) (float64, bool) {
	n := len(axis)
	if n < 2 {
		return 0, false
	}
	step := (axis[n-1] - axis[0]) / float64(n-1)
	f := (v - axis[0]) / step
	if f < -nodeSnapEps || f > float64(n-1)+nodeSnapEps {
		return 0, false
	}
	if f < 0 {
		f = 0
	}
	if f > float64(n-1) {
		f = float64(n - 1)
	}
	return f, true
}
