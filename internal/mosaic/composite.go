package mosaic

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/banshee-data/hailmosaic/internal/grid"
	"github.com/banshee-data/hailmosaic/internal/monitoring"
	"github.com/banshee-data/hailmosaic/internal/radar"
)

// Loader reads one stored layer back from the repository.
type Loader func(path string) (*grid.Grid, error)

// Mosaic is the cumulative sum of per-bucket maxima for one time span.
type Mosaic struct {
	Grid       *grid.Grid
	Start, End time.Time
	Buckets    int // non-empty buckets reduced
	Scenes     int // layers loaded
}

// Composite builds the mosaic for one span. Scenes are bucketed into
// fixed-width windows, each bucket is reduced by elementwise maximum,
// and the bucket results are summed. Layers are loaded one at a time
// and folded straight into the bucket accumulator, so peak memory is
// one layer plus the bucket accumulator plus the running sum.
//
// All layers must be aligned to ref: stored layers are edge-trimmed,
// so each is required to be a contiguous sub-rectangle of ref's cell
// grid and is placed back at its offset during accumulation.
func Composite(ctx context.Context, refs []SceneRef, width time.Duration, ref *grid.Grid, load Loader) (*Mosaic, error) {
	if len(refs) == 0 {
		return nil, fmt.Errorf("no scenes in span")
	}

	buckets := Bucket(refs, width)
	m := &Mosaic{
		Start: buckets[0].Window.Start,
		End:   buckets[len(buckets)-1].Window.End,
	}

	sum := grid.New(ref.Rows, ref.Cols, ref.CRS)
	copy(sum.Y, ref.Y)
	copy(sum.X, ref.X)

	for _, b := range buckets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(b.Refs) == 0 {
			continue
		}

		// Reduce this bucket by elementwise max: near-simultaneous
		// overlapping sweeps must not dilute a transient signal via
		// averaging; the worst observed classification wins.
		bucketMax := grid.New(ref.Rows, ref.Cols, ref.CRS)
		copy(bucketMax.Y, ref.Y)
		copy(bucketMax.X, ref.X)
		for _, r := range b.Refs {
			layer, err := load(r.Path)
			if err != nil {
				return nil, fmt.Errorf("load %s: %w", r.Path, err)
			}
			if err := maxInto(bucketMax, layer, ref); err != nil {
				return nil, err
			}
			m.Scenes++
			// layer is released here; only the accumulators persist.
		}

		addInto(sum, bucketMax)
		m.Buckets++
		monitoring.Logf("reduced bucket [%s, %s): %d scenes",
			b.Window.Start.Format(time.RFC3339), b.Window.End.Format(time.RFC3339), len(b.Refs))
	}

	sum.Meta = grid.Meta{
		ProductName: "hail_mosaic",
		ProductTime: m.Start,
	}
	m.Grid = sum
	return m, nil
}

// maxInto folds a layer into the bucket accumulator at its offset
// within the reference cell grid.
func maxInto(acc, layer, ref *grid.Grid) error {
	offRow, offCol, err := alignOffsets(layer, ref)
	if err != nil {
		return err
	}
	for i := 0; i < layer.Rows; i++ {
		for j := 0; j < layer.Cols; j++ {
			v := layer.At(i, j)
			if math.IsNaN(v) {
				continue
			}
			cur := acc.At(offRow+i, offCol+j)
			if math.IsNaN(cur) || v > cur {
				acc.Set(offRow+i, offCol+j, v)
			}
		}
	}
	return nil
}

// addInto sums a bucket result into the running total. No-data cells
// never poison the sum: NaN plus a value is the value, and a cell with
// no contribution from any bucket stays no-data.
func addInto(sum, bucketMax *grid.Grid) {
	for i, v := range bucketMax.Values {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(sum.Values[i]) {
			sum.Values[i] = v
		} else {
			sum.Values[i] += v
		}
	}
}

// alignOffsets locates a trimmed layer inside the reference cell grid
// and verifies its cells coincide with the reference cells.
func alignOffsets(layer, ref *grid.Grid) (offRow, offCol int, err error) {
	if layer.CRS != ref.CRS {
		return 0, 0, &radar.ReprojectionError{SrcCRS: layer.CRS, DstCRS: ref.CRS, Reason: "layer not in reference CRS"}
	}
	if layer.Rows == 0 || layer.Cols == 0 {
		return 0, 0, nil
	}
	if ref.Rows < 2 || ref.Cols < 2 {
		return 0, 0, &radar.ReprojectionError{SrcCRS: layer.CRS, DstCRS: ref.CRS, Reason: "degenerate reference grid"}
	}

	dy := (ref.Y[ref.Rows-1] - ref.Y[0]) / float64(ref.Rows-1)
	dx := (ref.X[ref.Cols-1] - ref.X[0]) / float64(ref.Cols-1)
	tol := math.Min(dy, dx) * 1e-6

	offRow = int(math.Round((layer.Y[0] - ref.Y[0]) / dy))
	offCol = int(math.Round((layer.X[0] - ref.X[0]) / dx))
	if offRow < 0 || offCol < 0 || offRow+layer.Rows > ref.Rows || offCol+layer.Cols > ref.Cols {
		return 0, 0, &radar.ReprojectionError{SrcCRS: layer.CRS, DstCRS: ref.CRS, Reason: "layer extends beyond reference extent"}
	}
	if math.Abs(layer.Y[0]-ref.Y[offRow]) > tol ||
		math.Abs(layer.Y[layer.Rows-1]-ref.Y[offRow+layer.Rows-1]) > tol ||
		math.Abs(layer.X[0]-ref.X[offCol]) > tol ||
		math.Abs(layer.X[layer.Cols-1]-ref.X[offCol+layer.Cols-1]) > tol {
		return 0, 0, &radar.ReprojectionError{SrcCRS: layer.CRS, DstCRS: ref.CRS, Reason: "layer cells do not coincide with reference cells"}
	}
	return offRow, offCol, nil
}
