package mosaic

import (
	"bytes"
	"fmt"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/banshee-data/hailmosaic/internal/fsutil"
	"github.com/banshee-data/hailmosaic/internal/grid"
)

// Output file names inside a day's mosaic directory.
const (
	ArrayArtifact  = "mosaic.grid"
	RasterArtifact = "mosaic.png"
)

// WriteOutputs persists the mosaic under dir as both a compressed array
// artifact and a georeferenced raster image. Each file lands via a
// temporary name and rename, so an abandoned or retried build never
// leaves a half-written mosaic behind.
func WriteOutputs(fs fsutil.FileSystem, m *Mosaic, dir string) error {
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create mosaic dir: %w", err)
	}

	blob, err := grid.Encode(m.Grid)
	if err != nil {
		return fmt.Errorf("encode mosaic: %w", err)
	}
	if err := writeVia(fs, filepath.Join(dir, ArrayArtifact), blob); err != nil {
		return err
	}

	png, err := renderPNG(m.Grid)
	if err != nil {
		return fmt.Errorf("render mosaic raster: %w", err)
	}
	return writeVia(fs, filepath.Join(dir, RasterArtifact), png)
}

func writeVia(fs fsutil.FileSystem, dest string, data []byte) error {
	tmp := dest + ".tmp"
	if err := fs.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := fs.Rename(tmp, dest); err != nil {
		return fmt.Errorf("rename %s: %w", dest, err)
	}
	return nil
}

// gridXYZ adapts a Grid to the heatmap data interface. Rows map to the
// plot's y axis, columns to x, so the image is georeferenced by the
// grid's own axes.
type gridXYZ struct {
	g *grid.Grid
}

func (d gridXYZ) Dims() (c, r int)   { return d.g.Cols, d.g.Rows }
func (d gridXYZ) Z(c, r int) float64 { return d.g.At(r, c) }
func (d gridXYZ) X(c int) float64    { return d.g.X[c] }
func (d gridXYZ) Y(r int) float64    { return d.g.Y[r] }

// renderPNG draws the mosaic as a heatmap over its coordinate axes and
// returns the encoded PNG. No-data cells are left undrawn.
func renderPNG(g *grid.Grid) ([]byte, error) {
	h := plotter.NewHeatMap(gridXYZ{g: g}, palette.Heat(12, 1))
	h.Min = 0

	p := plot.New()
	p.Title.Text = "hail exposure"
	p.X.Label.Text = "easting (m)"
	p.Y.Label.Text = "northing (m)"
	p.Add(h)

	img := vgimg.New(10*vg.Inch, 8*vg.Inch)
	p.Draw(draw.New(img))

	var buf bytes.Buffer
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
