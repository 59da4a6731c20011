package grid

import "math"

// TrimEmptyEdges returns a copy of g with leading and trailing rows and
// columns that are entirely no-data removed. Interior no-data cells are
// preserved. A grid with no data at all is returned unchanged.
func TrimEmptyEdges(g *Grid) *Grid {
	top, bottom := 0, g.Rows-1
	for top <= bottom && emptyRow(g, top) {
		top++
	}
	if top > bottom {
		return g
	}
	for emptyRow(g, bottom) {
		bottom--
	}

	left, right := 0, g.Cols-1
	for left <= right && emptyCol(g, left) {
		left++
	}
	for emptyCol(g, right) {
		right--
	}

	rows := bottom - top + 1
	cols := right - left + 1
	out := &Grid{
		Rows:   rows,
		Cols:   cols,
		Y:      append([]float64(nil), g.Y[top:bottom+1]...),
		X:      append([]float64(nil), g.X[left:right+1]...),
		Values: make([]float64, rows*cols),
		CRS:    g.CRS,
		Meta:   g.Meta,
	}
	for i := 0; i < rows; i++ {
		copy(out.Values[i*cols:(i+1)*cols], g.Values[(top+i)*g.Cols+left:(top+i)*g.Cols+left+cols])
	}
	return out
}

func emptyRow(g *Grid, i int) bool {
	for j := 0; j < g.Cols; j++ {
		if !math.IsNaN(g.At(i, j)) {
			return false
		}
	}
	return true
}

func emptyCol(g *Grid, j int) bool {
	for i := 0; i < g.Rows; i++ {
		if !math.IsNaN(g.At(i, j)) {
			return false
		}
	}
	return true
}
