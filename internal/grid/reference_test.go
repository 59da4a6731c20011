package grid

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/hailmosaic/internal/fsutil"
	"github.com/banshee-data/hailmosaic/internal/geo"
)

func TestBuildReferenceDeterministic(t *testing.T) {
	a, err := BuildReference(testBounds, 20000)
	if err != nil {
		t.Fatalf("BuildReference: %v", err)
	}
	b, err := BuildReference(testBounds, 20000)
	if err != nil {
		t.Fatalf("BuildReference: %v", err)
	}
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("rebuilding from the same inputs differed (-a +b):\n%s", diff)
	}
	if a.CRS != geo.CRSWebMercator {
		t.Errorf("CRS = %q, want %q", a.CRS, geo.CRSWebMercator)
	}
	for _, v := range a.Values {
		if v != 0 {
			t.Fatal("reference grid must start empty")
		}
	}
}

func TestBuildReferenceCellSpacing(t *testing.T) {
	g, err := BuildReference(testBounds, 20000)
	if err != nil {
		t.Fatalf("BuildReference: %v", err)
	}
	for i := 1; i < g.Rows; i++ {
		if got := g.Y[i] - g.Y[i-1]; got != 20000 {
			t.Fatalf("row spacing at %d = %v, want 20000", i, got)
		}
	}
	for j := 1; j < g.Cols; j++ {
		if got := g.X[j] - g.X[j-1]; got != 20000 {
			t.Fatalf("col spacing at %d = %v, want 20000", j, got)
		}
	}
}

func TestBuildReferenceRejectsBadInputs(t *testing.T) {
	if _, err := BuildReference(testBounds, 0); err == nil {
		t.Error("zero resolution accepted")
	}
	if _, err := BuildReference(BoundingBox{MinLon: -93, MinLat: 41, MaxLon: -94, MaxLat: 42}, 1000); err == nil {
		t.Error("inverted bounds accepted")
	}
}

func TestLoadOrBuildReferenceCaches(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	store := FileStore{FS: fs}
	const path = "ref/conus.grid"

	first, err := LoadOrBuildReference(store, path, testBounds, 20000)
	if err != nil {
		t.Fatalf("first LoadOrBuildReference: %v", err)
	}
	if !fs.Exists(path) {
		t.Fatal("reference grid was not cached")
	}

	// Poison one cached cell so a reload is distinguishable from a
	// rebuild.
	cached, err := store.ReadGrid(path)
	if err != nil {
		t.Fatalf("ReadGrid: %v", err)
	}
	cached.Set(0, 0, 42)
	if err := store.WriteGrid(path, cached); err != nil {
		t.Fatalf("WriteGrid: %v", err)
	}

	second, err := LoadOrBuildReference(store, path, testBounds, 20000)
	if err != nil {
		t.Fatalf("second LoadOrBuildReference: %v", err)
	}
	if second.At(0, 0) != 42 {
		t.Error("cache was rebuilt instead of loaded")
	}
	if first.At(0, 0) == 42 {
		t.Error("freshly built grid already carried the poisoned value")
	}
}
