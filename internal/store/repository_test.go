package store

import (
	"errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/banshee-data/hailmosaic/internal/fsutil"
	"github.com/banshee-data/hailmosaic/internal/geo"
	"github.com/banshee-data/hailmosaic/internal/grid"
	"github.com/banshee-data/hailmosaic/internal/radar"
)

func storedLayer(site string, at time.Time) *grid.Grid {
	g := grid.New(2, 2, geo.CRSWebMercator)
	g.Y = []float64{100, 200}
	g.X = []float64{300, 400}
	g.Set(0, 0, 1)
	g.Set(1, 1, 2)
	g.Meta = grid.Meta{
		SiteID:      site,
		ProductName: "HHC",
		ProductTime: at,
	}
	return g
}

func newTestRepo(t *testing.T, opts ...Option) *Repository {
	t.Helper()
	repo, err := NewRepository(fsutil.NewMemoryFileSystem(), "data", "hail", opts...)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	return repo
}

func TestDayBucketUsesLocalCalendar(t *testing.T) {
	repo := newTestRepo(t)
	// 03:00 UTC is 22:00 the previous day at UTC-5.
	if got, want := repo.Day(time.Date(2024, 1, 2, 3, 0, 0, 0, time.UTC)), "2024-01-01"; got != want {
		t.Errorf("Day = %q, want %q", got, want)
	}
	if got, want := repo.Day(time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)), "2024-01-02"; got != want {
		t.Errorf("Day = %q, want %q", got, want)
	}
}

func TestPathForDeterministic(t *testing.T) {
	repo := newTestRepo(t)
	at := time.Date(2024, 6, 1, 12, 5, 0, 0, time.UTC)
	a := repo.PathFor(storedLayer("KDMX", at))
	b := repo.PathFor(storedLayer("KDMX", at))
	if a != b {
		t.Fatalf("paths differ for identical identity: %q vs %q", a, b)
	}
	want := filepath.Join("data", "hail", "2024-06-01", "KDMX_HHC_2024-06-01T12:05:00Z.grid")
	if a != want {
		t.Errorf("PathFor = %q, want %q", a, want)
	}
}

func TestStoreAndLoadRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	g := storedLayer("KDMX", time.Date(2024, 6, 1, 12, 5, 0, 0, time.UTC))

	path, err := repo.Store(g)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	got, err := repo.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Meta.SiteID != "KDMX" || got.At(0, 0) != 1 || !math.IsNaN(got.At(0, 1)) {
		t.Errorf("loaded layer does not match stored layer: %+v", got)
	}
}

func TestStoreOverwriteLastWriteWins(t *testing.T) {
	repo := newTestRepo(t)
	at := time.Date(2024, 6, 1, 12, 5, 0, 0, time.UTC)

	first := storedLayer("KDMX", at)
	if _, err := repo.Store(first); err != nil {
		t.Fatalf("first Store: %v", err)
	}
	second := storedLayer("KDMX", at)
	second.Set(0, 0, 9)
	path, err := repo.Store(second)
	if err != nil {
		t.Fatalf("second Store: %v", err)
	}

	got, err := repo.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.At(0, 0) != 9 {
		t.Errorf("At(0,0) = %v, want the later write", got.At(0, 0))
	}

	scenes, err := repo.ListDay("2024-06-01")
	if err != nil {
		t.Fatalf("ListDay: %v", err)
	}
	if len(scenes) != 1 {
		t.Errorf("ListDay returned %d scenes after overwrite, want 1", len(scenes))
	}
}

func TestListOrderedByTime(t *testing.T) {
	repo := newTestRepo(t)
	times := []time.Time{
		time.Date(2024, 6, 1, 12, 10, 0, 0, time.UTC),
		time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 2, 12, 0, 0, 0, time.UTC),
	}
	for _, at := range times {
		if _, err := repo.Store(storedLayer("KDMX", at)); err != nil {
			t.Fatalf("Store: %v", err)
		}
	}

	days, err := repo.Days()
	if err != nil {
		t.Fatalf("Days: %v", err)
	}
	if len(days) != 2 || days[0] != "2024-06-01" || days[1] != "2024-06-02" {
		t.Fatalf("Days = %v, want [2024-06-01 2024-06-02]", days)
	}

	all, err := repo.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("List returned %d scenes, want 3", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].ProductTime.Before(all[i-1].ProductTime) {
			t.Errorf("scenes out of order: %v before %v", all[i].ProductTime, all[i-1].ProductTime)
		}
	}
	if all[0].ProductTime != times[1].UTC() {
		t.Errorf("first scene = %v, want %v", all[0].ProductTime, times[1])
	}
}

func TestListDayParsesArtifactNames(t *testing.T) {
	repo := newTestRepo(t)
	at := time.Date(2024, 6, 1, 23, 50, 0, 0, time.UTC)
	if _, err := repo.Store(storedLayer("KDMX", at)); err != nil {
		t.Fatalf("Store: %v", err)
	}

	scenes, err := repo.ListDay(repo.Day(at))
	if err != nil {
		t.Fatalf("ListDay: %v", err)
	}
	if len(scenes) != 1 {
		t.Fatalf("ListDay returned %d scenes, want 1", len(scenes))
	}
	s := scenes[0]
	if s.SiteID != "KDMX" || s.ProductName != "HHC" || !s.ProductTime.Equal(at) {
		t.Errorf("parsed scene = %+v", s)
	}
}

func TestParseArtifactName(t *testing.T) {
	tests := []struct {
		name    string
		site    string
		product string
		wantErr bool
	}{
		{"KDMX_HHC_2024-06-01T12:00:00Z.grid", "KDMX", "HHC", false},
		{"KDMX_hail_class_2024-06-01T12:00:00Z.grid", "KDMX", "hail_class", false},
		{"noseparators.grid", "", "", true},
		{"KDMX_HHC_notatime.grid", "", "", true},
	}
	for _, tc := range tests {
		s, err := parseArtifactName(tc.name)
		if tc.wantErr {
			if err == nil {
				t.Errorf("%s: parsed without error", tc.name)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: %v", tc.name, err)
			continue
		}
		if s.SiteID != tc.site || s.ProductName != tc.product {
			t.Errorf("%s: parsed %q/%q, want %q/%q", tc.name, s.SiteID, s.ProductName, tc.site, tc.product)
		}
	}
}

// brokenFS fails every MkdirAll after the repository root has been
// created.
type brokenFS struct {
	*fsutil.MemoryFileSystem
	armed bool
}

func (b *brokenFS) MkdirAll(path string, perm os.FileMode) error {
	if b.armed {
		return &fs.PathError{Op: "mkdir", Path: path, Err: fs.ErrPermission}
	}
	return b.MemoryFileSystem.MkdirAll(path, perm)
}

func TestStoreUnwritableRootIsFatal(t *testing.T) {
	bfs := &brokenFS{MemoryFileSystem: fsutil.NewMemoryFileSystem()}
	repo, err := NewRepository(bfs, "data", "hail")
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	bfs.armed = true

	_, err = repo.Store(storedLayer("KDMX", time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)))
	var storeErr *radar.StorageError
	if !errors.As(err, &storeErr) {
		t.Fatalf("error = %v, want StorageError", err)
	}
	if !storeErr.Fatal {
		t.Error("unwritable bucket directory should be fatal")
	}
}

func TestNewRepositoryUnusableRoot(t *testing.T) {
	bfs := &brokenFS{MemoryFileSystem: fsutil.NewMemoryFileSystem(), armed: true}
	_, err := NewRepository(bfs, "data", "hail")
	var storeErr *radar.StorageError
	if !errors.As(err, &storeErr) {
		t.Fatalf("error = %v, want StorageError", err)
	}
	if !storeErr.Fatal {
		t.Error("unusable root should be fatal")
	}
}
