package pipeline

import (
	"context"
	"errors"
	"math"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/hailmosaic/internal/fsutil"
	"github.com/banshee-data/hailmosaic/internal/grid"
	"github.com/banshee-data/hailmosaic/internal/radar"
	"github.com/banshee-data/hailmosaic/internal/store"
	"github.com/banshee-data/hailmosaic/internal/testutil"
)

var sceneTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// newTestDeps builds a pipeline wired to an in-memory repository and a
// coarse reference grid around the test site.
func newTestDeps(t *testing.T) Deps {
	t.Helper()
	ref, err := grid.BuildReference(grid.BoundingBox{MinLon: -95, MinLat: 40.5, MaxLon: -92.5, MaxLat: 43}, 2000)
	require.NoError(t, err)
	repo, err := store.NewRepository(fsutil.NewMemoryFileSystem(), "data", "hail")
	require.NoError(t, err)
	return Deps{
		Ref:   ref,
		Repo:  repo,
		Clock: clockwork.NewFakeClockAt(sceneTime),
	}
}

func TestRunStoresAlignedLayer(t *testing.T) {
	deps := newTestDeps(t)
	scene := testutil.NewTestScene("KDMX", sceneTime, 36, 20, 11) // hail index 2 everywhere

	path, err := Run(context.Background(), scene, deps)
	require.NoError(t, err)
	assert.Contains(t, path, "2024-06-01")
	assert.True(t, strings.HasSuffix(path, "KDMX_HHC_2024-06-01T12:00:00Z.grid"))

	layer, err := deps.Repo.Load(path)
	require.NoError(t, err)
	assert.Equal(t, deps.Ref.CRS, layer.CRS)
	assert.Equal(t, "KDMX", layer.Meta.SiteID)

	// The stored layer is edge-trimmed, so it is smaller than the full
	// reference, and its values are the constant hail index inside the
	// covered disc.
	assert.Less(t, layer.Rows, deps.Ref.Rows)
	assert.Less(t, layer.Cols, deps.Ref.Cols)
	found := false
	for _, v := range layer.Values {
		if math.IsNaN(v) {
			continue
		}
		assert.InDelta(t, 2, v, 1e-9)
		found = true
	}
	assert.True(t, found, "stored layer carries no data")
}

func TestRunAllIsolatesFailures(t *testing.T) {
	deps := newTestDeps(t)
	bad := testutil.NewTestScene("KBAD", sceneTime, 36, 20, 11)
	bad.EndAz = bad.EndAz[:3] // malformed
	scenes := []*radar.Scene{
		testutil.NewTestScene("KDMX", sceneTime, 36, 20, 11),
		bad,
		testutil.NewTestScene("KAMX", sceneTime.Add(time.Minute), 36, 20, 12),
	}

	summary, err := RunAll(context.Background(), scenes, deps)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Stored)
	assert.Equal(t, 1, summary.Dropped)
	require.Len(t, summary.Results, 3)
	assert.NoError(t, summary.Results[0].Err)
	assert.Error(t, summary.Results[1].Err)
	assert.NoError(t, summary.Results[2].Err)
	assert.NotEmpty(t, summary.RunID)
}

func TestRunAllFatalStorageAborts(t *testing.T) {
	deps := newTestDeps(t)
	// A filesystem that rejects the bucket mkdir after repository
	// creation makes every store fail fatally.
	bfs := &failingFS{MemoryFileSystem: fsutil.NewMemoryFileSystem()}
	repo, err := store.NewRepository(bfs, "data", "hail")
	require.NoError(t, err)
	bfs.fail = true
	deps.Repo = repo

	scenes := []*radar.Scene{
		testutil.NewTestScene("KDMX", sceneTime, 36, 20, 11),
		testutil.NewTestScene("KAMX", sceneTime, 36, 20, 11),
	}
	summary, err := RunAll(context.Background(), scenes, deps)
	require.Error(t, err)
	var serr *radar.StorageError
	require.ErrorAs(t, err, &serr)
	assert.True(t, serr.Fatal)
	// The second scene was never attempted.
	assert.Len(t, summary.Results, 1)
}

func TestRunAllHonoursContext(t *testing.T) {
	deps := newTestDeps(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunAll(ctx, []*radar.Scene{testutil.NewTestScene("KDMX", sceneTime, 36, 20, 11)}, deps)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&radar.DecodeError{Site: "K"}, "decode"},
		{&radar.InsufficientDataError{Site: "K"}, "insufficient_data"},
		{&radar.ReprojectionError{}, "reprojection"},
		{&radar.StorageError{}, "storage"},
		{errors.New("boom"), "unknown"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, classify(tc.err))
	}
}

type failingFS struct {
	*fsutil.MemoryFileSystem
	fail bool
}

func (f *failingFS) MkdirAll(path string, perm os.FileMode) error {
	if f.fail {
		return errors.New("read-only filesystem")
	}
	return f.MemoryFileSystem.MkdirAll(path, perm)
}
