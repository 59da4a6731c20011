package mosaic

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/banshee-data/hailmosaic/internal/fsutil"
	"github.com/banshee-data/hailmosaic/internal/grid"
	"github.com/banshee-data/hailmosaic/internal/monitoring"
	"github.com/banshee-data/hailmosaic/internal/observability"
	"github.com/banshee-data/hailmosaic/internal/store"
)

// MosaicsDir is the repository subdirectory holding per-day mosaics.
const MosaicsDir = "mosaics"

// BuildDays builds one mosaic per day bucket. Days are independent and
// run in parallel up to workers; inside a day the bucket-reduce-then-
// discard sequence stays strictly serial so peak memory remains one
// bucket at a time. A failed or abandoned day never corrupts other
// days' outputs, and re-running a day is idempotent.
func BuildDays(ctx context.Context, repo *store.Repository, ref *grid.Grid, fs fsutil.FileSystem, outRoot string, days []string, width time.Duration, workers int, metrics *observability.Metrics) error {
	if workers < 1 {
		workers = 1
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs []error

	for _, day := range days {
		wg.Add(1)
		go func(day string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := buildDay(ctx, repo, ref, fs, outRoot, day, width, metrics); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("day %s: %w", day, err))
				mu.Unlock()
			}
		}(day)
	}
	wg.Wait()
	return errors.Join(errs...)
}

func buildDay(ctx context.Context, repo *store.Repository, ref *grid.Grid, fs fsutil.FileSystem, outRoot, day string, width time.Duration, metrics *observability.Metrics) error {
	scenes, err := repo.ListDay(day)
	if err != nil {
		return err
	}
	if len(scenes) == 0 {
		monitoring.Logf("no scenes for day %s, skipping", day)
		return nil
	}

	refs := make([]SceneRef, len(scenes))
	for i, s := range scenes {
		refs[i] = SceneRef{Time: s.ProductTime, Path: s.Path}
	}

	start := time.Now()
	m, err := Composite(ctx, refs, width, ref, repo.Load)
	if err != nil {
		return err
	}
	if err := WriteOutputs(fs, m, filepath.Join(outRoot, MosaicsDir, day)); err != nil {
		return err
	}

	if metrics != nil {
		metrics.BucketsReduced.Add(float64(m.Buckets))
		metrics.MosaicBuildDuration.Observe(time.Since(start).Seconds())
	}
	monitoring.Logf("built mosaic for %s: %d scenes in %d buckets", day, m.Scenes, m.Buckets)
	return nil
}
