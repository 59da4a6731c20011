// Package pipeline orchestrates the per-scene processing chain:
// hail index derivation, polar projection, resampling, reprojection
// onto the reference grid, edge trimming, and storage. Failures are
// isolated per site; one bad scene never aborts the others.
package pipeline

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/banshee-data/hailmosaic/internal/grid"
	"github.com/banshee-data/hailmosaic/internal/monitoring"
	"github.com/banshee-data/hailmosaic/internal/observability"
	"github.com/banshee-data/hailmosaic/internal/radar"
	"github.com/banshee-data/hailmosaic/internal/store"
)

// DefaultScaleFactor is the resampling upsample factor applied between
// the polar cloud and the regular grid.
const DefaultScaleFactor = 2

// Deps are the pipeline's injected collaborators. Ref is the shared
// read-only reference grid; it is never mutated here.
type Deps struct {
	Ref         *grid.Grid
	Repo        *store.Repository
	Metrics     *observability.Metrics
	ScaleFactor int
	Clock       clockwork.Clock
}

func (d *Deps) scale() int {
	if d.ScaleFactor < 1 {
		return DefaultScaleFactor
	}
	return d.ScaleFactor
}

func (d *Deps) clock() clockwork.Clock {
	if d.Clock == nil {
		return clockwork.NewRealClock()
	}
	return d.Clock
}

// Run processes one decoded scene end to end and returns the persisted
// artifact path. The intermediate grids are transient: each stage's
// output is handed to the next and dropped.
func Run(ctx context.Context, scene *radar.Scene, deps Deps) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	pc, err := grid.ProjectPolar(scene, radar.HailValues(scene))
	if err != nil {
		return "", err
	}

	regular, err := grid.Resample(pc, deps.scale())
	if err != nil {
		return "", err
	}

	aligned, err := grid.ReprojectMatch(regular, deps.Ref)
	if err != nil {
		return "", err
	}

	return deps.Repo.Store(grid.TrimEmptyEdges(aligned))
}

// Result records the outcome for one scene in a run.
type Result struct {
	Site string
	Path string
	Err  error
}

// Summary aggregates one invocation of RunAll.
type Summary struct {
	RunID   string
	Stored  int
	Dropped int
	Results []Result
}

// RunAll processes each site's scene independently: a decode, resample,
// or reprojection failure drops that scene only. The single exception
// is a fatal StorageError (unusable repository root), which aborts the
// remaining sites because nothing can be persisted.
func RunAll(ctx context.Context, scenes []*radar.Scene, deps Deps) (Summary, error) {
	clk := deps.clock()
	summary := Summary{RunID: uuid.New().String()}

	if deps.Metrics != nil {
		deps.Metrics.RunActive.Set(1)
		defer deps.Metrics.RunActive.Set(0)
	}
	monitoring.Logf("run %s: processing %d scenes", summary.RunID, len(scenes))

	for _, scene := range scenes {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		start := clk.Now()
		path, err := Run(ctx, scene, deps)
		res := Result{Site: scene.SiteID, Path: path, Err: err}
		summary.Results = append(summary.Results, res)

		if err != nil {
			summary.Dropped++
			reason := classify(err)
			if deps.Metrics != nil {
				deps.Metrics.ScenesDropped.WithLabelValues(reason).Inc()
			}
			monitoring.Logf("run %s: dropped scene %s (%s): %v", summary.RunID, scene.SiteID, reason, err)

			var serr *radar.StorageError
			if errors.As(err, &serr) && serr.Fatal {
				return summary, err
			}
			continue
		}

		summary.Stored++
		if deps.Metrics != nil {
			deps.Metrics.ScenesStored.Inc()
			deps.Metrics.SceneDuration.Observe(clk.Since(start).Seconds())
		}
		monitoring.Logf("run %s: stored %s", summary.RunID, path)
	}

	monitoring.Logf("run %s: %d stored, %d dropped", summary.RunID, summary.Stored, summary.Dropped)
	return summary, nil
}

// classify maps an error to its taxonomy label for metrics and logs.
func classify(err error) string {
	var decodeErr *radar.DecodeError
	var dataErr *radar.InsufficientDataError
	var projErr *radar.ReprojectionError
	var storeErr *radar.StorageError
	switch {
	case errors.As(err, &decodeErr):
		return "decode"
	case errors.As(err, &dataErr):
		return "insufficient_data"
	case errors.As(err, &projErr):
		return "reprojection"
	case errors.As(err, &storeErr):
		return "storage"
	default:
		return "unknown"
	}
}
