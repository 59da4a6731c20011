// Command ingest runs the per-scene pipeline once over a directory of
// decoded scene envelopes: hail index, polar projection, resampling,
// alignment to the reference grid, and storage in the repository.
// Scheduling and scene retrieval live outside this binary.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/banshee-data/hailmosaic/internal/config"
	"github.com/banshee-data/hailmosaic/internal/fsutil"
	"github.com/banshee-data/hailmosaic/internal/grid"
	"github.com/banshee-data/hailmosaic/internal/observability"
	"github.com/banshee-data/hailmosaic/internal/pipeline"
	"github.com/banshee-data/hailmosaic/internal/radar"
	"github.com/banshee-data/hailmosaic/internal/store"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to JSON config (defaults apply when empty)")
		scenesDir  = flag.String("scenes", "", "directory of decoded scene JSON envelopes")
	)
	flag.Parse()

	if *scenesDir == "" {
		log.Fatal("missing required -scenes directory")
	}

	// Optional .env for local runs; absence is not an error.
	_ = godotenv.Load()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = loaded
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fs := fsutil.OSFileSystem{}
	ref, err := grid.LoadOrBuildReference(grid.FileStore{FS: fs}, *cfg.ReferenceGridPath, cfg.Bounds(), *cfg.ReferenceResolutionM)
	if err != nil {
		log.Fatalf("reference grid: %v", err)
	}

	catalog, err := openCatalog(fs, *cfg.CatalogPath)
	if err != nil {
		log.Fatalf("open catalog: %v", err)
	}
	defer catalog.Close()

	repo, err := store.NewRepository(fs, *cfg.RepositoryRoot, *cfg.Collection,
		store.WithLocalOffset(cfg.LocalOffset()),
		store.WithCatalog(catalog),
	)
	if err != nil {
		log.Fatalf("open repository: %v", err)
	}

	scenes, err := readScenes(*scenesDir)
	if err != nil {
		log.Fatalf("read scenes: %v", err)
	}
	if len(scenes) == 0 {
		log.Printf("no scenes found in %s", *scenesDir)
		return
	}

	metrics := observability.NewMetrics()
	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		log.Fatalf("register metrics: %v", err)
	}

	summary, err := pipeline.RunAll(ctx, scenes, pipeline.Deps{
		Ref:         ref,
		Repo:        repo,
		Metrics:     metrics,
		ScaleFactor: *cfg.ScaleFactor,
	})
	if err != nil {
		log.Fatalf("run %s aborted: %v", summary.RunID, err)
	}
	log.Printf("run %s complete: %d stored, %d dropped", summary.RunID, summary.Stored, summary.Dropped)
}

func openCatalog(fs fsutil.FileSystem, path string) (*store.Catalog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	return store.OpenCatalog(path)
}

// readScenes parses every .json envelope in dir. Envelopes that fail to
// decode are skipped with a log line; decode isolation starts here.
func readScenes(dir string) ([]*radar.Scene, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var scenes []*radar.Scene
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		scene, err := radar.SceneFromJSON(data)
		if err != nil {
			log.Printf("skipping %s: %v", e.Name(), err)
			continue
		}
		scenes = append(scenes, scene)
	}
	return scenes, nil
}
