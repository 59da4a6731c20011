// Command mosaic builds per-day hail exposure mosaics from the scene
// repository: scenes are bucketed into fixed windows, max-reduced per
// bucket, and summed. Days run in parallel; each day is idempotent.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/banshee-data/hailmosaic/internal/config"
	"github.com/banshee-data/hailmosaic/internal/fsutil"
	"github.com/banshee-data/hailmosaic/internal/grid"
	"github.com/banshee-data/hailmosaic/internal/mosaic"
	"github.com/banshee-data/hailmosaic/internal/observability"
	"github.com/banshee-data/hailmosaic/internal/store"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to JSON config (defaults apply when empty)")
		day        = flag.String("day", "", "single day bucket (YYYY-MM-DD); all days when empty")
		rescan     = flag.Bool("rescan", false, "rebuild the scene catalog from the repository tree first")
	)
	flag.Parse()

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

	catalog, err := store.OpenCatalog(*cfg.CatalogPath)
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

	if *rescan {
		if err := repo.Rescan(); err != nil {
			log.Fatalf("rescan: %v", err)
		}
	}

	days := []string{*day}
	if *day == "" {
		days, err = repo.Days()
		if err != nil {
			log.Fatalf("list days: %v", err)
		}
		if len(days) == 0 {
			log.Print("repository holds no day buckets")
			return
		}
	}

	metrics := observability.NewMetrics()
	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		log.Fatalf("register metrics: %v", err)
	}

	err = mosaic.BuildDays(ctx, repo, ref, fs, *cfg.RepositoryRoot, days, cfg.Window(), *cfg.MosaicWorkers, metrics)
	if err != nil {
		log.Fatalf("mosaic build: %v", err)
	}
	log.Printf("built mosaics for %d day(s)", len(days))
}
