// Command refgrid generates the shared reference grid cache. The grid
// is deterministic for a given bounding box and resolution, so
// regenerating it is always safe.
package main

import (
	"flag"
	"log"

	"github.com/joho/godotenv"

	"github.com/banshee-data/hailmosaic/internal/config"
	"github.com/banshee-data/hailmosaic/internal/fsutil"
	"github.com/banshee-data/hailmosaic/internal/grid"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to JSON config (defaults apply when empty)")
		force      = flag.Bool("force", false, "rebuild even when the cache file exists")
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

	files := grid.FileStore{FS: fsutil.OSFileSystem{}}
	path := *cfg.ReferenceGridPath

	if *force {
		g, err := grid.BuildReference(cfg.Bounds(), *cfg.ReferenceResolutionM)
		if err != nil {
			log.Fatalf("build reference grid: %v", err)
		}
		if err := files.WriteGrid(path, g); err != nil {
			log.Fatalf("write reference grid: %v", err)
		}
		log.Printf("rebuilt reference grid %dx%d at %s", g.Rows, g.Cols, path)
		return
	}

	g, err := grid.LoadOrBuildReference(files, path, cfg.Bounds(), *cfg.ReferenceResolutionM)
	if err != nil {
		log.Fatalf("reference grid: %v", err)
	}
	log.Printf("reference grid ready: %dx%d at %s", g.Rows, g.Cols, path)
}
