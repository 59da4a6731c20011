// Package config loads the pipeline configuration from JSON. Fields
// are pointers so a partial file overrides only what it names; omitted
// fields keep their defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/hailmosaic/internal/grid"
)

// Config is the root configuration for ingest and mosaic building.
type Config struct {
	RepositoryRoot   *string `json:"repository_root,omitempty"`
	Collection       *string `json:"collection,omitempty"`
	CatalogPath      *string `json:"catalog_path,omitempty"`
	ScaleFactor      *int    `json:"scale_factor,omitempty"`
	WindowMinutes    *int    `json:"window_minutes,omitempty"`
	LocalOffsetHours *int    `json:"local_offset_hours,omitempty"`
	MosaicWorkers    *int    `json:"mosaic_workers,omitempty"`

	ReferenceGridPath    *string     `json:"reference_grid_path,omitempty"`
	ReferenceResolutionM *float64    `json:"reference_resolution_m,omitempty"`
	ReferenceBounds      *[4]float64 `json:"reference_bounds,omitempty"` // min_lon, min_lat, max_lon, max_lat
}

func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }
func ptrFloat64(v float64) *float64 { return &v }

// Default returns the configuration with every field populated.
func Default() *Config {
	return &Config{
		RepositoryRoot:       ptrString("repository"),
		Collection:           ptrString("hail_index"),
		CatalogPath:          ptrString("repository/catalog.db"),
		ScaleFactor:          ptrInt(2),
		WindowMinutes:        ptrInt(5),
		LocalOffsetHours:     ptrInt(-5),
		MosaicWorkers:        ptrInt(2),
		ReferenceGridPath:    ptrString("repository/reference.grid"),
		ReferenceResolutionM: ptrFloat64(grid.DefaultReferenceResolutionM),
		ReferenceBounds: &[4]float64{
			grid.ConusBounds.MinLon, grid.ConusBounds.MinLat,
			grid.ConusBounds.MaxLon, grid.ConusBounds.MaxLat,
		},
	}
}

// Load reads a JSON config file and merges it over the defaults. The
// file must carry a .json extension and stay under the size cap;
// partial configs are safe.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var overrides Config
	if err := json.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := Default()
	cfg.Merge(&overrides)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Merge copies every non-nil field of o over c.
func (c *Config) Merge(o *Config) {
	if o.RepositoryRoot != nil {
		c.RepositoryRoot = o.RepositoryRoot
	}
	if o.Collection != nil {
		c.Collection = o.Collection
	}
	if o.CatalogPath != nil {
		c.CatalogPath = o.CatalogPath
	}
	if o.ScaleFactor != nil {
		c.ScaleFactor = o.ScaleFactor
	}
	if o.WindowMinutes != nil {
		c.WindowMinutes = o.WindowMinutes
	}
	if o.LocalOffsetHours != nil {
		c.LocalOffsetHours = o.LocalOffsetHours
	}
	if o.MosaicWorkers != nil {
		c.MosaicWorkers = o.MosaicWorkers
	}
	if o.ReferenceGridPath != nil {
		c.ReferenceGridPath = o.ReferenceGridPath
	}
	if o.ReferenceResolutionM != nil {
		c.ReferenceResolutionM = o.ReferenceResolutionM
	}
	if o.ReferenceBounds != nil {
		c.ReferenceBounds = o.ReferenceBounds
	}
}

// Validate rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	if *c.ScaleFactor < 1 {
		return fmt.Errorf("scale_factor must be >= 1, got %d", *c.ScaleFactor)
	}
	if *c.WindowMinutes < 1 {
		return fmt.Errorf("window_minutes must be >= 1, got %d", *c.WindowMinutes)
	}
	if *c.ReferenceResolutionM <= 0 {
		return fmt.Errorf("reference_resolution_m must be positive, got %v", *c.ReferenceResolutionM)
	}
	b := c.Bounds()
	if b.MinLon >= b.MaxLon || b.MinLat >= b.MaxLat {
		return fmt.Errorf("reference_bounds must describe a non-empty box, got %+v", b)
	}
	return nil
}

// Window returns the mosaic bucket width.
func (c *Config) Window() time.Duration {
	return time.Duration(*c.WindowMinutes) * time.Minute
}

// LocalOffset returns the UTC offset for date buckets.
func (c *Config) LocalOffset() time.Duration {
	return time.Duration(*c.LocalOffsetHours) * time.Hour
}

// Bounds returns the reference grid extent.
func (c *Config) Bounds() grid.BoundingBox {
	b := *c.ReferenceBounds
	return grid.BoundingBox{MinLon: b[0], MinLat: b[1], MaxLon: b[2], MaxLat: b[3]}
}
