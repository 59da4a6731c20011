package grid

import (
	"bytes"
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"path/filepath"
	"time"

	"github.com/banshee-data/hailmosaic/internal/fsutil"
	"github.com/banshee-data/hailmosaic/internal/geo"
)

// envelopeVersion guards the artifact layout; bump on incompatible
// changes to gridEnvelope.
const envelopeVersion = 1

// gridEnvelope is the persisted artifact layout: the grid plus the
// scene attributes the external interface requires (site, location,
// range, product, time, CRS tag).
type gridEnvelope struct {
	Version     int
	Rows, Cols  int
	Y, X        []float64
	Values      []float64
	CRS         string
	SiteID      string
	SiteLat     float64
	SiteLon     float64
	MaxRangeKm  float64
	ProductName string
	ProductTime time.Time
}

// Encode serialises a grid into the compressed artifact format
// (gob-encoded envelope under gzip).
func Encode(g *Grid) ([]byte, error) {
	env := gridEnvelope{
		Version:     envelopeVersion,
		Rows:        g.Rows,
		Cols:        g.Cols,
		Y:           g.Y,
		X:           g.X,
		Values:      g.Values,
		CRS:         g.CRS,
		SiteID:      g.Meta.SiteID,
		SiteLat:     g.Meta.SiteLat,
		SiteLon:     g.Meta.SiteLon,
		MaxRangeKm:  g.Meta.MaxRangeKm,
		ProductName: g.Meta.ProductName,
		ProductTime: g.Meta.ProductTime,
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	enc := gob.NewEncoder(gz)
	if err := enc.Encode(env); err != nil {
		gz.Close()
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reverses Encode.
func Decode(blob []byte) (*Grid, error) {
	if len(blob) == 0 {
		return nil, fmt.Errorf("empty grid artifact")
	}
	gz, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()

	var env gridEnvelope
	dec := gob.NewDecoder(gz)
	if err := dec.Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode grid artifact: %w", err)
	}
	if env.Version != envelopeVersion {
		return nil, fmt.Errorf("unsupported grid artifact version %d", env.Version)
	}
	if env.CRS == "" {
		env.CRS = geo.CRSWGS84
	}

	return &Grid{
		Rows:   env.Rows,
		Cols:   env.Cols,
		Y:      env.Y,
		X:      env.X,
		Values: env.Values,
		CRS:    env.CRS,
		Meta: Meta{
			SiteID:      env.SiteID,
			SiteLat:     env.SiteLat,
			SiteLon:     env.SiteLon,
			MaxRangeKm:  env.MaxRangeKm,
			ProductName: env.ProductName,
			ProductTime: env.ProductTime,
		},
	}, nil
}

// FileStore reads and writes grid artifacts through a FileSystem. It
// satisfies ReferenceStore.
type FileStore struct {
	FS fsutil.FileSystem
}

// ReadGrid loads and decodes the artifact at path.
func (s FileStore) ReadGrid(path string) (*Grid, error) {
	blob, err := s.FS.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(blob)
}

// WriteGrid encodes g and writes it to path, creating parent
// directories as needed.
func (s FileStore) WriteGrid(path string, g *Grid) error {
	blob, err := Encode(g)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := s.FS.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return s.FS.WriteFile(path, blob, 0644)
}

// Exists reports whether an artifact exists at path.
func (s FileStore) Exists(path string) bool {
	return s.FS.Exists(path)
}
