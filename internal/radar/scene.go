// Package radar holds the domain types for hydrometeor-classification
// radar sweeps: the decoded polar scene, the hail index derivation, and
// the error taxonomy used to scope failures to a single scene.
package radar

import (
	"encoding/json"
	"fmt"
	"time"
)

// Scene is one decoded radar sweep for a single site at a single time.
// Codes is a flat row-major array of classification codes indexed by
// (ray, gate): Codes[ray*Gates+gate]. StartAz/EndAz carry the per-ray
// azimuth boundaries in degrees. A Scene is immutable once decoded.
type Scene struct {
	SiteID      string
	ProductName string
	ProductTime time.Time // UTC
	SiteLat     float64
	SiteLon     float64
	MaxRangeKm  float64
	Rays        int
	Gates       int
	Codes       []uint8
	StartAz     []float64
	EndAz       []float64
}

// Validate checks the structural invariants the decoder is expected to
// uphold. A violation means the scene is malformed and must be dropped
// for this cycle.
func (s *Scene) Validate() error {
	if s.Gates <= 0 {
		return &DecodeError{Site: s.SiteID, Reason: fmt.Sprintf("non-positive gate count %d", s.Gates)}
	}
	if s.Rays <= 0 {
		return &DecodeError{Site: s.SiteID, Reason: fmt.Sprintf("non-positive ray count %d", s.Rays)}
	}
	if len(s.StartAz) != s.Rays || len(s.EndAz) != s.Rays {
		return &DecodeError{
			Site: s.SiteID,
			Reason: fmt.Sprintf("ray count %d does not match azimuth boundary pairs (%d start, %d end)",
				s.Rays, len(s.StartAz), len(s.EndAz)),
		}
	}
	if len(s.Codes) != s.Rays*s.Gates {
		return &DecodeError{
			Site:   s.SiteID,
			Reason: fmt.Sprintf("classification array has %d cells, want %d", len(s.Codes), s.Rays*s.Gates),
		}
	}
	return nil
}

// Code returns the classification code at (ray, gate).
func (s *Scene) Code(ray, gate int) uint8 {
	return s.Codes[ray*s.Gates+gate]
}

// Name returns the canonical scene identifier used for artifact names:
// <site>_<product>_<isotime>.
func (s *Scene) Name() string {
	return fmt.Sprintf("%s_%s_%s", s.SiteID, s.ProductName, s.ProductTime.UTC().Format(time.RFC3339))
}

// sceneJSON mirrors the external decoder's documented output envelope.
// The classification array arrives as a 2D slice indexed [ray][gate].
type sceneJSON struct {
	SiteID      string    `json:"site_id"`
	ProductName string    `json:"product_name"`
	ProductTime time.Time `json:"product_time"`
	SiteLat     float64   `json:"site_lat"`
	SiteLon     float64   `json:"site_lon"`
	MaxRangeKm  float64   `json:"max_range_km"`
	StartAz     []float64 `json:"start_az"`
	EndAz       []float64 `json:"end_az"`
	Codes       [][]uint8 `json:"classification"`
}

// SceneFromJSON parses a decoder output envelope into a Scene and
// validates it. Malformed envelopes surface as DecodeError so callers
// can drop the scene without aborting the run.
func SceneFromJSON(data []byte) (*Scene, error) {
	var env sceneJSON
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &DecodeError{Reason: fmt.Sprintf("invalid scene envelope: %v", err)}
	}

	rays := len(env.Codes)
	gates := 0
	if rays > 0 {
		gates = len(env.Codes[0])
	}

	s := &Scene{
		SiteID:      env.SiteID,
		ProductName: env.ProductName,
		ProductTime: env.ProductTime.UTC(),
		SiteLat:     env.SiteLat,
		SiteLon:     env.SiteLon,
		MaxRangeKm:  env.MaxRangeKm,
		Rays:        rays,
		Gates:       gates,
		StartAz:     env.StartAz,
		EndAz:       env.EndAz,
	}

	s.Codes = make([]uint8, 0, rays*gates)
	for ray, row := range env.Codes {
		if len(row) != gates {
			return nil, &DecodeError{
				Site:   env.SiteID,
				Reason: fmt.Sprintf("ragged classification array: ray %d has %d gates, want %d", ray, len(row), gates),
			}
		}
		s.Codes = append(s.Codes, row...)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
