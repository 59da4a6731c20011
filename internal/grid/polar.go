package grid

import (
	"github.com/banshee-data/hailmosaic/internal/geo"
	"github.com/banshee-data/hailmosaic/internal/radar"
)

// PointCloud is the irregular output of polar projection: one
// (lat, lon, value) triple per original polar cell. The projection is
// nonlinear, so every cell carries its own coordinates rather than a
// separable axis pair. Rays and Gates record the source shape for the
// resampler's target sizing.
type PointCloud struct {
	Lat, Lon, Value []float64
	Rays, Gates     int
	Meta            Meta
}

// ProjectPolar maps a scene's polar cells into geographic coordinates.
// Per-ray azimuth is the boundary midpoint; the range axis is evenly
// spaced from 0 to the scene's max range across the gate count. values
// must be the scene's derived cell values in (ray, gate) layout,
// typically radar.HailValues(scene).
func ProjectPolar(s *radar.Scene, values []float64) (*PointCloud, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if len(values) != s.Rays*s.Gates {
		return nil, &radar.DecodeError{Site: s.SiteID, Reason: "value array does not match scene shape"}
	}

	azimuths := geo.AzimuthMidpoints(s.StartAz, s.EndAz)

	// Evenly spaced range samples from 0 to max range. A single gate
	// degenerates to range 0 at the site.
	ranges := make([]float64, s.Gates)
	if s.Gates > 1 {
		step := s.MaxRangeKm / float64(s.Gates-1)
		for g := range ranges {
			ranges[g] = float64(g) * step
		}
	}

	n := s.Rays * s.Gates
	pc := &PointCloud{
		Lat:   make([]float64, n),
		Lon:   make([]float64, n),
		Value: append([]float64(nil), values...),
		Rays:  s.Rays,
		Gates: s.Gates,
		Meta: Meta{
			SiteID:      s.SiteID,
			SiteLat:     s.SiteLat,
			SiteLon:     s.SiteLon,
			MaxRangeKm:  s.MaxRangeKm,
			ProductName: s.ProductName,
			ProductTime: s.ProductTime.UTC(),
		},
	}

	for ray := 0; ray < s.Rays; ray++ {
		az := azimuths[ray]
		for gate := 0; gate < s.Gates; gate++ {
			lat, lon := geo.Destination(s.SiteLat, s.SiteLon, az, ranges[gate])
			idx := ray*s.Gates + gate
			pc.Lat[idx] = lat
			pc.Lon[idx] = lon
		}
	}

	return pc, nil
}
