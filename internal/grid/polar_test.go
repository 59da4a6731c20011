package grid

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/banshee-data/hailmosaic/internal/radar"
)

func testScene(rays, gates int) *radar.Scene {
	s := &radar.Scene{
		SiteID:      "KDMX",
		ProductName: "HHC",
		ProductTime: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		SiteLat:     41.73,
		SiteLon:     -93.72,
		MaxRangeKm:  100,
		Rays:        rays,
		Gates:       gates,
		Codes:       make([]uint8, rays*gates),
		StartAz:     make([]float64, rays),
		EndAz:       make([]float64, rays),
	}
	step := 360.0 / float64(rays)
	for r := 0; r < rays; r++ {
		s.StartAz[r] = float64(r) * step
		s.EndAz[r] = float64(r+1) * step
	}
	return s
}

func TestProjectPolarShape(t *testing.T) {
	s := testScene(8, 5)
	pc, err := ProjectPolar(s, radar.HailValues(s))
	if err != nil {
		t.Fatalf("ProjectPolar: %v", err)
	}
	if n := s.Rays * s.Gates; len(pc.Lat) != n || len(pc.Lon) != n || len(pc.Value) != n {
		t.Fatalf("cloud size = %d/%d/%d, want %d", len(pc.Lat), len(pc.Lon), len(pc.Value), n)
	}
	if pc.Rays != 8 || pc.Gates != 5 {
		t.Errorf("cloud shape = %dx%d, want 8x5", pc.Rays, pc.Gates)
	}
	if pc.Meta.SiteID != "KDMX" {
		t.Errorf("Meta.SiteID = %q, want KDMX", pc.Meta.SiteID)
	}
}

func TestProjectPolarGeometry(t *testing.T) {
	// A due-north ray must walk straight up in latitude at constant
	// longitude, starting at the site.
	s := testScene(4, 3)
	// Ray 0 boundaries straddle north so its midpoint is exactly 0.
	s.StartAz = []float64{359, 89, 179, 269}
	s.EndAz = []float64{1, 91, 181, 271}

	pc, err := ProjectPolar(s, radar.HailValues(s))
	if err != nil {
		t.Fatalf("ProjectPolar: %v", err)
	}

	// Gate 0 of every ray is the site itself.
	for ray := 0; ray < s.Rays; ray++ {
		idx := ray * s.Gates
		if math.Abs(pc.Lat[idx]-s.SiteLat) > 1e-9 || math.Abs(pc.Lon[idx]-s.SiteLon) > 1e-9 {
			t.Errorf("ray %d gate 0 = (%v, %v), want site", ray, pc.Lat[idx], pc.Lon[idx])
		}
	}

	// Along the northward ray, latitude strictly increases and
	// longitude stays put.
	for gate := 1; gate < s.Gates; gate++ {
		if pc.Lat[gate] <= pc.Lat[gate-1] {
			t.Errorf("gate %d: lat %v not above %v", gate, pc.Lat[gate], pc.Lat[gate-1])
		}
		if math.Abs(pc.Lon[gate]-s.SiteLon) > 1e-9 {
			t.Errorf("gate %d: lon %v drifted from %v", gate, pc.Lon[gate], s.SiteLon)
		}
	}
}

func TestProjectPolarRejectsMalformedScene(t *testing.T) {
	s := testScene(4, 3)
	s.EndAz = s.EndAz[:2]
	_, err := ProjectPolar(s, radar.HailValues(s))
	var decodeErr *radar.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("error = %v, want DecodeError", err)
	}
}

func TestProjectPolarRejectsValueMismatch(t *testing.T) {
	s := testScene(4, 3)
	_, err := ProjectPolar(s, make([]float64, 5))
	var decodeErr *radar.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("error = %v, want DecodeError", err)
	}
}
