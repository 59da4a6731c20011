// Package testutil provides shared fixtures and assertion helpers for
// pipeline tests.
package testutil

import (
	"math"
	"testing"
	"time"

	"github.com/banshee-data/hailmosaic/internal/radar"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// NearlyEqual reports whether a and b agree within tol. NaN equals NaN.
func NearlyEqual(a, b, tol float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return math.Abs(a-b) <= tol
}

// NewTestScene builds a valid decoded scene with rays evenly covering
// the full circle and a classification fill value everywhere.
func NewTestScene(site string, at time.Time, rays, gates int, fill uint8) *radar.Scene {
	s := &radar.Scene{
		SiteID:      site,
		ProductName: "HHC",
		ProductTime: at.UTC(),
		SiteLat:     41.73,
		SiteLon:     -93.72,
		MaxRangeKm:  50,
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
	for i := range s.Codes {
		s.Codes[i] = fill
	}
	return s
}
