package geo

import (
	"math"
	"testing"
)

func TestWebMercatorOrigin(t *testing.T) {
	x, y := ToWebMercator(0, 0)
	if x != 0 {
		t.Errorf("x = %v, want 0", x)
	}
	if math.Abs(y) > 1e-6 {
		t.Errorf("y = %v, want 0", y)
	}
}

func TestWebMercatorKnownValue(t *testing.T) {
	// One degree of longitude at any latitude spans R * pi/180 meters
	// of easting in Web Mercator.
	x, _ := ToWebMercator(45, 1)
	want := 6378137.0 * math.Pi / 180
	if math.Abs(x-want) > 1e-6 {
		t.Errorf("x = %v, want %v", x, want)
	}
}

func TestWebMercatorRoundTrip(t *testing.T) {
	coords := [][2]float64{
		{0, 0}, {41.73, -93.72}, {-33.87, 151.21}, {49.9, -124.99}, {24, -66},
	}
	for _, c := range coords {
		x, y := ToWebMercator(c[0], c[1])
		lat, lon := FromWebMercator(x, y)
		if math.Abs(lat-c[0]) > 1e-9 || math.Abs(lon-c[1]) > 1e-9 {
			t.Errorf("round trip (%v, %v) -> (%v, %v)", c[0], c[1], lat, lon)
		}
	}
}

func TestWebMercatorMonotonic(t *testing.T) {
	// Strictly increasing northing with latitude keeps reference grid
	// axes strictly monotonic.
	_, y1 := ToWebMercator(24, -95)
	_, y2 := ToWebMercator(50, -95)
	if y2 <= y1 {
		t.Errorf("northing not increasing: %v then %v", y1, y2)
	}
}
