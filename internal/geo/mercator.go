package geo

import "math"

// CRS tags carried by grids. Only the two frames the pipeline actually
// produces are supported; anything else is irreconcilable.
const (
	CRSWGS84       = "EPSG:4326"
	CRSWebMercator = "EPSG:3857"
)

// webMercatorRadius is the WGS84 semi-major axis used by the spherical
// Web Mercator projection, in meters.
const webMercatorRadius = 6378137.0

// ToWebMercator projects geographic coordinates onto spherical Web
// Mercator (EPSG:3857) easting/northing in meters.
func ToWebMercator(latDeg, lonDeg float64) (x, y float64) {
	x = webMercatorRadius * lonDeg * degToRad
	y = webMercatorRadius * math.Log(math.Tan(math.Pi/4+latDeg*degToRad/2))
	return
}

// FromWebMercator inverts ToWebMercator.
func FromWebMercator(x, y float64) (latDeg, lonDeg float64) {
	lonDeg = x / webMercatorRadius / degToRad
	latDeg = (2*math.Atan(math.Exp(y/webMercatorRadius)) - math.Pi/2) / degToRad
	return
}
