// Package geo provides the coordinate math for the sweep pipeline:
// great-circle forward solutions from a radar site, per-ray azimuth
// midpoints, and the Web Mercator transforms behind the shared
// reference grid.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used for great-circle range
// projection.
const EarthRadiusKm = 6371.0

const degToRad = math.Pi / 180.0

// Destination computes the geographic point reached by travelling
// distanceKm from (latDeg, lonDeg) along the given true bearing. The
// forward solution is the standard spherical great-circle formula.
func Destination(latDeg, lonDeg, bearingDeg, distanceKm float64) (destLat, destLon float64) {
	lat := latDeg * degToRad
	lon := lonDeg * degToRad
	brg := bearingDeg * degToRad
	delta := distanceKm / EarthRadiusKm

	sinLat, cosLat := math.Sincos(lat)
	sinDelta, cosDelta := math.Sincos(delta)

	lat2 := math.Asin(sinLat*cosDelta + cosLat*sinDelta*math.Cos(brg))
	lon2 := lon + math.Atan2(
		math.Sin(brg)*sinDelta*cosLat,
		cosDelta-sinLat*math.Sin(lat2),
	)

	destLat = lat2 / degToRad
	destLon = normalizeLon(lon2 / degToRad)
	return
}

// AzimuthMidpoint averages a ray's start and end azimuth boundaries.
// Rays that straddle due north (boundary difference above 180 degrees)
// are averaged over the shorter arc, so midpoint(359, 1) is 0 rather
// than 180. The result is normalised to [0, 360).
func AzimuthMidpoint(startDeg, endDeg float64) float64 {
	if math.Abs(startDeg-endDeg) > 180 {
		if startDeg < endDeg {
			startDeg += 360
		} else {
			endDeg += 360
		}
	}
	mid := (startDeg + endDeg) / 2
	return math.Mod(mid+360, 360)
}

// AzimuthMidpoints computes the per-ray midpoint azimuth for parallel
// boundary slices. Both slices must be the same length; the caller
// validates that against the ray count before projection.
func AzimuthMidpoints(startDeg, endDeg []float64) []float64 {
	out := make([]float64, len(startDeg))
	for i := range startDeg {
		out[i] = AzimuthMidpoint(startDeg[i], endDeg[i])
	}
	return out
}

// normalizeLon wraps a longitude into [-180, 180).
func normalizeLon(lonDeg float64) float64 {
	lon := math.Mod(lonDeg+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}
