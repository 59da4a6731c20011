package radar

// Hydrometeor classification codes that indicate hail. Codes 10..12 map
// to hail index 1..3; everything else is index 0.
const (
	hailCodeMin = 10
	hailCodeMax = 12
)

// HailIndex derives the 0-3 hail index from a classification code.
// Codes outside [10,12] are defined to be 0, not no-data: the zero must
// participate in downstream sums.
func HailIndex(code uint8) float64 {
	if code < hailCodeMin || code > hailCodeMax {
		return 0
	}
	return float64(code - 9)
}

// HailValues maps a whole scene's classification array to hail index
// values, preserving the (ray, gate) layout.
func HailValues(s *Scene) []float64 {
	out := make([]float64, len(s.Codes))
	for i, c := range s.Codes {
		out[i] = HailIndex(c)
	}
	return out
}
