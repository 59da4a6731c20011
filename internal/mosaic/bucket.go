// Package mosaic composites many stored hail-index scenes over a time
// span: fixed-width time buckets are reduced by elementwise maximum,
// then the bucket results are summed into a cumulative mosaic.
package mosaic

import "time"

// SceneRef points at one stored scene without holding its data. Layers
// are loaded lazily, one bucket at a time, to bound peak memory.
type SceneRef struct {
	Time time.Time
	Path string
}

// Window is a half-open time interval [Start, End).
type Window struct {
	Start, End time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// TimeBucket groups the scenes assigned to one window.
type TimeBucket struct {
	Window Window
	Refs   []SceneRef
}

// Bucket walks forward in fixed-width windows from the earliest scene
// time and assigns each scene to the half-open window containing it, so
// no scene belongs to two buckets. Window boundaries are a function of
// the span's minimum time only, not the calendar. Empty buckets are
// kept; they simply contribute nothing downstream.
func Bucket(refs []SceneRef, width time.Duration) []TimeBucket {
	if len(refs) == 0 || width <= 0 {
		return nil
	}

	minT, maxT := refs[0].Time, refs[0].Time
	for _, r := range refs[1:] {
		if r.Time.Before(minT) {
			minT = r.Time
		}
		if r.Time.After(maxT) {
			maxT = r.Time
		}
	}

	n := int(maxT.Sub(minT)/width) + 1
	buckets := make([]TimeBucket, n)
	for i := range buckets {
		start := minT.Add(time.Duration(i) * width)
		buckets[i].Window = Window{Start: start, End: start.Add(width)}
	}
	for _, r := range refs {
		buckets[r.Time.Sub(minT)/width].Refs = append(buckets[r.Time.Sub(minT)/width].Refs, r)
	}
	return buckets
}
