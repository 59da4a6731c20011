package radar

import "fmt"

// DecodeError marks a malformed input scene. The scene is skipped for
// this cycle and not retried here.
type DecodeError struct {
	Site   string
	Reason string
}

func (e *DecodeError) Error() string {
	if e.Site == "" {
		return fmt.Sprintf("decode: %s", e.Reason)
	}
	return fmt.Sprintf("decode %s: %s", e.Site, e.Reason)
}

// InsufficientDataError marks a scene whose point cloud cannot support
// interpolation (fewer than 3 non-collinear points). The scene is
// dropped and logged.
type InsufficientDataError struct {
	Site   string
	Points int
	Reason string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("resample %s: %s (%d points)", e.Site, e.Reason, e.Points)
}

// ReprojectionError marks a CRS or extent mismatch that cannot be
// reconciled. Fatal for the scene only.
type ReprojectionError struct {
	SrcCRS string
	DstCRS string
	Reason string
}

func (e *ReprojectionError) Error() string {
	return fmt.Sprintf("reproject %s -> %s: %s", e.SrcCRS, e.DstCRS, e.Reason)
}

// StorageError marks a repository write failure. When Fatal is set the
// repository root itself is unusable and the whole run must stop;
// otherwise the failure is scoped to one scene.
type StorageError struct {
	Path  string
	Fatal bool
	Err   error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
