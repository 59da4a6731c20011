// Package store persists processed scenes under a date-bucketed layout
// and keeps a SQLite catalog so listing a time span does not re-decode
// artifacts. The filesystem is the source of truth; the catalog is an
// index.
package store

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/banshee-data/hailmosaic/internal/fsutil"
	"github.com/banshee-data/hailmosaic/internal/grid"
	"github.com/banshee-data/hailmosaic/internal/monitoring"
	"github.com/banshee-data/hailmosaic/internal/radar"
)

// DefaultLocalOffset shifts UTC acquisition times into the local
// calendar used for date buckets (UTC-5). Two scenes at the same UTC
// instant can land in different buckets only when the offset moves one
// across local midnight, which is the intended behaviour.
const DefaultLocalOffset = -5 * time.Hour

// ArtifactExt is the persisted scene artifact extension.
const ArtifactExt = ".grid"

// dayLayout is the date-bucket directory name format.
const dayLayout = "2006-01-02"

var dayDirPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// StoredScene identifies one persisted scene artifact.
type StoredScene struct {
	SiteID      string
	ProductName string
	ProductTime time.Time // UTC
	Day         string    // local calendar date bucket
	Path        string
}

// Repository stores and enumerates scene artifacts under
// root/<collection>/<local-date>/<site>_<product>_<isotime>.grid.
type Repository struct {
	fs         fsutil.FileSystem
	files      grid.FileStore
	root       string
	collection string
	offset     time.Duration
	catalog    *Catalog
	clock      clockwork.Clock
}

// Option configures a Repository.
type Option func(*Repository)

// WithLocalOffset overrides the UTC offset used for date buckets.
func WithLocalOffset(d time.Duration) Option {
	return func(r *Repository) { r.offset = d }
}

// WithCatalog attaches a scene catalog; stores are recorded in it and
// listings are served from it.
func WithCatalog(c *Catalog) Option {
	return func(r *Repository) { r.catalog = c }
}

// WithClock overrides the repository clock (catalog bookkeeping only).
func WithClock(c clockwork.Clock) Option {
	return func(r *Repository) { r.clock = c }
}

// NewRepository creates the collection directory and returns a
// repository rooted there. An unusable root is a fatal StorageError:
// nothing in this run can be persisted.
func NewRepository(fs fsutil.FileSystem, root, collection string, opts ...Option) (*Repository, error) {
	r := &Repository{
		fs:         fs,
		files:      grid.FileStore{FS: fs},
		root:       root,
		collection: collection,
		offset:     DefaultLocalOffset,
		clock:      clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(r)
	}

	dir := filepath.Join(root, collection)
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return nil, &radar.StorageError{Path: dir, Fatal: true, Err: err}
	}
	return r, nil
}

// Day computes the local calendar date bucket for a UTC acquisition
// time.
func (r *Repository) Day(t time.Time) string {
	return t.UTC().Add(r.offset).Format(dayLayout)
}

// PathFor returns the destination path for a layer. Deterministic:
// identical (site, product, time) always yields the identical path.
func (r *Repository) PathFor(g *grid.Grid) string {
	return filepath.Join(r.root, r.collection, r.Day(g.Meta.ProductTime), g.Name()+ArtifactExt)
}

// Store writes the layer to its destination path, creating the date
// bucket if absent, and records it in the catalog when one is attached.
// A repeated store to the same destination is last-write-wins.
func (r *Repository) Store(g *grid.Grid) (string, error) {
	dest := r.PathFor(g)
	// A failed bucket mkdir means the collection root itself is no
	// longer writable: nothing else in this run can be persisted.
	if err := r.fs.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", &radar.StorageError{Path: filepath.Dir(dest), Fatal: true, Err: err}
	}
	if err := r.files.WriteGrid(dest, g); err != nil {
		return "", &radar.StorageError{Path: dest, Err: err}
	}

	if r.catalog != nil {
		scene := StoredScene{
			SiteID:      g.Meta.SiteID,
			ProductName: g.Meta.ProductName,
			ProductTime: g.Meta.ProductTime.UTC(),
			Day:         r.Day(g.Meta.ProductTime),
			Path:        dest,
		}
		if err := r.catalog.Upsert(r.collection, scene, r.clock.Now()); err != nil {
			// The artifact is on disk; a catalog miss is repairable via
			// Rescan. Log and keep the write.
			monitoring.Logf("catalog record failed for %s: %v", dest, err)
		}
	}
	return dest, nil
}

// Load reads a stored layer back.
func (r *Repository) Load(path string) (*grid.Grid, error) {
	return r.files.ReadGrid(path)
}

// Days enumerates the date buckets present in the collection, sorted.
func (r *Repository) Days() ([]string, error) {
	entries, err := r.fs.ReadDir(filepath.Join(r.root, r.collection))
	if err != nil {
		return nil, fmt.Errorf("list day buckets: %w", err)
	}
	var days []string
	for _, e := range entries {
		if e.IsDir() && dayDirPattern.MatchString(e.Name()) {
			days = append(days, e.Name())
		}
	}
	sort.Strings(days)
	return days, nil
}

// ListDay enumerates the scenes stored under one date bucket, ordered
// by acquisition time. Served from the catalog when attached, otherwise
// from the directory layout.
func (r *Repository) ListDay(day string) ([]StoredScene, error) {
	if r.catalog != nil {
		return r.catalog.ListDay(r.collection, day)
	}
	return r.scanDay(day)
}

// List enumerates every scene in the collection ordered by acquisition
// time.
func (r *Repository) List() ([]StoredScene, error) {
	if r.catalog != nil {
		return r.catalog.List(r.collection)
	}

	days, err := r.Days()
	if err != nil {
		return nil, err
	}
	var all []StoredScene
	for _, day := range days {
		scenes, err := r.scanDay(day)
		if err != nil {
			return nil, err
		}
		all = append(all, scenes...)
	}
	sortScenes(all)
	return all, nil
}

// Rescan rebuilds the catalog from the directory tree. Used after
// catalog loss or out-of-band writes.
func (r *Repository) Rescan() error {
	if r.catalog == nil {
		return fmt.Errorf("no catalog attached")
	}
	if err := r.catalog.Clear(r.collection); err != nil {
		return err
	}
	days, err := r.Days()
	if err != nil {
		return err
	}
	now := r.clock.Now()
	for _, day := range days {
		scenes, err := r.scanDay(day)
		if err != nil {
			return err
		}
		for _, s := range scenes {
			if err := r.catalog.Upsert(r.collection, s, now); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Repository) scanDay(day string) ([]StoredScene, error) {
	dir := filepath.Join(r.root, r.collection, day)
	entries, err := r.fs.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list day %s: %w", day, err)
	}

	var scenes []StoredScene
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ArtifactExt) {
			continue
		}
		s, err := parseArtifactName(e.Name())
		if err != nil {
			monitoring.Logf("skipping unrecognised artifact %s: %v", e.Name(), err)
			continue
		}
		s.Day = day
		s.Path = filepath.Join(dir, e.Name())
		scenes = append(scenes, s)
	}
	sortScenes(scenes)
	return scenes, nil
}

// parseArtifactName splits <site>_<product>_<isotime>.grid. Product
// names may themselves contain underscores; site ids do not.
func parseArtifactName(name string) (StoredScene, error) {
	base := strings.TrimSuffix(name, ArtifactExt)
	first := strings.Index(base, "_")
	last := strings.LastIndex(base, "_")
	if first < 0 || first == last {
		return StoredScene{}, fmt.Errorf("want <site>_<product>_<isotime>%s", ArtifactExt)
	}
	t, err := time.Parse(time.RFC3339, base[last+1:])
	if err != nil {
		return StoredScene{}, fmt.Errorf("bad timestamp: %w", err)
	}
	return StoredScene{
		SiteID:      base[:first],
		ProductName: base[first+1 : last],
		ProductTime: t.UTC(),
	}, nil
}

func sortScenes(scenes []StoredScene) {
	sort.Slice(scenes, func(i, j int) bool {
		if scenes[i].ProductTime.Equal(scenes[j].ProductTime) {
			return scenes[i].Path < scenes[j].Path
		}
		return scenes[i].ProductTime.Before(scenes[j].ProductTime)
	})
}
