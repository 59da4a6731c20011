package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Catalog is the SQLite index of stored scenes. It exists so that
// mosaic building can enumerate a day's scenes ordered by time without
// re-reading artifact files.
type Catalog struct {
	db *sql.DB
}

// OpenCatalog opens (creating if needed) the catalog database at path
// and applies pending schema migrations.
func OpenCatalog(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	c := &Catalog{db: db}
	if err := c.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// migrateUp applies all pending migrations from the embedded directory.
func (c *Catalog) migrateUp() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(c.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("migration setup: %w", err)
	}
	// Note: m is not closed here because that would close the
	// underlying DB connection.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (c *Catalog) Close() error { return c.db.Close() }

// Upsert records a stored scene. A repeated store to the same path is
// last-write-wins, matching the filesystem behaviour.
func (c *Catalog) Upsert(collection string, s StoredScene, storedAt time.Time) error {
	query := `
		INSERT INTO scenes (path, collection, site_id, product_name, product_time_ns, day, stored_at_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			site_id = excluded.site_id,
			product_name = excluded.product_name,
			product_time_ns = excluded.product_time_ns,
			day = excluded.day,
			stored_at_ns = excluded.stored_at_ns
	`
	_, err := c.db.Exec(query,
		s.Path,
		collection,
		s.SiteID,
		s.ProductName,
		s.ProductTime.UTC().UnixNano(),
		s.Day,
		storedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("upsert scene: %w", err)
	}
	return nil
}

// List returns every scene in a collection ordered by acquisition time.
func (c *Catalog) List(collection string) ([]StoredScene, error) {
	query := `
		SELECT path, site_id, product_name, product_time_ns, day
		FROM scenes
		WHERE collection = ?
		ORDER BY product_time_ns, path
	`
	return c.query(query, collection)
}

// ListDay returns one day bucket's scenes ordered by acquisition time.
func (c *Catalog) ListDay(collection, day string) ([]StoredScene, error) {
	query := `
		SELECT path, site_id, product_name, product_time_ns, day
		FROM scenes
		WHERE collection = ? AND day = ?
		ORDER BY product_time_ns, path
	`
	return c.query(query, collection, day)
}

// Clear removes all records for a collection (used by Rescan).
func (c *Catalog) Clear(collection string) error {
	if _, err := c.db.Exec(`DELETE FROM scenes WHERE collection = ?`, collection); err != nil {
		return fmt.Errorf("clear catalog: %w", err)
	}
	return nil
}

func (c *Catalog) query(query string, args ...interface{}) ([]StoredScene, error) {
	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query scenes: %w", err)
	}
	defer rows.Close()

	var scenes []StoredScene
	for rows.Next() {
		var s StoredScene
		var ns int64
		if err := rows.Scan(&s.Path, &s.SiteID, &s.ProductName, &ns, &s.Day); err != nil {
			return nil, fmt.Errorf("scan scene row: %w", err)
		}
		s.ProductTime = time.Unix(0, ns).UTC()
		scenes = append(scenes, s)
	}
	return scenes, rows.Err()
}
