package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/oasis-home/oasis-control/internal/infrastructure/config"
)

// Store configuration constants.
const (
	// dirPermissions is the permission mode for the database directory.
	dirPermissions = 0750

	// msPerSecond converts seconds to milliseconds for the busy timeout.
	msPerSecond = 1000

	// connectionTimeout bounds the connectivity check on open.
	connectionTimeout = 5 * time.Second
)

const schema = `
CREATE TABLE IF NOT EXISTS tracks (
	id                  INTEGER PRIMARY KEY,
	name                TEXT NOT NULL,
	author              TEXT NOT NULL DEFAULT '',
	image               TEXT NOT NULL DEFAULT '',
	svg_content         TEXT NOT NULL DEFAULT '',
	reduced_svg_content INTEGER NOT NULL DEFAULT 0,
	updated_at          TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// Store is the SQLite-backed track catalog.
//
// It holds the persistent copy of cloud track metadata; Load materialises
// it into a read-only Catalog for lookups.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates (or opens) the catalog database.
//
// It performs the following setup:
//  1. Creates the database directory if it doesn't exist
//  2. Opens the database file with busy-timeout and optional WAL pragmas
//  3. Creates the tracks table if missing
//  4. Verifies the connection with a ping
//
// Parameters:
//   - cfg: Catalog configuration from config.yaml
//
// Returns:
//   - *Store: Open store ready for use
//   - error: If the file cannot be opened or the schema cannot be applied
func Open(cfg config.CatalogConfig) (*Store, error) {
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("creating catalog directory: %w", err)
	}

	// See: https://github.com/mattn/go-sqlite3#connection-string
	connStr := fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=on",
		cfg.Path,
		cfg.BusyTimeout*msPerSecond,
	)
	if cfg.WALMode {
		connStr += "&_journal_mode=WAL&_synchronous=NORMAL"
	}

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening catalog database: %w", err)
	}

	// SQLite only supports one writer; the catalog is read-mostly anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("verifying catalog database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying catalog schema: %w", err)
	}

	return &Store{db: db, path: cfg.Path}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load reads every track row into a read-only Catalog.
func (s *Store) Load(ctx context.Context) (*Catalog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, author, image, svg_content, reduced_svg_content FROM tracks`)
	if err != nil {
		return nil, fmt.Errorf("loading tracks: %w", err)
	}
	defer rows.Close()

	var tracks []Track
	for rows.Next() {
		var t Track
		if err := rows.Scan(&t.ID, &t.Name, &t.Author, &t.Image, &t.SVGContent, &t.ReducedSVGContent); err != nil {
			return nil, fmt.Errorf("scanning track row: %w", err)
		}
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating track rows: %w", err)
	}

	return New(tracks), nil
}

// Upsert inserts or replaces catalog rows. Used by the refresh path that
// pulls the public track listing from the cloud.
func (s *Store) Upsert(ctx context.Context, tracks []Track) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting catalog transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tracks (id, name, author, image, svg_content, reduced_svg_content, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			author = excluded.author,
			image = excluded.image,
			svg_content = excluded.svg_content,
			reduced_svg_content = excluded.reduced_svg_content,
			updated_at = CURRENT_TIMESTAMP`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, t := range tracks {
		if _, err := stmt.ExecContext(ctx, t.ID, t.Name, t.Author, t.Image, t.SVGContent, t.ReducedSVGContent); err != nil {
			return fmt.Errorf("upserting track %d: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing catalog transaction: %w", err)
	}
	return nil
}

// TrackSource supplies the public track listing for Refresh. The cloud
// client satisfies it.
type TrackSource interface {
	TrackIDs(ctx context.Context) ([]int, error)
	Tracks(ctx context.Context, ids []int) ([]Track, error)
}

// Refresh pulls the public track listing from src and upserts every track
// into the store. Existing rows are updated in place.
//
// Parameters:
//   - ctx: Context for cancellation
//   - src: Listing source, typically the cloud client
//
// Returns:
//   - int: Number of tracks written
//   - error: If the listing or the write fails
func (s *Store) Refresh(ctx context.Context, src TrackSource) (int, error) {
	ids, err := src.TrackIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing track ids: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	tracks, err := src.Tracks(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("fetching tracks: %w", err)
	}

	if err := s.Upsert(ctx, tracks); err != nil {
		return 0, err
	}
	return len(tracks), nil
}

// Count returns the number of stored tracks.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tracks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting tracks: %w", err)
	}
	return n, nil
}
