// Package storage implements C6: durable persistence of state-changes,
// the events they produced, and periodic ChainState snapshots, plus the
// boot-time recovery algorithm that replays them (spec §4.4).
package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const dbFileName = "raiden.db"

// DefaultSnapshotInterval is how many committed state-changes pass
// between automatic snapshots (spec §4.4 "Snapshotting", N configurable).
const DefaultSnapshotInterval = 500

// DB is the node's single persistence handle: one sqlite file per datadir
// holding the three tables state_changes, events, and snapshots (spec
// §4.4). Grounded on channeldb.DB's "one struct wraps the driver handle,
// Open applies pending migrations" shape, adapted from bolt's bucket
// migrations to golang-migrate's versioned SQL files.
type DB struct {
	*sql.DB
	path string

	snapshotInterval     int
	changesSinceSnapshot int
}

// Open opens (creating if necessary) the sqlite database under dataDir and
// applies any migrations from storage/migrations that haven't run yet.
func Open(dataDir string) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("storage: creating datadir: %w", err)
	}
	path := filepath.Join(dataDir, dbFileName)

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: opening %s: %w", path, err)
	}
	sqlDB.SetMaxOpenConns(1) // modernc.org/sqlite: one writer, matches the coordinator's single-writer model.

	db := &DB{DB: sqlDB, path: path, snapshotInterval: DefaultSnapshotInterval}
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	if db.changesSinceSnapshot, err = db.countStateChangesSinceLastSnapshot(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// SetSnapshotInterval overrides DefaultSnapshotInterval. A value <= 0
// disables automatic snapshotting entirely.
func (d *DB) SetSnapshotInterval(n int) {
	d.snapshotInterval = n
}

// migrate applies every migration in storage/migrations not yet recorded
// in schema_migrations, in version order. golang-migrate's iofs source
// driver parses the embedded .sql files; applying them is hand-rolled
// here rather than via migrate.Migrate, since golang-migrate ships no
// database.Driver for modernc.org/sqlite (only for the cgo mattn driver
// this module deliberately avoids) — recorded in DESIGN.md.
func (d *DB) migrate() error {
	if _, err := d.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version UINT64 PRIMARY KEY)`); err != nil {
		return fmt.Errorf("storage: creating schema_migrations: %w", err)
	}

	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("storage: opening embedded migrations: %w", err)
	}
	src, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("storage: reading embedded migrations: %w", err)
	}
	defer src.Close()

	version, err := src.First()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("storage: locating first migration: %w", err)
	}

	for {
		applied, err := d.versionApplied(version)
		if err != nil {
			return err
		}
		if !applied {
			if err := d.applyMigration(src, version); err != nil {
				return err
			}
		}

		next, err := src.Next(version)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return fmt.Errorf("storage: locating migration after %d: %w", version, err)
		}
		version = next
	}
}

func (d *DB) versionApplied(version uint) (bool, error) {
	var count int
	err := d.QueryRow(`SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("storage: checking migration %d: %w", version, err)
	}
	return count > 0, nil
}

func (d *DB) applyMigration(src source.Driver, version uint) error {
	r, _, err := src.ReadUp(version)
	if err != nil {
		return fmt.Errorf("storage: reading migration %d: %w", version, err)
	}
	defer r.Close()
	script, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("storage: reading migration %d body: %w", version, err)
	}

	tx, err := d.Begin()
	if err != nil {
		return fmt.Errorf("storage: starting migration %d: %w", version, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(string(script)); err != nil {
		return fmt.Errorf("storage: applying migration %d: %w", version, err)
	}
	if _, err := tx.Exec(`INSERT INTO schema_migrations(version) VALUES (?)`, version); err != nil {
		return fmt.Errorf("storage: recording migration %d: %w", version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: committing migration %d: %w", version, err)
	}
	log.Infof("storage: applied migration %d", version)
	return nil
}
