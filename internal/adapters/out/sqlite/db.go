// Package sqlite implements the metadata and manifest stores on SQLite
// through the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	_ "modernc.org/sqlite"

	"github.com/bnema/appupdate/internal/logging"
)

const driverName = "sqlite"

// migrations are applied in order; the schema version is the number of
// entries already applied.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS update_manifests (
		version TEXT PRIMARY KEY,
		url TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS update_files (
		id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		comment TEXT
	)`,
	`ALTER TABLE update_files ADD COLUMN name TEXT`,
	`ALTER TABLE update_files ADD COLUMN size INTEGER`,
	`CREATE INDEX IF NOT EXISTS idx_update_files_created_at ON update_files (created_at)`,
}

// Open opens (creating if needed) the database at path and brings its
// schema up to date.
func Open(ctx context.Context, path string, logger *log.Logger) (*sql.DB, error) {
	logger = logger.With(logging.FieldLayer, "adapter", logging.FieldAdapter, "sqlite")

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps writes serialized and makes ":memory:" usable.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	applied, err := migrate(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("database ready", "path", path, "migrations_applied", applied)
	return db, nil
}

func migrate(ctx context.Context, db *sql.DB) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("error beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var version int
	if err := tx.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	if version > len(migrations) {
		return 0, fmt.Errorf("database schema version %d is newer than supported %d", version, len(migrations))
	}

	for i := version; i < len(migrations); i++ {
		if _, err := tx.ExecContext(ctx, migrations[i]); err != nil {
			return 0, fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", len(migrations))); err != nil {
		return 0, fmt.Errorf("failed to store schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("error committing migrations: %w", err)
	}
	return len(migrations) - version, nil
}

// HealthProbe pings the database.
type HealthProbe struct {
	db *sql.DB
}

// NewHealthProbe wraps db as an out.HealthProbe.
func NewHealthProbe(db *sql.DB) *HealthProbe {
	return &HealthProbe{db: db}
}

func (p *HealthProbe) Name() string {
	return "database"
}

func (p *HealthProbe) Check(ctx context.Context) error {
	return p.db.PingContext(ctx)
}
