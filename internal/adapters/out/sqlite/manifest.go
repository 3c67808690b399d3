package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bnema/appupdate/internal/domain"
)

// ManifestRepository keeps the single manifest row in update_manifests.
type ManifestRepository struct {
	db *sql.DB
}

// NewManifestRepository returns a repository backed by db.
func NewManifestRepository(db *sql.DB) *ManifestRepository {
	return &ManifestRepository{db: db}
}

// Set clears the table and inserts manifest in one transaction.
func (r *ManifestRepository) Set(ctx context.Context, manifest domain.Manifest) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM update_manifests`); err != nil {
		return fmt.Errorf("failed to clear manifest: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO update_manifests (version, url) VALUES (?, ?)`, manifest.Version, manifest.URL); err != nil {
		return fmt.Errorf("failed to insert manifest: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing manifest: %w", err)
	}
	return nil
}

func (r *ManifestRepository) Get(ctx context.Context) (domain.Manifest, bool, error) {
	var m domain.Manifest
	err := r.db.QueryRowContext(ctx, `SELECT version, url FROM update_manifests LIMIT 1`).Scan(&m.Version, &m.URL)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Manifest{}, false, nil
	}
	if err != nil {
		return domain.Manifest{}, false, fmt.Errorf("failed to read manifest: %w", err)
	}
	return m, true, nil
}

func (r *ManifestRepository) Delete(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM update_manifests`); err != nil {
		return fmt.Errorf("failed to delete manifest: %w", err)
	}
	return nil
}
