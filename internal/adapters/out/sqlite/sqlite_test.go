package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/appupdate/internal/domain"
	"github.com/bnema/appupdate/internal/logging"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpen_MigratesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.db")
	ctx := context.Background()

	db, err := Open(ctx, path, logging.Discard())
	require.NoError(t, err)

	var version int
	require.NoError(t, db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, len(migrations), version)
	require.NoError(t, db.Close())

	db, err = Open(ctx, path, logging.Discard())
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow(
		"SELECT count(*) FROM sqlite_master WHERE type='table' AND name IN ('update_files','update_manifests')").Scan(&count))
	assert.Equal(t, 2, count)
}

func TestFileRecordRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewFileRecordRepository(setupTestDB(t))

	created, err := repo.Create(ctx, domain.NewFileRecord{
		Name:    domain.StringPtr("setup.exe"),
		Size:    domain.Int64Ptr(1024),
		Comment: domain.StringPtr("release"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "setup.exe", *got.Name)
	assert.Equal(t, int64(1024), *got.Size)
	assert.Equal(t, "release", *got.Comment)
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))
}

func TestFileRecordRepository_OptionalFieldsStayNil(t *testing.T) {
	ctx := context.Background()
	repo := NewFileRecordRepository(setupTestDB(t))

	created, err := repo.Create(ctx, domain.NewFileRecord{})
	require.NoError(t, err)

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Name)
	assert.Nil(t, got.Size)
	assert.Nil(t, got.Comment)
}

func TestFileRecordRepository_ListOrder(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	calls := 0
	repo := NewFileRecordRepository(setupTestDB(t), WithClock(func() time.Time {
		calls++
		if calls == 3 {
			return fixed.Add(-time.Hour)
		}
		return fixed
	}))

	a, err := repo.Create(ctx, domain.NewFileRecord{})
	require.NoError(t, err)
	b, err := repo.Create(ctx, domain.NewFileRecord{})
	require.NoError(t, err)
	older, err := repo.Create(ctx, domain.NewFileRecord{})
	require.NoError(t, err)

	records, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, b.ID, records[0].ID)
	assert.Equal(t, a.ID, records[1].ID)
	assert.Equal(t, older.ID, records[2].ID)
}

func TestFileRecordRepository_ListEmpty(t *testing.T) {
	repo := NewFileRecordRepository(setupTestDB(t))

	records, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestFileRecordRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewFileRecordRepository(setupTestDB(t))

	created, err := repo.Create(ctx, domain.NewFileRecord{})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, created.ID))
	require.NoError(t, repo.Delete(ctx, created.ID))

	_, err = repo.Get(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestManifestRepository_SetReplaces(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewManifestRepository(db)

	_, ok, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Set(ctx, domain.Manifest{Version: "1.0.0", URL: "https://example.com/1"}))
	require.NoError(t, repo.Set(ctx, domain.Manifest{Version: "2.0.0", URL: "https://example.com/2"}))

	m, ok, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, domain.Manifest{Version: "2.0.0", URL: "https://example.com/2"}, m)

	var rows int
	require.NoError(t, db.QueryRow("SELECT count(*) FROM update_manifests").Scan(&rows))
	assert.Equal(t, 1, rows)
}

func TestManifestRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewManifestRepository(setupTestDB(t))

	require.NoError(t, repo.Delete(ctx))
	require.NoError(t, repo.Set(ctx, domain.Manifest{Version: "1.0.0", URL: "https://example.com/1"}))
	require.NoError(t, repo.Delete(ctx))

	_, ok, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHealthProbe(t *testing.T) {
	db := setupTestDB(t)
	probe := NewHealthProbe(db)

	assert.Equal(t, "database", probe.Name())
	assert.NoError(t, probe.Check(context.Background()))

	require.NoError(t, db.Close())
	assert.Error(t, probe.Check(context.Background()))
}
