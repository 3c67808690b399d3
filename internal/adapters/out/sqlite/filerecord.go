package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bnema/appupdate/internal/domain"
)

// FileRecordRepository stores file records in the update_files table.
type FileRecordRepository struct {
	db  *sql.DB
	now func() time.Time
}

// FileRecordOption configures a FileRecordRepository.
type FileRecordOption func(*FileRecordRepository)

// WithClock overrides the time source used for CreatedAt.
func WithClock(now func() time.Time) FileRecordOption {
	return func(r *FileRecordRepository) {
		r.now = now
	}
}

// NewFileRecordRepository returns a repository backed by db.
func NewFileRecordRepository(db *sql.DB, opts ...FileRecordOption) *FileRecordRepository {
	r := &FileRecordRepository{db: db, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *FileRecordRepository) Create(ctx context.Context, in domain.NewFileRecord) (*domain.FileRecord, error) {
	record := domain.FileRecord{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Size:      in.Size,
		Comment:   in.Comment,
		CreatedAt: r.now().UTC(),
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO update_files (id, created_at, name, size, comment) VALUES (?, ?, ?, ?, ?)`,
		record.ID, record.CreatedAt.UnixNano(), nullString(record.Name), nullInt64(record.Size), nullString(record.Comment),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert file record: %w", err)
	}

	record = record.Clone()
	return &record, nil
}

func (r *FileRecordRepository) List(ctx context.Context) ([]domain.FileRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, created_at, name, size, comment FROM update_files ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query file records: %w", err)
	}
	defer rows.Close()

	records := []domain.FileRecord{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate file records: %w", err)
	}
	return records, nil
}

func (r *FileRecordRepository) Get(ctx context.Context, id string) (*domain.FileRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, created_at, name, size, comment FROM update_files WHERE id = ?`, id)

	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("file record %s: %w", id, domain.ErrNotFound)
	}
	return record, err
}

func (r *FileRecordRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM update_files WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete file record: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*domain.FileRecord, error) {
	var (
		record    domain.FileRecord
		createdAt int64
		name      sql.NullString
		size      sql.NullInt64
		comment   sql.NullString
	)
	if err := s.Scan(&record.ID, &createdAt, &name, &size, &comment); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan file record: %w", err)
	}

	record.CreatedAt = time.Unix(0, createdAt).UTC()
	if name.Valid {
		record.Name = &name.String
	}
	if size.Valid {
		record.Size = &size.Int64
	}
	if comment.Valid {
		record.Comment = &comment.String
	}
	return &record, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
