package out

import (
	"context"
	"io"

	"github.com/bnema/appupdate/internal/domain"
)

// BlobStorage defines the contract for key-addressed binary storage.
// Implementations must not know about file metadata.
type BlobStorage interface {
	// PutBlob stores data under id, replacing any existing blob.
	// The blob is readable once PutBlob returns.
	PutBlob(ctx context.Context, id string, data io.Reader) error

	// GetBlob opens the blob stored under id.
	// Returns an error matching domain.ErrNotFound when no blob exists.
	GetBlob(ctx context.Context, id string) (io.ReadCloser, error)

	// DeleteBlob removes the blob stored under id.
	// Returns an error matching domain.ErrNotFound when no blob exists.
	DeleteBlob(ctx context.Context, id string) error
}

// FileRecordRepository defines the contract for durable file metadata.
type FileRecordRepository interface {
	// Create stores a new record, assigning its ID and CreatedAt.
	Create(ctx context.Context, record domain.NewFileRecord) (*domain.FileRecord, error)

	// List returns every record ordered by CreatedAt, newest first.
	List(ctx context.Context) ([]domain.FileRecord, error)

	// Get returns one record, or an error matching domain.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.FileRecord, error)

	// Delete removes a record. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error
}

// ManifestRepository defines the contract for the single manifest slot.
// It has no notion of version ordering.
type ManifestRepository interface {
	// Set atomically replaces the slot content.
	Set(ctx context.Context, manifest domain.Manifest) error

	// Get returns the stored manifest and true, or false when the slot is empty.
	Get(ctx context.Context) (domain.Manifest, bool, error)

	// Delete empties the slot. Deleting an empty slot is not an error.
	Delete(ctx context.Context) error
}
