// Package in defines input ports (interfaces) for use cases.
// These interfaces define the contract between driving adapters (HTTP, CLI)
// and the business logic (use cases).
package in

import (
	"context"
	"io"

	"github.com/bnema/appupdate/internal/domain"
)

// UploadRequest carries one uploaded artifact into the file service.
type UploadRequest struct {
	Name    *string
	Size    *int64
	Comment *string
	Content io.Reader
}

// UpdateFileService defines the contract for retained update artifacts.
type UpdateFileService interface {
	// Create evicts the oldest files if needed, then stores the new one.
	Create(ctx context.Context, req UploadRequest) (*domain.FileRecord, error)

	// ListInfos returns all retained file records, newest first.
	ListInfos(ctx context.Context) ([]domain.FileRecord, error)

	// Info returns the record for one file.
	Info(ctx context.Context, id string) (*domain.FileRecord, error)

	// GetContent opens the stored bytes of a file.
	GetContent(ctx context.Context, id string) (io.ReadCloser, error)

	// Delete removes a file. Unknown ids are not an error.
	Delete(ctx context.Context, id string) error
}
