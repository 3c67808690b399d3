// Package filesystem implements storage adapters using the local filesystem.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/bnema/appupdate/internal/domain"
	"github.com/bnema/appupdate/internal/logging"
	"github.com/bnema/appupdate/pkg/validation"
)

const tmpDirName = ".tmp"

// BlobStorage stores update file contents as plain files under rootDir,
// fanned out by the first two characters of the id.
type BlobStorage struct {
	rootDir string
	log     *log.Logger
}

// NewBlobStorage creates the storage root and its temp directory.
func NewBlobStorage(rootDir string, logger *log.Logger) (*BlobStorage, error) {
	if err := os.MkdirAll(filepath.Join(rootDir, tmpDirName), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", rootDir, err)
	}

	logger = logger.With(logging.FieldLayer, "adapter", logging.FieldAdapter, "filesystem")
	logger.Info("blob storage initialized", "root_dir", rootDir)

	return &BlobStorage{
		rootDir: rootDir,
		log:     logger,
	}, nil
}

// PutBlob writes data to a temp file and renames it into place, so readers
// never see a partially written blob.
func (s *BlobStorage) PutBlob(ctx context.Context, id string, data io.Reader) error {
	if err := validation.ValidateObjectID(id); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	blobPath := s.blobPath(id)
	if err := os.MkdirAll(filepath.Dir(blobPath), 0o750); err != nil {
		return fmt.Errorf("failed to create blob directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Join(s.rootDir, tmpDirName), id+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary blob file: %w", err)
	}
	tmpPath := tmp.Name()

	written, err := io.Copy(tmp, &ctxReader{ctx: ctx, r: data})
	if err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write blob data: %w", err)
	}

	if err := os.Rename(tmpPath, blobPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to move blob to final location: %w", err)
	}

	s.log.Debug("blob stored", logging.FieldFileID, id, "size", written)
	return nil
}

// GetBlob opens the blob for reading. The caller closes it.
func (s *BlobStorage) GetBlob(ctx context.Context, id string) (io.ReadCloser, error) {
	if err := validation.ValidateObjectID(id); err != nil {
		return nil, fmt.Errorf("blob %q: %w", id, domain.ErrNotFound)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(s.blobPath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("blob %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open blob: %w", err)
	}
	return file, nil
}

// DeleteBlob removes the blob file.
func (s *BlobStorage) DeleteBlob(ctx context.Context, id string) error {
	if err := validation.ValidateObjectID(id); err != nil {
		return fmt.Errorf("blob %q: %w", id, domain.ErrNotFound)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(s.blobPath(id)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("blob %s: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("failed to delete blob: %w", err)
	}

	s.log.Debug("blob deleted", logging.FieldFileID, id)
	return nil
}

// Name implements out.HealthProbe.
func (s *BlobStorage) Name() string {
	return "blob_storage"
}

// Check verifies the storage root accepts new files.
func (s *BlobStorage) Check(_ context.Context) error {
	f, err := os.CreateTemp(filepath.Join(s.rootDir, tmpDirName), "probe-*")
	if err != nil {
		return fmt.Errorf("blob storage not writable: %w", err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

func (s *BlobStorage) blobPath(id string) string {
	return filepath.Join(s.rootDir, id[:2], id)
}

// ctxReader stops a copy once the context is cancelled.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
