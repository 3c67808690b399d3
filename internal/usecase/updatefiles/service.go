// Package updatefiles implements the retained update artifact use case:
// uploads bounded by a capacity with oldest-first eviction.
package updatefiles

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/bnema/appupdate/internal/boundaries/in"
	"github.com/bnema/appupdate/internal/boundaries/out"
	"github.com/bnema/appupdate/internal/domain"
	"github.com/bnema/appupdate/internal/logging"
)

const defaultCompensationTimeout = 10 * time.Second

// Service implements the UpdateFileService interface.
type Service struct {
	// mu guards eviction, record insertion and deletion. Blob writes run
	// outside it so a slow upload does not stall other mutations.
	mu sync.Mutex

	blobs               out.BlobStorage
	records             out.FileRecordRepository
	capacity            int
	compensationTimeout time.Duration
}

// Option configures the Service.
type Option func(*Service)

// WithCompensationTimeout bounds the rollback run after a failed blob write.
func WithCompensationTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.compensationTimeout = d
	}
}

// NewService creates a new update file service. capacity must be positive.
func NewService(blobs out.BlobStorage, records out.FileRecordRepository, capacity int, opts ...Option) (*Service, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: capacity must be positive, got %d", domain.ErrInvalidInput, capacity)
	}

	s := &Service{
		blobs:               blobs,
		records:             records,
		capacity:            capacity,
		compensationTimeout: defaultCompensationTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create evicts the oldest files when the store is full, records the new
// file and writes its content. If the content write fails the record is
// removed again before the error is returned.
func (s *Service) Create(ctx context.Context, req in.UploadRequest) (*domain.FileRecord, error) {
	ctx, log := logging.WithFields(ctx,
		logging.FieldLayer, "usecase",
		logging.FieldUseCase, "CreateUpdateFile",
	)

	if req.Content == nil {
		return nil, fmt.Errorf("%w: file content is required", domain.ErrInvalidInput)
	}

	record, err := s.reserve(ctx, req)
	if err != nil {
		return nil, err
	}
	log = log.With(logging.FieldFileID, record.ID)

	if err := s.blobs.PutBlob(ctx, record.ID, req.Content); err != nil {
		s.compensate(ctx, record.ID)
		return nil, domain.StorageError("store file content", err)
	}

	s.reconcile(ctx, record.ID)

	log.Info("update file stored")
	return record, nil
}

// reserve evicts and inserts the new record under mu.
func (s *Service) reserve(ctx context.Context, req in.UploadRequest) (*domain.FileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.evict(ctx); err != nil {
		return nil, err
	}

	record, err := s.records.Create(ctx, domain.NewFileRecord{
		Name:    req.Name,
		Size:    req.Size,
		Comment: req.Comment,
	})
	if err != nil {
		return nil, domain.StorageError("create file record", err)
	}
	return record, nil
}

// reconcile drops the blob just written for id when the record was evicted
// or deleted while the write was in flight.
func (s *Service) reconcile(ctx context.Context, id string) {
	log := logging.FromContext(ctx)

	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.compensationTimeout)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.records.Get(cctx, id)
	if err == nil {
		return
	}
	if !errors.Is(err, domain.ErrNotFound) {
		log.Error("failed to check file record after content write", logging.FieldFileID, id, "error", err)
		return
	}
	if err := s.blobs.DeleteBlob(cctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		log.Error("failed to remove content of file removed during upload", logging.FieldFileID, id, "error", err)
		return
	}
	log.Warn("file removed while its content was being written", logging.FieldFileID, id)
}

// compensate removes a record whose blob could not be written. It runs even
// when ctx is already cancelled.
func (s *Service) compensate(ctx context.Context, id string) {
	log := logging.FromContext(ctx)

	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.compensationTimeout)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.records.Delete(cctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		log.Error("failed to remove file record after content write failure", logging.FieldFileID, id, "error", err)
		return
	}
	log.Warn("file record removed after content write failure", logging.FieldFileID, id)
}

// evict deletes the oldest records until one more fits under capacity.
func (s *Service) evict(ctx context.Context) error {
	log := logging.FromContext(ctx)

	current, err := s.records.List(ctx)
	if err != nil {
		return domain.StorageError("list file records", err)
	}
	if len(current) < s.capacity {
		return nil
	}

	toRemove := current[s.capacity-1:]
	for _, record := range toRemove {
		if err := s.deleteFile(ctx, record.ID); err != nil {
			return err
		}
		log.Info("update file evicted", logging.FieldFileID, record.ID, "created_at", record.CreatedAt)
	}
	return nil
}

// deleteFile removes the blob, tolerating a missing one, then the record.
func (s *Service) deleteFile(ctx context.Context, id string) error {
	if err := s.blobs.DeleteBlob(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return domain.StorageError("delete file content", err)
	}
	if err := s.records.Delete(ctx, id); err != nil {
		return domain.StorageError("delete file record", err)
	}
	return nil
}

// ListInfos returns all records, newest first.
func (s *Service) ListInfos(ctx context.Context) ([]domain.FileRecord, error) {
	records, err := s.records.List(ctx)
	if err != nil {
		return nil, domain.StorageError("list file records", err)
	}
	return records, nil
}

// Info returns the record for id.
func (s *Service) Info(ctx context.Context, id string) (*domain.FileRecord, error) {
	record, err := s.records.Get(ctx, id)
	if err != nil {
		return nil, domain.StorageError("get file record", err)
	}
	return record, nil
}

// GetContent opens the stored content for id.
func (s *Service) GetContent(ctx context.Context, id string) (io.ReadCloser, error) {
	reader, err := s.blobs.GetBlob(ctx, id)
	if err != nil {
		return nil, domain.StorageError("get file content", err)
	}
	return reader, nil
}

// Delete removes the file. A file that is already gone is not an error.
func (s *Service) Delete(ctx context.Context, id string) error {
	ctx, log := logging.WithFields(ctx,
		logging.FieldLayer, "usecase",
		logging.FieldUseCase, "DeleteUpdateFile",
		logging.FieldFileID, id,
	)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.deleteFile(ctx, id); err != nil {
		return err
	}

	log.Info("update file deleted")
	return nil
}
