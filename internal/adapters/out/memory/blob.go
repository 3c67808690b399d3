// Package memory provides in-process store implementations used by the
// "memory" storage driver and by tests.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/bnema/appupdate/internal/domain"
)

// BlobStorage keeps blobs in a map.
type BlobStorage struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewBlobStorage returns an empty BlobStorage.
func NewBlobStorage() *BlobStorage {
	return &BlobStorage{blobs: make(map[string][]byte)}
}

func (s *BlobStorage) PutBlob(ctx context.Context, id string, data io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	buf, err := io.ReadAll(data)
	if err != nil {
		return fmt.Errorf("failed to read blob data: %w", err)
	}

	s.mu.Lock()
	s.blobs[id] = buf
	s.mu.Unlock()
	return nil
}

func (s *BlobStorage) GetBlob(ctx context.Context, id string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	buf, ok := s.blobs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("blob %s: %w", id, domain.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(buf)), nil
}

func (s *BlobStorage) DeleteBlob(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[id]; !ok {
		return fmt.Errorf("blob %s: %w", id, domain.ErrNotFound)
	}
	delete(s.blobs, id)
	return nil
}

// Len returns the number of stored blobs.
func (s *BlobStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

// Has reports whether a blob exists for id.
func (s *BlobStorage) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[id]
	return ok
}
