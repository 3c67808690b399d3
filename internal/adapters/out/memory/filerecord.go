package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bnema/appupdate/internal/domain"
)

type storedRecord struct {
	record domain.FileRecord
	seq    uint64
}

// FileRecordRepository keeps file records in a map. Records created within
// the same clock tick keep their insertion order.
type FileRecordRepository struct {
	mu      sync.RWMutex
	records map[string]storedRecord
	seq     uint64
	now     func() time.Time
}

// FileRecordOption configures a FileRecordRepository.
type FileRecordOption func(*FileRecordRepository)

// WithClock overrides the time source used for CreatedAt.
func WithClock(now func() time.Time) FileRecordOption {
	return func(r *FileRecordRepository) {
		r.now = now
	}
}

// NewFileRecordRepository returns an empty repository.
func NewFileRecordRepository(opts ...FileRecordOption) *FileRecordRepository {
	r := &FileRecordRepository{
		records: make(map[string]storedRecord),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *FileRecordRepository) Create(ctx context.Context, in domain.NewFileRecord) (*domain.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	record := domain.FileRecord{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Size:      in.Size,
		Comment:   in.Comment,
		CreatedAt: r.now().UTC(),
	}
	record = record.Clone()

	r.mu.Lock()
	r.seq++
	r.records[record.ID] = storedRecord{record: record, seq: r.seq}
	r.mu.Unlock()

	out := record.Clone()
	return &out, nil
}

func (r *FileRecordRepository) List(ctx context.Context) ([]domain.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	stored := make([]storedRecord, 0, len(r.records))
	for _, s := range r.records {
		stored = append(stored, s)
	}
	r.mu.RUnlock()

	sort.Slice(stored, func(i, j int) bool {
		a, b := stored[i], stored[j]
		if !a.record.CreatedAt.Equal(b.record.CreatedAt) {
			return a.record.CreatedAt.After(b.record.CreatedAt)
		}
		return a.seq > b.seq
	})

	records := make([]domain.FileRecord, 0, len(stored))
	for _, s := range stored {
		records = append(records, s.record.Clone())
	}
	return records, nil
}

func (r *FileRecordRepository) Get(ctx context.Context, id string) (*domain.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	s, ok := r.records[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("file record %s: %w", id, domain.ErrNotFound)
	}
	out := s.record.Clone()
	return &out, nil
}

func (r *FileRecordRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	delete(r.records, id)
	r.mu.Unlock()
	return nil
}
