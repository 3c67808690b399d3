package memory

import (
	"context"
	"sync"

	"github.com/bnema/appupdate/internal/domain"
)

// ManifestRepository holds at most one manifest.
type ManifestRepository struct {
	mu       sync.RWMutex
	manifest *domain.Manifest
}

// NewManifestRepository returns an empty slot.
func NewManifestRepository() *ManifestRepository {
	return &ManifestRepository{}
}

func (r *ManifestRepository) Set(ctx context.Context, manifest domain.Manifest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	r.manifest = &manifest
	r.mu.Unlock()
	return nil
}

func (r *ManifestRepository) Get(ctx context.Context) (domain.Manifest, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.Manifest{}, false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.manifest == nil {
		return domain.Manifest{}, false, nil
	}
	return *r.manifest, true, nil
}

func (r *ManifestRepository) Delete(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	r.manifest = nil
	r.mu.Unlock()
	return nil
}
