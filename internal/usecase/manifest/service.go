// Package manifest implements the version-gated update manifest.
package manifest

import (
	"context"
	"fmt"
	"sync"

	"github.com/Masterminds/semver/v3"

	"github.com/bnema/appupdate/internal/boundaries/out"
	"github.com/bnema/appupdate/internal/domain"
	"github.com/bnema/appupdate/internal/logging"
	"github.com/bnema/appupdate/pkg/validation"
)

// Service implements the ManifestService interface.
type Service struct {
	// mu makes the read-compare-write in Set atomic within this process.
	mu   sync.Mutex
	repo out.ManifestRepository
}

// NewService creates a new manifest service.
func NewService(repo out.ManifestRepository) *Service {
	return &Service{repo: repo}
}

// ParseVersion parses a strict semantic version (MAJOR.MINOR.PATCH with
// optional pre-release and build metadata).
func ParseVersion(field, raw string) (*semver.Version, error) {
	v, err := semver.StrictNewVersion(raw)
	if err != nil {
		return nil, domain.NewFieldError(field, raw, fmt.Errorf("%w: %w", domain.ErrInvalidVersion, err))
	}
	return v, nil
}

// Set stores manifest if its version is strictly greater than the stored
// one. Equal or lower versions are rejected; the slot must be deleted first.
func (s *Service) Set(ctx context.Context, manifest domain.Manifest) error {
	ctx, log := logging.WithFields(ctx,
		logging.FieldLayer, "usecase",
		logging.FieldUseCase, "SetManifest",
		logging.FieldVersion, manifest.Version,
	)

	next, err := ParseVersion("version", manifest.Version)
	if err != nil {
		return err
	}
	if err := validation.ValidateDownloadURL(manifest.URL); err != nil {
		return domain.NewFieldError("url", manifest.URL, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok, err := s.repo.Get(ctx)
	if err != nil {
		return domain.StorageError("get manifest", err)
	}
	if ok {
		currentVersion, err := semver.StrictNewVersion(current.Version)
		if err != nil {
			return domain.StorageError("parse stored manifest version", err)
		}
		if !currentVersion.LessThan(next) {
			log.Warn("manifest downgrade rejected", "current_version", current.Version)
			return fmt.Errorf("%w: current %s, requested %s", domain.ErrVersionDowngrade, current.Version, manifest.Version)
		}
	}

	if err := s.repo.Set(ctx, manifest); err != nil {
		return domain.StorageError("set manifest", err)
	}

	log.Info("manifest published", "url", manifest.URL)
	return nil
}

// Get returns the stored manifest when it is newer than requesterVersion.
// A nil requesterVersion always sees the stored manifest.
func (s *Service) Get(ctx context.Context, requesterVersion *string) (*domain.Manifest, error) {
	current, ok, err := s.repo.Get(ctx)
	if err != nil {
		return nil, domain.StorageError("get manifest", err)
	}
	if !ok {
		return nil, fmt.Errorf("manifest: %w", domain.ErrNotFound)
	}

	if requesterVersion == nil {
		return &current, nil
	}

	requester, err := ParseVersion("currentVersion", *requesterVersion)
	if err != nil {
		return nil, err
	}
	currentVersion, err := semver.StrictNewVersion(current.Version)
	if err != nil {
		return nil, domain.StorageError("parse stored manifest version", err)
	}
	if !currentVersion.GreaterThan(requester) {
		return nil, fmt.Errorf("no manifest newer than %s: %w", *requesterVersion, domain.ErrNotFound)
	}

	return &current, nil
}

// Delete clears the slot.
func (s *Service) Delete(ctx context.Context) error {
	_, log := logging.WithFields(ctx,
		logging.FieldLayer, "usecase",
		logging.FieldUseCase, "DeleteManifest",
	)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Delete(ctx); err != nil {
		return domain.StorageError("delete manifest", err)
	}

	log.Info("manifest deleted")
	return nil
}
