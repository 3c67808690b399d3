package in

import (
	"context"

	"github.com/bnema/appupdate/internal/domain"
)

// ManifestService defines the contract for the version-gated manifest.
type ManifestService interface {
	// Set publishes a manifest whose version is newer than the current one.
	Set(ctx context.Context, manifest domain.Manifest) error

	// Get returns the manifest if it is newer than requesterVersion.
	// A nil requesterVersion always sees the stored manifest.
	Get(ctx context.Context, requesterVersion *string) (*domain.Manifest, error)

	// Delete clears the manifest slot.
	Delete(ctx context.Context) error
}
