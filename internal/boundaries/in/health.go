package in

import (
	"context"

	"github.com/bnema/appupdate/internal/domain"
)

// HealthService runs the registered dependency probes.
type HealthService interface {
	// Check runs every probe and aggregates the results.
	Check(ctx context.Context) domain.HealthReport
}
