package out

import "context"

// HealthProbe is a named dependency check reported by the health endpoint.
type HealthProbe interface {
	// Name identifies the probe in health reports.
	Name() string

	// Check returns nil when the dependency is usable.
	Check(ctx context.Context) error
}
