package domain

import "time"

// HealthCheck is the outcome of one named dependency probe.
type HealthCheck struct {
	Passed  bool          `json:"passed"`
	Elapsed time.Duration `json:"elapsed"`
	Error   string        `json:"error,omitempty"`
}

// HealthReport aggregates all probes. Healthy is false if any check failed.
type HealthReport struct {
	Healthy bool                   `json:"healthy"`
	Checks  map[string]HealthCheck `json:"checks"`
}
