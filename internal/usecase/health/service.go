// Package health implements the dependency health check use case.
package health

import (
	"context"
	"sync"
	"time"

	"github.com/bnema/appupdate/internal/boundaries/out"
	"github.com/bnema/appupdate/internal/domain"
	"github.com/bnema/appupdate/internal/logging"
)

// maxConcurrentProbes limits the number of probes running at once.
const maxConcurrentProbes = 10

const defaultProbeTimeout = 5 * time.Second

// Service implements the HealthService interface.
type Service struct {
	probes  []out.HealthProbe
	timeout time.Duration
}

// NewService creates a health service running probes with a per-probe timeout.
// A non-positive timeout selects the default.
func NewService(timeout time.Duration, probes ...out.HealthProbe) *Service {
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	return &Service{probes: probes, timeout: timeout}
}

// Check runs every probe concurrently.
func (s *Service) Check(ctx context.Context) domain.HealthReport {
	ctx, log := logging.WithFields(ctx,
		logging.FieldLayer, "usecase",
		logging.FieldUseCase, "CheckHealth",
	)

	report := domain.HealthReport{
		Healthy: true,
		Checks:  make(map[string]domain.HealthCheck, len(s.probes)),
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, maxConcurrentProbes)

	for _, probe := range s.probes {
		wg.Add(1)
		go func(p out.HealthProbe) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			check := s.run(ctx, p)

			mu.Lock()
			report.Checks[p.Name()] = check
			if !check.Passed {
				report.Healthy = false
			}
			mu.Unlock()
		}(probe)
	}
	wg.Wait()

	if !report.Healthy {
		log.Warn("health check failed", "checks", len(report.Checks))
	} else {
		log.Debug("health check passed", "checks", len(report.Checks))
	}
	return report
}

func (s *Service) run(ctx context.Context, p out.HealthProbe) domain.HealthCheck {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := p.Check(ctx)
	check := domain.HealthCheck{
		Passed:  err == nil,
		Elapsed: time.Since(start),
	}
	if err != nil {
		check.Error = err.Error()
	}
	return check
}
