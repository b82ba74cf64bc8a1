package service

import (
	"context"
	"sync"
	"time"
)

// HealthCheck checks one dependency
type HealthCheck func(ctx context.Context) error

// CheckResult is the outcome of one check
type CheckResult struct {
	Status  string `json:"status"`
	Latency string `json:"latency"`
	Error   string `json:"error,omitempty"`
}

// HealthReport is the aggregate dependency status
type HealthReport struct {
	Status    string                 `json:"status"`
	Service   string                 `json:"service"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
}

// Healthy reports whether every check passed
func (r *HealthReport) Healthy() bool {
	return r.Status == "ok"
}

// HealthService runs dependency checks
type HealthService struct {
	service string
	checks  map[string]HealthCheck
	timeout time.Duration
}

// NewHealthService creates a health service for the named checks
func NewHealthService(service string, checks map[string]HealthCheck) *HealthService {
	return &HealthService{service: service, checks: checks, timeout: 3 * time.Second}
}

// Service returns the reported service name
func (s *HealthService) Service() string {
	return s.service
}

// Check runs all checks concurrently
func (s *HealthService) Check(ctx context.Context) *HealthReport {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	report := &HealthReport{
		Status:    "ok",
		Service:   s.service,
		Timestamp: time.Now().UTC(),
		Checks:    make(map[string]CheckResult, len(s.checks)),
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for name, check := range s.checks {
		wg.Add(1)
		go func(name string, check HealthCheck) {
			defer wg.Done()
			start := time.Now()
			err := check(ctx)
			res := CheckResult{Status: "ok", Latency: time.Since(start).Round(time.Millisecond).String()}
			if err != nil {
				res.Status = "down"
				res.Error = err.Error()
			}
			mu.Lock()
			report.Checks[name] = res
			if err != nil {
				report.Status = "degraded"
			}
			mu.Unlock()
		}(name, check)
	}
	wg.Wait()
	return report
}
