// Package healthcheck probes the service's backing dependencies.
package healthcheck

import (
	"context"
	"time"
)

const (
	// StatusOK indicates the dependency answered the probe.
	StatusOK = "ok"
	// StatusError indicates the probe failed.
	StatusError = "error"
)

// CheckResult is the outcome of probing one dependency.
type CheckResult struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Checker probes one dependency. Implementations must honor ctx.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// CheckFunc adapts a function to the Checker interface.
type CheckFunc struct {
	CheckName string
	Fn        func(ctx context.Context) error
}

func (c CheckFunc) Name() string                    { return c.CheckName }
func (c CheckFunc) Check(ctx context.Context) error { return c.Fn(ctx) }

// Registry runs a fixed set of checkers.
type Registry struct {
	checkers []Checker
	timeout  time.Duration
}

// NewRegistry creates a Registry. Each probe is bounded by timeout;
// zero means 2 seconds.
func NewRegistry(timeout time.Duration, checkers ...Checker) *Registry {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Registry{checkers: checkers, timeout: timeout}
}

// Run probes every dependency and reports per-dependency results plus
// an overall verdict. Nil checkers are skipped.
func (r *Registry) Run(ctx context.Context) ([]CheckResult, bool) {
	healthy := true
	results := make([]CheckResult, 0, len(r.checkers))
	for _, checker := range r.checkers {
		if checker == nil {
			continue
		}
		probeCtx, cancel := context.WithTimeout(ctx, r.timeout)
		err := checker.Check(probeCtx)
		cancel()
		result := CheckResult{Name: checker.Name(), Status: StatusOK}
		if err != nil {
			result.Status = StatusError
			result.Detail = err.Error()
			healthy = false
		}
		results = append(results, result)
	}
	return results, healthy
}
