// Package health defines the probe function type and the required probe
// implementations the self-healing supervisor aggregates.
//
// Probes are plain function values, not an interface, since a function
// signature is the whole contract.
package health

import (
	"context"
	"time"
)

// Status is a probe's coarse verdict.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Result is what a Probe returns.
type Result struct {
	Component string
	Status    Status
	LatencyMs int64
	Message   string
	Timestamp time.Time
}

// Probe measures one component's health. Implementations must respect
// ctx's deadline and never block past it.
type Probe func(ctx context.Context) Result
