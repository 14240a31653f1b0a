// Package healing runs the health probe set on a schedule, aggregates the
// results, and drives best-effort recovery and circuit-breaker evaluation
// when the daemon looks unwell.
//
// Its loops are ticker-plus-done-channel loops over an arbitrary named set
// of health probes.
package healing

import (
	"time"

	"github.com/aegisops/aegisd/services/health"
)

// Report is the aggregated snapshot of one health-check cycle.
type Report struct {
	Results   map[string]health.Result
	Unhealthy []string
	Degraded  []string
	Timestamp time.Time
}

func (r Report) hasUnhealthy() bool { return len(r.Unhealthy) > 0 }

// RecoveryFunc attempts best-effort recovery for one component. Errors are
// logged, never fatal, and never retried within the same cycle.
type RecoveryFunc func() error

// Config controls the supervisor's schedule and thresholds.
type Config struct {
	CheckInterval           time.Duration // default 30s
	ConsecutiveUnhealthyMax int           // default 3
	DependencyAuditInterval time.Duration // default 6h
}

func (c Config) withDefaults() Config {
	if c.CheckInterval <= 0 {
		c.CheckInterval = 30 * time.Second
	}
	if c.ConsecutiveUnhealthyMax <= 0 {
		c.ConsecutiveUnhealthyMax = 3
	}
	if c.DependencyAuditInterval <= 0 {
		c.DependencyAuditInterval = 6 * time.Hour
	}
	return c
}
