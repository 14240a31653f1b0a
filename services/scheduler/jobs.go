package scheduler

import (
	"time"

	"github.com/aegisops/aegisd/services/orchestrator"
)

// DefaultJobs returns the standing recurring jobs every boot registers.
// Callers may add more or omit these entirely in tests.
func DefaultJobs() []ScheduledJob {
	return []ScheduledJob{
		{
			Name:       "self-evaluation",
			TaskType:   orchestrator.TaskSelfEvaluation,
			Priority:   orchestrator.PriorityLow,
			IntervalMs: int64(24 * time.Hour / time.Millisecond),
			Enabled:    true,
		},
		{
			Name:       "incremental-sync",
			TaskType:   orchestrator.TaskIncrementalSync,
			Priority:   orchestrator.PriorityMedium,
			IntervalMs: int64(time.Hour / time.Millisecond),
			Enabled:    true,
		},
		{
			Name:       "memory-consolidation",
			TaskType:   orchestrator.TaskMemoryConsolidate,
			Priority:   orchestrator.PriorityLow,
			IntervalMs: int64(6 * time.Hour / time.Millisecond),
			Enabled:    true,
		},
		{
			Name:       "health-check",
			TaskType:   orchestrator.TaskHealthCheck,
			Priority:   orchestrator.PriorityHigh,
			IntervalMs: 30_000,
			Enabled:    true,
		},
		{
			Name:       "breaker-evaluation",
			TaskType:   orchestrator.TaskBreakerEvaluate,
			Priority:   orchestrator.PriorityHigh,
			IntervalMs: 60_000,
			Enabled:    true,
		},
		{
			Name:       "dependency-audit",
			TaskType:   orchestrator.TaskDependencyAudit,
			Priority:   orchestrator.PriorityMedium,
			IntervalMs: int64(6 * time.Hour / time.Millisecond),
			Enabled:    true,
		},
		{
			Name:       "introspection",
			TaskType:   orchestrator.TaskIntrospection,
			Priority:   orchestrator.PriorityLow,
			IntervalMs: int64(time.Hour / time.Millisecond),
			Enabled:    true,
		},
	}
}
