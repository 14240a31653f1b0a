// Package scheduler is the daemon's central coordinator: a priority task
// queue with a worker loop, a per-job timer wheel for recurring work, and
// a heartbeat tick.
package scheduler

import (
	"context"
	"time"

	"github.com/aegisops/aegisd/services/orchestrator"
)

// ExecutionRecorder persists one execution_log row per task the
// scheduler drives to completion, regardless of outcome. A nil
// Config.Recorder simply skips logging.
type ExecutionRecorder interface {
	RecordExecution(ctx context.Context, taskID, toolName, actor string, success bool, durationMs int64, errMsg string) error
}

// ScheduledJob is a named recurring task definition.
type ScheduledJob struct {
	ID         string
	Name       string
	TaskType   orchestrator.TaskType
	Priority   orchestrator.Priority
	IntervalMs int64
	LastRun    time.Time
	NextRun    time.Time
	Enabled    bool
	Payload    map[string]any
}

// Config controls worker concurrency and the heartbeat cadence.
//
// WorkerCount == 1 (the default) is single-writer: one task processed at a
// time, FIFO within a priority tier, completion order == pop order. Any
// value > 1 switches to a bounded worker-pool mode: FIFO admission into
// the pool is preserved, but completion order is no longer guaranteed —
// that weaker guarantee is the documented tradeoff of raising WorkerCount.
type Config struct {
	WorkerCount     int
	HeartbeatEvery  time.Duration // default 10s
	HeartbeatEveryN int           // emit daemon:heartbeat every Nth tick, default 6
	QueueBuffer     int           // default 256
	Recorder        ExecutionRecorder
}

func (c Config) withDefaults() Config {
	if c.WorkerCount <= 0 {
		c.WorkerCount = 1
	}
	if c.HeartbeatEvery <= 0 {
		c.HeartbeatEvery = 10 * time.Second
	}
	if c.HeartbeatEveryN <= 0 {
		c.HeartbeatEveryN = 6
	}
	if c.QueueBuffer <= 0 {
		c.QueueBuffer = 256
	}
	return c
}
