package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aegisops/aegisd/services/orchestrator"
)

func TestPriorityQueue_PopsInPriorityOrder(t *testing.T) {
	pq := newPriorityQueue()
	pq.push(orchestrator.Task{ID: "low", Priority: orchestrator.PriorityLow})
	pq.push(orchestrator.Task{ID: "critical", Priority: orchestrator.PriorityCritical})
	pq.push(orchestrator.Task{ID: "medium", Priority: orchestrator.PriorityMedium})

	first, ok := pq.pop()
	require.True(t, ok)
	assert.Equal(t, "critical", first.ID)

	second, ok := pq.pop()
	require.True(t, ok)
	assert.Equal(t, "medium", second.ID)

	third, ok := pq.pop()
	require.True(t, ok)
	assert.Equal(t, "low", third.ID)

	_, ok = pq.pop()
	assert.False(t, ok)
}

func TestPriorityQueue_FIFOWithinTier(t *testing.T) {
	pq := newPriorityQueue()
	pq.push(orchestrator.Task{ID: "a", Priority: orchestrator.PriorityMedium})
	pq.push(orchestrator.Task{ID: "b", Priority: orchestrator.PriorityMedium})

	first, _ := pq.pop()
	second, _ := pq.pop()
	assert.Equal(t, "a", first.ID)
	assert.Equal(t, "b", second.ID)
}

func TestScheduler_EnqueueAndProcessesTask(t *testing.T) {
	orch := orchestrator.New(nil, nil, nil)
	sched := New(orch, nil, nil, Config{WorkerCount: 1, HeartbeatEvery: time.Hour})
	sched.Start(context.Background())
	defer sched.Stop()

	task := orch.CreateTask(orchestrator.TaskHealthCheck, orchestrator.PriorityHigh, "health", "", nil)
	sched.Enqueue(task)

	require.Eventually(t, func() bool {
		stored, ok := orch.Get(task.ID)
		return ok && stored.CompletedAt != nil
	}, time.Second, 5*time.Millisecond)
}

func TestScheduler_AddJob_ComputesNextRun(t *testing.T) {
	orch := orchestrator.New(nil, nil, nil)
	sched := New(orch, nil, nil, Config{})

	id := sched.AddJob(ScheduledJob{Name: "test-job", TaskType: orchestrator.TaskIntrospection, IntervalMs: 1000, Enabled: true})
	jobs := sched.ListJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, id, jobs[0].ID)
	assert.True(t, jobs[0].NextRun.After(time.Now().UTC()))
}

func TestScheduler_ToggleJob_DisablesExecution(t *testing.T) {
	orch := orchestrator.New(nil, nil, nil)
	sched := New(orch, nil, nil, Config{})
	id := sched.AddJob(ScheduledJob{Name: "test-job", TaskType: orchestrator.TaskIntrospection, IntervalMs: 1, Enabled: true})

	ok := sched.ToggleJob(id, false)
	require.True(t, ok)

	time.Sleep(5 * time.Millisecond)
	sched.tickJobs()
	assert.Equal(t, 0, sched.QueueDepth())
}

func TestScheduler_ToggleJob_UnknownIDReturnsFalse(t *testing.T) {
	orch := orchestrator.New(nil, nil, nil)
	sched := New(orch, nil, nil, Config{})
	assert.False(t, sched.ToggleJob("missing", true))
}

func TestScheduler_RunJob_Immediate(t *testing.T) {
	orch := orchestrator.New(nil, nil, nil)
	sched := New(orch, nil, nil, Config{})
	id := sched.AddJob(ScheduledJob{Name: "test-job", TaskType: orchestrator.TaskIntrospection, IntervalMs: int64(time.Hour / time.Millisecond), Enabled: true})

	err := sched.RunJob(id)
	require.NoError(t, err)
	assert.Equal(t, 1, sched.QueueDepth())
}

func TestScheduler_RunJob_UnknownIDErrors(t *testing.T) {
	orch := orchestrator.New(nil, nil, nil)
	sched := New(orch, nil, nil, Config{})
	err := sched.RunJob("missing")
	assert.Error(t, err)
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recordedExecution
}

type recordedExecution struct {
	taskID     string
	success    bool
	durationMs int64
	errMsg     string
}

func (f *fakeRecorder) RecordExecution(ctx context.Context, taskID, toolName, actor string, success bool, durationMs int64, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recordedExecution{taskID: taskID, success: success, durationMs: durationMs, errMsg: errMsg})
	return nil
}

func (f *fakeRecorder) snapshot() []recordedExecution {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]recordedExecution, len(f.calls))
	copy(out, f.calls)
	return out
}

func TestScheduler_RecordsExecutionRegardlessOfOutcome(t *testing.T) {
	orch := orchestrator.New(nil, nil, nil)
	rec := &fakeRecorder{}
	sched := New(orch, nil, nil, Config{WorkerCount: 1, HeartbeatEvery: time.Hour, Recorder: rec})
	sched.Start(context.Background())
	defer sched.Stop()

	task := orch.CreateTask(orchestrator.TaskHealthCheck, orchestrator.PriorityHigh, "health", "", nil)
	sched.Enqueue(task)

	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 1
	}, time.Second, 5*time.Millisecond)

	calls := rec.snapshot()
	assert.Equal(t, task.ID, calls[0].taskID)
	assert.True(t, calls[0].success)
}

func TestScheduler_NilRecorderSkipsLoggingSilently(t *testing.T) {
	orch := orchestrator.New(nil, nil, nil)
	sched := New(orch, nil, nil, Config{WorkerCount: 1, HeartbeatEvery: time.Hour})
	sched.Start(context.Background())
	defer sched.Stop()

	task := orch.CreateTask(orchestrator.TaskHealthCheck, orchestrator.PriorityHigh, "health", "", nil)
	sched.Enqueue(task)

	require.Eventually(t, func() bool {
		stored, ok := orch.Get(task.ID)
		return ok && stored.CompletedAt != nil
	}, time.Second, 5*time.Millisecond)
}
