package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aegisops/aegisd/pkg/logging"
	"github.com/aegisops/aegisd/services/events"
	"github.com/aegisops/aegisd/services/orchestrator"
)

// Scheduler owns the priority task queue, a pool of worker goroutines that
// drain it, and a timer wheel that turns ScheduledJobs into tasks on
// their own cadence.
type Scheduler struct {
	mu    sync.Mutex
	queue *priorityQueue
	jobs  map[string]*ScheduledJob

	orch   *orchestrator.Service
	events *events.Bus
	logger *logging.Logger
	cfg    Config

	wake chan struct{}
	done chan struct{}
	wg   sync.WaitGroup

	heartbeatTick int
}

func New(orch *orchestrator.Service, eventBus *events.Bus, logger *logging.Logger, cfg Config) *Scheduler {
	if logger == nil {
		logger = logging.Default()
	}
	cfg = cfg.withDefaults()
	return &Scheduler{
		queue:  newPriorityQueue(),
		jobs:   make(map[string]*ScheduledJob),
		orch:   orch,
		events: eventBus,
		logger: logger,
		cfg:    cfg,
		wake:   make(chan struct{}, 1),
	}
}

// Start launches cfg.WorkerCount workers, the job timer wheel, and the
// heartbeat loop. Calling Start while the scheduler is already running is
// a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	if s.done != nil {
		return
	}
	s.done = make(chan struct{})

	for i := 0; i < s.cfg.WorkerCount; i++ {
		s.wg.Add(1)
		go s.workerLoop(ctx)
	}

	s.wg.Add(1)
	go s.jobLoop(ctx)

	s.wg.Add(1)
	go s.heartbeatLoop()

	s.emit(events.KindDaemonStarted, nil)
}

func (s *Scheduler) Stop() {
	if s.done == nil {
		return
	}
	close(s.done)
	s.wg.Wait()
	s.done = nil
	s.emit(events.KindDaemonStopped, nil)
}

// Enqueue admits an already-created task into the priority queue and
// wakes a worker.
func (s *Scheduler) Enqueue(task orchestrator.Task) {
	s.mu.Lock()
	s.queue.push(task)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// QueueDepth returns the number of tasks waiting to be picked up.
func (s *Scheduler) QueueDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.len()
}

func (s *Scheduler) workerLoop(ctx context.Context) {
	defer s.wg.Done()
	for {
		task, ok := s.nextTask()
		if !ok {
			select {
			case <-s.done:
				return
			case <-s.wake:
				continue
			case <-time.After(time.Second):
				continue
			}
		}

		runCtx := ctx
		if runCtx == nil {
			runCtx = context.Background()
		}
		start := time.Now()
		result, err := s.orch.ExecuteTask(runCtx, task.ID)
		if err != nil {
			s.logger.Error("scheduler.task.execute_failed", "task_id", task.ID, "error", err.Error())
		}
		s.recordExecution(runCtx, task.ID, result, err, time.Since(start))

		select {
		case <-s.done:
			return
		default:
		}
	}
}

// recordExecution writes one execution_log row per task the scheduler
// drives to completion, regardless of outcome. A nil Recorder skips
// logging. A task that never reached the orchestrator (err from
// ExecuteTask itself, result left zero-valued) still gets a row so the log
// stays a complete accounting of what the scheduler attempted.
func (s *Scheduler) recordExecution(ctx context.Context, taskID string, result orchestrator.TaskResult, execErr error, elapsed time.Duration) {
	if s.cfg.Recorder == nil {
		return
	}
	success := result.Success && execErr == nil
	errMsg := ""
	if execErr != nil {
		errMsg = execErr.Error()
	} else if len(result.Errors) > 0 {
		errMsg = strings.Join(result.Errors, "; ")
	}
	durationMs := result.ExecutionTimeMs
	if durationMs == 0 {
		durationMs = elapsed.Milliseconds()
	}
	if err := s.cfg.Recorder.RecordExecution(ctx, taskID, "", "scheduler", success, durationMs, errMsg); err != nil {
		s.logger.Error("scheduler.execution_log.write_failed", "task_id", taskID, "error", err.Error())
	}
}

func (s *Scheduler) nextTask() (orchestrator.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.pop()
}

// AddJob registers a recurring job and computes its first NextRun. An
// empty ID is assigned one.
func (s *Scheduler) AddJob(job ScheduledJob) string {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.IntervalMs <= 0 {
		job.IntervalMs = int64(time.Hour / time.Millisecond)
	}
	job.NextRun = time.Now().UTC().Add(time.Duration(job.IntervalMs) * time.Millisecond)

	s.mu.Lock()
	s.jobs[job.ID] = &job
	s.mu.Unlock()
	return job.ID
}

// ToggleJob flips a job's Enabled flag. Returns false if id is unknown.
func (s *Scheduler) ToggleJob(id string, enabled bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return false
	}
	job.Enabled = enabled
	return true
}

// ListJobs returns a snapshot of all registered jobs.
func (s *Scheduler) ListJobs() []ScheduledJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ScheduledJob, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, *j)
	}
	return out
}

// RunJob creates and enqueues a task for id immediately, regardless of
// its NextRun, and resets the timer from now.
func (s *Scheduler) RunJob(id string) error {
	s.mu.Lock()
	job, ok := s.jobs[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("scheduler: unknown job %q", id)
	}
	job.LastRun = time.Now().UTC()
	job.NextRun = job.LastRun.Add(time.Duration(job.IntervalMs) * time.Millisecond)
	jobCopy := *job
	s.mu.Unlock()

	s.dispatchJob(jobCopy)
	return nil
}

func (s *Scheduler) jobLoop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.tickJobs()
		}
	}
}

func (s *Scheduler) tickJobs() {
	now := time.Now().UTC()

	s.mu.Lock()
	var due []ScheduledJob
	for _, job := range s.jobs {
		if !job.Enabled || now.Before(job.NextRun) {
			continue
		}
		job.LastRun = now
		job.NextRun = now.Add(time.Duration(job.IntervalMs) * time.Millisecond)
		due = append(due, *job)
	}
	s.mu.Unlock()

	for _, job := range due {
		s.dispatchJob(job)
	}
}

func (s *Scheduler) dispatchJob(job ScheduledJob) {
	if s.orch == nil {
		return
	}
	task := s.orch.CreateTask(job.TaskType, job.Priority, job.Name, "scheduled job", job.Payload)
	s.Enqueue(task)
}

func (s *Scheduler) heartbeatLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.HeartbeatEvery)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.heartbeatTick++
			if s.heartbeatTick%s.cfg.HeartbeatEveryN == 0 {
				s.emit(events.KindDaemonHeartbeat, map[string]any{"queue_depth": s.QueueDepth()})
			}
		}
	}
}

func (s *Scheduler) emit(kind events.Kind, payload map[string]any) {
	if s.events == nil {
		return
	}
	s.events.Emit(events.Event{Kind: kind, Source: "scheduler", Payload: payload})
}
