package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aegisops/aegisd/pkg/logging"
	"github.com/aegisops/aegisd/services/events"
	"github.com/aegisops/aegisd/services/llm"
)

// Service is the task orchestrator: it owns the canonical task map, routes
// tasks to agent roles, drives handler execution, and emits lifecycle
// events. A single task is always executed by exactly one handler, though
// multiple handlers may run concurrently across different tasks.
type Service struct {
	mu    sync.RWMutex
	tasks map[string]*Task

	handlers  map[AgentRole]Handler
	llmClient llm.Client
	events    *events.Bus
	logger    *logging.Logger
}

func New(llmClient llm.Client, eventBus *events.Bus, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		tasks:     make(map[string]*Task),
		handlers:  make(map[AgentRole]Handler),
		llmClient: llmClient,
		events:    eventBus,
		logger:    logger,
	}
}

// RegisterHandler binds a Handler to role. The orchestrator itself serves
// RoleOrchestratorDirect via llm_complete and any other system task type;
// callers only need to register the sub-handler roles.
func (s *Service) RegisterHandler(role AgentRole, handler Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[role] = handler
}

// CreateTask creates a task in pending state with a fresh id and emits
// task:created.
func (s *Service) CreateTask(taskType TaskType, priority Priority, title, description string, payload map[string]any) Task {
	task := Task{
		ID:          uuid.NewString(),
		Type:        taskType,
		Priority:    priority,
		Title:       title,
		Description: description,
		Payload:     payload,
		CreatedAt:   time.Now().UTC(),
	}
	task.AssignedRole = s.RouteTask(task)

	s.mu.Lock()
	s.tasks[task.ID] = &task
	s.mu.Unlock()

	s.emit(events.KindTaskCreated, task.ID, nil)
	return task
}

// RouteTask is a deterministic, total lookup from task type to agent role.
func (s *Service) RouteTask(task Task) AgentRole {
	return routeType(task.Type)
}

// ExecuteTask drives one task to completion. Handler exceptions are
// caught and reported as a failing TaskResult rather than propagated; the
// task is marked complete either way, so it is never left invisible.
func (s *Service) ExecuteTask(ctx context.Context, taskID string) (TaskResult, error) {
	s.mu.Lock()
	task, ok := s.tasks[taskID]
	if !ok {
		s.mu.Unlock()
		return TaskResult{}, fmt.Errorf("orchestrator: unknown task %q", taskID)
	}
	started := time.Now().UTC()
	task.StartedAt = &started
	s.mu.Unlock()

	s.emit(events.KindTaskStarted, taskID, nil)

	start := time.Now()
	result := s.dispatch(ctx, *task)
	result.ExecutionTimeMs = time.Since(start).Milliseconds()

	s.mu.Lock()
	completed := time.Now().UTC()
	task.CompletedAt = &completed
	if !task.Cancelled {
		task.Result = &result
	}
	s.mu.Unlock()

	if result.Success {
		s.emit(events.KindTaskCompleted, taskID, map[string]any{"execution_time_ms": result.ExecutionTimeMs})
	} else {
		s.emit(events.KindTaskFailed, taskID, map[string]any{"errors": result.Errors})
	}

	return result, nil
}

func (s *Service) dispatch(ctx context.Context, task Task) TaskResult {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("orchestrator.handler.panic", "task_id", task.ID, "recovered", r)
		}
	}()

	if task.AssignedRole == RoleOrchestratorDirect {
		return s.handleDirect(ctx, task)
	}

	s.mu.RLock()
	handler, ok := s.handlers[task.AssignedRole]
	s.mu.RUnlock()
	if !ok {
		return TaskResult{Success: false, Errors: []string{fmt.Sprintf("no handler registered for role %q", task.AssignedRole)}}
	}

	result, err := s.safeHandle(ctx, handler, task)
	if err != nil {
		return TaskResult{Success: false, Errors: []string{err.Error()}}
	}
	return result
}

func (s *Service) safeHandle(ctx context.Context, handler Handler, task Task) (result TaskResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler.Handle(ctx, task)
}

// handleDirect is the orchestrator's own execution path for system task
// types, currently just llm_complete.
func (s *Service) handleDirect(ctx context.Context, task Task) TaskResult {
	switch task.Type {
	case TaskLLMComplete:
		return s.handleLLMComplete(ctx, task)
	default:
		return TaskResult{Success: true, Output: map[string]any{"note": "no-op system task"}}
	}
}

func (s *Service) handleLLMComplete(ctx context.Context, task Task) TaskResult {
	if s.llmClient == nil {
		return TaskResult{Success: false, Errors: []string{"no llm client configured"}}
	}
	prompt, _ := task.Payload["prompt"].(string)
	if prompt == "" {
		return TaskResult{Success: false, Errors: []string{"missing prompt in payload"}}
	}

	text, err := s.llmClient.Generate(ctx, prompt, llm.GenerationParams{})
	if err != nil {
		return TaskResult{Success: false, Errors: []string{err.Error()}}
	}
	return TaskResult{Success: true, Output: map[string]any{"text": text}}
}

// Get returns a copy of the task for taskID.
func (s *Service) Get(taskID string) (Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return Task{}, false
	}
	return *task, true
}

// Abandoned returns tasks that have StartedAt set but no CompletedAt. The
// task map is held in memory only, so this lists tasks started in this
// process; tasks from a previous boot are not retained.
func (s *Service) Abandoned() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Task
	for _, t := range s.tasks {
		if t.StartedAt != nil && t.CompletedAt == nil {
			out = append(out, *t)
		}
	}
	return out
}

// Cancel marks taskID cancelled. It only sets the flag: a running handler
// is not interrupted and its context is not cancelled, so it runs to
// completion; ExecuteTask then discards its result instead of storing it
// on the task.
func (s *Service) Cancel(taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return false
	}
	task.Cancelled = true
	return true
}

func (s *Service) emit(kind events.Kind, taskID string, extra map[string]any) {
	if s.events == nil {
		return
	}
	payload := map[string]any{"task_id": taskID}
	for k, v := range extra {
		payload[k] = v
	}
	s.events.Emit(events.Event{Kind: kind, Source: "orchestrator", Payload: payload})
}
