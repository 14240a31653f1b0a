// Package orchestrator owns the canonical task map, routes tasks to agent
// roles, drives handler execution, and emits task lifecycle events.
package orchestrator

import (
	"context"
	"time"
)

// Priority orders tasks; Critical pops before High before Medium before Low.
type Priority int

const (
	PriorityCritical Priority = iota
	PriorityHigh
	PriorityMedium
	PriorityLow
)

func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	default:
		return "unknown"
	}
}

// TaskType is the closed enum of routable kinds.
type TaskType string

const (
	TaskMessagingInbound TaskType = "messaging_inbound"
	TaskLLMComplete      TaskType = "llm_complete"
	TaskToolInvocation   TaskType = "tool_invocation"
	TaskSelfEvaluation   TaskType = "self_evaluation"
	TaskMemoryConsolidate TaskType = "memory_consolidation"
	TaskHealthCheck      TaskType = "health_check"
	TaskBreakerEvaluate  TaskType = "breaker_evaluate"
	TaskDependencyAudit  TaskType = "dependency_audit"
	TaskIntrospection    TaskType = "introspection"
	TaskIncrementalSync  TaskType = "incremental_sync"
)

// AgentRole is a named handler identity that owns a subset of tools and
// decoding parameters.
type AgentRole string

const (
	RoleOrchestratorDirect AgentRole = "orchestrator_direct"
	RoleMessagingAgent     AgentRole = "messaging_agent"
	RolePaymentsAgent      AgentRole = "payments_agent"
	RoleResearchAgent      AgentRole = "research_agent"
	RoleMaintenanceAgent   AgentRole = "maintenance_agent"
)

// RoleDescriptor is the static, total-function target of role routing.
type RoleDescriptor struct {
	Role              AgentRole
	Identity          string
	AllowedToolNames  []string
	DecodingParams    map[string]any
}

// Task is a unit of work with a type, priority, and payload.
type Task struct {
	ID            string
	Type          TaskType
	Priority      Priority
	Title         string
	Description   string
	Payload       map[string]any
	AssignedRole  AgentRole
	Dependencies  []string
	CreatedAt     time.Time
	StartedAt     *time.Time
	CompletedAt   *time.Time
	Result        *TaskResult
	Cancelled     bool
}

// TaskResult is the outcome of running a Task through its handler.
type TaskResult struct {
	Success          bool
	Output           map[string]any
	TokensUsed       int
	ExecutionTimeMs  int64
	SubTasksSpawned  int
	Errors           []string
}

// Handler executes a task for a given role.
type Handler interface {
	Handle(ctx context.Context, task Task) (TaskResult, error)
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, task Task) (TaskResult, error)

func (f HandlerFunc) Handle(ctx context.Context, task Task) (TaskResult, error) { return f(ctx, task) }

// routingTable is the total function from TaskType to AgentRole. Types not
// present here route to RoleOrchestratorDirect, the orchestrator's own
// direct-execution path for system task types.
var routingTable = map[TaskType]AgentRole{
	TaskMessagingInbound: RoleMessagingAgent,
	TaskToolInvocation:   RolePaymentsAgent,
}

func routeType(t TaskType) AgentRole {
	if role, ok := routingTable[t]; ok {
		return role
	}
	return RoleOrchestratorDirect
}
