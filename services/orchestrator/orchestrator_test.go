package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aegisops/aegisd/services/events"
)

func TestService_CreateTask_RoutesKnownType(t *testing.T) {
	svc := New(nil, nil, nil)
	task := svc.CreateTask(TaskMessagingInbound, PriorityMedium, "inbound", "", nil)
	assert.Equal(t, RoleMessagingAgent, task.AssignedRole)
}

func TestService_CreateTask_SystemTypeRoutesDirect(t *testing.T) {
	svc := New(nil, nil, nil)
	task := svc.CreateTask(TaskSelfEvaluation, PriorityLow, "self-eval", "", nil)
	assert.Equal(t, RoleOrchestratorDirect, task.AssignedRole)
}

func TestService_ExecuteTask_HandlerFailureBecomesFailedResult(t *testing.T) {
	svc := New(nil, nil, nil)
	svc.RegisterHandler(RoleMessagingAgent, HandlerFunc(func(ctx context.Context, task Task) (TaskResult, error) {
		return TaskResult{}, errors.New("downstream unavailable")
	}))

	task := svc.CreateTask(TaskMessagingInbound, PriorityMedium, "inbound", "", nil)
	result, err := svc.ExecuteTask(context.Background(), task.ID)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Errors[0], "downstream unavailable")

	stored, ok := svc.Get(task.ID)
	require.True(t, ok)
	assert.NotNil(t, stored.CompletedAt)
}

func TestService_ExecuteTask_HandlerPanicIsCaught(t *testing.T) {
	svc := New(nil, nil, nil)
	svc.RegisterHandler(RoleMessagingAgent, HandlerFunc(func(ctx context.Context, task Task) (TaskResult, error) {
		panic("boom")
	}))

	task := svc.CreateTask(TaskMessagingInbound, PriorityMedium, "inbound", "", nil)
	result, err := svc.ExecuteTask(context.Background(), task.ID)
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestService_Abandoned_ListsStartedNeverCompleted(t *testing.T) {
	svc := New(nil, nil, nil)
	task := svc.CreateTask(TaskSelfEvaluation, PriorityLow, "x", "", nil)

	svc.mu.Lock()
	now := svc.tasks[task.ID].CreatedAt
	svc.tasks[task.ID].StartedAt = &now
	svc.mu.Unlock()

	abandoned := svc.Abandoned()
	require.Len(t, abandoned, 1)
	assert.Equal(t, task.ID, abandoned[0].ID)
}

func TestService_EmitsLifecycleEvents(t *testing.T) {
	bus := events.New()
	var kinds []events.Kind
	bus.Subscribe(func(e events.Event) { kinds = append(kinds, e.Kind) })

	svc := New(nil, bus, nil)
	svc.RegisterHandler(RoleMessagingAgent, HandlerFunc(func(ctx context.Context, task Task) (TaskResult, error) {
		return TaskResult{Success: true}, nil
	}))

	task := svc.CreateTask(TaskMessagingInbound, PriorityMedium, "inbound", "", nil)
	_, err := svc.ExecuteTask(context.Background(), task.ID)
	require.NoError(t, err)

	assert.Equal(t, []events.Kind{events.KindTaskCreated, events.KindTaskStarted, events.KindTaskCompleted}, kinds)
}
