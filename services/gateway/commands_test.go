package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchCommand_TaskCreate(t *testing.T) {
	mgr := testManager(t)
	resp := dispatchCommand(mgr, Command{
		Subchannel: "task:create",
		Args: map[string]any{
			"type":     "self_evaluation",
			"title":    "manual run",
			"priority": "high",
		},
	})
	assert.True(t, resp.OK)
	assert.NotNil(t, resp.Data)
}

func TestDispatchCommand_TaskCreate_MissingTypeErrors(t *testing.T) {
	mgr := testManager(t)
	resp := dispatchCommand(mgr, Command{Subchannel: "task:create", Args: map[string]any{"title": "x"}})
	assert.False(t, resp.OK)
	assert.Contains(t, resp.Error, "type")
}

func TestDispatchCommand_JobList(t *testing.T) {
	mgr := testManager(t)
	resp := dispatchCommand(mgr, Command{Subchannel: "job:list"})
	require.True(t, resp.OK)
	assert.NotNil(t, resp.Data)
}

func TestDispatchCommand_JobToggle_UnknownIDErrors(t *testing.T) {
	mgr := testManager(t)
	resp := dispatchCommand(mgr, Command{Subchannel: "job:toggle", Args: map[string]any{"id": "nope", "enabled": false}})
	assert.False(t, resp.OK)
}

func TestDispatchCommand_JobToggle_KnownID(t *testing.T) {
	mgr := testManager(t)
	jobs := mgr.Scheduler.ListJobs()
	require.NotEmpty(t, jobs)
	resp := dispatchCommand(mgr, Command{Subchannel: "job:toggle", Args: map[string]any{"id": jobs[0].ID, "enabled": false}})
	assert.True(t, resp.OK)
}

func TestDispatchCommand_SelfEvalRun(t *testing.T) {
	mgr := testManager(t)
	resp := dispatchCommand(mgr, Command{Subchannel: "self-eval:run"})
	assert.True(t, resp.OK)
}

func TestDispatchCommand_MemoryStats_NoStoreConfigured(t *testing.T) {
	mgr := testManager(t)
	resp := dispatchCommand(mgr, Command{Subchannel: "memory:stats"})
	assert.True(t, resp.OK)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, data["configured"])
}

func TestDispatchCommand_DaemonStatus(t *testing.T) {
	mgr := testManager(t)
	resp := dispatchCommand(mgr, Command{Subchannel: "daemon:status"})
	assert.True(t, resp.OK)
}

func TestDispatchCommand_UnknownSubchannel(t *testing.T) {
	mgr := testManager(t)
	resp := dispatchCommand(mgr, Command{Subchannel: "not:a:thing"})
	assert.False(t, resp.OK)
	assert.Contains(t, resp.Error, "unknown subchannel")
}
