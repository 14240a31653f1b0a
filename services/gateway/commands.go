package gateway

import (
	"context"
	"fmt"

	"github.com/aegisops/aegisd/services/lifecycle"
	"github.com/aegisops/aegisd/services/orchestrator"
)

// dispatchCommand runs cmd's subchannel synchronously against mgr and
// returns the reply the gateway sends back over the originating
// transport, matching the "core must handle each synchronously through
// the provided callback" contract.
func dispatchCommand(mgr *lifecycle.Manager, cmd Command) CommandResponse {
	switch cmd.Subchannel {
	case "task:create":
		return handleTaskCreate(mgr, cmd.Args)
	case "job:list":
		return CommandResponse{OK: true, Data: mgr.Scheduler.ListJobs()}
	case "job:toggle":
		return handleJobToggle(mgr, cmd.Args)
	case "self-eval:run":
		return handleSelfEvalRun(mgr)
	case "memory:stats":
		return handleMemoryStats(mgr)
	case "daemon:status":
		return handleDaemonStatus(mgr)
	default:
		return CommandResponse{OK: false, Error: fmt.Sprintf("unknown subchannel %q", cmd.Subchannel)}
	}
}

func handleTaskCreate(mgr *lifecycle.Manager, args map[string]any) CommandResponse {
	taskType, _ := args["type"].(string)
	if taskType == "" {
		return CommandResponse{OK: false, Error: "missing required arg: type"}
	}
	title, _ := args["title"].(string)
	description, _ := args["description"].(string)
	priority := parsePriority(args["priority"])

	payload, _ := args["payload"].(map[string]any)
	task := mgr.Orchestrator.CreateTask(orchestrator.TaskType(taskType), priority, title, description, payload)
	mgr.Scheduler.Enqueue(task)
	return CommandResponse{OK: true, Data: task}
}

func parsePriority(v any) orchestrator.Priority {
	s, _ := v.(string)
	switch s {
	case "critical":
		return orchestrator.PriorityCritical
	case "high":
		return orchestrator.PriorityHigh
	case "low":
		return orchestrator.PriorityLow
	default:
		return orchestrator.PriorityMedium
	}
}

func handleJobToggle(mgr *lifecycle.Manager, args map[string]any) CommandResponse {
	id, _ := args["id"].(string)
	enabled, _ := args["enabled"].(bool)
	if id == "" {
		return CommandResponse{OK: false, Error: "missing required arg: id"}
	}
	if !mgr.Scheduler.ToggleJob(id, enabled) {
		return CommandResponse{OK: false, Error: fmt.Sprintf("unknown job %q", id)}
	}
	return CommandResponse{OK: true}
}

func handleSelfEvalRun(mgr *lifecycle.Manager) CommandResponse {
	task := mgr.Orchestrator.CreateTask(orchestrator.TaskSelfEvaluation, orchestrator.PriorityLow, "on-demand self-evaluation", "", nil)
	mgr.Scheduler.Enqueue(task)
	return CommandResponse{OK: true, Data: task}
}

func handleMemoryStats(mgr *lifecycle.Manager) CommandResponse {
	if mgr.Memory == nil {
		return CommandResponse{OK: true, Data: map[string]any{"configured": false}}
	}
	stats, err := mgr.Memory.Stats(context.Background())
	if err != nil {
		return CommandResponse{OK: false, Error: err.Error()}
	}
	return CommandResponse{OK: true, Data: stats}
}

func handleDaemonStatus(mgr *lifecycle.Manager) CommandResponse {
	return CommandResponse{OK: true, Data: map[string]any{
		"queue_depth": mgr.Scheduler.QueueDepth(),
		"breakers":    mgr.Breakers.GetState(),
		"healing":     mgr.Healing.LastReport(),
	}}
}
