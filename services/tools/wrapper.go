package tools

import (
	"context"
	"fmt"

	"github.com/aegisops/aegisd/pkg/logging"
	"github.com/aegisops/aegisd/pkg/value"
	"github.com/aegisops/aegisd/services/audit"
	"github.com/aegisops/aegisd/services/breaker"
	"github.com/aegisops/aegisd/services/governance"
)

// ExecutionWrapper is the single uniform path every tool invocation runs
// through: schema validation, governance, circuit breaking, execution,
// and audit.
type ExecutionWrapper struct {
	registry   *Registry
	governance *governance.Engine
	breakers   *breaker.Registry
	ledger     *audit.Ledger
	logger     *logging.Logger
}

func NewExecutionWrapper(registry *Registry, gov *governance.Engine, breakers *breaker.Registry, ledger *audit.Ledger, logger *logging.Logger) *ExecutionWrapper {
	if logger == nil {
		logger = logging.Default()
	}
	return &ExecutionWrapper{registry: registry, governance: gov, breakers: breakers, ledger: ledger, logger: logger}
}

// Invoke runs toolName's invocation protocol in order: validate, govern,
// breaker-check, execute, record. agentID is the actor attributed in the
// audit trail.
func (w *ExecutionWrapper) Invoke(ctx context.Context, agentID, toolName string, input value.Value, estimatedValue *float64) (ToolResult, error) {
	tool, ok := w.registry.Get(toolName)
	if !ok {
		return ToolResult{Success: false, Error: "unknown tool"}, nil
	}

	if err := tool.InputSchema.Validate(input); err != nil {
		return ToolResult{Success: false, Error: "invalid input: " + err.Error()}, nil
	}

	decision := w.governance.Evaluate(governance.Request{
		ToolName:         toolName,
		RiskLevel:        tool.RiskLevel,
		RequiresApproval: tool.RequiresApproval,
		EstimatedValue:   estimatedValue,
	})

	target := tool.Name
	if tool.TargetField != "" {
		if field, ok := input.Get(tool.TargetField); ok && field.Kind == value.KindString {
			target = field.Str
		}
	}

	if decision.Authority == governance.RequireApproval || decision.Authority == governance.RequireHuman {
		result := ToolResult{Success: false, Error: "approval required", Metadata: map[string]any{"authority": string(decision.Authority)}}
		w.recordAudit(ctx, agentID, toolName, target, input, decision, result)
		return result, nil
	}

	if w.breakers != nil && !w.breakers.CanExecute(toolName) {
		result := ToolResult{Success: false, Error: "breaker open"}
		w.recordAudit(ctx, agentID, toolName, target, input, decision, result)
		return result, nil
	}

	result := w.execute(ctx, tool, input)

	if w.breakers != nil {
		if result.Success {
			w.breakers.RecordSuccess(toolName)
		} else {
			w.breakers.RecordFailure(toolName)
		}
	}

	w.recordAudit(ctx, agentID, toolName, target, input, decision, result)
	return result, nil
}

// execute runs the tool, converting a panic or an error return into a
// failure ToolResult rather than propagating it.
func (w *ExecutionWrapper) execute(ctx context.Context, tool Tool, input value.Value) (result ToolResult) {
	defer func() {
		if r := recover(); r != nil {
			result = ToolResult{Success: false, Error: fmt.Sprintf("tool panicked: %v", r)}
		}
	}()

	result, err := tool.Execute(ctx, input)
	if err != nil {
		return ToolResult{Success: false, Error: err.Error()}
	}
	return result
}

func (w *ExecutionWrapper) recordAudit(ctx context.Context, agentID, toolName, target string, input value.Value, decision governance.Decision, result ToolResult) {
	if w.ledger == nil || !decision.AuditRequired {
		return
	}

	details := map[string]any{
		"input":     input.Redacted(),
		"success":   result.Success,
		"authority": string(decision.Authority),
	}
	if result.Error != "" {
		details["error"] = result.Error
	}

	if _, err := w.ledger.Record(ctx, agentID, toolName, target, details); err != nil {
		w.logger.Error("tools.audit.record_failed", "tool", toolName, "error", err)
	}
}
