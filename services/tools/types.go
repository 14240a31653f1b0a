// Package tools implements the tool registry and the execution wrapper
// that uniformly applies schema validation, governance, circuit breaking,
// and audit logging around every tool invocation.
package tools

import (
	"context"

	"github.com/aegisops/aegisd/pkg/value"
	"github.com/aegisops/aegisd/services/governance"
)

// ToolResult is what a tool's Execute function, and the wrapper around it,
// return.
type ToolResult struct {
	Success  bool
	Data     value.Value
	Error    string
	Metadata map[string]any
}

// Tool is a uniquely named, schema-described, risk-rated operation the
// core can invoke.
type Tool struct {
	Name             string
	Description      string
	Category         string
	InputSchema      value.Schema
	RequiresApproval bool
	RiskLevel        governance.RiskLevel

	// TargetField names the input field whose string value becomes the
	// audit entry's target (e.g. "to" for a payment tool). Empty means
	// the tool name itself is used as target.
	TargetField string

	Execute func(ctx context.Context, input value.Value) (ToolResult, error)
}
