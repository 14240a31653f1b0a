package governance

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aegisops/aegisd/pkg/logging"
)

const decisionLogCap = 10_000

// Engine evaluates governance requests against the current policy table.
// The table is swapped atomically on override reload so Evaluate never
// blocks behind a file read.
type Engine struct {
	table  atomic.Pointer[map[RiskLevel]Policy]
	logger *logging.Logger

	mu           sync.Mutex
	decisionLog  []Decision
	overrideStop chan struct{}
}

// New builds an Engine from the embedded default policy table. Call
// WatchOverride afterward to layer an on-disk override with hot reload.
func New(logger *logging.Logger) (*Engine, error) {
	if logger == nil {
		logger = logging.Default()
	}
	table, err := loadDefaultTable()
	if err != nil {
		return nil, fmt.Errorf("governance: load default table: %w", err)
	}
	e := &Engine{logger: logger}
	e.table.Store(&table)
	return e, nil
}

// WatchOverride begins watching path for changes; a changed file always
// replaces the entire table. Safe to call at most once per Engine.
func (e *Engine) WatchOverride(path string) error {
	if table, err := loadOverrideTable(path); err == nil {
		e.table.Store(&table)
		e.logger.Info("governance.override.loaded", "path", path)
	}

	e.overrideStop = make(chan struct{})
	return watchOverride(path, e.logger, func(table map[RiskLevel]Policy) {
		e.table.Store(&table)
	}, e.overrideStop)
}

// StopWatch stops the override watcher, if one was started.
func (e *Engine) StopWatch() {
	if e.overrideStop != nil {
		close(e.overrideStop)
	}
}

// Evaluate decides the authority for req against the current policy table,
// applies the requiresApproval floor and value-threshold escalation, and
// records the decision in the bounded decision log.
func (e *Engine) Evaluate(req Request) Decision {
	table := *e.table.Load()
	policy, ok := table[req.RiskLevel]
	if !ok {
		policy = Policy{RiskLevel: req.RiskLevel, Authority: RequireHuman, AuditRequired: true}
	}

	authority := policy.Authority
	reason := fmt.Sprintf("risk=%s default=%s", req.RiskLevel, policy.Authority)

	if req.RequiresApproval {
		floor := RequireApproval
		if req.RiskLevel == RiskCritical {
			floor = RequireHuman
		}
		if rank[floor] > rank[authority] {
			authority = floor
			reason += fmt.Sprintf(", tool requires approval -> floor=%s", floor)
		}
	}

	if policy.MaxAutoApproveValue != nil && req.EstimatedValue != nil && *req.EstimatedValue > *policy.MaxAutoApproveValue {
		promoted := promote(authority)
		authority = higherAuthority(authority, promoted)
		reason += fmt.Sprintf(", Value threshold exceeded: %.2f > max_auto_approve_value %.2f -> %s",
			*req.EstimatedValue, *policy.MaxAutoApproveValue, authority)
	}

	decision := Decision{
		ToolName:      req.ToolName,
		RiskLevel:     req.RiskLevel,
		Authority:     authority,
		AuditRequired: policy.AuditRequired || authority != AutoApprove,
		Reason:        reason,
		DecidedAt:     time.Now().UTC(),
	}

	e.appendDecision(decision)
	return decision
}

func (e *Engine) appendDecision(d Decision) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.decisionLog = append(e.decisionLog, d)
	if len(e.decisionLog) > decisionLogCap {
		keep := e.decisionLog[len(e.decisionLog)-decisionLogCap/2:]
		e.decisionLog = append([]Decision(nil), keep...)
	}
}

// RecentDecisions returns up to n of the most recent decisions.
func (e *Engine) RecentDecisions(n int) []Decision {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := len(e.decisionLog) - n
	if start < 0 {
		start = 0
	}
	out := make([]Decision, len(e.decisionLog[start:]))
	copy(out, e.decisionLog[start:])
	return out
}
