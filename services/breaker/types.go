// Package breaker implements the per-operation circuit breaker registry
// that protects the daemon from hammering a failing collaborator.
package breaker

import "time"

// State is a breaker's position in the closed/open/halfOpen state machine.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "halfOpen"
	default:
		return "unknown"
	}
}

// BreakerState is the externally visible snapshot of one operation's breaker.
type BreakerState struct {
	OperationName string
	FailureCount  int
	LastFailureAt time.Time
	State         State
	OpenedAt      time.Time
	CooldownMs    int64
}
