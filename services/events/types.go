// Package events implements the process-local publish/subscribe bus that
// every other subsystem uses to announce lifecycle changes to the gateway
// and to each other, without taking a direct dependency on one another.
package events

import "time"

// Kind is a colon-separated event name ("subsystem:event"), grouped by the
// subsystem that emits it.
type Kind string

const (
	KindTaskCreated   Kind = "task:created"
	KindTaskStarted   Kind = "task:started"
	KindTaskCompleted Kind = "task:completed"
	KindTaskFailed    Kind = "task:failed"

	KindAgentSpawned   Kind = "agent:spawned"
	KindAgentTerminated Kind = "agent:terminated"
	KindAgentError     Kind = "agent:error"

	KindToolInvoked Kind = "tool:invoked"
	KindToolResult  Kind = "tool:result"

	KindDaemonStarted   Kind = "daemon:started"
	KindDaemonHeartbeat Kind = "daemon:heartbeat"
	KindDaemonStopped   Kind = "daemon:stopped"

	KindHealingHealthCheck Kind = "healing:health_check"
	KindHealingCircuitBreak Kind = "healing:circuit_break"
	KindHealingRecovery    Kind = "healing:recovery"

	KindMemoryStored  Kind = "memory:stored"
	KindMemoryRecalled Kind = "memory:recalled"

	KindBusExpired    Kind = "bus:expired"
	KindBusBroadcast  Kind = "bus:broadcast"
)

// Event is one published notification.
type Event struct {
	Kind      Kind
	Source    string
	Payload   map[string]any
	Timestamp time.Time
}
