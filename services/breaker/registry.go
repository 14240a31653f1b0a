package breaker

import (
	"sync"
	"time"

	"github.com/aegisops/aegisd/pkg/logging"
)

const (
	defaultThreshold  = 5
	defaultCooldownMs = int64(5 * time.Minute / time.Millisecond)
)

type breakerEntry struct {
	state        State
	failureCount int
	lastFailure  time.Time
	openedAt     time.Time
	threshold    int
	cooldownMs   int64
}

// Registry tracks one breakerEntry per operation name, guarded by a single
// mutex.
type Registry struct {
	mu       sync.Mutex
	breakers map[string]*breakerEntry
	logger   *logging.Logger

	defaultThreshold  int
	defaultCooldownMs int64
}

// Config customizes the defaults new operations get on first sight.
type Config struct {
	DefaultThreshold  int
	DefaultCooldownMs int64
	Logger            *logging.Logger
}

func NewRegistry(cfg Config) *Registry {
	threshold := cfg.DefaultThreshold
	if threshold <= 0 {
		threshold = defaultThreshold
	}
	cooldown := cfg.DefaultCooldownMs
	if cooldown <= 0 {
		cooldown = defaultCooldownMs
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Registry{
		breakers:          make(map[string]*breakerEntry),
		logger:            logger,
		defaultThreshold:  threshold,
		defaultCooldownMs: cooldown,
	}
}

func (r *Registry) entry(name string) *breakerEntry {
	if e, ok := r.breakers[name]; ok {
		return e
	}
	e := &breakerEntry{
		state:      StateClosed,
		threshold:  r.defaultThreshold,
		cooldownMs: r.defaultCooldownMs,
	}
	r.breakers[name] = e
	return e
}

// CanExecute reports whether name's breaker currently permits a call. An
// unknown operation is treated as implicitly closed. If the breaker is open
// and its cooldown has elapsed, the query itself transitions it to
// halfOpen and returns true — the caller that observes this transition is
// the trial call.
func (r *Registry) CanExecute(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := r.entry(name)
	switch e.state {
	case StateClosed, StateHalfOpen:
		return true
	case StateOpen:
		elapsed := time.Since(e.openedAt).Milliseconds()
		if elapsed >= e.cooldownMs {
			e.state = StateHalfOpen
			r.logger.Info("breaker.half_open", "operation", name)
			return true
		}
		return false
	default:
		return true
	}
}

// RecordSuccess resets failureCount and, from halfOpen, closes the breaker.
func (r *Registry) RecordSuccess(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := r.entry(name)
	e.failureCount = 0
	if e.state == StateHalfOpen {
		e.state = StateClosed
		e.openedAt = time.Time{}
		r.logger.Info("breaker.closed", "operation", name)
	}
}

// RecordFailure increments the failure counter, opening the breaker once
// threshold is reached in closed state, or immediately re-opening from
// halfOpen.
func (r *Registry) RecordFailure(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := r.entry(name)
	e.failureCount++
	e.lastFailure = time.Now()

	switch e.state {
	case StateClosed:
		if e.failureCount >= e.threshold {
			e.state = StateOpen
			e.openedAt = time.Now()
			r.logger.Warn("breaker.opened", "operation", name, "failure_count", e.failureCount)
		}
	case StateHalfOpen:
		e.state = StateOpen
		e.openedAt = time.Now()
		r.logger.Warn("breaker.reopened", "operation", name)
	}
}

// Reset forces name back to closed with zeroed counters, regardless of its
// current state.
func (r *Registry) Reset(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := r.entry(name)
	e.state = StateClosed
	e.failureCount = 0
	e.openedAt = time.Time{}
}

// Evaluate walks every known breaker, promoting any open breaker whose
// cooldown has elapsed to halfOpen, and returns the operations that
// changed state. Intended to be driven by a periodic job rather than
// relying solely on CanExecute's lazy transition.
func (r *Registry) Evaluate() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var changed []string
	for name, e := range r.breakers {
		if e.state == StateOpen && time.Since(e.openedAt).Milliseconds() >= e.cooldownMs {
			e.state = StateHalfOpen
			changed = append(changed, name)
		}
	}
	if len(changed) > 0 {
		r.logger.Info("breaker.evaluate", "transitioned", changed)
	}
	return changed
}

// GetState returns a snapshot of every tracked breaker.
func (r *Registry) GetState() []BreakerState {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]BreakerState, 0, len(r.breakers))
	for name, e := range r.breakers {
		out = append(out, BreakerState{
			OperationName: name,
			FailureCount:  e.failureCount,
			LastFailureAt: e.lastFailure,
			State:         e.state,
			OpenedAt:      e.openedAt,
			CooldownMs:    e.cooldownMs,
		})
	}
	return out
}
