package healing

import (
	"context"
	"sync"
	"time"

	"github.com/aegisops/aegisd/pkg/logging"
	"github.com/aegisops/aegisd/services/breaker"
	"github.com/aegisops/aegisd/services/events"
	"github.com/aegisops/aegisd/services/health"
)

// Supervisor owns the probe set, the breaker registry evaluation tick, and
// best-effort recovery.
type Supervisor struct {
	probes     map[string]health.Probe
	recoveries map[string]RecoveryFunc
	breakers   *breaker.Registry
	events     *events.Bus
	logger     *logging.Logger
	config     Config

	mu                  sync.Mutex
	lastReport          Report
	consecutiveUnhealthy int

	done chan struct{}
}

func New(probes map[string]health.Probe, breakers *breaker.Registry, eventBus *events.Bus, logger *logging.Logger, cfg Config) *Supervisor {
	if logger == nil {
		logger = logging.Default()
	}
	return &Supervisor{
		probes:     probes,
		recoveries: make(map[string]RecoveryFunc),
		breakers:   breakers,
		events:     eventBus,
		logger:     logger,
		config:     cfg.withDefaults(),
	}
}

// SetRecovery registers a best-effort recovery callback for component.
func (s *Supervisor) SetRecovery(component string, fn RecoveryFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recoveries[component] = fn
}

// Start launches the check loop, the breaker-evaluation loop, and the
// dependency-audit loop as independent tickers sharing one done channel.
func (s *Supervisor) Start(ctx context.Context) {
	s.done = make(chan struct{})
	go s.checkLoop(ctx)
	go s.breakerEvalLoop(ctx)
	go s.dependencyAuditLoop(ctx)
}

// Stop signals every loop to exit. Idempotent.
func (s *Supervisor) Stop() {
	if s.done == nil {
		return
	}
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

func (s *Supervisor) checkLoop(ctx context.Context) {
	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	s.runCheck(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
			s.runCheck(ctx)
		}
	}
}

func (s *Supervisor) runCheck(ctx context.Context) {
	report := Report{Results: make(map[string]health.Result, len(s.probes)), Timestamp: time.Now()}
	for name, probe := range s.probes {
		result := probe(ctx)
		report.Results[name] = result
		switch result.Status {
		case health.StatusUnhealthy:
			report.Unhealthy = append(report.Unhealthy, name)
		case health.StatusDegraded:
			report.Degraded = append(report.Degraded, name)
		}
	}

	s.mu.Lock()
	s.lastReport = report
	if report.hasUnhealthy() {
		s.consecutiveUnhealthy++
	} else {
		s.consecutiveUnhealthy = 0
	}
	shouldRecover := s.consecutiveUnhealthy >= s.config.ConsecutiveUnhealthyMax
	if shouldRecover {
		s.consecutiveUnhealthy = 0
	}
	s.mu.Unlock()

	if s.events != nil {
		s.events.Emit(events.Event{
			Kind:   events.KindHealingHealthCheck,
			Source: "healing",
			Payload: map[string]any{
				"unhealthy": report.Unhealthy,
				"degraded":  report.Degraded,
			},
		})
	}

	if shouldRecover {
		s.attemptRecovery(report)
	}
}

func (s *Supervisor) attemptRecovery(report Report) {
	for _, component := range report.Unhealthy {
		s.logger.Warn("healing.recovery.attempt", "component", component)

		s.mu.Lock()
		fn, ok := s.recoveries[component]
		s.mu.Unlock()

		var err error
		if ok {
			err = fn()
		}
		if err != nil {
			s.logger.Error("healing.recovery.failed", "component", component, "error", err)
		}

		if s.events != nil {
			s.events.Emit(events.Event{
				Kind:   events.KindHealingRecovery,
				Source: "healing",
				Payload: map[string]any{"component": component, "error": errString(err)},
			})
		}
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func (s *Supervisor) breakerEvalLoop(ctx context.Context) {
	if s.breakers == nil {
		return
	}
	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
			changed := s.breakers.Evaluate()
			if len(changed) > 0 && s.events != nil {
				s.events.Emit(events.Event{
					Kind:    events.KindHealingCircuitBreak,
					Source:  "healing",
					Payload: map[string]any{"transitioned": changed},
				})
			}
		}
	}
}

func (s *Supervisor) dependencyAuditLoop(ctx context.Context) {
	ticker := time.NewTicker(s.config.DependencyAuditInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
			s.runDependencyAudit(ctx)
		}
	}
}

func (s *Supervisor) runDependencyAudit(ctx context.Context) {
	for name, probe := range s.probes {
		if len(name) < 4 || name[:4] != "api:" {
			continue
		}
		result := probe(ctx)
		if result.Status != health.StatusHealthy {
			s.logger.Warn("healing.dependency_audit.degraded", "endpoint", name, "status", result.Status)
		}
	}
}

// LastReport returns the most recent aggregated report.
func (s *Supervisor) LastReport() Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReport
}

// RunNow triggers an immediate check cycle, bypassing the ticker.
func (s *Supervisor) RunNow(ctx context.Context) (Report, error) {
	s.runCheck(ctx)
	return s.LastReport(), nil
}
