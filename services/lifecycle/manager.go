// Package lifecycle wires every subsystem together in the one order the
// daemon boots and tears down in. Each constructed subsystem is exposed
// as a field so the gateway (wired in last) and the CLI can reach it.
package lifecycle

import (
	"context"
	"fmt"

	"github.com/aegisops/aegisd/pkg/logging"
	"github.com/aegisops/aegisd/services/audit"
	"github.com/aegisops/aegisd/services/breaker"
	"github.com/aegisops/aegisd/services/bus"
	"github.com/aegisops/aegisd/services/config"
	"github.com/aegisops/aegisd/services/events"
	"github.com/aegisops/aegisd/services/governance"
	"github.com/aegisops/aegisd/services/healing"
	"github.com/aegisops/aegisd/services/health"
	"github.com/aegisops/aegisd/services/llm"
	"github.com/aegisops/aegisd/services/memory"
	"github.com/aegisops/aegisd/services/orchestrator"
	"github.com/aegisops/aegisd/services/scheduler"
	"github.com/aegisops/aegisd/services/store"
	"github.com/aegisops/aegisd/services/tools"
)

// GatewayHooks lets the caller plug the external gateway in as the final
// boot step and the first shutdown step, without this package importing
// the gateway package (which in turn depends on everything here).
type GatewayHooks struct {
	Start func(ctx context.Context) error
	Stop  func()
}

// Manager owns every subsystem and the fixed order they come up and go
// down in. Boot failures are fatal and returned; shutdown failures are
// logged and swallowed, per the documented best-effort contract.
type Manager struct {
	cfg    *config.Config
	logger *logging.Logger

	Store        *store.Store
	Events       *events.Bus
	Audit        *audit.Ledger
	Governance   *governance.Engine
	Bus          *bus.Bus
	Breakers     *breaker.Registry
	Healing      *healing.Supervisor
	Orchestrator *orchestrator.Service
	Tools        *tools.Registry
	Wrapper      *tools.ExecutionWrapper
	Scheduler    *scheduler.Scheduler
	Memory       memory.Store
	LLM          llm.Client

	gateway GatewayHooks
	booted  bool
}

// New builds a Manager from resolved configuration. Call Boot to bring
// every subsystem up; nothing is constructed until then.
func New(cfg *config.Config, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.Default()
	}
	return &Manager{cfg: cfg, logger: logger}
}

// SetGateway registers the external gateway's start/stop hooks. Must be
// called before Boot if the gateway is wanted; nil hooks mean no gateway.
func (m *Manager) SetGateway(hooks GatewayHooks) {
	m.gateway = hooks
}

// Boot constructs every subsystem in the documented fixed order:
// logger+config, store, audit ledger, governance, bus, breaker registry,
// healing supervisor, orchestrator, tool registry, scheduler, gateway.
func (m *Manager) Boot(ctx context.Context) error {
	m.Events = events.New()

	var err error
	m.Store, err = store.Open(ctx, store.Config{Path: m.cfg.StorePath})
	if err != nil {
		return fmt.Errorf("lifecycle: boot store: %w", err)
	}

	m.Audit, err = audit.New(ctx, audit.NewSQLiteStore(m.Store.DB), m.logger)
	if err != nil {
		return fmt.Errorf("lifecycle: boot audit ledger: %w", err)
	}

	m.Governance, err = governance.New(m.logger)
	if err != nil {
		return fmt.Errorf("lifecycle: boot governance: %w", err)
	}
	if m.cfg.GovernanceOverridePath != "" {
		if err := m.Governance.WatchOverride(m.cfg.GovernanceOverridePath); err != nil {
			m.logger.Warn("lifecycle.governance.watch_failed", "error", err.Error())
		}
	}

	m.Bus = bus.New(m.logger, m.Events)
	m.Bus.Start()

	m.Breakers = breaker.NewRegistry(breaker.Config{Logger: m.logger})

	probes := map[string]health.Probe{
		"process":         health.ProcessProbe(),
		"memory_pressure": health.MemoryPressureProbe(uint64(m.cfg.HealingMemoryCeilingMB) << 20),
		"event_loop":      health.EventLoopProbe(),
		"database":        health.DatabaseProbe(m.Store.DB),
	}
	m.Healing = healing.New(probes, m.Breakers, m.Events, m.logger, healing.Config{
		CheckInterval:           m.cfg.HealingCheckInterval,
		ConsecutiveUnhealthyMax: m.cfg.HealingFailureThreshold,
	})
	m.Healing.Start(ctx)

	if m.cfg.LLMAPIKey != "" {
		m.LLM, err = llm.NewOpenAIClient(m.cfg.LLMAPIKey, m.cfg.LLMModel, m.logger)
		if err != nil {
			m.logger.Warn("lifecycle.llm.init_failed", "error", err.Error())
		}
	}
	m.Orchestrator = orchestrator.New(m.LLM, m.Events, m.logger)

	m.Tools = tools.NewRegistry()
	m.Wrapper = tools.NewExecutionWrapper(m.Tools, m.Governance, m.Breakers, m.Audit, m.logger)

	weaviateStore, err := memory.NewWeaviateStore(ctx, m.cfg.WeaviateURL, m.logger)
	if err != nil {
		m.logger.Warn("lifecycle.memory.init_failed", "error", err.Error())
	} else if weaviateStore != nil {
		m.Memory = weaviateStore
	}

	m.Scheduler = scheduler.New(m.Orchestrator, m.Events, m.logger, scheduler.Config{
		WorkerCount:    m.cfg.SchedulerWorkerCount,
		HeartbeatEvery: m.cfg.SchedulerHeartbeat,
		Recorder:       m.Store,
	})
	for _, job := range scheduler.DefaultJobs() {
		m.Scheduler.AddJob(job)
	}
	m.Scheduler.Start(ctx)

	if m.gateway.Start != nil {
		if err := m.gateway.Start(ctx); err != nil {
			return fmt.Errorf("lifecycle: boot gateway: %w", err)
		}
	}

	m.booted = true
	m.logger.Info("lifecycle.boot.complete")
	return nil
}

// Shutdown tears down every subsystem in the exact reverse of Boot's
// order. Each step is best-effort: a failure is logged, never returned.
func (m *Manager) Shutdown() {
	if !m.booted {
		return
	}

	if m.gateway.Stop != nil {
		m.gateway.Stop()
	}
	if m.Scheduler != nil {
		m.Scheduler.Stop()
	}
	if m.Healing != nil {
		m.Healing.Stop()
	}
	if m.Bus != nil {
		m.Bus.Stop()
	}
	if m.Governance != nil {
		m.Governance.StopWatch()
	}
	if m.Store != nil {
		if err := m.Store.Close(); err != nil {
			m.logger.Error("lifecycle.shutdown.store_close_failed", "error", err.Error())
		}
	}

	m.logger.Info("lifecycle.shutdown.complete")
	m.booted = false
}
