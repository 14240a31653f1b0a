package gateway

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/aegisops/aegisd/services/breaker"
)

const metricsNamespace = "aegisd"

// metrics holds every Prometheus collector the gateway exposes on
// /metrics. Each Gateway owns its own registry rather than registering
// into the global default one, so multiple Gateways can coexist in one
// process (notably in tests) without a duplicate-collector panic.
// Breaker state is exported as a per-operation gauge, refreshed by a
// background poll of the breaker registry rather than pushed
// event-by-event, since gauges are naturally level-triggered.
type metrics struct {
	registry      *prometheus.Registry
	requestsTotal *prometheus.CounterVec
	breakerState  *prometheus.GaugeVec
	queueDepth    prometheus.Gauge
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &metrics{
		registry: reg,
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Total gateway requests by route and status",
		}, []string{"route", "status"}),
		breakerState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "breaker",
			Name:      "state",
			Help:      "Circuit breaker state per operation (0=closed, 1=half_open, 2=open)",
		}, []string{"operation"}),
		queueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "scheduler",
			Name:      "queue_depth",
			Help:      "Number of tasks waiting in the scheduler's priority queue",
		}),
	}
}

func breakerStateValue(s breaker.State) float64 {
	switch s {
	case breaker.StateClosed:
		return 0
	case breaker.StateHalfOpen:
		return 1
	case breaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// pollBreakers refreshes the breaker_state gauge every interval until done
// is closed.
func (m *metrics) pollBreakers(registry *breaker.Registry, interval time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			for _, state := range registry.GetState() {
				m.breakerState.WithLabelValues(state.OperationName).Set(breakerStateValue(state.State))
			}
		}
	}
}
