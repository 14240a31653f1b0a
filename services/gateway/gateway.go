package gateway

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/aegisops/aegisd/pkg/logging"
	"github.com/aegisops/aegisd/services/lifecycle"
)

var validate = validator.New()

// Gateway is the daemon's external control surface: a gin HTTP server
// exposing a health check, Prometheus metrics, and an authenticated
// WebSocket/REST surface over the subsystems assembled by a
// lifecycle.Manager.
type Gateway struct {
	cfg      Config
	mgr      *lifecycle.Manager
	logger   *logging.Logger
	guard    *secretGuard
	metrics  *metrics
	server   *http.Server
	tracerTP *sdktrace.TracerProvider
	done     chan struct{}
	stopOnce sync.Once
}

// New builds a Gateway bound to mgr's already-constructed subsystems.
// Boot order requires mgr's fields to exist before routes are wired, so
// New must only be called after the rest of the manager's construction
// completes but before Boot starts the gateway hook.
//
// The tracer provider is installed globally before router construction:
// otelgin.Middleware captures the active TracerProvider at the point
// router.Use runs, so tracing must be wired before setupRoutes, not
// after Start.
func New(ctx context.Context, cfg Config, mgr *lifecycle.Manager, logger *logging.Logger) (*Gateway, error) {
	guard, err := newSecretGuard(cfg.Secret)
	if err != nil {
		return nil, fmt.Errorf("gateway: %w", err)
	}

	tp, err := initTracer(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gateway: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	m := newMetrics()
	setupRoutes(router, mgr, guard, m)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	return &Gateway{
		cfg:      cfg,
		mgr:      mgr,
		logger:   logger,
		guard:    guard,
		metrics:  m,
		server:   &http.Server{Addr: addr, Handler: router},
		tracerTP: tp,
		done:     make(chan struct{}),
	}, nil
}

// Start launches the HTTP listener and the breaker-state metrics poller in
// background goroutines and returns once both are running.
func (g *Gateway) Start(ctx context.Context) error {
	go g.metrics.pollBreakers(g.mgr.Breakers, 5*time.Second, g.done)

	go func() {
		if err := g.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			g.logger.Error("gateway: listener stopped", "error", err)
		}
	}()

	g.logger.Info("gateway: listening", "addr", g.server.Addr)
	return nil
}

// Stop shuts the HTTP server down with a bounded grace period. Errors are
// logged, never returned, matching the lifecycle manager's best-effort
// shutdown contract. Safe to call more than once.
func (g *Gateway) Stop() {
	g.stopOnce.Do(func() {
		close(g.done)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := g.server.Shutdown(ctx); err != nil {
			g.logger.Error("gateway: shutdown error", "error", err)
		}

		if g.tracerTP != nil {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := g.tracerTP.Shutdown(shutdownCtx); err != nil {
				g.logger.Error("gateway: tracer shutdown error", "error", err)
			}
		}
	})
}

// Hooks adapts Gateway to the lifecycle.GatewayHooks shape.
func (g *Gateway) Hooks() lifecycle.GatewayHooks {
	return lifecycle.GatewayHooks{
		Start: g.Start,
		Stop:  g.Stop,
	}
}
