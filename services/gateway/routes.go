package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"
	otelgin "go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aegisops/aegisd/services/lifecycle"
)

func setupRoutes(router *gin.Engine, mgr *lifecycle.Manager, guard *secretGuard, m *metrics) {
	router.Use(otelgin.Middleware("aegisd-gateway"))

	router.GET("/health", func(c *gin.Context) {
		m.requestsTotal.WithLabelValues("/health", "200").Inc()
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Every non-health route requires the bearer secret, metrics included.
	authed := router.Group("/")
	authed.Use(authMiddleware(guard))
	{
		authed.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})))

		v1 := authed.Group("/v1")
		{
			v1.GET("/ws", handleWebSocket(mgr, m))
			v1.POST("/commands", handleCommandPost(mgr, m))
			v1.POST("/tasks", handleTaskSubmit(mgr, m))
		}
	}
}

func handleCommandPost(mgr *lifecycle.Manager, m *metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cmd Command
		if err := c.ShouldBindJSON(&cmd); err != nil {
			m.requestsTotal.WithLabelValues("/v1/commands", "400").Inc()
			c.JSON(http.StatusBadRequest, CommandResponse{OK: false, Error: err.Error()})
			return
		}
		if err := validate.Struct(cmd); err != nil {
			m.requestsTotal.WithLabelValues("/v1/commands", "400").Inc()
			c.JSON(http.StatusBadRequest, CommandResponse{OK: false, Error: err.Error()})
			return
		}
		resp := dispatchCommand(mgr, cmd)
		status := http.StatusOK
		if !resp.OK {
			status = http.StatusUnprocessableEntity
		}
		m.requestsTotal.WithLabelValues("/v1/commands", http.StatusText(status)).Inc()
		c.JSON(status, resp)
	}
}

func handleTaskSubmit(mgr *lifecycle.Manager, m *metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		var sub TaskSubmission
		if err := c.ShouldBindJSON(&sub); err != nil {
			m.requestsTotal.WithLabelValues("/v1/tasks", "400").Inc()
			c.JSON(http.StatusBadRequest, CommandResponse{OK: false, Error: err.Error()})
			return
		}
		if err := validate.Struct(sub); err != nil {
			m.requestsTotal.WithLabelValues("/v1/tasks", "400").Inc()
			c.JSON(http.StatusBadRequest, CommandResponse{OK: false, Error: err.Error()})
			return
		}
		resp := dispatchCommand(mgr, Command{
			Subchannel: "task:create",
			Args: map[string]any{
				"type":        sub.Type,
				"priority":    sub.Priority,
				"title":       sub.Title,
				"description": sub.Description,
				"payload":     sub.Payload,
			},
		})
		m.requestsTotal.WithLabelValues("/v1/tasks", "200").Inc()
		c.JSON(http.StatusAccepted, resp)
	}
}
