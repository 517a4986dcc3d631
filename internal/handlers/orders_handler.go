package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jhkiehna/pizza-tracker/internal/config"
	"github.com/jhkiehna/pizza-tracker/internal/observability"
	"github.com/jhkiehna/pizza-tracker/internal/workflow"
)

// HandlerConfig groups dependencies for the order entry point.
type HandlerConfig struct {
	Runner         workflow.Runner
	GatewayTimeout time.Duration
	Logger         *slog.Logger
	Metrics        *observability.Metrics // optional
}

// RegisterOrdersRoutes sends every request that matches no other route to
// the order workflow, using the raw body as input.
func RegisterOrdersRoutes(r *gin.Engine, cfg HandlerConfig) {
	if cfg.GatewayTimeout <= 0 {
		cfg.GatewayTimeout = config.DefaultGatewayTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	r.NoRoute(func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			cfg.Logger.ErrorContext(c.Request.Context(), "read request body", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"message": "Bad Request"})
			return
		}

		// The execution outlives the request when the gateway gives up first.
		runCtx := context.WithoutCancel(c.Request.Context())
		done := make(chan *workflow.Execution, 1)
		go func() {
			done <- cfg.Runner.Run(runCtx, body)
		}()

		timer := time.NewTimer(cfg.GatewayTimeout)
		defer timer.Stop()

		select {
		case exec := <-done:
			cfg.Logger.InfoContext(c.Request.Context(), "execution finished",
				"execution_id", exec.ID,
				"status", exec.Status,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
			)
			c.JSON(http.StatusOK, exec.Result())
		case <-timer.C:
			if cfg.Metrics != nil {
				cfg.Metrics.GatewayTimeouts.Inc()
			}
			cfg.Logger.WarnContext(c.Request.Context(), "gateway timeout, execution continues",
				"timeout", cfg.GatewayTimeout,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
			)
			c.JSON(http.StatusGatewayTimeout, gin.H{"message": "Gateway Timeout"})
		}
	})
}
