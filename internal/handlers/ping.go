package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/chatrouter/chatrouter/internal/healthcheck"
)

type PingHandler struct {
	version string
	checks  *healthcheck.Registry
	logger  *slog.Logger
}

// NewPingHandler creates the liveness handler. checks may be nil, in
// which case /health reports healthy without probing dependencies.
func NewPingHandler(log *slog.Logger, version string, checks *healthcheck.Registry) *PingHandler {
	if log == nil {
		log = slog.Default()
	}
	return &PingHandler{
		version: version,
		checks:  checks,
		logger:  log.With(slog.String("handler", "ping")),
	}
}

func (h *PingHandler) Register(e *echo.Echo) {
	e.GET("/ping", h.Ping)
	e.GET("/health", h.Health)
	e.HEAD("/health", h.HealthHead)
}

func (h *PingHandler) Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func (h *PingHandler) Health(c echo.Context) error {
	body := map[string]any{
		"status":  "healthy",
		"message": "Service is running properly",
		"version": h.version,
		"service": "chatrouter",
	}
	if h.checks == nil {
		return c.JSON(http.StatusOK, body)
	}

	results, healthy := h.checks.Run(c.Request().Context())
	body["checks"] = results
	if !healthy {
		body["status"] = "degraded"
		body["message"] = "One or more dependencies are failing"
		h.logger.Warn("health check degraded")
		return c.JSON(http.StatusServiceUnavailable, body)
	}
	return c.JSON(http.StatusOK, body)
}

func (h *PingHandler) HealthHead(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}
