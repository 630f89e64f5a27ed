package api

import (
	"time"

	"github.com/labstack/echo/v4"

	"SignalFlow/pkg/cache"
	xhttp "SignalFlow/pkg/http"
	xlogger "SignalFlow/pkg/logger"
)

// HealthHandler reports process liveness and backend reachability.
type HealthHandler struct {
	cache  cache.Service
	logger *xlogger.Logger
}

func NewHealthHandler(c cache.Service, l *xlogger.Logger) *HealthHandler {
	return &HealthHandler{cache: c, logger: l}
}

func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Liveness)
	e.GET("/readyz", h.Readiness)
}

func (h *HealthHandler) Liveness(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

// Readiness pings the keyed backend. An unreachable backend means the
// service cannot store signals or navigate, so it reports not ready.
func (h *HealthHandler) Readiness(c echo.Context) error {
	start := time.Now()
	if err := h.cache.Ping(c.Request().Context()); err != nil {
		h.logger.Warn("readiness ping failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("backend unreachable"))
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"status":     "ok",
		"backend_ms": time.Since(start).Milliseconds(),
	})
}
