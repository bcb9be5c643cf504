package http

import (
	"net/http"

	"golang-news-radar/internal/monitor/service"
	"golang-news-radar/pkg/logger"

	"github.com/labstack/echo/v4"
)

// StatusHandler handles the operational HTTP endpoints.
type StatusHandler struct {
	monitor service.MonitorService
	logger  *logger.Logger
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(monitor service.MonitorService, logger *logger.Logger) *StatusHandler {
	return &StatusHandler{monitor: monitor, logger: logger}
}

// RegisterRoutes registers the status routes to the Echo group.
func (h *StatusHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/status", h.GetStatus)
	g.GET("/health/ai", h.GetAIHealth)
}

// GetStatus returns today's monitoring counters and per-source state.
func (h *StatusHandler) GetStatus(c echo.Context) error {
	report, err := h.monitor.StatusToday()
	if err != nil {
		h.logger.Error("Failed to build status report", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, report)
}

// GetAIHealth probes the AI provider and reports reachability.
func (h *StatusHandler) GetAIHealth(c echo.Context) error {
	report := h.monitor.CheckAI(c.Request().Context())
	status := http.StatusOK
	if !report.Reachable {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, report)
}
