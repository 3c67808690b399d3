// Package system implements the service info, ping and health endpoints.
package system

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bnema/appupdate/internal/adapters/dto"
	"github.com/bnema/appupdate/internal/boundaries/in"
)

// Handler serves /app/info, /app/ping and /app/health.
type Handler struct {
	info   dto.AppInfo
	health in.HealthService
}

// NewHandler creates a new system handler.
func NewHandler(name, version string, health in.HealthService) *Handler {
	return &Handler{
		info:   dto.AppInfo{Name: name, Version: version},
		health: health,
	}
}

// RegisterRoutes mounts the routes on g.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/info", h.Info)
	g.GET("/ping", h.Ping)
	g.GET("/health", h.Health)
}

func (h *Handler) Info(c echo.Context) error {
	return c.JSON(http.StatusOK, h.info)
}

func (h *Handler) Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, "pong")
}

// Health answers 503 when any dependency probe fails.
func (h *Handler) Health(c echo.Context) error {
	report := h.health.Check(c.Request().Context())
	status := http.StatusOK
	if !report.Healthy {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, report)
}
