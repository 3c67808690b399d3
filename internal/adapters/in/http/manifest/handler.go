// Package manifest implements the HTTP adapter for the update manifest.
package manifest

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bnema/appupdate/internal/adapters/dto"
	"github.com/bnema/appupdate/internal/boundaries/in"
	"github.com/bnema/appupdate/internal/domain"
)

// QueryCurrentVersion names the requester version query parameter.
// QueryCurrentVersionAlias is accepted when the primary name is absent.
const (
	QueryCurrentVersion      = "currentVersion"
	QueryCurrentVersionAlias = "current_version"
)

// Handler implements the manifest endpoints.
type Handler struct {
	svc in.ManifestService
}

// NewHandler creates a new manifest handler.
func NewHandler(svc in.ManifestService) *Handler {
	return &Handler{svc: svc}
}

// RegisterClientRoute mounts the manifest read route on g.
func (h *Handler) RegisterClientRoute(g *echo.Group, m ...echo.MiddlewareFunc) {
	g.GET("/update-manifest", h.Get, m...)
}

// RegisterServiceRoutes mounts the publish and clear routes on g. The group
// is expected to enforce service authorization.
func (h *Handler) RegisterServiceRoutes(g *echo.Group) {
	g.POST("/update-manifest", h.Set)
	g.DELETE("/update-manifest", h.Delete)
}

// Get returns the manifest if it is newer than ?currentVersion.
func (h *Handler) Get(c echo.Context) error {
	var requester *string
	params := c.QueryParams()
	for _, name := range []string{QueryCurrentVersion, QueryCurrentVersionAlias} {
		if params.Has(name) {
			v := params.Get(name)
			requester = &v
			break
		}
	}

	manifest, err := h.svc.Get(c.Request().Context(), requester)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, manifest)
}

// Set publishes a new manifest.
func (h *Handler) Set(c echo.Context) error {
	var req dto.SetManifestRequest
	dec := json.NewDecoder(c.Request().Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
	}

	if err := h.svc.Set(c.Request().Context(), domain.Manifest{Version: req.Version, URL: req.URL}); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete clears the manifest.
func (h *Handler) Delete(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
