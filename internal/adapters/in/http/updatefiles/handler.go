// Package updatefiles implements the HTTP adapter for retained update files.
package updatefiles

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bnema/appupdate/internal/boundaries/in"
	"github.com/bnema/appupdate/internal/domain"
	"github.com/bnema/appupdate/internal/logging"
)

const (
	formFieldFile    = "file"
	formFieldComment = "comment"
)

// Handler implements the update file endpoints.
type Handler struct {
	svc in.UpdateFileService
}

// NewHandler creates a new update file handler.
func NewHandler(svc in.UpdateFileService) *Handler {
	return &Handler{svc: svc}
}

// RegisterServiceRoutes mounts the management routes on g. The group is
// expected to enforce service authorization.
func (h *Handler) RegisterServiceRoutes(g *echo.Group) {
	g.POST("/update-files", h.Upload)
	g.GET("/update-files", h.List)
	g.GET("/update-files/:id", h.Info)
	g.DELETE("/update-files/:id", h.Delete)
}

// RegisterDownloadRoute mounts the public download route on g.
func (h *Handler) RegisterDownloadRoute(g *echo.Group, m ...echo.MiddlewareFunc) {
	g.GET("/update-files/:id", h.Download, m...)
}

// Upload stores a multipart upload and returns its record.
func (h *Handler) Upload(c echo.Context) error {
	fh, err := c.FormFile(formFieldFile)
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return err
		}
		return domain.NewFieldError(formFieldFile, "", fmt.Errorf("%w: multipart field is required", domain.ErrInvalidInput))
	}

	src, err := fh.Open()
	if err != nil {
		return fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	record, err := h.svc.Create(c.Request().Context(), in.UploadRequest{
		Name:    domain.StringPtr(fh.Filename),
		Size:    domain.Int64Ptr(fh.Size),
		Comment: domain.StringPtr(c.FormValue(formFieldComment)),
		Content: src,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, record)
}

// List returns every retained record, newest first.
func (h *Handler) List(c echo.Context) error {
	records, err := h.svc.ListInfos(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, records)
}

// Info returns one record.
func (h *Handler) Info(c echo.Context) error {
	record, err := h.svc.Info(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, record)
}

// Delete removes a file; unknown ids also yield 204.
func (h *Handler) Delete(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Download streams the stored content.
func (h *Handler) Download(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	content, err := h.svc.GetContent(ctx, id)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := content.Close(); cerr != nil {
			logging.FromContext(ctx).Warn("failed to close file content", logging.FieldFileID, id, "error", cerr)
		}
	}()

	return c.Stream(http.StatusOK, echo.MIMEOctetStream, content)
}
