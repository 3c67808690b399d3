// Package httputil holds helpers shared by the HTTP handlers.
package httputil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"github.com/bnema/appupdate/internal/adapters/dto"
	"github.com/bnema/appupdate/internal/domain"
)

// StatusFor maps a domain error to its HTTP status code.
func StatusFor(err error) int {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he.Code
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrVersionDowngrade):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidVersion), errors.Is(err, domain.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// ErrorBody builds the response body for err without leaking storage details.
func ErrorBody(err error, status int) dto.ErrorResponse {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return dto.ErrorResponse{Error: fmt.Sprint(he.Message)}
	}

	body := dto.ErrorResponse{}
	var fieldErr *domain.FieldError
	if errors.As(err, &fieldErr) {
		body.Field = fieldErr.Field
	}

	switch {
	case status >= http.StatusInternalServerError:
		body.Error = http.StatusText(status)
	case status == http.StatusUnauthorized:
		body.Error = domain.ErrUnauthorized.Error()
	case status == http.StatusNotFound:
		body.Error = domain.ErrNotFound.Error()
	default:
		body.Error = err.Error()
	}
	return body
}

// ErrorHandler returns an echo.HTTPErrorHandler writing dto.ErrorResponse
// bodies. Server errors are logged with the request's logger.
func ErrorHandler(logger *log.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := StatusFor(err)
		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", status,
				"error", err,
			)
		}
		if status == http.StatusUnauthorized {
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, ErrorBody(err, status))
		}
		if writeErr != nil {
			logger.Error("failed to write error response", "error", writeErr)
		}
	}
}
