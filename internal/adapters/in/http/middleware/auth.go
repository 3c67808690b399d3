// Package middleware provides Echo middleware for the HTTP adapter.
package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/bnema/appupdate/internal/boundaries/in"
)

type authorizeFunc func(ctx context.Context, scheme, token string) error

// RequireService admits only requests carrying the service API key.
func RequireService(auth in.AuthService) echo.MiddlewareFunc {
	return requireBearer(auth.AuthorizeService)
}

// RequireClient admits the service API key or a valid client token.
func RequireClient(auth in.AuthService) echo.MiddlewareFunc {
	return requireBearer(auth.AuthorizeClient)
}

func requireBearer(authorize authorizeFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			scheme, token := splitAuthorization(c.Request().Header.Get(echo.HeaderAuthorization))
			if err := authorize(c.Request().Context(), scheme, token); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// splitAuthorization splits "Bearer <token>" into scheme and token.
func splitAuthorization(header string) (string, string) {
	scheme, token, _ := strings.Cut(strings.TrimSpace(header), " ")
	return scheme, strings.TrimSpace(token)
}
