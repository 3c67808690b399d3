// Package server assembles the Echo router and runs the HTTP server.
package server

import (
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bnema/appupdate/internal/adapters/in/http/httputil"
	"github.com/bnema/appupdate/internal/adapters/in/http/manifest"
	"github.com/bnema/appupdate/internal/adapters/in/http/middleware"
	"github.com/bnema/appupdate/internal/adapters/in/http/system"
	"github.com/bnema/appupdate/internal/adapters/in/http/updatefiles"
	"github.com/bnema/appupdate/internal/boundaries/in"
)

// Services are the use cases exposed over HTTP.
type Services struct {
	Files    in.UpdateFileService
	Manifest in.ManifestService
	Auth     in.AuthService
	Health   in.HealthService
}

// RouterConfig controls the router's cross-cutting middleware.
type RouterConfig struct {
	AppName       string
	AppVersion    string
	RootPath      string
	MaxUploadSize int64

	// DownloadLimiter rate limits the public download route. Nil disables it.
	DownloadLimiter echomw.RateLimiterStore

	// Metrics, when non-nil, receives request metrics and is served on /metrics.
	Metrics *prometheus.Registry
}

// NewRouter builds the Echo instance with every route mounted under
// cfg.RootPath.
func NewRouter(cfg RouterConfig, svc Services, logger *log.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = httputil.ErrorHandler(logger)

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(logger))
	e.Use(echomw.CORS())
	if cfg.MaxUploadSize > 0 {
		e.Use(echomw.BodyLimit(strconv.FormatInt(cfg.MaxUploadSize, 10)))
	}
	if cfg.Metrics != nil {
		e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Subsystem:  "appupdate",
			Registerer: cfg.Metrics,
		}))
	}

	root := e.Group(cfg.RootPath)

	if cfg.Metrics != nil {
		root.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
			Gatherer: cfg.Metrics,
		}))
	}

	requireService := middleware.RequireService(svc.Auth)
	requireClient := middleware.RequireClient(svc.Auth)

	service := root.Group("/service", requireService)

	files := updatefiles.NewHandler(svc.Files)
	files.RegisterServiceRoutes(service)

	var downloadMW []echo.MiddlewareFunc
	if cfg.DownloadLimiter != nil {
		downloadMW = append(downloadMW, downloadRateLimiter(cfg.DownloadLimiter, logger))
	}
	files.RegisterDownloadRoute(root, downloadMW...)

	manifests := manifest.NewHandler(svc.Manifest)
	manifests.RegisterClientRoute(root, requireClient)
	manifests.RegisterServiceRoutes(service)

	system.NewHandler(cfg.AppName, cfg.AppVersion, svc.Health).RegisterRoutes(root.Group("/app"))

	return e
}

func downloadRateLimiter(store echomw.RateLimiterStore, logger *log.Logger) echo.MiddlewareFunc {
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			logger.Warn("download rate limit exceeded",
				"ip", identifier,
				"path", c.Request().URL.Path,
				"error", err,
			)
			return echomw.ErrRateLimitExceeded
		},
	})
}
