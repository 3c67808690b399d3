// Package app provides the application initialization and wiring.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/bnema/appupdate/internal/adapters/in/http/server"
	"github.com/bnema/appupdate/internal/adapters/out/crm"
	"github.com/bnema/appupdate/internal/boundaries/out"
	"github.com/bnema/appupdate/internal/config"
	"github.com/bnema/appupdate/internal/logging"
	"github.com/bnema/appupdate/internal/usecase/auth"
	"github.com/bnema/appupdate/internal/usecase/health"
	"github.com/bnema/appupdate/internal/usecase/manifest"
	"github.com/bnema/appupdate/internal/usecase/updatefiles"
)

const healthProbeTimeout = 5 * time.Second

// App is a fully wired service ready to be served.
type App struct {
	cfg     *config.Config
	log     *log.Logger
	handler *echo.Echo
	closers []func() error
}

// New wires storage, use cases and the HTTP router from cfg.
// Call Close to release storage handles when done.
func New(ctx context.Context, cfg *config.Config, logger *log.Logger, version string) (*App, error) {
	a := &App{cfg: cfg, log: logger}

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, st.close...)

	compensationTimeout, err := cfg.CompensationTimeout()
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	filesSvc, err := updatefiles.NewService(st.blobs, st.records, cfg.Storage.FileCapacity,
		updatefiles.WithCompensationTimeout(compensationTimeout),
	)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to create update file service: %w", err)
	}

	var validator out.ClientTokenValidator
	if cfg.Auth.CRMURL != "" {
		timeout, err := cfg.CRMTimeout()
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		client, err := crm.NewClient(cfg.Auth.CRMURL, logger, crm.WithTimeout(timeout))
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("failed to create CRM client: %w", err)
		}
		validator = client
	} else {
		logger.Warn("no CRM configured, clients must present the API key", logging.FieldLayer, "app")
	}

	maxUpload, err := cfg.MaxUploadBytes()
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	routerCfg := server.RouterConfig{
		AppName:       cfg.Server.Name,
		AppVersion:    version,
		RootPath:      cfg.Server.RootPath,
		MaxUploadSize: maxUpload,
	}

	if cfg.RateLimit.Enabled {
		limiter, closeLimiter := newDownloadLimiter(cfg, logger)
		routerCfg.DownloadLimiter = limiter
		if closeLimiter != nil {
			a.closers = append(a.closers, closeLimiter)
		}
	}

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		routerCfg.Metrics = reg
	}

	a.handler = server.NewRouter(routerCfg, server.Services{
		Files:    filesSvc,
		Manifest: manifest.NewService(st.manifests),
		Auth:     auth.NewService(cfg.Auth.APIKey, validator, logger),
		Health:   health.NewService(healthProbeTimeout, st.probes...),
	}, logger)

	return a, nil
}

// Handler returns the HTTP handler serving every route.
func (a *App) Handler() *echo.Echo {
	return a.handler
}

// Close releases storage handles in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Serve listens on the configured address until ctx is done.
func (a *App) Serve(ctx context.Context) error {
	timeout, err := a.cfg.ShutdownTimeout()
	if err != nil {
		return err
	}
	return server.New(a.handler, a.cfg.Address(), timeout, a.log).Run(ctx)
}

// Run loads configuration from configPath and serves until SIGINT or SIGTERM.
func Run(ctx context.Context, configPath, version string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, cleanup, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File: logging.FileConfig{
			Enabled:    cfg.Logging.File.Enabled,
			Path:       cfg.Logging.File.Path,
			MaxSize:    cfg.Logging.File.MaxSize,
			MaxBackups: cfg.Logging.File.MaxBackups,
			MaxAge:     cfg.Logging.File.MaxAge,
			Compress:   cfg.Logging.File.Compress,
		},
	}, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = cleanup() }()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithContext(ctx, logger)

	logger.Info("starting app update service",
		logging.FieldLayer, "app",
		"name", cfg.Server.Name,
		"version", version,
		"driver", cfg.Storage.Driver,
		"file_capacity", cfg.Storage.FileCapacity,
	)

	a, err := New(ctx, cfg, logger, version)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("failed to close storage", "error", err)
		}
	}()

	return a.Serve(ctx)
}
