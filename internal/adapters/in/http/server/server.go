package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
)

// Server runs an Echo router until its context is cancelled.
type Server struct {
	echo            *echo.Echo
	addr            string
	shutdownTimeout time.Duration
	log             *log.Logger
}

// New wraps e to listen on addr.
func New(e *echo.Echo, addr string, shutdownTimeout time.Duration, logger *log.Logger) *Server {
	e.Server.ReadHeaderTimeout = 30 * time.Second
	return &Server{
		echo:            e,
		addr:            addr,
		shutdownTimeout: shutdownTimeout,
		log:             logger,
	}
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", s.addr)
		if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down http server", "timeout", s.shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	s.log.Info("http server stopped")
	return nil
}
