// Package logging builds the application logger and carries it through
// request contexts.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Common structured field names.
const (
	FieldLayer   = "layer"
	FieldUseCase = "usecase"
	FieldAdapter = "adapter"
	FieldFileID  = "file_id"
	FieldVersion = "version"
)

// Config controls logger level, format and optional file output.
type Config struct {
	Level  string
	Format string
	File   FileConfig
}

// FileConfig enables a size-rotated log file next to stderr output.
type FileConfig struct {
	Enabled    bool
	Path       string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// New creates a logger writing to w and, when enabled, to a rotated file.
// The returned cleanup closes the file writer and is never nil.
func New(cfg Config, w io.Writer) (*log.Logger, func() error, error) {
	if w == nil {
		w = os.Stderr
	}

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	formatter, err := parseFormat(cfg.Format)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() error { return nil }

	if cfg.File.Enabled {
		if cfg.File.Path == "" {
			return nil, nil, fmt.Errorf("log file enabled but no path configured")
		}
		if err := os.MkdirAll(filepath.Dir(cfg.File.Path), 0o750); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		rotator := &lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSize,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAge,
			Compress:   cfg.File.Compress,
		}
		w = io.MultiWriter(w, rotator)
		cleanup = rotator.Close
	}

	logger := log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02T15:04:05.000Z07:00",
		Formatter:       formatter,
	})

	return logger, cleanup, nil
}

// ParseLevel converts a configured level name. Empty means info.
func ParseLevel(s string) (log.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return log.InfoLevel, nil
	case "warning":
		return log.WarnLevel, nil
	}
	level, err := log.ParseLevel(s)
	if err != nil {
		return log.InfoLevel, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

func parseFormat(s string) (log.Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return log.TextFormatter, nil
	case "json":
		return log.JSONFormatter, nil
	case "logfmt":
		return log.LogfmtFormatter, nil
	default:
		return log.TextFormatter, fmt.Errorf("invalid log format %q (supported: text, json, logfmt)", s)
	}
}

// WithContext stores logger in ctx.
func WithContext(ctx context.Context, logger *log.Logger) context.Context {
	return log.WithContext(ctx, logger)
}

// FromContext returns the logger carried by ctx, or the package default.
func FromContext(ctx context.Context) *log.Logger {
	return log.FromContext(ctx)
}

// WithFields derives a logger with extra key/value pairs and stores it in
// the returned context so deeper layers inherit the fields.
func WithFields(ctx context.Context, keyvals ...any) (context.Context, *log.Logger) {
	logger := FromContext(ctx).With(keyvals...)
	return WithContext(ctx, logger), logger
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}
