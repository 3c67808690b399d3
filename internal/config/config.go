// Package config loads the service settings from YAML, a .env file and
// APPUPDATE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/bnema/appupdate/pkg/bytesize"
	"github.com/bnema/appupdate/pkg/duration"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "APPUPDATE_"

// DefaultConfigFilename is looked up in the working directory when no
// explicit path is given.
const DefaultConfigFilename = "appupdate.yaml"

// Storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Config is the complete service configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type ServerConfig struct {
	Name            string `mapstructure:"name"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	RootPath        string `mapstructure:"root_path"`
	MaxUploadSize   string `mapstructure:"max_upload_size"`
	ShutdownTimeout string `mapstructure:"shutdown_timeout"`
}

type AuthConfig struct {
	APIKey     string `mapstructure:"api_key"`
	CRMURL     string `mapstructure:"crm_url"`
	CRMTimeout string `mapstructure:"crm_timeout"`
}

type StorageConfig struct {
	Driver       string `mapstructure:"driver"`
	DataDir      string `mapstructure:"data_dir"`
	Database     string `mapstructure:"database"`
	FileCapacity int    `mapstructure:"file_capacity"`

	// CompensationTimeout bounds the record cleanup after a failed content write.
	CompensationTimeout string `mapstructure:"compensation_timeout"`
}

type LoggingConfig struct {
	Level  string            `mapstructure:"level"`
	Format string            `mapstructure:"format"`
	File   LoggingFileConfig `mapstructure:"file"`
}

type LoggingFileConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

type RateLimitConfig struct {
	Enabled   bool    `mapstructure:"enabled"`
	Rate      float64 `mapstructure:"rate"`
	Burst     int     `mapstructure:"burst"`
	ExpiresIn string  `mapstructure:"expires_in"`
	Dir       string  `mapstructure:"dir"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// envAliases are short variable names accepted next to the derived
// APPUPDATE_<SECTION>_<KEY> form. The derived name wins when both are set.
var envAliases = map[string][]string{
	"server.name":                  {"NAME"},
	"server.host":                  {"HOST"},
	"server.port":                  {"PORT"},
	"server.root_path":             {"ROOT_PATH"},
	"server.max_upload_size":       {"MAX_UPLOAD_SIZE"},
	"server.shutdown_timeout":      {"SHUTDOWN_TIMEOUT"},
	"auth.api_key":                 {"API_KEY"},
	"auth.crm_url":                 {"CRM_URL", "CRM_URL_BASE"},
	"auth.crm_timeout":             {"CRM_TIMEOUT"},
	"storage.data_dir":             {"FILE_STORAGE_PATH", "DATA_DIR"},
	"storage.file_capacity":        {"FILE_STORAGE_CAPACITY", "FILE_CAPACITY"},
	"storage.compensation_timeout": {"COMPENSATION_TIMEOUT"},
	"logging.level":                {"LOG_LEVEL"},
	"logging.format":               {"LOG_FORMAT"},
}

var errNoAPIKey = errors.New("auth.api_key must be set (or APPUPDATE_API_KEY)")

// setDefaults registers every key so AutomaticEnv can resolve it on Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.name", "app-update-service")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.root_path", "")
	v.SetDefault("server.max_upload_size", "1GB")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("auth.api_key", "")
	v.SetDefault("auth.crm_url", "")
	v.SetDefault("auth.crm_timeout", "10s")
	v.SetDefault("storage.driver", DriverSQLite)
	v.SetDefault("storage.data_dir", "./data")
	v.SetDefault("storage.database", "appupdate.db")
	v.SetDefault("storage.file_capacity", 10)
	v.SetDefault("storage.compensation_timeout", "10s")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file.enabled", false)
	v.SetDefault("logging.file.path", "")
	v.SetDefault("logging.file.max_size", 100)
	v.SetDefault("logging.file.max_backups", 3)
	v.SetDefault("logging.file.max_age", 28)
	v.SetDefault("logging.file.compress", false)
	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.rate", 10)
	v.SetDefault("rate_limit.burst", 30)
	v.SetDefault("rate_limit.expires_in", "3m")
	v.SetDefault("rate_limit.dir", "")
	v.SetDefault("metrics.enabled", false)
}

// configureViper points v at the config file and environment.
func configureViper(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(filepath.Clean(path))
	} else {
		v.SetConfigName(strings.TrimSuffix(DefaultConfigFilename, filepath.Ext(DefaultConfigFilename)))
		v.AddConfigPath(".")
	}
	v.SetConfigType("yaml")

	v.SetEnvPrefix(strings.TrimSuffix(EnvPrefix, "_"))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, aliases := range envAliases {
		names := make([]string, 0, len(aliases)+1)
		names = append(names, key)
		for _, alias := range aliases {
			names = append(names, EnvPrefix+alias)
		}
		if err := v.BindEnv(names...); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}

// Load reads configuration from path. An empty path falls back to
// DefaultConfigFilename in the working directory if it exists, otherwise
// defaults and environment variables alone are used. A .env file in the
// working directory is loaded first and never overrides variables already
// set in the process.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	if err := configureViper(v, path); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.UnmarshalExact(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	normalize(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// normalize fills values derived from other keys.
func normalize(cfg *Config) {
	cfg.Server.RootPath = strings.TrimSuffix(cfg.Server.RootPath, "/")

	if cfg.Logging.File.Enabled && cfg.Logging.File.Path == "" {
		cfg.Logging.File.Path = filepath.Join(cfg.Storage.DataDir, "logs", "appupdate.log")
	}
	if cfg.RateLimit.Dir == "" {
		cfg.RateLimit.Dir = filepath.Join(cfg.Storage.DataDir, "ratelimit")
	}
}

// Validate checks required fields and that every human-readable value parses.
func (c *Config) Validate() error {
	if c.Auth.APIKey == "" {
		return errNoAPIKey
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Server.RootPath != "" && !strings.HasPrefix(c.Server.RootPath, "/") {
		return fmt.Errorf("server.root_path must start with '/': %q", c.Server.RootPath)
	}
	if _, err := c.MaxUploadBytes(); err != nil {
		return fmt.Errorf("server.max_upload_size: %w", err)
	}
	if _, err := c.ShutdownTimeout(); err != nil {
		return fmt.Errorf("server.shutdown_timeout: %w", err)
	}
	if _, err := c.CRMTimeout(); err != nil {
		return fmt.Errorf("auth.crm_timeout: %w", err)
	}
	if d, err := c.CompensationTimeout(); err != nil {
		return fmt.Errorf("storage.compensation_timeout: %w", err)
	} else if d <= 0 {
		return fmt.Errorf("storage.compensation_timeout must be positive")
	}
	if c.Storage.FileCapacity < 1 {
		return fmt.Errorf("storage.file_capacity must be positive, got %d", c.Storage.FileCapacity)
	}
	switch c.Storage.Driver {
	case DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("storage.driver must be one of: %s, %s", DriverSQLite, DriverMemory)
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.Rate <= 0 || c.RateLimit.Burst < 1 {
			return fmt.Errorf("rate_limit.rate and rate_limit.burst must be positive")
		}
		if _, err := c.RateLimitExpiry(); err != nil {
			return fmt.Errorf("rate_limit.expires_in: %w", err)
		}
	}
	return nil
}

// Address returns host:port for the HTTP listener.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// MaxUploadBytes parses server.max_upload_size.
func (c *Config) MaxUploadBytes() (int64, error) {
	return bytesize.Parse(c.Server.MaxUploadSize)
}

// ShutdownTimeout parses server.shutdown_timeout.
func (c *Config) ShutdownTimeout() (time.Duration, error) {
	return duration.Parse(c.Server.ShutdownTimeout)
}

// CRMTimeout parses auth.crm_timeout.
func (c *Config) CRMTimeout() (time.Duration, error) {
	return duration.Parse(c.Auth.CRMTimeout)
}

// CompensationTimeout parses storage.compensation_timeout.
func (c *Config) CompensationTimeout() (time.Duration, error) {
	return duration.Parse(c.Storage.CompensationTimeout)
}

// RateLimitExpiry parses rate_limit.expires_in.
func (c *Config) RateLimitExpiry() (time.Duration, error) {
	return duration.Parse(c.RateLimit.ExpiresIn)
}

// DatabasePath returns the SQLite file location.
func (c *Config) DatabasePath() string {
	if filepath.IsAbs(c.Storage.Database) {
		return c.Storage.Database
	}
	return filepath.Join(c.Storage.DataDir, c.Storage.Database)
}

// BlobDir returns the directory holding uploaded file contents.
func (c *Config) BlobDir() string {
	return filepath.Join(c.Storage.DataDir, "files")
}
