package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "appupdate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 0.0.0.0
  port: 9090
  root_path: /updates/
  max_upload_size: 256MB
auth:
  api_key: secret
  crm_url: https://crm.example.com
storage:
  driver: memory
  data_dir: /var/lib/appupdate
  file_capacity: 3
logging:
  level: debug
  format: json
rate_limit:
  enabled: true
  rate: 5
  burst: 10
  expires_in: 1d
metrics:
  enabled: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.Address())
	assert.Equal(t, "/updates", cfg.Server.RootPath)
	assert.Equal(t, "secret", cfg.Auth.APIKey)
	assert.Equal(t, "https://crm.example.com", cfg.Auth.CRMURL)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, 3, cfg.Storage.FileCapacity)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Metrics.Enabled)

	size, err := cfg.MaxUploadBytes()
	require.NoError(t, err)
	assert.Equal(t, int64(256<<20), size)

	expiry, err := cfg.RateLimitExpiry()
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, expiry)

	assert.Equal(t, filepath.Join("/var/lib/appupdate", "appupdate.db"), cfg.DatabasePath())
	assert.Equal(t, filepath.Join("/var/lib/appupdate", "files"), cfg.BlobDir())
	assert.Equal(t, filepath.Join("/var/lib/appupdate", "ratelimit"), cfg.RateLimit.Dir)
}

func TestLoad_DefaultsFromEnvOnly(t *testing.T) {
	t.Setenv("APPUPDATE_API_KEY", "from-env")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", cfg.Address())
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, 10, cfg.Storage.FileCapacity)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "1GB", cfg.Server.MaxUploadSize)
	assert.Equal(t, 30, cfg.RateLimit.Burst)
	assert.Equal(t, 100, cfg.Logging.File.MaxSize)

	compensation, err := cfg.CompensationTimeout()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, compensation)

	timeout, err := cfg.ShutdownTimeout()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, timeout)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
auth:
  api_key: from-file
storage:
  file_capacity: 3
`)
	t.Setenv("APPUPDATE_API_KEY", "from-env")
	t.Setenv("APPUPDATE_FILE_STORAGE_CAPACITY", "7")
	t.Setenv("APPUPDATE_PORT", "9000")
	t.Setenv("APPUPDATE_METRICS_ENABLED", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Auth.APIKey)
	assert.Equal(t, 7, cfg.Storage.FileCapacity)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_EnvOverridesEveryKey(t *testing.T) {
	path := writeConfig(t, `
auth:
  api_key: from-file
rate_limit:
  burst: 3
`)
	t.Setenv("APPUPDATE_RATE_LIMIT_BURST", "7")
	t.Setenv("APPUPDATE_RATE_LIMIT_ENABLED", "true")
	t.Setenv("APPUPDATE_CRM_TIMEOUT", "1s")
	t.Setenv("APPUPDATE_STORAGE_DRIVER", "memory")
	t.Setenv("APPUPDATE_LOGGING_FILE_MAX_SIZE", "5")
	t.Setenv("APPUPDATE_SERVER_SHUTDOWN_TIMEOUT", "2s")
	t.Setenv("APPUPDATE_STORAGE_COMPENSATION_TIMEOUT", "3s")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.RateLimit.Burst)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, 5, cfg.Logging.File.MaxSize)

	crm, err := cfg.CRMTimeout()
	require.NoError(t, err)
	assert.Equal(t, time.Second, crm)

	shutdown, err := cfg.ShutdownTimeout()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, shutdown)

	compensation, err := cfg.CompensationTimeout()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, compensation)
}

func TestLoad_DerivedEnvNameWinsOverAlias(t *testing.T) {
	t.Setenv("APPUPDATE_API_KEY", "alias")
	t.Setenv("APPUPDATE_AUTH_API_KEY", "derived")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "derived", cfg.Auth.APIKey)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
		errMsg  string
	}{
		{
			name:    "missing api key",
			content: "server:\n  port: 8080\n",
			env:     map[string]string{"APPUPDATE_API_KEY": ""},
			errMsg:  "api_key",
		},
		{
			name:    "negative capacity",
			content: "auth:\n  api_key: k\nstorage:\n  file_capacity: -1\n",
			errMsg:  "file_capacity",
		},
		{
			name:    "unknown driver",
			content: "auth:\n  api_key: k\nstorage:\n  driver: postgres\n",
			errMsg:  "storage.driver",
		},
		{
			name:    "bad upload size",
			content: "auth:\n  api_key: k\nserver:\n  max_upload_size: huge\n",
			errMsg:  "max_upload_size",
		},
		{
			name:    "unknown key",
			content: "auth:\n  api_key: k\n  password: nope\n",
			errMsg:  "unmarshal config",
		},
		{
			name:    "bad env int",
			content: "auth:\n  api_key: k\n",
			env:     map[string]string{"APPUPDATE_FILE_STORAGE_CAPACITY": "ten"},
			errMsg:  "file_capacity",
		},
		{
			name:    "explicit zero capacity in file",
			content: "auth:\n  api_key: k\nstorage:\n  file_capacity: 0\n",
			errMsg:  "file_capacity must be positive",
		},
		{
			name:    "explicit zero capacity in env",
			content: "auth:\n  api_key: k\n",
			env:     map[string]string{"APPUPDATE_FILE_STORAGE_CAPACITY": "0"},
			errMsg:  "file_capacity must be positive",
		},
		{
			name:    "zero compensation timeout",
			content: "auth:\n  api_key: k\nstorage:\n  compensation_timeout: \"0\"\n",
			errMsg:  "compensation_timeout",
		},
		{
			name:    "zero burst with rate limiting",
			content: "auth:\n  api_key: k\nrate_limit:\n  enabled: true\n  burst: 0\n",
			errMsg:  "rate_limit",
		},
		{
			name:    "relative root path",
			content: "auth:\n  api_key: k\nserver:\n  root_path: api\n",
			errMsg:  "root_path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.errMsg), "error %q should mention %q", err, tt.errMsg)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
