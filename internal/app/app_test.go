package app

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/appupdate/internal/config"
	"github.com/bnema/appupdate/internal/domain"
	"github.com/bnema/appupdate/internal/logging"
)

const testAPIKey = "service-key"

func testConfig(t *testing.T, driver string) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{
			Name:            "app-update-service",
			Host:            "127.0.0.1",
			Port:            8080,
			MaxUploadSize:   "1MB",
			ShutdownTimeout: "5s",
		},
		Auth: config.AuthConfig{APIKey: testAPIKey, CRMTimeout: "1s"},
		Storage: config.StorageConfig{
			Driver:              driver,
			DataDir:             t.TempDir(),
			Database:            "appupdate.db",
			FileCapacity:        2,
			CompensationTimeout: "10s",
		},
		RateLimit: config.RateLimitConfig{Rate: 10, Burst: 10, ExpiresIn: "1m"},
	}
}

func newTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	a, err := New(context.Background(), cfg, logging.Discard(), "test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func serve(t *testing.T, a *App, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, body)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+testAPIKey)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	return rec
}

func upload(t *testing.T, a *App, name, content string) domain.FileRecord {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	rec := serve(t, a, http.MethodPost, "/service/update-files", &buf, w.FormDataContentType())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var record domain.FileRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	return record
}

func listIDs(t *testing.T, a *App) []string {
	t.Helper()
	rec := serve(t, a, http.MethodGet, "/service/update-files", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var records []domain.FileRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestNew_MemoryDriver(t *testing.T) {
	a := newTestApp(t, testConfig(t, config.DriverMemory))

	rec := serve(t, a, http.MethodGet, "/app/ping", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	first := upload(t, a, "a.bin", "a")
	second := upload(t, a, "b.bin", "b")
	third := upload(t, a, "c.bin", "c")

	assert.Equal(t, []string{third.ID, second.ID}, listIDs(t, a))
	assert.NotContains(t, listIDs(t, a), first.ID)
}

func TestNew_SQLiteDriverPersistsAcrossRestarts(t *testing.T) {
	cfg := testConfig(t, config.DriverSQLite)

	a, err := New(context.Background(), cfg, logging.Discard(), "test")
	require.NoError(t, err)
	record := upload(t, a, "app-1.0.0.zip", "payload")

	body := bytes.NewBufferString(`{"version":"1.0.0","url":"https://example.com/app-1.0.0.zip"}`)
	rec := serve(t, a, http.MethodPost, "/service/update-manifest", body, echo.MIMEApplicationJSON)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	require.NoError(t, a.Close())

	a = newTestApp(t, cfg)
	assert.Equal(t, []string{record.ID}, listIDs(t, a))

	rec = serve(t, a, http.MethodGet, "/update-files/"+record.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "payload", rec.Body.String())

	rec = serve(t, a, http.MethodGet, "/update-manifest", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version":"1.0.0"`)
}

func TestNew_SQLiteHealthReportsProbes(t *testing.T) {
	a := newTestApp(t, testConfig(t, config.DriverSQLite))

	rec := serve(t, a, http.MethodGet, "/app/health", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"database"`)
	assert.Contains(t, rec.Body.String(), `"blob_storage"`)
}

func TestNew_MetricsAndRateLimit(t *testing.T) {
	cfg := testConfig(t, config.DriverMemory)
	cfg.Metrics.Enabled = true
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.Burst = 1
	cfg.RateLimit.Rate = 0.001
	cfg.RateLimit.Dir = t.TempDir()
	a := newTestApp(t, cfg)

	assert.Equal(t, http.StatusNotFound, serve(t, a, http.MethodGet, "/update-files/missing", nil, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(t, a, http.MethodGet, "/update-files/missing", nil, "").Code)

	rec := serve(t, a, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "go_goroutines"))
}

func TestOpenStores_UnknownDriver(t *testing.T) {
	cfg := testConfig(t, "postgres")
	_, err := openStores(context.Background(), cfg, logging.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres")
}
