// Package remote provides an HTTP client for a running update service.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/appupdate/internal/adapters/dto"
	"github.com/bnema/appupdate/internal/domain"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return e.Status
	}
	return fmt.Sprintf("%s: %s", e.Status, e.Message)
}

// Client is an HTTP client for the update service API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// NewClient creates a new client. baseURL includes any root path.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithToken sets the bearer token.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

func (c *Client) request(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.httpClient.Do(req)
}

func (c *Client) requestJSON(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	contentType := ""
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.request(ctx, method, path, reader, contentType)
}

// parseResponse closes resp and decodes a JSON body into target.
func parseResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}
	body, _ := io.ReadAll(resp.Body)
	statusErr := &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}

	var errResp dto.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		statusErr.Message = errResp.Error
		if errResp.Field != "" {
			statusErr.Message = errResp.Field + ": " + errResp.Error
		}
	} else {
		statusErr.Message = strings.TrimSpace(string(body))
	}
	return statusErr
}

// ListFiles returns all retained file records.
func (c *Client) ListFiles(ctx context.Context) ([]domain.FileRecord, error) {
	resp, err := c.requestJSON(ctx, http.MethodGet, "/service/update-files", nil)
	if err != nil {
		return nil, err
	}
	var records []domain.FileRecord
	if err := parseResponse(resp, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// GetFileInfo returns one file record.
func (c *Client) GetFileInfo(ctx context.Context, id string) (*domain.FileRecord, error) {
	resp, err := c.requestJSON(ctx, http.MethodGet, "/service/update-files/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	var record domain.FileRecord
	if err := parseResponse(resp, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// UploadFile uploads the file at path with an optional comment.
func (c *Client) UploadFile(ctx context.Context, path, comment string) (*domain.FileRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(path))
		if err == nil {
			_, err = io.Copy(part, f)
		}
		if err == nil && comment != "" {
			err = mw.WriteField("comment", comment)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	resp, err := c.request(ctx, http.MethodPost, "/service/update-files", pr, mw.FormDataContentType())
	if err != nil {
		_ = pr.CloseWithError(err)
		return nil, err
	}
	var record domain.FileRecord
	if err := parseResponse(resp, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// DownloadFile writes the content of id to w and returns the bytes copied.
func (c *Client) DownloadFile(ctx context.Context, id string, w io.Writer) (int64, error) {
	resp, err := c.request(ctx, http.MethodGet, "/update-files/"+url.PathEscape(id), nil, "")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return 0, err
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("failed to read file content: %w", err)
	}
	return n, nil
}

// DeleteFile removes a file.
func (c *Client) DeleteFile(ctx context.Context, id string) error {
	resp, err := c.requestJSON(ctx, http.MethodDelete, "/service/update-files/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	return parseResponse(resp, nil)
}

// GetManifest returns the manifest visible to currentVersion. An empty
// currentVersion omits the filter.
func (c *Client) GetManifest(ctx context.Context, currentVersion string) (*domain.Manifest, error) {
	path := "/update-manifest"
	if currentVersion != "" {
		path += "?" + url.Values{"currentVersion": {currentVersion}}.Encode()
	}
	resp, err := c.requestJSON(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var m domain.Manifest
	if err := parseResponse(resp, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// SetManifest publishes a manifest.
func (c *Client) SetManifest(ctx context.Context, version, downloadURL string) error {
	resp, err := c.requestJSON(ctx, http.MethodPost, "/service/update-manifest", dto.SetManifestRequest{Version: version, URL: downloadURL})
	if err != nil {
		return err
	}
	return parseResponse(resp, nil)
}

// DeleteManifest clears the manifest.
func (c *Client) DeleteManifest(ctx context.Context) error {
	resp, err := c.requestJSON(ctx, http.MethodDelete, "/service/update-manifest", nil)
	if err != nil {
		return err
	}
	return parseResponse(resp, nil)
}

// Ping checks that the service answers.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.requestJSON(ctx, http.MethodGet, "/app/ping", nil)
	if err != nil {
		return err
	}
	return parseResponse(resp, nil)
}
