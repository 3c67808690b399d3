// Package crm validates client tokens against the CRM service.
package crm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bnema/appupdate/internal/logging"
)

const validateTokenPath = "/1/validate-token"

// Client implements out.ClientTokenValidator over HTTP.
type Client struct {
	endpoint   string
	httpClient *http.Client
	log        *log.Logger
}

// ClientOption configures the Client.
type ClientOption func(*Client)

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

// NewClient builds a client for the CRM at baseURL. The validation path is
// resolved against the host root.
func NewClient(baseURL string, logger *log.Logger, opts ...ClientOption) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid CRM url %q", baseURL)
	}

	c := &Client{
		endpoint: base.ResolveReference(&url.URL{Path: validateTokenPath}).String(),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: logger.With(logging.FieldLayer, "adapter", logging.FieldAdapter, "crm"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ValidateToken reports whether the CRM answers 200 for token. Any other
// status means the token is rejected; transport failures are errors.
func (c *Client) ValidateToken(ctx context.Context, token string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	c.log.Debug("validating client token", "endpoint", c.endpoint)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("CRM token validation failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	c.log.Debug("client token validated", "status", resp.StatusCode)
	return resp.StatusCode == http.StatusOK, nil
}
