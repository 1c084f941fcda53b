// Package gateway is an HTTP client for calling APIs exposed through APIcast
// with application credentials.
package gateway

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrEndpointRequired indicates that no gateway endpoint was configured
var ErrEndpointRequired = errors.New("gateway endpoint is required")

// CredentialsLocation says where application credentials are sent.
type CredentialsLocation string

const (
	CredentialsQuery   CredentialsLocation = "query"
	CredentialsHeaders CredentialsLocation = "headers"
)

// Config holds configuration for a gateway client
type Config struct {
	// Endpoint is the base URL of the gateway route, e.g. the staging route
	// of a service
	Endpoint string

	// UserKey authenticates the application; empty sends no credentials
	UserKey string

	// UserKeyName is the parameter or header name, "user_key" by default
	UserKeyName string

	Location CredentialsLocation

	// Headers are added to every request
	Headers map[string]string

	Timeout time.Duration

	// VerifyTLS enables certificate verification; test clusters usually
	// serve self-signed routes
	VerifyTLS bool

	Logger *slog.Logger
}

// Client calls an API through the gateway.
type Client struct {
	config     Config
	base       *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

// Response is a fully read gateway response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Text returns the body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// NewClient creates a new gateway client
func NewClient(config Config) (*Client, error) {
	if config.Endpoint == "" {
		return nil, ErrEndpointRequired
	}
	base, err := url.Parse(strings.TrimSuffix(config.Endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid gateway endpoint %q: %w", config.Endpoint, err)
	}
	if config.UserKeyName == "" {
		config.UserKeyName = "user_key"
	}
	if config.Location == "" {
		config.Location = CredentialsQuery
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		config: config,
		base:   base,
		httpClient: &http.Client{
			Timeout: config.Timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: !config.VerifyTLS},
				// every request opens its own connection so concurrent
				// requests are seen as separate clients by the gateway
				DisableKeepAlives: true,
			},
		},
		logger: logger,
	}, nil
}

// Endpoint returns the base URL requests are sent to.
func (c *Client) Endpoint() string {
	return c.base.String()
}

// Get sends a GET request for path.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

// Do sends a request for path with application credentials attached.
func (c *Client) Do(ctx context.Context, method, path string, body io.Reader) (*Response, error) {
	target, err := c.base.Parse(c.base.Path + "/" + strings.TrimPrefix(path, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid path %q: %w", path, err)
	}

	if c.config.UserKey != "" && c.config.Location == CredentialsQuery {
		q := target.Query()
		q.Set(c.config.UserKeyName, c.config.UserKey)
		target.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}
	if c.config.UserKey != "" && c.config.Location == CredentialsHeaders {
		req.Header.Set(c.config.UserKeyName, c.config.UserKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Debug("gateway request", "method", method, "path", path, "status", resp.StatusCode)
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
