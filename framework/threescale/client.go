// Package threescale is a minimal client of the 3scale Account Management
// API covering the proxy and policy chain endpoints.
package threescale

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrTokenRequired indicates that no access token was configured
	ErrTokenRequired = errors.New("admin access token is required")

	// ErrURLRequired indicates that no admin portal URL was configured
	ErrURLRequired = errors.New("admin portal URL is required")
)

// APIError is a non-2xx response of the admin API.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status code %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// IsNotFound returns true if err is a 404 from the admin API
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Policy is one element of a service policy chain.
type Policy struct {
	Name          string         `json:"name"`
	Version       string         `json:"version"`
	Configuration map[string]any `json:"configuration"`
	Enabled       bool           `json:"enabled"`
}

// ProxyConfig is a versioned gateway configuration of a service.
type ProxyConfig struct {
	ID          int64  `json:"id"`
	Version     int    `json:"version"`
	Environment string `json:"environment"`
}

// Config holds configuration for the admin client
type Config struct {
	URL         string
	AccessToken string
	Timeout     time.Duration
	VerifyTLS   bool
	Logger      *slog.Logger
}

// Client talks to the admin API of one tenant.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new admin API client
func NewClient(config Config) (*Client, error) {
	if config.URL == "" {
		return nil, ErrURLRequired
	}
	if config.AccessToken == "" {
		return nil, ErrTokenRequired
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimSuffix(config.URL, "/"),
		token:   config.AccessToken,
		httpClient: &http.Client{
			Timeout: config.Timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: !config.VerifyTLS},
			},
		},
		logger: logger,
	}, nil
}

// Policies returns the policy chain of a service.
func (c *Client) Policies(ctx context.Context, serviceID int64) ([]Policy, error) {
	var out struct {
		PoliciesConfig []Policy `json:"policies_config"`
	}
	if err := c.do(ctx, http.MethodGet, policiesPath(serviceID), nil, &out); err != nil {
		return nil, err
	}
	return out.PoliciesConfig, nil
}

// UpdatePolicies replaces the policy chain of a service.
func (c *Client) UpdatePolicies(ctx context.Context, serviceID int64, chain []Policy) ([]Policy, error) {
	data, err := json.Marshal(chain)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal policy chain: %w", err)
	}
	form := url.Values{}
	form.Set("policies_config", string(data))

	var out struct {
		PoliciesConfig []Policy `json:"policies_config"`
	}
	if err := c.do(ctx, http.MethodPut, policiesPath(serviceID), form, &out); err != nil {
		return nil, err
	}
	c.logger.Info("policy chain updated", "service", serviceID, "policies", policyNames(out.PoliciesConfig))
	return out.PoliciesConfig, nil
}

// AppendPolicy adds policies to the end of the chain.
func (c *Client) AppendPolicy(ctx context.Context, serviceID int64, policies ...Policy) ([]Policy, error) {
	chain, err := c.Policies(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	return c.UpdatePolicies(ctx, serviceID, append(chain, policies...))
}

// InsertPolicy inserts policies at index, 0 meaning in front of the chain.
func (c *Client) InsertPolicy(ctx context.Context, serviceID int64, index int, policies ...Policy) ([]Policy, error) {
	chain, err := c.Policies(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index > len(chain) {
		index = len(chain)
	}
	updated := make([]Policy, 0, len(chain)+len(policies))
	updated = append(updated, chain[:index]...)
	updated = append(updated, policies...)
	updated = append(updated, chain[index:]...)
	return c.UpdatePolicies(ctx, serviceID, updated)
}

// DeployProxy publishes the current configuration to the staging gateway.
func (c *Client) DeployProxy(ctx context.Context, serviceID int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/admin/api/services/%d/proxy/deploy.json", serviceID), url.Values{}, nil)
}

// LatestProxyConfig returns the newest configuration of env ("sandbox" or
// "production").
func (c *Client) LatestProxyConfig(ctx context.Context, serviceID int64, env string) (*ProxyConfig, error) {
	var out struct {
		ProxyConfig ProxyConfig `json:"proxy_config"`
	}
	path := fmt.Sprintf("/admin/api/services/%d/proxy/configs/%s/latest.json", serviceID, env)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out.ProxyConfig, nil
}

// PromoteProxy promotes the latest staging configuration to production.
func (c *Client) PromoteProxy(ctx context.Context, serviceID int64) error {
	latest, err := c.LatestProxyConfig(ctx, serviceID, "sandbox")
	if err != nil {
		return err
	}
	form := url.Values{}
	form.Set("to", "production")
	path := fmt.Sprintf("/admin/api/services/%d/proxy/configs/sandbox/%d/promote.json", serviceID, latest.Version)
	return c.do(ctx, http.MethodPost, path, form, nil)
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values, out any) error {
	apiURL := c.baseURL + path

	var body io.Reader
	if form != nil {
		form.Set("access_token", c.token)
		body = strings.NewReader(form.Encode())
	} else {
		apiURL += "?" + url.Values{"access_token": {c.token}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(data)}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

func policiesPath(serviceID int64) string {
	return fmt.Sprintf("/admin/api/services/%d/proxy/policies.json", serviceID)
}

func policyNames(chain []Policy) []string {
	names := make([]string, len(chain))
	for i, p := range chain {
		names[i] = p.Name
	}
	return names
}
