package config

import (
	"os"
	"strconv"
	"time"
)

// Default timeouts used throughout the framework
const (
	// DefaultCRDeletionTimeout is the default timeout for waiting for CR deletion
	DefaultCRDeletionTimeout = 120 * time.Second

	// DefaultCRDeletionPollInterval is the default interval for polling CR deletion status
	DefaultCRDeletionPollInterval = 2 * time.Second

	// DefaultPodReadyTimeout is the default timeout for waiting for pods to be ready
	DefaultPodReadyTimeout = 120 * time.Second

	// DefaultPodReadyPollInterval is the default interval for polling pod readiness
	DefaultPodReadyPollInterval = 5 * time.Second

	// DefaultNamespaceTimeout is the default timeout for namespace operations
	DefaultNamespaceTimeout = 120 * time.Second

	// DefaultNamespacePollInterval is the default interval for polling namespace status
	DefaultNamespacePollInterval = 2 * time.Second

	// DefaultDeploymentTimeout bounds a DeploymentConfig rollout
	DefaultDeploymentTimeout = 5 * time.Minute

	// DefaultDeploymentPollInterval is the interval for polling rollouts
	DefaultDeploymentPollInterval = 5 * time.Second

	// DefaultHTTPTimeout is the default timeout for HTTP requests
	DefaultHTTPTimeout = 60 * time.Second

	// DefaultBrowserTimeout bounds a single browser operation
	DefaultBrowserTimeout = 30 * time.Second

	// DefaultBrowserEngine is the playwright engine used for UI tests
	DefaultBrowserEngine = "chromium"

	// DefaultApicastImage is the gateway image of template deployments
	DefaultApicastImage = "quay.io/3scale/apicast:latest"

	// DefaultApicastTemplate is the OpenShift template of self-managed APIcast
	DefaultApicastTemplate = "https://raw.githubusercontent.com/3scale/3scale-amp-openshift-templates/master/apicast-gateway/apicast.yml"

	// DefaultMaxConcurrentRequests limits fan-out against the cluster API
	DefaultMaxConcurrentRequests = 5
)

// Environment variable names for configuration overrides
const (
	EnvSettings           = "THREESCALE_TESTS_SETTINGS"
	EnvAdminURL           = "THREESCALE_TESTS_ADMIN_URL"
	EnvAdminUsername      = "THREESCALE_TESTS_ADMIN_USERNAME"
	EnvAdminPassword      = "THREESCALE_TESTS_ADMIN_PASSWORD"
	EnvAdminToken         = "THREESCALE_TESTS_ADMIN_TOKEN"
	EnvBrowser            = "THREESCALE_TESTS_BROWSER"
	EnvHeadless           = "THREESCALE_TESTS_HEADLESS"
	EnvVerifyTLS          = "THREESCALE_TESTS_VERIFY_TLS"
	EnvNamespace          = "THREESCALE_TESTS_NAMESPACE"
	EnvApicastImage       = "THREESCALE_TESTS_APICAST_IMAGE"
	EnvApicastTemplate    = "THREESCALE_TESTS_APICAST_TEMPLATE"
	EnvApicastEndpoint    = "THREESCALE_TESTS_APICAST_ENDPOINT"
	EnvServiceRoutes      = "THREESCALE_TESTS_SERVICE_ROUTES"
	EnvGatewayEndpoint    = "THREESCALE_TESTS_GATEWAY_ENDPOINT"
	EnvServiceID          = "THREESCALE_TESTS_SERVICE_ID"
	EnvService2ID         = "THREESCALE_TESTS_SERVICE2_ID"
	EnvUserKey            = "THREESCALE_TESTS_USER_KEY"
	EnvUserKey2           = "THREESCALE_TESTS_USER_KEY2"
	EnvGateway2Endpoint   = "THREESCALE_TESTS_GATEWAY2_ENDPOINT"
	EnvService2UserKey    = "THREESCALE_TESTS_SERVICE2_USER_KEY"
	EnvAccountID          = "THREESCALE_TESTS_ACCOUNT_ID"
	EnvAccountUserID      = "THREESCALE_TESTS_ACCOUNT_USER_ID"
	EnvCRDeletionTimeout  = "THREESCALE_TESTS_CR_DELETION_TIMEOUT"
	EnvPodReadyTimeout    = "THREESCALE_TESTS_POD_READY_TIMEOUT"
	EnvDeploymentTimeout  = "THREESCALE_TESTS_DEPLOYMENT_TIMEOUT"
	EnvHTTPTimeout        = "THREESCALE_TESTS_HTTP_TIMEOUT"
	EnvBrowserTimeout     = "THREESCALE_TESTS_BROWSER_TIMEOUT"
	EnvMaxConcurrentCalls = "THREESCALE_TESTS_MAX_CONCURRENT_REQUESTS"
)

// Config holds framework configuration with optional overrides
type Config struct {
	// Admin portal of the tenant under test
	AdminURL      string
	AdminUsername string
	AdminPassword string
	AdminToken    string

	// Browser
	BrowserEngine string
	Headless      bool
	VerifyTLS     bool

	// Namespace is the OpenShift project gateways are deployed to
	Namespace string

	// Template APIcast
	ApicastImage    string
	ApicastTemplate string

	// ApicastEndpoint is a printf pattern producing route hosts from a
	// fragment, e.g. "%s-apicast.apps.example.com"
	ApicastEndpoint string

	// ServiceRoutes creates a route per service on template gateways
	ServiceRoutes bool

	// Gateway under test and the applications used by policy scenarios.
	// UserKey and UserKey2 belong to two applications of ServiceID,
	// Service2UserKey to an application of Service2ID.
	GatewayEndpoint  string
	ServiceID        int64
	UserKey          string
	UserKey2         string
	Gateway2Endpoint string
	Service2ID       int64
	Service2UserKey  string

	// Developer account and one of its users the UI suites navigate to
	AccountID     int64
	AccountUserID int64

	// Timeouts
	CRDeletionTimeout      time.Duration
	CRDeletionPollInterval time.Duration
	PodReadyTimeout        time.Duration
	PodReadyPollInterval   time.Duration
	NamespaceTimeout       time.Duration
	NamespacePollInterval  time.Duration
	DeploymentTimeout      time.Duration
	DeploymentPollInterval time.Duration
	HTTPTimeout            time.Duration
	BrowserTimeout         time.Duration

	MaxConcurrentRequests int
}

// Default returns a Config with all default values
func Default() *Config {
	return &Config{
		BrowserEngine:          DefaultBrowserEngine,
		Headless:               true,
		ApicastImage:           DefaultApicastImage,
		ApicastTemplate:        DefaultApicastTemplate,
		CRDeletionTimeout:      DefaultCRDeletionTimeout,
		CRDeletionPollInterval: DefaultCRDeletionPollInterval,
		PodReadyTimeout:        DefaultPodReadyTimeout,
		PodReadyPollInterval:   DefaultPodReadyPollInterval,
		NamespaceTimeout:       DefaultNamespaceTimeout,
		NamespacePollInterval:  DefaultNamespacePollInterval,
		DeploymentTimeout:      DefaultDeploymentTimeout,
		DeploymentPollInterval: DefaultDeploymentPollInterval,
		HTTPTimeout:            DefaultHTTPTimeout,
		BrowserTimeout:         DefaultBrowserTimeout,
		MaxConcurrentRequests:  DefaultMaxConcurrentRequests,
	}
}

// FromEnv returns a Config with values from environment variables, falling back to defaults
func FromEnv() *Config {
	cfg := Default()
	cfg.applyEnv()
	return cfg
}

func (c *Config) applyEnv() {
	envString(EnvAdminURL, &c.AdminURL)
	envString(EnvAdminUsername, &c.AdminUsername)
	envString(EnvAdminPassword, &c.AdminPassword)
	envString(EnvAdminToken, &c.AdminToken)
	envString(EnvBrowser, &c.BrowserEngine)
	envBool(EnvHeadless, &c.Headless)
	envBool(EnvVerifyTLS, &c.VerifyTLS)
	envString(EnvNamespace, &c.Namespace)
	envString(EnvApicastImage, &c.ApicastImage)
	envString(EnvApicastTemplate, &c.ApicastTemplate)
	envString(EnvApicastEndpoint, &c.ApicastEndpoint)
	envBool(EnvServiceRoutes, &c.ServiceRoutes)
	envString(EnvGatewayEndpoint, &c.GatewayEndpoint)
	envInt64(EnvServiceID, &c.ServiceID)
	envInt64(EnvService2ID, &c.Service2ID)
	envString(EnvUserKey, &c.UserKey)
	envString(EnvUserKey2, &c.UserKey2)
	envString(EnvGateway2Endpoint, &c.Gateway2Endpoint)
	envString(EnvService2UserKey, &c.Service2UserKey)
	envInt64(EnvAccountID, &c.AccountID)
	envInt64(EnvAccountUserID, &c.AccountUserID)
	envDuration(EnvCRDeletionTimeout, &c.CRDeletionTimeout)
	envDuration(EnvPodReadyTimeout, &c.PodReadyTimeout)
	envDuration(EnvDeploymentTimeout, &c.DeploymentTimeout)
	envDuration(EnvHTTPTimeout, &c.HTTPTimeout)
	envDuration(EnvBrowserTimeout, &c.BrowserTimeout)

	if v := os.Getenv(EnvMaxConcurrentCalls); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxConcurrentRequests = n
		}
	}
}

func envString(name string, dst *string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

func envBool(name string, dst *bool) {
	if v := os.Getenv(name); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func envInt64(name string, dst *int64) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func envDuration(name string, dst *time.Duration) {
	if v := os.Getenv(name); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

// WithAdmin returns a copy with updated admin portal access
func (c *Config) WithAdmin(url, username, password, token string) *Config {
	cp := *c
	cp.AdminURL = url
	cp.AdminUsername = username
	cp.AdminPassword = password
	cp.AdminToken = token
	return &cp
}

// WithNamespace returns a copy with updated namespace
func (c *Config) WithNamespace(ns string) *Config {
	cp := *c
	cp.Namespace = ns
	return &cp
}

// WithCRDeletionTimeout returns a copy with updated CR deletion timeout
func (c *Config) WithCRDeletionTimeout(d time.Duration) *Config {
	cp := *c
	cp.CRDeletionTimeout = d
	return &cp
}

// WithPodReadyTimeout returns a copy with updated pod ready timeout
func (c *Config) WithPodReadyTimeout(d time.Duration) *Config {
	cp := *c
	cp.PodReadyTimeout = d
	return &cp
}

// WithDeploymentTimeout returns a copy with updated rollout timeout
func (c *Config) WithDeploymentTimeout(d time.Duration) *Config {
	cp := *c
	cp.DeploymentTimeout = d
	return &cp
}

// WithHTTPTimeout returns a copy with updated HTTP timeout
func (c *Config) WithHTTPTimeout(d time.Duration) *Config {
	cp := *c
	cp.HTTPTimeout = d
	return &cp
}

// WithBrowser returns a copy with updated browser engine and mode
func (c *Config) WithBrowser(engine string, headless bool) *Config {
	cp := *c
	cp.BrowserEngine = engine
	cp.Headless = headless
	return &cp
}
