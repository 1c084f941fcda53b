package config

import (
	"fmt"
	"os"
	"time"

	"sigs.k8s.io/yaml"
)

// Settings is the YAML settings file. Unset fields keep their defaults.
//
//	admin:
//	  url: https://3scale-admin.apps.example.com
//	  username: admin
//	browser:
//	  engine: firefox
//	  headless: false
//	timeouts:
//	  deployment: 10m
type Settings struct {
	Admin struct {
		URL      string `json:"url,omitempty"`
		Username string `json:"username,omitempty"`
		Password string `json:"password,omitempty"`
		Token    string `json:"token,omitempty"`
	} `json:"admin,omitempty"`

	Browser struct {
		Engine   string `json:"engine,omitempty"`
		Headless *bool  `json:"headless,omitempty"`
	} `json:"browser,omitempty"`

	VerifyTLS *bool  `json:"verifyTLS,omitempty"`
	Namespace string `json:"namespace,omitempty"`

	Apicast struct {
		Image         string `json:"image,omitempty"`
		Template      string `json:"template,omitempty"`
		Endpoint      string `json:"endpoint,omitempty"`
		ServiceRoutes *bool  `json:"serviceRoutes,omitempty"`
	} `json:"apicast,omitempty"`

	Gateway struct {
		Endpoint        string `json:"endpoint,omitempty"`
		ServiceID       int64  `json:"serviceID,omitempty"`
		UserKey         string `json:"userKey,omitempty"`
		UserKey2        string `json:"userKey2,omitempty"`
		Endpoint2       string `json:"endpoint2,omitempty"`
		Service2ID      int64  `json:"service2ID,omitempty"`
		Service2UserKey string `json:"service2UserKey,omitempty"`
	} `json:"gateway,omitempty"`

	Account struct {
		ID     int64 `json:"id,omitempty"`
		UserID int64 `json:"userID,omitempty"`
	} `json:"account,omitempty"`

	Timeouts struct {
		CRDeletion string `json:"crDeletion,omitempty"`
		PodReady   string `json:"podReady,omitempty"`
		Deployment string `json:"deployment,omitempty"`
		HTTP       string `json:"http,omitempty"`
		Browser    string `json:"browser,omitempty"`
	} `json:"timeouts,omitempty"`
}

// Load returns defaults overlaid with the settings file at path and then
// with environment overrides. An empty path reads EnvSettings; if that is
// unset too only the environment is applied.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvSettings)
	}
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read settings file %s: %w", path, err)
		}
		var s Settings
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("failed to parse settings %s: %w", path, err)
		}
		if err := cfg.apply(&s); err != nil {
			return nil, fmt.Errorf("invalid settings %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) apply(s *Settings) error {
	setString(&c.AdminURL, s.Admin.URL)
	setString(&c.AdminUsername, s.Admin.Username)
	setString(&c.AdminPassword, s.Admin.Password)
	setString(&c.AdminToken, s.Admin.Token)
	setString(&c.BrowserEngine, s.Browser.Engine)
	if s.Browser.Headless != nil {
		c.Headless = *s.Browser.Headless
	}
	if s.VerifyTLS != nil {
		c.VerifyTLS = *s.VerifyTLS
	}
	setString(&c.Namespace, s.Namespace)
	setString(&c.ApicastImage, s.Apicast.Image)
	setString(&c.ApicastTemplate, s.Apicast.Template)
	setString(&c.ApicastEndpoint, s.Apicast.Endpoint)
	if s.Apicast.ServiceRoutes != nil {
		c.ServiceRoutes = *s.Apicast.ServiceRoutes
	}
	setString(&c.GatewayEndpoint, s.Gateway.Endpoint)
	setString(&c.UserKey, s.Gateway.UserKey)
	setString(&c.UserKey2, s.Gateway.UserKey2)
	setString(&c.Gateway2Endpoint, s.Gateway.Endpoint2)
	setString(&c.Service2UserKey, s.Gateway.Service2UserKey)
	setInt64(&c.AccountID, s.Account.ID)
	setInt64(&c.AccountUserID, s.Account.UserID)
	setInt64(&c.ServiceID, s.Gateway.ServiceID)
	setInt64(&c.Service2ID, s.Gateway.Service2ID)

	durations := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"timeouts.crDeletion", s.Timeouts.CRDeletion, &c.CRDeletionTimeout},
		{"timeouts.podReady", s.Timeouts.PodReady, &c.PodReadyTimeout},
		{"timeouts.deployment", s.Timeouts.Deployment, &c.DeploymentTimeout},
		{"timeouts.http", s.Timeouts.HTTP, &c.HTTPTimeout},
		{"timeouts.browser", s.Timeouts.Browser, &c.BrowserTimeout},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		v, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = v
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt64(dst *int64, v int64) {
	if v != 0 {
		*dst = v
	}
}
