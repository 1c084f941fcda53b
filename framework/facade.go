package framework

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/3scale-qe/testsuite/test/framework/apicast"
	"github.com/3scale-qe/testsuite/test/framework/wait"

	"k8s.io/apimachinery/pkg/labels"
)

// ApicastRequest describes a template gateway to deploy. Zero values fall
// back to the framework configuration.
type ApicastRequest struct {
	Name     string
	Staging  bool
	Image    string
	Template string
}

// ConfigurationURL returns the admin portal URL with the access token as
// user info, the form APIcast expects in THREESCALE_PORTAL_ENDPOINT
func ConfigurationURL(adminURL, token string) (string, error) {
	if adminURL == "" || token == "" {
		return "", ErrAdminNotConfigured
	}
	u, err := url.Parse(adminURL)
	if err != nil {
		return "", fmt.Errorf("invalid admin URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid admin URL %q: scheme and host are required", adminURL)
	}
	u.User = url.User(token)
	return u.String(), nil
}

// NewTemplateApicast returns a template gateway in the framework namespace
// without deploying it
func (f *Framework) NewTemplateApicast(req ApicastRequest) (*apicast.TemplateApicast, error) {
	configURL, err := ConfigurationURL(f.config.AdminURL, f.config.AdminToken)
	if err != nil {
		return nil, err
	}

	opts := apicast.Options{
		Name:             req.Name,
		Staging:          req.Staging,
		Image:            req.Image,
		Template:         req.Template,
		ConfigurationURL: configURL,
		Endpoint:         f.config.ApicastEndpoint,
		ServiceRoutes:    f.config.ServiceRoutes,
		ReadyTimeout:     f.config.DeploymentTimeout,
	}
	if opts.Image == "" {
		opts.Image = f.config.ApicastImage
	}
	if opts.Template == "" {
		opts.Template = f.config.ApicastTemplate
	}
	return apicast.New(f, opts)
}

// SetupTemplateApicast ensures the namespace exists and deploys a template gateway
func (f *Framework) SetupTemplateApicast(req ApicastRequest) (*apicast.TemplateApicast, error) {
	gw, err := f.NewTemplateApicast(req)
	if err != nil {
		return nil, err
	}
	if err := f.EnsureNamespace(); err != nil {
		return nil, err
	}
	if err := gw.Create(); err != nil {
		err = waitError(err, ErrDeploymentTimeout, "deploymentconfig "+gw.Name(), f.config.DeploymentTimeout)
		return nil, NewResourceError("DeploymentConfig", f.namespace, gw.Name(), err)
	}
	return gw, nil
}

// WaitForPodsReady waits for pods matching the selector to be ready
func (f *Framework) WaitForPodsReady(selector labels.Selector, timeout time.Duration, minReady int) error {
	err := wait.ForPodsReady(f, selector, timeout, minReady)
	return waitError(err, ErrPodNotReady, "pods "+selector.String(), timeout)
}

// WaitForDeploymentConfigReady waits for the first rollout of a DeploymentConfig
func (f *Framework) WaitForDeploymentConfigReady(name string, timeout time.Duration) error {
	err := wait.ForDeploymentConfigReady(f, name, 1, timeout)
	return waitError(err, ErrDeploymentTimeout, "deploymentconfig "+name, timeout)
}

// waitError turns a timed out wait into a TimeoutError caused by cause and a
// cancelled one into ErrContextCancelled. Other errors pass through.
func waitError(err, cause error, operation string, timeout time.Duration) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, wait.ErrTimeout):
		return NewTimeoutError(cause, operation, timeout.String(), err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: waiting for %s: %v", ErrContextCancelled, operation, err)
	}
	return err
}
