package apicast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"sync"
	"time"

	appsv1 "github.com/openshift/api/apps/v1"
	routev1 "github.com/openshift/api/route/v1"

	"github.com/3scale-qe/testsuite/test/framework/gvr"
	"github.com/3scale-qe/testsuite/test/framework/wait"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

var (
	// ErrNameRequired indicates the gateway has no deployment name
	ErrNameRequired = errors.New("apicast name is required")

	// ErrTemplateRequired indicates no template location was configured
	ErrTemplateRequired = errors.New("apicast template is required")

	// ErrEndpointRequired indicates routes cannot be built without an endpoint pattern
	ErrEndpointRequired = errors.New("apicast endpoint pattern is required")

	// ErrEnvNotFound indicates the deployment does not define the variable
	ErrEnvNotFound = errors.New("environment variable not found")

	// ErrUnsupportedKind indicates the template contains an object the gateway cannot create
	ErrUnsupportedKind = errors.New("unsupported template object kind")
)

// DefaultReadyTimeout bounds the wait for a rollout
const DefaultReadyTimeout = 5 * time.Minute

// FrameworkOperations is the part of the framework a template gateway needs
type FrameworkOperations interface {
	wait.Clients
	Track(gvr schema.GroupVersionResource, namespace, name string)
	ManagedLabels() map[string]string
}

// Options describes a self-managed APIcast deployed from an OpenShift template
type Options struct {
	// Name of the DeploymentConfig and Service created by the template
	Name string

	// Staging selects the staging configuration (lazy loader, no cache)
	Staging bool

	Image string

	// Template is a file path or http(s) URL
	Template string

	// ConfigurationURL is the portal endpoint APIcast loads its configuration
	// from, e.g. https://token@3scale-admin.example.com
	ConfigurationURL string

	// Endpoint is a printf pattern turning a fragment into a gateway URL,
	// e.g. "https://%s-apicast.apps.example.com"
	Endpoint string

	// ServiceRoutes creates a route for every service the gateway serves
	ServiceRoutes bool

	ReadyTimeout time.Duration
}

// TemplateApicast is a gateway deployed from the APIcast OpenShift template
type TemplateApicast struct {
	fw         FrameworkOperations
	opts       Options
	secretName string
	logger     *slog.Logger

	mu     sync.Mutex
	routes []string
}

// New validates the options and returns a gateway that is not yet deployed
func New(fw FrameworkOperations, opts Options) (*TemplateApicast, error) {
	if opts.Name == "" {
		return nil, ErrNameRequired
	}
	if opts.Template == "" {
		return nil, ErrTemplateRequired
	}
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = DefaultReadyTimeout
	}
	return &TemplateApicast{
		fw:         fw,
		opts:       opts,
		secretName: opts.Name + "-config-url",
		logger:     fw.Logger().With("apicast", opts.Name),
	}, nil
}

// Name returns the deployment name
func (a *TemplateApicast) Name() string {
	return a.opts.Name
}

// SecretName returns the name of the configuration URL secret
func (a *TemplateApicast) SecretName() string {
	return a.secretName
}

// Routes returns the routes added to this gateway
func (a *TemplateApicast) Routes() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.routes...)
}

// AppParams returns the template parameters. Staging gateways load their
// configuration lazily without caching. Values in extra win.
func (a *TemplateApicast) AppParams(extra map[string]string) map[string]string {
	params := map[string]string{
		"APICAST_NAME":             a.opts.Name,
		"AMP_APICAST_IMAGE":        a.opts.Image,
		"DEPLOYMENT_ENVIRONMENT":   "production",
		"CONFIGURATION_LOADER":     "boot",
		"CONFIGURATION_CACHE":      "300",
		"LOG_LEVEL":                "debug",
		"CONFIGURATION_URL_SECRET": a.secretName,
	}
	if a.opts.Staging {
		params["CONFIGURATION_LOADER"] = "lazy"
		params["DEPLOYMENT_ENVIRONMENT"] = "staging"
		params["CONFIGURATION_CACHE"] = "0"
	}
	for k, v := range extra {
		params[k] = v
	}
	return params
}

// Create deploys the gateway and waits for its first rollout
func (a *TemplateApicast) Create() error {
	params := a.AppParams(nil)
	a.logger.Info("Deploying template apicast", "template", a.opts.Template, "params", params)

	if err := a.ensureConfigurationSecret(); err != nil {
		return err
	}

	tmpl, err := LoadTemplate(a.fw.Context(), a.opts.Template)
	if err != nil {
		return err
	}
	objects, err := Process(tmpl, params)
	if err != nil {
		return fmt.Errorf("failed to process template: %w", err)
	}

	for _, obj := range objects {
		if err := a.createObject(obj); err != nil {
			return err
		}
	}

	return wait.ForDeploymentConfigReady(a.fw, a.opts.Name, 1, a.opts.ReadyTimeout)
}

func (a *TemplateApicast) ensureConfigurationSecret() error {
	secret := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      a.secretName,
			Namespace: a.fw.Namespace(),
			Labels:    a.fw.ManagedLabels(),
		},
		Type: corev1.SecretTypeBasicAuth,
		Data: map[string][]byte{
			corev1.BasicAuthPasswordKey: []byte(a.opts.ConfigurationURL),
		},
	}

	_, err := a.fw.Client().CoreV1().Secrets(a.fw.Namespace()).Create(a.fw.Context(), secret, metav1.CreateOptions{})
	switch {
	case apierrors.IsAlreadyExists(err):
		a.logger.Debug("Configuration secret exists", "secret", a.secretName)
	case err != nil:
		return fmt.Errorf("failed to create secret %s: %w", a.secretName, err)
	default:
		a.fw.Track(gvr.Secret, a.fw.Namespace(), a.secretName)
	}
	return nil
}

func (a *TemplateApicast) createObject(obj *unstructured.Unstructured) error {
	resource, ok := gvr.ForKind(obj.GetKind())
	if !ok {
		return fmt.Errorf("%w: %s %s", ErrUnsupportedKind, obj.GetKind(), obj.GetName())
	}

	obj.SetNamespace(a.fw.Namespace())
	labels := obj.GetLabels()
	if labels == nil {
		labels = make(map[string]string)
	}
	for k, v := range a.fw.ManagedLabels() {
		labels[k] = v
	}
	obj.SetLabels(labels)

	a.logger.Debug("Creating object", "kind", obj.GetKind(), "name", obj.GetName())
	_, err := a.fw.DynamicClient().Resource(resource).Namespace(a.fw.Namespace()).Create(a.fw.Context(), obj, metav1.CreateOptions{})
	if err != nil && !apierrors.IsAlreadyExists(err) {
		return fmt.Errorf("failed to create %s %s: %w", obj.GetKind(), obj.GetName(), err)
	}
	a.fw.Track(resource, a.fw.Namespace(), obj.GetName())
	return nil
}

// Destroy removes the gateway routes, service, deployment and secret.
// Objects that are already gone are skipped.
func (a *TemplateApicast) Destroy() error {
	a.logger.Info("Destroying template apicast")

	var errs []error
	for _, route := range a.Routes() {
		if err := a.DeleteRoute(route); err != nil {
			errs = append(errs, err)
		}
	}

	for _, res := range []struct {
		gvr  schema.GroupVersionResource
		name string
	}{
		{gvr.Service, a.opts.Name},
		{gvr.DeploymentConfig, a.opts.Name},
	} {
		a.logger.Debug("Deleting", "resource", res.gvr.Resource, "name", res.name)
		if err := a.delete(res.gvr, res.name); err != nil {
			errs = append(errs, err)
		}
	}

	a.logger.Debug("Deleting", "resource", "secrets", "name", a.secretName)
	err := a.fw.Client().CoreV1().Secrets(a.fw.Namespace()).Delete(a.fw.Context(), a.secretName, metav1.DeleteOptions{})
	if err != nil && !apierrors.IsNotFound(err) {
		errs = append(errs, fmt.Errorf("failed to delete secret %s: %w", a.secretName, err))
	}
	return errors.Join(errs...)
}

func (a *TemplateApicast) delete(resource schema.GroupVersionResource, name string) error {
	err := a.fw.DynamicClient().Resource(resource).Namespace(a.fw.Namespace()).Delete(a.fw.Context(), name, metav1.DeleteOptions{})
	if err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("failed to delete %s %s: %w", resource.Resource, name, err)
	}
	return nil
}

// Reload starts a new rollout and waits until it is ready
func (a *TemplateApicast) Reload() error {
	dc, err := a.deploymentConfig(a.fw.Context())
	if err != nil {
		return err
	}
	next := dc.Status.LatestVersion + 1

	request := &appsv1.DeploymentRequest{
		TypeMeta: metav1.TypeMeta{APIVersion: "apps.openshift.io/v1", Kind: "DeploymentRequest"},
		Name:     a.opts.Name,
		Latest:   true,
		Force:    true,
	}
	content, err := runtime.DefaultUnstructuredConverter.ToUnstructured(request)
	if err != nil {
		return fmt.Errorf("failed to encode deployment request: %w", err)
	}

	a.logger.Info("Rolling out", "version", next)
	// subresource requests are addressed by metadata.name
	req := &unstructured.Unstructured{Object: content}
	req.SetName(a.opts.Name)
	_, err = a.fw.DynamicClient().Resource(gvr.DeploymentConfig).Namespace(a.fw.Namespace()).
		Create(a.fw.Context(), req, metav1.CreateOptions{}, "instantiate")
	if err != nil {
		return fmt.Errorf("failed to instantiate %s: %w", a.opts.Name, err)
	}

	return wait.ForDeploymentConfigReady(a.fw, a.opts.Name, next, a.opts.ReadyTimeout)
}

func (a *TemplateApicast) deploymentConfig(ctx context.Context) (*appsv1.DeploymentConfig, error) {
	obj, err := a.fw.DynamicClient().Resource(gvr.DeploymentConfig).Namespace(a.fw.Namespace()).Get(ctx, a.opts.Name, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get deploymentconfig %s: %w", a.opts.Name, err)
	}
	var dc appsv1.DeploymentConfig
	if err := runtime.DefaultUnstructuredConverter.FromUnstructured(obj.Object, &dc); err != nil {
		return nil, fmt.Errorf("failed to decode deploymentconfig %s: %w", a.opts.Name, err)
	}
	return &dc, nil
}

// SetEnv sets an environment variable on every container of the gateway.
// The config change triggers a new rollout.
func (a *TemplateApicast) SetEnv(name, value string) error {
	dc, err := a.deploymentConfig(a.fw.Context())
	if err != nil {
		return err
	}

	containers := dc.Spec.Template.Spec.Containers
	for i := range containers {
		found := false
		for j := range containers[i].Env {
			if containers[i].Env[j].Name == name {
				containers[i].Env[j] = corev1.EnvVar{Name: name, Value: value}
				found = true
			}
		}
		if !found {
			containers[i].Env = append(containers[i].Env, corev1.EnvVar{Name: name, Value: value})
		}
	}

	content, err := runtime.DefaultUnstructuredConverter.ToUnstructured(dc)
	if err != nil {
		return fmt.Errorf("failed to encode deploymentconfig %s: %w", a.opts.Name, err)
	}
	_, err = a.fw.DynamicClient().Resource(gvr.DeploymentConfig).Namespace(a.fw.Namespace()).
		Update(a.fw.Context(), &unstructured.Unstructured{Object: content}, metav1.UpdateOptions{})
	if err != nil {
		return fmt.Errorf("failed to set %s on %s: %w", name, a.opts.Name, err)
	}
	a.logger.Debug("Set environment variable", "name", name)
	return nil
}

// GetEnv returns the value of an environment variable of the first container
func (a *TemplateApicast) GetEnv(name string) (string, error) {
	dc, err := a.deploymentConfig(a.fw.Context())
	if err != nil {
		return "", err
	}
	for _, c := range dc.Spec.Template.Spec.Containers {
		for _, env := range c.Env {
			if env.Name == name {
				return env.Value, nil
			}
		}
		break
	}
	return "", fmt.Errorf("%w: %s", ErrEnvNotFound, name)
}

// AddRoute exposes the gateway service on the host produced by the endpoint
// pattern for fragment. The route is named name, or fragment when name is empty.
func (a *TemplateApicast) AddRoute(fragment, name string) error {
	if a.opts.Endpoint == "" {
		return ErrEndpointRequired
	}
	if name == "" {
		name = fragment
	}
	u, err := url.Parse(fmt.Sprintf(a.opts.Endpoint, fragment))
	if err != nil {
		return fmt.Errorf("invalid endpoint for %s: %w", fragment, err)
	}

	route := &routev1.Route{
		TypeMeta: metav1.TypeMeta{APIVersion: "route.openshift.io/v1", Kind: "Route"},
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: a.fw.Namespace(),
			Labels:    a.fw.ManagedLabels(),
		},
		Spec: routev1.RouteSpec{
			Host: u.Hostname(),
			To:   routev1.RouteTargetReference{Kind: "Service", Name: a.opts.Name},
		},
	}
	if u.Scheme == "https" {
		route.Spec.TLS = &routev1.TLSConfig{Termination: routev1.TLSTerminationEdge}
	}

	content, err := runtime.DefaultUnstructuredConverter.ToUnstructured(route)
	if err != nil {
		return fmt.Errorf("failed to encode route %s: %w", name, err)
	}
	_, err = a.fw.DynamicClient().Resource(gvr.Route).Namespace(a.fw.Namespace()).
		Create(a.fw.Context(), &unstructured.Unstructured{Object: content}, metav1.CreateOptions{})
	if err != nil {
		return fmt.Errorf("failed to create route %s: %w", name, err)
	}

	a.mu.Lock()
	a.routes = append(a.routes, name)
	a.mu.Unlock()
	a.fw.Track(gvr.Route, a.fw.Namespace(), name)
	a.logger.Debug("Added route", "route", name, "host", u.Hostname())
	return nil
}

// DeleteRoute deletes a route previously added by AddRoute. Unknown names are ignored.
func (a *TemplateApicast) DeleteRoute(name string) error {
	a.mu.Lock()
	idx := -1
	for i, r := range a.routes {
		if r == name {
			idx = i
			break
		}
	}
	a.mu.Unlock()
	if idx < 0 {
		return nil
	}

	if err := a.delete(gvr.Route, name); err != nil {
		return err
	}

	a.mu.Lock()
	for i, r := range a.routes {
		if r == name {
			a.routes = append(a.routes[:i], a.routes[i+1:]...)
			break
		}
	}
	a.mu.Unlock()
	return nil
}

func (a *TemplateApicast) routeName(serviceID int64) string {
	env := "production"
	if a.opts.Staging {
		env = "staging"
	}
	return fmt.Sprintf("%d-%s", serviceID, env)
}

// OnServiceCreate adds the per-service route when service routes are enabled
func (a *TemplateApicast) OnServiceCreate(serviceID int64) error {
	if !a.opts.ServiceRoutes {
		return nil
	}
	return a.AddRoute(strconv.FormatInt(serviceID, 10), a.routeName(serviceID))
}

// OnServiceDelete removes the per-service route when service routes are enabled
func (a *TemplateApicast) OnServiceDelete(serviceID int64) error {
	if !a.opts.ServiceRoutes {
		return nil
	}
	return a.DeleteRoute(a.routeName(serviceID))
}
