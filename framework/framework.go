package framework

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/3scale-qe/testsuite/test/framework/apicast"
	"github.com/3scale-qe/testsuite/test/framework/config"

	apiextensionsclient "k8s.io/apiextensions-apiserver/pkg/client/clientset/clientset"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

var _ apicast.FrameworkOperations = (*Framework)(nil)

// Framework is a handle on the OpenShift project gateways are deployed to.
// Everything it creates is tracked so Cleanup can remove it again.
type Framework struct {
	client        kubernetes.Interface
	dynamicClient dynamic.Interface
	apiextClient  apiextensionsclient.Interface
	namespace     string
	ctx           context.Context
	logger        *slog.Logger
	config        *config.Config

	mu            sync.Mutex
	ownsNamespace bool
	tracked       []TrackedResource
}

// Option configures a Framework
type Option func(*Framework)

// WithLogger replaces slog.Default
func WithLogger(logger *slog.Logger) Option {
	return func(f *Framework) {
		f.logger = logger
	}
}

// WithConfig replaces the settings read from the environment
func WithConfig(cfg *config.Config) Option {
	return func(f *Framework) {
		f.config = cfg
	}
}

// WithAPIExtensionsClient sets the client used for CRD prerequisite checks
func WithAPIExtensionsClient(c apiextensionsclient.Interface) Option {
	return func(f *Framework) {
		f.apiextClient = c
	}
}

// New connects to the cluster from inside a pod or through the local
// kubeconfig. Cancelling ctx stops every wait the framework runs.
func New(ctx context.Context, namespace string, opts ...Option) (*Framework, error) {
	if namespace == "" {
		return nil, ErrNamespaceRequired
	}

	restConfig, err := loadRESTConfig()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClusterConnection, err)
	}

	client, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: kubernetes client: %v", ErrClusterConnection, err)
	}
	dynamicClient, err := dynamic.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: dynamic client: %v", ErrClusterConnection, err)
	}
	apiextClient, err := apiextensionsclient.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: apiextensions client: %v", ErrClusterConnection, err)
	}

	opts = append([]Option{WithAPIExtensionsClient(apiextClient)}, opts...)
	return NewForClients(ctx, namespace, client, dynamicClient, opts...)
}

func loadRESTConfig() (*rest.Config, error) {
	if c, err := rest.InClusterConfig(); err == nil {
		return c, nil
	}
	return clientcmd.BuildConfigFromFlags("", clientcmd.RecommendedHomeFile)
}

// NewForClients builds a Framework on top of existing clients, fakes included
func NewForClients(ctx context.Context, namespace string, client kubernetes.Interface, dynamicClient dynamic.Interface, opts ...Option) (*Framework, error) {
	if namespace == "" {
		return nil, ErrNamespaceRequired
	}
	if ctx == nil {
		ctx = context.Background()
	}

	f := &Framework{
		client:        client,
		dynamicClient: dynamicClient,
		namespace:     namespace,
		ctx:           ctx,
		logger:        slog.Default(),
		config:        config.FromEnv(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

func (f *Framework) Namespace() string                { return f.namespace }
func (f *Framework) Client() kubernetes.Interface     { return f.client }
func (f *Framework) DynamicClient() dynamic.Interface { return f.dynamicClient }
func (f *Framework) Context() context.Context         { return f.ctx }
func (f *Framework) Logger() *slog.Logger             { return f.logger }

// ManagedLabels are put on every object the framework creates, they drive
// the label based cleanup when nothing was tracked
func (f *Framework) ManagedLabels() map[string]string {
	return map[string]string{
		LabelManagedBy: LabelManagedByValue,
		LabelInstance:  f.namespace,
	}
}

// Track records a created object for Cleanup. Tracking the same object twice
// is a no-op.
func (f *Framework) Track(gvr schema.GroupVersionResource, namespace, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := TrackedResource{GVR: gvr, Namespace: namespace, Name: name}
	for _, t := range f.tracked {
		if t == r {
			return
		}
	}
	f.tracked = append(f.tracked, r)
}

// Tracked returns a copy of the tracked objects in creation order
func (f *Framework) Tracked() []TrackedResource {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]TrackedResource(nil), f.tracked...)
}
