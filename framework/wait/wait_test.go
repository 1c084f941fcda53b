package wait

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	appsv1 "github.com/openshift/api/apps/v1"

	"github.com/3scale-qe/testsuite/test/framework/gvr"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/fake"
)

type fakeClients struct {
	client  kubernetes.Interface
	dynamic dynamic.Interface
	ctx     context.Context
}

func (f *fakeClients) Client() kubernetes.Interface     { return f.client }
func (f *fakeClients) DynamicClient() dynamic.Interface { return f.dynamic }
func (f *fakeClients) Context() context.Context         { return f.ctx }
func (f *fakeClients) Namespace() string                { return "gw" }
func (f *fakeClients) Logger() *slog.Logger             { return slog.Default() }

func newClients(t *testing.T, objs ...runtime.Object) *fakeClients {
	t.Helper()
	PollInterval = 10 * time.Millisecond
	scheme := runtime.NewScheme()
	return &fakeClients{
		client: fake.NewSimpleClientset(objs...),
		dynamic: dynamicfake.NewSimpleDynamicClientWithCustomListKinds(scheme, map[schema.GroupVersionResource]string{
			gvr.DeploymentConfig: "DeploymentConfigList",
		}),
		ctx: context.Background(),
	}
}

func readyPod(name string) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: "gw", Labels: map[string]string{"deploymentconfig": "apicast"}},
		Status: corev1.PodStatus{
			Phase:      corev1.PodRunning,
			Conditions: []corev1.PodCondition{{Type: corev1.PodReady, Status: corev1.ConditionTrue}},
		},
	}
}

func TestIsPodReady(t *testing.T) {
	pod := readyPod("a")
	if !IsPodReady(pod) {
		t.Error("expected running pod with Ready condition to be ready")
	}

	pod.Status.Phase = corev1.PodPending
	if IsPodReady(pod) {
		t.Error("expected pending pod not to be ready")
	}
}

func TestForPodsReady(t *testing.T) {
	c := newClients(t, readyPod("apicast-1-abc"))
	selector := labels.SelectorFromSet(labels.Set{"deploymentconfig": "apicast"})

	if err := ForPodsReady(c, selector, time.Second, 1); err != nil {
		t.Errorf("expected pods ready, got %v", err)
	}
}

func TestForPodsReady_Timeout(t *testing.T) {
	c := newClients(t)
	selector := labels.SelectorFromSet(labels.Set{"deploymentconfig": "apicast"})

	err := ForPodsReady(c, selector, 50*time.Millisecond, 1)
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
}

func TestForPodsReady_Cancelled(t *testing.T) {
	c := newClients(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.ctx = ctx

	err := ForPodsReady(c, labels.Everything(), time.Minute, 1)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if errors.Is(err, ErrTimeout) {
		t.Error("expected cancellation not to be reported as a timeout")
	}
}

func TestIsDeploymentConfigReady(t *testing.T) {
	tests := []struct {
		name       string
		dc         appsv1.DeploymentConfig
		minVersion int64
		want       bool
	}{
		{
			name: "ready",
			dc: appsv1.DeploymentConfig{
				Spec:   appsv1.DeploymentConfigSpec{Replicas: 1},
				Status: appsv1.DeploymentConfigStatus{LatestVersion: 1, ReadyReplicas: 1, UpdatedReplicas: 1},
			},
			minVersion: 1,
			want:       true,
		},
		{
			name: "never rolled out",
			dc: appsv1.DeploymentConfig{
				Spec: appsv1.DeploymentConfigSpec{Replicas: 1},
			},
			want: false,
		},
		{
			name: "old rollout",
			dc: appsv1.DeploymentConfig{
				Spec:   appsv1.DeploymentConfigSpec{Replicas: 1},
				Status: appsv1.DeploymentConfigStatus{LatestVersion: 1, ReadyReplicas: 1, UpdatedReplicas: 1},
			},
			minVersion: 2,
			want:       false,
		},
		{
			name: "replicas not ready",
			dc: appsv1.DeploymentConfig{
				Spec:   appsv1.DeploymentConfigSpec{Replicas: 2},
				Status: appsv1.DeploymentConfigStatus{LatestVersion: 3, ReadyReplicas: 1, UpdatedReplicas: 2},
			},
			minVersion: 1,
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDeploymentConfigReady(&tt.dc, tt.minVersion); got != tt.want {
				t.Errorf("IsDeploymentConfigReady() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestForDeploymentConfigReady(t *testing.T) {
	c := newClients(t)
	dc := &appsv1.DeploymentConfig{
		TypeMeta:   metav1.TypeMeta{APIVersion: "apps.openshift.io/v1", Kind: "DeploymentConfig"},
		ObjectMeta: metav1.ObjectMeta{Name: "apicast", Namespace: "gw"},
		Spec:       appsv1.DeploymentConfigSpec{Replicas: 1},
		Status:     appsv1.DeploymentConfigStatus{LatestVersion: 2, ReadyReplicas: 1, UpdatedReplicas: 1},
	}
	content, err := runtime.DefaultUnstructuredConverter.ToUnstructured(dc)
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.DynamicClient().Resource(gvr.DeploymentConfig).Namespace("gw").
		Create(context.Background(), &unstructured.Unstructured{Object: content}, metav1.CreateOptions{})
	if err != nil {
		t.Fatal(err)
	}

	if err := ForDeploymentConfigReady(c, "apicast", 2, time.Second); err != nil {
		t.Errorf("expected deploymentconfig ready, got %v", err)
	}
	if err := ForDeploymentConfigReady(c, "apicast", 3, 50*time.Millisecond); !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout waiting for a newer rollout, got %v", err)
	}
	err = ForDeploymentConfigReady(c, "missing", 1, 50*time.Millisecond)
	if !errors.Is(err, ErrTimeout) || !apierrors.IsNotFound(err) {
		t.Errorf("expected ErrTimeout wrapping NotFound for missing deploymentconfig, got %v", err)
	}
}
