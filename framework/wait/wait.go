package wait

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	appsv1 "github.com/openshift/api/apps/v1"

	"github.com/3scale-qe/testsuite/test/framework/gvr"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
)

// Clients provides access to Kubernetes clients needed for wait operations
type Clients interface {
	Client() kubernetes.Interface
	DynamicClient() dynamic.Interface
	Context() context.Context
	Namespace() string
	Logger() *slog.Logger
}

// ErrTimeout is wrapped by every error returned when a wait runs out of time
var ErrTimeout = errors.New("timed out")

// PollInterval is the delay between readiness checks
var PollInterval = 5 * time.Second

// sleep waits for d or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ForPodsReady waits for pods matching the selector to be ready
func ForPodsReady(c Clients, selector labels.Selector, timeout time.Duration, minReady int) error {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		pods, err := c.Client().CoreV1().Pods(c.Namespace()).List(c.Context(), metav1.ListOptions{
			LabelSelector: selector.String(),
		})
		if err != nil {
			return fmt.Errorf("failed to list pods: %w", err)
		}

		readyCount := 0
		for _, pod := range pods.Items {
			if IsPodReady(&pod) {
				readyCount++
			}
		}

		if readyCount >= minReady && len(pods.Items) > 0 {
			return nil
		}

		if err := sleep(c.Context(), PollInterval); err != nil {
			return err
		}
	}

	return fmt.Errorf("%w: pods not ready after %v (expected at least %d ready)", ErrTimeout, timeout, minReady)
}

// ForDeploymentConfigReady waits until the DeploymentConfig has rolled out at
// least minVersion and all its replicas are ready
func ForDeploymentConfigReady(c Clients, name string, minVersion int64, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	var lastErr error

	for time.Now().Before(deadline) {
		obj, err := c.DynamicClient().Resource(gvr.DeploymentConfig).Namespace(c.Namespace()).Get(c.Context(), name, metav1.GetOptions{})
		if err != nil {
			lastErr = err
		} else {
			var dc appsv1.DeploymentConfig
			if err := runtime.DefaultUnstructuredConverter.FromUnstructured(obj.Object, &dc); err != nil {
				return fmt.Errorf("failed to decode deploymentconfig %s: %w", name, err)
			}
			if IsDeploymentConfigReady(&dc, minVersion) {
				return nil
			}
			c.Logger().Debug("Waiting for deploymentconfig",
				"name", name,
				"latestVersion", dc.Status.LatestVersion,
				"readyReplicas", dc.Status.ReadyReplicas)
		}

		if err := sleep(c.Context(), PollInterval); err != nil {
			return err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("%w: deploymentconfig %s not ready after %v: %w", ErrTimeout, name, timeout, lastErr)
	}
	return fmt.Errorf("%w: deploymentconfig %s not ready after %v", ErrTimeout, name, timeout)
}

// IsDeploymentConfigReady reports whether the observed rollout is at least
// minVersion and every desired replica is ready
func IsDeploymentConfigReady(dc *appsv1.DeploymentConfig, minVersion int64) bool {
	if dc.Status.LatestVersion < minVersion || dc.Status.LatestVersion == 0 {
		return false
	}
	if dc.Status.ObservedGeneration < dc.Generation {
		return false
	}
	return dc.Status.ReadyReplicas >= dc.Spec.Replicas &&
		dc.Status.UpdatedReplicas >= dc.Spec.Replicas
}

// IsPodReady checks if a pod is in Ready state
func IsPodReady(pod *corev1.Pod) bool {
	if pod.Status.Phase != corev1.PodRunning {
		return false
	}

	for _, condition := range pod.Status.Conditions {
		if condition.Type == corev1.PodReady {
			return condition.Status == corev1.ConditionTrue
		}
	}

	return false
}
