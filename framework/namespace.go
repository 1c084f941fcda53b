package framework

import (
	"fmt"
	"time"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// EnsureNamespace creates the namespace if it doesn't exist. A namespace the
// framework created is deleted again by Cleanup; an existing one is left alone.
func (f *Framework) EnsureNamespace() error {
	_, err := f.client.CoreV1().Namespaces().Get(f.ctx, f.namespace, metav1.GetOptions{})
	if err == nil {
		f.logger.Debug("namespace exists", "namespace", f.namespace)
		return nil
	}
	if !apierrors.IsNotFound(err) {
		return fmt.Errorf("failed to get namespace: %w", err)
	}

	ns := &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{
			Name:   f.namespace,
			Labels: f.ManagedLabels(),
		},
	}
	if _, err := f.client.CoreV1().Namespaces().Create(f.ctx, ns, metav1.CreateOptions{}); err != nil && !apierrors.IsAlreadyExists(err) {
		return fmt.Errorf("failed to create namespace: %w", err)
	}

	f.mu.Lock()
	f.ownsNamespace = true
	f.mu.Unlock()
	f.logger.Info("created namespace", "namespace", f.namespace)
	return nil
}

// OwnsNamespace reports whether the namespace was created by this framework
func (f *Framework) OwnsNamespace() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ownsNamespace
}

// DeleteNamespace deletes the namespace and waits until it is gone
func (f *Framework) DeleteNamespace() error {
	err := f.client.CoreV1().Namespaces().Delete(f.ctx, f.namespace, metav1.DeleteOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to delete namespace: %w", err)
	}

	timeout := f.config.NamespaceTimeout
	ticker := time.NewTicker(f.config.NamespacePollInterval)
	defer ticker.Stop()
	deadline := time.After(timeout)

	for {
		_, err := f.client.CoreV1().Namespaces().Get(f.ctx, f.namespace, metav1.GetOptions{})
		if apierrors.IsNotFound(err) {
			return nil
		}

		select {
		case <-f.ctx.Done():
			return fmt.Errorf("%w: %v", ErrContextCancelled, f.ctx.Err())
		case <-deadline:
			return NewTimeoutError(ErrNamespaceDeletionTimeout, "namespace deletion", timeout.String(), f.namespace)
		case <-ticker.C:
		}
	}
}
