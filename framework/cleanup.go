package framework

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/3scale-qe/testsuite/test/framework/concurrent"
	"github.com/3scale-qe/testsuite/test/framework/gvr"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
)

// Cleanup removes all resources created by the framework
func (f *Framework) Cleanup() error {
	f.logger.Info("starting cleanup", "namespace", f.namespace)

	// 1. Delete tracked resources first
	if err := f.deleteTracked(); err != nil {
		return NewCleanupError("resource deletion", err)
	}

	// 2. Wait for them to be fully deleted before proceeding
	if err := f.waitForDeletion(); err != nil {
		if IsCancelled(err) {
			return NewCleanupError("resource deletion", err)
		}
		// Continue after a timeout, the namespace deletion may still work
		f.logger.Warn("some resources may not have been fully deleted", "error", err, "timeout", IsTimeout(err))
	}

	// 3. Delete the namespace only if this framework created it
	if f.OwnsNamespace() {
		if err := f.DeleteNamespace(); err != nil {
			return NewCleanupError("namespace deletion", err)
		}
	}

	f.logger.Info("cleanup completed", "namespace", f.namespace)
	return nil
}

func (f *Framework) limit() int {
	if f.config.MaxConcurrentRequests > 0 {
		return f.config.MaxConcurrentRequests
	}
	return 1
}

// deleteTracked deletes all tracked resources in parallel
func (f *Framework) deleteTracked() error {
	tracked := f.Tracked()

	// If nothing was tracked, fall back to label-based cleanup
	if len(tracked) == 0 {
		f.logger.Info("no tracked resources, using label-based cleanup")
		return f.deleteByLabel()
	}

	f.logger.Info("deleting tracked resources", "count", len(tracked))

	return concurrent.ForEachWithLimit(f.ctx, tracked, f.limit(), func(ctx context.Context, res TrackedResource) error {
		f.logger.Debug("deleting resource", "resource", res.GVR.Resource, "name", res.Name)
		err := f.dynamicClient.Resource(res.GVR).Namespace(res.Namespace).Delete(ctx, res.Name, metav1.DeleteOptions{})
		if err != nil && !apierrors.IsNotFound(err) {
			return fmt.Errorf("failed to delete %s/%s: %w", res.GVR.Resource, res.Name, err)
		}
		return nil
	})
}

// deleteByLabel finds and deletes resources using the managed-by label
func (f *Framework) deleteByLabel() error {
	labelSelector := fmt.Sprintf("%s=%s,%s=%s", LabelManagedBy, LabelManagedByValue, LabelInstance, f.namespace)
	gvrs := append(gvr.AllManagedCRs(), gvr.TemplateResources()...)

	return concurrent.ForEachWithLimit(f.ctx, gvrs, f.limit(), func(ctx context.Context, r schema.GroupVersionResource) error {
		list, err := f.dynamicClient.Resource(r).Namespace(f.namespace).List(ctx, metav1.ListOptions{
			LabelSelector: labelSelector,
		})
		if err != nil {
			if apierrors.IsNotFound(err) {
				return nil
			}
			return fmt.Errorf("failed to list %s: %w", r.Resource, err)
		}

		var errs []error
		for _, item := range list.Items {
			if ctx.Err() != nil {
				return fmt.Errorf("context cancelled during %s cleanup: %w", r.Resource, ctx.Err())
			}
			f.logger.Debug("deleting resource by label", "resource", r.Resource, "name", item.GetName())
			err := f.dynamicClient.Resource(r).Namespace(f.namespace).Delete(ctx, item.GetName(), metav1.DeleteOptions{})
			if err != nil && !apierrors.IsNotFound(err) {
				errs = append(errs, fmt.Errorf("failed to delete %s/%s: %w", r.Resource, item.GetName(), err))
			}
		}
		return errors.Join(errs...)
	})
}

// waitForDeletion waits for all tracked resources to be fully deleted
func (f *Framework) waitForDeletion() error {
	tracked := f.Tracked()
	if len(tracked) == 0 {
		return nil
	}

	crDeletionTimeout := f.config.CRDeletionTimeout
	crDeletionPollInterval := f.config.CRDeletionPollInterval

	f.logger.Info("waiting for resources to be deleted", "count", len(tracked), "timeout", crDeletionTimeout)

	// Track pending resources to avoid re-checking deleted ones
	pending := make([]TrackedResource, len(tracked))
	copy(pending, tracked)

	ticker := time.NewTicker(crDeletionPollInterval)
	defer ticker.Stop()

	timeout := time.After(crDeletionTimeout)

	for {
		select {
		case <-f.ctx.Done():
			return fmt.Errorf("%w: waiting for resource deletion: %v", ErrContextCancelled, f.ctx.Err())
		case <-timeout:
			// Attempt to remove finalizers from stuck resources
			f.logger.Warn("timeout waiting for resource deletion, attempting to remove finalizers", "remaining", len(pending))
			if err := f.removeFinalizers(pending); err != nil {
				f.logger.Warn("failed to remove finalizers from some resources", "error", err)
			}
			remaining := make([]string, len(pending))
			for i, cr := range pending {
				remaining[i] = fmt.Sprintf("%s/%s", cr.GVR.Resource, cr.Name)
			}
			return NewTimeoutError(ErrCRDeletionTimeout, "resource deletion", crDeletionTimeout.String(), fmt.Sprintf("remaining: %v", remaining))
		case <-ticker.C:
			var stillPending []TrackedResource

			for _, cr := range pending {
				_, err := f.dynamicClient.Resource(cr.GVR).Namespace(cr.Namespace).Get(f.ctx, cr.Name, metav1.GetOptions{})
				if err == nil {
					stillPending = append(stillPending, cr)
					continue
				}
				if !apierrors.IsNotFound(err) {
					// Unexpected error - keep tracking this resource
					f.logger.Warn("error checking resource status", "resource", cr.GVR.Resource, "name", cr.Name, "error", err)
					stillPending = append(stillPending, cr)
					continue
				}
				f.logger.Debug("resource deleted", "resource", cr.GVR.Resource, "name", cr.Name)
			}

			if len(stillPending) == 0 {
				f.logger.Info("all resources deleted successfully")
				return nil
			}

			pending = stillPending
			f.logger.Debug("waiting for resources to be deleted", "remaining", len(pending))
		}
	}
}

// removeFinalizers removes finalizers from stuck resources to allow deletion
func (f *Framework) removeFinalizers(crs []TrackedResource) error {
	var errs []error

	for _, cr := range crs {
		obj, err := f.dynamicClient.Resource(cr.GVR).Namespace(cr.Namespace).Get(f.ctx, cr.Name, metav1.GetOptions{})
		if err != nil {
			if apierrors.IsNotFound(err) {
				continue
			}
			errs = append(errs, fmt.Errorf("failed to get %s/%s: %w", cr.GVR.Resource, cr.Name, err))
			continue
		}

		finalizers := obj.GetFinalizers()
		if len(finalizers) == 0 {
			continue
		}

		f.logger.Info("removing finalizers from stuck resource", "resource", cr.GVR.Resource, "name", cr.Name, "finalizers", finalizers)

		patch := []byte(`{"metadata":{"finalizers":null}}`)
		_, err = f.dynamicClient.Resource(cr.GVR).Namespace(cr.Namespace).Patch(
			f.ctx,
			cr.Name,
			types.MergePatchType,
			patch,
			metav1.PatchOptions{},
		)
		if err != nil && !apierrors.IsNotFound(err) {
			errs = append(errs, fmt.Errorf("%w from %s/%s: %v", ErrFinalizerRemoval, cr.GVR.Resource, cr.Name, err))
		}
	}

	return errors.Join(errs...)
}
