package framework

import (
	"errors"
	"fmt"
)

var (
	ErrNamespaceRequired  = errors.New("namespace is required")
	ErrClusterConnection  = errors.New("failed to connect to cluster")
	ErrAdminNotConfigured = errors.New("admin portal not configured")
	ErrContextCancelled   = errors.New("operation cancelled")
)

// Prerequisites. A CRD that exists but is not Established yet is reported
// apart from one that is missing.
var (
	ErrOperatorNotInstalled = errors.New("operator not installed")
	ErrCRDNotEstablished    = errors.New("CRD not established")
	ErrResourceNotFound     = errors.New("resource not found")
)

// Causes carried by a TimeoutError
var (
	ErrDeploymentTimeout        = errors.New("deployment timed out")
	ErrPodNotReady              = errors.New("pod not ready")
	ErrCRDeletionTimeout        = errors.New("CR deletion timed out")
	ErrNamespaceDeletionTimeout = errors.New("namespace deletion timed out")
)

// ErrFinalizerRemoval is returned when a stuck object keeps its finalizers
var ErrFinalizerRemoval = errors.New("failed to remove finalizers")

// ResourceError ties a failure to one object, Namespace is empty for
// cluster scoped ones
type ResourceError struct {
	Kind      string
	Namespace string
	Name      string
	Err       error
}

func NewResourceError(kind, namespace, name string, err error) *ResourceError {
	return &ResourceError{Kind: kind, Namespace: namespace, Name: name, Err: err}
}

func (e *ResourceError) Error() string {
	name := e.Name
	if e.Namespace != "" {
		name = e.Namespace + "/" + e.Name
	}
	return fmt.Sprintf("%s %s: %v", e.Kind, name, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }

// PrerequisiteError is an unmet cluster requirement, Component names it the
// way PrerequisitesResult.String does
type PrerequisiteError struct {
	Component string
	Err       error
}

func NewPrerequisiteError(component string, err error) *PrerequisiteError {
	return &PrerequisiteError{Component: component, Err: err}
}

func (e *PrerequisiteError) Error() string {
	return fmt.Sprintf("prerequisite check failed for %s: %v", e.Component, e.Err)
}

func (e *PrerequisiteError) Unwrap() error { return e.Err }

// CleanupError collects the failures of one Cleanup phase
type CleanupError struct {
	Phase string
	Errs  []error
}

func NewCleanupError(phase string, errs ...error) *CleanupError {
	return &CleanupError{Phase: phase, Errs: errs}
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("cleanup failed during %s phase: %v", e.Phase, errors.Join(e.Errs...))
}

func (e *CleanupError) Unwrap() []error { return e.Errs }

// TimeoutError is a wait that ran out of time. Err is the sentinel naming
// what was waited for, e.g. ErrDeploymentTimeout or ErrPodNotReady.
type TimeoutError struct {
	Operation string
	Duration  string
	Details   string
	Err       error
}

func NewTimeoutError(cause error, operation, duration, details string) *TimeoutError {
	return &TimeoutError{Operation: operation, Duration: duration, Details: details, Err: cause}
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("timeout after %s waiting for %s", e.Duration, e.Operation)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	return msg
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// IsNotFound reports a missing object or API
func IsNotFound(err error) bool {
	return errors.Is(err, ErrResourceNotFound)
}

// IsTimeout reports a TimeoutError or one of its causes anywhere in the chain
func IsTimeout(err error) bool {
	var te *TimeoutError
	if errors.As(err, &te) {
		return true
	}
	for _, cause := range []error{ErrDeploymentTimeout, ErrCRDeletionTimeout, ErrNamespaceDeletionTimeout} {
		if errors.Is(err, cause) {
			return true
		}
	}
	return false
}

// IsCancelled reports a wait stopped by the framework context
func IsCancelled(err error) bool {
	return errors.Is(err, ErrContextCancelled)
}
