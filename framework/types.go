package framework

import (
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// Labels put on every object the framework creates
const (
	LabelManagedBy      = "3scale-testsuite.io/managed-by"
	LabelInstance       = "3scale-testsuite.io/instance"
	LabelManagedByValue = "framework"
)

// TrackedResource is an object Cleanup deletes
type TrackedResource struct {
	GVR       schema.GroupVersionResource
	Namespace string
	Name      string
}
