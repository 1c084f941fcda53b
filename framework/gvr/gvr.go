package gvr

import (
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// 3scale operator custom resources
var (
	// APIManager is the GVR for APIManager custom resources
	APIManager = schema.GroupVersionResource{
		Group:    "apps.3scale.net",
		Version:  "v1alpha1",
		Resource: "apimanagers",
	}

	// APIcast is the GVR for operator-managed APIcast custom resources
	APIcast = schema.GroupVersionResource{
		Group:    "apps.3scale.net",
		Version:  "v1alpha1",
		Resource: "apicasts",
	}
)

// Core resources
var (
	// Namespace is the GVR for Namespace resources
	Namespace = schema.GroupVersionResource{
		Group:    "",
		Version:  "v1",
		Resource: "namespaces",
	}

	// Secret is the GVR for Secret resources
	Secret = schema.GroupVersionResource{
		Group:    "",
		Version:  "v1",
		Resource: "secrets",
	}

	// ConfigMap is the GVR for ConfigMap resources
	ConfigMap = schema.GroupVersionResource{
		Group:    "",
		Version:  "v1",
		Resource: "configmaps",
	}

	// Pod is the GVR for Pod resources
	Pod = schema.GroupVersionResource{
		Group:    "",
		Version:  "v1",
		Resource: "pods",
	}

	// Service is the GVR for Service resources
	Service = schema.GroupVersionResource{
		Group:    "",
		Version:  "v1",
		Resource: "services",
	}

	// ServiceAccount is the GVR for ServiceAccount resources
	ServiceAccount = schema.GroupVersionResource{
		Group:    "",
		Version:  "v1",
		Resource: "serviceaccounts",
	}
)

// Apps resources
var (
	// Deployment is the GVR for Deployment resources
	Deployment = schema.GroupVersionResource{
		Group:    "apps",
		Version:  "v1",
		Resource: "deployments",
	}
)

// OpenShift resources
var (
	// Route is the GVR for OpenShift Route resources
	Route = schema.GroupVersionResource{
		Group:    "route.openshift.io",
		Version:  "v1",
		Resource: "routes",
	}

	// DeploymentConfig is the GVR for OpenShift DeploymentConfig resources
	DeploymentConfig = schema.GroupVersionResource{
		Group:    "apps.openshift.io",
		Version:  "v1",
		Resource: "deploymentconfigs",
	}

	// Template is the GVR for OpenShift Template resources
	Template = schema.GroupVersionResource{
		Group:    "template.openshift.io",
		Version:  "v1",
		Resource: "templates",
	}

	// ImageStream is the GVR for OpenShift ImageStream resources
	ImageStream = schema.GroupVersionResource{
		Group:    "image.openshift.io",
		Version:  "v1",
		Resource: "imagestreams",
	}
)

// API Extensions
var (
	// CustomResourceDefinition is the GVR for CRD resources
	CustomResourceDefinition = schema.GroupVersionResource{
		Group:    "apiextensions.k8s.io",
		Version:  "v1",
		Resource: "customresourcedefinitions",
	}
)

// CRD names for prerequisite checks
const (
	// APIManagerCRD is the full name of the APIManager CRD
	APIManagerCRD = "apimanagers.apps.3scale.net"

	// APIcastCRD is the full name of the APIcast CRD
	APIcastCRD = "apicasts.apps.3scale.net"
)

// kinds maps the object kinds found in OpenShift templates to their resources
var kinds = map[string]schema.GroupVersionResource{
	"Secret":           Secret,
	"ConfigMap":        ConfigMap,
	"Service":          Service,
	"ServiceAccount":   ServiceAccount,
	"Deployment":       Deployment,
	"Route":            Route,
	"DeploymentConfig": DeploymentConfig,
	"ImageStream":      ImageStream,
}

// ForKind returns the GVR of a namespaced kind, or false if the kind is unknown
func ForKind(kind string) (schema.GroupVersionResource, bool) {
	r, ok := kinds[kind]
	return r, ok
}

// AllManagedCRs returns all custom resource GVRs managed by the framework
func AllManagedCRs() []schema.GroupVersionResource {
	return []schema.GroupVersionResource{
		APIcast,
	}
}

// TemplateResources returns the resources a template APIcast consists of, in
// deletion order
func TemplateResources() []schema.GroupVersionResource {
	return []schema.GroupVersionResource{
		Route,
		Service,
		DeploymentConfig,
		Secret,
	}
}
