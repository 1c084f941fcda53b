package framework

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/3scale-qe/testsuite/test/framework/concurrent"
	"github.com/3scale-qe/testsuite/test/framework/gvr"

	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	apiextensionsclient "k8s.io/apiextensions-apiserver/pkg/client/clientset/clientset"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/discovery"
)

// PrerequisiteStatus represents the status of a single prerequisite
type PrerequisiteStatus struct {
	Name      string
	Installed bool
	Message   string

	// Err explains why the prerequisite is not met, nil when installed
	Err error
}

// PrerequisitesResult contains the results of all prerequisite checks
type PrerequisitesResult struct {
	ThreescaleOperator PrerequisiteStatus
	OpenShiftAPIs      PrerequisiteStatus
	AllMet             bool
}

// Required CRDs and APIs
var (
	threescaleCRDs = []string{
		gvr.APIManagerCRD,
		gvr.APIcastCRD,
	}

	openShiftAPIs = []schema.GroupVersionResource{
		gvr.DeploymentConfig,
		gvr.Route,
		gvr.Template,
	}
)

// CheckPrerequisites verifies that the 3scale operator and the OpenShift APIs
// template gateways rely on are available
func (f *Framework) CheckPrerequisites() (*PrerequisitesResult, error) {
	if f.apiextClient == nil {
		return nil, NewPrerequisiteError("3scale operator", fmt.Errorf("no apiextensions client"))
	}

	c := concurrent.NewCollector[PrerequisiteStatus]()
	c.Go(func() (PrerequisiteStatus, error) {
		return checkCRDs(f.ctx, f.apiextClient, "3scale operator", threescaleCRDs), nil
	})
	c.Go(func() (PrerequisiteStatus, error) {
		return checkAPIs(f.client.Discovery(), "OpenShift APIs", openShiftAPIs), nil
	})
	statuses, err := c.Wait()
	if err != nil {
		return nil, err
	}

	result := &PrerequisitesResult{AllMet: true}
	for _, s := range statuses {
		switch s.Name {
		case "3scale operator":
			result.ThreescaleOperator = s
		case "OpenShift APIs":
			result.OpenShiftAPIs = s
		}
		if !s.Installed {
			result.AllMet = false
		}
	}
	return result, nil
}

// checkCRDs verifies that all required CRDs for an operator are installed
func checkCRDs(ctx context.Context, client apiextensionsclient.Interface, operatorName string, crds []string) PrerequisiteStatus {
	status := PrerequisiteStatus{
		Name:      operatorName,
		Installed: true,
	}

	var missing []string
	var found []string
	var errs []error

	for _, crdName := range crds {
		crd, err := client.ApiextensionsV1().CustomResourceDefinitions().Get(ctx, crdName, metav1.GetOptions{})
		if err != nil {
			missing = append(missing, crdName)
			errs = append(errs, fmt.Errorf("%w: %s: %v", ErrOperatorNotInstalled, crdName, err))
			status.Installed = false
			continue
		}

		if !isCRDEstablished(crd) {
			missing = append(missing, crdName+" (not established)")
			errs = append(errs, fmt.Errorf("%w: %s", ErrCRDNotEstablished, crdName))
			status.Installed = false
			continue
		}

		found = append(found, crdName)
	}

	if status.Installed {
		status.Message = fmt.Sprintf("All CRDs found: %v", found)
	} else {
		status.Message = fmt.Sprintf("Missing CRDs: %v", missing)
		status.Err = errors.Join(errs...)
	}

	return status
}

// checkAPIs verifies that the server serves every resource
func checkAPIs(client discovery.DiscoveryInterface, name string, resources []schema.GroupVersionResource) PrerequisiteStatus {
	status := PrerequisiteStatus{
		Name:      name,
		Installed: true,
	}

	var missing []string
	for _, r := range resources {
		list, err := client.ServerResourcesForGroupVersion(r.GroupVersion().String())
		if err != nil || !servesResource(list, r.Resource) {
			missing = append(missing, r.Resource+"."+r.Group)
			status.Installed = false
		}
	}

	if status.Installed {
		status.Message = "All APIs served"
	} else {
		status.Message = fmt.Sprintf("Missing APIs: [%s]", strings.Join(missing, " "))
		status.Err = fmt.Errorf("%w: %s", ErrResourceNotFound, strings.Join(missing, ", "))
	}
	return status
}

func servesResource(list *metav1.APIResourceList, resource string) bool {
	if list == nil {
		return false
	}
	for _, r := range list.APIResources {
		if r.Name == resource {
			return true
		}
	}
	return false
}

// isCRDEstablished checks if the CRD has the Established condition set to True
func isCRDEstablished(crd *apiextensionsv1.CustomResourceDefinition) bool {
	for _, cond := range crd.Status.Conditions {
		if cond.Type == apiextensionsv1.Established && cond.Status == apiextensionsv1.ConditionTrue {
			return true
		}
	}
	return false
}

// Err returns a PrerequisiteError per unmet prerequisite, or nil
func (r *PrerequisitesResult) Err() error {
	var errs []error
	for _, s := range []PrerequisiteStatus{r.ThreescaleOperator, r.OpenShiftAPIs} {
		if !s.Installed {
			errs = append(errs, NewPrerequisiteError(s.Name, s.Err))
		}
	}
	return errors.Join(errs...)
}

// String returns a human-readable summary of the prerequisites result
func (r *PrerequisitesResult) String() string {
	mark := func(s PrerequisiteStatus) string {
		if s.Installed {
			return "✓"
		}
		return "✗"
	}

	return fmt.Sprintf(
		"Prerequisites Check:\n"+
			"  %s 3scale operator: %s\n"+
			"  %s OpenShift APIs: %s\n"+
			"  All prerequisites met: %v",
		mark(r.ThreescaleOperator), r.ThreescaleOperator.Message,
		mark(r.OpenShiftAPIs), r.OpenShiftAPIs.Message,
		r.AllMet,
	)
}
