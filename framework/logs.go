package framework

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/3scale-qe/testsuite/test/framework/concurrent"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/yaml"
)

// LogComponent selects the pods of one component
type LogComponent struct {
	Name     string
	Selector string
}

// DefaultLogComponents covers template and operator managed gateways
var DefaultLogComponents = []LogComponent{
	{"apicast", "deploymentconfig"},
	{"apicast-operator", "threescale_component=apicast"},
}

// LogCollectionConfig configures log collection behavior
type LogCollectionConfig struct {
	// OutputDir is the directory to write logs to
	OutputDir string
	// Components defaults to DefaultLogComponents
	Components []LogComponent
	// IncludePrevious includes logs from previous container instances
	IncludePrevious bool
	// SinceTime only returns logs after this time
	SinceTime *time.Time
	// TailLines limits the number of lines to return (0 = all)
	TailLines int64
}

// ComponentLogs holds logs for a single container
type ComponentLogs struct {
	Component string
	Pod       string
	Container string
	Logs      string
	Error     error
}

// LogCollectionResult holds the result of collecting logs from all components
type LogCollectionResult struct {
	Namespace string
	Timestamp time.Time
	Logs      []ComponentLogs
	OutputDir string
}

type logTarget struct {
	component string
	pod       string
	container string
}

// CollectLogs collects gateway pod logs and writes one file per container
func (f *Framework) CollectLogs(config *LogCollectionConfig) (*LogCollectionResult, error) {
	if config == nil {
		config = &LogCollectionConfig{}
	}
	if config.OutputDir == "" {
		config.OutputDir = "logs"
	}
	components := config.Components
	if len(components) == 0 {
		components = DefaultLogComponents
	}

	logDir := filepath.Join(config.OutputDir, f.namespace)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	f.logger.Info("collecting logs", "namespace", f.namespace)

	var targets []logTarget
	seen := make(map[string]bool)
	for _, comp := range components {
		pods, err := f.client.CoreV1().Pods(f.namespace).List(f.ctx, metav1.ListOptions{
			LabelSelector: comp.Selector,
		})
		if err != nil {
			f.logger.Warn("failed to list pods", "component", comp.Name, "error", err)
			continue
		}
		for _, pod := range pods.Items {
			// Skip pods that never ran
			if pod.Status.Phase != corev1.PodRunning &&
				pod.Status.Phase != corev1.PodSucceeded &&
				pod.Status.Phase != corev1.PodFailed {
				continue
			}
			if seen[pod.Name] {
				continue
			}
			seen[pod.Name] = true
			for _, container := range pod.Spec.Containers {
				targets = append(targets, logTarget{comp.Name, pod.Name, container.Name})
			}
		}
	}

	logs, _ := concurrent.MapWithLimit(f.ctx, targets, f.limit(), func(ctx context.Context, t logTarget) (ComponentLogs, error) {
		text, err := f.getPodContainerLogs(ctx, t.pod, t.container, config)
		return ComponentLogs{
			Component: t.component,
			Pod:       t.pod,
			Container: t.container,
			Logs:      text,
			Error:     err,
		}, nil
	})

	result := &LogCollectionResult{
		Namespace: f.namespace,
		Timestamp: time.Now(),
		OutputDir: config.OutputDir,
		Logs:      logs,
	}

	collected := 0
	for _, log := range result.Logs {
		if log.Error != nil || log.Logs == "" {
			continue
		}

		filename := fmt.Sprintf("%s-%s-%s.log", log.Component, log.Pod, log.Container)
		filename = strings.ReplaceAll(filename, "/", "-")
		path := filepath.Join(logDir, filename)

		if err := os.WriteFile(path, []byte(log.Logs), 0644); err != nil {
			f.logger.Warn("failed to write logs", "file", filename, "error", err)
			continue
		}
		collected++
		f.logger.Debug("wrote logs", "file", filename, "bytes", len(log.Logs))
	}

	f.logger.Info("collected logs", "files", collected, "dir", logDir)
	return result, nil
}

// getPodContainerLogs retrieves logs from a specific container
func (f *Framework) getPodContainerLogs(ctx context.Context, podName, containerName string, config *LogCollectionConfig) (string, error) {
	opts := &corev1.PodLogOptions{
		Container: containerName,
		Previous:  config.IncludePrevious,
	}

	if config.SinceTime != nil {
		t := metav1.NewTime(*config.SinceTime)
		opts.SinceTime = &t
	}

	if config.TailLines > 0 {
		opts.TailLines = &config.TailLines
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	stream, err := f.client.CoreV1().Pods(f.namespace).GetLogs(podName, opts).Stream(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to stream logs: %w", err)
	}
	defer stream.Close()

	data, err := io.ReadAll(stream)
	if err != nil {
		return string(data), fmt.Errorf("failed to read logs: %w", err)
	}
	return string(data), nil
}

// DumpResource fetches a namespaced resource and writes it as YAML to
// <outputDir>/<namespace>/<resource>-<name>.yaml, returning the file path
func (f *Framework) DumpResource(resource schema.GroupVersionResource, name, outputDir string) (string, error) {
	if outputDir == "" {
		outputDir = "."
	}

	dir := filepath.Join(outputDir, f.namespace)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	obj, err := f.dynamicClient.Resource(resource).Namespace(f.namespace).Get(f.ctx, name, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			err = fmt.Errorf("%w: %v", ErrResourceNotFound, err)
		}
		return "", NewResourceError(resource.Resource, f.namespace, name, err)
	}

	// Managed fields only clutter the output
	obj.SetManagedFields(nil)

	data, err := yaml.Marshal(obj.UnstructuredContent())
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s/%s to YAML: %w", resource.Resource, name, err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s-%s.yaml", resource.Resource, name))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	f.logger.Debug("dumped resource", "resource", resource.Resource, "name", name, "file", path, "bytes", len(data))
	return path, nil
}
