package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/3scale-qe/testsuite/test/framework"
	"github.com/3scale-qe/testsuite/test/framework/config"
	"github.com/3scale-qe/testsuite/test/framework/gvr"
)

// Actions supported by -action
const (
	actionCreate  = "create"
	actionDestroy = "destroy"
	actionReload  = "reload"
)

func main() {
	var (
		namespace   = flag.String("namespace", "", "OpenShift project to deploy to (defaults to the configured namespace)")
		name        = flag.String("name", "apicast", "Name of the template gateway")
		staging     = flag.Bool("staging", true, "Deploy a staging gateway (lazy configuration loading)")
		action      = flag.String("action", actionCreate, "Action: create, destroy, reload")
		settings    = flag.String("settings", "", "YAML settings file (defaults to $"+config.EnvSettings+")")
		image       = flag.String("image", "", "APIcast image (defaults to the configured image)")
		template    = flag.String("template", "", "Template file or URL (defaults to the configured template)")
		outputDir   = flag.String("output", "", "Directory to collect gateway logs and the DeploymentConfig to after create")
		skipCleanup = flag.Bool("skip-cleanup", true, "Keep the gateway when create fails")
		verbose     = flag.Bool("v", false, "Enable debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	switch *action {
	case actionCreate, actionDestroy, actionReload:
		// Valid
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid action %q. Must be create, destroy, or reload\n", *action)
		os.Exit(1)
	}

	cfg, err := config.Load(*settings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading settings: %v\n", err)
		os.Exit(1)
	}
	if *namespace != "" {
		cfg = cfg.WithNamespace(*namespace)
	}
	if cfg.Namespace == "" {
		fmt.Fprintln(os.Stderr, "Error: namespace is required (-namespace or "+config.EnvNamespace+")")
		os.Exit(1)
	}

	// Setup context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nReceived interrupt signal, stopping...")
		cancel()
		// Second interrupt force-exits
		<-sigCh
		fmt.Println("\nForce exit requested, terminating immediately...")
		os.Exit(130) // 128 + SIGINT(2)
	}()

	req := framework.ApicastRequest{
		Name:     *name,
		Staging:  *staging,
		Image:    *image,
		Template: *template,
	}

	start := time.Now()
	if err := run(ctx, cfg, logger, *action, req, *outputDir, *skipCleanup); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s %s failed after %s: %v\n", *action, *name, time.Since(start).Round(time.Second), err)
		os.Exit(exitCode(err))
	}
	fmt.Printf("%s %s in %s finished in %s\n", *action, *name, cfg.Namespace, time.Since(start).Round(time.Second))
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, action string, req framework.ApicastRequest, outputDir string, skipCleanup bool) error {
	fw, err := framework.New(ctx, cfg.Namespace, framework.WithConfig(cfg), framework.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create framework: %w", err)
	}

	if action == actionCreate {
		fmt.Println("Checking prerequisites...")
		prereqs, err := fw.CheckPrerequisites()
		if err != nil {
			return fmt.Errorf("failed to check prerequisites: %w", err)
		}
		if !prereqs.OpenShiftAPIs.Installed {
			fmt.Print(prereqs.String())
			return framework.NewPrerequisiteError(prereqs.OpenShiftAPIs.Name, prereqs.OpenShiftAPIs.Err)
		}
		if !prereqs.ThreescaleOperator.Installed {
			logger.Warn("3scale operator CRDs not found, only template gateways are available")
		}

		fmt.Printf("Deploying template APIcast %s...\n", req.Name)
		gw, err := fw.SetupTemplateApicast(req)
		if err != nil {
			if !skipCleanup {
				if cleanupErr := fw.Cleanup(); cleanupErr != nil {
					logger.Warn("cleanup failed", "error", cleanupErr)
				}
			}
			return err
		}
		for _, route := range gw.Routes() {
			fmt.Printf("  route: %s\n", route)
		}
		if outputDir != "" {
			collect(fw, gw.Name(), outputDir, logger)
		}
		return nil
	}

	gw, err := fw.NewTemplateApicast(req)
	if err != nil {
		return err
	}
	switch action {
	case actionDestroy:
		fmt.Printf("Destroying template APIcast %s...\n", req.Name)
		return gw.Destroy()
	case actionReload:
		fmt.Printf("Reloading template APIcast %s...\n", req.Name)
		return gw.Reload()
	}
	return nil
}

func collect(fw *framework.Framework, name, outputDir string, logger *slog.Logger) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		logger.Warn("failed to create output directory", "dir", outputDir, "error", err)
		return
	}
	if path, err := fw.DumpResource(gvr.DeploymentConfig, name, outputDir); err != nil {
		logger.Warn("failed to dump DeploymentConfig", "error", err, "notFound", framework.IsNotFound(err))
	} else {
		fmt.Printf("  saved %s\n", path)
	}
	result, err := fw.CollectLogs(&framework.LogCollectionConfig{OutputDir: outputDir, TailLines: 500})
	if err != nil {
		logger.Warn("failed to collect logs", "error", err)
		return
	}
	fmt.Printf("  collected logs of %d container(s) into %s\n", len(result.Logs), result.OutputDir)
}

// exitCode maps a failure to the process exit status: 2 for unmet
// prerequisites, 3 for timeouts and 130 for an interrupted run
func exitCode(err error) int {
	var prereqErr *framework.PrerequisiteError
	switch {
	case errors.As(err, &prereqErr):
		return 2
	case framework.IsCancelled(err):
		return 130
	case framework.IsTimeout(err):
		return 3
	}
	return 1
}
