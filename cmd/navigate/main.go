package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/3scale-qe/testsuite/test/framework/browser"
	"github.com/3scale-qe/testsuite/test/framework/config"
	"github.com/3scale-qe/testsuite/test/framework/navigation"
	"github.com/3scale-qe/testsuite/test/framework/ui/views"
)

// paramsFlag collects repeated -param key=value pairs
type paramsFlag navigation.Params

func (p paramsFlag) String() string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, p[k])
	}
	return strings.Join(parts, ",")
}

func (p paramsFlag) Set(value string) error {
	k, v, ok := strings.Cut(value, "=")
	if !ok || k == "" {
		return fmt.Errorf("expected key=value, got %q", value)
	}
	p[k] = v
	return nil
}

func main() {
	params := paramsFlag{}
	var (
		kind       = flag.String("kind", string(views.KindDashboard), "Destination page kind")
		open       = flag.Bool("open", false, "Load the page endpoint directly instead of walking the prerequisite path")
		settings   = flag.String("settings", "", "YAML settings file (defaults to $"+config.EnvSettings+")")
		screenshot = flag.String("screenshot", "", "Save a screenshot of the destination page to this file")
		list       = flag.Bool("list", false, "List the known page kinds and exit")
		verbose    = flag.Bool("v", false, "Enable debug logging")
	)
	flag.Var(params, "param", "Navigation parameter key=value (repeatable), e.g. -param account_id=3")
	flag.Parse()

	if *list {
		for _, k := range views.NewRegistry().Kinds() {
			fmt.Println(k)
		}
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(*settings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading settings: %v\n", err)
		os.Exit(1)
	}
	if cfg.AdminURL == "" {
		fmt.Fprintln(os.Stderr, "Error: admin portal URL is required ("+config.EnvAdminURL+")")
		os.Exit(1)
	}

	if err := run(cfg, logger, navigation.Kind(*kind), navigation.Params(params), *open, *screenshot); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, kind navigation.Kind, params navigation.Params, open bool, screenshot string) error {
	session, err := browser.Launch(browser.Options{
		BaseURL:     cfg.AdminURL,
		Engine:      cfg.BrowserEngine,
		Headless:    cfg.Headless,
		Timeout:     cfg.BrowserTimeout,
		InsecureTLS: !cfg.VerifyTLS,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn("failed to close browser", "error", err)
		}
	}()

	nav := views.NewNavigator(session,
		views.WithCredentials(cfg.AdminUsername, cfg.AdminPassword),
		views.WithLogger(logger),
	)

	var page navigation.Page
	if open {
		page, err = nav.Open(kind, params)
	} else {
		page, err = nav.Navigate(kind, params)
	}
	if err != nil {
		if navigation.IsStepNotFound(err) {
			return fmt.Errorf("no way to reach %s: %w", kind, err)
		}
		return err
	}

	fmt.Printf("%s displayed=%v url=%s\n", page.Kind(), page.IsDisplayed(), session.URL())
	if screenshot != "" {
		if err := session.Screenshot(screenshot); err != nil {
			return err
		}
		fmt.Printf("screenshot saved to %s\n", screenshot)
	}
	return nil
}
