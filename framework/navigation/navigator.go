package navigation

import (
	"fmt"
	"log/slog"
)

// Locator is the browser primitive the navigator needs for Open.
type Locator interface {
	SetPath(path string) error
}

// Option configures a Navigator.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for hop diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Navigator finds and replays paths through the page graph for one browser
// session.
type Navigator[B Locator] struct {
	browser  B
	registry *Registry[B]
	logger   *slog.Logger
}

// New creates a Navigator driving b through the pages of reg.
func New[B Locator](b B, reg *Registry[B], opts ...Option) *Navigator[B] {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return &Navigator[B]{
		browser:  b,
		registry: reg,
		logger:   o.logger,
	}
}

// Browser returns the session the navigator drives.
func (n *Navigator[B]) Browser() B {
	return n.browser
}

// Registry returns the page registry.
func (n *Navigator[B]) Registry() *Registry[B] {
	return n.registry
}

// Navigate moves the browser to a page of kind target and returns a fresh
// instance of it. params are used to build every page on the path and are
// passed to the steps that accept them.
func (n *Navigator[B]) Navigate(target Kind, params Params) (Page, error) {
	path, err := n.backtrace(target, params)
	if err != nil {
		return nil, err
	}

	// path[0] is the target, the last element is where traversal starts
	for len(path) > 1 {
		current := path[len(path)-1]
		path = path[:len(path)-1]
		if err := n.hop(current, path[len(path)-1], params); err != nil {
			return nil, err
		}
	}

	return n.registry.Build(n.browser, target, params)
}

// Open points the browser directly at the endpoint of kind without walking
// the graph.
func (n *Navigator[B]) Open(kind Kind, params Params) (Page, error) {
	page, err := n.registry.Build(n.browser, kind, params)
	if err != nil {
		return nil, err
	}
	path, err := FormatPath(page.EndpointPath(), params)
	if err != nil {
		return nil, err
	}
	n.logger.Debug("opening page", "kind", kind, "path", path)
	if err := n.browser.SetPath(path); err != nil {
		return nil, err
	}
	return page, nil
}

func (n *Navigator[B]) backtrace(target Kind, params Params) ([]Page, error) {
	var path []Page
	seen := make(map[Kind]bool)
	kind := target
	for {
		if seen[kind] {
			return nil, fmt.Errorf("%w: %s revisited while resolving %s", ErrPrerequisiteCycle, kind, target)
		}
		seen[kind] = true

		page, err := n.registry.Build(n.browser, kind, params)
		if err != nil {
			return nil, err
		}
		path = append(path, page)

		if n.registry.IsRoot(kind) || page.IsDisplayed() {
			return path, nil
		}
		next := page.Prerequisite()
		if next == "" {
			return nil, fmt.Errorf("%w: %s is not displayed and has no prerequisite", ErrUnreachable, kind)
		}
		kind = next
	}
}

func (n *Navigator[B]) hop(current, dest Page, params Params) error {
	var link *Step
	steps := current.Steps()
	for i := range steps {
		s := steps[i]
		if s.Dest == dest.Kind() {
			n.logger.Debug("navigation step", "from", current.Kind(), "to", dest.Kind(), "step", s.Name)
			args, err := s.bind(params)
			if err == nil {
				err = s.invoke(args)
			}
			return n.wrap(current, dest, s, err)
		}
		if link == nil && s.IsLink() {
			link = &steps[i]
		}
	}

	if link != nil {
		n.logger.Debug("navigation link", "from", current.Kind(), "to", dest.Kind(), "step", link.Name)
		href, err := FormatPath(dest.EndpointPath(), params)
		if err == nil {
			err = link.invokeLink(href)
		}
		return n.wrap(current, dest, *link, err)
	}

	candidates := make([]string, 0, len(steps))
	for _, s := range steps {
		candidates = append(candidates, s.String())
	}
	return &StepNotFoundError{
		Current:     current.Kind(),
		Destination: dest.Kind(),
		Candidates:  candidates,
	}
}

func (n *Navigator[B]) wrap(current, dest Page, s Step, err error) error {
	if err == nil {
		return nil
	}
	n.logger.Debug("navigation step failed", "from", current.Kind(), "to", dest.Kind(), "step", s.Name, "error", err)
	return &StepExecutionError{
		Current:     current.Kind(),
		Destination: dest.Kind(),
		Step:        s.Name,
		Err:         err,
	}
}
