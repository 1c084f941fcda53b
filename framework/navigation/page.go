package navigation

import (
	"fmt"
	"sort"
	"strings"
)

// Kind identifies a page type. It is used both as a registry key and as the
// destination marker of steps.
type Kind string

// LinkFollow is the destination marker of generic link steps.
const LinkFollow Kind = "@href"

// Params are named values supplied by the caller of Navigate or Open. They are
// used to build pages, fill endpoint templates and feed step arguments.
type Params map[string]any

// Page is one reachable UI state.
type Page interface {
	// Kind returns the identity of the page type.
	Kind() Kind

	// Prerequisite returns the kind this page is reached from, or an empty
	// Kind if the page has no predecessor.
	Prerequisite() Kind

	// IsDisplayed reports whether the browser currently shows this page.
	IsDisplayed() bool

	// EndpointPath returns the URL template of the page, e.g.
	// "/buyers/accounts/{account_id}".
	EndpointPath() string

	// Steps returns the outgoing transitions in declaration order.
	Steps() []Step
}

// Action performs a kind-matched transition. args holds only the parameters
// the step accepts.
type Action func(args Params) error

// Step is a single transition declared by a page.
type Step struct {
	// Name is used in diagnostics only.
	Name string

	// Dest is the destination kind, or LinkFollow.
	Dest Kind

	// Accepts lists the parameter names passed to the action.
	Accepts []string

	// Defaults supplies values for accepted parameters the caller omitted.
	Defaults Params

	run    Action
	follow func(href string) error
}

// To declares a step that leads to dest. accepts names the caller parameters
// forwarded to fn.
func To(dest Kind, name string, fn Action, accepts ...string) Step {
	return Step{
		Name:    name,
		Dest:    dest,
		Accepts: accepts,
		run:     fn,
	}
}

// Link declares a generic link step. fn receives the endpoint path of the
// destination page.
func Link(name string, fn func(href string) error) Step {
	return Step{
		Name:   name,
		Dest:   LinkFollow,
		follow: fn,
	}
}

// WithDefaults returns a copy of the step using defaults for omitted parameters.
func (s Step) WithDefaults(defaults Params) Step {
	merged := make(Params, len(s.Defaults)+len(defaults))
	for k, v := range s.Defaults {
		merged[k] = v
	}
	for k, v := range defaults {
		merged[k] = v
	}
	s.Defaults = merged
	return s
}

// IsLink reports whether the step is a generic link step.
func (s Step) IsLink() bool {
	return s.Dest == LinkFollow
}

func (s Step) String() string {
	if len(s.Accepts) == 0 {
		return fmt.Sprintf("%s->%s", s.Name, s.Dest)
	}
	return fmt.Sprintf("%s(%s)->%s", s.Name, strings.Join(s.Accepts, ", "), s.Dest)
}

// bind narrows params to the accepted names and fills in defaults.
func (s Step) bind(params Params) (Params, error) {
	args := make(Params, len(s.Accepts))
	var missing []string
	for _, name := range s.Accepts {
		if v, ok := params[name]; ok {
			args[name] = v
			continue
		}
		if v, ok := s.Defaults[name]; ok {
			args[name] = v
			continue
		}
		missing = append(missing, name)
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: %s", ErrMissingParam, strings.Join(missing, ", "))
	}
	return args, nil
}

func (s Step) invoke(args Params) error {
	if s.run == nil {
		return fmt.Errorf("step %s has no action", s.Name)
	}
	return s.run(args)
}

func (s Step) invokeLink(href string) error {
	if s.follow == nil {
		return fmt.Errorf("step %s has no link action", s.Name)
	}
	return s.follow(href)
}
