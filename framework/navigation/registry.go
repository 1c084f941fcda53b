package navigation

import (
	"fmt"
	"sort"
)

// Factory builds a page bound to a browser session.
type Factory[B any] func(b B, params Params) (Page, error)

// Registry maps kinds to page factories and holds the root set.
type Registry[B any] struct {
	factories map[Kind]Factory[B]
	roots     map[Kind]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry[B any]() *Registry[B] {
	return &Registry[B]{
		factories: make(map[Kind]Factory[B]),
		roots:     make(map[Kind]struct{}),
	}
}

// Register adds or replaces the factory for kind.
func (r *Registry[B]) Register(kind Kind, f Factory[B]) *Registry[B] {
	r.factories[kind] = f
	return r
}

// MarkRoot declares kinds at which backtracking stops unconditionally.
func (r *Registry[B]) MarkRoot(kinds ...Kind) *Registry[B] {
	for _, k := range kinds {
		r.roots[k] = struct{}{}
	}
	return r
}

// IsRoot reports whether kind is a root.
func (r *Registry[B]) IsRoot(kind Kind) bool {
	_, ok := r.roots[kind]
	return ok
}

// Has reports whether a factory is registered for kind.
func (r *Registry[B]) Has(kind Kind) bool {
	_, ok := r.factories[kind]
	return ok
}

// Kinds returns the registered kinds, sorted.
func (r *Registry[B]) Kinds() []Kind {
	kinds := make([]Kind, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Build creates a page of the given kind.
func (r *Registry[B]) Build(b B, kind Kind, params Params) (Page, error) {
	f, ok := r.factories[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	page, err := f(b, params)
	if err != nil {
		return nil, fmt.Errorf("build %s page: %w", kind, err)
	}
	return page, nil
}
