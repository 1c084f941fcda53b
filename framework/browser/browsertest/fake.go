// Package browsertest provides an in-memory Browser for page and widget tests.
package browsertest

import (
	"errors"
	"fmt"

	"github.com/3scale-qe/testsuite/test/framework/browser"
)

// ErrNoElement is returned when a selector matches nothing.
var ErrNoElement = errors.New("no element matches selector")

// Element is a fake DOM node addressed by its selector.
type Element struct {
	Visible bool
	Text    string
	Attrs   map[string]string

	// OnClick runs after the click has been recorded.
	OnClick func(f *Fake) error
}

// Fake records every interaction. Elements are looked up by exact selector.
type Fake struct {
	BaseURL  string
	Elements map[string]*Element

	// Pages maps a path to the elements shown once it is loaded. Loading a
	// path without an entry keeps the current elements.
	Pages map[string]map[string]*Element

	Visits []string
	Clicks []string
	Fills  map[string]string

	// SetPathErr is returned by SetPath when set.
	SetPathErr error

	path string
}

var _ browser.Browser = (*Fake)(nil)

// New returns an empty fake with base URL https://admin.test.
func New() *Fake {
	return &Fake{
		BaseURL:  "https://admin.test",
		Elements: make(map[string]*Element),
		Pages:    make(map[string]map[string]*Element),
		Fills:    make(map[string]string),
		path:     "/",
	}
}

// Show adds a visible element.
func (f *Fake) Show(selector string, el *Element) *Fake {
	if el == nil {
		el = &Element{}
	}
	el.Visible = true
	f.Elements[selector] = el
	return f
}

// Goto changes the current path without recording a visit, as a click
// triggered navigation would.
func (f *Fake) Goto(path string) {
	f.path = path
	if els, ok := f.Pages[path]; ok {
		f.Elements = els
	}
}

func (f *Fake) SetPath(path string) error {
	if f.SetPathErr != nil {
		return f.SetPathErr
	}
	f.Visits = append(f.Visits, path)
	f.Goto(path)
	return nil
}

func (f *Fake) URL() string {
	return browser.ResolveURL(f.BaseURL, f.path)
}

func (f *Fake) Path() string {
	return f.path
}

func (f *Fake) Click(selector string) error {
	el, err := f.lookup(selector)
	if err != nil {
		return err
	}
	f.Clicks = append(f.Clicks, selector)
	if el.OnClick != nil {
		return el.OnClick(f)
	}
	return nil
}

func (f *Fake) Fill(selector, value string) error {
	if _, err := f.lookup(selector); err != nil {
		return err
	}
	f.Fills[selector] = value
	return nil
}

func (f *Fake) IsVisible(selector string) bool {
	el, ok := f.Elements[selector]
	return ok && el.Visible
}

func (f *Fake) Text(selector string) (string, error) {
	el, err := f.lookup(selector)
	if err != nil {
		return "", err
	}
	return el.Text, nil
}

func (f *Fake) Attribute(selector, name string) (string, error) {
	el, err := f.lookup(selector)
	if err != nil {
		return "", err
	}
	return el.Attrs[name], nil
}

func (f *Fake) WaitVisible(selector string) error {
	if !f.IsVisible(selector) {
		return fmt.Errorf("wait for %s: %w", selector, ErrNoElement)
	}
	return nil
}

func (f *Fake) lookup(selector string) (*Element, error) {
	el, ok := f.Elements[selector]
	if !ok || !el.Visible {
		return nil, fmt.Errorf("%w: %s", ErrNoElement, selector)
	}
	return el, nil
}
