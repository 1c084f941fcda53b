// Package widgets contains the admin portal UI elements views are composed of.
// A widget owns its locator; views only decide when to use it.
package widgets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/3scale-qe/testsuite/test/framework/browser"
)

// ErrItemNotFound indicates that a menu or table item does not exist
var ErrItemNotFound = errors.New("item not found")

// TextInput is a single line form field.
type TextInput struct {
	b        browser.Browser
	Selector string
}

// NewTextInput creates a text input for the element with the given id.
func NewTextInput(b browser.Browser, id string) *TextInput {
	return &TextInput{b: b, Selector: "#" + id}
}

func (w *TextInput) Fill(value string) error {
	return w.b.Fill(w.Selector, value)
}

func (w *TextInput) Value() (string, error) {
	return w.b.Attribute(w.Selector, "value")
}

func (w *TextInput) IsDisplayed() bool {
	return w.b.IsVisible(w.Selector)
}

// Button is any clickable element.
type Button struct {
	b        browser.Browser
	Selector string
}

func NewButton(b browser.Browser, selector string) *Button {
	return &Button{b: b, Selector: selector}
}

// NewSubmitButton matches the submit control labelled text, which 3scale
// renders either as <button> or <input type="submit">.
func NewSubmitButton(b browser.Browser, text string) *Button {
	return &Button{b: b, Selector: fmt.Sprintf(
		"//*[@type='submit'][@value=%[1]s or normalize-space(.)=%[1]s]", xpathLiteral(text))}
}

// NewUpdateButton is the submit button of 3scale edit forms.
func NewUpdateButton(b browser.Browser) *Button {
	return &Button{b: b, Selector: "//*[@type='submit'][starts-with(@value, 'Update') or starts-with(normalize-space(.), 'Update')]"}
}

func (w *Button) Click() error {
	return w.b.Click(w.Selector)
}

func (w *Button) IsDisplayed() bool {
	return w.b.IsVisible(w.Selector)
}

// Table is a PatternFly table. Rows are addressed by their id attribute.
type Table struct {
	b        browser.Browser
	Selector string
}

func NewTable(b browser.Browser, selector string) *Table {
	return &Table{b: b, Selector: selector}
}

func (w *Table) IsDisplayed() bool {
	return w.b.IsVisible(w.Selector)
}

// Row returns the row whose id attribute equals id.
func (w *Table) Row(id string) *Row {
	return &Row{b: w.b, Selector: fmt.Sprintf("%s//tbody/tr[@id=%s]", w.Selector, xpathLiteral(id))}
}

// Row is a single table row.
type Row struct {
	b        browser.Browser
	Selector string
}

func (r *Row) IsDisplayed() bool {
	return r.b.IsVisible(r.Selector)
}

// Cell returns the cell at the zero based column index.
func (r *Row) Cell(column int) *Cell {
	return &Cell{b: r.b, Selector: fmt.Sprintf("%s/td[%d]", r.Selector, column+1)}
}

// Cell is a single table cell.
type Cell struct {
	b        browser.Browser
	Selector string
}

func (c *Cell) Click() error {
	return c.b.Click(c.Selector)
}

// ClickLink clicks the first link inside the cell.
func (c *Cell) ClickLink() error {
	return c.b.Click(c.Selector + "//a")
}

func (c *Cell) Text() (string, error) {
	return c.b.Text(c.Selector)
}

// ContextMenu is the top level section switcher (Dashboard, Audience,
// Products, ...).
type ContextMenu struct {
	b        browser.Browser
	Selector string
}

func NewContextMenu(b browser.Browser) *ContextMenu {
	return &ContextMenu{b: b, Selector: "//div[contains(@class, 'pf-c-context-selector')]"}
}

func (w *ContextMenu) toggle() string {
	return w.Selector + "//a[@title='Context Selector']"
}

func (w *ContextMenu) IsDisplayed() bool {
	return w.b.IsVisible(w.toggle())
}

// Selected returns the name of the active section.
func (w *ContextMenu) Selected() (string, error) {
	return w.b.Text(w.toggle())
}

// Select opens the menu and picks the section named item.
func (w *ContextMenu) Select(item string) error {
	if err := w.b.Click(w.toggle()); err != nil {
		return err
	}
	entry := fmt.Sprintf("%s//li//*[normalize-space(.)=%s]", w.Selector, xpathLiteral(item))
	if err := w.b.WaitVisible(entry); err != nil {
		return fmt.Errorf("%w: %s", ErrItemNotFound, item)
	}
	return w.b.Click(entry)
}

// NavigationMenu is the vertical menu of Audience, Product, Backend and
// Settings sections. Items are selected by href; collapsed parents are
// expanded first.
type NavigationMenu struct {
	b        browser.Browser
	Selector string
}

func NewNavigationMenu(b browser.Browser) *NavigationMenu {
	return &NavigationMenu{b: b, Selector: "//nav[contains(@class, 'pf-c-nav')]"}
}

func (w *NavigationMenu) IsDisplayed() bool {
	return w.b.IsVisible(w.Selector)
}

// SelectHref clicks the item linking to href.
func (w *NavigationMenu) SelectHref(href string) error {
	href = strings.TrimSpace(href)
	lit := xpathLiteral(href)

	top := fmt.Sprintf("%s/ul/li/a[%s] | %s/section/ul/li/a[%s]", w.Selector, endsWith("@href", href), w.Selector, endsWith("@href", href))
	if w.b.IsVisible(top) {
		return w.b.Click(top)
	}

	sub := fmt.Sprintf("%s//li[contains(@class, 'pf-c-nav__item')]/section/ul/li/a[contains(@href, %s)]", w.Selector, lit)
	if !w.b.IsVisible(sub) {
		parent := fmt.Sprintf("%s//li[contains(@class, 'pf-c-nav__item')][.//a[contains(@href, %s)]]/button", w.Selector, lit)
		if !w.b.IsVisible(parent) {
			return fmt.Errorf("%w: navigation item %s", ErrItemNotFound, href)
		}
		if err := w.b.Click(parent); err != nil {
			return err
		}
		if err := w.b.WaitVisible(sub); err != nil {
			return err
		}
	}
	return w.b.Click(sub)
}

// endsWith is the XPath 1.0 spelling of ends-with(attr, suffix).
func endsWith(attr, suffix string) string {
	return fmt.Sprintf("substring(%s, string-length(%s) - %d) = %s", attr, attr, len(suffix)-1, xpathLiteral(suffix))
}

func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	return "concat('" + strings.Join(parts, `', "'", '`) + "')"
}
