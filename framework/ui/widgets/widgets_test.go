package widgets

import (
	"errors"
	"reflect"
	"testing"

	"github.com/3scale-qe/testsuite/test/framework/browser/browsertest"
)

func TestTextInput(t *testing.T) {
	b := browsertest.New()
	b.Show("#user_email", &browsertest.Element{Attrs: map[string]string{"value": "old@example.com"}})
	input := NewTextInput(b, "user_email")

	if !input.IsDisplayed() {
		t.Fatal("expected input to be displayed")
	}
	if v, _ := input.Value(); v != "old@example.com" {
		t.Errorf("expected old value, got %q", v)
	}
	if err := input.Fill("new@example.com"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if b.Fills["#user_email"] != "new@example.com" {
		t.Errorf("expected fill to be recorded, got %v", b.Fills)
	}
}

func TestTextInput_Missing(t *testing.T) {
	input := NewTextInput(browsertest.New(), "user_email")

	if input.IsDisplayed() {
		t.Error("expected missing input not to be displayed")
	}
	if err := input.Fill("x"); !errors.Is(err, browsertest.ErrNoElement) {
		t.Errorf("expected ErrNoElement, got %v", err)
	}
}

func TestTableRowCell(t *testing.T) {
	b := browsertest.New()
	table := NewTable(b, "//*[@id='buyer_users']")
	cell := table.Row("user_7").Cell(5)

	expected := "//*[@id='buyer_users']//tbody/tr[@id='user_7']/td[6]"
	if cell.Selector != expected {
		t.Fatalf("expected selector %q, got %q", expected, cell.Selector)
	}

	b.Show(cell.Selector, nil)
	if err := cell.Click(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !reflect.DeepEqual(b.Clicks, []string{expected}) {
		t.Errorf("unexpected clicks %v", b.Clicks)
	}
}

func TestNavigationMenu_TopLevelItem(t *testing.T) {
	b := browsertest.New()
	menu := NewNavigationMenu(b)
	top := "//nav[contains(@class, 'pf-c-nav')]/ul/li/a[substring(@href, string-length(@href) - 15) = '/buyers/accounts'] | " +
		"//nav[contains(@class, 'pf-c-nav')]/section/ul/li/a[substring(@href, string-length(@href) - 15) = '/buyers/accounts']"
	b.Show(top, nil)

	if err := menu.SelectHref("/buyers/accounts"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !reflect.DeepEqual(b.Clicks, []string{top}) {
		t.Errorf("unexpected clicks %v", b.Clicks)
	}
}

func TestNavigationMenu_ExpandsParent(t *testing.T) {
	b := browsertest.New()
	menu := NewNavigationMenu(b)
	sub := "//nav[contains(@class, 'pf-c-nav')]//li[contains(@class, 'pf-c-nav__item')]/section/ul/li/a[contains(@href, '/buyers/users')]"
	parent := "//nav[contains(@class, 'pf-c-nav')]//li[contains(@class, 'pf-c-nav__item')][.//a[contains(@href, '/buyers/users')]]/button"
	b.Show(parent, &browsertest.Element{OnClick: func(f *browsertest.Fake) error {
		f.Show(sub, nil)
		return nil
	}})

	if err := menu.SelectHref("/buyers/users"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !reflect.DeepEqual(b.Clicks, []string{parent, sub}) {
		t.Errorf("expected parent then item click, got %v", b.Clicks)
	}
}

func TestNavigationMenu_NotFound(t *testing.T) {
	menu := NewNavigationMenu(browsertest.New())

	if err := menu.SelectHref("/nowhere"); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}
}

func TestContextMenu_Select(t *testing.T) {
	b := browsertest.New()
	menu := NewContextMenu(b)
	toggle := "//div[contains(@class, 'pf-c-context-selector')]//a[@title='Context Selector']"
	entry := "//div[contains(@class, 'pf-c-context-selector')]//li//*[normalize-space(.)='Audience']"
	b.Show(toggle, &browsertest.Element{Text: "Dashboard"})
	b.Show(entry, nil)

	if got, _ := menu.Selected(); got != "Dashboard" {
		t.Errorf("expected Dashboard, got %q", got)
	}
	if err := menu.Select("Audience"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !reflect.DeepEqual(b.Clicks, []string{toggle, entry}) {
		t.Errorf("unexpected clicks %v", b.Clicks)
	}
}

func TestXPathLiteral(t *testing.T) {
	tests := map[string]string{
		"plain":      "'plain'",
		"it's":       `"it's"`,
		`it's "odd"`: `concat('it', "'", 's "odd"')`,
	}
	for in, expected := range tests {
		if got := xpathLiteral(in); got != expected {
			t.Errorf("xpathLiteral(%q): expected %s, got %s", in, expected, got)
		}
	}
}
