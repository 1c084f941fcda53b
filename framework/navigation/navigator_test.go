package navigation

import (
	"errors"
	"reflect"
	"testing"
)

type fakeBrowser struct {
	path    string
	actions []string
	setErr  error
}

func (b *fakeBrowser) SetPath(path string) error {
	if b.setErr != nil {
		return b.setErr
	}
	b.path = path
	return nil
}

type fakePage struct {
	kind      Kind
	prereq    Kind
	endpoint  string
	displayed bool
	steps     []Step
}

func (p *fakePage) Kind() Kind           { return p.kind }
func (p *fakePage) Prerequisite() Kind   { return p.prereq }
func (p *fakePage) IsDisplayed() bool    { return p.displayed }
func (p *fakePage) EndpointPath() string { return p.endpoint }
func (p *fakePage) Steps() []Step        { return p.steps }

// pageDef describes a fake page; steps is evaluated per build so actions can
// record into the browser.
type pageDef struct {
	prereq    Kind
	endpoint  string
	displayed bool
	steps     func(b *fakeBrowser) []Step
}

func newTestRegistry(defs map[Kind]pageDef, roots ...Kind) *Registry[*fakeBrowser] {
	reg := NewRegistry[*fakeBrowser]()
	for kind, def := range defs {
		kind, def := kind, def
		reg.Register(kind, func(b *fakeBrowser, _ Params) (Page, error) {
			p := &fakePage{kind: kind, prereq: def.prereq, endpoint: def.endpoint, displayed: def.displayed}
			if def.steps != nil {
				p.steps = def.steps(b)
			}
			return p, nil
		})
	}
	reg.MarkRoot(roots...)
	return reg
}

func record(b *fakeBrowser, name string) Action {
	return func(Params) error {
		b.actions = append(b.actions, name)
		return nil
	}
}

func chainDefs() map[Kind]pageDef {
	return map[Kind]pageDef{
		"Root": {endpoint: "/", steps: func(b *fakeBrowser) []Step {
			return []Step{To("A", "to_a", record(b, "root->a"))}
		}},
		"A": {prereq: "Root", endpoint: "/a", steps: func(b *fakeBrowser) []Step {
			return []Step{To("B", "to_b", record(b, "a->b"))}
		}},
		"B": {prereq: "A", endpoint: "/b", steps: func(b *fakeBrowser) []Step {
			return []Step{To("C", "to_c", record(b, "b->c"))}
		}},
		"C": {prereq: "B", endpoint: "/c"},
	}
}

func TestNavigate_ChainFromRoot(t *testing.T) {
	b := &fakeBrowser{}
	nav := New(b, newTestRegistry(chainDefs(), "Root"))

	page, err := nav.Navigate("C", nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if page.Kind() != "C" {
		t.Errorf("expected page C, got %s", page.Kind())
	}

	expected := []string{"root->a", "a->b", "b->c"}
	if !reflect.DeepEqual(b.actions, expected) {
		t.Errorf("expected actions %v, got %v", expected, b.actions)
	}
}

func TestNavigate_DisplayedTargetRunsNothing(t *testing.T) {
	b := &fakeBrowser{}
	defs := chainDefs()
	defs["D"] = pageDef{prereq: "A", endpoint: "/d", displayed: true}
	nav := New(b, newTestRegistry(defs, "Root"))

	page, err := nav.Navigate("D", nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if page.Kind() != "D" {
		t.Errorf("expected page D, got %s", page.Kind())
	}
	if len(b.actions) != 0 {
		t.Errorf("expected no actions, got %v", b.actions)
	}
}

func TestNavigate_RootTargetRunsNothing(t *testing.T) {
	b := &fakeBrowser{}
	nav := New(b, newTestRegistry(chainDefs(), "Root"))

	if _, err := nav.Navigate("Root", nil); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(b.actions) != 0 {
		t.Errorf("expected no actions, got %v", b.actions)
	}
}

func TestNavigate_StopsAtDisplayedIntermediate(t *testing.T) {
	b := &fakeBrowser{}
	defs := chainDefs()
	a := defs["A"]
	a.displayed = true
	defs["A"] = a
	nav := New(b, newTestRegistry(defs, "Root"))

	if _, err := nav.Navigate("C", nil); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	expected := []string{"a->b", "b->c"}
	if !reflect.DeepEqual(b.actions, expected) {
		t.Errorf("expected actions %v, got %v", expected, b.actions)
	}
}

func TestNavigate_RepeatedCallsDoNotSharePath(t *testing.T) {
	b := &fakeBrowser{}
	nav := New(b, newTestRegistry(chainDefs(), "Root"))

	if _, err := nav.Navigate("B", nil); err != nil {
		t.Fatalf("first navigate: %v", err)
	}
	if _, err := nav.Navigate("C", nil); err != nil {
		t.Fatalf("second navigate: %v", err)
	}

	expected := []string{"root->a", "a->b", "root->a", "a->b", "b->c"}
	if !reflect.DeepEqual(b.actions, expected) {
		t.Errorf("expected actions %v, got %v", expected, b.actions)
	}
}

func TestNavigate_TypeMatchBeatsLink(t *testing.T) {
	b := &fakeBrowser{}
	var hrefs []string
	defs := map[Kind]pageDef{
		"Root": {endpoint: "/", steps: func(b *fakeBrowser) []Step {
			return []Step{
				Link("nav", func(href string) error {
					hrefs = append(hrefs, href)
					return nil
				}),
				To("A", "to_a", record(b, "root->a")),
			}
		}},
		"A": {prereq: "Root", endpoint: "/a"},
	}
	nav := New(b, newTestRegistry(defs, "Root"))

	if _, err := nav.Navigate("A", nil); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(hrefs) != 0 {
		t.Errorf("expected link step not to run, got %v", hrefs)
	}
	if !reflect.DeepEqual(b.actions, []string{"root->a"}) {
		t.Errorf("expected typed step to run once, got %v", b.actions)
	}
}

func TestNavigate_FirstLinkOnly(t *testing.T) {
	b := &fakeBrowser{}
	var used []string
	linkStep := func(name string) Step {
		return Link(name, func(href string) error {
			used = append(used, name+":"+href)
			return nil
		})
	}
	defs := map[Kind]pageDef{
		"Root": {endpoint: "/", steps: func(*fakeBrowser) []Step {
			return []Step{linkStep("first"), linkStep("second")}
		}},
		"Account": {prereq: "Root", endpoint: "/buyers/accounts/{account_id}"},
	}
	nav := New(b, newTestRegistry(defs, "Root"))

	if _, err := nav.Navigate("Account", Params{"account_id": 7}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	expected := []string{"first:/buyers/accounts/7"}
	if !reflect.DeepEqual(used, expected) {
		t.Errorf("expected %v, got %v", expected, used)
	}
}

func TestNavigate_StepNotFound(t *testing.T) {
	b := &fakeBrowser{}
	defs := map[Kind]pageDef{
		"Root": {endpoint: "/", steps: func(b *fakeBrowser) []Step {
			return []Step{
				To("Other", "to_other", record(b, "root->other")),
				To("Else", "to_else", record(b, "root->else"), "id"),
			}
		}},
		"A": {prereq: "Root", endpoint: "/a"},
	}
	nav := New(b, newTestRegistry(defs, "Root"))

	_, err := nav.Navigate("A", nil)
	if !errors.Is(err, ErrStepNotFound) {
		t.Fatalf("expected ErrStepNotFound, got %v", err)
	}

	var nf *StepNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected *StepNotFoundError, got %T", err)
	}
	if nf.Current != "Root" || nf.Destination != "A" {
		t.Errorf("expected Root -> A, got %s -> %s", nf.Current, nf.Destination)
	}
	expected := []string{"to_other->Other", "to_else(id)->Else"}
	if !reflect.DeepEqual(nf.Candidates, expected) {
		t.Errorf("expected candidates %v, got %v", expected, nf.Candidates)
	}
	if len(b.actions) != 0 {
		t.Errorf("expected no actions, got %v", b.actions)
	}
}

func TestNavigate_StepFailurePreservesCause(t *testing.T) {
	b := &fakeBrowser{}
	cause := errors.New("element not clickable")
	calls := 0
	defs := chainDefs()
	defs["A"] = pageDef{prereq: "Root", endpoint: "/a", steps: func(*fakeBrowser) []Step {
		return []Step{To("B", "to_b", func(Params) error {
			calls++
			return cause
		})}
	}}
	nav := New(b, newTestRegistry(defs, "Root"))

	_, err := nav.Navigate("C", nil)
	if !errors.Is(err, ErrStepFailed) {
		t.Fatalf("expected ErrStepFailed, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected error to wrap cause, got %v", err)
	}

	var se *StepExecutionError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StepExecutionError, got %T", err)
	}
	if se.Current != "A" || se.Destination != "B" || se.Step != "to_b" {
		t.Errorf("unexpected error fields: %+v", se)
	}
	if calls != 1 {
		t.Errorf("expected failing step to run once, got %d", calls)
	}
	if !reflect.DeepEqual(b.actions, []string{"root->a"}) {
		t.Errorf("expected traversal to stop after failure, got %v", b.actions)
	}
}

func TestNavigate_LinkFailureWrapped(t *testing.T) {
	b := &fakeBrowser{}
	cause := errors.New("no such link")
	defs := map[Kind]pageDef{
		"Root": {endpoint: "/", steps: func(*fakeBrowser) []Step {
			return []Step{Link("nav", func(string) error { return cause })}
		}},
		"A": {prereq: "Root", endpoint: "/a"},
	}
	nav := New(b, newTestRegistry(defs, "Root"))

	_, err := nav.Navigate("A", nil)
	if !IsStepFailed(err) || !errors.Is(err, cause) {
		t.Errorf("expected wrapped link failure, got %v", err)
	}
}

func TestNavigate_LinkMissingPlaceholder(t *testing.T) {
	b := &fakeBrowser{}
	followed := false
	defs := map[Kind]pageDef{
		"Root": {endpoint: "/", steps: func(*fakeBrowser) []Step {
			return []Step{Link("nav", func(string) error {
				followed = true
				return nil
			})}
		}},
		"Account": {prereq: "Root", endpoint: "/buyers/accounts/{account_id}"},
	}
	nav := New(b, newTestRegistry(defs, "Root"))

	_, err := nav.Navigate("Account", nil)
	var stepErr *StepExecutionError
	if !errors.As(err, &stepErr) {
		t.Fatalf("expected StepExecutionError, got %v", err)
	}
	if !errors.Is(err, ErrMissingParam) {
		t.Errorf("expected ErrMissingParam, got %v", err)
	}
	if followed {
		t.Error("expected the link not to be followed")
	}
}

func TestNavigate_ParamsFilteredAndDefaulted(t *testing.T) {
	b := &fakeBrowser{}
	var got Params
	defs := map[Kind]pageDef{
		"Root": {endpoint: "/", steps: func(*fakeBrowser) []Step {
			return []Step{To("A", "to_a", func(args Params) error {
				got = args
				return nil
			}, "account_id", "tab").WithDefaults(Params{"tab": "users"})}
		}},
		"A": {prereq: "Root", endpoint: "/a"},
	}
	nav := New(b, newTestRegistry(defs, "Root"))

	if _, err := nav.Navigate("A", Params{"account_id": 3, "unrelated": true}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	expected := Params{"account_id": 3, "tab": "users"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("expected args %v, got %v", expected, got)
	}
}

func TestNavigate_MissingParam(t *testing.T) {
	b := &fakeBrowser{}
	called := false
	defs := map[Kind]pageDef{
		"Root": {endpoint: "/", steps: func(*fakeBrowser) []Step {
			return []Step{To("A", "to_a", func(Params) error {
				called = true
				return nil
			}, "account_id")}
		}},
		"A": {prereq: "Root", endpoint: "/a"},
	}
	nav := New(b, newTestRegistry(defs, "Root"))

	_, err := nav.Navigate("A", nil)
	if !errors.Is(err, ErrMissingParam) || !errors.Is(err, ErrStepFailed) {
		t.Errorf("expected missing parameter step failure, got %v", err)
	}
	if called {
		t.Error("expected step not to be invoked")
	}
}

func TestNavigate_UnknownKind(t *testing.T) {
	nav := New(&fakeBrowser{}, newTestRegistry(chainDefs(), "Root"))

	_, err := nav.Navigate("Nope", nil)
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}

func TestNavigate_UnknownPrerequisite(t *testing.T) {
	defs := chainDefs()
	defs["Orphan"] = pageDef{prereq: "Missing", endpoint: "/orphan"}
	nav := New(&fakeBrowser{}, newTestRegistry(defs, "Root"))

	_, err := nav.Navigate("Orphan", nil)
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}

func TestNavigate_Cycle(t *testing.T) {
	defs := map[Kind]pageDef{
		"X": {prereq: "Y", endpoint: "/x"},
		"Y": {prereq: "X", endpoint: "/y"},
	}
	nav := New(&fakeBrowser{}, newTestRegistry(defs))

	_, err := nav.Navigate("X", nil)
	if !errors.Is(err, ErrPrerequisiteCycle) {
		t.Errorf("expected ErrPrerequisiteCycle, got %v", err)
	}
}

func TestNavigate_Unreachable(t *testing.T) {
	defs := map[Kind]pageDef{
		"Lonely": {endpoint: "/lonely"},
	}
	nav := New(&fakeBrowser{}, newTestRegistry(defs))

	_, err := nav.Navigate("Lonely", nil)
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("expected ErrUnreachable, got %v", err)
	}
}

func TestNavigate_FactoryError(t *testing.T) {
	buildErr := errors.New("boom")
	reg := NewRegistry[*fakeBrowser]().
		Register("Broken", func(*fakeBrowser, Params) (Page, error) { return nil, buildErr })
	nav := New(&fakeBrowser{}, reg)

	_, err := nav.Navigate("Broken", nil)
	if !errors.Is(err, buildErr) {
		t.Errorf("expected factory error, got %v", err)
	}
}

func TestOpen(t *testing.T) {
	b := &fakeBrowser{}
	defs := chainDefs()
	defs["Users"] = pageDef{prereq: "A", endpoint: "/buyers/accounts/{account_id}/users"}
	nav := New(b, newTestRegistry(defs, "Root"))

	page, err := nav.Open("Users", Params{"account_id": 42})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if page.Kind() != "Users" {
		t.Errorf("expected Users page, got %s", page.Kind())
	}
	if b.path != "/buyers/accounts/42/users" {
		t.Errorf("expected path /buyers/accounts/42/users, got %q", b.path)
	}
	if len(b.actions) != 0 {
		t.Errorf("expected no steps on open, got %v", b.actions)
	}
}

func TestOpen_MissingParam(t *testing.T) {
	b := &fakeBrowser{}
	defs := map[Kind]pageDef{"Users": {endpoint: "/buyers/accounts/{account_id}/users"}}
	nav := New(b, newTestRegistry(defs))

	_, err := nav.Open("Users", nil)
	if !errors.Is(err, ErrMissingParam) {
		t.Errorf("expected ErrMissingParam, got %v", err)
	}
	if b.path != "" {
		t.Errorf("expected browser untouched, got %q", b.path)
	}
}

func TestOpen_BrowserError(t *testing.T) {
	setErr := errors.New("navigation timeout")
	b := &fakeBrowser{setErr: setErr}
	nav := New(b, newTestRegistry(chainDefs(), "Root"))

	_, err := nav.Open("A", nil)
	if !errors.Is(err, setErr) {
		t.Errorf("expected browser error, got %v", err)
	}
	if IsStepFailed(err) {
		t.Error("expected open errors not to be wrapped as step failures")
	}
}
