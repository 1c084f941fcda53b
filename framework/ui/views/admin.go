package views

import (
	"github.com/3scale-qe/testsuite/test/framework/browser"
	"github.com/3scale-qe/testsuite/test/framework/navigation"
	"github.com/3scale-qe/testsuite/test/framework/ui/widgets"
)

// Login is the admin portal sign in page.
type Login struct {
	view
	Username *widgets.TextInput
	Password *widgets.TextInput
	Submit   *widgets.Button

	defaults navigation.Params
}

func NewLogin(b browser.Browser, username, password string) *Login {
	defaults := navigation.Params{}
	if username != "" {
		defaults[ParamUsername] = username
	}
	if password != "" {
		defaults[ParamPassword] = password
	}
	return &Login{
		view:     newView(b, "/p/login", nil),
		Username: widgets.NewTextInput(b, "session_username"),
		Password: widgets.NewTextInput(b, "session_password"),
		Submit:   widgets.NewSubmitButton(b, "Sign in"),
		defaults: defaults,
	}
}

func (v *Login) Kind() navigation.Kind         { return KindLogin }
func (v *Login) Prerequisite() navigation.Kind { return "" }

func (v *Login) IsDisplayed() bool {
	return v.onPath() && v.Username.IsDisplayed() && v.Password.IsDisplayed()
}

func (v *Login) Steps() []navigation.Step {
	return []navigation.Step{
		navigation.To(KindDashboard, "do_login", func(args navigation.Params) error {
			return v.Login(idString(args[ParamUsername]), idString(args[ParamPassword]))
		}, ParamUsername, ParamPassword).WithDefaults(v.defaults),
	}
}

// Login submits the sign in form, loading the sign in page first when the
// browser shows something else, e.g. a fresh session.
func (v *Login) Login(username, password string) error {
	if !v.IsDisplayed() {
		if err := v.b.SetPath(v.Path()); err != nil {
			return err
		}
	}
	if err := v.Username.Fill(username); err != nil {
		return err
	}
	if err := v.Password.Fill(password); err != nil {
		return err
	}
	return v.Submit.Click()
}

// Dashboard is the landing page after sign in.
type Dashboard struct {
	BaseAdminView
}

func NewDashboard(b browser.Browser) *Dashboard {
	return &Dashboard{BaseAdminView: newBaseAdminView(b, "/p/admin/dashboard", nil)}
}

func (v *Dashboard) Kind() navigation.Kind         { return KindDashboard }
func (v *Dashboard) Prerequisite() navigation.Kind { return KindLogin }

func (v *Dashboard) IsDisplayed() bool {
	return v.onPath() && v.Context.IsDisplayed()
}

func (v *Dashboard) Steps() []navigation.Step {
	return []navigation.Step{
		navigation.To(KindAudience, "audience", func(navigation.Params) error {
			return v.Context.Select("Audience")
		}),
		navigation.Link("href", v.followLink),
	}
}
