// Package views models admin portal pages as navigation nodes.
package views

import (
	"fmt"
	"log/slog"

	"github.com/3scale-qe/testsuite/test/framework/browser"
	"github.com/3scale-qe/testsuite/test/framework/navigation"
	"github.com/3scale-qe/testsuite/test/framework/ui/widgets"
)

// Page kinds of the admin portal.
const (
	KindLogin           navigation.Kind = "LoginView"
	KindDashboard       navigation.Kind = "DashboardView"
	KindAudience        navigation.Kind = "BaseAudienceView"
	KindAccounts        navigation.Kind = "AccountsView"
	KindAccountDetail   navigation.Kind = "AccountsDetailView"
	KindAccountUsers    navigation.Kind = "AccountUserView"
	KindAccountUserEdit navigation.Kind = "AccountUserEditView"
)

// Parameter names used in endpoint templates and steps.
const (
	ParamAccountID = "account_id"
	ParamUserID    = "user_id"
	ParamUsername  = "username"
	ParamPassword  = "password"
)

// Navigator is a navigator over the admin portal views.
type Navigator = navigation.Navigator[browser.Browser]

// Option configures the admin portal registry.
type Option func(*settings)

type settings struct {
	username string
	password string
	logger   *slog.Logger
}

// WithCredentials sets the login used when a path starts at the login page.
func WithCredentials(username, password string) Option {
	return func(s *settings) {
		s.username = username
		s.password = password
	}
}

// WithLogger sets the logger of the navigator.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// NewRegistry wires every admin portal view. Login is the only root; a
// signed in session ends the backtrace at the displayed Dashboard or below.
func NewRegistry(opts ...Option) *navigation.Registry[browser.Browser] {
	s := &settings{}
	for _, opt := range opts {
		opt(s)
	}

	return navigation.NewRegistry[browser.Browser]().
		Register(KindLogin, func(b browser.Browser, _ navigation.Params) (navigation.Page, error) {
			return NewLogin(b, s.username, s.password), nil
		}).
		Register(KindDashboard, func(b browser.Browser, _ navigation.Params) (navigation.Page, error) {
			return NewDashboard(b), nil
		}).
		Register(KindAudience, func(b browser.Browser, _ navigation.Params) (navigation.Page, error) {
			return NewAudience(b), nil
		}).
		Register(KindAccounts, func(b browser.Browser, _ navigation.Params) (navigation.Page, error) {
			return NewAccounts(b), nil
		}).
		Register(KindAccountDetail, func(b browser.Browser, p navigation.Params) (navigation.Page, error) {
			return NewAccountDetail(b, p[ParamAccountID]), nil
		}).
		Register(KindAccountUsers, func(b browser.Browser, p navigation.Params) (navigation.Page, error) {
			return NewAccountUsers(b, p[ParamAccountID]), nil
		}).
		Register(KindAccountUserEdit, func(b browser.Browser, p navigation.Params) (navigation.Page, error) {
			return NewAccountUserEdit(b, p[ParamAccountID], p[ParamUserID]), nil
		}).
		MarkRoot(KindLogin)
}

// NewNavigator returns a navigator over the admin portal driving b.
func NewNavigator(b browser.Browser, opts ...Option) *Navigator {
	s := &settings{}
	for _, opt := range opts {
		opt(s)
	}
	var navOpts []navigation.Option
	if s.logger != nil {
		navOpts = append(navOpts, navigation.WithLogger(s.logger))
	}
	return navigation.New(b, NewRegistry(opts...), navOpts...)
}

// view carries what every admin portal page shares.
type view struct {
	b       browser.Browser
	pattern string
	params  navigation.Params
}

func (v *view) EndpointPath() string {
	return v.pattern
}

// Path returns the endpoint with its placeholders filled, or the raw
// pattern if a value is missing.
func (v *view) Path() string {
	p, err := navigation.FormatPath(v.pattern, v.params)
	if err != nil {
		return v.pattern
	}
	return p
}

// onPath reports whether the browser shows the endpoint of the view.
func (v *view) onPath() bool {
	current := v.b.Path()
	if p, err := navigation.FormatPath(v.pattern, v.params); err == nil {
		return current == p
	}
	return navigation.MatchPath(v.pattern, current)
}

func newView(b browser.Browser, pattern string, params navigation.Params) view {
	return view{b: b, pattern: pattern, params: params}
}

// idParams drops nil values so unset identifiers stay unset.
func idParams(kv ...any) navigation.Params {
	p := navigation.Params{}
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] != nil {
			p[kv[i].(string)] = kv[i+1]
		}
	}
	return p
}

// BaseAdminView is embedded by every page behind the login.
type BaseAdminView struct {
	view
	Context *widgets.ContextMenu
}

func newBaseAdminView(b browser.Browser, pattern string, params navigation.Params) BaseAdminView {
	return BaseAdminView{
		view:    newView(b, pattern, params),
		Context: widgets.NewContextMenu(b),
	}
}

// followLink loads a destination endpoint directly.
func (v *BaseAdminView) followLink(href string) error {
	return v.b.SetPath(href)
}

func idString(id any) string {
	if id == nil {
		return ""
	}
	return fmt.Sprint(id)
}
