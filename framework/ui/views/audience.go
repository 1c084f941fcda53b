package views

import (
	"fmt"

	"github.com/3scale-qe/testsuite/test/framework/browser"
	"github.com/3scale-qe/testsuite/test/framework/navigation"
	"github.com/3scale-qe/testsuite/test/framework/ui/widgets"
)

// BaseAudienceView is embedded by the pages of the Audience section.
type BaseAudienceView struct {
	BaseAdminView
	Menu *widgets.NavigationMenu
}

func newBaseAudienceView(b browser.Browser, pattern string, params navigation.Params) BaseAudienceView {
	return BaseAudienceView{
		BaseAdminView: newBaseAdminView(b, pattern, params),
		Menu:          widgets.NewNavigationMenu(b),
	}
}

// inAudience reports whether the Audience section is active.
func (v *BaseAudienceView) inAudience() bool {
	if !v.Menu.IsDisplayed() {
		return false
	}
	selected, err := v.Context.Selected()
	return err == nil && selected == "Audience"
}

// selectHref uses the vertical navigation to reach href.
func (v *BaseAudienceView) selectHref(href string) error {
	return v.Menu.SelectHref(href)
}

// Audience is the entry page of the Audience section.
type Audience struct {
	BaseAudienceView
}

func NewAudience(b browser.Browser) *Audience {
	return &Audience{BaseAudienceView: newBaseAudienceView(b, "/buyers/accounts", nil)}
}

func (v *Audience) Kind() navigation.Kind         { return KindAudience }
func (v *Audience) Prerequisite() navigation.Kind { return KindDashboard }

func (v *Audience) IsDisplayed() bool {
	return v.inAudience()
}

func (v *Audience) Steps() []navigation.Step {
	return []navigation.Step{
		navigation.To(KindAccounts, "accounts", func(navigation.Params) error {
			return v.selectHref("/buyers/accounts")
		}),
		navigation.Link("href", v.selectHref),
	}
}

// Accounts lists developer accounts.
type Accounts struct {
	BaseAudienceView
	Table *widgets.Table
}

func NewAccounts(b browser.Browser) *Accounts {
	return &Accounts{
		BaseAudienceView: newBaseAudienceView(b, "/buyers/accounts", nil),
		Table:            widgets.NewTable(b, "//*[@id='buyer_accounts']"),
	}
}

func (v *Accounts) Kind() navigation.Kind         { return KindAccounts }
func (v *Accounts) Prerequisite() navigation.Kind { return KindAudience }

func (v *Accounts) IsDisplayed() bool {
	return v.inAudience() && v.onPath() && v.Table.IsDisplayed()
}

func (v *Accounts) Steps() []navigation.Step {
	return []navigation.Step{
		navigation.To(KindAccountDetail, "account", func(args navigation.Params) error {
			return v.OpenAccount(args[ParamAccountID])
		}, ParamAccountID),
	}
}

// OpenAccount opens the detail page of the account with the given id.
func (v *Accounts) OpenAccount(id any) error {
	return v.Table.Row(fmt.Sprintf("account_%v", id)).Cell(1).ClickLink()
}

// AccountDetail is the overview of one developer account.
type AccountDetail struct {
	BaseAudienceView
	AccountID any
}

func NewAccountDetail(b browser.Browser, accountID any) *AccountDetail {
	return &AccountDetail{
		BaseAudienceView: newBaseAudienceView(b, "/buyers/accounts/{account_id}", idParams(ParamAccountID, accountID)),
		AccountID:        accountID,
	}
}

func (v *AccountDetail) Kind() navigation.Kind         { return KindAccountDetail }
func (v *AccountDetail) Prerequisite() navigation.Kind { return KindAccounts }

func (v *AccountDetail) IsDisplayed() bool {
	return v.inAudience() && v.onPath()
}

func (v *AccountDetail) Steps() []navigation.Step {
	return []navigation.Step{
		navigation.To(KindAccountUsers, "users", func(args navigation.Params) error {
			return v.b.Click(fmt.Sprintf("//a[@href='/buyers/accounts/%v/users']", args[ParamAccountID]))
		}, ParamAccountID),
	}
}
