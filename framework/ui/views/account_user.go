package views

import (
	"fmt"

	"github.com/3scale-qe/testsuite/test/framework/browser"
	"github.com/3scale-qe/testsuite/test/framework/navigation"
	"github.com/3scale-qe/testsuite/test/framework/ui/widgets"
)

// AccountUsers lists the users of an account.
type AccountUsers struct {
	BaseAudienceView
	Table     *widgets.Table
	AccountID any
}

func NewAccountUsers(b browser.Browser, accountID any) *AccountUsers {
	return &AccountUsers{
		BaseAudienceView: newBaseAudienceView(b, "/buyers/accounts/{account_id}/users", idParams(ParamAccountID, accountID)),
		Table:            widgets.NewTable(b, "//*[@id='buyer_users']"),
		AccountID:        accountID,
	}
}

func (v *AccountUsers) Kind() navigation.Kind         { return KindAccountUsers }
func (v *AccountUsers) Prerequisite() navigation.Kind { return KindAccountDetail }

func (v *AccountUsers) IsDisplayed() bool {
	return v.inAudience() && v.onPath() && v.Table.IsDisplayed()
}

func (v *AccountUsers) Steps() []navigation.Step {
	return []navigation.Step{
		navigation.To(KindAccountUserEdit, "user", func(args navigation.Params) error {
			return v.EditUser(args[ParamUserID])
		}, ParamUserID),
	}
}

// EditUser clicks the edit action of the user row.
func (v *AccountUsers) EditUser(id any) error {
	return v.Table.Row(fmt.Sprintf("user_%v", id)).Cell(5).Click()
}

// AccountUserEdit is the edit form of one account user.
type AccountUserEdit struct {
	BaseAudienceView
	Username     *widgets.TextInput
	Email        *widgets.TextInput
	UpdateButton *widgets.Button
	AccountID    any
	UserID       any
}

func NewAccountUserEdit(b browser.Browser, accountID, userID any) *AccountUserEdit {
	return &AccountUserEdit{
		BaseAudienceView: newBaseAudienceView(b, "/buyers/accounts/{account_id}/users/{user_id}",
			idParams(ParamAccountID, accountID, ParamUserID, userID)),
		Username:     widgets.NewTextInput(b, "user_username"),
		Email:        widgets.NewTextInput(b, "user_email"),
		UpdateButton: widgets.NewUpdateButton(b),
		AccountID:    accountID,
		UserID:       userID,
	}
}

func (v *AccountUserEdit) Kind() navigation.Kind         { return KindAccountUserEdit }
func (v *AccountUserEdit) Prerequisite() navigation.Kind { return KindAccountUsers }
func (v *AccountUserEdit) Steps() []navigation.Step      { return nil }

func (v *AccountUserEdit) IsDisplayed() bool {
	return v.inAudience() && v.onPath() && v.Username.IsDisplayed() && v.Email.IsDisplayed()
}

// Update changes the non-empty fields and submits the form.
func (v *AccountUserEdit) Update(username, email string) error {
	if username != "" {
		if err := v.Username.Fill(username); err != nil {
			return err
		}
	}
	if email != "" {
		if err := v.Email.Fill(email); err != nil {
			return err
		}
	}
	return v.UpdateButton.Click()
}
