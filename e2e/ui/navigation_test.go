package ui

import (
	"fmt"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/3scale-qe/testsuite/test/framework/config"
	"github.com/3scale-qe/testsuite/test/framework/navigation"
	"github.com/3scale-qe/testsuite/test/framework/ui/views"
)

var _ = Describe("Admin portal navigation", Ordered, func() {
	var (
		nav    *views.Navigator
		params navigation.Params
	)

	BeforeAll(func() {
		if cfg.AccountID == 0 || cfg.AccountUserID == 0 {
			Skip("no account configured, set " + config.EnvAccountID + " and " + config.EnvAccountUserID)
		}
		nav = views.NewNavigator(session,
			views.WithCredentials(cfg.AdminUsername, cfg.AdminPassword),
			views.WithLogger(logger),
		)
		params = navigation.Params{
			views.ParamAccountID: cfg.AccountID,
			views.ParamUserID:    cfg.AccountUserID,
		}
	})

	AfterEach(func() {
		if CurrentSpecReport().Failed() {
			name := fmt.Sprintf("%s.png", CurrentSpecReport().LeafNodeText)
			if err := session.Screenshot(filepath.Join(GinkgoT().TempDir(), name)); err != nil {
				GinkgoWriter.Printf("screenshot failed: %v\n", err)
			}
		}
	})

	It("logs in and reaches the dashboard", func() {
		page, err := nav.Navigate(views.KindDashboard, params)
		Expect(err).NotTo(HaveOccurred())
		Expect(page.Kind()).To(Equal(views.KindDashboard))
		Expect(page.IsDisplayed()).To(BeTrue())
	})

	It("walks to the account user edit page", func() {
		page, err := nav.Navigate(views.KindAccountUserEdit, params)
		Expect(err).NotTo(HaveOccurred())
		Expect(page).To(BeAssignableToTypeOf(&views.AccountUserEdit{}))
		Expect(page.IsDisplayed()).To(BeTrue())
		Expect(session.Path()).To(Equal(fmt.Sprintf("/buyers/accounts/%d/users/%d", cfg.AccountID, cfg.AccountUserID)))
	})

	It("stays on a displayed page", func() {
		before := session.URL()
		page, err := nav.Navigate(views.KindAccountUserEdit, params)
		Expect(err).NotTo(HaveOccurred())
		Expect(page.IsDisplayed()).To(BeTrue())
		Expect(session.URL()).To(Equal(before))
	})

	It("goes back to the accounts list", func() {
		page, err := nav.Navigate(views.KindAccounts, params)
		Expect(err).NotTo(HaveOccurred())
		Expect(page.IsDisplayed()).To(BeTrue())
	})

	It("opens the account users page directly", func() {
		page, err := nav.Open(views.KindAccountUsers, params)
		Expect(err).NotTo(HaveOccurred())
		Expect(page.Kind()).To(Equal(views.KindAccountUsers))
		Eventually(page.IsDisplayed).Should(BeTrue())
	})

	It("rejects an unknown page kind", func() {
		_, err := nav.Navigate("NoSuchView", params)
		Expect(err).To(MatchError(navigation.ErrUnknownKind))
	})
})
