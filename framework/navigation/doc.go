// Package navigation moves a live browser session between UI pages.
//
// Pages form a graph in which every page names exactly one prerequisite page
// it is reachable from. A Navigator resolves a path in two phases:
//
//  1. Backtrace. Starting at the requested kind, pages are built and stacked
//     until a root kind or a page that is already displayed is reached.
//  2. Steps. The stack is unwound from the bottom: for every hop the current
//     page is asked for a step leading to the next page, and the step runs
//     against the browser.
//
// # Declaring pages
//
// A page exposes its outgoing edges as an ordered table of steps:
//
//	func (p *AccountsPage) Steps() []navigation.Step {
//	    return []navigation.Step{
//	        navigation.To(KindAccountDetail, "account", p.openAccount, "account_id"),
//	        navigation.Link("href", p.followLink),
//	    }
//	}
//
// Steps built with To are matched by destination kind. A step built with Link
// is the fallback for any destination: it receives the destination endpoint
// path. When both exist for a hop, the kind match always wins, and only the
// first link step of a page is ever considered.
//
// # Navigating
//
//	reg := navigation.NewRegistry[browser.Browser]().
//	    Register(KindLogin, newLogin).
//	    Register(KindAccounts, newAccounts).
//	    MarkRoot(KindLogin)
//
//	nav := navigation.New(b, reg)
//	page, err := nav.Navigate(KindAccounts, navigation.Params{"account_id": 3})
//
// Failures are returned as *StepNotFoundError or *StepExecutionError; both
// carry the pages involved. Navigator never retries and never rolls back, so
// after a failure the browser is left on the last page that was reached.
//
// A Navigator owns one browser session and is not safe for concurrent use.
package navigation
