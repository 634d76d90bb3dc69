// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Page Pipeline
//
//   - page.Loader: fetches and parses a page (internal/page/page.go).
//     HTTPLoader uses colly; BrowserLoader renders with headless Chrome.
//   - extractor.CatalogSource: product lookup by ASIN (internal/extractor/extractor.go)
//   - bridge.Handler: answers typed requests in the page context (internal/bridge/bridge.go)
//
// ## Coordinator Dependencies
//
//   - coordinator.Scraper: record for a URL, served by bridge.Bridge
//   - coordinator.Library: the remote Jelu library, served by jelu.Client
//   - coordinator.SessionStore: persisted session, served by sessionstore.Store
//   - coordinator.ImportAuditor: import audit trail, served by audit.Auditor
//   - notify.Notifier: status messages, served by notify.Board
//
// ## Outer Surfaces
//
//   - http.ImportCoordinator: what the API drives (internal/http/importer.go)
//   - http.NotificationBoard: active status messages (internal/http/notifications.go)
//   - scheduler.Revalidator: periodic session checks (internal/scheduler/revalidate.go)
//
// # Adding a New Page Loader
//
//  1. Implement page.Loader in internal/page/
//
//     type PlaywrightLoader struct{ ... }
//
//     func (l *PlaywrightLoader) Load(ctx context.Context, rawURL string) (page.Page, error)
//
//  2. Add a PAGE_LOADER value in internal/config/constants.go
//
//  3. Select it in entrypoint.NewLoader
//
// # Adding a New Library Backend
//
// The coordinator only sees coordinator.Library. A different server needs a
// client with the same six methods and a Connector returning it:
//
//	connect := func(baseURL string, mode jelu.AuthMode) coordinator.Library {
//	    return otherlib.NewClient(baseURL, mode)
//	}
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// This pattern is used throughout the codebase. See checks.go for examples.
package interfaces
