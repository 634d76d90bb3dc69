package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/jelu-importer/internal/audible"
	"github.com/mrlokans/jelu-importer/internal/audit"
	"github.com/mrlokans/jelu-importer/internal/bridge"
	"github.com/mrlokans/jelu-importer/internal/coordinator"
	"github.com/mrlokans/jelu-importer/internal/extractor"
	"github.com/mrlokans/jelu-importer/internal/http"
	"github.com/mrlokans/jelu-importer/internal/jelu"
	"github.com/mrlokans/jelu-importer/internal/notify"
	"github.com/mrlokans/jelu-importer/internal/page"
	"github.com/mrlokans/jelu-importer/internal/scheduler"
	"github.com/mrlokans/jelu-importer/internal/sessionstore"
)

// =============================================================================
// Page Pipeline
// =============================================================================

// Loader implementations
var _ page.Loader = (*page.HTTPLoader)(nil)
var _ page.Loader = (*page.BrowserLoader)(nil)

// CatalogSource implementations
var _ extractor.CatalogSource = (*audible.CatalogClient)(nil)

// Bridge handlers
var _ bridge.Handler = bridge.PageHandler{}

// =============================================================================
// Coordinator Dependencies
// =============================================================================

var _ coordinator.Scraper = (*bridge.Bridge)(nil)
var _ coordinator.Library = (*jelu.Client)(nil)
var _ coordinator.SessionStore = (*sessionstore.Store)(nil)
var _ coordinator.ImportAuditor = (*audit.Auditor)(nil)
var _ notify.Notifier = (*notify.Board)(nil)
var _ notify.Notifier = notify.Discard{}

// =============================================================================
// Outer Surfaces
// =============================================================================

var _ http.ImportCoordinator = (*coordinator.Coordinator)(nil)
var _ http.NotificationBoard = (*notify.Board)(nil)
var _ scheduler.Revalidator = (*coordinator.Coordinator)(nil)
