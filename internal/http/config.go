package http

import (
	"github.com/mrlokans/jelu-importer/internal/database"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	Coordinator   ImportCoordinator
	Notifications NotificationBoard
	Database      *database.Database

	// Optional; a default throttle is used when nil.
	LoginThrottle *LoginThrottle

	// Application info
	Version string
}
