package config

const (
	// DefaultDatabasePath is the default path for the local session database
	DefaultDatabasePath = "./jelu-importer.db"

	// Page loaders
	PageLoaderHTTP    = "http"
	PageLoaderBrowser = "browser"
)
