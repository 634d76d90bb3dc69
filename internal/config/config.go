package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Catalog
		Library
		Page
		Session
		Notify
		Audit
		Log
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Catalog struct {
		BaseURL           string
		RequestsPerSecond float64
		Timeout           time.Duration
	}
	Library struct {
		Timeout time.Duration
	}
	Page struct {
		Loader    string // "http" (colly) or "browser" (headless Chrome)
		UserAgent string
		Cookies   string // Cookie header sent to the store, e.g. "session-id=...; ubid-main=..."
		Timeout   time.Duration
	}
	Session struct {
		EncryptionKey      string
		KeyFilePath        string
		RevalidateEnabled  bool
		RevalidateSchedule string // Cron format: "*/30 * * * *" = every 30 minutes
	}
	Notify struct {
		DismissAfter time.Duration
	}
	Audit struct {
		Enabled bool
		Dir     string
	}
	Log struct {
		Level  string
		Format string // "text" or "json"
	}
)

// NewConfig reads the configuration from the environment, applying defaults
// for anything unset.
func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8189)
	v.SetDefault("host", "127.0.0.1")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)

	v.SetDefault("catalog_base_url", "https://api.audible.com")
	v.SetDefault("catalog_requests_per_second", 2)
	v.SetDefault("catalog_timeout", "15s")
	v.SetDefault("library_timeout", "30s")

	v.SetDefault("page_loader", PageLoaderHTTP)
	v.SetDefault("page_user_agent", "")
	v.SetDefault("page_cookies", "")
	v.SetDefault("page_timeout", "20s")

	v.SetDefault("session_encryption_key", "") // Falls back to SESSION_ENCRYPTION_KEY, then the key file
	v.SetDefault("session_key_file", "")
	v.SetDefault("session_revalidate_enabled", true)
	v.SetDefault("session_revalidate_schedule", "*/30 * * * *")

	v.SetDefault("notify_dismiss_after", "5s")

	v.SetDefault("audit_enabled", true)
	v.SetDefault("audit_dir", "./audit")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Catalog: Catalog{
			BaseURL:           v.GetString("CATALOG_BASE_URL"),
			RequestsPerSecond: v.GetFloat64("CATALOG_REQUESTS_PER_SECOND"),
			Timeout:           v.GetDuration("CATALOG_TIMEOUT"),
		},
		Library: Library{
			Timeout: v.GetDuration("LIBRARY_TIMEOUT"),
		},
		Page: Page{
			Loader:    v.GetString("PAGE_LOADER"),
			UserAgent: v.GetString("PAGE_USER_AGENT"),
			Cookies:   v.GetString("PAGE_COOKIES"),
			Timeout:   v.GetDuration("PAGE_TIMEOUT"),
		},
		Session: Session{
			EncryptionKey:      v.GetString("SESSION_ENCRYPTION_KEY"),
			KeyFilePath:        v.GetString("SESSION_KEY_FILE"),
			RevalidateEnabled:  v.GetBool("SESSION_REVALIDATE_ENABLED"),
			RevalidateSchedule: v.GetString("SESSION_REVALIDATE_SCHEDULE"),
		},
		Notify: Notify{
			DismissAfter: v.GetDuration("NOTIFY_DISMISS_AFTER"),
		},
		Audit: Audit{
			Enabled: v.GetBool("AUDIT_ENABLED"),
			Dir:     v.GetString("AUDIT_DIR"),
		},
		Log: Log{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}
}
