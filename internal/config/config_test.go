package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, int32(8189), cfg.HTTP.Port)
	assert.Equal(t, "127.0.0.1", cfg.HTTP.Host)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, "https://api.audible.com", cfg.Catalog.BaseURL)
	assert.Equal(t, 2.0, cfg.Catalog.RequestsPerSecond)
	assert.Equal(t, PageLoaderHTTP, cfg.Page.Loader)
	assert.Equal(t, 20*time.Second, cfg.Page.Timeout)
	assert.True(t, cfg.Session.RevalidateEnabled)
	assert.Equal(t, "*/30 * * * *", cfg.Session.RevalidateSchedule)
	assert.Equal(t, 5*time.Second, cfg.Notify.DismissAfter)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestNewConfig_Environment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("PAGE_LOADER", PageLoaderBrowser)
	t.Setenv("PAGE_COOKIES", "session-id=abc")
	t.Setenv("CATALOG_REQUESTS_PER_SECOND", "0.5")
	t.Setenv("NOTIFY_DISMISS_AFTER", "10s")
	t.Setenv("AUDIT_ENABLED", "false")
	t.Setenv("SESSION_REVALIDATE_SCHEDULE", "0 * * * *")

	cfg := NewConfig()

	assert.Equal(t, int32(9000), cfg.HTTP.Port)
	assert.Equal(t, PageLoaderBrowser, cfg.Page.Loader)
	assert.Equal(t, "session-id=abc", cfg.Page.Cookies)
	assert.Equal(t, 0.5, cfg.Catalog.RequestsPerSecond)
	assert.Equal(t, 10*time.Second, cfg.Notify.DismissAfter)
	assert.False(t, cfg.Audit.Enabled)
	assert.Equal(t, "0 * * * *", cfg.Session.RevalidateSchedule)
}
