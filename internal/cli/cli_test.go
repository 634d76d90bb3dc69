package cli

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/jelu-importer/internal/coordinator"
	"github.com/mrlokans/jelu-importer/internal/crypto"
)

func setupEnv(t *testing.T) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	dir := t.TempDir()
	t.Setenv("DATABASE_PATH", filepath.Join(dir, "importer.db"))
	t.Setenv("SESSION_ENCRYPTION_KEY", key)
	t.Setenv("SESSION_KEY_FILE", filepath.Join(dir, "key"))
	t.Setenv("AUDIT_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv(EnvPassword, "")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd("test", "abc123")
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// fakeJelu accepts admin/secret and hands out token "tok-1".
func fakeJelu(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var tokenChecks atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, basic := r.BasicAuth()
		authed := (basic && user == "admin" && pass == "secret") || r.Header.Get("X-Auth-Token") == "tok-1"
		if !authed {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/token":
			_, _ = w.Write([]byte(`{"token":"tok-1"}`))
		case "/api/v1/users/me":
			tokenChecks.Add(1)
			_, _ = w.Write([]byte(`{"id":"1"}`))
		default:
			_, _ = w.Write([]byte(`{"content":[]}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &tokenChecks
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCmd("1.2.3", "deadbeef")

	names := []string{}
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "login", "logout", "status", "scrape", "import"}, names)
	assert.Equal(t, "1.2.3 (deadbeef)", cmd.Version)
}

func TestLoginStatusLogout(t *testing.T) {
	setupEnv(t)
	srv, tokenChecks := fakeJelu(t)

	out, err := execute(t, "status")
	require.NoError(t, err)
	assert.Equal(t, "Not connected.\n", out)

	_, err = execute(t, "login", "--url", srv.URL, "--username", "admin", "--password", "wrong")
	assert.ErrorIs(t, err, coordinator.ErrConnectionFailed)

	out, err = execute(t, "login", "--url", srv.URL+"/", "--username", "admin", "--password", "secret")
	require.NoError(t, err)
	assert.Equal(t, "Connected to "+srv.URL+" as admin\n", out)

	out, err = execute(t, "status")
	require.NoError(t, err)
	assert.Equal(t, "Connected to "+srv.URL+" as admin\n", out)
	assert.Equal(t, int32(1), tokenChecks.Load(), "status restores with the saved token")

	out, err = execute(t, "logout")
	require.NoError(t, err)
	assert.Equal(t, "Disconnected from Jelu.\n", out)

	out, err = execute(t, "status")
	require.NoError(t, err)
	assert.Equal(t, "Not connected.\n", out)
}

func TestLoginPasswordFromEnvironment(t *testing.T) {
	setupEnv(t)
	srv, _ := fakeJelu(t)
	t.Setenv(EnvPassword, "secret")

	_, err := execute(t, "login", "--url", srv.URL, "--username", "admin")

	assert.NoError(t, err)
}

func TestLoginMissingFields(t *testing.T) {
	setupEnv(t)

	_, err := execute(t, "login", "--url", "http://jelu.local")

	assert.ErrorIs(t, err, coordinator.ErrMissingFields)
}

func TestImportRequiresSession(t *testing.T) {
	setupEnv(t)

	_, err := execute(t, "import", "https://www.audible.com/pd/Dune/B0C1234567")

	assert.ErrorIs(t, err, coordinator.ErrNotConnected)
}

func TestScrapeRejectsForeignPage(t *testing.T) {
	setupEnv(t)

	_, err := execute(t, "scrape", "https://example.com/pd/B0C1234567")

	assert.ErrorIs(t, err, coordinator.ErrNotProviderPage)
}

func TestInvalidLogLevel(t *testing.T) {
	setupEnv(t)
	t.Setenv("LOG_LEVEL", "chatty")

	_, err := execute(t, "status")

	assert.ErrorContains(t, err, "invalid log level")
}
