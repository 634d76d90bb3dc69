package http

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/jelu-importer/internal/coordinator"
)

func TestImportController_GetState(t *testing.T) {
	fake := &fakeCoordinator{
		state:   readyState(),
		session: &coordinator.SessionInfo{ServiceURL: "http://jelu.local", Username: "alice"},
	}
	router := NewRouter(RouterConfig{Coordinator: fake})

	w := doRequest(t, router, http.MethodGet, "/api/state", "")

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[StateResponse](t, w)
	assert.Equal(t, coordinator.PhaseReadyToImport, resp.Phase)
	assert.Equal(t, "Dune", resp.Record.Title)
	assert.Equal(t, []coordinator.Action{coordinator.ActionImport}, resp.Actions)
	require.NotNil(t, resp.Session)
	assert.Equal(t, "alice", resp.Session.Username)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestImportController_Scrape(t *testing.T) {
	t.Run("returns the new state", func(t *testing.T) {
		fake := &fakeCoordinator{state: readyState()}
		router := NewRouter(RouterConfig{Coordinator: fake})

		w := doRequest(t, router, http.MethodPost, "/api/scrape", `{"url":"https://www.audible.com/pd/Dune/B0C1234567"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"https://www.audible.com/pd/Dune/B0C1234567"}, fake.scraped)
		resp := decode[StateResponse](t, w)
		assert.Nil(t, resp.Session)
	})

	t.Run("requires a url", func(t *testing.T) {
		fake := &fakeCoordinator{state: coordinator.Initial()}
		router := NewRouter(RouterConfig{Coordinator: fake})

		w := doRequest(t, router, http.MethodPost, "/api/scrape", `{}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, fake.scraped)
	})

	t.Run("rejects non provider pages", func(t *testing.T) {
		fake := &fakeCoordinator{state: coordinator.Initial(), scrapeErr: coordinator.ErrNotProviderPage}
		router := NewRouter(RouterConfig{Coordinator: fake})

		w := doRequest(t, router, http.MethodPost, "/api/scrape", `{"url":"https://example.com/"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode[ErrorResponse](t, w)
		assert.Equal(t, "not_provider_page", resp.Code)
	})
}

func TestImportController_Navigate(t *testing.T) {
	fake := &fakeCoordinator{state: coordinator.Initial()}
	router := NewRouter(RouterConfig{Coordinator: fake})

	w := doRequest(t, router, http.MethodPost, "/api/navigate", `{"url":"https://www.audible.com/search"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"https://www.audible.com/search"}, fake.navigated)
	resp := decode[StateResponse](t, w)
	assert.Equal(t, []coordinator.Action{coordinator.ActionScrape}, resp.Actions)
}

func TestImportController_Import(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		fake := &fakeCoordinator{state: readyState()}
		router := NewRouter(RouterConfig{Coordinator: fake})

		w := doRequest(t, router, http.MethodPost, "/api/import", "")

		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[StateResponse](t, w)
		assert.Equal(t, coordinator.PhaseImported, resp.Phase)
		assert.Equal(t, "42", resp.RemoteID)
		assert.Equal(t, []coordinator.Action{coordinator.ActionView}, resp.Actions)
	})

	t.Run("upstream failure keeps the record", func(t *testing.T) {
		fake := &fakeCoordinator{
			state:     readyState(),
			importErr: fmt.Errorf("import failed: %w", errors.New("jelu request failed: HTTP 500: boom")),
		}
		router := NewRouter(RouterConfig{Coordinator: fake})

		w := doRequest(t, router, http.MethodPost, "/api/import", "")

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Contains(t, w.Body.String(), "HTTP 500")
		assert.Contains(t, w.Body.String(), `"phase":"error"`)
		assert.Contains(t, w.Body.String(), `"actions":["import"]`)
	})

	t.Run("not connected", func(t *testing.T) {
		fake := &fakeCoordinator{state: readyState(), importErr: coordinator.ErrNotConnected}
		router := NewRouter(RouterConfig{Coordinator: fake})

		w := doRequest(t, router, http.MethodPost, "/api/import", "")

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestImportController_View(t *testing.T) {
	t.Run("returns the book url", func(t *testing.T) {
		fake := &fakeCoordinator{state: coordinator.Initial(), viewURL: "http://jelu.local/books/17"}
		router := NewRouter(RouterConfig{Coordinator: fake})

		w := doRequest(t, router, http.MethodPost, "/api/view", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "http://jelu.local/books/17", decode[ViewResponse](t, w).URL)
	})

	t.Run("nothing to view", func(t *testing.T) {
		fake := &fakeCoordinator{state: coordinator.Initial()}
		router := NewRouter(RouterConfig{Coordinator: fake})

		w := doRequest(t, router, http.MethodPost, "/api/view", "")

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "no_remote_book", decode[ErrorResponse](t, w).Code)
	})
}
