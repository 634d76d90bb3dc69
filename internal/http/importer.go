package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/jelu-importer/internal/coordinator"
)

// ImportCoordinator is the part of the coordinator the API drives.
type ImportCoordinator interface {
	State() coordinator.State
	Session() (coordinator.SessionInfo, bool)
	Navigate(ctx context.Context, rawURL string) (coordinator.State, error)
	Scrape(ctx context.Context, rawURL string) (coordinator.State, error)
	Import(ctx context.Context) (coordinator.State, error)
	View() (string, error)
	Login(ctx context.Context, serviceURL, username, password string) (coordinator.State, error)
	Logout(ctx context.Context) (coordinator.State, error)
}

// StateResponse is the coordinator state as rendered by the API.
type StateResponse struct {
	coordinator.State
	Actions []coordinator.Action     `json:"actions"`
	Session *coordinator.SessionInfo `json:"session,omitempty"`
}

type PageRequest struct {
	URL string `json:"url" binding:"required"`
}

type ViewResponse struct {
	URL string `json:"url"`
}

// ImportController exposes the coordinator's scrape, import and view actions.
type ImportController struct {
	coordinator ImportCoordinator
}

// NewImportController creates a new ImportController.
func NewImportController(c ImportCoordinator) *ImportController {
	return &ImportController{coordinator: c}
}

func (ic *ImportController) render(s coordinator.State) StateResponse {
	resp := StateResponse{State: s, Actions: s.Actions()}
	if info, ok := ic.coordinator.Session(); ok {
		resp.Session = &info
	}
	return resp
}

func (ic *ImportController) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, ic.render(ic.coordinator.State()))
}

// Navigate reports that the active page changed.
func (ic *ImportController) Navigate(c *gin.Context) {
	var req PageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "url is required")
		return
	}

	s, err := ic.coordinator.Navigate(c.Request.Context(), req.URL)
	if err != nil {
		respondCoordinatorError(c, err, ic.render(s))
		return
	}
	c.JSON(http.StatusOK, ic.render(s))
}

func (ic *ImportController) Scrape(c *gin.Context) {
	var req PageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "url is required")
		return
	}

	s, err := ic.coordinator.Scrape(c.Request.Context(), req.URL)
	if err != nil {
		respondCoordinatorError(c, err, ic.render(s))
		return
	}
	c.JSON(http.StatusOK, ic.render(s))
}

func (ic *ImportController) Import(c *gin.Context) {
	s, err := ic.coordinator.Import(c.Request.Context())
	if err != nil {
		respondCoordinatorError(c, err, ic.render(s))
		return
	}
	c.JSON(http.StatusOK, ic.render(s))
}

// View returns the library URL of the current book. The client opens it.
func (ic *ImportController) View(c *gin.Context) {
	target, err := ic.coordinator.View()
	if err != nil {
		respondCoordinatorError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, ViewResponse{URL: target})
}
