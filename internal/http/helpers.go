package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mrlokans/jelu-importer/internal/coordinator"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error code
	Details any    `json:"details,omitempty"` // current state, validation errors, etc.
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// --- Error Response Helpers ---

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// respondInternalError logs the error and sends a 500 without exposing it.
func respondInternalError(c *gin.Context, err error, context string) {
	logrus.WithError(err).WithField("context", context).Error("Internal error")
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

// --- Success Response Helpers ---

func respondSuccess(c *gin.Context, message string) {
	c.JSON(http.StatusOK, SuccessResponse{Message: message})
}

// --- Coordinator errors ---

// coordinatorErrorStatus maps a coordinator error to an HTTP status and code.
func coordinatorErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, coordinator.ErrNotProviderPage):
		return http.StatusBadRequest, "not_provider_page"
	case errors.Is(err, coordinator.ErrMissingFields):
		return http.StatusBadRequest, "missing_fields"
	case errors.Is(err, coordinator.ErrConnectionFailed):
		return http.StatusUnauthorized, "connection_failed"
	case errors.Is(err, coordinator.ErrNotConnected):
		return http.StatusConflict, "not_connected"
	case errors.Is(err, coordinator.ErrNoRecord):
		return http.StatusConflict, "no_record"
	case errors.Is(err, coordinator.ErrActionUnavailable):
		return http.StatusConflict, "action_unavailable"
	case errors.Is(err, coordinator.ErrNoRemoteBook):
		return http.StatusConflict, "no_remote_book"
	default:
		return http.StatusBadGateway, "upstream_failed"
	}
}

// respondCoordinatorError sends err with the state the coordinator settled in.
func respondCoordinatorError(c *gin.Context, err error, details any) {
	status, code := coordinatorErrorStatus(err)
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code, Details: details})
}
