package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/jelu-importer/internal/coordinator"
)

type LoginRequest struct {
	URL      string `json:"url"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type SessionResponse struct {
	Connected bool                     `json:"connected"`
	Session   *coordinator.SessionInfo `json:"session,omitempty"`
}

type SessionController struct {
	coordinator ImportCoordinator
	throttle    *LoginThrottle
}

func NewSessionController(c ImportCoordinator, throttle *LoginThrottle) *SessionController {
	return &SessionController{coordinator: c, throttle: throttle}
}

func (sc *SessionController) GetSession(c *gin.Context) {
	info, ok := sc.coordinator.Session()
	if !ok {
		c.JSON(http.StatusOK, SessionResponse{})
		return
	}
	c.JSON(http.StatusOK, SessionResponse{Connected: true, Session: &info})
}

// Login connects to the library. Repeated failures for the same client and
// username are throttled.
func (sc *SessionController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	ip := c.ClientIP()
	username := strings.TrimSpace(req.Username)
	if allowed, retryAfter := sc.throttle.Allow(ip, username); !allowed {
		c.Header("Retry-After", retryAfter.String())
		c.JSON(http.StatusTooManyRequests, ErrorResponse{
			Error:   "too many login attempts",
			Code:    "throttled",
			Details: gin.H{"retry_after": retryAfter.String()},
		})
		return
	}

	s, err := sc.coordinator.Login(c.Request.Context(), req.URL, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, coordinator.ErrConnectionFailed) {
			sc.throttle.RecordFailure(ip, username)
		}
		respondCoordinatorError(c, err, s)
		return
	}
	sc.throttle.RecordSuccess(ip, username)

	info, _ := sc.coordinator.Session()
	c.JSON(http.StatusOK, SessionResponse{Connected: true, Session: &info})
}

func (sc *SessionController) Logout(c *gin.Context) {
	if _, err := sc.coordinator.Logout(c.Request.Context()); err != nil {
		respondInternalError(c, err, "logout")
		return
	}
	respondSuccess(c, "Disconnected from Jelu.")
}
