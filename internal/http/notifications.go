package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/jelu-importer/internal/notify"
)

// NotificationBoard holds the status messages shown to the user.
type NotificationBoard interface {
	Active() []notify.Notification
	Dismiss(id uint64)
}

type NotificationsController struct {
	board NotificationBoard
}

func NewNotificationsController(board NotificationBoard) *NotificationsController {
	return &NotificationsController{board: board}
}

// List returns the active notifications, newest first.
func (nc *NotificationsController) List(c *gin.Context) {
	if nc.board == nil {
		c.JSON(http.StatusOK, []notify.Notification{})
		return
	}
	c.JSON(http.StatusOK, nc.board.Active())
}

func (nc *NotificationsController) Dismiss(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondBadRequest(c, "invalid id")
		return
	}
	if nc.board != nil {
		nc.board.Dismiss(id)
	}
	c.Status(http.StatusNoContent)
}
