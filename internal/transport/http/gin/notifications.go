package httpgin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kirinyoku/frontdesk/internal/service"
)

// @Summary  List my notifications, newest first
// @Tags     notifications
// @Param    X-User-ID  header  string  true  "recipient"
// @Success  200  {object}  NotificationsResponse
// @Router   /notifications [get]
func handleListNotifications(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svcs.Notify.List(c.Request.Context(), userID(c))
		if err != nil {
			respondErr(c, err)
			return
		}

		unread := 0
		for _, n := range list {
			if !n.Read {
				unread++
			}
		}

		c.Header("Cache-Control", "no-store")
		c.JSON(http.StatusOK, NotificationsResponse{Notifications: list, Unread: unread})
	}
}

// @Summary  Mark one notification read
// @Tags     notifications
// @Param    X-User-ID  header  string  true  "recipient"
// @Param    id         path    string  true  "Notification ID"
// @Success  204
// @Failure  404  {object}  ErrorResponse
// @Router   /notifications/{id}/read [post]
func handleMarkRead(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svcs.Notify.MarkRead(c.Request.Context(), userID(c), c.Param("id")); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Delete all my notifications
// @Tags     notifications
// @Param    X-User-ID  header  string  true  "recipient"
// @Success  200  {object}  ClearNotificationsResponse
// @Router   /notifications [delete]
func handleClearNotifications(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := svcs.Notify.Clear(c.Request.Context(), userID(c))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, ClearNotificationsResponse{Deleted: n})
	}
}
