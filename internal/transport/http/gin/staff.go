package httpgin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kirinyoku/frontdesk/internal/service"
)

// @Summary  Start (or restart) the queue session
// @Tags     staff
// @Param    X-User-ID  header  string  true  "staff id"
// @Success  200  {object}  domain.Session
// @Failure  403  {object}  ErrorResponse
// @Router   /staff/session/start [post]
func handleStartSession(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := svcs.Queue.StartSession(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, sess)
	}
}

// @Summary  Stop the queue session
// @Tags     staff
// @Param    X-User-ID  header  string  true  "staff id"
// @Success  200  {object}  domain.Session
// @Router   /staff/session/stop [post]
func handleStopSession(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := svcs.Queue.StopSession(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, sess)
	}
}

// @Summary  Serve the next waiting ticket
// @Tags     staff
// @Param    X-User-ID  header  string  true  "staff id"
// @Success  200  {object}  domain.Ticket
// @Failure  404  {object}  ErrorResponse  "no tickets remaining"
// @Failure  409  {object}  ErrorResponse  "session inactive"
// @Router   /staff/queue/advance [post]
func handleAdvance(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := svcs.Queue.Advance(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

// @Summary  Mark a ticket missed
// @Tags     staff
// @Param    X-User-ID  header  string  true  "staff id"
// @Param    id         path    string  true  "Ticket ID"
// @Success  200  {object}  domain.Ticket
// @Failure  409  {object}  ErrorResponse
// @Router   /staff/tickets/{id}/missed [post]
func handleMarkMissed(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := svcs.Queue.MarkMissed(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}
