package httpgin

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	redisrepo "github.com/kirinyoku/frontdesk/internal/repository/redis"
	"github.com/kirinyoku/frontdesk/internal/service"
	"github.com/kirinyoku/frontdesk/internal/service/queue"
)

const idempotencyLockTTL = 30 * time.Second

// @Summary  Book a ticket (idempotent)
// @Tags     tickets
// @Param    X-User-ID        header  string             true   "requester"
// @Param    Idempotency-Key  header  string             false  "replay key"
// @Param    req              body    BookTicketRequest  true   "payload"
// @Success  201  {object}  domain.Ticket
// @Failure  400  {object}  ErrorResponse
// @Failure  409  {object}  ErrorResponse  "session inactive / window closed / slot unavailable / conflict"
// @Failure  429  {object}  ErrorResponse  "rate limited"
// @Router   /tickets [post]
func handleBook(svcs *service.Services, idem *redisrepo.IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req BookTicketRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		ctx := c.Request.Context()
		owner := userID(c)

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var storageKey string
		if idem != nil && idemKey != "" {
			storageKey = redisrepo.KeyIdemBooking(owner, idemKey)

			if payload, ok, _ := idem.GetResult(ctx, storageKey); ok {
				replay(c, idemKey, payload)
				return
			}

			locked, err := idem.AcquireLock(ctx, storageKey, idempotencyLockTTL)
			if err != nil {
				// Without Redis the booking still goes through, just not deduplicated.
				storageKey = ""
			} else if !locked {
				if payload, ok, _ := idem.GetResult(ctx, storageKey); ok {
					replay(c, idemKey, payload)
					return
				}
				c.Header("Retry-After", "1")
				c.AbortWithStatusJSON(http.StatusConflict, ErrorResponse{
					Error: "idempotency key in progress",
					Kind:  string(queue.KindConflict),
				})
				return
			}
		}

		t, err := svcs.Queue.Book(ctx, queue.BookRequest{
			OwnerID:    owner,
			Department: req.Department,
			TimeSlot:   req.TimeSlot,
		})
		if err != nil {
			if storageKey != "" {
				_ = idem.Release(ctx, storageKey)
			}
			respondErr(c, err)
			return
		}

		if storageKey != "" {
			if b, err := json.Marshal(t); err == nil {
				_ = idem.SaveResult(ctx, storageKey, string(b))
			}
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, t)
	}
}

func replay(c *gin.Context, idemKey, payload string) {
	c.Header("Idempotency-Key", idemKey)
	c.Header("Idempotent-Replayed", "true")
	c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
}

// @Summary  List my tickets, newest first
// @Tags     tickets
// @Param    X-User-ID  header  string  true  "requester"
// @Success  200  {object}  TicketsResponse
// @Router   /tickets/mine [get]
func handleMyTickets(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svcs.Query.MyTickets(c.Request.Context(), userID(c))
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, TicketsResponse{Tickets: list}, cachePrivate, true)
	}
}

// @Summary  List my tickets that can still be cancelled or rescheduled
// @Tags     tickets
// @Param    X-User-ID  header  string  true  "requester"
// @Success  200  {object}  TicketsResponse
// @Router   /tickets/active [get]
func handleActiveTickets(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svcs.Query.ActiveTickets(c.Request.Context(), userID(c))
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, TicketsResponse{Tickets: list}, cachePrivate, true)
	}
}

// @Summary  Get a ticket
// @Tags     tickets
// @Param    X-User-ID  header  string  true  "requester"
// @Param    id         path    string  true  "Ticket ID"
// @Success  200  {object}  domain.Ticket
// @Failure  403  {object}  ErrorResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /tickets/{id} [get]
func handleGetTicket(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := svcs.Query.Ticket(c.Request.Context(), c.Param("id"), userID(c))
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, t, cachePrivate, true)
	}
}

// @Summary  Cancel my ticket
// @Tags     tickets
// @Param    X-User-ID  header  string  true  "requester"
// @Param    id         path    string  true  "Ticket ID"
// @Success  200  {object}  domain.Ticket
// @Failure  403  {object}  ErrorResponse
// @Failure  409  {object}  ErrorResponse  "invalid transition"
// @Router   /tickets/{id}/cancel [post]
func handleCancel(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := svcs.Queue.Cancel(c.Request.Context(), c.Param("id"), userID(c))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

// @Summary  Move my ticket to another slot, keeping its number
// @Tags     tickets
// @Param    X-User-ID  header  string             true  "requester"
// @Param    id         path    string             true  "Ticket ID"
// @Param    req        body    RescheduleRequest  true  "payload"
// @Success  200  {object}  domain.Ticket
// @Failure  409  {object}  ErrorResponse
// @Router   /tickets/{id}/reschedule [post]
func handleReschedule(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RescheduleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		t, err := svcs.Queue.Reschedule(c.Request.Context(), c.Param("id"), userID(c), req.TimeSlot)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}
