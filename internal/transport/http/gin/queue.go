package httpgin

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kirinyoku/frontdesk/internal/domain"
	"github.com/kirinyoku/frontdesk/internal/service"
	"github.com/kirinyoku/frontdesk/internal/service/query"
)

// @Summary  List the day's slots and their availability
// @Tags     calendar
// @Success  200  {object}  SlotsResponse
// @Router   /calendar/slots [get]
func handleSlots(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		writeJSONWithCache(c, http.StatusOK, SlotsResponse{
			BookingOpen: svcs.Query.BookingOpen(),
			Slots:       svcs.Query.Slots(),
		}, cachePublicShort, true)
	}
}

// @Summary  Live board: session, serving, next in line, remaining
// @Tags     queue
// @Success  200  {object}  domain.Board
// @Router   /queue [get]
func handleBoard(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		b, err := svcs.Query.Board(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.Header("Cache-Control", "no-store")
		c.JSON(http.StatusOK, b)
	}
}

// @Summary  Today's tickets ordered by number
// @Tags     queue
// @Success  200  {object}  TodayResponse
// @Router   /queue/today [get]
func handleToday(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		list, err := svcs.Query.TodayTickets(ctx)
		if err != nil {
			respondErr(c, err)
			return
		}

		b, err := svcs.Query.Board(ctx)
		if err != nil {
			respondErr(c, err)
			return
		}

		writeJSONWithCache(c, http.StatusOK, TodayResponse{
			Date:      svcs.Query.Today(),
			Tickets:   list,
			Remaining: b.Remaining,
		}, cachePublicShort, true)
	}
}

// @Summary  Ticket currently being served
// @Tags     queue
// @Success  200  {object}  ServingResponse
// @Router   /queue/serving [get]
func handleServing(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		sess, err := svcs.Query.Session(ctx)
		if err != nil {
			respondErr(c, err)
			return
		}

		t, err := svcs.Query.CurrentlyServing(ctx)
		if err != nil {
			respondErr(c, err)
			return
		}

		writeJSONWithCache(c, http.StatusOK, ServingResponse{Session: sess, Serving: t}, cachePublicShort, true)
	}
}

// @Summary  Waiting tickets after the current number
// @Tags     queue
// @Success  200  {object}  TicketsResponse
// @Router   /queue/next [get]
func handleNextInLine(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svcs.Query.NextInLine(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, TicketsResponse{Tickets: list}, cachePublicShort, true)
	}
}

// @Summary  Stream board updates (Server-Sent Events)
// @Tags     queue
// @Produce  text/event-stream
// @Success  200  {object}  domain.Board  "event: board"
// @Router   /queue/stream [get]
func handleStream(svcs *service.Services, keepAlive time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		updates, stop := svcs.Live.Watch()
		defer stop()

		// Watch hands over the latest board when there is one.
		var first domain.Board
		select {
		case first = <-updates:
		default:
			b, err := svcs.Query.Board(ctx)
			if err != nil {
				respondErr(c, err)
				return
			}
			first = b
		}

		c.Header("Cache-Control", "no-cache")
		c.Header("X-Accel-Buffering", "no")

		c.SSEvent("board", first)
		c.Writer.Flush()

		ticker := time.NewTicker(keepAlive)
		defer ticker.Stop()

		c.Stream(func(w io.Writer) bool {
			select {
			case <-ctx.Done():
				return false
			case <-svcs.Live.Done():
				return false
			case b := <-updates:
				c.SSEvent("board", b)
				return true
			case <-ticker.C:
				_, err := io.WriteString(w, ": keep-alive\n\n")
				return err == nil
			}
		})
	}
}

// @Summary  Tickets per department over the trailing days
// @Tags     stats
// @Param    days  query  int  false  "window in days (default 7)"
// @Success  200  {object}  DepartmentStatsResponse
// @Failure  400  {object}  ErrorResponse
// @Router   /stats/departments [get]
func handleDepartmentStats(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		days, ok := parsePositiveInt(c, "days", query.DefaultStatsWindowDays)
		if !ok {
			return
		}

		counts, err := svcs.Query.DepartmentCounts(c.Request.Context(), days)
		if err != nil {
			respondErr(c, err)
			return
		}

		if counts == nil {
			counts = []domain.DepartmentCount{}
		}

		writeJSONWithCache(c, http.StatusOK, DepartmentStatsResponse{Days: days, Departments: counts}, cachePublicShort, true)
	}
}
