package httpgin

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/kirinyoku/frontdesk/internal/metrics"
	redisrepo "github.com/kirinyoku/frontdesk/internal/repository/redis"
	"github.com/kirinyoku/frontdesk/internal/service"
)

// Deps are the collaborators of the router. Idempotency, Metrics and
// MetricsHandler are optional.
type Deps struct {
	Services       *service.Services
	Idempotency    *redisrepo.IdempotencyStore
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler
	Logger         *slog.Logger
	// StreamKeepAlive is the interval of SSE keep-alive comments.
	StreamKeepAlive time.Duration
}

func NewRouter(deps Deps, middlewares ...gin.HandlerFunc) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	if deps.StreamKeepAlive <= 0 {
		deps.StreamKeepAlive = 15 * time.Second
	}

	svcs := deps.Services

	r := gin.New()

	r.Use(gin.Recovery(), RequestIDMiddleware(), LoggingMiddleware(deps.Logger), MetricsMiddleware(deps.Metrics), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if deps.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(deps.MetricsHandler))
	}

	// Public displays
	r.GET("/calendar/slots", handleSlots(svcs))
	r.GET("/queue", handleBoard(svcs))
	r.GET("/queue/today", handleToday(svcs))
	r.GET("/queue/serving", handleServing(svcs))
	r.GET("/queue/next", handleNextInLine(svcs))
	r.GET("/queue/stream", handleStream(svcs, deps.StreamKeepAlive))
	r.GET("/stats/departments", handleDepartmentStats(svcs))

	user := r.Group("/", RequireUser())
	{
		user.POST("/tickets", handleBook(svcs, deps.Idempotency))
		user.GET("/tickets/mine", handleMyTickets(svcs))
		user.GET("/tickets/active", handleActiveTickets(svcs))
		user.GET("/tickets/:id", handleGetTicket(svcs))
		user.POST("/tickets/:id/cancel", handleCancel(svcs))
		user.POST("/tickets/:id/reschedule", handleReschedule(svcs))

		user.GET("/notifications", handleListNotifications(svcs))
		user.POST("/notifications/:id/read", handleMarkRead(svcs))
		user.DELETE("/notifications", handleClearNotifications(svcs))
	}

	staff := r.Group("/staff", RequireUser(), RequireStaff(svcs.Query.IsStaff))
	{
		staff.POST("/session/start", handleStartSession(svcs))
		staff.POST("/session/stop", handleStopSession(svcs))
		staff.POST("/queue/advance", handleAdvance(svcs))
		staff.POST("/tickets/:id/missed", handleMarkMissed(svcs))
	}

	return r
}

func parsePositiveInt(c *gin.Context, name string, def int) (int, bool) {
	s := c.Query(name)
	if s == "" {
		return def, true
	}

	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}

	return v, true
}
