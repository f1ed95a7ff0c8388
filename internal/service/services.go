package service

import (
	"log/slog"

	"github.com/kirinyoku/frontdesk/internal/calendar"
	"github.com/kirinyoku/frontdesk/internal/clock"
	"github.com/kirinyoku/frontdesk/internal/events"
	"github.com/kirinyoku/frontdesk/internal/metrics"
	"github.com/kirinyoku/frontdesk/internal/repository"
	redisrepo "github.com/kirinyoku/frontdesk/internal/repository/redis"
	"github.com/kirinyoku/frontdesk/internal/service/notify"
	"github.com/kirinyoku/frontdesk/internal/service/query"
	"github.com/kirinyoku/frontdesk/internal/service/queue"
)

type Services struct {
	Queue  *queue.Service
	Query  *query.Service
	Notify *notify.Service
	Live   *query.Live
}

type Config struct {
	Queue queue.Config
	Query query.Config
	// AlertDepth is how many waiting tickets get a position alert after each advance.
	AlertDepth int
}

// Deps gathers the infrastructure shared by the services. Cache and
// Limiter may be nil when Redis is not configured.
type Deps struct {
	Store    repository.Store
	Calendar *calendar.Calendar
	Bus      events.Bus
	Cache    *redisrepo.Cache
	Limiter  *redisrepo.SlidingWindowLimiter
	Clock    clock.Clock
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

func NewServices(deps Deps, cfg Config) *Services {
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}

	notifier := notify.New(deps.Store, deps.Bus, deps.Clock, deps.Metrics, deps.Logger)
	dispatcher := notify.NewDispatcher(cfg.Query.StaffID, cfg.AlertDepth)
	cfg.Query.StaffID = dispatcher.StaffRecipient()

	qd := queue.Deps{
		Store:      deps.Store,
		Calendar:   deps.Calendar,
		Dispatcher: dispatcher,
		Notifier:   notifier,
		Publisher:  deps.Bus,
		Clock:      deps.Clock,
		Metrics:    deps.Metrics,
		Logger:     deps.Logger,
	}

	// Interfaces must stay nil rather than hold nil pointers.
	if deps.Cache != nil {
		qd.Cache = deps.Cache
	}
	if deps.Limiter != nil {
		qd.Limiter = deps.Limiter
	}

	q := query.New(deps.Store, deps.Calendar, deps.Cache, cfg.Query, deps.Logger)

	return &Services{
		Queue:  queue.New(qd, cfg.Queue),
		Query:  q,
		Notify: notifier,
		Live:   query.NewLive(q, deps.Bus, deps.Metrics, deps.Logger),
	}
}
