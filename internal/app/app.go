package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/kirinyoku/frontdesk/internal/calendar"
	"github.com/kirinyoku/frontdesk/internal/clock"
	"github.com/kirinyoku/frontdesk/internal/config"
	"github.com/kirinyoku/frontdesk/internal/domain"
	"github.com/kirinyoku/frontdesk/internal/events"
	"github.com/kirinyoku/frontdesk/internal/metrics"
	"github.com/kirinyoku/frontdesk/internal/postgres"
	"github.com/kirinyoku/frontdesk/internal/redis"
	"github.com/kirinyoku/frontdesk/internal/repository"
	"github.com/kirinyoku/frontdesk/internal/repository/memory"
	postgresrepo "github.com/kirinyoku/frontdesk/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/frontdesk/internal/repository/redis"
	"github.com/kirinyoku/frontdesk/internal/service"
	"github.com/kirinyoku/frontdesk/internal/service/query"
	"github.com/kirinyoku/frontdesk/internal/service/queue"
	"github.com/kirinyoku/frontdesk/internal/telemetry"
	httpgin "github.com/kirinyoku/frontdesk/internal/transport/http/gin"
)

const (
	serviceName     = "frontdesk"
	shutdownTimeout = 5 * time.Second
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server
	services   *service.Services
	watcher    *calendar.Watcher

	// closers run in reverse order after the workers stop.
	closers []func(ctx context.Context) error
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	const op = "app.New"

	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	a.closers = append(a.closers, telemetry.Setup(ctx, telemetry.Config{
		ServiceName: serviceName,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
	}, logger))

	store, err := a.openStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	clk := clock.Real()

	departments := make([]domain.Department, 0, len(cfg.Calendar.Departments))
	for _, d := range cfg.Calendar.Departments {
		departments = append(departments, domain.Department(d))
	}

	cal, err := calendar.New(calendar.Config{
		OpenHour:    cfg.Calendar.OpenHour,
		CloseHour:   cfg.Calendar.CloseHour,
		Slots:       cfg.Calendar.Slots,
		Departments: departments,
		Location:    cfg.Calendar.Location,
	}, clk)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	deps := service.Deps{
		Store:    store,
		Calendar: cal,
		Clock:    clk,
		Metrics:  m,
		Logger:   logger,
	}

	var idem *redisrepo.IdempotencyStore

	if cfg.Redis.Enabled() {
		rdb, err := redis.New(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })

		deps.Bus = redisrepo.NewChangesPubSub(rdb)
		deps.Cache = redisrepo.New(rdb)
		if cfg.Queue.BookingRateLimit > 0 {
			deps.Limiter = redisrepo.NewSlidingWindowLimiter(
				rdb, "booking", cfg.Queue.BookingRateLimit, cfg.Queue.BookingRateWindow,
			)
		}
		idem = redisrepo.NewIdempotencyStore(rdb, cfg.Queue.IdempotencyTTL)

		logger.Info("redis enabled", "addr", cfg.Redis.Addr)
	} else {
		deps.Bus = events.NewLocal(logger)
		logger.Info("redis disabled, using in-process change bus")
	}

	a.services = service.NewServices(deps, service.Config{
		Queue: queue.Config{MaxRetries: cfg.Queue.MaxRetries},
		Query: query.Config{
			ViewTTL: cfg.Queue.ViewCacheTTL,
			StaffID: cfg.Queue.StaffRecipientID,
		},
		AlertDepth: cfg.Queue.PositionAlertDepth,
	})

	a.watcher = calendar.NewWatcher(cal, deps.Bus, cfg.Calendar.CheckInterval, logger)

	router := httpgin.NewRouter(httpgin.Deps{
		Services:       a.services,
		Idempotency:    idem,
		Metrics:        m,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		Logger:         logger,
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           telemetry.Handler(router, serviceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

func (a *App) openStore(ctx context.Context) (repository.Store, error) {
	if a.cfg.Store.Driver == config.DriverMemory {
		a.logger.Warn("using in-memory store, data is lost on restart")
		return memory.New(), nil
	}

	pool, err := postgres.New(ctx, postgres.Config{
		DSN:      a.cfg.Postgres.DSN(),
		MaxConns: a.cfg.Postgres.MaxConns,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error {
		pool.Close()
		return nil
	})

	store := postgresrepo.NewStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	defer a.close()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		a.logger.Info("booking window watcher started")
		defer a.logger.Info("booking window watcher stopped")
		return a.watcher.Run(gCtx)
	})

	g.Go(func() error {
		a.logger.Info("live board projector started")
		defer a.logger.Info("live board projector stopped")
		if err := a.services.Live.Run(gCtx); err != nil {
			return fmt.Errorf("live board: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}

func (a *App) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Warn("shutdown", "err", err)
		}
	}
	a.closers = nil
}
