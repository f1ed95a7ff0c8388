package query

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/kirinyoku/frontdesk/internal/domain"
	"github.com/kirinyoku/frontdesk/internal/events"
	"github.com/kirinyoku/frontdesk/internal/metrics"
)

// Live keeps the latest board and pushes a fresh one to every watcher
// whenever a queue change or booking window flip is announced.
type Live struct {
	query   *Service
	sub     events.Subscriber
	metrics *metrics.Metrics
	logger  *slog.Logger

	mu      sync.RWMutex
	clients map[chan domain.Board]struct{}
	last    *domain.Board

	done     chan struct{}
	doneOnce sync.Once
}

func NewLive(q *Service, sub events.Subscriber, m *metrics.Metrics, logger *slog.Logger) *Live {
	if logger == nil {
		logger = slog.Default()
	}

	return &Live{
		query:   q,
		sub:     sub,
		metrics: m,
		logger:  logger,
		clients: make(map[chan domain.Board]struct{}),
		done:    make(chan struct{}),
	}
}

// Run blocks until ctx is done. Done is closed once it returns.
func (l *Live) Run(ctx context.Context) error {
	defer l.doneOnce.Do(func() { close(l.done) })

	l.Refresh(ctx)

	err := l.sub.Subscribe(ctx, func(ctx context.Context, c events.Change) {
		if c.Kind == events.KindNotification {
			return
		}
		l.Refresh(ctx)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}

// Refresh recomputes the board and fans it out.
func (l *Live) Refresh(ctx context.Context) {
	b, err := l.query.Board(ctx)
	if err != nil {
		if ctx.Err() == nil {
			l.logger.Error("live board refresh", "err", err)
		}
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.last = &b
	for ch := range l.clients {
		offer(ch, b)
	}
}

// Watch registers a watcher. The channel holds at most one board; a slow
// reader only ever sees the newest. Call stop to unregister.
func (l *Live) Watch() (<-chan domain.Board, func()) {
	ch := make(chan domain.Board, 1)

	l.mu.Lock()
	l.clients[ch] = struct{}{}
	if l.last != nil {
		ch <- *l.last
	}
	l.mu.Unlock()

	l.metrics.LiveClientConnected()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.clients, ch)
			l.mu.Unlock()
			l.metrics.LiveClientDisconnected()
		})
	}

	return ch, stop
}

// Done is closed when Run has returned. Watchers should stop streaming then.
func (l *Live) Done() <-chan struct{} {
	return l.done
}

func (l *Live) Clients() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.clients)
}

func offer(ch chan domain.Board, b domain.Board) {
	select {
	case ch <- b:
		return
	default:
	}

	select {
	case <-ch:
	default:
	}

	select {
	case ch <- b:
	default:
	}
}
