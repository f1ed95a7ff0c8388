package events

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type Kind string

const (
	KindSession       Kind = "session"
	KindTicket        Kind = "ticket"
	KindNotification  Kind = "notification"
	KindBookingWindow Kind = "booking_window"
)

// Change announces that stored queue data (or the booking window) changed.
// Readers re-derive their projections from the store; the message carries
// only enough to route it.
type Change struct {
	Kind        Kind   `json:"kind"`
	TicketID    string `json:"ticket_id,omitempty"`
	RecipientID string `json:"recipient_id,omitempty"`
	Open        bool   `json:"open,omitempty"`
	TsUnix      int64  `json:"ts_unix"`
}

type Publisher interface {
	Publish(ctx context.Context, c Change) error
}

// Subscriber delivers changes to handler until ctx is done.
type Subscriber interface {
	Subscribe(ctx context.Context, handler func(ctx context.Context, c Change)) error
}

type Bus interface {
	Publisher
	Subscriber
}

const localBuffer = 256

// Local is an in-process Bus for single-node deployments. Slow subscribers
// lose messages instead of blocking publishers.
type Local struct {
	mu     sync.RWMutex
	subs   map[int]chan Change
	next   int
	logger *slog.Logger
}

func NewLocal(logger *slog.Logger) *Local {
	if logger == nil {
		logger = slog.Default()
	}
	return &Local{subs: make(map[int]chan Change), logger: logger}
}

func (l *Local) Publish(_ context.Context, c Change) error {
	if c.TsUnix == 0 {
		c.TsUnix = time.Now().Unix()
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	for id, ch := range l.subs {
		select {
		case ch <- c:
		default:
			l.logger.Warn("events: dropped change for slow subscriber", "subscriber", id, "kind", c.Kind)
		}
	}

	return nil
}

func (l *Local) Subscribe(ctx context.Context, handler func(ctx context.Context, c Change)) error {
	ch := make(chan Change, localBuffer)

	l.mu.Lock()
	id := l.next
	l.next++
	l.subs[id] = ch
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		delete(l.subs, id)
		l.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c := <-ch:
			handler(ctx, c)
		}
	}
}
