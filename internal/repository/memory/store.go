package memory

import (
	"context"
	"sync"

	"github.com/kirinyoku/frontdesk/internal/domain"
	"github.com/kirinyoku/frontdesk/internal/repository"
)

// Store is an in-process repository.Store. RunTx holds an exclusive lock for
// the whole callback and replays an undo journal if the callback fails, so a
// transaction is all-or-nothing and transactions never interleave. The
// journal only holds the rows the callback touched.
//
// Repositories obtained from the Store itself lock per call; they must not be
// used from inside a RunTx callback.
type Store struct {
	mu   sync.RWMutex
	data *state
	undo []func()
}

type notificationRec struct {
	n   domain.Notification
	seq int64
}

type state struct {
	session       domain.Session
	tickets       map[string]domain.Ticket
	notifications map[string]notificationRec
	seq           int64
}

func newState() *state {
	return &state{
		session:       domain.Session{Status: domain.SessionInactive},
		tickets:       make(map[string]domain.Ticket),
		notifications: make(map[string]notificationRec),
	}
}

func New() *Store {
	return &Store{data: newState()}
}

var _ repository.Store = (*Store)(nil)

func (s *Store) RunTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.undo = s.undo[:0]

	committed := false
	defer func() {
		if !committed {
			for i := len(s.undo) - 1; i >= 0; i-- {
				s.undo[i]()
			}
		}
		clear(s.undo)
		s.undo = s.undo[:0]
	}()

	if err := fn(ctx, txView{st: s}); err != nil {
		return err
	}
	committed = true

	return nil
}

func (s *Store) Sessions() repository.SessionRepo {
	return &sessionRepo{st: s, auto: true}
}

func (s *Store) Tickets() repository.TicketRepo {
	return &ticketRepo{st: s, auto: true}
}

func (s *Store) Notifications() repository.NotificationRepo {
	return &notificationRepo{st: s, auto: true}
}

type txView struct {
	st *Store
}

func (v txView) Sessions() repository.SessionRepo {
	return &sessionRepo{st: v.st}
}

func (v txView) Tickets() repository.TicketRepo {
	return &ticketRepo{st: v.st}
}

func (v txView) Notifications() repository.NotificationRepo {
	return &notificationRepo{st: v.st}
}

// locker is embedded by every repo. Inside a transaction the store lock is already held.
type locker struct {
	st   *Store
	auto bool
}

func (l locker) read() func() {
	if !l.auto {
		return func() {}
	}
	l.st.mu.RLock()
	return l.st.mu.RUnlock
}

// remember journals an undo step. Outside a transaction writes are final.
func (l locker) remember(undo func()) {
	if l.auto {
		return
	}
	l.st.undo = append(l.st.undo, undo)
}

func (l locker) write() func() {
	if !l.auto {
		return func() {}
	}
	l.st.mu.Lock()
	return l.st.mu.Unlock
}
