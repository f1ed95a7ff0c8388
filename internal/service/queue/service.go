package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirinyoku/frontdesk/internal/calendar"
	"github.com/kirinyoku/frontdesk/internal/clock"
	"github.com/kirinyoku/frontdesk/internal/domain"
	"github.com/kirinyoku/frontdesk/internal/events"
	"github.com/kirinyoku/frontdesk/internal/metrics"
	"github.com/kirinyoku/frontdesk/internal/repository"
	redisrepo "github.com/kirinyoku/frontdesk/internal/repository/redis"
	"github.com/kirinyoku/frontdesk/internal/service/notify"
	"github.com/kirinyoku/frontdesk/internal/uow"
)

const DefaultMaxRetries = 3

type Config struct {
	// MaxRetries bounds how often a conflicting transaction is repeated
	// before the caller sees ErrConcurrencyConflict.
	MaxRetries int
	// RetryBackoff is multiplied by the attempt number between retries.
	RetryBackoff time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, id string) (redisrepo.Decision, error)
}

type ViewCache interface {
	InvalidateViews(ctx context.Context) error
}

// Deps are the collaborators of Service. Cache, Limiter and Publisher are optional.
type Deps struct {
	Store      repository.Store
	Calendar   *calendar.Calendar
	Dispatcher *notify.Dispatcher
	Notifier   *notify.Service
	Publisher  events.Publisher
	Cache      ViewCache
	Limiter    Limiter
	Clock      clock.Clock
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
}

// Service is the ticket allocator and queue state machine. Every mutation
// runs in one store transaction; notifications, cache invalidation and
// change events follow the commit.
type Service struct {
	Deps
	uow *uow.UoW
	cfg Config
}

func New(deps Deps, cfg Config) *Service {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 5 * time.Millisecond
	}

	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}

	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	return &Service{
		Deps: deps,
		uow:  uow.NewUoW(deps.Store),
		cfg:  cfg,
	}
}

type BookRequest struct {
	OwnerID    string
	Department string
	TimeSlot   string
}

// Book allocates the next queue number of the service day to a new ticket.
//
// Parameters:
//   - ctx: request-scoped context.
//   - req: requester, department and slot.
//
// Returns:
//   - domain.Ticket: the stored pending ticket.
//   - error: *ValidationError for bad input.
//   - error: *AllocationError when the session is inactive, the window is closed or the slot has passed.
//   - error: *RateLimitError when the owner booked too often.
//   - error: queue.ErrConcurrencyConflict when the retry budget ran out.
func (s *Service) Book(ctx context.Context, req BookRequest) (ticket domain.Ticket, err error) {
	const op = "service.queue.Book"
	defer s.observe("book", &err)

	if req.OwnerID == "" {
		return domain.Ticket{}, fmt.Errorf("%s: %w", op, &ValidationError{Field: "owner_id", Reason: "required"})
	}

	dept, ok := s.Calendar.Department(req.Department)
	if !ok {
		return domain.Ticket{}, fmt.Errorf("%s: %w", op, &ValidationError{Field: "department", Reason: "unknown department"})
	}

	if req.TimeSlot == "" {
		return domain.Ticket{}, fmt.Errorf("%s: %w", op, &ValidationError{Field: "time_slot", Reason: "required"})
	}

	if !s.Calendar.KnownSlot(req.TimeSlot) {
		return domain.Ticket{}, fmt.Errorf("%s: %w", op, &ValidationError{Field: "time_slot", Reason: "unknown slot"})
	}

	if !s.Calendar.IsBookingWindowOpen() {
		return domain.Ticket{}, fmt.Errorf("%s: %w", op, &AllocationError{Cause: ErrBookingClosed})
	}

	if !s.Calendar.IsSlotAvailable(req.TimeSlot) {
		return domain.Ticket{}, fmt.Errorf("%s: %w", op, &AllocationError{Cause: ErrSlotUnavailable})
	}

	if s.Limiter != nil {
		d, err := s.Limiter.Allow(ctx, req.OwnerID)
		if err != nil {
			s.Logger.Warn("booking rate limiter unavailable", "owner", req.OwnerID, "err", err)
		} else if !d.Allowed {
			return domain.Ticket{}, fmt.Errorf("%s: %w", op, &RateLimitError{RetryAfter: d.RetryAfter})
		}
	}

	err = s.withRetry(ctx, "book", func() error {
		return s.uow.Do(ctx, func(ctx context.Context, tx repository.Tx, after func(uow.AfterCommit)) error {
			sess, err := tx.Sessions().Get(ctx)
			if err != nil {
				return err
			}

			if !sess.Active() || sess.StartTime == nil {
				return &AllocationError{Cause: ErrSessionInactive}
			}

			now := s.Clock.Now()
			date := s.Calendar.DateOf(now)

			// Numbers restart every service day, so a session may only
			// allocate on the day it was started.
			if s.Calendar.DateOf(*sess.StartTime) != date {
				return &AllocationError{Cause: ErrSessionExpired}
			}

			n, err := tx.Tickets().NextQueueNumber(ctx, date)
			if err != nil {
				return err
			}

			created, err := tx.Tickets().Create(ctx, domain.Ticket{
				OwnerID:     req.OwnerID,
				Department:  dept,
				Date:        date,
				TimeSlot:    req.TimeSlot,
				QueueNumber: n,
				Status:      domain.TicketPending,
				CreatedAt:   now,
				UpdatedAt:   now,
			})
			if err != nil {
				return err
			}

			ticket = created

			after(func(ctx context.Context) {
				s.Metrics.TicketAllocated(string(created.Department))
				s.announce(ctx, events.KindTicket, created.ID, []domain.Notification{
					s.Dispatcher.Booked(created, now),
				})
			})

			return nil
		})
	})
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("%s: %w", op, err)
	}

	s.Logger.Info("ticket booked",
		"ticket_id", ticket.ID,
		"owner", ticket.OwnerID,
		"date", ticket.Date,
		"queue_number", ticket.QueueNumber,
	)

	return ticket, nil
}

// StartSession activates the queue with current number 1. Calling it on an
// active session restarts it: tickets created before now stop belonging to it.
func (s *Service) StartSession(ctx context.Context) (sess domain.Session, err error) {
	const op = "service.queue.StartSession"
	defer s.observe("start_session", &err)

	err = s.withRetry(ctx, "start_session", func() error {
		return s.uow.Do(ctx, func(ctx context.Context, tx repository.Tx, after func(uow.AfterCommit)) error {
			cur, err := tx.Sessions().Get(ctx)
			if err != nil {
				return err
			}

			now := s.Clock.Now()
			cur.Status = domain.SessionActive
			cur.CurrentNumber = 1
			cur.StartTime = &now
			cur.UpdatedAt = now

			saved, err := tx.Sessions().Save(ctx, cur)
			if err != nil {
				return err
			}

			sess = saved

			after(func(ctx context.Context) {
				s.Metrics.SetCurrentNumber(saved.CurrentNumber)
				s.announce(ctx, events.KindSession, "", nil)
			})

			return nil
		})
	})
	if err != nil {
		return domain.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	s.Logger.Info("queue session started", "start_time", sess.StartTime, "version", sess.Version)

	return sess, nil
}

// StopSession deactivates the queue. Stopping an inactive session is a no-op.
func (s *Service) StopSession(ctx context.Context) (sess domain.Session, err error) {
	const op = "service.queue.StopSession"
	defer s.observe("stop_session", &err)

	err = s.withRetry(ctx, "stop_session", func() error {
		return s.uow.Do(ctx, func(ctx context.Context, tx repository.Tx, after func(uow.AfterCommit)) error {
			cur, err := tx.Sessions().Get(ctx)
			if err != nil {
				return err
			}

			if !cur.Active() {
				sess = cur
				return nil
			}

			cur.Status = domain.SessionInactive
			cur.CurrentNumber = 0
			cur.StartTime = nil
			cur.UpdatedAt = s.Clock.Now()

			saved, err := tx.Sessions().Save(ctx, cur)
			if err != nil {
				return err
			}

			sess = saved

			after(func(ctx context.Context) {
				s.Metrics.SetCurrentNumber(0)
				s.announce(ctx, events.KindSession, "", nil)
			})

			return nil
		})
	})
	if err != nil {
		return domain.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	s.Logger.Info("queue session stopped", "version", sess.Version)

	return sess, nil
}

// Advance serves the waiting session ticket with the smallest queue number
// and moves the current number to it.
//
// Returns:
//   - domain.Ticket: the ticket now served.
//   - error: queue.ErrSessionInactive if no session is running.
//   - error: queue.ErrNoTicketsRemaining if nobody is waiting.
func (s *Service) Advance(ctx context.Context) (ticket domain.Ticket, err error) {
	const op = "service.queue.Advance"
	defer s.observe("advance", &err)

	err = s.withRetry(ctx, "advance", func() error {
		return s.uow.Do(ctx, func(ctx context.Context, tx repository.Tx, after func(uow.AfterCommit)) error {
			sess, err := tx.Sessions().Get(ctx)
			if err != nil {
				return err
			}

			if !sess.Active() || sess.StartTime == nil {
				return ErrSessionInactive
			}

			waiting, err := Waiting(ctx, tx.Tickets(), sess, s.Calendar.DateOf(*sess.StartTime))
			if err != nil {
				return err
			}

			if len(waiting) == 0 {
				return ErrNoTicketsRemaining
			}

			next, err := tx.Tickets().GetForUpdate(ctx, waiting[0].ID)
			if err != nil {
				return err
			}

			if !domain.ValidTransition(domain.ActionServe, next.Status) {
				return &TransitionError{TicketID: next.ID, From: next.Status, Action: domain.ActionServe}
			}

			now := s.Clock.Now()
			next.Status = domain.ActionServe.Target()
			next.UpdatedAt = now

			if err := tx.Tickets().Update(ctx, next); err != nil {
				return err
			}

			sess.CurrentNumber = next.QueueNumber
			sess.UpdatedAt = now

			if _, err := tx.Sessions().Save(ctx, sess); err != nil {
				return err
			}

			ticket = next
			rest := waiting[1:]

			after(func(ctx context.Context) {
				s.Metrics.Transition(string(domain.ActionServe))
				s.Metrics.SetCurrentNumber(next.QueueNumber)

				ns := s.Dispatcher.For(domain.ActionServe, next, now)
				ns = append(ns, s.Dispatcher.PositionAlerts(rest, now)...)
				s.announce(ctx, events.KindTicket, next.ID, ns)
			})

			return nil
		})
	})
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("%s: %w", op, err)
	}

	s.Logger.Info("queue advanced", "ticket_id", ticket.ID, "current_number", ticket.QueueNumber)

	return ticket, nil
}

// MarkMissed records that the owner of ticketID did not show up.
// The session must be active.
func (s *Service) MarkMissed(ctx context.Context, ticketID string) (ticket domain.Ticket, err error) {
	const op = "service.queue.MarkMissed"
	defer s.observe("mark_missed", &err)

	ticket, err = s.transition(ctx, ticketID, "", domain.ActionMiss, func(ctx context.Context, tx repository.Tx, _ *domain.Ticket) error {
		sess, err := tx.Sessions().Get(ctx)
		if err != nil {
			return err
		}
		if !sess.Active() {
			return ErrSessionInactive
		}
		return nil
	})
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("%s: %w", op, err)
	}

	return ticket, nil
}

// Cancel soft-cancels a ticket on behalf of its owner. Ticket records are never deleted.
func (s *Service) Cancel(ctx context.Context, ticketID, requesterID string) (ticket domain.Ticket, err error) {
	const op = "service.queue.Cancel"
	defer s.observe("cancel", &err)

	if requesterID == "" {
		return domain.Ticket{}, fmt.Errorf("%s: %w", op, &ValidationError{Field: "requester_id", Reason: "required"})
	}

	ticket, err = s.transition(ctx, ticketID, requesterID, domain.ActionCancel, nil)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("%s: %w", op, err)
	}

	return ticket, nil
}

// Reschedule moves an owner's ticket to newSlot. The queue number is kept.
func (s *Service) Reschedule(ctx context.Context, ticketID, requesterID, newSlot string) (ticket domain.Ticket, err error) {
	const op = "service.queue.Reschedule"
	defer s.observe("reschedule", &err)

	if requesterID == "" {
		return domain.Ticket{}, fmt.Errorf("%s: %w", op, &ValidationError{Field: "requester_id", Reason: "required"})
	}

	if newSlot == "" {
		return domain.Ticket{}, fmt.Errorf("%s: %w", op, &ValidationError{Field: "time_slot", Reason: "required"})
	}

	if !s.Calendar.KnownSlot(newSlot) {
		return domain.Ticket{}, fmt.Errorf("%s: %w", op, &ValidationError{Field: "time_slot", Reason: "unknown slot"})
	}

	if !s.Calendar.IsSlotAvailable(newSlot) {
		return domain.Ticket{}, fmt.Errorf("%s: %w", op, ErrSlotUnavailable)
	}

	ticket, err = s.transition(ctx, ticketID, requesterID, domain.ActionReschedule, func(_ context.Context, _ repository.Tx, t *domain.Ticket) error {
		t.TimeSlot = newSlot
		return nil
	})
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("%s: %w", op, err)
	}

	return ticket, nil
}

// transition applies action to one ticket. When requesterID is set the
// ticket must belong to it. prepare runs inside the transaction after the
// ticket is loaded and may veto the change or adjust fields.
func (s *Service) transition(
	ctx context.Context,
	ticketID, requesterID string,
	action domain.Action,
	prepare func(ctx context.Context, tx repository.Tx, t *domain.Ticket) error,
) (domain.Ticket, error) {
	if ticketID == "" {
		return domain.Ticket{}, &ValidationError{Field: "ticket_id", Reason: "required"}
	}

	var out domain.Ticket

	err := s.withRetry(ctx, string(action), func() error {
		return s.uow.Do(ctx, func(ctx context.Context, tx repository.Tx, after func(uow.AfterCommit)) error {
			t, err := tx.Tickets().GetForUpdate(ctx, ticketID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return ErrTicketNotFound
				}
				return err
			}

			if requesterID != "" && t.OwnerID != requesterID {
				return ErrNotOwner
			}

			if !domain.ValidTransition(action, t.Status) {
				return &TransitionError{TicketID: t.ID, From: t.Status, Action: action}
			}

			if prepare != nil {
				if err := prepare(ctx, tx, &t); err != nil {
					return err
				}
			}

			now := s.Clock.Now()
			t.Status = action.Target()
			t.UpdatedAt = now

			if err := tx.Tickets().Update(ctx, t); err != nil {
				return err
			}

			out = t

			after(func(ctx context.Context) {
				s.Metrics.Transition(string(action))
				s.announce(ctx, events.KindTicket, t.ID, s.Dispatcher.For(action, t, now))
			})

			return nil
		})
	})
	if err != nil {
		return domain.Ticket{}, err
	}

	s.Logger.Info("ticket transition", "ticket_id", out.ID, "action", action, "status", out.Status)

	return out, nil
}

// withRetry repeats fn while the store reports a conflict, up to the retry budget.
func (s *Service) withRetry(ctx context.Context, operation string, fn func() error) error {
	var err error

	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			s.Metrics.ConflictRetried(operation)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * s.cfg.RetryBackoff):
			}
		}

		err = fn()
		if !errors.Is(err, repository.ErrConflict) {
			return err
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrConcurrencyConflict, s.cfg.MaxRetries+1, err)
}

// announce runs after a commit. Failures are logged and never undo the transition.
func (s *Service) announce(ctx context.Context, kind events.Kind, ticketID string, ns []domain.Notification) {
	if s.Cache != nil {
		if err := s.Cache.InvalidateViews(ctx); err != nil {
			s.Logger.Error("invalidate views", "ticket_id", ticketID, "err", err)
		}
	}

	if s.Publisher != nil {
		err := s.Publisher.Publish(ctx, events.Change{
			Kind:     kind,
			TicketID: ticketID,
			TsUnix:   s.Clock.Now().Unix(),
		})
		if err != nil {
			s.Logger.Error("publish change", "kind", kind, "ticket_id", ticketID, "err", err)
		}
	}

	if s.Notifier != nil && len(ns) > 0 {
		s.Notifier.Deliver(ctx, ns)
	}
}

func (s *Service) observe(operation string, errp *error) {
	if *errp == nil {
		return
	}

	kind := KindOf(*errp)
	s.Metrics.OperationFailed(operation, string(kind))

	if kind == KindInternal || kind == KindUnavailable {
		s.Logger.Error("queue operation failed", "operation", operation, "kind", kind, "err", *errp)
	}
}

// Waiting lists the pending and rescheduled tickets of sess booked on its
// service day, in queue number order.
func Waiting(ctx context.Context, tickets repository.TicketRepo, sess domain.Session, day string) ([]domain.Ticket, error) {
	if !sess.Active() || sess.StartTime == nil {
		return []domain.Ticket{}, nil
	}

	list, err := tickets.List(ctx, repository.TicketFilter{
		Date:        day,
		Statuses:    []domain.TicketStatus{domain.TicketPending, domain.TicketRescheduled},
		CreatedFrom: sess.StartTime,
	})
	if err != nil {
		return nil, err
	}

	return list, nil
}
