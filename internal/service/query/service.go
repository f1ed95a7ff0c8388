package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirinyoku/frontdesk/internal/calendar"
	"github.com/kirinyoku/frontdesk/internal/domain"
	"github.com/kirinyoku/frontdesk/internal/repository"
	redisrepo "github.com/kirinyoku/frontdesk/internal/repository/redis"
	"github.com/kirinyoku/frontdesk/internal/service/queue"
)

const DefaultStatsWindowDays = 7

type Config struct {
	ViewTTL time.Duration
	// StaffID may read any ticket.
	StaffID string
}

// Service computes read-only projections of the session and its tickets.
// With a cache, projections are stored per view generation, which every
// committed mutation bumps.
type Service struct {
	store  repository.Store
	cal    *calendar.Calendar
	cache  *redisrepo.Cache
	cfg    Config
	logger *slog.Logger
}

func New(
	store repository.Store,
	cal *calendar.Calendar,
	cache *redisrepo.Cache,
	cfg Config,
	logger *slog.Logger,
) *Service {
	if cfg.ViewTTL <= 0 {
		cfg.ViewTTL = 30 * time.Second
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		store:  store,
		cal:    cal,
		cache:  cache,
		cfg:    cfg,
		logger: logger,
	}
}

func cached[T any](
	ctx context.Context,
	s *Service,
	loader func(ctx context.Context) (T, error),
	name string,
	parts ...string,
) (T, error) {
	if s.cache == nil {
		return loader(ctx)
	}

	var loadErr error
	v, err := redisrepo.GetOrSetView(ctx, s.cache, s.cfg.ViewTTL, func(ctx context.Context) (T, error) {
		v, err := loader(ctx)
		loadErr = err
		return v, err
	}, name, parts...)
	if err != nil && loadErr == nil {
		s.logger.Warn("view cache unavailable, reading store", "view", name, "err", err)
		return loader(ctx)
	}

	return v, err
}

func (s *Service) Session(ctx context.Context) (domain.Session, error) {
	const op = "service.query.Session"

	sess, err := s.store.Sessions().Get(ctx)
	if err != nil {
		return domain.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	return sess, nil
}

// CurrentlyServing returns the session ticket whose number equals the
// current number, or nil if there is none.
func (s *Service) CurrentlyServing(ctx context.Context) (*domain.Ticket, error) {
	const op = "service.query.CurrentlyServing"

	b, err := s.boardCore(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return b.Serving, nil
}

// NextInLine lists the session tickets numbered after the current number, ascending,
// including ones already cancelled or missed.
func (s *Service) NextInLine(ctx context.Context) ([]domain.Ticket, error) {
	const op = "service.query.NextInLine"

	b, err := s.boardCore(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return b.NextInLine, nil
}

// Board is the live display: session, currently serving, next in line,
// remaining count and whether booking is open.
func (s *Service) Board(ctx context.Context) (domain.Board, error) {
	const op = "service.query.Board"

	b, err := s.boardCore(ctx)
	if err != nil {
		return domain.Board{}, fmt.Errorf("%s: %w", op, err)
	}

	b.BookingOpen = s.cal.IsBookingWindowOpen()
	b.GeneratedAt = s.cal.Now()

	return b, nil
}

func (s *Service) boardCore(ctx context.Context) (domain.Board, error) {
	return cached(ctx, s, s.loadBoard, "board")
}

func (s *Service) loadBoard(ctx context.Context) (domain.Board, error) {
	sess, err := s.store.Sessions().Get(ctx)
	if err != nil {
		return domain.Board{}, err
	}

	b := domain.Board{
		Session:    sess,
		NextInLine: []domain.Ticket{},
	}

	if !sess.Active() || sess.StartTime == nil {
		return b, nil
	}

	members, err := s.store.Tickets().List(ctx, repository.TicketFilter{
		Date:        s.cal.DateOf(*sess.StartTime),
		CreatedFrom: sess.StartTime,
	})
	if err != nil {
		return domain.Board{}, err
	}

	// Next in line is every number after the current one, whatever its
	// status. Remaining only counts tickets still waiting.
	for _, t := range members {
		switch {
		case t.QueueNumber == sess.CurrentNumber && b.Serving == nil:
			serving := t
			b.Serving = &serving
		case t.QueueNumber > sess.CurrentNumber:
			b.NextInLine = append(b.NextInLine, t)
		}

		if t.Status.Waiting() {
			b.Remaining++
		}
	}

	return b, nil
}

// TodayTickets lists every ticket of the current service day ordered by number.
func (s *Service) TodayTickets(ctx context.Context) ([]domain.Ticket, error) {
	const op = "service.query.TodayTickets"

	today := s.cal.Today()

	list, err := cached(ctx, s, func(ctx context.Context) ([]domain.Ticket, error) {
		return s.store.Tickets().List(ctx, repository.TicketFilter{Date: today})
	}, "today", today)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return list, nil
}

// MyTickets lists the owner's tickets, newest service day first.
func (s *Service) MyTickets(ctx context.Context, ownerID string) ([]domain.Ticket, error) {
	const op = "service.query.MyTickets"

	if ownerID == "" {
		return nil, fmt.Errorf("%s: %w", op, &queue.ValidationError{Field: "owner_id", Reason: "required"})
	}

	list, err := cached(ctx, s, func(ctx context.Context) ([]domain.Ticket, error) {
		return s.store.Tickets().List(ctx, repository.TicketFilter{OwnerID: ownerID, NewestFirst: true})
	}, "mine", ownerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return list, nil
}

// ActiveTickets lists the owner's tickets that can still be cancelled or
// rescheduled: waiting, booked today and part of the running session.
func (s *Service) ActiveTickets(ctx context.Context, ownerID string) ([]domain.Ticket, error) {
	const op = "service.query.ActiveTickets"

	if ownerID == "" {
		return nil, fmt.Errorf("%s: %w", op, &queue.ValidationError{Field: "owner_id", Reason: "required"})
	}

	today := s.cal.Today()

	list, err := cached(ctx, s, func(ctx context.Context) ([]domain.Ticket, error) {
		sess, err := s.store.Sessions().Get(ctx)
		if err != nil {
			return nil, err
		}

		if !sess.Active() || sess.StartTime == nil || s.cal.DateOf(*sess.StartTime) != today {
			return []domain.Ticket{}, nil
		}

		return s.store.Tickets().List(ctx, repository.TicketFilter{
			Date:        today,
			OwnerID:     ownerID,
			Statuses:    []domain.TicketStatus{domain.TicketPending, domain.TicketRescheduled},
			CreatedFrom: sess.StartTime,
		})
	}, "active", ownerID, today)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return list, nil
}

// Ticket returns one ticket. Only its owner or staff may read it.
func (s *Service) Ticket(ctx context.Context, id, requesterID string) (domain.Ticket, error) {
	const op = "service.query.Ticket"

	t, err := s.store.Tickets().Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Ticket{}, fmt.Errorf("%s: %w", op, ErrTicketNotFound)
		}
		return domain.Ticket{}, fmt.Errorf("%s: %w", op, err)
	}

	if requesterID != t.OwnerID && (s.cfg.StaffID == "" || requesterID != s.cfg.StaffID) {
		return domain.Ticket{}, fmt.Errorf("%s: %w", op, ErrNotOwner)
	}

	return t, nil
}

// DepartmentCounts counts tickets per department created in the trailing
// windowDays days, excluding the unknown department.
func (s *Service) DepartmentCounts(ctx context.Context, windowDays int) ([]domain.DepartmentCount, error) {
	const op = "service.query.DepartmentCounts"

	if windowDays <= 0 {
		return nil, fmt.Errorf("%s: %w", op, &queue.ValidationError{Field: "days", Reason: "must be positive"})
	}

	since := s.cal.Now().Add(-time.Duration(windowDays) * 24 * time.Hour)

	counts, err := cached(ctx, s, func(ctx context.Context) ([]domain.DepartmentCount, error) {
		return s.store.Tickets().CountByDepartment(ctx, since)
	}, "departments", fmt.Sprint(windowDays), s.cal.Now().Format("2006-01-02T15"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return counts, nil
}

// Slots lists the day's slots with their availability right now.
func (s *Service) Slots() []domain.Slot {
	return s.cal.Slots()
}

func (s *Service) BookingOpen() bool {
	return s.cal.IsBookingWindowOpen()
}

// IsStaff reports whether id is the staff recipient.
func (s *Service) IsStaff(id string) bool {
	return id != "" && id == s.cfg.StaffID
}

// Today is the current service day.
func (s *Service) Today() string {
	return s.cal.Today()
}
