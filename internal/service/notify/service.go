package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kirinyoku/frontdesk/internal/clock"
	"github.com/kirinyoku/frontdesk/internal/domain"
	"github.com/kirinyoku/frontdesk/internal/events"
	"github.com/kirinyoku/frontdesk/internal/metrics"
	"github.com/kirinyoku/frontdesk/internal/repository"
)

// Service is the notification sink plus the recipient's inbox.
type Service struct {
	store   repository.Store
	pub     events.Publisher
	clock   clock.Clock
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func New(
	store repository.Store,
	pub events.Publisher,
	clk clock.Clock,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		store:   store,
		pub:     pub,
		clock:   clk,
		metrics: m,
		logger:  logger,
	}
}

// Send records one notification and announces it to subscribers.
func (s *Service) Send(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	const op = "service.notify.Send"

	if n.RecipientID == "" {
		return domain.Notification{}, fmt.Errorf("%s: %w", op, ErrRecipientRequired)
	}

	if n.Status == "" {
		n.Status = domain.NotifyPending
	}

	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.clock.Now()
	}

	saved, err := s.store.Notifications().Create(ctx, n)
	if err != nil {
		return domain.Notification{}, fmt.Errorf("%s: %w", op, err)
	}

	s.publish(ctx, saved.RecipientID)

	return saved, nil
}

// Deliver sends every notification in ns. Failures do not stop the batch;
// each one is logged and counted.
func (s *Service) Deliver(ctx context.Context, ns []domain.Notification) {
	for _, n := range ns {
		if _, err := s.Send(ctx, n); err != nil {
			s.metrics.NotificationFailed()
			s.logger.Error("notification delivery failed",
				"recipient", n.RecipientID,
				"ticket_id", n.RelatedTicketID,
				"status", n.Status,
				"err", err,
			)
		}
	}
}

// List returns the recipient's notifications, newest first.
func (s *Service) List(ctx context.Context, recipientID string) ([]domain.Notification, error) {
	const op = "service.notify.List"

	if recipientID == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrRecipientRequired)
	}

	ns, err := s.store.Notifications().ListByRecipient(ctx, recipientID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return ns, nil
}

func (s *Service) MarkRead(ctx context.Context, recipientID, id string) error {
	const op = "service.notify.MarkRead"

	if recipientID == "" {
		return fmt.Errorf("%s: %w", op, ErrRecipientRequired)
	}

	if err := s.store.Notifications().MarkRead(ctx, recipientID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrNotificationNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	s.publish(ctx, recipientID)

	return nil
}

// Clear deletes every notification of the recipient and returns how many were removed.
func (s *Service) Clear(ctx context.Context, recipientID string) (int64, error) {
	const op = "service.notify.Clear"

	if recipientID == "" {
		return 0, fmt.Errorf("%s: %w", op, ErrRecipientRequired)
	}

	n, err := s.store.Notifications().DeleteByRecipient(ctx, recipientID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if n > 0 {
		s.publish(ctx, recipientID)
	}

	return n, nil
}

func (s *Service) publish(ctx context.Context, recipientID string) {
	if s.pub == nil {
		return
	}

	err := s.pub.Publish(ctx, events.Change{
		Kind:        events.KindNotification,
		RecipientID: recipientID,
		TsUnix:      s.clock.Now().Unix(),
	})
	if err != nil {
		s.logger.Warn("publish notification change", "recipient", recipientID, "err", err)
	}
}
