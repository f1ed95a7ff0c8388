package repository

import (
	"context"
	"time"

	"github.com/kirinyoku/frontdesk/internal/domain"
)

type SessionRepo interface {
	// Get returns the session record, or an inactive zero session if none was written yet.
	Get(ctx context.Context) (domain.Session, error)
	// Save writes s if the stored version still equals s.Version and bumps it.
	// A stale version yields ErrConflict.
	Save(ctx context.Context, s domain.Session) (domain.Session, error)
}

type TicketFilter struct {
	Date        string
	OwnerID     string
	Statuses    []domain.TicketStatus
	CreatedFrom *time.Time
	// NewestFirst orders by date desc, queue number desc. Default is date asc, queue number asc.
	NewestFirst bool
}

type TicketRepo interface {
	// NextQueueNumber reserves the next number for date. Must run inside a transaction.
	NextQueueNumber(ctx context.Context, date string) (int, error)
	// Create assigns the ticket ID. A duplicate (date, queue number) yields ErrConflict.
	Create(ctx context.Context, t domain.Ticket) (domain.Ticket, error)
	Get(ctx context.Context, id string) (domain.Ticket, error)
	// GetForUpdate locks the ticket row for the rest of the transaction.
	GetForUpdate(ctx context.Context, id string) (domain.Ticket, error)
	Update(ctx context.Context, t domain.Ticket) error
	List(ctx context.Context, f TicketFilter) ([]domain.Ticket, error)
	CountByDepartment(ctx context.Context, since time.Time) ([]domain.DepartmentCount, error)
}

type NotificationRepo interface {
	Create(ctx context.Context, n domain.Notification) (domain.Notification, error)
	// ListByRecipient returns newest first.
	ListByRecipient(ctx context.Context, recipientID string) ([]domain.Notification, error)
	MarkRead(ctx context.Context, recipientID, id string) error
	DeleteByRecipient(ctx context.Context, recipientID string) (int64, error)
}

// Tx groups the repositories bound to one transaction.
type Tx interface {
	Sessions() SessionRepo
	Tickets() TicketRepo
	Notifications() NotificationRepo
}

// Store is the document store. Outside RunTx its repositories use autocommit.
type Store interface {
	Tx
	RunTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
