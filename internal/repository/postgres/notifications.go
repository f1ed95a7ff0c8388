package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kirinyoku/frontdesk/internal/domain"
	"github.com/kirinyoku/frontdesk/internal/repository"
)

type NotificationRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *NotificationRepo) With(db DB) *NotificationRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *NotificationRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

func (r *NotificationRepo) Create(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	const op = "postgres.NotificationRepo.Create"

	id := uuid.New()
	_, err := r.handle().Exec(ctx,
		`INSERT INTO notifications (id, recipient_id, message, status, read, related_ticket_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, n.RecipientID, n.Message, n.Status, n.Read, n.RelatedTicketID, n.CreatedAt,
	)
	if err != nil {
		return domain.Notification{}, wrapDBErr(op, err)
	}

	n.ID = id.String()

	return n, nil
}

func (r *NotificationRepo) ListByRecipient(ctx context.Context, recipientID string) ([]domain.Notification, error) {
	const op = "postgres.NotificationRepo.ListByRecipient"

	rows, err := r.handle().Query(ctx,
		`SELECT id::text, recipient_id, message, status, read, related_ticket_id, created_at
		 FROM notifications
		 WHERE recipient_id = $1
		 ORDER BY created_at DESC, seq DESC`,
		recipientID,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}
	defer rows.Close()

	out := make([]domain.Notification, 0)
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(
			&n.ID, &n.RecipientID, &n.Message, &n.Status, &n.Read, &n.RelatedTicketID, &n.CreatedAt,
		); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, n)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// MarkRead returns repository.ErrNotFound if id does not exist or belongs to someone else.
func (r *NotificationRepo) MarkRead(ctx context.Context, recipientID, id string) error {
	const op = "postgres.NotificationRepo.MarkRead"

	uid, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}

	tag, err := r.handle().Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1 AND recipient_id = $2`,
		uid, recipientID,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}

	return nil
}

func (r *NotificationRepo) DeleteByRecipient(ctx context.Context, recipientID string) (int64, error) {
	const op = "postgres.NotificationRepo.DeleteByRecipient"

	tag, err := r.handle().Exec(ctx,
		`DELETE FROM notifications WHERE recipient_id = $1`,
		recipientID,
	)
	if err != nil {
		return 0, wrapDBErr(op, err)
	}

	return tag.RowsAffected(), nil
}
