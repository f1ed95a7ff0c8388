package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kirinyoku/frontdesk/internal/domain"
	"github.com/kirinyoku/frontdesk/internal/repository"
)

var ticketColumns = []string{
	"id::text", "owner_id", "department", "service_date", "time_slot",
	"queue_number", "status", "created_at", "updated_at",
}

type TicketRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *TicketRepo) With(db DB) *TicketRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *TicketRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// NextQueueNumber bumps the per-day counter and returns the claimed number.
// The counter row stays locked until the surrounding transaction ends, and a
// rollback releases the number again, which keeps each day contiguous.
func (r *TicketRepo) NextQueueNumber(ctx context.Context, date string) (int, error) {
	const op = "postgres.TicketRepo.NextQueueNumber"

	db := r.handle()

	var n int
	err := db.QueryRow(ctx,
		`INSERT INTO ticket_sequences (service_date, last_number)
		 VALUES ($1, 1)
		 ON CONFLICT (service_date) DO UPDATE
		 SET last_number = ticket_sequences.last_number + 1
		 RETURNING last_number`,
		date,
	).Scan(&n)
	if err != nil {
		return 0, wrapDBErr(op, err)
	}

	return n, nil
}

// Create inserts t with a fresh ID.
//
// Parameters:
//   - ctx: request-scoped context for cancellation and timeouts.
//   - t: the ticket to insert; t.ID is ignored.
//
// Returns:
//   - domain.Ticket: the inserted ticket with its ID.
//   - error: repository.ErrConflict if (date, queue number) is taken.
func (r *TicketRepo) Create(ctx context.Context, t domain.Ticket) (domain.Ticket, error) {
	const op = "postgres.TicketRepo.Create"

	db := r.handle()

	id := uuid.New()
	_, err := db.Exec(ctx,
		`INSERT INTO tickets (id, owner_id, department, service_date, time_slot,
		                      queue_number, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id, t.OwnerID, t.Department, t.Date, t.TimeSlot,
		t.QueueNumber, t.Status, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return domain.Ticket{}, wrapDBErr(op, err)
	}

	t.ID = id.String()

	return t, nil
}

func (r *TicketRepo) Get(ctx context.Context, id string) (domain.Ticket, error) {
	return r.get(ctx, "postgres.TicketRepo.Get", id, false)
}

func (r *TicketRepo) GetForUpdate(ctx context.Context, id string) (domain.Ticket, error) {
	return r.get(ctx, "postgres.TicketRepo.GetForUpdate", id, true)
}

func (r *TicketRepo) get(ctx context.Context, op, id string, lock bool) (domain.Ticket, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}

	sql := "SELECT " + strings.Join(ticketColumns, ", ") + " FROM tickets WHERE id = $1"
	if lock {
		sql += " FOR UPDATE"
	}

	t, err := scanTicket(r.handle().QueryRow(ctx, sql, uid))
	if err != nil {
		return domain.Ticket{}, wrapDBErr(op, err)
	}

	return t, nil
}

// Update writes the mutable fields of t: department, time slot, status and updated_at.
func (r *TicketRepo) Update(ctx context.Context, t domain.Ticket) error {
	const op = "postgres.TicketRepo.Update"

	uid, err := uuid.Parse(t.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}

	tag, err := r.handle().Exec(ctx,
		`UPDATE tickets
		 SET department = $2, time_slot = $3, status = $4, updated_at = $5
		 WHERE id = $1`,
		uid, t.Department, t.TimeSlot, t.Status, t.UpdatedAt,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}

	return nil
}

func (r *TicketRepo) List(ctx context.Context, f repository.TicketFilter) ([]domain.Ticket, error) {
	const op = "postgres.TicketRepo.List"

	q := psql.Select(ticketColumns...).From("tickets")

	if f.Date != "" {
		q = q.Where(sq.Eq{"service_date": f.Date})
	}

	if f.OwnerID != "" {
		q = q.Where(sq.Eq{"owner_id": f.OwnerID})
	}

	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		q = q.Where(sq.Eq{"status": statuses})
	}

	if f.CreatedFrom != nil {
		q = q.Where(sq.GtOrEq{"created_at": *f.CreatedFrom})
	}

	if f.NewestFirst {
		q = q.OrderBy("service_date DESC", "queue_number DESC")
	} else {
		q = q.OrderBy("service_date ASC", "queue_number ASC")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := r.handle().Query(ctx, sql, args...)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}
	defer rows.Close()

	out := make([]domain.Ticket, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, t)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

func (r *TicketRepo) CountByDepartment(ctx context.Context, since time.Time) ([]domain.DepartmentCount, error) {
	const op = "postgres.TicketRepo.CountByDepartment"

	sql, args, err := psql.
		Select("department", "count(*)").
		From("tickets").
		Where(sq.GtOrEq{"created_at": since}).
		Where(sq.NotEq{"department": string(domain.DepartmentUnknown)}).
		GroupBy("department").
		OrderBy("count(*) DESC", "department ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := r.handle().Query(ctx, sql, args...)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}
	defer rows.Close()

	out := make([]domain.DepartmentCount, 0)
	for rows.Next() {
		var dc domain.DepartmentCount
		if err := rows.Scan(&dc.Department, &dc.Count); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, dc)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

func scanTicket(row pgx.Row) (domain.Ticket, error) {
	var t domain.Ticket
	err := row.Scan(
		&t.ID, &t.OwnerID, &t.Department, &t.Date, &t.TimeSlot,
		&t.QueueNumber, &t.Status, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}
