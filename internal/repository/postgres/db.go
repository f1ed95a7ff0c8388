package postgres

import (
	"context"
	_ "embed"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kirinyoku/frontdesk/internal/repository"
)

//go:embed schema.sql
var schema string

type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool: pool,
	}
}

var _ repository.Store = (*Store)(nil)

// EnsureSchema creates missing tables and indexes. It is safe to run on every start.
func (s *Store) EnsureSchema(ctx context.Context) error {
	const op = "postgres.Store.EnsureSchema"

	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

// RunTx runs fn in a serializable read-write transaction. Serialization
// failures surface as repository.ErrConflict.
func (s *Store) RunTx(
	ctx context.Context,
	fn func(ctx context.Context, tx repository.Tx) error,
) error {
	const op = "postgres.Store.RunTx"

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return wrapDBErr(op, err)
	}

	defer tx.Rollback(ctx)

	if err := fn(ctx, txRepos{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return wrapDBErr(op+": commit", err)
	}

	return nil
}

func (s *Store) Sessions() repository.SessionRepo {
	return &SessionRepo{pool: s.pool}
}

func (s *Store) Tickets() repository.TicketRepo {
	return &TicketRepo{pool: s.pool}
}

func (s *Store) Notifications() repository.NotificationRepo {
	return &NotificationRepo{pool: s.pool}
}

type txRepos struct {
	db DB
}

func (t txRepos) Sessions() repository.SessionRepo {
	return (&SessionRepo{}).With(t.db)
}

func (t txRepos) Tickets() repository.TicketRepo {
	return (&TicketRepo{}).With(t.db)
}

func (t txRepos) Notifications() repository.NotificationRepo {
	return (&NotificationRepo{}).With(t.db)
}
