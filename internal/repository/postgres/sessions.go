package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kirinyoku/frontdesk/internal/domain"
	"github.com/kirinyoku/frontdesk/internal/repository"
)

type SessionRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *SessionRepo) With(db DB) *SessionRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *SessionRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// Get loads the singleton session row. Before the first Save it returns an
// inactive session with version 0.
func (r *SessionRepo) Get(ctx context.Context) (domain.Session, error) {
	const op = "postgres.SessionRepo.Get"

	db := r.handle()

	var s domain.Session
	err := db.QueryRow(ctx,
		`SELECT status, current_number, start_time, version, updated_at
		 FROM sessions WHERE id = 1`,
	).Scan(&s.Status, &s.CurrentNumber, &s.StartTime, &s.Version, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Session{Status: domain.SessionInactive}, nil
	}
	if err != nil {
		return domain.Session{}, wrapDBErr(op, err)
	}

	return s, nil
}

// Save upserts the session when the stored version still equals s.Version.
//
// Parameters:
//   - ctx: request-scoped context for cancellation and timeouts.
//   - s: the session to write; s.Version is the version it was read at.
//
// Returns:
//   - domain.Session: the stored session with its bumped version.
//   - error: repository.ErrConflict if another writer saved first.
func (r *SessionRepo) Save(ctx context.Context, s domain.Session) (domain.Session, error) {
	const op = "postgres.SessionRepo.Save"

	db := r.handle()

	var version int64
	err := db.QueryRow(ctx,
		`INSERT INTO sessions (id, status, current_number, start_time, version, updated_at)
		 VALUES (1, $1, $2, $3, $5 + 1, $4)
		 ON CONFLICT (id) DO UPDATE
		 SET status = EXCLUDED.status,
		     current_number = EXCLUDED.current_number,
		     start_time = EXCLUDED.start_time,
		     version = sessions.version + 1,
		     updated_at = EXCLUDED.updated_at
		 WHERE sessions.version = $5
		 RETURNING version`,
		s.Status, s.CurrentNumber, s.StartTime, s.UpdatedAt, s.Version,
	).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Session{}, fmt.Errorf("%s: stale version %d: %w", op, s.Version, repository.ErrConflict)
	}
	if err != nil {
		return domain.Session{}, wrapDBErr(op, err)
	}

	s.Version = version

	return s, nil
}
