package memory

import (
	"context"
	"fmt"

	"github.com/kirinyoku/frontdesk/internal/domain"
	"github.com/kirinyoku/frontdesk/internal/repository"
)

type sessionRepo locker

func (r *sessionRepo) Get(ctx context.Context) (domain.Session, error) {
	defer locker(*r).read()()

	s := r.st.data.session
	if s.StartTime != nil {
		st := *s.StartTime
		s.StartTime = &st
	}

	return s, nil
}

func (r *sessionRepo) Save(ctx context.Context, s domain.Session) (domain.Session, error) {
	const op = "memory.SessionRepo.Save"

	defer locker(*r).write()()

	if r.st.data.session.Version != s.Version {
		return domain.Session{}, fmt.Errorf("%s: %w", op, repository.ErrConflict)
	}

	s.Version++
	if s.StartTime != nil {
		st := *s.StartTime
		s.StartTime = &st
	}
	prev := r.st.data.session
	r.st.data.session = s
	locker(*r).remember(func() { r.st.data.session = prev })

	return s, nil
}
