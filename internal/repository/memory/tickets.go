package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kirinyoku/frontdesk/internal/domain"
	"github.com/kirinyoku/frontdesk/internal/repository"
)

type ticketRepo locker

// NextQueueNumber is max(queue number on date) + 1. Tickets are never
// deleted, so under the transaction lock the sequence stays contiguous.
func (r *ticketRepo) NextQueueNumber(ctx context.Context, date string) (int, error) {
	defer locker(*r).read()()

	last := 0
	for _, t := range r.st.data.tickets {
		if t.Date == date && t.QueueNumber > last {
			last = t.QueueNumber
		}
	}

	return last + 1, nil
}

func (r *ticketRepo) Create(ctx context.Context, t domain.Ticket) (domain.Ticket, error) {
	const op = "memory.TicketRepo.Create"

	defer locker(*r).write()()

	for _, existing := range r.st.data.tickets {
		if existing.Date == t.Date && existing.QueueNumber == t.QueueNumber {
			return domain.Ticket{}, fmt.Errorf("%s: %w", op, repository.ErrConflict)
		}
	}

	t.ID = uuid.NewString()
	r.st.data.tickets[t.ID] = t

	id := t.ID
	locker(*r).remember(func() { delete(r.st.data.tickets, id) })

	return t, nil
}

func (r *ticketRepo) Get(ctx context.Context, id string) (domain.Ticket, error) {
	const op = "memory.TicketRepo.Get"

	defer locker(*r).read()()

	t, ok := r.st.data.tickets[id]
	if !ok {
		return domain.Ticket{}, fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}

	return t, nil
}

func (r *ticketRepo) GetForUpdate(ctx context.Context, id string) (domain.Ticket, error) {
	return r.Get(ctx, id)
}

func (r *ticketRepo) Update(ctx context.Context, t domain.Ticket) error {
	const op = "memory.TicketRepo.Update"

	defer locker(*r).write()()

	prev, ok := r.st.data.tickets[t.ID]
	if !ok {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}

	r.st.data.tickets[t.ID] = t
	locker(*r).remember(func() { r.st.data.tickets[prev.ID] = prev })

	return nil
}

func (r *ticketRepo) List(ctx context.Context, f repository.TicketFilter) ([]domain.Ticket, error) {
	defer locker(*r).read()()

	out := make([]domain.Ticket, 0)
	for _, t := range r.st.data.tickets {
		if f.Date != "" && t.Date != f.Date {
			continue
		}
		if f.OwnerID != "" && t.OwnerID != f.OwnerID {
			continue
		}
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, t.Status) {
			continue
		}
		if f.CreatedFrom != nil && t.CreatedAt.Before(*f.CreatedFrom) {
			continue
		}
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if f.NewestFirst {
			a, b = b, a
		}
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.QueueNumber < b.QueueNumber
	})

	return out, nil
}

func (r *ticketRepo) CountByDepartment(ctx context.Context, since time.Time) ([]domain.DepartmentCount, error) {
	defer locker(*r).read()()

	counts := make(map[domain.Department]int64)
	for _, t := range r.st.data.tickets {
		if t.Department == domain.DepartmentUnknown || t.CreatedAt.Before(since) {
			continue
		}
		counts[t.Department]++
	}

	out := make([]domain.DepartmentCount, 0, len(counts))
	for d, c := range counts {
		out = append(out, domain.DepartmentCount{Department: d, Count: c})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Department < out[j].Department
	})

	return out, nil
}
