package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/kirinyoku/frontdesk/internal/domain"
	"github.com/kirinyoku/frontdesk/internal/repository"
)

type notificationRepo locker

func (r *notificationRepo) Create(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	defer locker(*r).write()()

	n.ID = uuid.NewString()
	prevSeq := r.st.data.seq
	r.st.data.seq++
	r.st.data.notifications[n.ID] = notificationRec{n: n, seq: r.st.data.seq}

	id := n.ID
	locker(*r).remember(func() {
		delete(r.st.data.notifications, id)
		r.st.data.seq = prevSeq
	})

	return n, nil
}

func (r *notificationRepo) ListByRecipient(ctx context.Context, recipientID string) ([]domain.Notification, error) {
	defer locker(*r).read()()

	recs := make([]notificationRec, 0)
	for _, rec := range r.st.data.notifications {
		if rec.n.RecipientID == recipientID {
			recs = append(recs, rec)
		}
	}

	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].n.CreatedAt.Equal(recs[j].n.CreatedAt) {
			return recs[i].n.CreatedAt.After(recs[j].n.CreatedAt)
		}
		return recs[i].seq > recs[j].seq
	})

	out := make([]domain.Notification, len(recs))
	for i, rec := range recs {
		out[i] = rec.n
	}

	return out, nil
}

func (r *notificationRepo) MarkRead(ctx context.Context, recipientID, id string) error {
	const op = "memory.NotificationRepo.MarkRead"

	defer locker(*r).write()()

	rec, ok := r.st.data.notifications[id]
	if !ok || rec.n.RecipientID != recipientID {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}

	prev := rec
	rec.n.Read = true
	r.st.data.notifications[id] = rec
	locker(*r).remember(func() { r.st.data.notifications[id] = prev })

	return nil
}

func (r *notificationRepo) DeleteByRecipient(ctx context.Context, recipientID string) (int64, error) {
	defer locker(*r).write()()

	var n int64
	for id, rec := range r.st.data.notifications {
		if rec.n.RecipientID == recipientID {
			delete(r.st.data.notifications, id)
			locker(*r).remember(func() { r.st.data.notifications[id] = rec })
			n++
		}
	}

	return n, nil
}
