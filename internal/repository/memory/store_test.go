package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/frontdesk/internal/domain"
	"github.com/kirinyoku/frontdesk/internal/repository"
)

var base = time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)

func ticket(date string, n int, createdAt time.Time) domain.Ticket {
	return domain.Ticket{
		OwnerID:     "u1",
		Department:  "Finance",
		Date:        date,
		TimeSlot:    "10:00 AM",
		QueueNumber: n,
		Status:      domain.TicketPending,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

func TestRunTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()

	boom := errors.New("boom")
	err := s.RunTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		_, err := tx.Tickets().Create(ctx, ticket("2024-03-11", 1, base))
		require.NoError(t, err)

		sess, err := tx.Sessions().Get(ctx)
		require.NoError(t, err)
		sess.Status = domain.SessionActive
		_, err = tx.Sessions().Save(ctx, sess)
		require.NoError(t, err)

		return boom
	})
	require.ErrorIs(t, err, boom)

	list, err := s.Tickets().List(ctx, repository.TicketFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	sess, err := s.Sessions().Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionInactive, sess.Status)
	assert.Zero(t, sess.Version)
}

func TestRunTxRestoresTouchedRows(t *testing.T) {
	ctx := context.Background()
	s := New()

	kept, err := s.Tickets().Create(ctx, ticket("2024-03-11", 1, base))
	require.NoError(t, err)

	read, err := s.Notifications().Create(ctx, domain.Notification{RecipientID: "u1", Message: "a", CreatedAt: base})
	require.NoError(t, err)
	_, err = s.Notifications().Create(ctx, domain.Notification{RecipientID: "u2", Message: "b", CreatedAt: base})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.RunTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		changed := kept
		changed.Status = domain.TicketServed
		require.NoError(t, tx.Tickets().Update(ctx, changed))

		require.NoError(t, tx.Notifications().MarkRead(ctx, "u1", read.ID))

		n, err := tx.Notifications().DeleteByRecipient(ctx, "u2")
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		_, err = tx.Notifications().Create(ctx, domain.Notification{RecipientID: "u1", Message: "c", CreatedAt: base})
		require.NoError(t, err)

		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Tickets().Get(ctx, kept.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketPending, got.Status)

	u1, err := s.Notifications().ListByRecipient(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, u1, 1)
	assert.False(t, u1[0].Read)

	u2, err := s.Notifications().ListByRecipient(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, u2, 1)

	// A committed transaction after a rollback keeps its writes.
	require.NoError(t, s.RunTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.Notifications().MarkRead(ctx, "u1", read.ID)
	}))

	u1, err = s.Notifications().ListByRecipient(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, u1, 1)
	assert.True(t, u1[0].Read)
}

func TestSessionSaveIsVersioned(t *testing.T) {
	ctx := context.Background()
	s := New()

	sess, err := s.Sessions().Get(ctx)
	require.NoError(t, err)

	sess.Status = domain.SessionActive
	saved, err := s.Sessions().Save(ctx, sess)
	require.NoError(t, err)
	assert.EqualValues(t, 1, saved.Version)

	_, err = s.Sessions().Save(ctx, sess)
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestTicketNumbering(t *testing.T) {
	ctx := context.Background()
	s := New()

	n, err := s.Tickets().NextQueueNumber(ctx, "2024-03-11")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.Tickets().Create(ctx, ticket("2024-03-11", 1, base))
	require.NoError(t, err)

	_, err = s.Tickets().Create(ctx, ticket("2024-03-11", 1, base))
	assert.ErrorIs(t, err, repository.ErrConflict)

	n, err = s.Tickets().NextQueueNumber(ctx, "2024-03-11")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.Tickets().NextQueueNumber(ctx, "2024-03-12")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestTicketListFilters(t *testing.T) {
	ctx := context.Background()
	s := New()
	tickets := s.Tickets()

	a, _ := tickets.Create(ctx, ticket("2024-03-10", 1, base.Add(-24*time.Hour)))
	b, _ := tickets.Create(ctx, ticket("2024-03-11", 2, base.Add(time.Minute)))
	c := ticket("2024-03-11", 1, base)
	c.OwnerID = "u2"
	c.Status = domain.TicketServed
	c, _ = tickets.Create(ctx, c)

	list, err := tickets.List(ctx, repository.TicketFilter{Date: "2024-03-11"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, c.ID, list[0].ID)
	assert.Equal(t, b.ID, list[1].ID)

	list, err = tickets.List(ctx, repository.TicketFilter{OwnerID: "u1", NewestFirst: true})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID)
	assert.Equal(t, a.ID, list[1].ID)

	list, err = tickets.List(ctx, repository.TicketFilter{Statuses: []domain.TicketStatus{domain.TicketServed}})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, c.ID, list[0].ID)

	from := base
	list, err = tickets.List(ctx, repository.TicketFilter{CreatedFrom: &from})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestCountByDepartmentSkipsUnknown(t *testing.T) {
	ctx := context.Background()
	s := New()
	tickets := s.Tickets()

	for i, d := range []domain.Department{"Finance", "Records", "Finance", domain.DepartmentUnknown} {
		tk := ticket("2024-03-11", i+1, base)
		tk.Department = d
		_, err := tickets.Create(ctx, tk)
		require.NoError(t, err)
	}

	old := ticket("2024-03-01", 1, base.Add(-10*24*time.Hour))
	old.Department = "Records"
	_, err := tickets.Create(ctx, old)
	require.NoError(t, err)

	counts, err := tickets.CountByDepartment(ctx, base.Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []domain.DepartmentCount{
		{Department: "Finance", Count: 2},
		{Department: "Records", Count: 1},
	}, counts)
}

func TestNotificationsInbox(t *testing.T) {
	ctx := context.Background()
	s := New()
	repo := s.Notifications()

	first, err := repo.Create(ctx, domain.Notification{RecipientID: "u1", Message: "one", CreatedAt: base})
	require.NoError(t, err)
	second, err := repo.Create(ctx, domain.Notification{RecipientID: "u1", Message: "two", CreatedAt: base})
	require.NoError(t, err)
	_, err = repo.Create(ctx, domain.Notification{RecipientID: "u2", Message: "other", CreatedAt: base})
	require.NoError(t, err)

	list, err := repo.ListByRecipient(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	assert.ErrorIs(t, repo.MarkRead(ctx, "u2", first.ID), repository.ErrNotFound)
	require.NoError(t, repo.MarkRead(ctx, "u1", first.ID))

	list, _ = repo.ListByRecipient(ctx, "u1")
	assert.True(t, list[1].Read)

	n, err := repo.DeleteByRecipient(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	list, _ = repo.ListByRecipient(ctx, "u2")
	assert.Len(t, list, 1)
}
