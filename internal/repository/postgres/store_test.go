package postgres

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/frontdesk/internal/domain"
	"github.com/kirinyoku/frontdesk/internal/repository"
)

// newTestStore connects to FRONTDESK_TEST_DSN and truncates every table.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("FRONTDESK_TEST_DSN")
	if dsn == "" {
		t.Skip("FRONTDESK_TEST_DSN not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	s := NewStore(pool)
	require.NoError(t, s.EnsureSchema(ctx))

	_, err = pool.Exec(ctx, `TRUNCATE sessions, ticket_sequences, tickets, notifications`)
	require.NoError(t, err)

	return s
}

func TestStoreConcurrentNumbering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	const workers = 8

	var wg sync.WaitGroup
	numbers := make(chan int, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for attempt := 0; attempt < 20; attempt++ {
				var got int
				err := s.RunTx(ctx, func(ctx context.Context, tx repository.Tx) error {
					n, err := tx.Tickets().NextQueueNumber(ctx, "2024-03-11")
					if err != nil {
						return err
					}
					tk, err := tx.Tickets().Create(ctx, domain.Ticket{
						OwnerID: "u1", Department: "Finance", Date: "2024-03-11",
						TimeSlot: "10:00 AM", QueueNumber: n, Status: domain.TicketPending,
						CreatedAt: now, UpdatedAt: now,
					})
					got = tk.QueueNumber
					return err
				})
				if err == nil {
					numbers <- got
					return
				}
				assert.ErrorIs(t, err, repository.ErrConflict)
			}
		}()
	}

	wg.Wait()
	close(numbers)

	seen := make(map[int]bool)
	for n := range numbers {
		assert.False(t, seen[n], "duplicate number %d", n)
		seen[n] = true
	}
	require.Len(t, seen, workers)
	for n := 1; n <= workers; n++ {
		assert.True(t, seen[n], "missing number %d", n)
	}
}

func TestStoreSessionVersioning(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess, err := s.Sessions().Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionInactive, sess.Status)

	start := time.Now().UTC().Truncate(time.Microsecond)
	sess.Status = domain.SessionActive
	sess.CurrentNumber = 1
	sess.StartTime = &start
	sess.UpdatedAt = start

	saved, err := s.Sessions().Save(ctx, sess)
	require.NoError(t, err)
	assert.EqualValues(t, 1, saved.Version)

	_, err = s.Sessions().Save(ctx, sess)
	assert.ErrorIs(t, err, repository.ErrConflict)

	got, err := s.Sessions().Get(ctx)
	require.NoError(t, err)
	assert.True(t, got.Active())
	require.NotNil(t, got.StartTime)
	assert.True(t, start.Equal(*got.StartTime))
}

func TestStoreTicketsAndNotifications(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	tk, err := s.Tickets().Create(ctx, domain.Ticket{
		OwnerID: "u1", Department: "Records", Date: "2024-03-11", TimeSlot: "10:00 AM",
		QueueNumber: 1, Status: domain.TicketPending, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	_, err = s.Tickets().Create(ctx, domain.Ticket{
		OwnerID: "u2", Department: "Records", Date: "2024-03-11", TimeSlot: "11:00 AM",
		QueueNumber: 1, Status: domain.TicketPending, CreatedAt: now, UpdatedAt: now,
	})
	assert.ErrorIs(t, err, repository.ErrConflict)

	tk.Status = domain.TicketRescheduled
	tk.TimeSlot = "01:00 PM"
	require.NoError(t, s.Tickets().Update(ctx, tk))

	got, err := s.Tickets().Get(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketRescheduled, got.Status)
	assert.Equal(t, "01:00 PM", got.TimeSlot)
	assert.Equal(t, 1, got.QueueNumber)

	_, err = s.Tickets().Get(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	list, err := s.Tickets().List(ctx, repository.TicketFilter{
		Date:     "2024-03-11",
		Statuses: []domain.TicketStatus{domain.TicketPending, domain.TicketRescheduled},
	})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	counts, err := s.Tickets().CountByDepartment(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []domain.DepartmentCount{{Department: "Records", Count: 1}}, counts)

	n, err := s.Notifications().Create(ctx, domain.Notification{
		RecipientID: "u1", Message: "hello", Status: domain.NotifyPending,
		RelatedTicketID: tk.ID, CreatedAt: now,
	})
	require.NoError(t, err)
	require.NoError(t, s.Notifications().MarkRead(ctx, "u1", n.ID))

	inbox, err := s.Notifications().ListByRecipient(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.True(t, inbox[0].Read)

	deleted, err := s.Notifications().DeleteByRecipient(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)
}
