package notify

import (
	"fmt"
	"time"

	"github.com/kirinyoku/frontdesk/internal/domain"
)

const DefaultStaffRecipient = "staff"

// Dispatcher derives the notifications owed for a ticket transition.
// It performs no I/O.
type Dispatcher struct {
	staffID    string
	alertDepth int
}

// NewDispatcher builds a Dispatcher. alertDepth is how many waiting owners
// receive a position alert after each advance; 0 disables position alerts.
func NewDispatcher(staffRecipientID string, alertDepth int) *Dispatcher {
	if staffRecipientID == "" {
		staffRecipientID = DefaultStaffRecipient
	}

	if alertDepth < 0 {
		alertDepth = 0
	}

	return &Dispatcher{staffID: staffRecipientID, alertDepth: alertDepth}
}

func (d *Dispatcher) StaffRecipient() string {
	return d.staffID
}

// For returns the notifications for action having been applied to t.
// t is the ticket after the transition.
func (d *Dispatcher) For(action domain.Action, t domain.Ticket, at time.Time) []domain.Notification {
	owner := func(status domain.NotificationStatus, msg string) domain.Notification {
		return d.build(t.OwnerID, status, msg, t.ID, at)
	}
	staff := func(status domain.NotificationStatus, msg string) domain.Notification {
		return d.build(d.staffID, status, msg, t.ID, at)
	}

	switch action {
	case domain.ActionServe:
		return []domain.Notification{
			owner(domain.NotifyServed, fmt.Sprintf(
				"Your appointment at %s for %s has been served.", t.Department, t.TimeSlot)),
		}
	case domain.ActionMiss:
		return []domain.Notification{
			owner(domain.NotifyMissed, fmt.Sprintf(
				"Your appointment at %s for %s was missed.", t.Department, t.TimeSlot)),
		}
	case domain.ActionCancel:
		return []domain.Notification{
			staff(domain.NotifyCancelled, fmt.Sprintf(
				"Appointment %d has been cancelled by the student.", t.QueueNumber)),
			owner(domain.NotifyCancelled, fmt.Sprintf(
				"You cancelled appointment %d.", t.QueueNumber)),
		}
	case domain.ActionReschedule:
		return []domain.Notification{
			staff(domain.NotifyRescheduled, fmt.Sprintf(
				"Appointment %d has been rescheduled to %s by the student.", t.QueueNumber, t.TimeSlot)),
			owner(domain.NotifyRescheduled, fmt.Sprintf(
				"Your appointment has been rescheduled to %s", t.TimeSlot)),
		}
	}

	return nil
}

// Booked confirms a new ticket to its owner.
func (d *Dispatcher) Booked(t domain.Ticket, at time.Time) domain.Notification {
	return d.build(t.OwnerID, domain.NotifyPending, fmt.Sprintf(
		"Your appointment at %s for %s is booked. Your queue number is %d.",
		t.Department, t.TimeSlot, t.QueueNumber), t.ID, at)
}

// PositionAlerts tells the owners at the head of waiting where they stand.
// waiting must be ordered by queue position.
func (d *Dispatcher) PositionAlerts(waiting []domain.Ticket, at time.Time) []domain.Notification {
	n := min(d.alertDepth, len(waiting))

	out := make([]domain.Notification, 0, n)
	for i := 0; i < n; i++ {
		t := waiting[i]
		out = append(out, d.build(t.OwnerID, domain.NotifyPending, positionMessage(i+1), t.ID, at))
	}

	return out
}

func positionMessage(pos int) string {
	switch pos {
	case 1:
		return "You are next in line."
	case 2:
		return "You are second in line."
	case 3:
		return "You are third in line."
	}
	return fmt.Sprintf("You are number %d in line.", pos)
}

func (d *Dispatcher) build(recipient string, status domain.NotificationStatus, msg, ticketID string, at time.Time) domain.Notification {
	return domain.Notification{
		RecipientID:     recipient,
		Message:         msg,
		Status:          status,
		RelatedTicketID: ticketID,
		CreatedAt:       at,
	}
}
