package domain

import (
	"fmt"
	"time"
)

// DateLayout is the layout of Ticket.Date, the service day in server-local time.
const DateLayout = "2006-01-02"

type SessionStatus string

const (
	SessionInactive SessionStatus = "inactive"
	SessionActive   SessionStatus = "active"
)

type TicketStatus string

const (
	TicketPending     TicketStatus = "pending"
	TicketServed      TicketStatus = "served"
	TicketMissed      TicketStatus = "missed"
	TicketCancelled   TicketStatus = "cancelled"
	TicketRescheduled TicketStatus = "rescheduled"
)

// ParseTicketStatus rejects anything outside the closed set of ticket states.
func ParseTicketStatus(s string) (TicketStatus, error) {
	switch st := TicketStatus(s); st {
	case TicketPending, TicketServed, TicketMissed, TicketCancelled, TicketRescheduled:
		return st, nil
	}
	return "", fmt.Errorf("unknown ticket status %q", s)
}

// Terminal reports whether no further transition is accepted from s.
func (s TicketStatus) Terminal() bool {
	return s == TicketServed || s == TicketMissed || s == TicketCancelled
}

// Waiting reports whether a ticket in state s is still in line.
func (s TicketStatus) Waiting() bool {
	return s == TicketPending || s == TicketRescheduled
}

type NotificationStatus string

const (
	NotifyPending     NotificationStatus = "pending"
	NotifyServed      NotificationStatus = "served"
	NotifyMissed      NotificationStatus = "missed"
	NotifyCancelled   NotificationStatus = "cancelled"
	NotifyRescheduled NotificationStatus = "rescheduled"
)

type Department string

// DepartmentUnknown is the sentinel excluded from department statistics.
const DepartmentUnknown Department = "Unknown"

// DefaultDepartments are the service categories of the front office.
var DefaultDepartments = []Department{
	"Finance",
	"Records",
	"Access card collection",
	"Pin setup",
	"Registrations",
}

// Session is the single queue-state record governing one service day.
type Session struct {
	Status        SessionStatus `json:"status"`
	CurrentNumber int           `json:"current_number"`
	StartTime     *time.Time    `json:"start_time,omitempty"`
	Version       int64         `json:"version"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func (s Session) Active() bool {
	return s.Status == SessionActive
}

// Includes reports whether t was created within the current session.
func (s Session) Includes(t Ticket) bool {
	if !s.Active() || s.StartTime == nil {
		return false
	}
	return !t.CreatedAt.Before(*s.StartTime)
}

type Ticket struct {
	ID          string       `json:"id"`
	OwnerID     string       `json:"owner_id"`
	Department  Department   `json:"department"`
	Date        string       `json:"date"`
	TimeSlot    string       `json:"time_slot"`
	QueueNumber int          `json:"queue_number"`
	Status      TicketStatus `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

type Notification struct {
	ID              string             `json:"id"`
	RecipientID     string             `json:"recipient_id"`
	Message         string             `json:"message"`
	Status          NotificationStatus `json:"status"`
	Read            bool               `json:"read"`
	RelatedTicketID string             `json:"related_ticket_id,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
}

// Slot is one bookable time-of-day option with its availability at evaluation time.
type Slot struct {
	Label     string `json:"label"`
	Hour      int    `json:"hour"`
	Available bool   `json:"available"`
}

type DepartmentCount struct {
	Department Department `json:"department"`
	Count      int64      `json:"count"`
}

// Board is the live projection shown on queue displays.
type Board struct {
	Session     Session   `json:"session"`
	Serving     *Ticket   `json:"serving,omitempty"`
	NextInLine  []Ticket  `json:"next_in_line"`
	Remaining   int       `json:"remaining"`
	BookingOpen bool      `json:"booking_open"`
	GeneratedAt time.Time `json:"generated_at"`
}
