package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kirinyoku/frontdesk/internal/domain"
	"github.com/kirinyoku/frontdesk/internal/repository"
	"github.com/kirinyoku/frontdesk/internal/service/notify"
)

var (
	ErrValidation          = errors.New("invalid request")
	ErrSessionInactive     = errors.New("queue session is not active")
	ErrSessionExpired      = errors.New("queue session belongs to an earlier service day")
	ErrBookingClosed       = errors.New("booking window is closed")
	ErrSlotUnavailable     = errors.New("time slot is not available")
	ErrConcurrencyConflict = errors.New("concurrent update conflict")
	ErrTicketNotFound      = errors.New("ticket not found")
	ErrNotOwner            = errors.New("ticket belongs to another user")
	ErrInvalidTransition   = errors.New("invalid ticket transition")
	ErrNoTicketsRemaining  = errors.New("no tickets remaining")
	ErrRateLimited         = errors.New("too many bookings")
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// AllocationError rejects a booking before anything is written.
// Cause is ErrSessionInactive, ErrSessionExpired, ErrBookingClosed or
// ErrSlotUnavailable.
type AllocationError struct {
	Cause error
}

func (e *AllocationError) Error() string {
	return "allocation rejected: " + e.Cause.Error()
}

func (e *AllocationError) Unwrap() error {
	return e.Cause
}

type TransitionError struct {
	TicketID string
	From     domain.TicketStatus
	Action   domain.Action
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s ticket %s in state %s", e.Action, e.TicketID, e.From)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("too many bookings, retry in %s", e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}

type Kind string

const (
	KindValidation         Kind = "validation"
	KindState              Kind = "state"
	KindConflict           Kind = "conflict"
	KindNotFound           Kind = "not_found"
	KindNotOwner           Kind = "not_owner"
	KindInvalidTransition  Kind = "invalid_transition"
	KindNoTicketsRemaining Kind = "no_tickets_remaining"
	KindRateLimited        Kind = "rate_limited"
	KindUnavailable        Kind = "unavailable"
	KindInternal           Kind = "internal"
)

// KindOf classifies err so callers can render a suitable message.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation), errors.Is(err, notify.ErrRecipientRequired):
		return KindValidation
	case errors.Is(err, ErrSessionInactive), errors.Is(err, ErrSessionExpired),
		errors.Is(err, ErrBookingClosed), errors.Is(err, ErrSlotUnavailable):
		return KindState
	case errors.Is(err, ErrConcurrencyConflict), errors.Is(err, repository.ErrConflict):
		return KindConflict
	case errors.Is(err, ErrTicketNotFound), errors.Is(err, notify.ErrNotificationNotFound),
		errors.Is(err, repository.ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrNotOwner):
		return KindNotOwner
	case errors.Is(err, ErrInvalidTransition):
		return KindInvalidTransition
	case errors.Is(err, ErrNoTicketsRemaining):
		return KindNoTicketsRemaining
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, repository.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return KindUnavailable
	}

	return KindInternal
}

// IsRetryable reports whether the caller may repeat the operation unchanged.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindConflict, KindUnavailable:
		return true
	}
	return false
}
