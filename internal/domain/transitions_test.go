package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidTransition(t *testing.T) {
	cases := []struct {
		action Action
		from   TicketStatus
		valid  bool
	}{
		{ActionServe, TicketPending, true},
		{ActionServe, TicketRescheduled, true},
		{ActionServe, TicketServed, false},
		{ActionMiss, TicketPending, true},
		{ActionMiss, TicketRescheduled, true},
		{ActionMiss, TicketCancelled, false},
		{ActionCancel, TicketPending, true},
		{ActionCancel, TicketMissed, false},
		{ActionReschedule, TicketRescheduled, true},
		{ActionReschedule, TicketServed, false},
		{Action("unknown"), TicketPending, false},
	}

	for _, tt := range cases {
		assert.Equal(t, tt.valid, ValidTransition(tt.action, tt.from), "ValidTransition(%q, %q)", tt.action, tt.from)
	}
}

func TestTerminalStatesRejectEveryAction(t *testing.T) {
	actions := []Action{ActionServe, ActionMiss, ActionCancel, ActionReschedule}
	for _, st := range []TicketStatus{TicketServed, TicketMissed, TicketCancelled} {
		assert.True(t, st.Terminal())
		for _, a := range actions {
			assert.False(t, ValidTransition(a, st), "%s from %s", a, st)
		}
	}
}

func TestParseTicketStatus(t *testing.T) {
	st, err := ParseTicketStatus("rescheduled")
	assert.NoError(t, err)
	assert.Equal(t, TicketRescheduled, st)

	_, err = ParseTicketStatus("done")
	assert.Error(t, err)
}
