package domain

type Action string

const (
	ActionServe      Action = "serve"
	ActionMiss       Action = "miss"
	ActionCancel     Action = "cancel"
	ActionReschedule Action = "reschedule"
)

var transitionMap = map[Action][]TicketStatus{
	ActionServe:      {TicketPending, TicketRescheduled},
	ActionMiss:       {TicketPending, TicketRescheduled},
	ActionCancel:     {TicketPending, TicketRescheduled},
	ActionReschedule: {TicketPending, TicketRescheduled},
}

var transitionTarget = map[Action]TicketStatus{
	ActionServe:      TicketServed,
	ActionMiss:       TicketMissed,
	ActionCancel:     TicketCancelled,
	ActionReschedule: TicketRescheduled,
}

// ValidTransition reports whether action may be applied to a ticket in state from.
func ValidTransition(action Action, from TicketStatus) bool {
	allowed, ok := transitionMap[action]
	if !ok {
		return false
	}
	for _, status := range allowed {
		if status == from {
			return true
		}
	}
	return false
}

// Target is the state a ticket lands in after action.
func (a Action) Target() TicketStatus {
	return transitionTarget[a]
}
