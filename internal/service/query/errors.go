package query

import (
	"github.com/kirinyoku/frontdesk/internal/service/queue"
)

// Query errors reuse the queue taxonomy so callers classify both with queue.KindOf.
var (
	ErrTicketNotFound = queue.ErrTicketNotFound
	ErrNotOwner       = queue.ErrNotOwner
)
