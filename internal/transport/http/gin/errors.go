package httpgin

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kirinyoku/frontdesk/internal/service/notify"
	"github.com/kirinyoku/frontdesk/internal/service/queue"
)

var statusByKind = map[queue.Kind]int{
	queue.KindValidation:         http.StatusBadRequest,
	queue.KindState:              http.StatusConflict,
	queue.KindConflict:           http.StatusConflict,
	queue.KindNotFound:           http.StatusNotFound,
	queue.KindNotOwner:           http.StatusForbidden,
	queue.KindInvalidTransition:  http.StatusConflict,
	queue.KindNoTicketsRemaining: http.StatusNotFound,
	queue.KindRateLimited:        http.StatusTooManyRequests,
	queue.KindUnavailable:        http.StatusServiceUnavailable,
	queue.KindInternal:           http.StatusInternalServerError,
}

// respondErr renders err by kind. Internal errors are logged by the
// logging middleware through c.Error and never shown to clients.
func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	kind := queue.KindOf(err)

	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	msg := publicMessage(err)

	switch kind {
	case queue.KindInternal:
		_ = c.Error(err)
		msg = "internal error"
	case queue.KindUnavailable:
		_ = c.Error(err)
		c.Header("Retry-After", "1")
		msg = "service temporarily unavailable"
	case queue.KindConflict:
		c.Header("Retry-After", "1")
	case queue.KindRateLimited:
		var rl *queue.RateLimitError
		if errors.As(err, &rl) {
			secs := int(rl.RetryAfter.Seconds())
			if secs < 1 {
				secs = 1
			}
			c.Header("Retry-After", strconv.Itoa(secs))
		}
	}

	c.AbortWithStatusJSON(status, ErrorResponse{Error: msg, Kind: string(kind)})
}

// publicMessage strips the op prefixes and returns the most specific
// user-facing message in the chain.
func publicMessage(err error) string {
	var (
		ve *queue.ValidationError
		ae *queue.AllocationError
		te *queue.TransitionError
		re *queue.RateLimitError
	)

	switch {
	case errors.As(err, &ve):
		return ve.Error()
	case errors.As(err, &ae):
		return ae.Cause.Error()
	case errors.As(err, &te):
		return te.Error()
	case errors.As(err, &re):
		return re.Error()
	}

	for _, sentinel := range []error{
		queue.ErrConcurrencyConflict,
		queue.ErrTicketNotFound,
		queue.ErrNotOwner,
		queue.ErrNoTicketsRemaining,
		queue.ErrSessionInactive,
		notify.ErrNotificationNotFound,
		notify.ErrRecipientRequired,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}

	return err.Error()
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: msg, Kind: string(queue.KindValidation)})
}
