package httpgin

import (
	"github.com/kirinyoku/frontdesk/internal/domain"
)

type BookTicketRequest struct {
	Department string `json:"department" binding:"required"`
	TimeSlot   string `json:"time_slot" binding:"required"`
}

type RescheduleRequest struct {
	TimeSlot string `json:"time_slot" binding:"required"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

type SlotsResponse struct {
	BookingOpen bool          `json:"booking_open"`
	Slots       []domain.Slot `json:"slots"`
}

type TicketsResponse struct {
	Tickets []domain.Ticket `json:"tickets"`
}

type TodayResponse struct {
	Date      string          `json:"date"`
	Tickets   []domain.Ticket `json:"tickets"`
	Remaining int             `json:"remaining"`
}

type ServingResponse struct {
	Session domain.Session `json:"session"`
	Serving *domain.Ticket `json:"serving"`
}

type DepartmentStatsResponse struct {
	Days        int                      `json:"days"`
	Departments []domain.DepartmentCount `json:"departments"`
}

type NotificationsResponse struct {
	Notifications []domain.Notification `json:"notifications"`
	Unread        int                   `json:"unread"`
}

type ClearNotificationsResponse struct {
	Deleted int64 `json:"deleted"`
}
