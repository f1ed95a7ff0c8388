package httpgin

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/frontdesk/internal/calendar"
	"github.com/kirinyoku/frontdesk/internal/clock"
	"github.com/kirinyoku/frontdesk/internal/domain"
	"github.com/kirinyoku/frontdesk/internal/events"
	"github.com/kirinyoku/frontdesk/internal/metrics"
	"github.com/kirinyoku/frontdesk/internal/repository/memory"
	"github.com/kirinyoku/frontdesk/internal/service"
	"github.com/kirinyoku/frontdesk/internal/service/query"
	"github.com/kirinyoku/frontdesk/internal/service/queue"
)

const staffID = "staff"

type testAPI struct {
	t      *testing.T
	router *gin.Engine
	svcs   *service.Services
	clock  *clock.Fake
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clk := clock.NewFake(time.Date(2024, 3, 11, 10, 30, 0, 0, time.UTC))
	cal, err := calendar.New(calendar.Config{
		OpenHour:  calendar.DefaultOpenHour,
		CloseHour: calendar.DefaultCloseHour,
		Location:  time.UTC,
	}, clk)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	svcs := service.NewServices(service.Deps{
		Store:    memory.New(),
		Calendar: cal,
		Bus:      events.NewLocal(nil),
		Clock:    clk,
		Metrics:  m,
	}, service.Config{
		Queue:      queue.Config{MaxRetries: queue.DefaultMaxRetries, RetryBackoff: time.Microsecond},
		Query:      query.Config{StaffID: staffID},
		AlertDepth: 3,
	})

	r := NewRouter(Deps{
		Services:        svcs,
		Metrics:         m,
		MetricsHandler:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		StreamKeepAlive: 50 * time.Millisecond,
	})

	return &testAPI{t: t, router: r, svcs: svcs, clock: clk}
}

func (a *testAPI) do(method, path, user string, body any, headers ...string) *httptest.ResponseRecorder {
	a.t.Helper()

	var reader *strings.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = strings.NewReader(string(b))
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(HeaderUserID, user)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (a *testAPI) start() {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/staff/session/start", staffID, nil)
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
}

func (a *testAPI) book(user string) domain.Ticket {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/tickets", user, BookTicketRequest{Department: "Finance", TimeSlot: "11:00 AM"})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[domain.Ticket](a.t, rec)
}

func TestHealthz(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))
}

func TestIdentityAndStaffGuards(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(http.MethodPost, "/tickets", "", BookTicketRequest{Department: "Finance", TimeSlot: "11:00 AM"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(http.MethodPost, "/staff/session/start", "alice", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestBookingErrors(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(http.MethodPost, "/tickets", "alice", BookTicketRequest{Department: "Finance", TimeSlot: "11:00 AM"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, string(queue.KindState), decode[ErrorResponse](t, rec).Kind)

	a.start()

	rec = a.do(http.MethodPost, "/tickets", "alice", BookTicketRequest{Department: "Cafeteria", TimeSlot: "11:00 AM"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodPost, "/tickets", "alice", BookTicketRequest{Department: "Finance", TimeSlot: "09:00 AM"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "time slot is not available", decode[ErrorResponse](t, rec).Error)

	rec = a.do(http.MethodPost, "/tickets", "alice", map[string]string{"department": "Finance"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTicketLifecycle(t *testing.T) {
	a := newTestAPI(t)
	a.start()

	first := a.book("alice")
	second := a.book("bob")
	assert.Equal(t, 1, first.QueueNumber)
	assert.Equal(t, 2, second.QueueNumber)

	rec := a.do(http.MethodGet, "/tickets/"+first.ID, "bob", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(http.MethodGet, "/tickets/"+first.ID, staffID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(http.MethodGet, "/tickets/mine", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[TicketsResponse](t, rec).Tickets, 1)

	rec = a.do(http.MethodPost, "/tickets/"+second.ID+"/reschedule", "bob", RescheduleRequest{TimeSlot: "02:00 PM"})
	require.Equal(t, http.StatusOK, rec.Code)
	moved := decode[domain.Ticket](t, rec)
	assert.Equal(t, domain.TicketRescheduled, moved.Status)
	assert.Equal(t, 2, moved.QueueNumber)

	rec = a.do(http.MethodPost, "/staff/queue/advance", staffID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, first.ID, decode[domain.Ticket](t, rec).ID)

	rec = a.do(http.MethodGet, "/queue/serving", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	serving := decode[ServingResponse](t, rec)
	require.NotNil(t, serving.Serving)
	assert.Equal(t, 1, serving.Serving.QueueNumber)

	rec = a.do(http.MethodGet, "/queue/next", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[TicketsResponse](t, rec).Tickets, 1)

	rec = a.do(http.MethodPost, "/tickets/"+second.ID+"/cancel", "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(http.MethodPost, "/tickets/"+second.ID+"/cancel", "bob", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, string(queue.KindInvalidTransition), decode[ErrorResponse](t, rec).Kind)

	rec = a.do(http.MethodPost, "/staff/queue/advance", staffID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, string(queue.KindNoTicketsRemaining), decode[ErrorResponse](t, rec).Kind)

	rec = a.do(http.MethodPost, "/staff/tickets/"+first.ID+"/missed", staffID, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(http.MethodGet, "/queue", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	board := decode[domain.Board](t, rec)
	assert.True(t, board.Session.Active())
	assert.Zero(t, board.Remaining)
	assert.True(t, board.BookingOpen)

	rec = a.do(http.MethodGet, "/queue/today", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	today := decode[TodayResponse](t, rec)
	assert.Equal(t, "2024-03-11", today.Date)
	assert.Len(t, today.Tickets, 2)

	rec = a.do(http.MethodPost, "/staff/session/stop", staffID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[domain.Session](t, rec).Active())
}

func TestSlotsETag(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(http.MethodGet, "/calendar/slots", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	slots := decode[SlotsResponse](t, rec)
	assert.True(t, slots.BookingOpen)
	assert.Len(t, slots.Slots, len(calendar.DefaultSlots))

	tag := rec.Header().Get("ETag")
	require.NotEmpty(t, tag)

	rec = a.do(http.MethodGet, "/calendar/slots", "", nil, "If-None-Match", tag)
	assert.Equal(t, http.StatusNotModified, rec.Code)
}

func TestDepartmentStats(t *testing.T) {
	a := newTestAPI(t)
	a.start()
	a.book("alice")
	a.book("bob")

	rec := a.do(http.MethodGet, "/stats/departments", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	stats := decode[DepartmentStatsResponse](t, rec)
	assert.Equal(t, 7, stats.Days)
	require.Len(t, stats.Departments, 1)
	assert.EqualValues(t, 2, stats.Departments[0].Count)

	rec = a.do(http.MethodGet, "/stats/departments?days=0", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNotificationsInbox(t *testing.T) {
	a := newTestAPI(t)
	a.start()
	tk := a.book("alice")

	rec := a.do(http.MethodPost, "/tickets/"+tk.ID+"/cancel", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(http.MethodGet, "/notifications", staffID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	staffInbox := decode[NotificationsResponse](t, rec)
	require.Len(t, staffInbox.Notifications, 1)
	assert.Equal(t, "Appointment 1 has been cancelled by the student.", staffInbox.Notifications[0].Message)

	rec = a.do(http.MethodGet, "/notifications", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	inbox := decode[NotificationsResponse](t, rec)
	require.Len(t, inbox.Notifications, 2)
	assert.Equal(t, 2, inbox.Unread)

	rec = a.do(http.MethodPost, "/notifications/"+inbox.Notifications[0].ID+"/read", "alice", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = a.do(http.MethodPost, "/notifications/"+inbox.Notifications[0].ID+"/read", "bob", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(http.MethodGet, "/notifications", "alice", nil)
	assert.Equal(t, 1, decode[NotificationsResponse](t, rec).Unread)

	rec = a.do(http.MethodDelete, "/notifications", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decode[ClearNotificationsResponse](t, rec).Deleted)
}

func TestMetricsEndpoint(t *testing.T) {
	a := newTestAPI(t)
	a.start()
	a.book("alice")

	rec := a.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "frontdesk_tickets_allocated_total")
	assert.Contains(t, rec.Body.String(), "frontdesk_http_request_duration_seconds")
}

func TestStreamSendsBoard(t *testing.T) {
	a := newTestAPI(t)
	a.start()

	srv := httptest.NewServer(a.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/queue/stream", nil)
	require.NoError(t, err)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var sawEvent bool
	for sc.Scan() {
		line := sc.Text()
		if line == "event:board" {
			sawEvent = true
			continue
		}
		if sawEvent && strings.HasPrefix(line, "data:") {
			var b domain.Board
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data:")), &b))
			assert.True(t, b.Session.Active())
			return
		}
	}

	t.Fatalf("no board event received: %v", sc.Err())
}

func TestStreamSendsLatestBoardOnce(t *testing.T) {
	a := newTestAPI(t)
	a.start()
	a.svcs.Live.Refresh(context.Background())

	srv := httptest.NewServer(a.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/queue/stream", nil)
	require.NoError(t, err)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	boards := 0
	for sc.Scan() {
		line := sc.Text()
		if line == "event:board" {
			boards++
		}
		if strings.HasPrefix(line, ": keep-alive") {
			assert.Equal(t, 1, boards)
			return
		}
	}

	t.Fatalf("no keep-alive received: %v", sc.Err())
}

func TestStreamEndsWhenLiveStops(t *testing.T) {
	a := newTestAPI(t)
	a.start()

	liveCtx, stopLive := context.WithCancel(context.Background())
	defer stopLive()

	liveDone := make(chan error, 1)
	go func() { liveDone <- a.svcs.Live.Run(liveCtx) }()

	srv := httptest.NewServer(a.router)
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/queue/stream", nil)
	require.NoError(t, err)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		if strings.HasPrefix(sc.Text(), "data:") {
			break
		}
	}

	stopLive()
	select {
	case err := <-liveDone:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("live feed did not stop")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Config.Shutdown(ctx))

	_, err = io.ReadAll(resp.Body)
	assert.NoError(t, err)
}
