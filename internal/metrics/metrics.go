package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "frontdesk"

// Metrics holds the service collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	ticketsAllocated     *prometheus.CounterVec
	conflictRetries      *prometheus.CounterVec
	transitions          *prometheus.CounterVec
	operationErrors      *prometheus.CounterVec
	notificationFailures prometheus.Counter
	currentNumber        prometheus.Gauge
	liveClients          prometheus.Gauge
	httpDuration         *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		ticketsAllocated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tickets_allocated_total",
			Help:      "Tickets issued, by department.",
		}, []string{"department"}),
		conflictRetries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conflict_retries_total",
			Help:      "Operations repeated after a store conflict, by operation.",
		}, []string{"operation"}),
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticket_transitions_total",
			Help:      "Ticket state transitions applied, by action.",
		}, []string{"action"}),
		operationErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_errors_total",
			Help:      "Failed queue operations, by operation and error kind.",
		}, []string{"operation", "kind"}),
		notificationFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_failures_total",
			Help:      "Notifications that could not be recorded.",
		}),
		currentNumber: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_current_number",
			Help:      "Queue number currently being served; 0 when the session is inactive.",
		}),
		liveClients: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_board_clients",
			Help:      "Connected live board streams.",
		}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by method, route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) TicketAllocated(department string) {
	if m == nil {
		return
	}
	m.ticketsAllocated.WithLabelValues(department).Inc()
}

func (m *Metrics) ConflictRetried(operation string) {
	if m == nil {
		return
	}
	m.conflictRetries.WithLabelValues(operation).Inc()
}

func (m *Metrics) Transition(action string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(action).Inc()
}

func (m *Metrics) OperationFailed(operation, kind string) {
	if m == nil {
		return
	}
	m.operationErrors.WithLabelValues(operation, kind).Inc()
}

func (m *Metrics) NotificationFailed() {
	if m == nil {
		return
	}
	m.notificationFailures.Inc()
}

func (m *Metrics) SetCurrentNumber(n int) {
	if m == nil {
		return
	}
	m.currentNumber.Set(float64(n))
}

func (m *Metrics) LiveClientConnected() {
	if m == nil {
		return
	}
	m.liveClients.Inc()
}

func (m *Metrics) LiveClientDisconnected() {
	if m == nil {
		return
	}
	m.liveClients.Dec()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
