package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hoa_http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hoa_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	PaymentsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hoa_payments_submitted_total",
		Help: "Payments and contributions submitted, by kind and method.",
	}, []string{"kind", "method"})

	VerificationDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hoa_verification_decisions_total",
		Help: "Admin verify/reject decisions, by kind and outcome.",
	}, []string{"kind", "status"})

	ReservationDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hoa_reservation_decisions_total",
		Help: "Reservation status changes by resulting status.",
	}, []string{"status"})

	VersionConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hoa_row_version_conflicts_total",
		Help: "Writes rejected because the record changed since it was read.",
	}, []string{"entity"})

	SchedulerRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hoa_scheduler_runs_total",
		Help: "Scheduled job runs by job and result.",
	}, []string{"job", "result"})

	DuesMarkedOverdue = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hoa_dues_marked_overdue_total",
		Help: "Dues flipped to overdue by the scheduler.",
	})

	WebsocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hoa_websocket_clients",
		Help: "Connected notification clients.",
	})
)
