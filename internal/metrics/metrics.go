package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestDuration is request latency in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "path", "status"},
	)

	PaymentsRegistered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_registered_total",
			Help: "Total number of payments registered, by resulting invoice status",
		},
		[]string{"status"},
	)

	ProgressRecalculations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "progress_recalculations_total",
			Help: "Total number of project progress recalculations",
		},
	)

	InvoicesMarkedOverdue = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "invoices_marked_overdue_total",
			Help: "Total number of invoices moved to overdue by the sweep",
		},
	)

	RecurringInvoicesGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recurring_invoices_generated_total",
			Help: "Total number of draft invoices generated for subscription renewals",
		},
	)
)

func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func IncrementPaymentsRegistered(status string) {
	PaymentsRegistered.WithLabelValues(status).Inc()
}

func IncrementProgressRecalculations() {
	ProgressRecalculations.Inc()
}

func AddInvoicesMarkedOverdue(n int) {
	InvoicesMarkedOverdue.Add(float64(n))
}

func AddRecurringInvoicesGenerated(n int) {
	RecurringInvoicesGenerated.Add(float64(n))
}
