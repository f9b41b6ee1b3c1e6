package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TransactionsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transactions_created_total",
			Help: "Total number of transactions created",
		},
		[]string{"kind"},
	)

	TransactionsResolved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transactions_resolved_total",
			Help: "Total number of transactions reaching a terminal status",
		},
		[]string{"kind", "status"},
	)

	ProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vtu_provider_request_duration_seconds",
			Help:    "Duration of upstream VTU provider calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	NotificationsDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_dispatched_total",
			Help: "Total number of outbox notification delivery attempts",
		},
		[]string{"status"},
	)
)

func InitMetrics() {
	prometheus.MustRegister(
		TransactionsCreated,
		TransactionsResolved,
		ProviderRequestDuration,
		NotificationsDispatched,
	)
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
