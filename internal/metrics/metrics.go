package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"method", "path"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests in flight",
		},
	)

	// Ledger metrics
	LedgerOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "Total number of ledger operations",
		},
		[]string{"operation", "status"},
	)
	LedgerOpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "ledger_operation_duration_seconds",
			Help: "Duration of ledger operations in seconds",
		},
		[]string{"operation"},
	)

	// Domain metrics
	PlansCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "plans_created_total",
			Help: "Total number of plans created",
		},
	)
	SubscriptionsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscriptions_created_total",
			Help: "Total number of subscriptions created",
		},
	)
	LamportsTransferredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lamports_transferred_total",
			Help: "Total lamports moved from subscribers to creators",
		},
	)
)

func InitMetrics() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestsInFlight)

	prometheus.MustRegister(LedgerOpsTotal)
	prometheus.MustRegister(LedgerOpDuration)

	prometheus.MustRegister(PlansCreatedTotal)
	prometheus.MustRegister(SubscriptionsCreatedTotal)
	prometheus.MustRegister(LamportsTransferredTotal)

	// Go runtime and process collectors come with the default registry.
}
