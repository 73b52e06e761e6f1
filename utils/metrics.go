package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tailor_orders_created_total",
		Help: "Total number of orders taken in",
	})

	OrdersDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tailor_orders_deleted_total",
		Help: "Total number of orders deleted",
	})

	StatusTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tailor_order_status_transitions_total",
		Help: "Total number of status changes by target status",
	}, []string{"status"})

	PaymentsRecordedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tailor_payments_recorded_total",
		Help: "Total number of ledger entries by payment method",
	}, []string{"method"})

	StorageDeleteFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tailor_storage_delete_failures_total",
		Help: "Image deletions that failed and were ignored",
	}, []string{"backend"})

	ReportsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tailor_reports_rejected_total",
		Help: "Report requests rejected for exceeding the row ceiling",
	}, []string{"report"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
