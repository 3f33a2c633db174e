package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	// Trading
	TradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credit_trades_total",
			Help: "Completed ownership transfers",
		},
		[]string{"type"}, // purchase|bid
	)
	OperationsFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commerce_operations_failed_total",
			Help: "Failed commerce operations",
		},
		[]string{"op", "reason"},
	)
	OperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "commerce_operation_duration_seconds",
			Help:    "Time spent waiting on commerce operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	// Worker queue
	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current worker queue depth",
		},
	)

	initOnce sync.Once
)

// Handler serves /metrics.
var Handler = promhttp.Handler

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestsTotal, TradesTotal, OperationsFailed, OperationDuration, WorkerQueueDepth)
	})
}
