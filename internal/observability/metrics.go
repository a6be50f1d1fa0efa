package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Enrollments = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "facerec",
		Name:      "enrollments_total",
		Help:      "Total number of faces enrolled",
	})

	Recognitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "facerec",
		Name:      "recognitions_total",
		Help:      "Total number of recognition attempts by outcome",
	}, []string{"status"})

	Deletions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "facerec",
		Name:      "deletions_total",
		Help:      "Total number of face records deleted",
	})

	AuditLogFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "facerec",
		Name:      "audit_log_failures_total",
		Help:      "Recognition attempts whose audit entry could not be written",
	})

	InferenceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "facerec",
		Name:      "inference_duration_seconds",
		Help:      "Duration of ML inference stages",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"stage"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "facerec",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "facerec",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)
