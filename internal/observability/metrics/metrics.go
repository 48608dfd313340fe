package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dataplane_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dataplane_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dataplane_login_attempts_total",
		Help: "Count of login attempts by result",
	}, []string{"result"})

	uploadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dataplane_upload_duration_seconds",
		Help:    "Duration of dataset upload attempts",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})

	rowsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dataplane_rows_ingested_total",
		Help: "Total rows committed by the ingestion pipeline",
	})

	trainingCalls = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dataplane_training_call_duration_seconds",
		Help:    "Duration of training service calls by result",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})

	expiredContracts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dataplane_expired_contracts",
		Help: "Number of natural-person tenants past contract expiry",
	})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveLogin increments the login counter for the given result.
func ObserveLogin(result string) {
	loginAttempts.WithLabelValues(result).Inc()
}

// ObserveUpload records the duration of an upload attempt with a result label.
func ObserveUpload(result string, duration time.Duration) {
	uploadDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// AddRowsIngested adds a committed batch size to the row counter.
func AddRowsIngested(count int) {
	rowsIngested.Add(float64(count))
}

// ObserveTraining records a training service call with a result label.
func ObserveTraining(result string, duration time.Duration) {
	trainingCalls.WithLabelValues(result).Observe(duration.Seconds())
}

// SetExpiredContracts sets the expired contract gauge.
func SetExpiredContracts(count int64) {
	if count < 0 {
		count = 0
	}
	expiredContracts.Set(float64(count))
}
