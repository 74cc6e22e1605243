// Package metrics exposes Prometheus instrumentation for the record codec,
// the object stores and the HTTP gateway.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Metrics holds all Prometheus metrics. It satisfies record.Observer and
// storage.Observer.
type Metrics struct {
	// HTTP request metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight *prometheus.GaugeVec

	// Codec metrics
	codecOperationsTotal *prometheus.CounterVec
	codecDuration        *prometheus.HistogramVec
	codecBytes           *prometheus.HistogramVec

	// Storage metrics
	storageOperationsTotal   *prometheus.CounterVec
	storageOperationDuration *prometheus.HistogramVec
	storeObjectsTotal        prometheus.Gauge
	storeDataSizeBytes       prometheus.Gauge

	authRequestsTotal *prometheus.CounterVec
	healthChecksTotal *prometheus.CounterVec
}

// New creates all metrics and registers them with reg. Pass
// prometheus.DefaultRegisterer to expose them on promhttp.Handler.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boconv_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "boconv_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		httpRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "boconv_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"method", "endpoint"},
		),

		codecOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boconv_codec_operations_total",
				Help: "Total number of record encodes and decodes",
			},
			[]string{"operation", "type", "status"},
		),

		codecDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "boconv_codec_duration_seconds",
				Help:    "Record encode and decode duration in seconds",
				Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
			},
			[]string{"operation", "type"},
		),

		codecBytes: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "boconv_codec_record_bytes",
				Help:    "Size of encoded records",
				Buckets: prometheus.ExponentialBuckets(16, 4, 10),
			},
			[]string{"operation", "type"},
		),

		storageOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boconv_storage_operations_total",
				Help: "Total number of object storage operations",
			},
			[]string{"operation", "type", "status"},
		),

		storageOperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "boconv_storage_operation_duration_seconds",
				Help:    "Object storage operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		storeObjectsTotal: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "boconv_store_objects_total",
				Help: "Number of live objects in the object store",
			},
		),

		storeDataSizeBytes: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "boconv_store_data_size_bytes",
				Help: "Size of the object log in bytes",
			},
		),

		authRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boconv_auth_requests_total",
				Help: "Total number of authentication requests",
			},
			[]string{"status"},
		),

		healthChecksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boconv_health_checks_total",
				Help: "Total number of health checks",
			},
			[]string{"status"},
		),
	}
}

func status(err error) string {
	if err != nil {
		return statusError
	}
	return statusSuccess
}

// ObserveEncode records a top-level record encode
func (m *Metrics) ObserveEncode(typeName string, size int, elapsed time.Duration, err error) {
	m.observeCodec("encode", typeName, size, elapsed, err)
}

// ObserveDecode records a top-level record decode
func (m *Metrics) ObserveDecode(typeName string, size int, elapsed time.Duration, err error) {
	m.observeCodec("decode", typeName, size, elapsed, err)
}

func (m *Metrics) observeCodec(op, typeName string, size int, elapsed time.Duration, err error) {
	m.codecOperationsTotal.WithLabelValues(op, typeName, status(err)).Inc()
	m.codecDuration.WithLabelValues(op, typeName).Observe(elapsed.Seconds())
	if err == nil {
		m.codecBytes.WithLabelValues(op, typeName).Observe(float64(size))
	}
}

// ObserveStorage records an object store operation
func (m *Metrics) ObserveStorage(op, typeName string, _ int, elapsed time.Duration, err error) {
	m.storageOperationsTotal.WithLabelValues(op, typeName, status(err)).Inc()
	m.storageOperationDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// UpdateStoreStats sets the object count and data size gauges
func (m *Metrics) UpdateStoreStats(objects int, dataSize int64) {
	m.storeObjectsTotal.Set(float64(objects))
	m.storeDataSizeBytes.Set(float64(dataSize))
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordAuthRequest records an authentication request
func (m *Metrics) RecordAuthRequest(success bool) {
	s := statusSuccess
	if !success {
		s = statusError
	}
	m.authRequestsTotal.WithLabelValues(s).Inc()
}

// RecordHealthCheck records a health check
func (m *Metrics) RecordHealthCheck(success bool) {
	s := statusSuccess
	if !success {
		s = statusError
	}
	m.healthChecksTotal.WithLabelValues(s).Inc()
}

// InstrumentHandler instruments an HTTP handler with metrics
func (m *Metrics) InstrumentHandler(method, endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		gauge := m.httpRequestsInFlight.WithLabelValues(method, endpoint)
		gauge.Inc()
		defer gauge.Dec()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		handler(rw, r)

		m.RecordHTTPRequest(method, endpoint, rw.statusCode, time.Since(start))
	}
}

// InstrumentAuthMiddleware counts authentication outcomes of requests that
// carried an API key
func (m *Metrics) InstrumentAuthMiddleware(next func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hasAPIKey := r.Header.Get("X-API-Key") != ""

			rw, ok := w.(*responseWriter)
			if !ok {
				rw = &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			}
			next(h).ServeHTTP(rw, r)

			if hasAPIKey {
				m.RecordAuthRequest(rw.statusCode != http.StatusUnauthorized)
			}
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
