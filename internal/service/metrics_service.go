package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP surface, the store and the scheduler core.
type MetricsService struct {
	registry             *prometheus.Registry
	handler              http.Handler
	requestDuration      *prometheus.HistogramVec
	requestTotal         *prometheus.CounterVec
	storeDuration        *prometheus.HistogramVec
	registrationOutcomes *prometheus.CounterVec
	dropTransitions      *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	storeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "store_operation_duration_seconds",
		Help:    "Duration of blob store operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	registrationOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "registration_attempts_total",
		Help: "Registration attempts by outcome",
	}, []string{"outcome"})

	dropTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "drop_request_transitions_total",
		Help: "Drop request state transitions by resulting status",
	}, []string{"status"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, storeDuration, registrationOutcomes, dropTransitions, goroutines)

	return &MetricsService{
		registry:             registry,
		handler:              promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:      requestDuration,
		requestTotal:         requestTotal,
		storeDuration:        storeDuration,
		registrationOutcomes: registrationOutcomes,
		dropTransitions:      dropTransitions,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveDBQuery records store operation timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.storeDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// RecordRegistration counts a register attempt by outcome code.
func (m *MetricsService) RecordRegistration(outcome string) {
	if m == nil {
		return
	}
	m.registrationOutcomes.WithLabelValues(outcome).Inc()
}

// RecordDropTransition counts a drop request entering status.
func (m *MetricsService) RecordDropTransition(status string) {
	if m == nil {
		return
	}
	m.dropTransitions.WithLabelValues(status).Inc()
}
