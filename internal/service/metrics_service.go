package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Generation outcomes recorded by RecordScheduleGeneration.
const (
	GenerationOutcomeSuccess = "success"
	GenerationOutcomeFailed  = "failed"
	GenerationOutcomeLocked  = "locked"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry          *prometheus.Registry
	handler           http.Handler
	requestDuration   *prometheus.HistogramVec
	requestTotal      *prometheus.CounterVec
	generations       *prometheus.CounterVec
	generationSeconds prometheus.Histogram
	lessonsScheduled  prometheus.Counter
	generationWarns   prometheus.Counter
	conflictsDetected *prometheus.CounterVec
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

	generations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_generations_total",
		Help: "Lesson schedule generation runs by outcome",
	}, []string{"outcome"})

	generationSeconds := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "schedule_generation_duration_seconds",
		Help:    "Duration of lesson schedule generation runs",
		Buckets: prometheus.DefBuckets,
	})

	lessonsScheduled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lesson_progress_scheduled_total",
		Help: "Lesson progress records created or updated by generation",
	})

	generationWarns := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "schedule_generation_warnings_total",
		Help: "Warnings emitted by lesson schedule generation",
	})

	conflictsDetected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_conflicts_detected_total",
		Help: "Schedule conflicts reported by conflict checks",
	}, []string{"type"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, generations, generationSeconds, lessonsScheduled, generationWarns, conflictsDetected, goroutines)

	return &MetricsService{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		generations:       generations,
		generationSeconds: generationSeconds,
		lessonsScheduled:  lessonsScheduled,
		generationWarns:   generationWarns,
		conflictsDetected: conflictsDetected,
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

// Registry exposes the underlying registry for tests and extra collectors.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
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

// RecordScheduleGeneration records one generation run.
func (m *MetricsService) RecordScheduleGeneration(outcome string, generated, warnings int, duration time.Duration) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(outcome).Inc()
	m.generationSeconds.Observe(duration.Seconds())
	m.lessonsScheduled.Add(float64(generated))
	m.generationWarns.Add(float64(warnings))
}

// RecordConflict counts one reported conflict by type.
func (m *MetricsService) RecordConflict(conflictType string) {
	if m == nil {
		return
	}
	m.conflictsDetected.WithLabelValues(conflictType).Inc()
}
