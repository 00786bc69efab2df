package service

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsService owns the Prometheus collectors for both the HTTP surface
// and the generation engine.
type MetricsService struct {
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	runs            *prometheus.CounterVec
	runDuration     prometheus.Histogram
	coursesAssigned prometheus.Gauge
}

// NewMetricsService registers all collectors on the given registerer.
func NewMetricsService(reg prometheus.Registerer) *MetricsService {
	m := &MetricsService{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduler_runs_total",
			Help: "Generation runs by terminal result.",
		}, []string{"result"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scheduler_run_duration_seconds",
			Help:    "Wall time of a generation run.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		coursesAssigned: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scheduler_courses_assigned",
			Help: "Courses placed by the most recent successful run.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.httpRequests, m.httpDuration, m.runs, m.runDuration, m.coursesAssigned)
	}
	return m
}

// ObserveHTTPRequest records one served request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordRun records one finished generation run.
func (m *MetricsService) RecordRun(result string, duration time.Duration, assigned int) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(result).Inc()
	m.runDuration.Observe(duration.Seconds())
	if result == "completed" {
		m.coursesAssigned.Set(float64(assigned))
	}
}
