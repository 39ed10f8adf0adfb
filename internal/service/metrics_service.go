package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService owns the Prometheus registry and the counters the
// attendance and import pipelines report into.
type MetricsService struct {
	registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	scansTotal      *prometheus.CounterVec
	importRowsTotal *prometheus.CounterVec
	importRunsTotal *prometheus.CounterVec
}

// NewMetricsService builds the registry and registers all collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &MetricsService{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"method", "path", "status"}),
		scansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_scans_total",
			Help: "QR scans by classification result.",
		}, []string{"result"}),
		importRowsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_import_rows_total",
			Help: "Roster import rows by outcome.",
		}, []string{"outcome"}),
		importRunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_import_runs_total",
			Help: "Roster import runs by terminal state.",
		}, []string{"state"}),
	}
	registry.MustRegister(m.requestDuration, m.requestTotal, m.scansTotal, m.importRowsTotal, m.importRunsTotal)
	return m
}

// Handler serves the scrape endpoint.
func (m *MetricsService) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest records one handled request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, code).Inc()
}

// IncScan counts one QR scan result (on_time, late, duplicate,
// unknown_code, window_closed).
func (m *MetricsService) IncScan(result string) {
	m.scansTotal.WithLabelValues(result).Inc()
}

// IncImportRow counts one processed roster row (created, updated, error).
func (m *MetricsService) IncImportRow(outcome string) {
	m.importRowsTotal.WithLabelValues(outcome).Inc()
}

// IncImportRun counts one finished import run (done, failed).
func (m *MetricsService) IncImportRun(state string) {
	m.importRunsTotal.WithLabelValues(state).Inc()
}
