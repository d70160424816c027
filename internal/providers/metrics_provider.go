package providers

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"glucolog/internal/structures"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncBackupsTotal(location string)
	IncBackupFailures()
	IncRestoredRecords(count int)
	IncCandidatesDiscovered(origin string, count int)
	ObserveDiscoveryDuration(duration time.Duration)
	ObservePersistenceDuration(duration time.Duration)
	SetReadingsTotal(count int)
}

type MetricsProvider struct {
	requestsTotal        *prometheus.CounterVec
	requestDuration      *prometheus.HistogramVec
	backupsTotal         *prometheus.CounterVec
	backupFailures       prometheus.Counter
	restoredRecords      prometheus.Counter
	candidatesDiscovered *prometheus.CounterVec
	discoveryDuration    prometheus.Histogram
	persistenceDuration  prometheus.Histogram
	readingsTotal        prometheus.Gauge
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncBackupsTotal(location string) {
	m.backupsTotal.WithLabelValues(location).Inc()
}

func (m *MetricsProvider) IncBackupFailures() {
	m.backupFailures.Inc()
}

func (m *MetricsProvider) IncRestoredRecords(count int) {
	m.restoredRecords.Add(float64(count))
}

func (m *MetricsProvider) IncCandidatesDiscovered(origin string, count int) {
	m.candidatesDiscovered.WithLabelValues(origin).Add(float64(count))
}

func (m *MetricsProvider) ObserveDiscoveryDuration(duration time.Duration) {
	m.discoveryDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) SetReadingsTotal(count int) {
	m.readingsTotal.Set(float64(count))
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	return &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "glucolog_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "glucolog_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		backupsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "glucolog_backups_total",
			Help: "Total number of backup snapshots written, by location",
		}, []string{"location"}),

		backupFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "glucolog_backup_failures_total",
			Help: "Total number of backup attempts that failed everywhere",
		}),

		restoredRecords: promauto.NewCounter(prometheus.CounterOpts{
			Name: "glucolog_restored_records_total",
			Help: "Total number of records inserted by restore operations",
		}),

		candidatesDiscovered: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "glucolog_backup_candidates_total",
			Help: "Backup candidates discovered, by origin",
		}, []string{"origin"}),

		discoveryDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "glucolog_discovery_duration_seconds",
			Help:    "Candidate discovery pass duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		persistenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "glucolog_persistence_duration_seconds",
			Help:    "Local store persistence duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		readingsTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "glucolog_readings_total",
			Help: "Current number of readings in the local store",
		}),
	}
}

type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncBackupsTotal(_ string)                         {}
func (n *noopMetrics) IncBackupFailures()                               {}
func (n *noopMetrics) IncRestoredRecords(_ int)                         {}
func (n *noopMetrics) IncCandidatesDiscovered(_ string, _ int)          {}
func (n *noopMetrics) ObserveDiscoveryDuration(_ time.Duration)         {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)       {}
func (n *noopMetrics) SetReadingsTotal(_ int)                           {}
