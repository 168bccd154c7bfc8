package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	BatchesProcessed    prometheus.Counter
	RowsRejected        prometheus.Counter
	CertificatesIssued  prometheus.Counter
	CertificatesFailed  *prometheus.CounterVec
	NotificationsFailed prometheus.Counter
	BatchDuration       prometheus.Histogram
	RenderDuration      prometheus.Histogram
	RequestDuration     *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		BatchesProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vellum_batches_processed_total",
			Help: "Total number of bulk issuance batches processed",
		}),
		RowsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vellum_rows_rejected_total",
			Help: "Total number of input rows rejected during validation",
		}),
		CertificatesIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vellum_certificates_issued_total",
			Help: "Total number of certificates issued (persisted records)",
		}),
		CertificatesFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vellum_certificates_failed_total",
			Help: "Total number of recipients failed, by pipeline stage",
		}, []string{"stage"}),
		NotificationsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vellum_notifications_failed_total",
			Help: "Total number of notification sends that failed after issuance",
		}),
		BatchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vellum_batch_duration_seconds",
			Help:    "Wall time to process one bulk issuance batch",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		RenderDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vellum_render_duration_seconds",
			Help:    "Time to render one certificate artifact",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vellum_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// All increment helpers are nil-safe so services can run without metrics in
// tests.

func (m *Metrics) IncBatchesProcessed() {
	if m != nil {
		m.BatchesProcessed.Inc()
	}
}

func (m *Metrics) AddRowsRejected(n int) {
	if m != nil {
		m.RowsRejected.Add(float64(n))
	}
}

func (m *Metrics) IncCertificatesIssued() {
	if m != nil {
		m.CertificatesIssued.Inc()
	}
}

func (m *Metrics) IncCertificatesFailed(stage string) {
	if m != nil {
		m.CertificatesFailed.WithLabelValues(stage).Inc()
	}
}

func (m *Metrics) IncNotificationsFailed() {
	if m != nil {
		m.NotificationsFailed.Inc()
	}
}

func (m *Metrics) ObserveBatchDuration(d time.Duration) {
	if m != nil {
		m.BatchDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) ObserveRenderDuration(d time.Duration) {
	if m != nil {
		m.RenderDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) ObserveRequest(route, status string, d time.Duration) {
	if m != nil {
		m.RequestDuration.WithLabelValues(route, status).Observe(d.Seconds())
	}
}
