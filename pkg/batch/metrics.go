package batch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Line outcomes.
const (
	OutcomeMapped   = "mapped"
	OutcomeRejected = "rejected"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"
)

// Metrics holds the Prometheus metrics of batch jobs
type Metrics struct {
	linesTotal  *prometheus.CounterVec
	jobsTotal   *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
}

// NewMetrics creates the batch metrics and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		linesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flatrec_batch_lines_total",
				Help: "Total number of lines processed by batch jobs",
			},
			[]string{"layout", "outcome"},
		),
		jobsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flatrec_batch_jobs_total",
				Help: "Total number of batch jobs",
			},
			[]string{"layout", "status"},
		),
		jobDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flatrec_batch_job_duration_seconds",
				Help:    "Batch job duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"layout"},
		),
	}
}

// RecordLine records the outcome of one line
func (m *Metrics) RecordLine(layout, outcome string) {
	if m == nil {
		return
	}
	m.linesTotal.WithLabelValues(layout, outcome).Inc()
}

// RecordJob records a finished job
func (m *Metrics) RecordJob(layout string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "error"
	}
	m.jobsTotal.WithLabelValues(layout, status).Inc()
	m.jobDuration.WithLabelValues(layout).Observe(duration.Seconds())
}
