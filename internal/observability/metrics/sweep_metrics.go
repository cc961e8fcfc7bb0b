package metrics

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	SweepJobReasonDeadlineExceeded = "deadline_exceeded"
	SweepJobReasonUnknown          = "unknown"
)

// SweepMetrics captures billing sweep health signals.
type SweepMetrics struct {
	jobRuns       *prometheus.CounterVec
	jobDuration   *prometheus.HistogramVec
	jobTimeouts   *prometheus.CounterVec
	jobErrors     *prometheus.CounterVec
	recordsSwept  *prometheus.CounterVec
	paymentEvents *prometheus.CounterVec
}

var (
	sweepMetricsOnce sync.Once
	sweepMetrics     *SweepMetrics
)

// Sweep returns the singleton sweep metrics registry.
func Sweep() *SweepMetrics {
	return SweepWithConfig(Config{})
}

// SweepWithConfig returns the singleton sweep metrics registry using config labels.
func SweepWithConfig(cfg Config) *SweepMetrics {
	sweepMetricsOnce.Do(func() {
		sweepMetrics = newSweepMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return sweepMetrics
}

// ResetSweepMetricsForTest resets the sweep metrics singleton for tests.
func ResetSweepMetricsForTest() {
	sweepMetricsOnce = sync.Once{}
	sweepMetrics = nil
}

func newSweepMetrics(registerer prometheus.Registerer, cfg Config) *SweepMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	constLabels := cfg.constLabels()

	jobRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "lagring_sweep_job_runs_total",
		Help:        "Billing sweep job runs by name.",
		ConstLabels: constLabels,
	}, []string{"job"})
	jobDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "lagring_sweep_job_duration_seconds",
		Help:        "Billing sweep job latency.",
		Buckets:     []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
		ConstLabels: constLabels,
	}, []string{"job"})
	jobTimeouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "lagring_sweep_job_timeouts_total",
		Help:        "Billing sweep jobs cut off by their deadline.",
		ConstLabels: constLabels,
	}, []string{"job"})
	jobErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "lagring_sweep_job_errors_total",
		Help:        "Billing sweep job errors by reason.",
		ConstLabels: constLabels,
	}, []string{"job", "reason"})
	recordsSwept := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "lagring_sweep_records_total",
		Help:        "Billing records processed per job and outcome.",
		ConstLabels: constLabels,
	}, []string{"job", "outcome"})
	paymentEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "lagring_payment_events_total",
		Help:        "Payment attempts by provider and outcome.",
		ConstLabels: constLabels,
	}, []string{"provider", "outcome"})

	for _, vec := range []*prometheus.CounterVec{jobRuns, jobTimeouts, jobErrors, recordsSwept, paymentEvents} {
		_ = registerer.Register(vec)
	}
	_ = registerer.Register(jobDuration)

	return &SweepMetrics{
		jobRuns:       jobRuns,
		jobDuration:   jobDuration,
		jobTimeouts:   jobTimeouts,
		jobErrors:     jobErrors,
		recordsSwept:  recordsSwept,
		paymentEvents: paymentEvents,
	}
}

func (m *SweepMetrics) IncJobRun(job string) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job).Inc()
}

func (m *SweepMetrics) ObserveJobDuration(job string, d time.Duration) {
	if m == nil {
		return
	}
	m.jobDuration.WithLabelValues(job).Observe(d.Seconds())
}

func (m *SweepMetrics) IncJobTimeout(job string) {
	if m == nil {
		return
	}
	m.jobTimeouts.WithLabelValues(job).Inc()
}

func (m *SweepMetrics) IncJobError(job string, err error) {
	if m == nil {
		return
	}
	m.jobErrors.WithLabelValues(job, errorReason(err)).Inc()
}

func (m *SweepMetrics) IncRecordSwept(job, outcome string) {
	if m == nil {
		return
	}
	m.recordsSwept.WithLabelValues(job, outcome).Inc()
}

func (m *SweepMetrics) IncPaymentEvent(provider, outcome string) {
	if m == nil {
		return
	}
	m.paymentEvents.WithLabelValues(provider, outcome).Inc()
}

func errorReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return SweepJobReasonDeadlineExceeded
	default:
		return SweepJobReasonUnknown
	}
}
