package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	apperrors "github.com/agbru/picalc/internal/errors"
	"github.com/agbru/picalc/internal/leibniz"
	"github.com/agbru/picalc/internal/orchestration"
)

// Namespace prefixes every metric exported by picalc.
const Namespace = "picalc"

// Run status label values.
const (
	StatusSuccess  = "success"
	StatusTimeout  = "timeout"
	StatusCanceled = "canceled"
	StatusConfig   = "config_error"
	StatusFailure  = "failure"
)

// RunCollector records the lifecycle of runs as Prometheus metrics. It
// implements orchestration.Instrumentation and registers its instruments on
// a private registry exposed through Registry.
type RunCollector struct {
	registry *prometheus.Registry

	jobsDispatched   prometheus.Counter
	termsDispatched  prometheus.Counter
	partialsReceived *prometheus.CounterVec
	jobDuration      prometheus.Histogram
	runDuration      prometheus.Histogram
	runs             *prometheus.CounterVec
	lastPi           prometheus.Gauge
	lastError        prometheus.Gauge
}

var _ orchestration.Instrumentation = (*RunCollector)(nil)

// NewRunCollector creates a collector with its own registry.
func NewRunCollector() *RunCollector {
	c := &RunCollector{
		registry: prometheus.NewRegistry(),
		jobsDispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "jobs_dispatched_total",
			Help:      "Number of jobs submitted to the worker pool.",
		}),
		termsDispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "terms_dispatched_total",
			Help:      "Number of series terms submitted to the worker pool.",
		}),
		partialsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "partials_received_total",
			Help:      "Number of partial sums computed, by worker.",
		}, []string{"worker"}),
		jobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "job_duration_seconds",
			Help:      "Time spent computing one partial sum.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "run_duration_seconds",
			Help:      "Elapsed time of complete runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "runs_total",
			Help:      "Number of finished runs, by status.",
		}, []string{"status"}),
		lastPi: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_pi",
			Help:      "Approximation of pi produced by the last successful run.",
		}),
		lastError: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_abs_error",
			Help:      "Absolute difference between the last approximation and math.Pi.",
		}),
	}
	c.registry.MustRegister(
		c.jobsDispatched,
		c.termsDispatched,
		c.partialsReceived,
		c.jobDuration,
		c.runDuration,
		c.runs,
		c.lastPi,
		c.lastError,
	)
	return c
}

// Registry returns the registry holding the run metrics.
func (c *RunCollector) Registry() *prometheus.Registry { return c.registry }

// JobDispatched implements orchestration.Instrumentation.
func (c *RunCollector) JobDispatched(job leibniz.Job) {
	c.jobsDispatched.Inc()
	c.termsDispatched.Add(float64(job.Length))
}

// PartialReceived implements orchestration.Instrumentation.
func (c *RunCollector) PartialReceived(worker int, _ leibniz.Job, took time.Duration) {
	c.partialsReceived.WithLabelValues(strconv.Itoa(worker)).Inc()
	c.jobDuration.Observe(took.Seconds())
}

// RunFinished implements orchestration.Instrumentation.
func (c *RunCollector) RunFinished(result orchestration.RunResult) {
	status := StatusFor(result.Err)
	c.runs.WithLabelValues(status).Inc()
	if status != StatusSuccess {
		return
	}
	c.runDuration.Observe(result.Duration.Seconds())
	c.lastPi.Set(result.Pi)
	c.lastError.Set(AbsError(result.Pi))
}

// StatusFor maps a run error to its status label.
func StatusFor(err error) string {
	switch apperrors.ExitCodeFor(err) {
	case apperrors.ExitSuccess:
		return StatusSuccess
	case apperrors.ExitErrorTimeout:
		return StatusTimeout
	case apperrors.ExitErrorCanceled:
		return StatusCanceled
	case apperrors.ExitErrorConfig:
		return StatusConfig
	default:
		return StatusFailure
	}
}
