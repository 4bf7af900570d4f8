// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Dataset metrics
	RowsLoaded    prometheus.Counter
	RowsDropped   prometheus.Counter
	MissingFilled prometheus.Counter

	// Sampling metrics
	SamplingRunsTotal prometheus.Counter
	SamplingErrors    prometheus.Counter
	SamplingDuration  prometheus.Histogram
	ChainAcceptRate   *prometheus.GaugeVec

	// Convergence metrics
	MaxRHat    prometheus.Gauge
	MinESSBulk prometheus.Gauge

	// Pipeline metrics
	PipelineRunsTotal *prometheus.CounterVec
	PipelineDuration  *prometheus.HistogramVec

	// Server metrics
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
	ArtifactsMissing  *prometheus.CounterVec
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "brent_regime_lab"
	}

	return &Metrics{
		RowsLoaded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "rows_loaded_total",
			Help:      "Total number of price rows loaded after cleaning",
		}),
		RowsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "rows_dropped_total",
			Help:      "Total number of rows dropped for unparseable dates",
		}),
		MissingFilled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "missing_filled_total",
			Help:      "Total number of missing prices filled",
		}),
		SamplingRunsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sampling",
			Name:      "runs_total",
			Help:      "Total number of MCMC sampling runs started",
		}),
		SamplingErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sampling",
			Name:      "errors_total",
			Help:      "Total number of sampling runs that failed",
		}),
		SamplingDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sampling",
			Name:      "duration_seconds",
			Help:      "MCMC sampling duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		ChainAcceptRate: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sampling",
			Name:      "chain_accept_rate",
			Help:      "Post-tune acceptance rate per chain",
		}, []string{"chain"}),
		MaxRHat: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "convergence",
			Name:      "max_rhat",
			Help:      "Maximum split R-hat over parameters in the last run",
		}),
		MinESSBulk: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "convergence",
			Name:      "min_ess_bulk",
			Help:      "Minimum bulk ESS over parameters in the last run",
		}),
		PipelineRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by stage and status",
		}, []string{"stage", "status"}),
		PipelineDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Pipeline stage duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		}, []string{"stage"}),
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by route and status code",
		}, []string{"route", "code"}),
		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		ArtifactsMissing: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "artifacts_missing_total",
			Help:      "Requests answered 404 because an artifact was absent",
		}, []string{"artifact"}),
		LastSuccessfulRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of the last successful pipeline run",
		}),
	}
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordLoad records dataset loading counters.
func RecordLoad(rows, dropped, filled int) {
	DefaultMetrics.RowsLoaded.Add(float64(rows))
	DefaultMetrics.RowsDropped.Add(float64(dropped))
	DefaultMetrics.MissingFilled.Add(float64(filled))
}

// RecordSampling records a sampling run.
func RecordSampling(seconds float64, err error) {
	DefaultMetrics.SamplingRunsTotal.Inc()
	DefaultMetrics.SamplingDuration.Observe(seconds)
	if err != nil {
		DefaultMetrics.SamplingErrors.Inc()
	}
}

// RecordConvergence records the last run's convergence extremes.
func RecordConvergence(maxRHat, minESS float64) {
	DefaultMetrics.MaxRHat.Set(maxRHat)
	DefaultMetrics.MinESSBulk.Set(minESS)
}

// RecordStage records a pipeline stage run.
func RecordStage(stage, status string, durationSeconds float64) {
	DefaultMetrics.PipelineRunsTotal.WithLabelValues(stage, status).Inc()
	DefaultMetrics.PipelineDuration.WithLabelValues(stage).Observe(durationSeconds)
}

// RecordHTTPRequest records a served HTTP request.
func RecordHTTPRequest(route, code string, seconds float64) {
	DefaultMetrics.HTTPRequests.WithLabelValues(route, code).Inc()
	DefaultMetrics.HTTPDuration.WithLabelValues(route).Observe(seconds)
}

// RecordArtifactMissing records a 404 for an absent artifact.
func RecordArtifactMissing(artifact string) {
	DefaultMetrics.ArtifactsMissing.WithLabelValues(artifact).Inc()
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
