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
	// Engine metrics
	RunsTotal           *prometheus.CounterVec
	RunDuration         *prometheus.HistogramVec
	DaysForecast        prometheus.Counter
	ClampedPredictions  prometheus.Counter
	ModelErrors         prometheus.Counter
	PreconditionFailure *prometheus.CounterVec
	ComparisonsTotal    *prometheus.CounterVec

	// Verification metrics
	RunsVerified *prometheus.CounterVec

	// Reporting metrics
	ReportsGenerated prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "sales_forecast_lab"
	}

	return &Metrics{
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "runs_total",
			Help:      "Total number of forecast runs by competition scenario and status",
		}, []string{"competition", "status"}),
		RunDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "run_duration_seconds",
			Help:      "Forecast run duration in seconds",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"competition"}),
		DaysForecast: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "days_forecast_total",
			Help:      "Total number of days forecast",
		}),
		ClampedPredictions: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "clamped_predictions_total",
			Help:      "Total number of negative predictions floored at zero",
		}),
		ModelErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "model_errors_total",
			Help:      "Total number of regressor failures",
		}),
		PreconditionFailure: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "precondition_failures_total",
			Help:      "Total number of rejected inputs by field",
		}, []string{"field"}),
		ComparisonsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "comparisons_total",
			Help:      "Total number of scenario comparisons by status",
		}, []string{"status"}),

		RunsVerified: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "verification",
			Name:      "runs_verified_total",
			Help:      "Total number of stored runs replayed by result",
		}, []string{"result"}),

		ReportsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reporting",
			Name:      "reports_generated_total",
			Help:      "Total number of reports generated",
		}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"store", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"store", "operation"}),

		LastSuccessfulRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful forecast run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordRun records a finished forecast run.
func RecordRun(competition, status string, durationSeconds float64, days, clamped int) {
	DefaultMetrics.RunsTotal.WithLabelValues(competition, status).Inc()
	DefaultMetrics.RunDuration.WithLabelValues(competition).Observe(durationSeconds)
	DefaultMetrics.DaysForecast.Add(float64(days))
	DefaultMetrics.ClampedPredictions.Add(float64(clamped))
}

// RecordModelError increments the regressor failure counter.
func RecordModelError() {
	DefaultMetrics.ModelErrors.Inc()
}

// RecordPreconditionFailure records a rejected input.
func RecordPreconditionFailure(field string) {
	DefaultMetrics.PreconditionFailure.WithLabelValues(field).Inc()
}

// RecordComparison records a finished scenario comparison.
func RecordComparison(status string) {
	DefaultMetrics.ComparisonsTotal.WithLabelValues(status).Inc()
}

// RecordVerification records the result of replaying a stored run.
func RecordVerification(result string) {
	DefaultMetrics.RunsVerified.WithLabelValues(result).Inc()
}

// RecordReportGenerated increments the reports counter.
func RecordReportGenerated() {
	DefaultMetrics.ReportsGenerated.Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(store, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(store, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(store, operation).Inc()
	}
}

// UpdateLastSuccessfulRun sets the last successful run timestamp.
func UpdateLastSuccessfulRun(unixSeconds int64) {
	DefaultMetrics.LastSuccessfulRun.Set(float64(unixSeconds))
}
