// Package observability provides Prometheus metrics for report runs.
//
// Metrics live on a private registry and are written as a textfile after each
// run for node_exporter's textfile collector. There is no HTTP endpoint.
package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "bikeshare_report"

// Metrics holds all Prometheus metrics for one process.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	reg *prometheus.Registry

	// Input metrics
	TripsLoaded     *prometheus.CounterVec // label: source
	FeaturesDerived prometheus.Counter
	SeriesDays      prometheus.Gauge

	// Weekend test metrics
	PermutationReps prometheus.Counter
	WeekendPValue   prometheus.Gauge
	WeekendObserved prometheus.Gauge
	WeekendRejected prometheus.Gauge

	// Data quality
	ImplausibleValues *prometheus.CounterVec // label: kind

	// Pipeline metrics
	StageDuration     *prometheus.HistogramVec // label: stage
	RunsTotal         *prometheus.CounterVec   // label: status
	ReportsGenerated  *prometheus.CounterVec   // label: format
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a Metrics instance registered on a fresh registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	m := &Metrics{
		reg: prometheus.NewRegistry(),

		TripsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "input",
			Name:      "trips_loaded_total",
			Help:      "Total number of trip records loaded by source",
		}, []string{"source"}),
		FeaturesDerived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "features",
			Name:      "derived_total",
			Help:      "Total number of trip feature rows derived",
		}),
		SeriesDays: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "features",
			Name:      "daily_series_days",
			Help:      "Number of days in the gap-filled daily series",
		}),

		PermutationReps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "weekend",
			Name:      "permutation_reps_total",
			Help:      "Total number of permutation repetitions computed",
		}),
		WeekendPValue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "weekend",
			Name:      "p_value",
			Help:      "P-value of the latest weekend vs weekday test",
		}),
		WeekendObserved: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "weekend",
			Name:      "observed_difference",
			Help:      "Mean weekend hires minus mean weekday hires in the latest run",
		}),
		WeekendRejected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "weekend",
			Name:      "null_rejected",
			Help:      "1 if the latest test rejected the no-difference hypothesis, 0 otherwise",
		}),

		ImplausibleValues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quality",
			Name:      "implausible_values_total",
			Help:      "Implausible or missing values seen by the data quality audit, by kind",
		}, []string{"kind"}),

		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		}, []string{"stage"}),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of report runs by status",
		}, []string{"status"}),
		ReportsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "reports_generated_total",
			Help:      "Total number of report artifacts written by format",
		}, []string{"format"}),
		LastSuccessfulRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "last_successful_run_timestamp_seconds",
			Help:      "Unix time of the last successful report run",
		}),
	}

	m.reg.MustRegister(
		m.TripsLoaded, m.FeaturesDerived, m.SeriesDays,
		m.PermutationReps, m.WeekendPValue, m.WeekendObserved, m.WeekendRejected,
		m.ImplausibleValues,
		m.StageDuration, m.RunsTotal, m.ReportsGenerated, m.LastSuccessfulRun,
	)

	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// RecordTripsLoaded adds n loaded trips for source.
func (m *Metrics) RecordTripsLoaded(source string, n int) {
	if m == nil {
		return
	}
	m.TripsLoaded.WithLabelValues(source).Add(float64(n))
}

// RecordFeatures records derived rows and series length.
func (m *Metrics) RecordFeatures(rows, days int) {
	if m == nil {
		return
	}
	m.FeaturesDerived.Add(float64(rows))
	m.SeriesDays.Set(float64(days))
}

// RecordWeekendTest records the outcome of a permutation test.
func (m *Metrics) RecordWeekendTest(reps int, observed, pValue float64, rejected bool) {
	if m == nil {
		return
	}
	m.PermutationReps.Add(float64(reps))
	m.WeekendObserved.Set(observed)
	m.WeekendPValue.Set(pValue)
	if rejected {
		m.WeekendRejected.Set(1)
	} else {
		m.WeekendRejected.Set(0)
	}
}

// RecordImplausible adds n flagged values of kind.
func (m *Metrics) RecordImplausible(kind string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.ImplausibleValues.WithLabelValues(kind).Add(float64(n))
}

// ObserveStage records how long a pipeline stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordReport counts one written artifact.
func (m *Metrics) RecordReport(format string) {
	if m == nil {
		return
	}
	m.ReportsGenerated.WithLabelValues(format).Inc()
}

// RecordRun counts a finished run. Successful runs also stamp LastSuccessfulRun.
func (m *Metrics) RecordRun(status string, at time.Time) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(status).Inc()
	if status == StatusSuccess {
		m.LastSuccessfulRun.Set(float64(at.Unix()))
	}
}

// Run statuses
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// WriteTextfile writes all metrics in the Prometheus text format to path.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
