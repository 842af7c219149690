package reporting

import (
	"time"

	"bikeshare-report/internal/domain"
	"bikeshare-report/internal/metrics"
	"bikeshare-report/internal/normalization"
)

// Report is everything one run publishes.
type Report struct {
	// Metadata
	RunID            string
	GeneratedAt      time.Time
	GeneratorVersion string
	DatasetVersion   string
	Seed             uint64
	Parameters       Parameters

	Summary *metrics.Summary

	// Daily series and its rolling average, index-aligned
	Series           domain.DailySeries
	Rolling          []domain.RollingPoint
	RollingHigh      *domain.RollingPoint // nil when no value is defined
	RollingLow       *domain.RollingPoint
	RollingUndefined int

	Weekend *domain.WeekendTestResult
	// WeekendVerdict is a one-sentence reading of the test outcome.
	WeekendVerdict string

	// Per-trip features in input order
	Features []*domain.DerivedFeatures

	// Sufficiency is filled in by the caller after generation.
	Sufficiency DataSufficiency
}

// DataSufficiency contains data sufficiency checks and integrity errors.
type DataSufficiency struct {
	Checks          []SufficiencyRow
	IntegrityErrors []string
	AllChecksPassed bool
}

// SufficiencyRow represents one sufficiency criterion.
type SufficiencyRow struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// Parameters records the constants a run used.
type Parameters struct {
	SphereRadiusKm       float64
	DistancePrecision    int // decimals kept on distance_km
	FiscalYearStartMonth time.Month
	Window               normalization.RollingWindow
	Reps                 int
	Threshold            float64
	WeekStart            time.Weekday
}
