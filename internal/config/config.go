// Package config loads report configuration.
//
// Sources, lowest to highest precedence: Default(), an optional YAML file,
// a .env file and BIKESHARE_* environment variables. Variables already set in
// the process environment win over the .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"bikeshare-report/internal/domain"
	"bikeshare-report/internal/hypothesis"
	"bikeshare-report/internal/metrics"
	"bikeshare-report/internal/normalization"
)

// EnvPrefix is the environment variable prefix.
const EnvPrefix = "BIKESHARE"

// Source kinds
const (
	SourceCSV        = "csv"
	SourcePostgres   = "postgres"
	SourceClickhouse = "clickhouse"
	SourceSQLite     = "sqlite"
	SourceFixtures   = "fixtures"
)

// Config represents the complete report configuration.
type Config struct {
	Source   SourceConfig   `yaml:"source" envconfig:"SOURCE"`
	Features FeaturesConfig `yaml:"features" envconfig:"FEATURES"`
	Rolling  RollingConfig  `yaml:"rolling" envconfig:"ROLLING"`
	Weekend  WeekendConfig  `yaml:"weekend" envconfig:"WEEKEND"`
	Summary  SummaryConfig  `yaml:"summary" envconfig:"SUMMARY"`
	Output   OutputConfig   `yaml:"output" envconfig:"OUTPUT"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
}

// SourceConfig selects where trip records come from.
type SourceConfig struct {
	Kind          string `yaml:"kind" envconfig:"KIND" validate:"oneof=csv postgres clickhouse sqlite fixtures"`
	CSVPath       string `yaml:"csv_path" envconfig:"CSV_PATH" validate:"required_if=Kind csv"`
	PostgresDSN   string `yaml:"postgres_dsn" envconfig:"POSTGRES_DSN" validate:"required_if=Kind postgres"`
	ClickhouseDSN string `yaml:"clickhouse_dsn" envconfig:"CLICKHOUSE_DSN" validate:"required_if=Kind clickhouse"`
	SQLitePath    string `yaml:"sqlite_path" envconfig:"SQLITE_PATH" validate:"required_if=Kind sqlite"`

	// Optional reporting period, inclusive calendar dates (2006-01-02).
	// Both or neither must be set.
	PeriodStart string `yaml:"period_start" envconfig:"PERIOD_START" validate:"required_with=PeriodEnd"`
	PeriodEnd   string `yaml:"period_end" envconfig:"PERIOD_END" validate:"required_with=PeriodStart"`
}

// PeriodLayout is the date format of period_start and period_end.
const PeriodLayout = "2006-01-02"

// Period returns the reporting window as start-time bounds for
// TripRecordStore.GetByTimeRange. ok is false when no period is configured.
// end is the last instant of the PeriodEnd date.
func (c SourceConfig) Period() (start, end time.Time, ok bool, err error) {
	if c.PeriodStart == "" && c.PeriodEnd == "" {
		return time.Time{}, time.Time{}, false, nil
	}
	if c.PeriodStart == "" || c.PeriodEnd == "" {
		return time.Time{}, time.Time{}, false, fmt.Errorf("%w: period_start and period_end must be set together", domain.ErrInvalidConfiguration)
	}
	if start, err = time.Parse(PeriodLayout, c.PeriodStart); err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("%w: period_start: %v", domain.ErrInvalidConfiguration, err)
	}
	last, err := time.Parse(PeriodLayout, c.PeriodEnd)
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("%w: period_end: %v", domain.ErrInvalidConfiguration, err)
	}
	if last.Before(start) {
		return time.Time{}, time.Time{}, false, fmt.Errorf("%w: period_end %s before period_start %s", domain.ErrInvalidConfiguration, c.PeriodEnd, c.PeriodStart)
	}
	return start, last.AddDate(0, 0, 1).Add(-time.Nanosecond), true, nil
}

// FeaturesConfig holds the per-trip derivation constants.
type FeaturesConfig struct {
	SphereRadiusKm       float64 `yaml:"sphere_radius_km" envconfig:"SPHERE_RADIUS_KM" validate:"gt=0"`
	FiscalYearStartMonth int     `yaml:"fiscal_year_start_month" envconfig:"FISCAL_YEAR_START_MONTH" validate:"min=1,max=12"`
	DistancePrecision    int     `yaml:"distance_precision" envconfig:"DISTANCE_PRECISION" validate:"min=0,max=9"`
}

// RollingConfig describes the centered rolling window.
type RollingConfig struct {
	Before     int    `yaml:"before" envconfig:"BEFORE" validate:"min=0"`
	After      int    `yaml:"after" envconfig:"AFTER" validate:"min=0"`
	EdgePolicy string `yaml:"edge_policy" envconfig:"EDGE_POLICY" validate:"oneof=partial undefined"`
}

// WeekendConfig parameterizes the permutation test.
type WeekendConfig struct {
	Reps      int     `yaml:"reps" envconfig:"REPS" validate:"gt=0"`
	Threshold float64 `yaml:"threshold" envconfig:"THRESHOLD" validate:"gt=0,lt=1"`
	Seed      uint64  `yaml:"seed" envconfig:"SEED"`
	Workers   int     `yaml:"workers" envconfig:"WORKERS" validate:"min=0"`
}

// SummaryConfig controls the grouped projections and quality audit.
type SummaryConfig struct {
	TopN                        int       `yaml:"top_n" envconfig:"TOP_N" validate:"gt=0"`
	DistanceBucketsKm           []float64 `yaml:"distance_buckets_km" envconfig:"DISTANCE_BUCKETS_KM" validate:"min=1,dive,gte=0"`
	WeekStart                   string    `yaml:"week_start" envconfig:"WEEK_START" validate:"required"` // any case, see ParseWeekday
	MaxPlausibleAge             int       `yaml:"max_plausible_age" envconfig:"MAX_PLAUSIBLE_AGE" validate:"gt=0"`
	MaxPlausibleDurationMinutes float64   `yaml:"max_plausible_duration_minutes" envconfig:"MAX_PLAUSIBLE_DURATION_MINUTES" validate:"gt=0"`
	BirthYearSpikeShare         float64   `yaml:"birth_year_spike_share" envconfig:"BIRTH_YEAR_SPIKE_SHARE" validate:"gt=0,lte=1"`
}

// OutputConfig says where artifacts go. MetricsFile is relative to Dir; empty disables it.
type OutputConfig struct {
	Dir         string `yaml:"dir" envconfig:"DIR" validate:"required"`
	Workbook    bool   `yaml:"workbook" envconfig:"WORKBOOK"`
	MetricsFile string `yaml:"metrics_file" envconfig:"METRICS_FILE"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
}

// Default returns the configuration of the published report.
func Default() *Config {
	summary := metrics.DefaultSummaryConfig()
	rolling := normalization.DefaultRollingWindow()
	return &Config{
		Source: SourceConfig{
			Kind:    SourceCSV,
			CSVPath: "data/trips.csv",
		},
		Features: FeaturesConfig{
			SphereRadiusKm:       normalization.DefaultSphereRadiusKm,
			FiscalYearStartMonth: int(time.January),
			DistancePrecision:    3,
		},
		Rolling: RollingConfig{
			Before:     rolling.Before,
			After:      rolling.After,
			EdgePolicy: string(rolling.Edge),
		},
		Weekend: WeekendConfig{
			Reps:      hypothesis.DefaultReps,
			Threshold: hypothesis.DefaultThreshold,
			Seed:      20180101,
		},
		Summary: SummaryConfig{
			TopN:                        summary.TopN,
			DistanceBucketsKm:           summary.DistanceBucketsKm,
			WeekStart:                   "monday",
			MaxPlausibleAge:             summary.Quality.MaxPlausibleAge,
			MaxPlausibleDurationMinutes: summary.Quality.MaxPlausibleDurationMinutes,
			BirthYearSpikeShare:         summary.Quality.BirthYearSpikeShare,
		},
		Output: OutputConfig{
			Dir:         "out",
			Workbook:    true,
			MetricsFile: "metrics.prom",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (skipped
// when empty), envFile (skipped when empty or missing) and the environment.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: load %s: %v", domain.ErrInvalidConfiguration, envFile, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("%w: environment: %v", domain.ErrInvalidConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg. Unknown keys are rejected.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read config file: %v", domain.ErrInvalidConfiguration, err)
	}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return fmt.Errorf("%w: parse %s: %v", domain.ErrInvalidConfiguration, path, err)
	}
	return nil
}

var validate = validator.New()

// Validate checks field ranges and the derived component configurations.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidConfiguration, err)
	}
	if _, _, _, err := c.Source.Period(); err != nil {
		return err
	}
	if err := c.DeriverConfig().Validate(); err != nil {
		return err
	}
	if _, err := c.RollingWindow(); err != nil {
		return err
	}
	summary, err := c.SummaryConfig()
	if err != nil {
		return err
	}
	return summary.Validate()
}

// DeriverConfig converts the features section.
func (c *Config) DeriverConfig() normalization.DeriverConfig {
	return normalization.DeriverConfig{
		SphereRadiusKm:       c.Features.SphereRadiusKm,
		FiscalYearStartMonth: time.Month(c.Features.FiscalYearStartMonth),
		DistancePrecision:    c.Features.DistancePrecision,
	}
}

// RollingWindow converts the rolling section.
func (c *Config) RollingWindow() (normalization.RollingWindow, error) {
	edge, err := normalization.ParseEdgePolicy(c.Rolling.EdgePolicy)
	if err != nil {
		return normalization.RollingWindow{}, err
	}
	w := normalization.RollingWindow{Before: c.Rolling.Before, After: c.Rolling.After, Edge: edge}
	return w, w.Validate()
}

// HypothesisConfig converts the weekend section.
func (c *Config) HypothesisConfig() hypothesis.Config {
	return hypothesis.Config{
		Reps:      c.Weekend.Reps,
		Threshold: c.Weekend.Threshold,
		Workers:   c.Weekend.Workers,
	}
}

// SummaryConfig converts the summary section.
func (c *Config) SummaryConfig() (metrics.SummaryConfig, error) {
	weekStart, err := ParseWeekday(c.Summary.WeekStart)
	if err != nil {
		return metrics.SummaryConfig{}, err
	}
	buckets := make([]float64, len(c.Summary.DistanceBucketsKm))
	copy(buckets, c.Summary.DistanceBucketsKm)
	return metrics.SummaryConfig{
		TopN:              c.Summary.TopN,
		DistanceBucketsKm: buckets,
		WeekStart:         weekStart,
		Quality: metrics.QualityConfig{
			MaxPlausibleDurationMinutes: c.Summary.MaxPlausibleDurationMinutes,
			MaxPlausibleAge:             c.Summary.MaxPlausibleAge,
			BirthYearSpikeShare:         c.Summary.BirthYearSpikeShare,
		},
	}, nil
}

// ParseWeekday accepts an English weekday name in any case.
func ParseWeekday(s string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(s, d.String()) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown weekday %q", domain.ErrInvalidConfiguration, s)
}
