package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bikeshare-report/internal/domain"
	"bikeshare-report/internal/normalization"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func unsetAfter(t *testing.T, keys ...string) {
	t.Helper()
	t.Cleanup(func() {
		for _, k := range keys {
			os.Unsetenv(k)
		}
	})
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 500, cfg.Weekend.Reps)
	assert.Equal(t, 0.05, cfg.Weekend.Threshold)
	assert.Equal(t, normalization.DefaultSphereRadiusKm, cfg.Features.SphereRadiusKm)

	w, err := cfg.RollingWindow()
	require.NoError(t, err)
	assert.Equal(t, 30, w.Size())
	assert.Equal(t, normalization.EdgePartial, w.Edge)
}

func TestLoad_YAMLOverlaysDefaults(t *testing.T) {
	path := writeFile(t, "report.yaml", `
source:
  kind: sqlite
  sqlite_path: trips.db
weekend:
  reps: 1000
summary:
  distance_buckets_km: [0, 1, 5]
  week_start: sunday
`)

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, SourceSQLite, cfg.Source.Kind)
	assert.Equal(t, "trips.db", cfg.Source.SQLitePath)
	assert.Equal(t, 1000, cfg.Weekend.Reps)
	assert.Equal(t, 0.05, cfg.Weekend.Threshold, "unset keys keep defaults")
	assert.Equal(t, []float64{0, 1, 5}, cfg.Summary.DistanceBucketsKm)

	summary, err := cfg.SummaryConfig()
	require.NoError(t, err)
	assert.Equal(t, time.Sunday, summary.WeekStart)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := writeFile(t, "report.yaml", "weekend:\n  reps: 1000\n  seed: 7\n")
	t.Setenv("BIKESHARE_WEEKEND_REPS", "250")
	t.Setenv("BIKESHARE_ROLLING_EDGE_POLICY", "undefined")
	t.Setenv("BIKESHARE_SUMMARY_DISTANCE_BUCKETS_KM", "0,2,4")

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, 250, cfg.Weekend.Reps)
	assert.Equal(t, uint64(7), cfg.Weekend.Seed)
	assert.Equal(t, "undefined", cfg.Rolling.EdgePolicy)
	assert.Equal(t, []float64{0, 2, 4}, cfg.Summary.DistanceBucketsKm)
}

func TestLoad_DotEnvBelowProcessEnv(t *testing.T) {
	envFile := writeFile(t, ".env", "BIKESHARE_WEEKEND_REPS=200\nBIKESHARE_LOGGING_FORMAT=json\n")
	t.Setenv("BIKESHARE_WEEKEND_REPS", "300")
	unsetAfter(t, "BIKESHARE_LOGGING_FORMAT")

	cfg, err := Load("", envFile)
	require.NoError(t, err)

	assert.Equal(t, 300, cfg.Weekend.Reps, "process environment wins")
	assert.Equal(t, "json", cfg.Logging.Format, "taken from .env")
}

func TestLoad_MissingEnvFileIgnored(t *testing.T) {
	_, err := Load("", filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown key", "weekend:\n  repetitions: 10\n"},
		{"zero reps", "weekend:\n  reps: 0\n"},
		{"threshold above one", "weekend:\n  threshold: 1.5\n"},
		{"bad edge policy", "rolling:\n  edge_policy: clamp\n"},
		{"negative window", "rolling:\n  before: -1\n"},
		{"fiscal month", "features:\n  fiscal_year_start_month: 13\n"},
		{"zero radius", "features:\n  sphere_radius_km: 0\n"},
		{"descending buckets", "summary:\n  distance_buckets_km: [0, 2, 1]\n"},
		{"postgres without dsn", "source:\n  kind: postgres\n"},
		{"unknown source", "source:\n  kind: parquet\n"},
		{"log level", "logging:\n  level: verbose\n"},
		{"period end only", "source:\n  period_end: 2018-06-30\n"},
		{"period reversed", "source:\n  period_start: 2018-06-30\n  period_end: 2018-06-01\n"},
		{"period not a date", "source:\n  period_start: june\n  period_end: 2018-06-30\n"},
		{"week start", "summary:\n  week_start: someday\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "report.yaml", tt.yaml)
			_, err := Load(path, "")
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), "")
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

func TestParseWeekday(t *testing.T) {
	d, err := ParseWeekday("Saturday")
	require.NoError(t, err)
	assert.Equal(t, time.Saturday, d)

	_, err = ParseWeekday("someday")
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

func TestSummaryConfig_CopiesBuckets(t *testing.T) {
	cfg := Default()
	summary, err := cfg.SummaryConfig()
	require.NoError(t, err)

	summary.DistanceBucketsKm[0] = 99
	assert.Equal(t, 0.0, cfg.Summary.DistanceBucketsKm[0])
}

func TestLoad_CapitalizedWeekStart(t *testing.T) {
	path := writeFile(t, "report.yaml", "summary:\n  week_start: Monday\n")

	cfg, err := Load(path, "")
	require.NoError(t, err)

	summary, err := cfg.SummaryConfig()
	require.NoError(t, err)
	assert.Equal(t, time.Monday, summary.WeekStart)
}

func TestSourceConfig_Period(t *testing.T) {
	_, _, ok, err := SourceConfig{}.Period()
	require.NoError(t, err)
	assert.False(t, ok)

	start, end, ok, err := SourceConfig{PeriodStart: "2018-03-01", PeriodEnd: "2018-03-31"}.Period()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, time.Date(2018, 3, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2018, 3, 31, 23, 59, 59, 999999999, time.UTC), end)

	start, end, ok, err = SourceConfig{PeriodStart: "2018-07-04", PeriodEnd: "2018-07-04"}.Period()
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, end.After(start), "single day covers the whole day")
}
