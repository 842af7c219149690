package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"path/filepath"
	"time"

	"bikeshare-report/internal/config"
	"bikeshare-report/internal/domain"
	"bikeshare-report/internal/hypothesis"
	"bikeshare-report/internal/logging"
	"bikeshare-report/internal/metrics"
	"bikeshare-report/internal/normalization"
	"bikeshare-report/internal/observability"
	"bikeshare-report/internal/reporting"
	"bikeshare-report/internal/storage"
)

// GeneratorVersion is stamped on every report for reproducibility.
const GeneratorVersion = "1.0.0"

// Pipeline loads trips from a store, runs every analysis stage and writes
// the report artifacts.
type Pipeline struct {
	store      storage.TripRecordStore
	sourceName string
	cfg        *config.Config

	deriver    *normalization.Deriver
	window     normalization.RollingWindow
	tester     *hypothesis.Tester
	summaryCfg metrics.SummaryConfig
	checker    *SufficiencyChecker
	reportGen  *reporting.Generator

	clock   func() time.Time
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New validates cfg and builds a pipeline reading from store.
func New(store storage.TripRecordStore, cfg *config.Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	deriver, err := normalization.NewDeriver(cfg.DeriverConfig())
	if err != nil {
		return nil, err
	}
	window, err := cfg.RollingWindow()
	if err != nil {
		return nil, err
	}
	tester, err := hypothesis.NewTester(cfg.HypothesisConfig())
	if err != nil {
		return nil, err
	}
	summaryCfg, err := cfg.SummaryConfig()
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		store:      store,
		sourceName: cfg.Source.Kind,
		cfg:        cfg,
		deriver:    deriver,
		window:     window,
		tester:     tester,
		summaryCfg: summaryCfg,
		checker:    NewSufficiencyChecker(DefaultSufficiencyThresholds(window.Size())),
		reportGen:  reporting.NewGenerator(GeneratorVersion),
		clock:      func() time.Time { return time.Now().UTC() },
		logger:     slog.Default(),
	}, nil
}

// WithClock sets a custom clock function for deterministic output.
func (p *Pipeline) WithClock(clock func() time.Time) *Pipeline {
	p.clock = clock
	p.reportGen = p.reportGen.WithClock(clock)
	return p
}

// WithRunID sets a custom run id source.
func (p *Pipeline) WithRunID(newID func() string) *Pipeline {
	p.reportGen = p.reportGen.WithRunID(newID)
	return p
}

// WithLogger sets the logger.
func (p *Pipeline) WithLogger(logger *slog.Logger) *Pipeline {
	p.logger = logger
	return p
}

// WithSufficiencyThresholds replaces the default sufficiency thresholds.
func (p *Pipeline) WithSufficiencyThresholds(th SufficiencyThresholds) *Pipeline {
	p.checker = NewSufficiencyChecker(th)
	return p
}

// WithMetrics enables metric recording.
func (p *Pipeline) WithMetrics(m *observability.Metrics) *Pipeline {
	p.metrics = m
	return p
}

// Run loads all trips, analyzes them and writes artifacts into the
// configured output directory. The metrics textfile is written last,
// also when the run fails.
func (p *Pipeline) Run(ctx context.Context) (*reporting.Report, error) {
	report, err := p.run(ctx)

	status := observability.StatusSuccess
	if err != nil {
		status = observability.StatusError
	}
	p.metrics.RecordRun(status, p.clock())

	if p.cfg.Output.MetricsFile != "" {
		path := filepath.Join(p.cfg.Output.Dir, p.cfg.Output.MetricsFile)
		if werr := p.metrics.WriteTextfile(path); werr != nil {
			p.logger.WarnContext(ctx, "metrics textfile not written", slog.String("path", path), slog.Any("error", werr))
		}
	}
	return report, err
}

func (p *Pipeline) run(ctx context.Context) (*reporting.Report, error) {
	started := time.Now()
	trips, err := p.loadTrips(ctx)
	if err != nil {
		return nil, fmt.Errorf("load trips: %w", err)
	}
	p.metrics.RecordTripsLoaded(p.sourceName, len(trips))
	p.stageDone(ctx, "load", started, slog.Int("trips", len(trips)), slog.String("source", p.sourceName))

	report, err := p.Analyze(ctx, trips)
	if err != nil {
		return nil, err
	}

	started = time.Now()
	artifacts, err := reporting.WriteFiles(p.cfg.Output.Dir, report, p.cfg.Output.Workbook)
	for _, a := range artifacts {
		p.metrics.RecordReport(a.Format)
	}
	if err != nil {
		return nil, err
	}
	p.stageDone(ctx, "write", started, slog.Int("artifacts", len(artifacts)), slog.String("dir", p.cfg.Output.Dir))

	return report, nil
}

// loadTrips reads the configured reporting period, or the whole table when
// no period is set.
func (p *Pipeline) loadTrips(ctx context.Context) ([]*domain.TripRecord, error) {
	start, end, ok, err := p.cfg.Source.Period()
	if err != nil {
		return nil, err
	}
	if !ok {
		return p.store.GetAll(ctx)
	}
	p.logger.InfoContext(ctx, "restricting to reporting period",
		slog.String("from", p.cfg.Source.PeriodStart),
		slog.String("to", p.cfg.Source.PeriodEnd))
	return p.store.GetByTimeRange(ctx, start, end)
}

// Analyze runs every analysis stage over trips and assembles the report
// without touching the filesystem.
func (p *Pipeline) Analyze(ctx context.Context, trips []*domain.TripRecord) (*reporting.Report, error) {
	started := time.Now()
	features, err := p.deriver.Derive(trips)
	if err != nil {
		return nil, fmt.Errorf("derive features: %w", err)
	}
	p.stageDone(ctx, "derive", started, slog.Int("features", len(features)))

	started = time.Now()
	series := normalization.BuildDailySeries(features)
	rolling, err := normalization.RollingAverage(series, p.window)
	if err != nil {
		return nil, fmt.Errorf("rolling average: %w", err)
	}
	p.metrics.RecordFeatures(len(features), len(series))
	p.stageDone(ctx, "aggregate", started, slog.Int("days", len(series)), slog.Int("hires", series.TotalHires()))

	sufficiency := p.checker.Check(trips, series)
	for _, c := range sufficiency.Checks {
		if !c.Pass {
			p.logger.WarnContext(ctx, "sufficiency check failed",
				slog.String("check", c.Name),
				slog.String("threshold", c.Threshold),
				slog.String("actual", c.Actual))
		}
	}

	started = time.Now()
	rng := rand.New(rand.NewPCG(p.cfg.Weekend.Seed, 0))
	weekend, err := p.tester.Test(ctx, normalization.LabelWeekends(series), rng)
	if err != nil {
		return nil, fmt.Errorf("weekend test: %w", err)
	}
	p.metrics.RecordWeekendTest(weekend.Reps, weekend.Observed, weekend.PValue, weekend.Reject)
	p.stageDone(ctx, "weekend_test", started,
		slog.Float64("observed", weekend.Observed),
		slog.Float64("p_value", weekend.PValue),
		slog.Bool("reject", weekend.Reject))

	started = time.Now()
	summary, err := metrics.BuildSummary(trips, features, p.summaryCfg)
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	p.recordQuality(summary.Quality)
	p.stageDone(ctx, "summary", started, slog.Int("quality_issues", summary.Quality.Issues()))

	report, err := p.reportGen.Generate(reporting.Input{
		Trips:    trips,
		Features: features,
		Series:   series,
		Rolling:  rolling,
		Weekend:  weekend,
		Summary:  summary,
		Seed:     p.cfg.Weekend.Seed,
		Parameters: reporting.Parameters{
			SphereRadiusKm:       p.cfg.Features.SphereRadiusKm,
			DistancePrecision:    p.cfg.Features.DistancePrecision,
			FiscalYearStartMonth: time.Month(p.cfg.Features.FiscalYearStartMonth),
			Window:               p.window,
			Reps:                 p.cfg.Weekend.Reps,
			Threshold:            p.cfg.Weekend.Threshold,
			WeekStart:            p.summaryCfg.WeekStart,
		},
	})
	if err != nil {
		return nil, err
	}
	report.Sufficiency = convertToDataQuality(sufficiency)

	p.logger.InfoContext(logging.WithRunID(ctx, report.RunID), "report generated",
		slog.String("dataset_version", report.DatasetVersion),
		slog.Int("trips", len(trips)))
	return report, nil
}

func (p *Pipeline) recordQuality(q metrics.QualityReport) {
	p.metrics.RecordImplausible("negative_duration", q.NegativeDurations)
	p.metrics.RecordImplausible("excessive_duration", q.ExcessiveDurations)
	p.metrics.RecordImplausible("implausible_age", q.ImplausibleAges)
	p.metrics.RecordImplausible("missing_birth_year", q.MissingBirthYear)
	p.metrics.RecordImplausible("missing_gender", q.MissingGender)
	p.metrics.RecordImplausible("same_station_moved", q.SameStationMoved)
}

func (p *Pipeline) stageDone(ctx context.Context, stage string, started time.Time, attrs ...slog.Attr) {
	elapsed := time.Since(started)
	p.metrics.ObserveStage(stage, elapsed)

	args := make([]any, 0, len(attrs)+2)
	args = append(args, slog.String("stage", stage), slog.Duration("elapsed", elapsed))
	for _, a := range attrs {
		args = append(args, a)
	}
	p.logger.InfoContext(ctx, "stage complete", args...)
}
