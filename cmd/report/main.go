package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"bikeshare-report/internal/config"
	"bikeshare-report/internal/logging"
	"bikeshare-report/internal/observability"
	"bikeshare-report/internal/pipeline"
	"bikeshare-report/internal/reporting"
	"bikeshare-report/internal/source"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "YAML configuration file (optional)")
	envFile := flag.String("env-file", ".env", "dotenv file loaded before BIKESHARE_* variables (ignored if missing)")
	sourceKind := flag.String("source", "", "Trip source: csv, postgres, clickhouse, sqlite or fixtures (overrides config)")
	outputDir := flag.String("output-dir", "", "Output directory for generated files (overrides config)")
	seed := flag.Uint64("seed", 0, "Permutation test seed (overrides config when non-zero)")
	reps := flag.Int("reps", 0, "Permutation repetitions (overrides config when non-zero)")
	fixtureSeed := flag.Uint64("fixture-seed", pipeline.FixtureSeed, "Seed of the synthetic dataset used by -source fixtures")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Flags override config
	if *sourceKind != "" {
		cfg.Source.Kind = *sourceKind
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	if *seed != 0 {
		cfg.Weekend.Seed = *seed
	}
	if *reps != 0 {
		cfg.Weekend.Reps = *reps
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := run(ctx, cfg, *fixtureSeed, logger)
	if err != nil {
		logger.Error("report failed", "source", cfg.Source.Kind, "error", err)
		stop()
		os.Exit(1)
	}

	fmt.Println("Report generated successfully:")
	fmt.Printf("  - %s/%s\n", cfg.Output.Dir, reporting.MarkdownFile)
	fmt.Printf("  - %s/%s\n", cfg.Output.Dir, reporting.DailySeriesFile)
	fmt.Printf("  - %s/%s\n", cfg.Output.Dir, reporting.TripFeaturesFile)
	fmt.Printf("  - %s/%s\n", cfg.Output.Dir, reporting.NullDistributionFile)
	if cfg.Output.Workbook {
		fmt.Printf("  - %s/%s\n", cfg.Output.Dir, reporting.WorkbookFile)
	}
	if cfg.Output.MetricsFile != "" {
		fmt.Printf("  - %s/%s\n", cfg.Output.Dir, cfg.Output.MetricsFile)
	}
	fmt.Printf("Run %s, dataset %s: weekend p-value %.4f (reject=%v)\n",
		report.RunID, report.DatasetVersion, report.Weekend.PValue, report.Weekend.Reject)
}

func run(ctx context.Context, cfg *config.Config, fixtureSeed uint64, logger *slog.Logger) (*reporting.Report, error) {
	src, err := source.Open(ctx, cfg.Source, source.Options{FixtureSeed: fixtureSeed})
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	p, err := pipeline.New(src.Store, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pipeline: %w", err)
	}
	p.WithLogger(logger).WithMetrics(observability.NewMetrics(observability.DefaultNamespace))

	return p.Run(ctx)
}
