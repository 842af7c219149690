package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"bikeshare-report/internal/config"
	"bikeshare-report/internal/hypothesis"
	"bikeshare-report/internal/logging"
)

func main() {
	// Parse flags
	runs := flag.Int("runs", 200, "Number of seeds to test")
	firstSeed := flag.Uint64("first-seed", 1, "First seed; seeds are consecutive")
	days := flag.Int("days", 365, "Days of synthetic data per run")
	mean := flag.Float64("mean", 20, "Mean daily hires, identical for weekends and weekdays")
	reps := flag.Int("reps", hypothesis.DefaultReps, "Permutation repetitions per test")
	threshold := flag.Float64("threshold", hypothesis.DefaultThreshold, "Rejection threshold")
	workers := flag.Int("workers", 0, "Permutation workers (0 = GOMAXPROCS)")
	flag.Parse()

	logger, err := logging.New(config.LoggingConfig{Level: "info", Format: "text"}, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	tester, err := hypothesis.NewTester(hypothesis.Config{Reps: *reps, Threshold: *threshold, Workers: *workers})
	if err != nil {
		logger.Error("create tester", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	seeds := make([]uint64, *runs)
	for i := range seeds {
		seeds[i] = *firstSeed + uint64(i)
	}

	logger.Info("calibrating", "runs", *runs, "days", *days, "mean", *mean, "reps", *reps)
	res, err := tester.Calibrate(ctx, seeds, *days, *mean)
	if err != nil {
		logger.Error("calibrate", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Runs:            %d\n", res.Runs)
	fmt.Printf("Rejections:      %d\n", res.Rejections)
	fmt.Printf("Rejection rate:  %.4f (threshold %.4f)\n", res.Rate, *threshold)
	fmt.Printf("Mean p-value:    %.4f\n", res.MeanPValue)
}
