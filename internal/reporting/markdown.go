package reporting

import (
	"fmt"
	"strings"
	"time"

	"bikeshare-report/internal/metrics"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder
	s := r.Summary

	// Header
	sb.WriteString("# Bike Share Hire Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	// Overview
	sb.WriteString("## Overview\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Trips | %d |\n", s.TotalTrips))
	if s.Daily.Days > 0 {
		sb.WriteString(fmt.Sprintf("| First Day | %s |\n", s.Daily.FirstDate))
		sb.WriteString(fmt.Sprintf("| Last Day | %s |\n", s.Daily.LastDate))
	}
	sb.WriteString(fmt.Sprintf("| Days Covered | %d |\n", s.Daily.Days))
	sb.WriteString(fmt.Sprintf("| Bikes | %d |\n", len(s.ByBike)))
	sb.WriteString(fmt.Sprintf("| Median Duration (min) | %.1f |\n", s.DurationOverall.Median))
	sb.WriteString(fmt.Sprintf("| Median Distance (km) | %.3f |\n", s.DistanceOverall.Median))
	sb.WriteString("\n")

	// Daily hires
	sb.WriteString("## Daily Hires\n\n")
	if s.Daily.Days > 0 {
		sb.WriteString("| Metric | Value |\n")
		sb.WriteString("|--------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Mean per Day | %.2f |\n", s.Daily.Mean))
		sb.WriteString(fmt.Sprintf("| Median per Day | %.1f |\n", s.Daily.Median))
		sb.WriteString(fmt.Sprintf("| Stddev | %.2f |\n", s.Daily.Stddev))
		sb.WriteString(fmt.Sprintf("| Busiest Day | %s (%d) |\n", s.Daily.PeakDate, s.Daily.PeakCount))
		sb.WriteString(fmt.Sprintf("| Days Without Hires | %d |\n", s.Daily.ZeroDays))
		sb.WriteString("\nThe full series is in `daily_series.csv`.\n\n")
	} else {
		sb.WriteString("No hires recorded.\n\n")
	}

	// Rolling average
	w := r.Parameters.Window
	sb.WriteString("## Rolling Average\n\n")
	sb.WriteString(fmt.Sprintf("Centered %d-day window (%d days before, %d after), %s edges.\n\n",
		w.Size(), w.Before, w.After, w.Edge))
	if r.RollingHigh != nil {
		sb.WriteString("| Extreme | Date | Hires per Day | Window |\n")
		sb.WriteString("|---------|------|---------------|--------|\n")
		sb.WriteString(fmt.Sprintf("| Highest | %s | %.2f | %d |\n", r.RollingHigh.Date, r.RollingHigh.Value, r.RollingHigh.WindowSize))
		sb.WriteString(fmt.Sprintf("| Lowest | %s | %.2f | %d |\n", r.RollingLow.Date, r.RollingLow.Value, r.RollingLow.WindowSize))
		sb.WriteString("\n")
	} else {
		sb.WriteString("No complete window available.\n\n")
	}
	if r.RollingUndefined > 0 {
		sb.WriteString(fmt.Sprintf("%d edge days have no complete window and are left undefined.\n\n", r.RollingUndefined))
	}

	// Weekend contrast
	wk := r.Weekend
	sb.WriteString("## Weekend vs Weekday\n\n")
	sb.WriteString("| Metric | Weekend | Weekday |\n")
	sb.WriteString("|--------|---------|---------|\n")
	sb.WriteString(fmt.Sprintf("| Days | %d | %d |\n", wk.WeekendDays, wk.WeekdayDays))
	sb.WriteString(fmt.Sprintf("| Mean Hires | %.2f | %.2f |\n", wk.WeekendMean, wk.WeekdayMean))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Observed difference: %.3f | Repetitions: %d | p-value: %.4f | Threshold: %.2f\n\n",
		wk.Observed, wk.Reps, wk.PValue, wk.Threshold))
	if wk.Reject {
		sb.WriteString("**Result: reject.** ")
	} else {
		sb.WriteString("**Result: no significant difference.** ")
	}
	sb.WriteString(r.WeekendVerdict)
	sb.WriteString("\n\n")

	// Temporal projections
	sb.WriteString("## Hires by Hour\n\n")
	sb.WriteString("| Hour | Trips |\n")
	sb.WriteString("|------|-------|\n")
	for h, n := range s.ByHour {
		sb.WriteString(fmt.Sprintf("| %02d | %d |\n", h, n))
	}
	sb.WriteString("\n")

	sb.WriteString("## Hires by Weekday\n\n")
	sb.WriteString("| Weekday | Trips |\n")
	sb.WriteString("|---------|-------|\n")
	for _, c := range s.ByWeekday {
		sb.WriteString(fmt.Sprintf("| %s | %d |\n", c.Weekday, c.Count))
	}
	sb.WriteString("\n")

	sb.WriteString("## Hires by Month\n\n")
	sb.WriteString("| Month | Trips |\n")
	sb.WriteString("|-------|-------|\n")
	for m, n := range s.ByMonth {
		sb.WriteString(fmt.Sprintf("| %s | %d |\n", time.Month(m+1), n))
	}
	sb.WriteString("\n")

	sb.WriteString("## Hires by Fiscal Quarter\n\n")
	if len(s.ByQuarter) > 0 {
		sb.WriteString(fmt.Sprintf("Fiscal year starts in %s.\n\n", r.Parameters.FiscalYearStartMonth))
		sb.WriteString("| Quarter | Trips |\n")
		sb.WriteString("|---------|-------|\n")
		for _, q := range s.ByQuarter {
			sb.WriteString(fmt.Sprintf("| %s | %d |\n", q.Quarter, q.Count))
		}
	} else {
		sb.WriteString("No quarters available.\n")
	}
	sb.WriteString("\n")

	// Rider mix
	sb.WriteString("## Rider Mix\n\n")
	writeCountTable(&sb, "Subscription", s.BySubscription, s.TotalTrips)
	writeCountTable(&sb, "Gender", s.ByGender, s.TotalTrips)
	if len(s.ByBirthYear) > 0 {
		sb.WriteString("| Birth Year | Trips |\n")
		sb.WriteString("|------------|-------|\n")
		for _, y := range s.ByBirthYear {
			sb.WriteString(fmt.Sprintf("| %d | %d |\n", y.Year, y.Count))
		}
		sb.WriteString("\n")
	}

	// Durations
	sb.WriteString("## Trip Durations (minutes)\n\n")
	sb.WriteString("| Group | Trips | Mean | Median | P25 | P75 | Min | Max |\n")
	sb.WriteString("|-------|-------|------|--------|-----|-----|-----|-----|\n")
	writeDistributionRow(&sb, "All", s.DurationOverall)
	for _, g := range s.DurationBySubscription {
		writeDistributionRow(&sb, g.Group, g.Distribution)
	}
	for _, g := range s.DurationByGender {
		writeDistributionRow(&sb, g.Group, g.Distribution)
	}
	sb.WriteString("\n")

	// Distances
	sb.WriteString("## Trip Distances\n\n")
	sb.WriteString(fmt.Sprintf("Great-circle distance on a sphere of radius %.2f km.\n\n", r.Parameters.SphereRadiusKm))
	sb.WriteString("| Distance | Trips | Share |\n")
	sb.WriteString("|----------|-------|-------|\n")
	for _, b := range s.DistanceBuckets {
		sb.WriteString(fmt.Sprintf("| %s | %d | %.1f%% |\n", b.Label(), b.Count, b.Share*100))
	}
	sb.WriteString("\n")

	// Stations, routes and bikes
	sb.WriteString("## Stations and Routes\n\n")
	writeCountTable(&sb, "Start Station", s.TopStartStations, s.TotalTrips)
	writeCountTable(&sb, "End Station", s.TopEndStations, s.TotalTrips)
	if len(s.TopRoutes) > 0 {
		sb.WriteString("| From | To | Trips |\n")
		sb.WriteString("|------|----|-------|\n")
		for _, rt := range s.TopRoutes {
			sb.WriteString(fmt.Sprintf("| %s | %s | %d |\n", rt.From, rt.To, rt.Count))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Bikes\n\n")
	writeCountTable(&sb, "Bike", s.ByBike, s.TotalTrips)

	// Data quality
	q := s.Quality
	sb.WriteString("## Data Quality\n\n")
	sb.WriteString("Flagged values are counted, not removed. Every trip feeds the figures above.\n\n")
	sb.WriteString("| Check | Trips |\n")
	sb.WriteString("|-------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Negative duration | %d |\n", q.NegativeDurations))
	sb.WriteString(fmt.Sprintf("| Duration above limit | %d |\n", q.ExcessiveDurations))
	sb.WriteString(fmt.Sprintf("| Implausible age | %d |\n", q.ImplausibleAges))
	sb.WriteString(fmt.Sprintf("| Missing birth year | %d |\n", q.MissingBirthYear))
	sb.WriteString(fmt.Sprintf("| Missing gender | %d |\n", q.MissingGender))
	sb.WriteString(fmt.Sprintf("| Gender recorded as Unknown | %d |\n", q.UnknownGender))
	sb.WriteString(fmt.Sprintf("| Round trip with moved coordinates | %d |\n", q.SameStationMoved))
	sb.WriteString("\n")
	if q.BirthYearSpike {
		sb.WriteString(fmt.Sprintf("**Birth year spike:** %d accounts for %.1f%% of recorded birth years, which suggests a default value.\n\n",
			q.ModalBirthYear, q.ModalBirthYearShare*100))
	}
	if len(r.Sufficiency.Checks) > 0 {
		sb.WriteString("### Sufficiency Checks\n\n")
		sb.WriteString("| Check | Threshold | Actual | Status |\n")
		sb.WriteString("|-------|-----------|--------|--------|\n")
		for _, check := range r.Sufficiency.Checks {
			status := "FAIL"
			if check.Pass {
				status = "PASS"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				check.Name, check.Threshold, check.Actual, status))
		}
		sb.WriteString("\n")
		if r.Sufficiency.AllChecksPassed {
			sb.WriteString("**All checks passed.**\n\n")
		} else {
			sb.WriteString("**Some checks failed.** Treat the figures above with caution.\n\n")
		}
	}
	if len(r.Sufficiency.IntegrityErrors) > 0 {
		sb.WriteString("### Integrity Errors\n\n")
		for _, e := range r.Sufficiency.IntegrityErrors {
			sb.WriteString(fmt.Sprintf("- %s\n", e))
		}
		sb.WriteString("\n")
	}
	if len(q.ConflictingStations) > 0 {
		sb.WriteString("### Stations with Conflicting Coordinates\n\n")
		for _, name := range q.ConflictingStations {
			sb.WriteString(fmt.Sprintf("- %s\n", name))
		}
		sb.WriteString("\n")
	}

	// Reproducibility
	sb.WriteString("## Reproducibility\n\n")
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Run ID | %s |\n", r.RunID))
	sb.WriteString(fmt.Sprintf("| Dataset Version | %s |\n", r.DatasetVersion))
	sb.WriteString(fmt.Sprintf("| Seed | %d |\n", r.Seed))
	sb.WriteString(fmt.Sprintf("| Generator Version | %s |\n", r.GeneratorVersion))
	sb.WriteString(fmt.Sprintf("| Week Start | %s |\n", r.Parameters.WeekStart))
	sb.WriteString("\n")

	return sb.String()
}

func writeCountTable(sb *strings.Builder, label string, counts []metrics.Count, total int) {
	if len(counts) == 0 {
		sb.WriteString(fmt.Sprintf("No %s data available.\n\n", strings.ToLower(label)))
		return
	}
	sb.WriteString(fmt.Sprintf("| %s | Trips | Share |\n", label))
	sb.WriteString(fmt.Sprintf("|%s|-------|-------|\n", strings.Repeat("-", len(label)+2)))
	for _, c := range counts {
		share := 0.0
		if total > 0 {
			share = float64(c.Count) / float64(total) * 100
		}
		sb.WriteString(fmt.Sprintf("| %s | %d | %.1f%% |\n", c.Key, c.Count, share))
	}
	sb.WriteString("\n")
}

func writeDistributionRow(sb *strings.Builder, group string, d metrics.Distribution) {
	sb.WriteString(fmt.Sprintf("| %s | %d | %.1f | %.1f | %.1f | %.1f | %.1f | %.1f |\n",
		group, d.Count, d.Mean, d.Median, d.P25, d.P75, d.Min, d.Max))
}
