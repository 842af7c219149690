package pipeline

import (
	"fmt"
	"sort"

	"bikeshare-report/internal/domain"
	"bikeshare-report/internal/reporting"
)

// SufficiencyCheck represents one data sufficiency criterion.
type SufficiencyCheck struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// SufficiencyResult contains all checks.
type SufficiencyResult struct {
	Checks  []SufficiencyCheck
	AllPass bool
	Errors  []string // data integrity errors
}

// SufficiencyThresholds are the minimums a dataset needs for the report's
// figures to mean something. Failing them never aborts a run.
type SufficiencyThresholds struct {
	MinTrips        int
	MinDays         int
	MinGroupDays    int     // per weekend / weekday group
	MinActiveShare  float64 // share of days with at least one hire
	MaxListedErrors int
}

// DefaultSufficiencyThresholds requires a full rolling window of days and
// four weekends.
func DefaultSufficiencyThresholds(windowSize int) SufficiencyThresholds {
	return SufficiencyThresholds{
		MinTrips:        100,
		MinDays:         windowSize,
		MinGroupDays:    8,
		MinActiveShare:  0.5,
		MaxListedErrors: 20,
	}
}

// SufficiencyChecker validates a dataset before it is reported on.
type SufficiencyChecker struct {
	th SufficiencyThresholds
}

// NewSufficiencyChecker creates a new sufficiency checker.
func NewSufficiencyChecker(th SufficiencyThresholds) *SufficiencyChecker {
	return &SufficiencyChecker{th: th}
}

// Check runs every check over trips and their gap-filled daily series.
func (c *SufficiencyChecker) Check(trips []*domain.TripRecord, series domain.DailySeries) *SufficiencyResult {
	result := &SufficiencyResult{AllPass: true}
	add := func(check SufficiencyCheck) {
		result.Checks = append(result.Checks, check)
		if !check.Pass {
			result.AllPass = false
		}
	}

	add(SufficiencyCheck{
		Name:      "Trips",
		Threshold: fmt.Sprintf(">= %d", c.th.MinTrips),
		Actual:    fmt.Sprintf("%d", len(trips)),
		Pass:      len(trips) >= c.th.MinTrips,
	})

	add(SufficiencyCheck{
		Name:      "Days covered",
		Threshold: fmt.Sprintf(">= %d", c.th.MinDays),
		Actual:    fmt.Sprintf("%d", len(series)),
		Pass:      len(series) >= c.th.MinDays,
	})

	weekendDays, activeDays := 0, 0
	for _, p := range series {
		if p.Date.IsWeekend() {
			weekendDays++
		}
		if p.HireCount > 0 {
			activeDays++
		}
	}
	weekdayDays := len(series) - weekendDays

	add(SufficiencyCheck{
		Name:      "Weekend days",
		Threshold: fmt.Sprintf(">= %d", c.th.MinGroupDays),
		Actual:    fmt.Sprintf("%d", weekendDays),
		Pass:      weekendDays >= c.th.MinGroupDays,
	})
	add(SufficiencyCheck{
		Name:      "Weekday days",
		Threshold: fmt.Sprintf(">= %d", c.th.MinGroupDays),
		Actual:    fmt.Sprintf("%d", weekdayDays),
		Pass:      weekdayDays >= c.th.MinGroupDays,
	})

	activeShare := 0.0
	if len(series) > 0 {
		activeShare = float64(activeDays) / float64(len(series))
	}
	add(SufficiencyCheck{
		Name:      "Days with hires",
		Threshold: fmt.Sprintf(">= %.0f%%", c.th.MinActiveShare*100),
		Actual:    fmt.Sprintf("%.1f%%", activeShare*100),
		Pass:      len(series) > 0 && activeShare >= c.th.MinActiveShare,
	})

	dupCheck, dupErrors := c.checkDuplicateTrips(trips)
	add(dupCheck)
	result.Errors = append(result.Errors, dupErrors...)

	return result
}

// checkDuplicateTrips: duplicate trip_id count == 0.
func (c *SufficiencyChecker) checkDuplicateTrips(trips []*domain.TripRecord) (SufficiencyCheck, []string) {
	counts := make(map[string]int, len(trips))
	for _, t := range trips {
		counts[t.TripID]++
	}

	var dups []string
	for id, n := range counts {
		if n > 1 {
			dups = append(dups, id)
		}
	}
	sort.Strings(dups)

	var errs []string
	for i, id := range dups {
		if i == c.th.MaxListedErrors {
			errs = append(errs, fmt.Sprintf("... and %d more duplicate trip ids", len(dups)-i))
			break
		}
		errs = append(errs, fmt.Sprintf("duplicate trip_id %s (%d rows)", id, counts[id]))
	}

	return SufficiencyCheck{
		Name:      "Duplicate trip ids",
		Threshold: "== 0",
		Actual:    fmt.Sprintf("%d", len(dups)),
		Pass:      len(dups) == 0,
	}, errs
}

// convertToDataQuality maps a sufficiency result onto the report section.
func convertToDataQuality(r *SufficiencyResult) reporting.DataSufficiency {
	rows := make([]reporting.SufficiencyRow, len(r.Checks))
	for i, c := range r.Checks {
		rows[i] = reporting.SufficiencyRow{
			Name:      c.Name,
			Threshold: c.Threshold,
			Actual:    c.Actual,
			Pass:      c.Pass,
		}
	}
	return reporting.DataSufficiency{
		Checks:          rows,
		IntegrityErrors: r.Errors,
		AllChecksPassed: r.AllPass,
	}
}
