package pipeline

import (
	"testing"
	"time"

	"bikeshare-report/internal/domain"
)

func seriesOf(start domain.Date, counts ...int) domain.DailySeries {
	s := make(domain.DailySeries, len(counts))
	for i, c := range counts {
		s[i] = domain.DailyPoint{Date: start.AddDays(i), HireCount: c}
	}
	return s
}

func TestSufficiencyChecker_AllPass(t *testing.T) {
	th := SufficiencyThresholds{MinTrips: 3, MinDays: 7, MinGroupDays: 2, MinActiveShare: 0.5, MaxListedErrors: 5}
	trips := []*domain.TripRecord{{TripID: "a"}, {TripID: "b"}, {TripID: "c"}}
	series := seriesOf(domain.NewDate(2018, time.January, 1), 1, 0, 1, 0, 1, 1, 1) // Mon..Sun

	res := NewSufficiencyChecker(th).Check(trips, series)
	if !res.AllPass {
		for _, c := range res.Checks {
			t.Logf("%s: %s vs %s pass=%v", c.Name, c.Actual, c.Threshold, c.Pass)
		}
		t.Fatal("expected all checks to pass")
	}
	if len(res.Checks) != 6 {
		t.Errorf("checks = %d, want 6", len(res.Checks))
	}
	if len(res.Errors) != 0 {
		t.Errorf("errors = %v, want none", res.Errors)
	}
}

func TestSufficiencyChecker_Failures(t *testing.T) {
	th := SufficiencyThresholds{MinTrips: 10, MinDays: 30, MinGroupDays: 8, MinActiveShare: 0.5, MaxListedErrors: 1}
	trips := []*domain.TripRecord{{TripID: "a"}, {TripID: "a"}, {TripID: "b"}, {TripID: "b"}, {TripID: "c"}}
	series := seriesOf(domain.NewDate(2018, time.January, 1), 5, 0, 0)

	res := NewSufficiencyChecker(th).Check(trips, series)
	if res.AllPass {
		t.Fatal("expected failures")
	}

	failed := map[string]bool{}
	for _, c := range res.Checks {
		if !c.Pass {
			failed[c.Name] = true
		}
	}
	for _, name := range []string{"Trips", "Days covered", "Weekend days", "Weekday days", "Days with hires", "Duplicate trip ids"} {
		if !failed[name] {
			t.Errorf("check %q passed, want failure", name)
		}
	}

	want := []string{"duplicate trip_id a (2 rows)", "... and 1 more duplicate trip ids"}
	if len(res.Errors) != len(want) {
		t.Fatalf("errors = %v, want %v", res.Errors, want)
	}
	for i := range want {
		if res.Errors[i] != want[i] {
			t.Errorf("errors[%d] = %q, want %q", i, res.Errors[i], want[i])
		}
	}
}

func TestSufficiencyChecker_EmptySeries(t *testing.T) {
	th := DefaultSufficiencyThresholds(30)
	res := NewSufficiencyChecker(th).Check(nil, nil)
	if res.AllPass {
		t.Error("empty dataset must not pass")
	}
}

func TestConvertToDataQuality(t *testing.T) {
	res := &SufficiencyResult{
		Checks:  []SufficiencyCheck{{Name: "Trips", Threshold: ">= 1", Actual: "0", Pass: false}},
		AllPass: false,
		Errors:  []string{"duplicate trip_id x (2 rows)"},
	}
	dq := convertToDataQuality(res)
	if len(dq.Checks) != 1 || dq.Checks[0].Name != "Trips" || dq.Checks[0].Pass {
		t.Errorf("unexpected checks: %+v", dq.Checks)
	}
	if dq.AllChecksPassed {
		t.Error("AllChecksPassed should be false")
	}
	if len(dq.IntegrityErrors) != 1 {
		t.Errorf("integrity errors = %v", dq.IntegrityErrors)
	}
}
