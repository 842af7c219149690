package normalization

import (
	"errors"
	"math"
	"testing"
	"time"

	"bikeshare-report/internal/domain"
)

func makeTrip(bike string, start time.Time, minutes int) *domain.TripRecord {
	return &domain.TripRecord{
		TripID:           bike + start.Format(time.RFC3339),
		BikeID:           bike,
		StartTime:        start,
		EndTime:          start.Add(time.Duration(minutes) * time.Minute),
		StartStation:     "Meadows East",
		EndStation:       "Bristo Square",
		StartLat:         55.939809,
		StartLong:        -3.182739,
		EndLat:           55.945834,
		EndLong:          -3.188828,
		SubscriptionType: domain.SubscriptionSubscriber,
	}
}

func mustDeriver(t *testing.T) *Deriver {
	t.Helper()
	d, err := NewDeriver(DefaultDeriverConfig())
	if err != nil {
		t.Fatalf("NewDeriver() error = %v", err)
	}
	return d
}

func TestDerive_PreservesLengthAndOrder(t *testing.T) {
	base := time.Date(2018, 3, 5, 9, 15, 0, 0, time.UTC)
	trips := []*domain.TripRecord{
		makeTrip("b2", base.Add(48*time.Hour), 12),
		makeTrip("b1", base, 20),
		makeTrip("b3", base.Add(-24*time.Hour), 5),
	}

	features, err := mustDeriver(t).Derive(trips)
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}

	if len(features) != len(trips) {
		t.Fatalf("len = %d, want %d", len(features), len(trips))
	}
	for i := range trips {
		if features[i].TripID != trips[i].TripID {
			t.Errorf("features[%d].TripID = %s, want %s", i, features[i].TripID, trips[i].TripID)
		}
	}
}

func TestDerive_CalendarFields(t *testing.T) {
	// Saturday 2018-06-16 23:59 wall clock
	start := time.Date(2018, 6, 16, 23, 59, 0, 0, time.UTC)
	features, err := mustDeriver(t).Derive([]*domain.TripRecord{makeTrip("b1", start, 30)})
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}

	f := features[0]
	if f.Hour != 23 {
		t.Errorf("Hour = %d, want 23", f.Hour)
	}
	if f.Weekday != time.Saturday {
		t.Errorf("Weekday = %v, want Saturday", f.Weekday)
	}
	if f.Month != time.June {
		t.Errorf("Month = %v, want June", f.Month)
	}
	if f.Quarter != (domain.Quarter{FiscalYear: 2018, Q: 2}) {
		t.Errorf("Quarter = %v, want 2018Q2", f.Quarter)
	}
	if f.Date != domain.NewDate(2018, 6, 16) {
		t.Errorf("Date = %v, want 2018-06-16 (calendar fields come from start time)", f.Date)
	}
	if f.DurationMinutes != 30 {
		t.Errorf("DurationMinutes = %v, want 30", f.DurationMinutes)
	}
}

func TestDerive_NegativeDurationPassesThrough(t *testing.T) {
	start := time.Date(2018, 1, 1, 10, 0, 0, 0, time.UTC)
	features, err := mustDeriver(t).Derive([]*domain.TripRecord{makeTrip("b1", start, -15)})
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	if features[0].DurationMinutes != -15 {
		t.Errorf("DurationMinutes = %v, want -15", features[0].DurationMinutes)
	}
}

func TestDerive_OptionalFieldsAbsent(t *testing.T) {
	trip := makeTrip("b1", time.Date(2018, 1, 1, 10, 0, 0, 0, time.UTC), 10)
	trip.BirthYear = nil
	trip.Gender = ""

	if _, err := mustDeriver(t).Derive([]*domain.TripRecord{trip}); err != nil {
		t.Errorf("Derive() with absent birth year and gender error = %v", err)
	}
}

func TestDerive_SameCoordinatesZeroDistance(t *testing.T) {
	trip := makeTrip("b1", time.Date(2018, 1, 1, 10, 0, 0, 0, time.UTC), 10)
	trip.StartLat, trip.StartLong = 40.7128, -74.0060
	trip.EndLat, trip.EndLong = 40.7128, -74.0060
	trip.EndStation = "Somewhere Else"

	features, err := mustDeriver(t).Derive([]*domain.TripRecord{trip})
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	if features[0].DistanceKm != 0 {
		t.Errorf("DistanceKm = %v, want 0", features[0].DistanceKm)
	}
}

func TestDerive_DistanceRounded(t *testing.T) {
	trip := makeTrip("b1", time.Date(2018, 1, 1, 10, 0, 0, 0, time.UTC), 10)
	features, err := mustDeriver(t).Derive([]*domain.TripRecord{trip})
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	d := features[0].DistanceKm
	if d != math.Round(d*1000)/1000 {
		t.Errorf("DistanceKm = %v, not rounded to 3 decimals", d)
	}
	if d < 0.7 || d > 0.8 {
		t.Errorf("DistanceKm = %v, want ~0.76", d)
	}
}

func TestDerive_MalformedInput(t *testing.T) {
	start := time.Date(2018, 1, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		mutate func(*domain.TripRecord)
	}{
		{"empty bike id", func(r *domain.TripRecord) { r.BikeID = "" }},
		{"empty start station", func(r *domain.TripRecord) { r.StartStation = "" }},
		{"empty end station", func(r *domain.TripRecord) { r.EndStation = "" }},
		{"zero start time", func(r *domain.TripRecord) { r.StartTime = time.Time{} }},
		{"zero end time", func(r *domain.TripRecord) { r.EndTime = time.Time{} }},
		{"NaN latitude", func(r *domain.TripRecord) { r.StartLat = math.NaN() }},
		{"Inf longitude", func(r *domain.TripRecord) { r.EndLong = math.Inf(1) }},
		{"missing subscription", func(r *domain.TripRecord) { r.SubscriptionType = "" }},
		{"unknown subscription", func(r *domain.TripRecord) { r.SubscriptionType = "Annual" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			good := makeTrip("b0", start, 10)
			bad := makeTrip("b1", start, 10)
			tt.mutate(bad)

			_, err := mustDeriver(t).Derive([]*domain.TripRecord{good, bad})
			if !errors.Is(err, domain.ErrMalformedInput) {
				t.Errorf("Derive() error = %v, want ErrMalformedInput", err)
			}
		})
	}
}

func TestDerive_Idempotent(t *testing.T) {
	trips := []*domain.TripRecord{
		makeTrip("b1", time.Date(2018, 1, 1, 10, 0, 0, 0, time.UTC), 10),
		makeTrip("b2", time.Date(2018, 1, 2, 11, 0, 0, 0, time.UTC), 25),
	}
	d := mustDeriver(t)

	a, err := d.Derive(trips)
	if err != nil {
		t.Fatal(err)
	}
	b, err := d.Derive(trips)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if *a[i] != *b[i] {
			t.Errorf("row %d differs between runs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestNewDeriver_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*DeriverConfig)
	}{
		{"zero radius", func(c *DeriverConfig) { c.SphereRadiusKm = 0 }},
		{"negative radius", func(c *DeriverConfig) { c.SphereRadiusKm = -1 }},
		{"month zero", func(c *DeriverConfig) { c.FiscalYearStartMonth = 0 }},
		{"month 13", func(c *DeriverConfig) { c.FiscalYearStartMonth = 13 }},
		{"negative precision", func(c *DeriverConfig) { c.DistancePrecision = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultDeriverConfig()
			tt.mutate(&cfg)
			if _, err := NewDeriver(cfg); !errors.Is(err, domain.ErrInvalidConfiguration) {
				t.Errorf("NewDeriver() error = %v, want ErrInvalidConfiguration", err)
			}
		})
	}
}
