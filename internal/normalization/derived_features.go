package normalization

import (
	"fmt"
	"math"
	"time"

	"bikeshare-report/internal/domain"
)

// DeriverConfig holds the constants used when deriving trip features.
type DeriverConfig struct {
	SphereRadiusKm       float64
	FiscalYearStartMonth time.Month
	DistancePrecision    int // decimal places kept on DistanceKm
}

// DefaultDeriverConfig returns the configuration used by the published report.
func DefaultDeriverConfig() DeriverConfig {
	return DeriverConfig{
		SphereRadiusKm:       DefaultSphereRadiusKm,
		FiscalYearStartMonth: time.January,
		DistancePrecision:    3,
	}
}

// Validate checks the configuration ranges.
func (c DeriverConfig) Validate() error {
	if c.SphereRadiusKm <= 0 || math.IsNaN(c.SphereRadiusKm) || math.IsInf(c.SphereRadiusKm, 0) {
		return fmt.Errorf("%w: sphere radius must be positive, got %v", domain.ErrInvalidConfiguration, c.SphereRadiusKm)
	}
	if c.FiscalYearStartMonth < time.January || c.FiscalYearStartMonth > time.December {
		return fmt.Errorf("%w: fiscal year start month must be 1-12, got %d", domain.ErrInvalidConfiguration, c.FiscalYearStartMonth)
	}
	if c.DistancePrecision < 0 || c.DistancePrecision > 9 {
		return fmt.Errorf("%w: distance precision must be 0-9, got %d", domain.ErrInvalidConfiguration, c.DistancePrecision)
	}
	return nil
}

// Deriver computes per-trip features. It holds no state beyond its
// configuration and is safe for concurrent use.
type Deriver struct {
	cfg DeriverConfig
}

// NewDeriver creates a deriver after validating cfg.
func NewDeriver(cfg DeriverConfig) (*Deriver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Deriver{cfg: cfg}, nil
}

// Config returns the deriver configuration.
func (d *Deriver) Config() DeriverConfig {
	return d.cfg
}

// Derive computes DerivedFeatures for every record, index-for-index.
//
// Calendar fields come from StartTime's wall clock with no zone conversion.
// Durations are never clamped: negative or extreme values pass through.
// A record missing a required field fails the whole call with ErrMalformedInput.
func (d *Deriver) Derive(records []*domain.TripRecord) ([]*domain.DerivedFeatures, error) {
	result := make([]*domain.DerivedFeatures, len(records))

	for i, r := range records {
		if err := validateRecord(r); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		result[i] = d.derive(r)
	}

	return result, nil
}

func (d *Deriver) derive(r *domain.TripRecord) *domain.DerivedFeatures {
	start := r.StartTime
	distance := HaversineKm(d.cfg.SphereRadiusKm, r.StartLat, r.StartLong, r.EndLat, r.EndLong)

	return &domain.DerivedFeatures{
		TripID:          r.TripID,
		BikeID:          r.BikeID,
		Hour:            start.Hour(),
		Weekday:         start.Weekday(),
		Month:           start.Month(),
		Quarter:         FiscalQuarter(start, d.cfg.FiscalYearStartMonth),
		Date:            domain.DateOf(start),
		DurationMinutes: r.EndTime.Sub(start).Minutes(),
		DistanceKm:      roundTo(distance, d.cfg.DistancePrecision),
	}
}

// validateRecord checks the fields every derivation needs.
// BirthYear and Gender are optional and never checked.
func validateRecord(r *domain.TripRecord) error {
	if r == nil {
		return fmt.Errorf("%w: nil record", domain.ErrMalformedInput)
	}
	switch {
	case r.BikeID == "":
		return fmt.Errorf("%w: bike_id is empty", domain.ErrMalformedInput)
	case r.StartStation == "":
		return fmt.Errorf("%w: start_station is empty", domain.ErrMalformedInput)
	case r.EndStation == "":
		return fmt.Errorf("%w: end_station is empty", domain.ErrMalformedInput)
	case r.StartTime.IsZero():
		return fmt.Errorf("%w: start_time is missing", domain.ErrMalformedInput)
	case r.EndTime.IsZero():
		return fmt.Errorf("%w: end_time is missing", domain.ErrMalformedInput)
	case !r.SubscriptionType.Valid():
		return fmt.Errorf("%w: subscription_type %q", domain.ErrMalformedInput, r.SubscriptionType)
	}

	coords := []struct {
		name  string
		value float64
	}{
		{"start_lat", r.StartLat},
		{"start_long", r.StartLong},
		{"end_lat", r.EndLat},
		{"end_long", r.EndLong},
	}
	for _, c := range coords {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) {
			return fmt.Errorf("%w: %s is not a finite number", domain.ErrMalformedInput, c.name)
		}
	}

	return nil
}
