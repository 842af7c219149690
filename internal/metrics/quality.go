package metrics

import (
	"fmt"
	"sort"

	"bikeshare-report/internal/domain"
)

// QualityConfig sets the plausibility limits of the audit.
type QualityConfig struct {
	MaxPlausibleDurationMinutes float64
	MaxPlausibleAge             int
	BirthYearSpikeShare         float64
}

// DefaultQualityConfig returns a one-day duration limit, age 100 and a 20% spike share.
func DefaultQualityConfig() QualityConfig {
	return QualityConfig{
		MaxPlausibleDurationMinutes: 1440,
		MaxPlausibleAge:             100,
		BirthYearSpikeShare:         0.2,
	}
}

// Validate checks the audit limits.
func (c QualityConfig) Validate() error {
	if c.MaxPlausibleDurationMinutes <= 0 {
		return fmt.Errorf("%w: max plausible duration must be positive", domain.ErrInvalidConfiguration)
	}
	if c.MaxPlausibleAge <= 0 {
		return fmt.Errorf("%w: max plausible age must be positive", domain.ErrInvalidConfiguration)
	}
	if c.BirthYearSpikeShare <= 0 || c.BirthYearSpikeShare > 1 {
		return fmt.Errorf("%w: birth year spike share must be in (0, 1]", domain.ErrInvalidConfiguration)
	}
	return nil
}

// QualityReport counts suspicious values. Nothing is filtered: every
// counted record still feeds the projections.
type QualityReport struct {
	Trips int

	NegativeDurations  int
	ExcessiveDurations int // above MaxPlausibleDurationMinutes
	ImplausibleAges    int // older than MaxPlausibleAge, or born after the trip
	MissingBirthYear   int
	MissingGender      int
	UnknownGender      int

	// Most frequent birth year among records that have one.
	ModalBirthYear      int
	ModalBirthYearCount int
	ModalBirthYearShare float64
	BirthYearSpike      bool

	// Trips returned to their start station at different coordinates.
	SameStationMoved int
	// Station names seen at more than one coordinate pair, sorted.
	ConflictingStations []string
}

// Issues returns the number of flagged records across all checks.
func (q QualityReport) Issues() int {
	return q.NegativeDurations + q.ExcessiveDurations + q.ImplausibleAges + q.SameStationMoved
}

type coord struct{ lat, long float64 }

// AuditQuality counts implausible and missing values. trips and features
// must be index-aligned.
func AuditQuality(trips []*domain.TripRecord, features []*domain.DerivedFeatures, cfg QualityConfig) QualityReport {
	q := QualityReport{Trips: len(trips)}

	birthYears := make(map[int]int)
	withBirthYear := 0
	stationCoords := make(map[string]map[coord]struct{})

	addStation := func(name string, c coord) {
		set, ok := stationCoords[name]
		if !ok {
			set = make(map[coord]struct{})
			stationCoords[name] = set
		}
		set[c] = struct{}{}
	}

	for i, t := range trips {
		if i < len(features) {
			d := features[i].DurationMinutes
			if d < 0 {
				q.NegativeDurations++
			}
			if d > cfg.MaxPlausibleDurationMinutes {
				q.ExcessiveDurations++
			}
		}

		if t.BirthYear == nil {
			q.MissingBirthYear++
		} else {
			withBirthYear++
			birthYears[*t.BirthYear]++
			age := t.StartTime.Year() - *t.BirthYear
			if age > cfg.MaxPlausibleAge || age < 0 {
				q.ImplausibleAges++
			}
		}

		switch t.Gender {
		case "":
			q.MissingGender++
		case domain.GenderUnknown:
			q.UnknownGender++
		}

		start := coord{t.StartLat, t.StartLong}
		end := coord{t.EndLat, t.EndLong}
		if t.StartStation == t.EndStation && start != end {
			q.SameStationMoved++
		}
		addStation(t.StartStation, start)
		addStation(t.EndStation, end)
	}

	for year, c := range birthYears {
		if c > q.ModalBirthYearCount || (c == q.ModalBirthYearCount && year < q.ModalBirthYear) {
			q.ModalBirthYear = year
			q.ModalBirthYearCount = c
		}
	}
	q.ModalBirthYearShare = share(q.ModalBirthYearCount, withBirthYear)
	q.BirthYearSpike = withBirthYear > 0 && q.ModalBirthYearShare > cfg.BirthYearSpikeShare

	for name, set := range stationCoords {
		if len(set) > 1 {
			q.ConflictingStations = append(q.ConflictingStations, name)
		}
	}
	sort.Strings(q.ConflictingStations)

	return q
}
