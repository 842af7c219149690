package reporting

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"bikeshare-report/internal/domain"
	"bikeshare-report/internal/idhash"
	"bikeshare-report/internal/metrics"
)

// Input carries the computed stages of one run.
type Input struct {
	Trips      []*domain.TripRecord
	Features   []*domain.DerivedFeatures
	Series     domain.DailySeries
	Rolling    []domain.RollingPoint
	Weekend    *domain.WeekendTestResult
	Summary    *metrics.Summary
	Seed       uint64
	Parameters Parameters
}

// Generator assembles reports from computed stages.
type Generator struct {
	version string
	now     func() time.Time // Injectable clock for deterministic output
	newID   func() string
}

// NewGenerator creates a report generator stamping reports with version.
func NewGenerator(version string) *Generator {
	return &Generator{
		version: version,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// WithRunID sets a custom run id source.
func (g *Generator) WithRunID(newID func() string) *Generator {
	g.newID = newID
	return g
}

// Generate produces a complete report.
func (g *Generator) Generate(in Input) (*Report, error) {
	if in.Summary == nil || in.Weekend == nil {
		return nil, fmt.Errorf("%w: summary and weekend result are required", domain.ErrMalformedInput)
	}
	if len(in.Trips) != len(in.Features) {
		return nil, fmt.Errorf("%w: %d trips but %d feature rows", domain.ErrMalformedInput, len(in.Trips), len(in.Features))
	}
	if len(in.Series) != len(in.Rolling) {
		return nil, fmt.Errorf("%w: %d series days but %d rolling points", domain.ErrMalformedInput, len(in.Series), len(in.Rolling))
	}

	high, low, undefined := rollingExtremes(in.Rolling)

	return &Report{
		RunID:            g.newID(),
		GeneratedAt:      g.now(),
		GeneratorVersion: g.version,
		DatasetVersion:   idhash.DatasetVersion(in.Trips),
		Seed:             in.Seed,
		Parameters:       in.Parameters,
		Summary:          in.Summary,
		Series:           in.Series,
		Rolling:          in.Rolling,
		RollingHigh:      high,
		RollingLow:       low,
		RollingUndefined: undefined,
		Weekend:          in.Weekend,
		WeekendVerdict:   weekendVerdict(in.Weekend),
		Features:         in.Features,
	}, nil
}

// rollingExtremes returns the highest and lowest defined rolling points
// (earliest date wins ties) and the number of undefined ones.
func rollingExtremes(points []domain.RollingPoint) (high, low *domain.RollingPoint, undefined int) {
	for i := range points {
		p := &points[i]
		if !p.Valid {
			undefined++
			continue
		}
		if high == nil || p.Value > high.Value {
			high = p
		}
		if low == nil || p.Value < low.Value {
			low = p
		}
	}
	return high, low, undefined
}

func weekendVerdict(r *domain.WeekendTestResult) string {
	direction := "lower"
	if r.Observed > 0 {
		direction = "higher"
	}
	if r.Reject {
		return fmt.Sprintf(
			"Weekend days average %.1f hires against %.1f on weekdays. Only %.1f%% of %d random relabelings produced a gap this low, below the %.0f%% threshold, so weekend demand is significantly lower.",
			r.WeekendMean, r.WeekdayMean, r.PValue*100, r.Reps, r.Threshold*100)
	}
	return fmt.Sprintf(
		"Weekend days average %.1f hires against %.1f on weekdays (%s). %.1f%% of %d random relabelings produced a gap at least this low, so the data does not show weekend demand to be significantly lower at the %.0f%% level.",
		r.WeekendMean, r.WeekdayMean, direction, r.PValue*100, r.Reps, r.Threshold*100)
}
