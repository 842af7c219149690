// Package hypothesis implements the weekend vs weekday permutation test.
package hypothesis

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"bikeshare-report/internal/domain"
)

// Defaults used by the published report.
const (
	DefaultReps      = 500
	DefaultThreshold = 0.05
)

// Config parameterizes the permutation test.
type Config struct {
	Reps      int     `validate:"gt=0"`
	Threshold float64 `validate:"gt=0,lt=1"`
	Workers   int     `validate:"gte=0"` // 0 means GOMAXPROCS
}

// DefaultConfig returns Reps=500, Threshold=0.05.
func DefaultConfig() Config {
	return Config{Reps: DefaultReps, Threshold: DefaultThreshold}
}

var validate = validator.New()

// Tester runs label-permutation tests on daily hire counts.
type Tester struct {
	cfg Config
}

// NewTester validates cfg and returns a Tester.
func NewTester(cfg Config) (*Tester, error) {
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidConfiguration, err)
	}
	return &Tester{cfg: cfg}, nil
}

// Config returns the tester configuration.
func (t *Tester) Config() Config {
	return t.cfg
}

// Test compares mean weekend hires with mean weekday hires.
//
// The statistic is mean(weekend) - mean(weekday). The null distribution comes
// from Reps random relabelings with group sizes held fixed. The p-value is the
// share of null statistics at or below the observed one, so the test asks
// whether weekends are quieter than weekdays.
//
// One seed per repetition is drawn from rng up front, so results depend only
// on rng's state and never on the number of workers.
func (t *Tester) Test(ctx context.Context, days []domain.LabeledDay, rng *rand.Rand) (*domain.WeekendTestResult, error) {
	if rng == nil {
		return nil, fmt.Errorf("%w: nil random source", domain.ErrInvalidConfiguration)
	}

	counts := make([]int, len(days))
	labels := make([]bool, len(days))
	weekendDays := 0
	for i, d := range days {
		counts[i] = d.HireCount
		labels[i] = d.IsWeekend
		if d.IsWeekend {
			weekendDays++
		}
	}
	weekdayDays := len(days) - weekendDays
	if weekendDays == 0 || weekdayDays == 0 {
		return nil, fmt.Errorf("%w: need both weekend and weekday days, got %d weekend and %d weekday",
			domain.ErrMalformedInput, weekendDays, weekdayDays)
	}

	weekendMean, weekdayMean := groupMeans(counts, labels, weekendDays)
	observed := weekendMean - weekdayMean

	seeds := make([]uint64, t.cfg.Reps)
	for i := range seeds {
		seeds[i] = rng.Uint64()
	}

	null := make([]float64, t.cfg.Reps)

	workers := t.cfg.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range seeds {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			null[i] = permutedStatistic(counts, labels, weekendDays, seeds[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	atOrBelow := 0
	for _, s := range null {
		if s <= observed {
			atOrBelow++
		}
	}
	pValue := float64(atOrBelow) / float64(t.cfg.Reps)

	return &domain.WeekendTestResult{
		Observed:    observed,
		Null:        null,
		PValue:      pValue,
		Reject:      pValue < t.cfg.Threshold,
		Reps:        t.cfg.Reps,
		Threshold:   t.cfg.Threshold,
		WeekendDays: weekendDays,
		WeekdayDays: weekdayDays,
		WeekendMean: weekendMean,
		WeekdayMean: weekdayMean,
	}, nil
}

// permutedStatistic shuffles a private copy of labels and recomputes the
// difference in means.
func permutedStatistic(counts []int, labels []bool, weekendDays int, seed uint64) float64 {
	shuffled := make([]bool, len(labels))
	copy(shuffled, labels)

	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	r.Shuffle(len(shuffled), func(a, b int) {
		shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
	})

	w, d := groupMeans(counts, shuffled, weekendDays)
	return w - d
}

// groupMeans sums in integers so equal groups give exactly equal means.
func groupMeans(counts []int, weekend []bool, weekendDays int) (float64, float64) {
	var sumWeekend, sumWeekday int
	for i, c := range counts {
		if weekend[i] {
			sumWeekend += c
		} else {
			sumWeekday += c
		}
	}
	weekdayDays := len(counts) - weekendDays
	return float64(sumWeekend) / float64(weekendDays), float64(sumWeekday) / float64(weekdayDays)
}
