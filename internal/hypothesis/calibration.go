package hypothesis

import (
	"context"
	"math"
	"math/rand/v2"

	"bikeshare-report/internal/domain"
)

// SyntheticDays generates n consecutive labeled days from start with
// Poisson-distributed hire counts. Equal means give data with no weekend
// effect.
func SyntheticDays(rng *rand.Rand, start domain.Date, n int, weekdayMean, weekendMean float64) []domain.LabeledDay {
	days := make([]domain.LabeledDay, n)
	for i := range days {
		d := start.AddDays(i)
		mean := weekdayMean
		if d.IsWeekend() {
			mean = weekendMean
		}
		days[i] = domain.LabeledDay{
			Date:      d,
			HireCount: poisson(rng, mean),
			IsWeekend: d.IsWeekend(),
		}
	}
	return days
}

// poisson draws from Poisson(lambda) by multiplying uniforms (Knuth).
// Fine for the small means of daily hire counts.
func poisson(rng *rand.Rand, lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	limit := math.Exp(-lambda)
	k := 0
	p := rng.Float64()
	for p > limit {
		k++
		p *= rng.Float64()
	}
	return k
}

// CalibrationResult summarizes repeated tests on data without a real effect.
type CalibrationResult struct {
	Runs       int
	Rejections int
	Rate       float64
	MeanPValue float64
}

// Calibrate runs the tester once per seed on fresh synthetic no-effect data
// and reports how often it rejects. A well-calibrated test rejects at about
// the configured threshold.
func (t *Tester) Calibrate(ctx context.Context, seeds []uint64, days int, mean float64) (*CalibrationResult, error) {
	res := &CalibrationResult{Runs: len(seeds)}
	if len(seeds) == 0 {
		return res, nil
	}

	start := domain.NewDate(2018, 1, 1)
	sumP := 0.0
	for _, seed := range seeds {
		rng := rand.New(rand.NewPCG(seed, 0))
		data := SyntheticDays(rng, start, days, mean, mean)

		out, err := t.Test(ctx, data, rng)
		if err != nil {
			return nil, err
		}
		if out.Reject {
			res.Rejections++
		}
		sumP += out.PValue
	}

	res.Rate = float64(res.Rejections) / float64(res.Runs)
	res.MeanPValue = sumP / float64(res.Runs)
	return res, nil
}
