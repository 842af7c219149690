package normalization

import (
	"bikeshare-report/internal/domain"
)

// BuildDailySeries counts hires per calendar date and fills every date between
// the earliest and latest trip with an explicit zero.
// The result is ordered by date and sums to len(features).
func BuildDailySeries(features []*domain.DerivedFeatures) domain.DailySeries {
	if len(features) == 0 {
		return domain.DailySeries{}
	}

	counts := make(map[domain.Date]int)
	first := features[0].Date
	last := features[0].Date

	for _, f := range features {
		counts[f.Date]++
		if f.Date.Before(first) {
			first = f.Date
		}
		if last.Before(f.Date) {
			last = f.Date
		}
	}

	days := first.DaysUntil(last) + 1
	series := make(domain.DailySeries, days)
	for i := 0; i < days; i++ {
		d := first.AddDays(i)
		series[i] = domain.DailyPoint{Date: d, HireCount: counts[d]}
	}

	return series
}

// LabelWeekends tags each point with whether it falls on Saturday or Sunday.
func LabelWeekends(series domain.DailySeries) []domain.LabeledDay {
	result := make([]domain.LabeledDay, len(series))
	for i, p := range series {
		result[i] = domain.LabeledDay{
			Date:      p.Date,
			HireCount: p.HireCount,
			IsWeekend: p.Date.IsWeekend(),
		}
	}
	return result
}
