// Package metrics builds the grouped projections and data-quality audit
// shown in the report.
package metrics

import (
	"fmt"
	"sort"
	"time"

	"bikeshare-report/internal/domain"
	"bikeshare-report/internal/normalization"
)

// SummaryConfig controls grouping and truncation of the projections.
type SummaryConfig struct {
	TopN              int
	DistanceBucketsKm []float64 // ascending lower edges; last bucket is open-ended
	WeekStart         time.Weekday
	Quality           QualityConfig
}

// DefaultSummaryConfig returns the configuration used by the published report.
func DefaultSummaryConfig() SummaryConfig {
	return SummaryConfig{
		TopN:              10,
		DistanceBucketsKm: []float64{0, 0.5, 1, 2, 3, 5},
		WeekStart:         time.Monday,
		Quality:           DefaultQualityConfig(),
	}
}

// Validate checks ranges and bucket ordering.
func (c SummaryConfig) Validate() error {
	if c.TopN <= 0 {
		return fmt.Errorf("%w: top_n must be positive, got %d", domain.ErrInvalidConfiguration, c.TopN)
	}
	if len(c.DistanceBucketsKm) == 0 {
		return fmt.Errorf("%w: at least one distance bucket is required", domain.ErrInvalidConfiguration)
	}
	for i, edge := range c.DistanceBucketsKm {
		if edge < 0 {
			return fmt.Errorf("%w: distance bucket edge %v is negative", domain.ErrInvalidConfiguration, edge)
		}
		if i > 0 && edge <= c.DistanceBucketsKm[i-1] {
			return fmt.Errorf("%w: distance bucket edges must be strictly ascending", domain.ErrInvalidConfiguration)
		}
	}
	if c.WeekStart < time.Sunday || c.WeekStart > time.Saturday {
		return fmt.Errorf("%w: invalid week start %d", domain.ErrInvalidConfiguration, c.WeekStart)
	}
	return c.Quality.Validate()
}

// Count is the number of trips for one key.
type Count struct {
	Key   string
	Count int
}

// RouteCount is the number of trips between an ordered station pair.
type RouteCount struct {
	From  string
	To    string
	Count int
}

// WeekdayCount is the number of trips started on one weekday.
type WeekdayCount struct {
	Weekday time.Weekday
	Count   int
}

// QuarterCount is the number of trips started in one fiscal quarter.
type QuarterCount struct {
	Quarter domain.Quarter
	Count   int
}

// YearCount is the number of trips by riders born in one year.
type YearCount struct {
	Year  int
	Count int
}

// BucketCount is one distance bucket [Lower, Upper). Open buckets have no upper edge.
type BucketCount struct {
	Lower float64
	Upper float64
	Open  bool
	Count int
	Share float64
}

// Label renders the bucket range, e.g. "0.5-1 km" or "5+ km".
func (b BucketCount) Label() string {
	if b.Open {
		return fmt.Sprintf("%g+ km", b.Lower)
	}
	return fmt.Sprintf("%g-%g km", b.Lower, b.Upper)
}

// GroupDistribution is a Distribution for one group value.
type GroupDistribution struct {
	Group string
	Distribution
}

// DailyStats describes the gap-filled daily hire series.
type DailyStats struct {
	Days       int
	ZeroDays   int
	TotalHires int
	Mean       float64
	Median     float64
	Stddev     float64
	PeakDate   domain.Date
	PeakCount  int
	FirstDate  domain.Date
	LastDate   domain.Date
}

// Summary holds every grouped projection of one run.
type Summary struct {
	TotalTrips int

	ByHour      [24]int
	ByWeekday   []WeekdayCount // starts at the configured week start
	ByMonth     [12]int        // index 0 = January
	ByQuarter   []QuarterCount // chronological
	WeekdayHour [7][24]int     // indexed by time.Weekday, then hour

	ByGender       []Count // absent values excluded
	BySubscription []Count
	ByBirthYear    []YearCount

	TopStartStations []Count
	TopEndStations   []Count
	TopRoutes        []RouteCount
	ByBike           []Count

	DistanceBuckets []BucketCount

	DurationOverall        Distribution
	DurationBySubscription []GroupDistribution
	DurationByGender       []GroupDistribution
	DistanceOverall        Distribution

	Daily   DailyStats
	Quality QualityReport
}

// BuildSummary computes all projections. trips and features must be
// index-aligned, as returned by Deriver.Derive.
func BuildSummary(trips []*domain.TripRecord, features []*domain.DerivedFeatures, cfg SummaryConfig) (*Summary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(trips) != len(features) {
		return nil, fmt.Errorf("%w: %d trips but %d feature rows", domain.ErrMalformedInput, len(trips), len(features))
	}

	s := &Summary{TotalTrips: len(trips)}

	quarters := make(map[domain.Quarter]int)
	weekdays := make(map[time.Weekday]int)
	genders := make(map[string]int)
	subscriptions := make(map[string]int)
	birthYears := make(map[int]int)
	starts := make(map[string]int)
	ends := make(map[string]int)
	routes := make(map[[2]string]int)
	bikes := make(map[string]int)

	durations := make([]float64, len(features))
	distances := make([]float64, len(features))
	durationBySub := make(map[string][]float64)
	durationByGender := make(map[string][]float64)

	for i, f := range features {
		t := trips[i]

		s.ByHour[f.Hour]++
		weekdays[f.Weekday]++
		s.ByMonth[f.Month-1]++
		quarters[f.Quarter]++
		s.WeekdayHour[f.Weekday][f.Hour]++

		if t.Gender != "" {
			genders[string(t.Gender)]++
			durationByGender[string(t.Gender)] = append(durationByGender[string(t.Gender)], f.DurationMinutes)
		}
		if t.SubscriptionType != "" {
			subscriptions[string(t.SubscriptionType)]++
			durationBySub[string(t.SubscriptionType)] = append(durationBySub[string(t.SubscriptionType)], f.DurationMinutes)
		}
		if t.BirthYear != nil {
			birthYears[*t.BirthYear]++
		}

		starts[t.StartStation]++
		ends[t.EndStation]++
		routes[[2]string{t.StartStation, t.EndStation}]++
		bikes[t.BikeID]++

		durations[i] = f.DurationMinutes
		distances[i] = f.DistanceKm
	}

	for k := 0; k < 7; k++ {
		wd := (cfg.WeekStart + time.Weekday(k)) % 7
		s.ByWeekday = append(s.ByWeekday, WeekdayCount{Weekday: wd, Count: weekdays[wd]})
	}

	for q, c := range quarters {
		s.ByQuarter = append(s.ByQuarter, QuarterCount{Quarter: q, Count: c})
	}
	sort.Slice(s.ByQuarter, func(i, j int) bool {
		return s.ByQuarter[i].Quarter.Before(s.ByQuarter[j].Quarter)
	})

	for y, c := range birthYears {
		s.ByBirthYear = append(s.ByBirthYear, YearCount{Year: y, Count: c})
	}
	sort.Slice(s.ByBirthYear, func(i, j int) bool {
		return s.ByBirthYear[i].Year < s.ByBirthYear[j].Year
	})

	s.ByGender = rankCounts(genders, 0)
	s.BySubscription = rankCounts(subscriptions, 0)
	s.TopStartStations = rankCounts(starts, cfg.TopN)
	s.TopEndStations = rankCounts(ends, cfg.TopN)
	s.ByBike = rankCounts(bikes, cfg.TopN)
	s.TopRoutes = rankRoutes(routes, cfg.TopN)

	s.DistanceBuckets = bucketDistances(distances, cfg.DistanceBucketsKm)

	s.DurationOverall = computeDistribution(durations)
	s.DistanceOverall = computeDistribution(distances)
	s.DurationBySubscription = groupDistributions(durationBySub)
	s.DurationByGender = groupDistributions(durationByGender)

	s.Daily = computeDailyStats(normalization.BuildDailySeries(features))
	s.Quality = AuditQuality(trips, features, cfg.Quality)

	return s, nil
}

// rankCounts sorts by count desc then key asc and keeps the first limit
// entries (all when limit <= 0).
func rankCounts(m map[string]int, limit int) []Count {
	out := make([]Count, 0, len(m))
	for k, c := range m {
		out = append(out, Count{Key: k, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func rankRoutes(m map[[2]string]int, limit int) []RouteCount {
	out := make([]RouteCount, 0, len(m))
	for k, c := range m {
		out = append(out, RouteCount{From: k[0], To: k[1], Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// bucketDistances places each distance in the last bucket whose lower edge
// it reaches. Distances below the first edge fall into the first bucket.
func bucketDistances(distances []float64, edges []float64) []BucketCount {
	buckets := make([]BucketCount, len(edges))
	for i, lower := range edges {
		buckets[i].Lower = lower
		if i+1 < len(edges) {
			buckets[i].Upper = edges[i+1]
		} else {
			buckets[i].Open = true
		}
	}

	for _, d := range distances {
		idx := sort.Search(len(edges), func(i int) bool { return edges[i] > d }) - 1
		if idx < 0 {
			idx = 0
		}
		buckets[idx].Count++
	}

	for i := range buckets {
		buckets[i].Share = share(buckets[i].Count, len(distances))
	}
	return buckets
}

func groupDistributions(groups map[string][]float64) []GroupDistribution {
	out := make([]GroupDistribution, 0, len(groups))
	for g, values := range groups {
		out = append(out, GroupDistribution{Group: g, Distribution: computeDistribution(values)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Group < out[j].Group })
	return out
}

func computeDailyStats(series domain.DailySeries) DailyStats {
	if len(series) == 0 {
		return DailyStats{}
	}

	stats := DailyStats{
		Days:      len(series),
		FirstDate: series[0].Date,
		LastDate:  series[len(series)-1].Date,
		PeakDate:  series[0].Date,
		PeakCount: series[0].HireCount,
	}

	values := make([]float64, len(series))
	for i, p := range series {
		values[i] = float64(p.HireCount)
		stats.TotalHires += p.HireCount
		if p.HireCount == 0 {
			stats.ZeroDays++
		}
		if p.HireCount > stats.PeakCount {
			stats.PeakCount = p.HireCount
			stats.PeakDate = p.Date
		}
	}

	dist := computeDistribution(values)
	stats.Mean = dist.Mean
	stats.Median = dist.Median
	stats.Stddev = dist.Stddev
	return stats
}
