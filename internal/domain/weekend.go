package domain

// WeekendTestResult is the outcome of the weekend vs weekday permutation test.
type WeekendTestResult struct {
	// Observed is mean(weekend hires) - mean(weekday hires). Negative when weekends are quieter.
	Observed float64

	// Null holds one statistic per repetition, index-aligned with the repetition number.
	Null []float64

	PValue    float64 // left-tail, inclusive
	Reject    bool    // PValue < Threshold
	Reps      int
	Threshold float64

	WeekendDays int
	WeekdayDays int
	WeekendMean float64
	WeekdayMean float64
}
