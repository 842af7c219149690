package domain

// DailyPoint is the number of hires started on one calendar date.
type DailyPoint struct {
	Date      Date
	HireCount int
}

// DailySeries is ordered by date and has no gaps between its first and last date.
type DailySeries []DailyPoint

// TotalHires returns the sum of HireCount over the series.
func (s DailySeries) TotalHires() int {
	total := 0
	for _, p := range s {
		total += p.HireCount
	}
	return total
}

// RollingPoint is the centered rolling mean of hire counts at one date.
type RollingPoint struct {
	Date       Date
	Value      float64 // meaningless when Valid is false
	WindowSize int     // number of days averaged
	Valid      bool    // false when the window policy leaves the value undefined
}

// LabeledDay is a DailyPoint tagged with its weekend label.
type LabeledDay struct {
	Date      Date
	HireCount int
	IsWeekend bool
}
