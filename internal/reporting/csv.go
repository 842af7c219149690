package reporting

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"bikeshare-report/internal/domain"
)

// Output file names
const (
	MarkdownFile         = "REPORT.md"
	DailySeriesFile      = "daily_series.csv"
	TripFeaturesFile     = "trip_features.csv"
	NullDistributionFile = "null_distribution.csv"
	WorkbookFile         = "summary.xlsx"
)

// WriteDailySeriesCSV writes one row per day. rolling must be index-aligned
// with series; undefined rolling values are written as empty cells.
func WriteDailySeriesCSV(w io.Writer, series domain.DailySeries, rolling []domain.RollingPoint) error {
	if len(series) != len(rolling) {
		return fmt.Errorf("%w: %d series days but %d rolling points", domain.ErrMalformedInput, len(series), len(rolling))
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "hire_count", "is_weekend", "rolling_average", "window_size", "rolling_valid"}); err != nil {
		return err
	}
	for i, p := range series {
		rp := rolling[i]
		avg := ""
		if rp.Valid {
			avg = strconv.FormatFloat(rp.Value, 'f', 6, 64)
		}
		row := []string{
			p.Date.String(),
			strconv.Itoa(p.HireCount),
			strconv.FormatBool(p.Date.IsWeekend()),
			avg,
			strconv.Itoa(rp.WindowSize),
			strconv.FormatBool(rp.Valid),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTripFeaturesCSV writes one row per trip in input order, distances with
// precision decimals.
func WriteTripFeaturesCSV(w io.Writer, features []*domain.DerivedFeatures, precision int) error {
	cw := csv.NewWriter(w)
	header := []string{"trip_id", "bike_id", "date", "hour", "weekday", "month", "quarter", "duration_minutes", "distance_km"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, f := range features {
		row := []string{
			f.TripID,
			f.BikeID,
			f.Date.String(),
			strconv.Itoa(f.Hour),
			f.Weekday.String(),
			strconv.Itoa(int(f.Month)),
			f.Quarter.String(),
			strconv.FormatFloat(f.DurationMinutes, 'f', 4, 64),
			strconv.FormatFloat(f.DistanceKm, 'f', precision, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteNullDistributionCSV writes the permutation statistics, rep numbered from 1.
func WriteNullDistributionCSV(w io.Writer, result *domain.WeekendTestResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"rep", "statistic"}); err != nil {
		return err
	}
	for i, v := range result.Null {
		if err := cw.Write([]string{strconv.Itoa(i + 1), strconv.FormatFloat(v, 'f', 6, 64)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
