// Package ingest reads and writes the published trip export.
package ingest

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"bikeshare-report/internal/domain"
	"bikeshare-report/internal/idhash"
)

// Column names of the trip export.
const (
	ColTripID           = "trip_id"
	ColBikeID           = "bike_id"
	ColStartTime        = "start_time"
	ColEndTime          = "end_time"
	ColStartStation     = "start_station"
	ColEndStation       = "end_station"
	ColStartLat         = "start_lat"
	ColStartLong        = "start_long"
	ColEndLat           = "end_lat"
	ColEndLong          = "end_long"
	ColSubscriptionType = "subscription_type"
	ColBirthYear        = "birth_year"
	ColGender           = "gender"
)

// RequiredColumns must be present in every export. trip_id is optional.
var RequiredColumns = []string{
	ColBikeID, ColStartTime, ColEndTime,
	ColStartStation, ColEndStation,
	ColStartLat, ColStartLong, ColEndLat, ColEndLong,
	ColSubscriptionType, ColBirthYear, ColGender,
}

// Accepted timestamp layouts, tried in order. Zone information is dropped.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
}

// missing values as they come out of the dataframe
var naValues = []string{"", "NA", "NaN", "<nil>"}

// LoadTripsCSV opens path and reads it with ReadTripsCSV.
func LoadTripsCSV(path string) ([]*domain.TripRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trips csv: %w", err)
	}
	defer f.Close()

	return ReadTripsCSV(f)
}

// ReadTripsCSV parses a trip export. Every column is read as a string and
// converted here, so a malformed row is reported with its line number.
func ReadTripsCSV(r io.Reader) ([]*domain.TripRecord, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(naValues),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("%w: read csv: %v", domain.ErrMalformedInput, df.Err)
	}

	present := make(map[string]bool)
	for _, name := range df.Names() {
		present[name] = true
	}
	for _, col := range RequiredColumns {
		if !present[col] {
			return nil, fmt.Errorf("%w: missing column %q", domain.ErrMalformedInput, col)
		}
	}

	cols := make(map[string][]string, len(RequiredColumns)+1)
	for _, col := range RequiredColumns {
		cols[col] = df.Col(col).Records()
	}
	if present[ColTripID] {
		cols[ColTripID] = df.Col(ColTripID).Records()
	}

	trips := make([]*domain.TripRecord, df.Nrow())
	seen := make(map[string]int, len(trips))
	for i := range trips {
		// line 1 is the header
		line := i + 2
		row := rowReader{cols: cols, index: i}
		t, err := row.trip()
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", domain.ErrMalformedInput, line, err)
		}
		if first, ok := seen[t.TripID]; ok {
			return nil, fmt.Errorf("%w: line %d: duplicate trip %q, first on line %d",
				domain.ErrMalformedInput, line, t.TripID, first)
		}
		seen[t.TripID] = line
		trips[i] = t
	}

	return trips, nil
}

type rowReader struct {
	cols  map[string][]string
	index int
}

func (r rowReader) value(col string) (string, bool) {
	values, ok := r.cols[col]
	if !ok {
		return "", false
	}
	v := strings.TrimSpace(values[r.index])
	if isMissing(v) {
		return "", false
	}
	return v, true
}

func (r rowReader) required(col string) (string, error) {
	v, ok := r.value(col)
	if !ok {
		return "", fmt.Errorf("%s is missing", col)
	}
	return v, nil
}

func (r rowReader) float(col string) (float64, error) {
	v, err := r.required(col)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", col, v)
	}
	return f, nil
}

func (r rowReader) time(col string) (time.Time, error) {
	v, err := r.required(col)
	if err != nil {
		return time.Time{}, err
	}
	t, err := ParseTimestamp(v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %v", col, err)
	}
	return t, nil
}

func (r rowReader) trip() (*domain.TripRecord, error) {
	t := &domain.TripRecord{}
	var err error

	if t.BikeID, err = r.required(ColBikeID); err != nil {
		return nil, err
	}
	if t.StartTime, err = r.time(ColStartTime); err != nil {
		return nil, err
	}
	if t.EndTime, err = r.time(ColEndTime); err != nil {
		return nil, err
	}
	if t.StartStation, err = r.required(ColStartStation); err != nil {
		return nil, err
	}
	if t.EndStation, err = r.required(ColEndStation); err != nil {
		return nil, err
	}
	if t.StartLat, err = r.float(ColStartLat); err != nil {
		return nil, err
	}
	if t.StartLong, err = r.float(ColStartLong); err != nil {
		return nil, err
	}
	if t.EndLat, err = r.float(ColEndLat); err != nil {
		return nil, err
	}
	if t.EndLong, err = r.float(ColEndLong); err != nil {
		return nil, err
	}

	sub, err := r.required(ColSubscriptionType)
	if err != nil {
		return nil, err
	}
	t.SubscriptionType = domain.SubscriptionType(sub)
	if !t.SubscriptionType.Valid() {
		return nil, fmt.Errorf("%s: unknown value %q", ColSubscriptionType, sub)
	}

	if v, ok := r.value(ColBirthYear); ok {
		// exports sometimes carry birth years as floats, e.g. "1985.0"
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%s: %q is not a year", ColBirthYear, v)
		}
		year := int(f)
		t.BirthYear = &year
	}

	if v, ok := r.value(ColGender); ok {
		t.Gender = domain.Gender(v)
		if !t.Gender.Valid() {
			return nil, fmt.Errorf("%s: unknown value %q", ColGender, v)
		}
	}

	if id, ok := r.value(ColTripID); ok {
		t.TripID = id
	} else {
		t.TripID = idhash.ComputeTripID(t.BikeID, t.StartTime, t.StartStation)
	}

	return t, nil
}

// ParseTimestamp parses an export timestamp and keeps its wall clock in UTC
// without converting zones.
func ParseTimestamp(v string) (time.Time, error) {
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, v)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", v)
}

func isMissing(v string) bool {
	for _, na := range naValues {
		if v == na {
			return true
		}
	}
	return false
}
