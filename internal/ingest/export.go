package ingest

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"bikeshare-report/internal/domain"
)

const exportTimeLayout = "2006-01-02 15:04:05.999999999"

var exportColumns = append([]string{ColTripID}, RequiredColumns...)

// WriteTripsCSV writes trips in the export format read by ReadTripsCSV.
// Absent birth years and genders are written as empty fields.
func WriteTripsCSV(w io.Writer, trips []*domain.TripRecord) error {
	if len(trips) == 0 {
		// dataframes cannot be empty
		_, err := fmt.Fprintln(w, strings.Join(exportColumns, ","))
		return err
	}

	records := make([][]string, 0, len(trips)+1)
	records = append(records, exportColumns)

	for _, t := range trips {
		birthYear := ""
		if t.BirthYear != nil {
			birthYear = strconv.Itoa(*t.BirthYear)
		}
		records = append(records, []string{
			t.TripID,
			t.BikeID,
			t.StartTime.Format(exportTimeLayout),
			t.EndTime.Format(exportTimeLayout),
			t.StartStation,
			t.EndStation,
			formatFloat(t.StartLat),
			formatFloat(t.StartLong),
			formatFloat(t.EndLat),
			formatFloat(t.EndLong),
			string(t.SubscriptionType),
			birthYear,
			string(t.Gender),
		})
	}

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	)
	if df.Err != nil {
		return fmt.Errorf("build trips frame: %w", df.Err)
	}
	if err := df.WriteCSV(w); err != nil {
		return fmt.Errorf("write trips csv: %w", err)
	}
	return nil
}

// SaveTripsCSV writes trips to path, replacing any existing file.
func SaveTripsCSV(path string, trips []*domain.TripRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create trips csv: %w", err)
	}
	if err := WriteTripsCSV(f, trips); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
