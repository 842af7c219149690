package reporting

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

// WorkbookSheets lists the sheets of summary.xlsx in order.
var WorkbookSheets = []string{"Daily", "Hourly", "Weekday", "Monthly", "Stations", "Routes", "Distance", "Quality"}

type sheet struct {
	header []interface{}
	rows   [][]interface{}
}

// BuildWorkbook renders the report tables into a workbook. The caller closes it.
func BuildWorkbook(r *Report) (*excelize.File, error) {
	sheets := workbookSheets(r)

	f := excelize.NewFile()
	for i, name := range WorkbookSheets {
		var err error
		if i == 0 {
			err = f.SetSheetName("Sheet1", name)
		} else {
			_, err = f.NewSheet(name)
		}
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
		if err := writeSheet(f, name, sheets[name]); err != nil {
			f.Close()
			return nil, err
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

// WriteWorkbook writes summary.xlsx to w.
func WriteWorkbook(w io.Writer, r *Report) error {
	f, err := BuildWorkbook(r)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

func writeSheet(f *excelize.File, name string, s sheet) error {
	if err := f.SetSheetRow(name, "A1", &s.header); err != nil {
		return fmt.Errorf("write %s header: %w", name, err)
	}
	for i, row := range s.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", name, i+2, err)
		}
	}
	return nil
}

func workbookSheets(r *Report) map[string]sheet {
	s := r.Summary
	out := make(map[string]sheet, len(WorkbookSheets))

	daily := sheet{header: []interface{}{"Date", "Hires", "Weekend", "Rolling Average", "Window Size"}}
	for i, p := range r.Series {
		var avg interface{}
		if i < len(r.Rolling) && r.Rolling[i].Valid {
			avg = r.Rolling[i].Value
		}
		size := 0
		if i < len(r.Rolling) {
			size = r.Rolling[i].WindowSize
		}
		daily.rows = append(daily.rows, []interface{}{p.Date.String(), p.HireCount, p.Date.IsWeekend(), avg, size})
	}
	out["Daily"] = daily

	hourly := sheet{header: []interface{}{"Hour", "Trips"}}
	for h, n := range s.ByHour {
		hourly.rows = append(hourly.rows, []interface{}{h, n})
	}
	out["Hourly"] = hourly

	weekday := sheet{header: []interface{}{"Weekday", "Trips"}}
	for _, c := range s.ByWeekday {
		weekday.rows = append(weekday.rows, []interface{}{c.Weekday.String(), c.Count})
	}
	out["Weekday"] = weekday

	monthly := sheet{header: []interface{}{"Month", "Trips"}}
	for m, n := range s.ByMonth {
		monthly.rows = append(monthly.rows, []interface{}{time.Month(m + 1).String(), n})
	}
	out["Monthly"] = monthly

	stations := sheet{header: []interface{}{"Role", "Station", "Trips"}}
	for _, c := range s.TopStartStations {
		stations.rows = append(stations.rows, []interface{}{"start", c.Key, c.Count})
	}
	for _, c := range s.TopEndStations {
		stations.rows = append(stations.rows, []interface{}{"end", c.Key, c.Count})
	}
	out["Stations"] = stations

	routes := sheet{header: []interface{}{"From", "To", "Trips"}}
	for _, rt := range s.TopRoutes {
		routes.rows = append(routes.rows, []interface{}{rt.From, rt.To, rt.Count})
	}
	out["Routes"] = routes

	distance := sheet{header: []interface{}{"Bucket", "Trips", "Share"}}
	for _, b := range s.DistanceBuckets {
		distance.rows = append(distance.rows, []interface{}{b.Label(), b.Count, b.Share})
	}
	out["Distance"] = distance

	q := s.Quality
	out["Quality"] = sheet{
		header: []interface{}{"Check", "Trips"},
		rows: [][]interface{}{
			{"Negative duration", q.NegativeDurations},
			{"Duration above limit", q.ExcessiveDurations},
			{"Implausible age", q.ImplausibleAges},
			{"Missing birth year", q.MissingBirthYear},
			{"Missing gender", q.MissingGender},
			{"Unknown gender", q.UnknownGender},
			{"Round trip with moved coordinates", q.SameStationMoved},
			{"Stations with conflicting coordinates", len(q.ConflictingStations)},
		},
	}

	return out
}
