package reporting

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Artifact formats, used as metric labels
const (
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
	FormatXLSX     = "xlsx"
)

// Artifact is one file written by WriteFiles.
type Artifact struct {
	Path   string
	Format string
}

// WriteFiles writes every report artifact into dir, creating it if needed.
// The workbook is skipped unless workbook is true.
func WriteFiles(dir string, r *Report, workbook bool) ([]Artifact, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	type job struct {
		name   string
		format string
		write  func(io.Writer) error
	}
	jobs := []job{
		{MarkdownFile, FormatMarkdown, func(w io.Writer) error {
			_, err := io.WriteString(w, RenderMarkdown(r))
			return err
		}},
		{DailySeriesFile, FormatCSV, func(w io.Writer) error { return WriteDailySeriesCSV(w, r.Series, r.Rolling) }},
		{TripFeaturesFile, FormatCSV, func(w io.Writer) error { return WriteTripFeaturesCSV(w, r.Features, r.Parameters.DistancePrecision) }},
		{NullDistributionFile, FormatCSV, func(w io.Writer) error { return WriteNullDistributionCSV(w, r.Weekend) }},
	}
	if workbook {
		jobs = append(jobs, job{WorkbookFile, FormatXLSX, func(w io.Writer) error { return WriteWorkbook(w, r) }})
	}

	written := make([]Artifact, 0, len(jobs))
	for _, j := range jobs {
		path := filepath.Join(dir, j.name)
		if err := writeFile(path, j.write); err != nil {
			return written, fmt.Errorf("write %s: %w", j.name, err)
		}
		written = append(written, Artifact{Path: path, Format: j.format})
	}
	return written, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if err := write(bw); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
