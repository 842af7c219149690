package normalization

import (
	"time"

	"bikeshare-report/internal/domain"
)

// FiscalQuarter returns the fiscal quarter containing t for a fiscal year that
// begins in startMonth. The fiscal year is named by the calendar year in which
// it ends, so with startMonth == January it equals the calendar year.
func FiscalQuarter(t time.Time, startMonth time.Month) domain.Quarter {
	month := int(t.Month())
	start := int(startMonth)

	q := ((month-start+12)%12)/3 + 1

	fy := t.Year()
	if start != 1 && month >= start {
		fy++
	}

	return domain.Quarter{FiscalYear: fy, Q: q}
}
