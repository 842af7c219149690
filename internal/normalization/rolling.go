package normalization

import (
	"fmt"

	"bikeshare-report/internal/domain"
)

// EdgePolicy decides what happens where a centered window runs past the series.
type EdgePolicy string

// Edge policies
const (
	// EdgePartial averages over the dates that exist inside the window.
	EdgePartial EdgePolicy = "partial"
	// EdgeUndefined marks positions without a complete window as invalid.
	EdgeUndefined EdgePolicy = "undefined"
)

// ParseEdgePolicy converts a configuration string to an EdgePolicy.
func ParseEdgePolicy(s string) (EdgePolicy, error) {
	switch EdgePolicy(s) {
	case EdgePartial, EdgeUndefined:
		return EdgePolicy(s), nil
	case "":
		return EdgePartial, nil
	}
	return "", fmt.Errorf("%w: unknown edge policy %q", domain.ErrInvalidConfiguration, s)
}

// RollingWindow spans Before days before and After days after each date,
// inclusive of the date itself.
type RollingWindow struct {
	Before int
	After  int
	Edge   EdgePolicy
}

// DefaultRollingWindow is the 30-day window [d-14, d+15].
func DefaultRollingWindow() RollingWindow {
	return RollingWindow{Before: 14, After: 15, Edge: EdgePartial}
}

// Size returns the number of days in a complete window.
func (w RollingWindow) Size() int {
	return w.Before + w.After + 1
}

// Validate checks window extents and policy.
func (w RollingWindow) Validate() error {
	if w.Before < 0 || w.After < 0 {
		return fmt.Errorf("%w: rolling window extents must be non-negative, got before=%d after=%d",
			domain.ErrInvalidConfiguration, w.Before, w.After)
	}
	if w.Edge != EdgePartial && w.Edge != EdgeUndefined {
		return fmt.Errorf("%w: unknown edge policy %q", domain.ErrInvalidConfiguration, w.Edge)
	}
	return nil
}

// RollingAverage computes the centered rolling mean of hire counts.
// series must be gap-free (as produced by BuildDailySeries). Edges never fail:
// they are either averaged over a narrower window or returned with Valid=false.
func RollingAverage(series domain.DailySeries, w RollingWindow) ([]domain.RollingPoint, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	n := len(series)
	result := make([]domain.RollingPoint, n)
	if n == 0 {
		return result, nil
	}

	// prefix[i] = sum of counts before index i
	prefix := make([]int, n+1)
	for i, p := range series {
		prefix[i+1] = prefix[i] + p.HireCount
	}

	for i, p := range series {
		lo := i - w.Before
		hi := i + w.After

		point := domain.RollingPoint{Date: p.Date}

		if lo < 0 || hi > n-1 {
			if w.Edge == EdgeUndefined {
				result[i] = point
				continue
			}
			lo = max(lo, 0)
			hi = min(hi, n-1)
		}

		size := hi - lo + 1
		point.Value = float64(prefix[hi+1]-prefix[lo]) / float64(size)
		point.WindowSize = size
		point.Valid = true
		result[i] = point
	}

	return result, nil
}
