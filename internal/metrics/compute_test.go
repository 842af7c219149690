package metrics

import (
	"math"
	"testing"
)

func TestComputePercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}

	tests := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{0.25, 2},
		{0.5, 3},
		{0.75, 4},
		{1, 5},
		{0.1, 1.4},
	}
	for _, tt := range tests {
		got := computePercentile(sorted, tt.p)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("computePercentile(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}

	if got := computePercentile(nil, 0.5); got != 0 {
		t.Errorf("empty percentile = %v, want 0", got)
	}
	if got := computePercentile([]float64{7}, 0.9); got != 7 {
		t.Errorf("single percentile = %v, want 7", got)
	}
}

func TestComputeStddev(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	mean := computeMean(values)
	if mean != 5 {
		t.Fatalf("mean = %v, want 5", mean)
	}
	// Sample variance = 32/7
	want := math.Sqrt(32.0 / 7.0)
	if got := computeStddev(values, mean); math.Abs(got-want) > 1e-12 {
		t.Errorf("stddev = %v, want %v", got, want)
	}
	if got := computeStddev([]float64{3}, 3); got != 0 {
		t.Errorf("single-value stddev = %v, want 0", got)
	}
}

func TestComputeDistribution(t *testing.T) {
	d := computeDistribution([]float64{10, -5, 30, 20})

	if d.Count != 4 || d.Min != -5 || d.Max != 30 {
		t.Errorf("distribution = %+v", d)
	}
	// sorted: -5 10 20 30; median idx 1.5 -> 15
	if d.Median != 15 {
		t.Errorf("Median = %v, want 15", d.Median)
	}
	if empty := computeDistribution(nil); empty != (Distribution{}) {
		t.Errorf("empty distribution = %+v", empty)
	}
}
