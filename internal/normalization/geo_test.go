package normalization

import (
	"math"
	"testing"
	"time"

	"bikeshare-report/internal/domain"
)

func TestHaversineKm_Identical(t *testing.T) {
	d := HaversineKm(DefaultSphereRadiusKm, 40.7128, -74.0060, 40.7128, -74.0060)
	if roundTo(d, 3) != 0 {
		t.Errorf("distance = %v, want 0.000", d)
	}
}

func TestHaversineKm_Symmetric(t *testing.T) {
	points := [][4]float64{
		{55.9533, -3.1883, 55.9445, -3.1892},
		{40.7128, -74.0060, 51.5074, -0.1278},
		{-33.8688, 151.2093, 35.6762, 139.6503},
		{0, 0, 0, 180},
	}
	for _, p := range points {
		ab := HaversineKm(DefaultSphereRadiusKm, p[0], p[1], p[2], p[3])
		ba := HaversineKm(DefaultSphereRadiusKm, p[2], p[3], p[0], p[1])
		if ab != ba {
			t.Errorf("distance(%v) = %v, reverse = %v", p, ab, ba)
		}
		if ab < 0 {
			t.Errorf("distance(%v) = %v, want non-negative", p, ab)
		}
	}
}

func TestHaversineKm_KnownDistance(t *testing.T) {
	// New York to London is about 5570 km
	d := HaversineKm(DefaultSphereRadiusKm, 40.7128, -74.0060, 51.5074, -0.1278)
	if math.Abs(d-5567) > 15 {
		t.Errorf("NYC-London = %v km, want ~5567", d)
	}

	// Half the circumference between antipodes on the equator
	half := HaversineKm(DefaultSphereRadiusKm, 0, 0, 0, 180)
	if math.Abs(half-math.Pi*DefaultSphereRadiusKm) > 1e-6 {
		t.Errorf("antipodal = %v, want %v", half, math.Pi*DefaultSphereRadiusKm)
	}
}

func TestFiscalQuarter(t *testing.T) {
	tests := []struct {
		name  string
		date  time.Time
		start time.Month
		want  domain.Quarter
	}{
		{"calendar Q1", time.Date(2018, 2, 10, 0, 0, 0, 0, time.UTC), time.January, domain.Quarter{FiscalYear: 2018, Q: 1}},
		{"calendar Q4", time.Date(2018, 12, 31, 0, 0, 0, 0, time.UTC), time.January, domain.Quarter{FiscalYear: 2018, Q: 4}},
		{"april start, april", time.Date(2018, 4, 1, 0, 0, 0, 0, time.UTC), time.April, domain.Quarter{FiscalYear: 2019, Q: 1}},
		{"april start, march", time.Date(2018, 3, 31, 0, 0, 0, 0, time.UTC), time.April, domain.Quarter{FiscalYear: 2018, Q: 4}},
		{"april start, january", time.Date(2018, 1, 15, 0, 0, 0, 0, time.UTC), time.April, domain.Quarter{FiscalYear: 2018, Q: 4}},
		{"october start, december", time.Date(2018, 12, 1, 0, 0, 0, 0, time.UTC), time.October, domain.Quarter{FiscalYear: 2019, Q: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FiscalQuarter(tt.date, tt.start)
			if got != tt.want {
				t.Errorf("FiscalQuarter() = %v, want %v", got, tt.want)
			}
		})
	}
}
