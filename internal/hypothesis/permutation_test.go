package hypothesis

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bikeshare-report/internal/domain"
)

var jan1 = domain.NewDate(2018, 1, 1)

func newRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 0))
}

func TestNewTester_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero reps", Config{Reps: 0, Threshold: 0.05}},
		{"negative reps", Config{Reps: -5, Threshold: 0.05}},
		{"zero threshold", Config{Reps: 100, Threshold: 0}},
		{"threshold one", Config{Reps: 100, Threshold: 1}},
		{"negative workers", Config{Reps: 100, Threshold: 0.05, Workers: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTester(tt.cfg)
			if !errors.Is(err, domain.ErrInvalidConfiguration) {
				t.Errorf("NewTester() error = %v, want ErrInvalidConfiguration", err)
			}
		})
	}
}

func TestTest_ResultShape(t *testing.T) {
	tester, err := NewTester(Config{Reps: 250, Threshold: 0.05})
	require.NoError(t, err)

	days := SyntheticDays(newRNG(1), jan1, 120, 20, 20)
	res, err := tester.Test(context.Background(), days, newRNG(2))
	require.NoError(t, err)

	assert.Len(t, res.Null, 250)
	assert.GreaterOrEqual(t, res.PValue, 0.0)
	assert.LessOrEqual(t, res.PValue, 1.0)
	assert.Equal(t, res.PValue < res.Threshold, res.Reject)
	assert.Equal(t, 120, res.WeekendDays+res.WeekdayDays)
	assert.InDelta(t, res.WeekendMean-res.WeekdayMean, res.Observed, 1e-12)
}

func TestTest_ClearWeekendDip(t *testing.T) {
	tester, err := NewTester(Config{Reps: 500, Threshold: 0.05})
	require.NoError(t, err)

	days := SyntheticDays(newRNG(7), jan1, 364, 30, 12)
	res, err := tester.Test(context.Background(), days, newRNG(42))
	require.NoError(t, err)

	assert.Less(t, res.Observed, 0.0)
	assert.Less(t, res.PValue, 0.05)
	assert.True(t, res.Reject)
}

func TestTest_WeekendBusierDoesNotReject(t *testing.T) {
	tester, err := NewTester(Config{Reps: 300, Threshold: 0.05})
	require.NoError(t, err)

	days := SyntheticDays(newRNG(9), jan1, 364, 12, 30)
	res, err := tester.Test(context.Background(), days, newRNG(10))
	require.NoError(t, err)

	assert.Greater(t, res.PValue, 0.9)
	assert.False(t, res.Reject)
}

func TestTest_ConstantCountsDegenerate(t *testing.T) {
	tester, err := NewTester(Config{Reps: 100, Threshold: 0.05})
	require.NoError(t, err)

	days := make([]domain.LabeledDay, 28)
	for i := range days {
		d := jan1.AddDays(i)
		days[i] = domain.LabeledDay{Date: d, HireCount: 7, IsWeekend: d.IsWeekend()}
	}

	res, err := tester.Test(context.Background(), days, newRNG(3))
	require.NoError(t, err)

	assert.Equal(t, 0.0, res.Observed)
	for i, s := range res.Null {
		if s != 0 {
			t.Fatalf("Null[%d] = %v, want 0", i, s)
		}
	}
	assert.Equal(t, 1.0, res.PValue)
	assert.False(t, res.Reject)
}

func TestTest_SameResultForAnyWorkerCount(t *testing.T) {
	days := SyntheticDays(newRNG(11), jan1, 200, 20, 17)

	var results []*domain.WeekendTestResult
	for _, workers := range []int{1, 3, 8} {
		tester, err := NewTester(Config{Reps: 200, Threshold: 0.05, Workers: workers})
		require.NoError(t, err)

		res, err := tester.Test(context.Background(), days, newRNG(99))
		require.NoError(t, err)
		results = append(results, res)
	}

	for i := 1; i < len(results); i++ {
		assert.Equal(t, results[0].Null, results[i].Null)
		assert.Equal(t, results[0].PValue, results[i].PValue)
	}
}

func TestTest_MissingGroup(t *testing.T) {
	tester, err := NewTester(DefaultConfig())
	require.NoError(t, err)

	// Mon 2018-01-01 to Fri 2018-01-05
	weekdaysOnly := make([]domain.LabeledDay, 5)
	for i := range weekdaysOnly {
		weekdaysOnly[i] = domain.LabeledDay{Date: jan1.AddDays(i), HireCount: i}
	}

	_, err = tester.Test(context.Background(), weekdaysOnly, newRNG(1))
	assert.ErrorIs(t, err, domain.ErrMalformedInput)

	_, err = tester.Test(context.Background(), nil, newRNG(1))
	assert.ErrorIs(t, err, domain.ErrMalformedInput)
}

func TestTest_NilRNG(t *testing.T) {
	tester, err := NewTester(DefaultConfig())
	require.NoError(t, err)

	_, err = tester.Test(context.Background(), SyntheticDays(newRNG(1), jan1, 14, 5, 5), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

func TestTest_Cancelled(t *testing.T) {
	tester, err := NewTester(Config{Reps: 1000, Threshold: 0.05, Workers: 2})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = tester.Test(ctx, SyntheticDays(newRNG(1), jan1, 60, 5, 5), newRNG(2))
	assert.ErrorIs(t, err, context.Canceled)
}
