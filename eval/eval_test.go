package eval

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aouyang1/go-denguecast/models"
)

// stub forecasts a constant and optionally misbehaves on demand.
type stub struct {
	name   string
	val    float64
	fitErr error
	delay  time.Duration

	trainY []float64
}

func (s *stub) Name() string { return s.name }

func (s *stub) Fit(t []time.Time, y []float64) error {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.fitErr != nil {
		return s.fitErr
	}
	s.trainY = append([]float64(nil), y...)
	return nil
}

func (s *stub) Forecast(horizon int) ([]float64, error) {
	out := make([]float64, horizon)
	for i := range out {
		out[i] = s.val
	}
	return out, nil
}

func (s *stub) Fitted() ([]float64, error) {
	out := make([]float64, len(s.trainY))
	for i := range out {
		out[i] = s.val
	}
	return out, nil
}

func candidate(name string, val float64, fitErr error, delay time.Duration) Candidate {
	return Candidate{
		Name: name,
		New: func() (models.Forecaster, error) {
			return &stub{name: name, val: val, fitErr: fitErr, delay: delay}, nil
		},
	}
}

func weeklySeries(n int, val float64) ([]time.Time, []float64) {
	start := time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC)
	t := make([]time.Time, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		t[i] = start.AddDate(0, 0, 7*i)
		y[i] = val
	}
	return t, y
}

func TestMAPE(t *testing.T) {
	testData := map[string]struct {
		actual   []float64
		forecast []float64
		expected float64
		err      error
	}{
		"exact": {
			actual:   []float64{100, 200},
			forecast: []float64{100, 200},
			expected: 0,
		},
		"ten percent": {
			actual:   []float64{100, 100},
			forecast: []float64{110, 90},
			expected: 0.10,
		},
		"skips zeros and nans": {
			actual:   []float64{0, math.NaN(), 100},
			forecast: []float64{50, 50, 120},
			expected: 0.20,
		},
		"length mismatch": {
			actual:   []float64{1, 2},
			forecast: []float64{1},
			err:      models.ErrLenMismatch,
		},
		"nothing scorable": {
			actual:   []float64{0, 0},
			forecast: []float64{1, 2},
			err:      ErrNoScorablePoints,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			got, err := MAPE(td.actual, td.forecast)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, td.expected, got, 1e-9)
		})
	}
}

func TestEvaluatePicksLowestHoldoutError(t *testing.T) {
	tt, y := weeklySeries(120, 100)

	ev, err := New(nil, []Candidate{
		candidate("wide", 150, nil, 0),
		candidate("close", 105, nil, 0),
		candidate("broken", 0, assert.AnError, 0),
	})
	require.NoError(t, err)

	rep, err := ev.Evaluate(context.Background(), tt, y)
	require.NoError(t, err)
	assert.Equal(t, "close", rep.Champion)

	byName := make(map[string]ModelResult)
	for _, r := range rep.Results {
		byName[r.Model] = r
	}
	assert.InDelta(t, 0.50, byName["wide"].TestMAPE, 1e-9)
	assert.InDelta(t, 0.05, byName["close"].TestMAPE, 1e-9)
	assert.True(t, byName["broken"].Failed)
	assert.NotEmpty(t, byName["broken"].Reason)

	require.NotNil(t, byName["close"].TrainMAPE)
	assert.InDelta(t, 0.05, *byName["close"].TrainMAPE, 1e-9)

	require.NotNil(t, rep.Horizon)
	require.Len(t, rep.Horizon.Point, 16)
	assert.Equal(t, tt[len(tt)-1].AddDate(0, 0, 7), rep.Horizon.T[0])
	for i := range rep.Horizon.Point {
		assert.GreaterOrEqual(t, rep.Horizon.Point[i], rep.Horizon.Lower[i])
		assert.LessOrEqual(t, rep.Horizon.Point[i], rep.Horizon.Upper[i])
		assert.GreaterOrEqual(t, rep.Horizon.Lower[i], 0.0)
	}
}

func TestEvaluateFitBudget(t *testing.T) {
	tt, y := weeklySeries(80, 100)

	opt := NewDefaultOptions()
	opt.FitBudget = 20 * time.Millisecond
	ev, err := New(opt, []Candidate{
		candidate("slow", 100, nil, 300*time.Millisecond),
		candidate("fast", 110, nil, 0),
	})
	require.NoError(t, err)

	rep, err := ev.Evaluate(context.Background(), tt, y)
	require.NoError(t, err)
	assert.Equal(t, "fast", rep.Champion)

	var slow ModelResult
	for _, r := range rep.Results {
		if r.Model == "slow" {
			slow = r
		}
	}
	assert.True(t, slow.Failed)
	assert.Contains(t, slow.Reason, ErrFitBudget.Error())
}

func TestEvaluateNoChampion(t *testing.T) {
	tt, y := weeklySeries(80, 100)

	ev, err := New(nil, []Candidate{
		candidate("a", 0, assert.AnError, 0),
		candidate("b", 0, assert.AnError, 0),
	})
	require.NoError(t, err)

	rep, err := ev.Evaluate(context.Background(), tt, y)
	assert.ErrorIs(t, err, ErrNoChampion)
	require.NotNil(t, rep)
	for _, r := range rep.Results {
		assert.True(t, r.Failed)
	}
}

func TestEvaluateShortSeries(t *testing.T) {
	tt, y := weeklySeries(20, 100)

	ev, err := New(nil, []Candidate{candidate("a", 100, nil, 0)})
	require.NoError(t, err)

	_, err = ev.Evaluate(context.Background(), tt, y)
	assert.ErrorIs(t, err, ErrShortSeries)
}

func TestNewValidation(t *testing.T) {
	_, err := New(nil, nil)
	assert.ErrorIs(t, err, ErrNoCandidates)

	_, err = New(&Options{HoldoutWeeks: 0, FitBudget: time.Second, IntervalZ: 1}, []Candidate{candidate("a", 1, nil, 0)})
	assert.ErrorIs(t, err, ErrShortSeries)

	_, err = New(&Options{HoldoutWeeks: 16, FitBudget: 0, IntervalZ: 1}, []Candidate{candidate("a", 1, nil, 0)})
	assert.ErrorIs(t, err, ErrFitBudget)
}

func TestLeaderboard(t *testing.T) {
	results := []ModelResult{
		{Model: "c", TestMAPE: 30},
		{Model: "x", Failed: true},
		{Model: "a", TestMAPE: 10},
		{Model: "b", TestMAPE: 10},
	}
	out := Leaderboard(results)
	require.Len(t, out, 4)
	assert.Equal(t, "a", out[0].Model)
	assert.Equal(t, "b", out[1].Model)
	assert.Equal(t, "c", out[2].Model)
	assert.True(t, out[3].Failed)
}
