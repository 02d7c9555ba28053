package timeseries

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func days(start time.Time, n int) []time.Time {
	t := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		t = append(t, start.AddDate(0, 0, i))
	}
	return t
}

func TestNewObservations(t *testing.T) {
	monday := time.Date(2012, 1, 2, 0, 0, 0, 0, time.UTC)

	testData := map[string]struct {
		t   []time.Time
		y   []float64
		err error
	}{
		"single point": {
			t:   days(monday, 1),
			y:   []float64{1},
			err: ErrTooFewObservations,
		},
		"duplicate date": {
			t:   []time.Time{monday, monday},
			y:   []float64{1, 2},
			err: ErrNonMonotonic,
		},
		"valid": {
			t: days(monday, 3),
			y: []float64{1, 2, 3},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			_, err := NewObservations("temp", td.t, td.y)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestResampleWeeklyMean(t *testing.T) {
	// daily values 0..13 starting Monday 2012-01-02 cover the weeks ending
	// 2012-01-08 and 2012-01-15
	obs, err := NewObservations("temp", days(time.Date(2012, 1, 2, 0, 0, 0, 0, time.UTC), 14),
		[]float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13})
	require.NoError(t, err)

	grid, err := WeeklyGrid(
		time.Date(2012, 1, 8, 0, 0, 0, 0, time.UTC),
		time.Date(2012, 1, 15, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	ts, err := ResampleWeeklyMean(obs, grid)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 10}, ts.Value)
}

func TestResampleWeeklyMeanEmptyWeek(t *testing.T) {
	obs, err := NewObservations("temp", []time.Time{
		time.Date(2012, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2012, 1, 30, 0, 0, 0, 0, time.UTC),
	}, []float64{1, 2})
	require.NoError(t, err)

	grid, err := WeeklyGrid(
		time.Date(2012, 1, 8, 0, 0, 0, 0, time.UTC),
		time.Date(2012, 2, 5, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	_, err = ResampleWeeklyMean(obs, grid)
	assert.ErrorIs(t, err, ErrEmptyWeek)
}

func TestForwardFillConstantWithinMonth(t *testing.T) {
	// monthly search index dated on the first of each month
	obs, err := NewObservations("number_of_searches", []time.Time{
		time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2012, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2012, 3, 1, 0, 0, 0, 0, time.UTC),
	}, []float64{10, 20, 30})
	require.NoError(t, err)

	grid, err := WeeklyGrid(
		time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2012, 3, 25, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	ts, err := ForwardFill(obs, grid)
	require.NoError(t, err)

	byMonth := make(map[time.Month]map[float64]struct{})
	for i, wk := range ts.T {
		m := wk.Month()
		if byMonth[m] == nil {
			byMonth[m] = make(map[float64]struct{})
		}
		byMonth[m][ts.Value[i]] = struct{}{}
	}
	// every week within a month carries that month's index value
	for m, vals := range byMonth {
		assert.Len(t, vals, 1, "month %s", m)
	}
	assert.Equal(t, 10.0, ts.Value[0])
	assert.Equal(t, 30.0, ts.Value[len(ts.Value)-1])
}

func TestForwardFillBeforeFirstObservation(t *testing.T) {
	obs, err := NewObservations("number_of_searches", []time.Time{
		time.Date(2012, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2012, 4, 1, 0, 0, 0, 0, time.UTC),
	}, []float64{10, 20})
	require.NoError(t, err)

	grid, err := WeeklyGrid(
		time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2012, 3, 25, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	_, err = ForwardFill(obs, grid)
	assert.ErrorIs(t, err, ErrBeforeFirst)
}

func TestBackwardFillConstantWithinYear(t *testing.T) {
	// yearly totals dated at year end; the 2020 dip must not be smoothed
	obs, err := NewObservations("total_population", []time.Time{
		time.Date(2019, 12, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2021, 12, 31, 0, 0, 0, 0, time.UTC),
	}, []float64{5703600, 5685800, 5453600})
	require.NoError(t, err)

	grid, err := WeeklyGrid(
		time.Date(2019, 1, 6, 0, 0, 0, 0, time.UTC),
		time.Date(2021, 12, 26, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	ts, err := BackwardFill(obs, grid)
	require.NoError(t, err)

	byYear := make(map[int]map[float64]struct{})
	for i, wk := range ts.T {
		y := wk.Year()
		if byYear[y] == nil {
			byYear[y] = make(map[float64]struct{})
		}
		byYear[y][ts.Value[i]] = struct{}{}
	}
	for y, vals := range byYear {
		assert.Len(t, vals, 1, "year %d", y)
	}
	assert.Equal(t, 5703600.0, ts.Value[0])
	assert.Equal(t, 5453600.0, ts.Value[len(ts.Value)-1])
}

func TestBackwardFillAfterLastObservation(t *testing.T) {
	obs, err := NewObservations("total_population", []time.Time{
		time.Date(2019, 12, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC),
	}, []float64{5703600, 5685800})
	require.NoError(t, err)

	grid, err := WeeklyGrid(
		time.Date(2020, 1, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2021, 3, 7, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	_, err = BackwardFill(obs, grid)
	assert.ErrorIs(t, err, ErrAfterLast)
}

func TestReindex(t *testing.T) {
	start := time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC)
	obs, err := NewObservations("dengue_cases", weeks(start, 4), []float64{70, 71, 72, 73})
	require.NoError(t, err)

	grid, err := WeeklyGrid(start.AddDate(0, 0, 7), start.AddDate(0, 0, 21))
	require.NoError(t, err)

	ts, err := Reindex(obs, grid)
	require.NoError(t, err)
	assert.Equal(t, []float64{71, 72, 73}, ts.Value)
}

func TestReindexMissingWeek(t *testing.T) {
	start := time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC)
	obs, err := NewObservations("dengue_cases", []time.Time{
		start,
		start.AddDate(0, 0, 14),
	}, []float64{70, 72})
	require.NoError(t, err)

	grid, err := WeeklyGrid(start, start.AddDate(0, 0, 14))
	require.NoError(t, err)

	_, err = Reindex(obs, grid)
	assert.ErrorIs(t, err, ErrMissingWeek)
}
