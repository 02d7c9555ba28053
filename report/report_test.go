package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aouyang1/go-denguecast/costbenefit"
	"github.com/aouyang1/go-denguecast/dataset"
	"github.com/aouyang1/go-denguecast/eval"
	"github.com/aouyang1/go-denguecast/timeseries"
)

func weeklySeries(t *testing.T, name string, n int, val float64) *timeseries.TimeSeries {
	t.Helper()
	start := time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC)
	tt := make([]time.Time, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		tt[i] = start.AddDate(0, 0, 7*i)
		y[i] = val + float64(i)
	}
	ts, err := timeseries.New(name, tt, y)
	require.NoError(t, err)
	return ts
}

func horizon(n int) *eval.HorizonForecast {
	start := time.Date(2012, 3, 4, 0, 0, 0, 0, time.UTC)
	h := &eval.HorizonForecast{}
	for i := 0; i < n; i++ {
		h.T = append(h.T, start.AddDate(0, 0, 7*i))
		h.Point = append(h.Point, 100+float64(i))
		h.Lower = append(h.Lower, 90+float64(i))
		h.Upper = append(h.Upper, 110+float64(i))
	}
	return h
}

func TestWriteMergedCSV(t *testing.T) {
	md, err := dataset.Merge(
		weeklySeries(t, "cases", 4, 100),
		weeklySeries(t, "temp", 4, 27),
	)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "merged.csv")
	require.NoError(t, WriteMergedCSV(path, md))

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "date,cases,temp", lines[0])
	assert.Equal(t, "2012-01-01,100,27", lines[1])

	assert.ErrorIs(t, WriteMergedCSV(path, nil), ErrNoRows)
}

func TestWriteForecastCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forecast.csv")
	require.NoError(t, WriteForecastCSV(path, horizon(3)))

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "date,forecast,lower,upper", lines[0])
	assert.Equal(t, "2012-03-04,100,90,110", lines[1])

	assert.ErrorIs(t, WriteForecastCSV(path, nil), ErrNoRows)
}

func TestWriteMetricsJSON(t *testing.T) {
	trainMAPE := 4.2
	results := []eval.ModelResult{
		{Model: "b", TestMAPE: 20},
		{Model: "a", TestMAPE: 10, TrainMAPE: &trainMAPE},
	}

	path := filepath.Join(t.TempDir(), "metrics.json")
	require.NoError(t, WriteMetricsJSON(path, results))

	body, err := os.ReadFile(path)
	require.NoError(t, err)

	var got []eval.ModelResult
	require.NoError(t, json.Unmarshal(body, &got))
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Model)
	require.NotNil(t, got[0].TrainMAPE)
	assert.Equal(t, 4.2, *got[0].TrainMAPE)

	assert.ErrorIs(t, WriteMetricsJSON(path, nil), ErrNoRows)
}

func TestWriteInterventionJSON(t *testing.T) {
	wolbachia, err := costbenefit.Evaluate(nil, &costbenefit.InterventionParams{
		Name:         "Wolbachia",
		AnnualCost:   decimal.NewFromInt(27_000_000),
		DALYsAverted: 449.71,
	})
	require.NoError(t, err)
	cmp, err := costbenefit.Compare(wolbachia)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "interventions.json")
	require.NoError(t, WriteInterventionJSON(path, cmp))

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Wolbachia")
	assert.Contains(t, string(body), "cost_per_daly_usd")

	assert.ErrorIs(t, WriteInterventionJSON(path, nil), ErrNoRows)
}

func TestWriteChartHTML(t *testing.T) {
	ts := weeklySeries(t, "cases", 9, 100)
	path := filepath.Join(t.TempDir(), "chart.html")
	require.NoError(t, WriteChartHTML(path, "Weekly Dengue Cases", ts.T, ts.Value, horizon(4)))

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	for _, want := range []string{"echarts", "Actual", "Forecast", "Upper", "Lower"} {
		assert.Contains(t, string(body), want)
	}

	err = WriteChartHTML(path, "x", ts.T, ts.Value[:3], horizon(4))
	assert.ErrorIs(t, err, ErrNoRows)
}