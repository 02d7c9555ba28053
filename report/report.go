// Package report writes the pipeline artifacts consumed downstream: the
// merged weekly dataset, the model leaderboard, the champion forecast, the
// intervention comparison, and an HTML chart of the fit.
package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/goccy/go-json"

	"github.com/aouyang1/go-denguecast/costbenefit"
	"github.com/aouyang1/go-denguecast/dataset"
	"github.com/aouyang1/go-denguecast/eval"
)

var (
	// ErrNoRows occurs when an artifact would be empty
	ErrNoRows = errors.New("nothing to write")
)

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteMergedCSV writes the weekly feature table, one row per week-ending
// date.
func WriteMergedCSV(path string, md *dataset.MergedDataset) error {
	if md == nil || md.Len() == 0 {
		return ErrNoRows
	}

	cols := make([][]float64, len(md.Columns))
	for i, name := range md.Columns {
		col, err := md.Column(name)
		if err != nil {
			return err
		}
		cols[i] = col
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	header := append([]string{"date"}, md.Columns...)
	if err := w.Write(header); err != nil {
		return err
	}
	row := make([]string, len(header))
	for i, wk := range md.T {
		row[0] = wk.Format(time.DateOnly)
		for j, col := range cols {
			row[j+1] = formatValue(col[i])
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// WriteForecastCSV writes the champion's forward forecast with its band.
func WriteForecastCSV(path string, h *eval.HorizonForecast) error {
	if h == nil || len(h.T) == 0 {
		return ErrNoRows
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"date", "forecast", "lower", "upper"}); err != nil {
		return err
	}
	for i, wk := range h.T {
		row := []string{
			wk.Format(time.DateOnly),
			formatValue(h.Point[i]),
			formatValue(h.Lower[i]),
			formatValue(h.Upper[i]),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// WriteMetricsJSON writes the model leaderboard ordered by holdout score.
func WriteMetricsJSON(path string, results []eval.ModelResult) error {
	if len(results) == 0 {
		return ErrNoRows
	}
	return writeJSON(path, eval.Leaderboard(results))
}

// WriteInterventionJSON writes the cost effectiveness comparison.
func WriteInterventionJSON(path string, cmp *costbenefit.Comparison) error {
	if cmp == nil {
		return ErrNoRows
	}
	return writeJSON(path, cmp)
}

func lineData(y []float64) []opts.LineData {
	out := make([]opts.LineData, 0, len(y))
	for _, v := range y {
		if math.IsNaN(v) {
			out = append(out, opts.LineData{Value: "-"})
			continue
		}
		out = append(out, opts.LineData{Value: v})
	}
	return out
}

// pad extends a series with missing markers so every series spans the full
// x axis.
func pad(data []opts.LineData, lead, trail int) []opts.LineData {
	out := make([]opts.LineData, 0, lead+len(data)+trail)
	for i := 0; i < lead; i++ {
		out = append(out, opts.LineData{Value: "-"})
	}
	out = append(out, data...)
	for i := 0; i < trail; i++ {
		out = append(out, opts.LineData{Value: "-"})
	}
	return out
}

// lineForecast charts the observed history with the forward forecast and its
// band appended past the last observation.
func lineForecast(title string, t []time.Time, actual []float64, h *eval.HorizonForecast) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
	)

	x := make([]time.Time, 0, len(t)+len(h.T))
	x = append(x, t...)
	x = append(x, h.T...)

	line.SetXAxis(x).
		AddSeries("Actual", pad(lineData(actual), 0, len(h.T))).
		AddSeries("Forecast", pad(lineData(h.Point), len(t), 0)).
		AddSeries("Upper", pad(lineData(h.Upper), len(t), 0)).
		AddSeries("Lower", pad(lineData(h.Lower), len(t), 0))
	return line
}

// WriteChartHTML renders the history and forecast chart to an HTML page.
func WriteChartHTML(path, title string, t []time.Time, actual []float64, h *eval.HorizonForecast) error {
	if len(t) == 0 || len(t) != len(actual) {
		return fmt.Errorf("%d dates for %d actuals, %w", len(t), len(actual), ErrNoRows)
	}
	if h == nil {
		return ErrNoRows
	}

	page := components.NewPage()
	page.AddCharts(lineForecast(title, t, actual, h))

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return page.Render(file)
}
