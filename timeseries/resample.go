package timeseries

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

var (
	ErrTooFewObservations = errors.New("fewer than two observations")
	ErrEmptyWeek          = errors.New("week has no covering observations")
	ErrBeforeFirst        = errors.New("week precedes the first observation")
	ErrAfterLast          = errors.New("week follows the last observation")
	ErrMissingWeek        = errors.New("week missing from source series")
)

// Observations holds a raw source series at its native frequency before
// resampling. Dates are strictly increasing but carry no spacing guarantee.
type Observations struct {
	Name  string
	T     []time.Time
	Value []float64
}

// NewObservations validates and copies a raw source series. Sources with
// fewer than two points are rejected here so no resampler ever interpolates
// across what is effectively a constant.
func NewObservations(name string, t []time.Time, value []float64) (*Observations, error) {
	if len(t) < 2 {
		return nil, fmt.Errorf("source %q has %d observations, %w", name, len(t), ErrTooFewObservations)
	}
	if len(t) != len(value) {
		return nil, fmt.Errorf("source %q has %d dates and %d values, %w", name, len(t), len(value), ErrLenMismatch)
	}
	for i := 0; i < len(t); i++ {
		if i > 0 && !t[i].After(t[i-1]) {
			return nil, fmt.Errorf("source %q at %s, %w", name, t[i].Format(time.DateOnly), ErrNonMonotonic)
		}
		if math.IsNaN(value[i]) {
			return nil, fmt.Errorf("source %q at %s, %w", name, t[i].Format(time.DateOnly), ErrValueNaN)
		}
	}

	tCopy := make([]time.Time, len(t))
	vCopy := make([]float64, len(value))
	copy(tCopy, t)
	copy(vCopy, value)
	return &Observations{Name: name, T: tCopy, Value: vCopy}, nil
}

// ResampleWeeklyMean aggregates sub-weekly observations onto the grid by
// arithmetic mean over the seven days ending at each grid date. Every grid
// week must be covered by at least one observation.
func ResampleWeeklyMean(obs *Observations, grid []time.Time) (*TimeSeries, error) {
	value := make([]float64, len(grid))
	j := 0
	for i, wk := range grid {
		weekStart := wk.AddDate(0, 0, -6)
		for j < len(obs.T) && obs.T[j].Before(weekStart) {
			j++
		}
		var bucket []float64
		for k := j; k < len(obs.T) && !obs.T[k].After(wk); k++ {
			bucket = append(bucket, obs.Value[k])
		}
		if len(bucket) == 0 {
			return nil, fmt.Errorf("source %q week ending %s, %w", obs.Name, wk.Format(time.DateOnly), ErrEmptyWeek)
		}
		value[i] = stat.Mean(bucket, nil)
	}
	return New(obs.Name, grid, value)
}

// ForwardFill carries the most recent observation at or before each grid date
// forward. Used for the monthly search index where weekly interest is modeled
// as equal to the reported monthly interest.
func ForwardFill(obs *Observations, grid []time.Time) (*TimeSeries, error) {
	value := make([]float64, len(grid))
	j := -1
	for i, wk := range grid {
		for j+1 < len(obs.T) && !obs.T[j+1].After(wk) {
			j++
		}
		if j < 0 {
			return nil, fmt.Errorf("source %q week ending %s, %w", obs.Name, wk.Format(time.DateOnly), ErrBeforeFirst)
		}
		value[i] = obs.Value[j]
	}
	return New(obs.Name, grid, value)
}

// BackwardFill carries the next observation at or after each grid date
// backward. Yearly population totals dated at year end land on every week of
// that year, stepping only at year boundaries. Linear interpolation is
// deliberately not offered; populations move in shocks, not ramps.
func BackwardFill(obs *Observations, grid []time.Time) (*TimeSeries, error) {
	value := make([]float64, len(grid))
	j := 0
	for i, wk := range grid {
		for j < len(obs.T) && obs.T[j].Before(wk) {
			j++
		}
		if j >= len(obs.T) {
			return nil, fmt.Errorf("source %q week ending %s, %w", obs.Name, wk.Format(time.DateOnly), ErrAfterLast)
		}
		value[i] = obs.Value[j]
	}
	return New(obs.Name, grid, value)
}

// Reindex places an already-weekly source onto the grid without changing any
// value. Gaps are an upstream data defect and are surfaced, never filled.
func Reindex(obs *Observations, grid []time.Time) (*TimeSeries, error) {
	byDate := make(map[time.Time]float64, len(obs.T))
	for i, dt := range obs.T {
		byDate[dt] = obs.Value[i]
	}
	value := make([]float64, len(grid))
	for i, wk := range grid {
		v, ok := byDate[wk]
		if !ok {
			return nil, fmt.Errorf("source %q week ending %s, %w", obs.Name, wk.Format(time.DateOnly), ErrMissingWeek)
		}
		value[i] = v
	}
	return New(obs.Name, grid, value)
}
