// Package timeseries provides the weekly time series value type shared by all
// pipeline stages along with the frequency conversions that bring each raw
// source onto the common Sunday-ending weekly grid.
package timeseries

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrNoData           = errors.New("no observations")
	ErrNonMonotonic     = errors.New("dates are not strictly increasing")
	ErrLenMismatch      = errors.New("dates and values have different lengths")
	ErrNotWeekly        = errors.New("dates are not spaced exactly one week apart")
	ErrNotWeekEnding    = errors.New("date does not fall on a week-ending Sunday")
	ErrValueNaN         = errors.New("value is NaN")
	ErrEmptyWindow      = errors.New("window contains no weeks")
	ErrWindowOutOfRange = errors.New("window extends beyond the observations")
)

// Week is one calendar week's worth of resolution.
const Week = 7 * 24 * time.Hour

// TimeSeries is an immutable named series on the weekly grid. Dates are
// strictly increasing, exactly seven days apart, and end on Sunday.
type TimeSeries struct {
	Name  string
	T     []time.Time
	Value []float64
}

// New validates and copies the input into a weekly TimeSeries.
func New(name string, t []time.Time, value []float64) (*TimeSeries, error) {
	if len(t) == 0 {
		return nil, fmt.Errorf("series %q, %w", name, ErrNoData)
	}
	if len(t) != len(value) {
		return nil, fmt.Errorf("series %q has %d dates and %d values, %w", name, len(t), len(value), ErrLenMismatch)
	}

	for i := 0; i < len(t); i++ {
		if t[i].Weekday() != time.Sunday {
			return nil, fmt.Errorf("series %q at %s, %w", name, t[i].Format(time.DateOnly), ErrNotWeekEnding)
		}
		if i > 0 && t[i].Sub(t[i-1]) != Week {
			return nil, fmt.Errorf("series %q between %s and %s, %w",
				name, t[i-1].Format(time.DateOnly), t[i].Format(time.DateOnly), ErrNotWeekly)
		}
		if math.IsNaN(value[i]) {
			return nil, fmt.Errorf("series %q at %s, %w", name, t[i].Format(time.DateOnly), ErrValueNaN)
		}
	}

	tCopy := make([]time.Time, len(t))
	vCopy := make([]float64, len(value))
	copy(tCopy, t)
	copy(vCopy, value)
	return &TimeSeries{Name: name, T: tCopy, Value: vCopy}, nil
}

// Len returns the number of weeks in the series.
func (ts *TimeSeries) Len() int {
	return len(ts.T)
}

// Start returns the first week-ending date.
func (ts *TimeSeries) Start() time.Time {
	return ts.T[0]
}

// End returns the last week-ending date.
func (ts *TimeSeries) End() time.Time {
	return ts.T[len(ts.T)-1]
}

// Copy returns a deep copy so downstream stages can never mutate upstream
// state in place.
func (ts *TimeSeries) Copy() *TimeSeries {
	tCopy := make([]time.Time, len(ts.T))
	vCopy := make([]float64, len(ts.Value))
	copy(tCopy, ts.T)
	copy(vCopy, ts.Value)
	return &TimeSeries{Name: ts.Name, T: tCopy, Value: vCopy}
}

// Window slices the series to week-ending dates within [start, end] inclusive.
// The requested window must be fully covered by the series.
func (ts *TimeSeries) Window(start, end time.Time) (*TimeSeries, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("series %q window %s to %s, %w",
			ts.Name, start.Format(time.DateOnly), end.Format(time.DateOnly), ErrEmptyWindow)
	}
	if start.Before(ts.Start()) || end.After(ts.End()) {
		return nil, fmt.Errorf("series %q spans %s to %s but window requests %s to %s, %w",
			ts.Name, ts.Start().Format(time.DateOnly), ts.End().Format(time.DateOnly),
			start.Format(time.DateOnly), end.Format(time.DateOnly), ErrWindowOutOfRange)
	}

	var lo, hi int
	for i, wk := range ts.T {
		if wk.Before(start) {
			lo = i + 1
		}
		if !wk.After(end) {
			hi = i + 1
		}
	}
	if hi <= lo {
		return nil, fmt.Errorf("series %q, %w", ts.Name, ErrEmptyWindow)
	}
	return New(ts.Name, ts.T[lo:hi], ts.Value[lo:hi])
}

// WeeklyGrid generates the week-ending dates from start through end inclusive.
// Start must be a Sunday.
func WeeklyGrid(start, end time.Time) ([]time.Time, error) {
	if start.Weekday() != time.Sunday {
		return nil, fmt.Errorf("grid start %s, %w", start.Format(time.DateOnly), ErrNotWeekEnding)
	}
	if end.Before(start) {
		return nil, ErrEmptyWindow
	}
	n := int(end.Sub(start)/Week) + 1
	grid := make([]time.Time, 0, n)
	for wk := start; !wk.After(end); wk = wk.AddDate(0, 0, 7) {
		grid = append(grid, wk)
	}
	return grid, nil
}
