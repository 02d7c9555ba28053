package models

import (
	"fmt"
	"math"
	"time"
)

// exogFallbackLag reuses the regressor value from one seasonal cycle back
// when a forecast extends past the observed exogenous grid.
const exogFallbackLag = 52

// HarmonicExog extends Harmonic with exogenous regressor columns (weather
// aggregates, search interest, holiday dummies) observed on a fixed weekly
// grid covering at least the training window.
type HarmonicExog struct {
	harmonic *Harmonic
	grid     []time.Time
	names    []string
	exog     [][]float64 // column-major, aligned with grid

	offset    int // index of the training start on the grid
	n         int
	intercept float64
	coef      []float64
	fitted    []float64
}

// NewHarmonicExog takes the exogenous columns in declaration order, each
// aligned to the grid.
func NewHarmonicExog(orders int, grid []time.Time, names []string, exog [][]float64, periods ...float64) (*HarmonicExog, error) {
	if len(names) != len(exog) {
		return nil, fmt.Errorf("%d names for %d columns, %w", len(names), len(exog), ErrLenMismatch)
	}
	for i, col := range exog {
		if len(col) != len(grid) {
			return nil, fmt.Errorf("column %q has %d rows for a %d week grid, %w", names[i], len(col), len(grid), ErrExogCoverage)
		}
	}
	return &HarmonicExog{
		harmonic: NewHarmonic(orders, periods...),
		grid:     grid,
		names:    names,
		exog:     exog,
	}, nil
}

func (m *HarmonicExog) Name() string {
	return "harmonic_exog"
}

// exogRow fetches the regressor values at a grid index, reaching one
// seasonal cycle back for indexes past the observed grid.
func (m *HarmonicExog) exogRow(idx int) ([]float64, error) {
	for idx >= len(m.grid) {
		idx -= exogFallbackLag
	}
	if idx < 0 {
		return nil, fmt.Errorf("grid index %d, %w", idx, ErrExogCoverage)
	}
	row := make([]float64, len(m.exog))
	for j, col := range m.exog {
		row[j] = col[idx]
	}
	return row, nil
}

func (m *HarmonicExog) features(idx int) ([]float64, error) {
	row := m.harmonic.features(idx - m.offset)
	exog, err := m.exogRow(idx)
	if err != nil {
		return nil, err
	}
	return append(row, exog...), nil
}

func (m *HarmonicExog) Fit(t []time.Time, y []float64) error {
	if err := validateTraining(t, y); err != nil {
		return err
	}

	m.offset = -1
	for i, wk := range m.grid {
		if wk.Equal(t[0]) {
			m.offset = i
			break
		}
	}
	if m.offset < 0 {
		return fmt.Errorf("training start %s, %w", t[0].Format(time.DateOnly), ErrUnknownTrainPos)
	}
	if m.offset+len(y) > len(m.grid) {
		return fmt.Errorf("training window of %d weeks from grid index %d, %w", len(y), m.offset, ErrExogCoverage)
	}

	x := make([][]float64, len(y))
	for i := range y {
		row, err := m.features(m.offset + i)
		if err != nil {
			return err
		}
		x[i] = row
	}
	intercept, coef, err := olsFit(x, y)
	if err != nil {
		return err
	}

	m.n = len(y)
	m.intercept = intercept
	m.coef = coef
	m.fitted = olsPredict(x, intercept, coef)
	return nil
}

func (m *HarmonicExog) Forecast(horizon int) ([]float64, error) {
	if m.coef == nil {
		return nil, ErrNotFitted
	}
	if horizon < 1 {
		return nil, ErrInvalidHorizon
	}
	x := make([][]float64, horizon)
	for i := 0; i < horizon; i++ {
		row, err := m.features(m.offset + m.n + i)
		if err != nil {
			return nil, err
		}
		x[i] = row
	}
	out := olsPredict(x, m.intercept, m.coef)
	for i, v := range out {
		if math.IsInf(v, 0) {
			return nil, fmt.Errorf("non-finite forecast at step %d, %w", i+1, ErrSingularFit)
		}
	}
	return out, nil
}

func (m *HarmonicExog) Fitted() ([]float64, error) {
	if m.fitted == nil {
		return nil, ErrNotFitted
	}
	return append([]float64(nil), m.fitted...), nil
}
