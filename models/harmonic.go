package models

import (
	"fmt"
	"math"
	"time"
)

// AnnualPeriodWeeks is the mean tropical year in weeks, a non-integer
// seasonal period the Fourier representation handles exactly.
const AnnualPeriodWeeks = 365.2425 / 7.0

// Harmonic fits a linear trend plus Fourier terms at one or more (possibly
// non-integer) seasonal periods by ordinary least squares.
type Harmonic struct {
	periods []float64
	orders  int

	n         int
	intercept float64
	coef      []float64
	fitted    []float64
}

// NewHarmonic models the given seasonal periods, measured in weeks, with
// `orders` Fourier harmonics each.
func NewHarmonic(orders int, periods ...float64) *Harmonic {
	return &Harmonic{periods: periods, orders: orders}
}

// NewDefaultHarmonic covers the annual and half-annual cycles.
func NewDefaultHarmonic() *Harmonic {
	return NewHarmonic(3, AnnualPeriodWeeks, AnnualPeriodWeeks/2)
}

func (m *Harmonic) Name() string {
	return "harmonic"
}

func (m *Harmonic) features(idx int) []float64 {
	row := make([]float64, 0, 1+2*m.orders*len(m.periods))
	row = append(row, float64(idx))
	for _, period := range m.periods {
		for k := 1; k <= m.orders; k++ {
			arg := 2 * math.Pi * float64(k) * float64(idx) / period
			row = append(row, math.Sin(arg), math.Cos(arg))
		}
	}
	return row
}

func (m *Harmonic) Fit(t []time.Time, y []float64) error {
	if err := validateTraining(t, y); err != nil {
		return err
	}
	if m.orders < 1 || len(m.periods) == 0 {
		return fmt.Errorf("orders %d with %d periods, %w", m.orders, len(m.periods), ErrBadPeriod)
	}

	x := make([][]float64, len(y))
	for i := range y {
		x[i] = m.features(i)
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

func (m *Harmonic) Forecast(horizon int) ([]float64, error) {
	if m.coef == nil {
		return nil, ErrNotFitted
	}
	if horizon < 1 {
		return nil, ErrInvalidHorizon
	}
	x := make([][]float64, horizon)
	for i := 0; i < horizon; i++ {
		x[i] = m.features(m.n + i)
	}
	return olsPredict(x, m.intercept, m.coef), nil
}

func (m *Harmonic) Fitted() ([]float64, error) {
	if m.fitted == nil {
		return nil, ErrNotFitted
	}
	return append([]float64(nil), m.fitted...), nil
}
