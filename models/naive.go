package models

import (
	"fmt"
	"math"
	"time"
)

// SeasonalNaive repeats the last observed season. It is the floor every
// other candidate has to beat.
type SeasonalNaive struct {
	period int

	y      []float64
	fitted bool
}

func NewSeasonalNaive(period int) *SeasonalNaive {
	return &SeasonalNaive{period: period}
}

func (m *SeasonalNaive) Name() string {
	return "seasonal_naive"
}

func (m *SeasonalNaive) Fit(t []time.Time, y []float64) error {
	if err := validateTraining(t, y); err != nil {
		return err
	}
	if m.period < 2 {
		return fmt.Errorf("period %d, %w", m.period, ErrBadPeriod)
	}
	if len(y) < m.period {
		return fmt.Errorf("%d points with period %d, %w", len(y), m.period, ErrTooFewPoints)
	}
	m.y = append([]float64(nil), y...)
	m.fitted = true
	return nil
}

func (m *SeasonalNaive) Forecast(horizon int) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	if horizon < 1 {
		return nil, ErrInvalidHorizon
	}
	season := m.y[len(m.y)-m.period:]
	out := make([]float64, horizon)
	for i := 0; i < horizon; i++ {
		out[i] = season[i%m.period]
	}
	return out, nil
}

// Fitted returns the one-season-back predictions; the first season has no
// history and is NaN, which the scorer skips.
func (m *SeasonalNaive) Fitted() ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	out := make([]float64, len(m.y))
	for i := range m.y {
		if i < m.period {
			out[i] = math.NaN()
			continue
		}
		out[i] = m.y[i-m.period]
	}
	return out, nil
}
