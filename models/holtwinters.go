package models

import (
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"
)

// ErrBadSmoothing occurs when a smoothing rate falls outside (0,1)
var ErrBadSmoothing = errors.New("smoothing rates must lie in (0,1)")

// HoltWintersOptions are the additive triple exponential smoothing rates.
type HoltWintersOptions struct {
	Alpha float64 // level
	Beta  float64 // trend
	Gamma float64 // seasonal
}

func NewDefaultHoltWintersOptions() *HoltWintersOptions {
	return &HoltWintersOptions{
		Alpha: 0.25,
		Beta:  0.05,
		Gamma: 0.30,
	}
}

func (o *HoltWintersOptions) validate() error {
	for _, rate := range []float64{o.Alpha, o.Beta, o.Gamma} {
		if rate <= 0 || rate >= 1 {
			return fmt.Errorf("got %+v, %w", *o, ErrBadSmoothing)
		}
	}
	return nil
}

// HoltWinters is additive triple exponential smoothing with level, trend,
// and seasonal components.
type HoltWinters struct {
	opt    *HoltWintersOptions
	period int

	level    float64
	trend    float64
	seasonal []float64
	fitted   []float64
}

func NewHoltWinters(period int, opt *HoltWintersOptions) *HoltWinters {
	if opt == nil {
		opt = NewDefaultHoltWintersOptions()
	}
	return &HoltWinters{opt: opt, period: period}
}

func (m *HoltWinters) Name() string {
	return "holt_winters"
}

func (m *HoltWinters) Fit(t []time.Time, y []float64) error {
	if err := validateTraining(t, y); err != nil {
		return err
	}
	if m.period < 2 {
		return fmt.Errorf("period %d, %w", m.period, ErrBadPeriod)
	}
	if len(y) < 2*m.period {
		return fmt.Errorf("%d points with period %d, %w", len(y), m.period, ErrTooFewPoints)
	}
	if err := m.opt.validate(); err != nil {
		return err
	}

	p := m.period
	firstSeason := stat.Mean(y[:p], nil)
	secondSeason := stat.Mean(y[p:2*p], nil)

	level := firstSeason
	trend := (secondSeason - firstSeason) / float64(p)
	seasonal := make([]float64, p)
	for i := 0; i < p; i++ {
		seasonal[i] = y[i] - firstSeason
	}

	fitted := make([]float64, len(y))
	for i := 0; i < len(y); i++ {
		s := seasonal[i%p]
		fitted[i] = level + trend + s

		prevLevel := level
		level = m.opt.Alpha*(y[i]-s) + (1-m.opt.Alpha)*(level+trend)
		trend = m.opt.Beta*(level-prevLevel) + (1-m.opt.Beta)*trend
		seasonal[i%p] = m.opt.Gamma*(y[i]-level) + (1-m.opt.Gamma)*s
	}

	m.level = level
	m.trend = trend
	m.seasonal = seasonal
	m.fitted = fitted
	return nil
}

func (m *HoltWinters) Forecast(horizon int) ([]float64, error) {
	if m.fitted == nil {
		return nil, ErrNotFitted
	}
	if horizon < 1 {
		return nil, ErrInvalidHorizon
	}
	out := make([]float64, horizon)
	n := len(m.fitted)
	for h := 1; h <= horizon; h++ {
		out[h-1] = m.level + float64(h)*m.trend + m.seasonal[(n+h-1)%m.period]
	}
	return out, nil
}

func (m *HoltWinters) Fitted() ([]float64, error) {
	if m.fitted == nil {
		return nil, ErrNotFitted
	}
	return append([]float64(nil), m.fitted...), nil
}
