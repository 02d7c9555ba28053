package models

import (
	"fmt"
	"time"

	"github.com/sartorproj/goarima/arima"
	"github.com/sartorproj/goarima/autoarima"
	"github.com/sartorproj/goarima/sarima"
	gts "github.com/sartorproj/goarima/timeseries"
)

// predictor is the slice of the goarima model surface the evaluator needs.
type predictor interface {
	Predict(steps int) ([]float64, error)
}

// ARIMA wraps a non-seasonal autoregressive integrated moving average model.
// The differencing order d comes from the stationarity verdict.
type ARIMA struct {
	p, d, q int

	fitted predictor
}

func NewARIMA(p, d, q int) *ARIMA {
	return &ARIMA{p: p, d: d, q: q}
}

func (m *ARIMA) Name() string {
	return "arima"
}

func (m *ARIMA) Fit(t []time.Time, y []float64) error {
	if err := validateTraining(t, y); err != nil {
		return err
	}
	model := arima.New(m.p, m.d, m.q)
	if err := model.Fit(&gts.Series{Values: append([]float64(nil), y...)}); err != nil {
		return fmt.Errorf("arima(%d,%d,%d) fit, %w", m.p, m.d, m.q, err)
	}
	m.fitted = model
	return nil
}

func (m *ARIMA) Forecast(horizon int) ([]float64, error) {
	if m.fitted == nil {
		return nil, ErrNotFitted
	}
	if horizon < 1 {
		return nil, ErrInvalidHorizon
	}
	return m.fitted.Predict(horizon)
}

// SARIMA wraps the seasonal variant with period-length seasonal terms.
type SARIMA struct {
	p, d, q    int
	sp, sd, sq int
	period     int

	fitted predictor
}

func NewSARIMA(p, d, q, sp, sd, sq, period int) *SARIMA {
	return &SARIMA{p: p, d: d, q: q, sp: sp, sd: sd, sq: sq, period: period}
}

func (m *SARIMA) Name() string {
	return "sarima"
}

func (m *SARIMA) Fit(t []time.Time, y []float64) error {
	if err := validateTraining(t, y); err != nil {
		return err
	}
	if m.period < 2 {
		return fmt.Errorf("period %d, %w", m.period, ErrBadPeriod)
	}
	model := sarima.New(m.p, m.d, m.q, m.sp, m.sd, m.sq, m.period)
	if err := model.Fit(&gts.Series{Values: append([]float64(nil), y...)}); err != nil {
		return fmt.Errorf("sarima(%d,%d,%d)(%d,%d,%d)[%d] fit, %w",
			m.p, m.d, m.q, m.sp, m.sd, m.sq, m.period, err)
	}
	m.fitted = model
	return nil
}

func (m *SARIMA) Forecast(horizon int) ([]float64, error) {
	if m.fitted == nil {
		return nil, ErrNotFitted
	}
	if horizon < 1 {
		return nil, ErrInvalidHorizon
	}
	return m.fitted.Predict(horizon)
}

// AutoARIMA searches the order space by AICc, constrained to the known
// seasonal period.
type AutoARIMA struct {
	period int

	fitted predictor
}

func NewAutoARIMA(period int) *AutoARIMA {
	return &AutoARIMA{period: period}
}

func (m *AutoARIMA) Name() string {
	return "auto_arima"
}

func (m *AutoARIMA) Fit(t []time.Time, y []float64) error {
	if err := validateTraining(t, y); err != nil {
		return err
	}

	cfg := autoarima.DefaultConfig()
	cfg.MaxP, cfg.MaxQ = 3, 3
	cfg.Criterion = "aicc"
	if m.period >= 2 {
		cfg.AutoSeasonal = true
		cfg.SeasonalPeriods = []int{m.period}
		cfg.MaxSP, cfg.MaxSQ = 1, 1
	} else {
		cfg.AutoSeasonal = false
	}
	cfg.CompareModels = false

	res, err := autoarima.AutoARIMA(&gts.Series{Values: append([]float64(nil), y...)}, cfg)
	if err != nil {
		return fmt.Errorf("auto-arima fit, %w", err)
	}
	m.fitted = res
	return nil
}

func (m *AutoARIMA) Forecast(horizon int) ([]float64, error) {
	if m.fitted == nil {
		return nil, ErrNotFitted
	}
	if horizon < 1 {
		return nil, ErrInvalidHorizon
	}
	return m.fitted.Predict(horizon)
}
