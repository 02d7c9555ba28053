// Package stationarity runs the statistical tests that decide how much
// differencing the target series needs before the non-seasonal candidates
// are fit.
package stationarity

import (
	"errors"
	"fmt"
	"math"

	"github.com/sartorproj/goarima/stats"
	gts "github.com/sartorproj/goarima/timeseries"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrConfig       = errors.New("invalid stationarity options")
	ErrShortSeries  = errors.New("series shorter than two seasonal periods")
	ErrTestFailed   = errors.New("stationarity test returned no result")
	ErrNegativeData = errors.New("log transform requested on negative values")
)

// Options holds the decision thresholds. These were calibrated on one
// historical window and may not generalize, so they are configuration, not
// literals.
type Options struct {
	SignificanceLevel         float64
	SeasonalStrengthThreshold float64
	SeasonalPeriod            int
	LogTransform              bool
}

// NewDefaultOptions returns the thresholds used by the reference analysis.
func NewDefaultOptions() *Options {
	return &Options{
		SignificanceLevel:         0.05,
		SeasonalStrengthThreshold: 0.64,
		SeasonalPeriod:            52,
		LogTransform:              true,
	}
}

func (o *Options) validate() error {
	if o.SignificanceLevel <= 0 || o.SignificanceLevel >= 1 {
		return fmt.Errorf("significance level %v, %w", o.SignificanceLevel, ErrConfig)
	}
	if o.SeasonalStrengthThreshold < 0 || o.SeasonalStrengthThreshold > 1 {
		return fmt.Errorf("seasonal strength threshold %v, %w", o.SeasonalStrengthThreshold, ErrConfig)
	}
	if o.SeasonalPeriod < 2 {
		return fmt.Errorf("seasonal period %d, %w", o.SeasonalPeriod, ErrConfig)
	}
	return nil
}

// Verdict is the outcome of the stationarity decision tree, consumed by the
// model evaluator to parameterize the ARIMA-family candidates.
type Verdict struct {
	ADFPValue            float64 `json:"adf_pvalue"`
	KPSSPValue           float64 `json:"kpss_pvalue"`
	SeasonalStrength     float64 `json:"seasonal_strength"`
	DifferencingOrder    int     `json:"differencing_order"`
	SeasonalDifferencing bool    `json:"seasonal_differencing"`
	LogTransformed       bool    `json:"log_transformed"`
}

// Analyze runs the unit-root test, the trend-stationarity test, and the
// seasonal-strength measure against the target series and applies the
// published decision tree:
//
//  1. ADF p below the significance level with KPSS p above it calls for one
//     round of first differencing.
//  2. Seasonal strength below the threshold skips seasonal differencing.
func Analyze(y []float64, opt *Options) (*Verdict, error) {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	if err := opt.validate(); err != nil {
		return nil, err
	}
	if len(y) < 2*opt.SeasonalPeriod {
		return nil, fmt.Errorf("%d points with period %d, %w", len(y), opt.SeasonalPeriod, ErrShortSeries)
	}

	target := y
	if opt.LogTransform {
		transformed, err := Log1p(y)
		if err != nil {
			return nil, err
		}
		target = transformed
	}

	series := &gts.Series{Values: target}
	adf := stats.ADF(series, 0)
	if adf == nil {
		return nil, fmt.Errorf("adf, %w", ErrTestFailed)
	}
	kpss := stats.KPSS(series, "c", 0)
	if kpss == nil {
		return nil, fmt.Errorf("kpss, %w", ErrTestFailed)
	}

	strength, err := SeasonalStrength(target, opt.SeasonalPeriod)
	if err != nil {
		return nil, err
	}

	return opt.verdict(adf.PValue, kpss.PValue, strength), nil
}

// verdict applies the decision thresholds to the raw test outputs.
func (o *Options) verdict(adfPValue, kpssPValue, strength float64) *Verdict {
	v := &Verdict{
		ADFPValue:        adfPValue,
		KPSSPValue:       kpssPValue,
		SeasonalStrength: strength,
		LogTransformed:   o.LogTransform,
	}
	if adfPValue < o.SignificanceLevel && kpssPValue > o.SignificanceLevel {
		v.DifferencingOrder = 1
	}
	v.SeasonalDifferencing = strength >= o.SeasonalStrengthThreshold
	return v
}

// SeasonalStrength measures how much of the detrended variance the seasonal
// pattern explains, bounded in [0,1]. The trend is a centered moving average
// of one seasonal period; seasonal means are taken over the detrended
// remainder.
func SeasonalStrength(y []float64, period int) (float64, error) {
	if period < 2 {
		return 0, fmt.Errorf("seasonal period %d, %w", period, ErrConfig)
	}
	if len(y) < 2*period {
		return 0, fmt.Errorf("%d points with period %d, %w", len(y), period, ErrShortSeries)
	}

	trend := centeredMovingAverage(y, period)

	// detrended values only exist where the moving average does
	half := period / 2
	detrended := make([]float64, 0, len(y)-period)
	idx := make([]int, 0, len(y)-period)
	for i := half; i < len(y)-half; i++ {
		detrended = append(detrended, y[i]-trend[i])
		idx = append(idx, i%period)
	}

	seasonalSum := make([]float64, period)
	seasonalCnt := make([]float64, period)
	for j, d := range detrended {
		seasonalSum[idx[j]] += d
		seasonalCnt[idx[j]]++
	}

	remainder := make([]float64, len(detrended))
	for j, d := range detrended {
		remainder[j] = d - seasonalSum[idx[j]]/seasonalCnt[idx[j]]
	}

	varDetrended := stat.Variance(detrended, nil)
	if varDetrended == 0 {
		return 0, nil
	}
	strength := 1 - stat.Variance(remainder, nil)/varDetrended
	return math.Max(0, math.Min(1, strength)), nil
}

// Log1p applies log(1+y), the variance-stabilizing transform used on the
// case counts, which include zero weeks.
func Log1p(y []float64) ([]float64, error) {
	out := make([]float64, len(y))
	for i, v := range y {
		if v < 0 {
			return nil, fmt.Errorf("value %v at index %d, %w", v, i, ErrNegativeData)
		}
		out[i] = math.Log1p(v)
	}
	return out, nil
}

// centeredMovingAverage smooths with a window of one period, using a 2xMA
// for even periods so the window stays centered.
func centeredMovingAverage(y []float64, period int) []float64 {
	n := len(y)
	ma := make([]float64, n)
	half := period / 2

	for i := half; i < n-half; i++ {
		if period%2 == 1 {
			sum := 0.0
			for j := i - half; j <= i+half; j++ {
				sum += y[j]
			}
			ma[i] = sum / float64(period)
			continue
		}
		// even period: average of the two staggered windows
		sum := 0.0
		for j := i - half; j < i+half; j++ {
			sum += y[j]
		}
		sum2 := 0.0
		for j := i - half + 1; j <= i+half; j++ {
			sum2 += y[j]
		}
		ma[i] = (sum + sum2) / float64(2*period)
	}
	return ma
}
