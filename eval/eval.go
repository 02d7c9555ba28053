// Package eval scores forecasting candidates on a chronological holdout and
// refits the winner on the full history to produce an operational forecast.
package eval

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/aouyang1/go-denguecast/models"
)

var (
	// ErrNoCandidates occurs when the evaluator has nothing to score
	ErrNoCandidates = errors.New("no forecasting candidates registered")

	// ErrShortSeries occurs when the series cannot cover both a training
	// window and the holdout
	ErrShortSeries = errors.New("series too short for the holdout split")

	// ErrNoChampion occurs when every candidate failed to fit or score
	ErrNoChampion = errors.New("no candidate produced a finite holdout score")

	// ErrNoScorablePoints occurs when the holdout has no nonzero finite
	// actuals to compute a percentage error against
	ErrNoScorablePoints = errors.New("no scorable points for mape")

	// ErrFitBudget occurs when a candidate exceeds its wall clock budget
	ErrFitBudget = errors.New("fit exceeded time budget")
)

// Candidate pairs a model name with a factory. The evaluator fits a fresh
// instance per scoring pass so the champion refit never reuses holdout state.
type Candidate struct {
	Name string
	New  func() (models.Forecaster, error)
}

// Options configures the holdout evaluation.
type Options struct {
	// HoldoutWeeks is the length of the chronological test window taken
	// from the end of the series
	HoldoutWeeks int

	// FitBudget bounds the wall clock time of a single candidate fit
	FitBudget time.Duration

	// IntervalZ scales the residual spread into the forecast band
	IntervalZ float64
}

func NewDefaultOptions() *Options {
	return &Options{
		HoldoutWeeks: 16,
		FitBudget:    2 * time.Minute,
		IntervalZ:    1.96,
	}
}

func (o *Options) Validate() error {
	if o.HoldoutWeeks < 1 {
		return fmt.Errorf("holdout of %d weeks, %w", o.HoldoutWeeks, ErrShortSeries)
	}
	if o.FitBudget <= 0 {
		return fmt.Errorf("non-positive fit budget %s, %w", o.FitBudget, ErrFitBudget)
	}
	if o.IntervalZ <= 0 {
		return errors.New("interval z must be positive")
	}
	return nil
}

// ModelResult records one candidate's holdout performance. TrainMAPE is nil
// for models that expose no in-sample fit.
type ModelResult struct {
	Model     string    `json:"model"`
	TrainMAPE *float64  `json:"train_mape,omitempty"`
	TestMAPE  float64   `json:"test_mape"`
	Forecast  []float64 `json:"forecast,omitempty"`
	Failed    bool      `json:"failed"`
	Reason    string    `json:"reason,omitempty"`
}

// HorizonForecast is the champion's forward forecast beyond the observed
// series, with a symmetric residual band floored at zero.
type HorizonForecast struct {
	T     []time.Time `json:"t"`
	Point []float64   `json:"point"`
	Lower []float64   `json:"lower"`
	Upper []float64   `json:"upper"`
}

// Report collects the scored leaderboard and the champion's forecast.
type Report struct {
	Results  []ModelResult    `json:"results"`
	Champion string           `json:"champion"`
	Horizon  *HorizonForecast `json:"horizon,omitempty"`
}

// Evaluator runs the candidates against a chronological split.
type Evaluator struct {
	opt        *Options
	candidates []Candidate
}

func New(opt *Options, candidates []Candidate) (*Evaluator, error) {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	return &Evaluator{opt: opt, candidates: candidates}, nil
}

// MAPE is the mean absolute percentage error, expressed as a fraction, over
// points where the actual is finite and nonzero. Both slices must have equal
// length.
func MAPE(actual, forecast []float64) (float64, error) {
	if len(actual) != len(forecast) {
		return 0, fmt.Errorf("%d actuals for %d forecasts, %w", len(actual), len(forecast), models.ErrLenMismatch)
	}
	var sum float64
	var cnt int
	for i, a := range actual {
		if a == 0 || math.IsNaN(a) || math.IsNaN(forecast[i]) {
			continue
		}
		sum += math.Abs((a - forecast[i]) / a)
		cnt++
	}
	if cnt == 0 {
		return 0, ErrNoScorablePoints
	}
	return sum / float64(cnt), nil
}

// fitForecast runs a single candidate's fit and forecast under the wall
// clock budget. The goarima fits take no context, so the work runs in its
// own goroutine and an overdue result is abandoned.
func (e *Evaluator) fitForecast(ctx context.Context, c Candidate, t []time.Time, y []float64, horizon int) (models.Forecaster, []float64, error) {
	type outcome struct {
		model    models.Forecaster
		forecast []float64
		err      error
	}
	done := make(chan outcome, 1)

	go func() {
		m, err := c.New()
		if err != nil {
			done <- outcome{err: err}
			return
		}
		if err := m.Fit(t, y); err != nil {
			done <- outcome{err: err}
			return
		}
		fc, err := m.Forecast(horizon)
		done <- outcome{model: m, forecast: fc, err: err}
	}()

	timer := time.NewTimer(e.opt.FitBudget)
	defer timer.Stop()

	select {
	case out := <-done:
		return out.model, out.forecast, out.err
	case <-timer.C:
		return nil, nil, fmt.Errorf("%s after %s, %w", c.Name, e.opt.FitBudget, ErrFitBudget)
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
}

// Evaluate scores every candidate on the trailing holdout, picks the champion
// by minimum test MAPE, and refits it on the full series for the forward
// horizon. Candidates that fail to fit or score are reported, not fatal.
func (e *Evaluator) Evaluate(ctx context.Context, t []time.Time, y []float64) (*Report, error) {
	if len(t) != len(y) {
		return nil, fmt.Errorf("%d timestamps for %d values, %w", len(t), len(y), models.ErrLenMismatch)
	}
	holdout := e.opt.HoldoutWeeks
	if len(y) < 2*holdout {
		return nil, fmt.Errorf("%d points with a %d week holdout, %w", len(y), holdout, ErrShortSeries)
	}

	split := len(y) - holdout
	trainT, trainY := t[:split], y[:split]
	testY := y[split:]

	results := make([]ModelResult, len(e.candidates))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range e.candidates {
		g.Go(func() error {
			res := e.score(gctx, c, trainT, trainY, testY)
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	champion := championIndex(results)
	if champion < 0 {
		return &Report{Results: results}, ErrNoChampion
	}

	rep := &Report{
		Results:  results,
		Champion: results[champion].Model,
	}

	horizon, err := e.refit(ctx, e.candidates[champion], t, y, results[champion].Forecast, testY)
	if err != nil {
		return rep, fmt.Errorf("champion %s refit, %w", rep.Champion, err)
	}
	rep.Horizon = horizon
	return rep, nil
}

func (e *Evaluator) score(ctx context.Context, c Candidate, trainT []time.Time, trainY, testY []float64) ModelResult {
	res := ModelResult{Model: c.Name}

	m, forecast, err := e.fitForecast(ctx, c, trainT, trainY, len(testY))
	if err != nil {
		logrus.WithError(err).WithField("model", c.Name).Warn("candidate failed to fit")
		res.Failed = true
		res.Reason = err.Error()
		return res
	}

	testMAPE, err := MAPE(testY, forecast)
	if err != nil {
		res.Failed = true
		res.Reason = err.Error()
		return res
	}
	if math.IsNaN(testMAPE) || math.IsInf(testMAPE, 0) {
		res.Failed = true
		res.Reason = "non-finite holdout score"
		return res
	}

	res.TestMAPE = testMAPE
	res.Forecast = forecast

	if insample, ok := m.(models.InSampleForecaster); ok {
		if fitted, err := insample.Fitted(); err == nil {
			if trainMAPE, err := MAPE(trainY, fitted); err == nil {
				res.TrainMAPE = &trainMAPE
			}
		}
	}
	return res
}

// championIndex picks the lowest finite test MAPE, declaration order breaking
// ties.
func championIndex(results []ModelResult) int {
	best := -1
	for i, r := range results {
		if r.Failed {
			continue
		}
		if best < 0 || r.TestMAPE < results[best].TestMAPE {
			best = i
		}
	}
	return best
}

// refit trains the champion on the full series and projects one holdout
// length ahead. The band width comes from the spread of the holdout
// residuals, and the lower bound is floored at zero since the target counts
// cases.
func (e *Evaluator) refit(ctx context.Context, c Candidate, t []time.Time, y, holdoutForecast, testY []float64) (*HorizonForecast, error) {
	horizon := e.opt.HoldoutWeeks
	_, point, err := e.fitForecast(ctx, c, t, y, horizon)
	if err != nil {
		return nil, err
	}

	residuals := make([]float64, 0, len(testY))
	for i, a := range testY {
		if math.IsNaN(a) || math.IsNaN(holdoutForecast[i]) {
			continue
		}
		residuals = append(residuals, a-holdoutForecast[i])
	}
	var sigma float64
	if len(residuals) > 1 {
		sigma = stat.StdDev(residuals, nil)
	}

	last := t[len(t)-1]
	out := &HorizonForecast{
		T:     make([]time.Time, horizon),
		Point: point,
		Lower: make([]float64, horizon),
		Upper: make([]float64, horizon),
	}
	for i := 0; i < horizon; i++ {
		out.T[i] = last.AddDate(0, 0, 7*(i+1))
		out.Lower[i] = math.Max(0, point[i]-e.opt.IntervalZ*sigma)
		out.Upper[i] = point[i] + e.opt.IntervalZ*sigma
	}
	return out, nil
}

// Leaderboard returns the results ordered by holdout score, failures last in
// declaration order.
func Leaderboard(results []ModelResult) []ModelResult {
	out := append([]ModelResult(nil), results...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Failed != out[j].Failed {
			return !out[i].Failed
		}
		if out[i].Failed {
			return false
		}
		return out[i].TestMAPE < out[j].TestMAPE
	})
	return out
}
