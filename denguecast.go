// Package denguecast assembles weekly dengue case counts and their covariate
// feeds into a merged dataset, characterizes the target series, evaluates a
// set of forecasting candidates on a chronological holdout, and compares
// intervention programs on cost per DALY averted.
package denguecast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/aouyang1/go-denguecast/config"
	"github.com/aouyang1/go-denguecast/costbenefit"
	"github.com/aouyang1/go-denguecast/dataset"
	"github.com/aouyang1/go-denguecast/eval"
	"github.com/aouyang1/go-denguecast/event"
	"github.com/aouyang1/go-denguecast/models"
	"github.com/aouyang1/go-denguecast/stationarity"
	"github.com/aouyang1/go-denguecast/timeseries"
)

// TargetColumn is the merged table column holding the forecast target.
const TargetColumn = "dengue_cases"

// ErrNoConfig occurs when a pipeline is constructed without configuration
var ErrNoConfig = errors.New("no configuration")

// Pipeline runs the full study: load, align, merge, characterize, evaluate,
// and compare interventions.
type Pipeline struct {
	cfg *config.Config
	log *logrus.Logger
}

func New(cfg *config.Config) (*Pipeline, error) {
	if cfg == nil {
		return nil, ErrNoConfig
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level %q, %w", cfg.LogLevel, err)
	}
	log.SetLevel(level)

	return &Pipeline{cfg: cfg, log: log}, nil
}

// Logger exposes the pipeline logger for callers that write artifacts.
func (p *Pipeline) Logger() *logrus.Logger {
	return p.log
}

// Results carries everything a reporting layer consumes.
type Results struct {
	Merged        *dataset.MergedDataset
	Verdict       *stationarity.Verdict
	Evaluation    *eval.Report
	Interventions *costbenefit.Comparison
}

// Run loads the configured source files and executes every stage.
func (p *Pipeline) Run(ctx context.Context) (*Results, error) {
	cases, err := dataset.LoadCasesFile(p.cfg.Data.CasesFile, p.cfg.Data.Disease, p.log)
	if err != nil {
		return nil, err
	}
	weather, err := dataset.LoadWeatherFile(p.cfg.Data.WeatherFile, p.log)
	if err != nil {
		return nil, err
	}
	trends, err := dataset.LoadTrendsFile(p.cfg.Data.TrendsFile, p.log)
	if err != nil {
		return nil, err
	}
	population, err := dataset.LoadPopulationFile(p.cfg.Data.PopulationFile, p.log)
	if err != nil {
		return nil, err
	}

	md, err := p.Assemble(cases, weather, trends, population)
	if err != nil {
		return nil, err
	}

	verdict, err := p.Analyze(md)
	if err != nil {
		return nil, err
	}

	rep, err := p.Evaluate(ctx, md, verdict)
	if err != nil {
		return nil, err
	}

	interventions, err := p.Interventions()
	if err != nil {
		return nil, err
	}

	return &Results{
		Merged:        md,
		Verdict:       verdict,
		Evaluation:    rep,
		Interventions: interventions,
	}, nil
}

// Assemble places every source on the study's weekly grid and merges them.
// The cases bulletin is already weekly and is reindexed without gap filling.
// Daily weather is averaged over each week, the monthly search index is
// carried forward, and yearly population totals are carried backward.
func (p *Pipeline) Assemble(cases *timeseries.Observations, weather []*timeseries.Observations, trends, population *timeseries.Observations) (*dataset.MergedDataset, error) {
	start, err := p.cfg.WindowStart()
	if err != nil {
		return nil, err
	}
	end, err := p.cfg.WindowEnd()
	if err != nil {
		return nil, err
	}
	grid, err := timeseries.WeeklyGrid(start, end)
	if err != nil {
		return nil, err
	}
	p.log.WithFields(logrus.Fields{
		"start": start.Format(time.DateOnly),
		"end":   end.Format(time.DateOnly),
		"weeks": len(grid),
	}).Info("weekly grid built")

	target, err := timeseries.Reindex(cases, grid)
	if err != nil {
		return nil, err
	}
	series := []*timeseries.TimeSeries{target}

	for _, obs := range weather {
		ts, err := timeseries.ResampleWeeklyMean(obs, grid)
		if err != nil {
			return nil, err
		}
		series = append(series, ts)
	}

	searches, err := timeseries.ForwardFill(trends, grid)
	if err != nil {
		return nil, err
	}
	series = append(series, searches)

	pop, err := timeseries.BackwardFill(population, grid)
	if err != nil {
		return nil, err
	}
	series = append(series, pop)

	md, err := dataset.Merge(series...)
	if err != nil {
		return nil, err
	}
	p.log.WithFields(logrus.Fields{"rows": md.Len(), "columns": len(md.Columns)}).
		Info("sources merged")
	return md, nil
}

// Analyze runs the stationarity decision tree on the target column.
func (p *Pipeline) Analyze(md *dataset.MergedDataset) (*stationarity.Verdict, error) {
	y, err := md.Column(TargetColumn)
	if err != nil {
		return nil, err
	}
	verdict, err := stationarity.Analyze(y, &stationarity.Options{
		SignificanceLevel:         p.cfg.Stationarity.SignificanceLevel,
		SeasonalStrengthThreshold: p.cfg.Stationarity.SeasonalStrengthThreshold,
		SeasonalPeriod:            p.cfg.Stationarity.SeasonalPeriod,
		LogTransform:              p.cfg.Stationarity.LogTransform,
	})
	if err != nil {
		return nil, err
	}
	p.log.WithFields(logrus.Fields{
		"adf_pvalue":            verdict.ADFPValue,
		"kpss_pvalue":           verdict.KPSSPValue,
		"seasonal_strength":     verdict.SeasonalStrength,
		"differencing_order":    verdict.DifferencingOrder,
		"seasonal_differencing": verdict.SeasonalDifferencing,
	}).Info("stationarity verdict")
	return verdict, nil
}

// candidates builds the model lineup. Declaration order is the ranking
// tiebreak, so it stays fixed.
func (p *Pipeline) candidates(md *dataset.MergedDataset, v *stationarity.Verdict) ([]eval.Candidate, error) {
	period := p.cfg.Stationarity.SeasonalPeriod
	d := v.DifferencingOrder
	sd := 0
	if v.SeasonalDifferencing {
		sd = 1
	}

	exogNames := make([]string, 0, len(md.Columns))
	exogCols := make([][]float64, 0, len(md.Columns))
	for _, name := range md.Columns {
		if name == TargetColumn {
			continue
		}
		col, err := md.Column(name)
		if err != nil {
			return nil, err
		}
		exogNames = append(exogNames, name)
		exogCols = append(exogCols, col)
	}

	grid := append([]time.Time(nil), md.T...)
	travel := event.YearEndTravel(grid[0], grid[len(grid)-1])
	exogNames = append(exogNames, "year_end_travel")
	exogCols = append(exogCols, event.WeeklyDummy(travel, grid))

	return []eval.Candidate{
		{Name: "seasonal_naive", New: func() (models.Forecaster, error) {
			return models.NewSeasonalNaive(period), nil
		}},
		{Name: "arima", New: func() (models.Forecaster, error) {
			return models.NewARIMA(1, d, 1), nil
		}},
		{Name: "sarima", New: func() (models.Forecaster, error) {
			return models.NewSARIMA(1, d, 1, 1, sd, 1, period), nil
		}},
		{Name: "auto_arima", New: func() (models.Forecaster, error) {
			return models.NewAutoARIMA(period), nil
		}},
		{Name: "harmonic", New: func() (models.Forecaster, error) {
			return models.NewDefaultHarmonic(), nil
		}},
		{Name: "harmonic_exog", New: func() (models.Forecaster, error) {
			return models.NewHarmonicExog(3, grid, exogNames, exogCols,
				models.AnnualPeriodWeeks, models.AnnualPeriodWeeks/2)
		}},
		{Name: "holt_winters", New: func() (models.Forecaster, error) {
			return models.NewHoltWinters(period, nil), nil
		}},
	}, nil
}

// Evaluate scores the candidate lineup on the trailing holdout and refits
// the champion for the forward horizon.
func (p *Pipeline) Evaluate(ctx context.Context, md *dataset.MergedDataset, v *stationarity.Verdict) (*eval.Report, error) {
	target, err := md.Target(TargetColumn)
	if err != nil {
		return nil, err
	}
	cands, err := p.candidates(md, v)
	if err != nil {
		return nil, err
	}
	ev, err := eval.New(&eval.Options{
		HoldoutWeeks: p.cfg.Eval.HoldoutWeeks,
		FitBudget:    p.cfg.Eval.FitBudget,
		IntervalZ:    p.cfg.Eval.IntervalZ,
	}, cands)
	if err != nil {
		return nil, err
	}

	rep, err := ev.Evaluate(ctx, target.T, target.Value)
	if err != nil {
		return nil, err
	}
	p.log.WithField("champion", rep.Champion).Info("candidates evaluated")
	return rep, nil
}

func (p *Pipeline) interventionParams(name string, ic config.InterventionConfig) *costbenefit.InterventionParams {
	return &costbenefit.InterventionParams{
		Name:             name,
		AnnualCost:       decimal.NewFromFloat(ic.AnnualCost),
		CostPerPerson:    decimal.NewFromFloat(ic.CostPerPerson),
		TargetPopulation: ic.TargetPopulation,
		Efficacy:         ic.Efficacy,
		DALYPerCase:      p.cfg.CostBenefit.DALYPerCase,
		DALYsAverted:     ic.DALYsAverted,
		HorizonYears:     p.cfg.CostBenefit.HorizonYears,
		DiscountRate:     p.cfg.CostBenefit.DiscountRate,
	}
}

// Interventions evaluates both configured programs and ranks them.
func (p *Pipeline) Interventions() (*costbenefit.Comparison, error) {
	opt := &costbenefit.Options{
		GDPPerCapita:  decimal.NewFromFloat(p.cfg.CostBenefit.GDPPerCapita),
		WTPMultiplier: p.cfg.CostBenefit.WTPMultiplier,
	}

	wolbachia, err := costbenefit.Evaluate(opt, p.interventionParams("Wolbachia", p.cfg.CostBenefit.Wolbachia))
	if err != nil {
		return nil, err
	}
	dengvaxia, err := costbenefit.Evaluate(opt, p.interventionParams("Dengvaxia", p.cfg.CostBenefit.Dengvaxia))
	if err != nil {
		return nil, err
	}

	cmp, err := costbenefit.Compare(wolbachia, dengvaxia)
	if err != nil {
		return nil, err
	}
	p.log.WithField("most_cost_effective", cmp.MostCostEffective).Info("interventions compared")
	return cmp, nil
}
