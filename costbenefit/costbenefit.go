// Package costbenefit compares dengue intervention programs by cost per
// disability-adjusted life year averted. It is a pure calculator with no
// dependency on the forecasting pipeline.
package costbenefit

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var (
	// ErrNoName occurs when an intervention has no identifier
	ErrNoName = errors.New("intervention has no name")

	// ErrNoCost occurs when neither a total annual cost nor a per person
	// cost with a target population is supplied
	ErrNoCost = errors.New("no positive program cost supplied")

	// ErrNoDALYsAverted occurs when the program averts no health burden,
	// making cost per DALY undefined
	ErrNoDALYsAverted = errors.New("no DALYs averted")

	// ErrNegativeParam occurs when an input that must be non-negative is
	// not
	ErrNegativeParam = errors.New("negative parameter")

	// ErrNoProfiles occurs when a comparison has nothing to compare
	ErrNoProfiles = errors.New("no intervention profiles to compare")
)

// InterventionParams describes one program. The annual cost may be given
// directly or derived from a per person cost and a target population. The
// health benefit may be given directly as DALYsAverted or derived from the
// annual caseload, the program efficacy, and the burden per case. Both
// streams repeat for HorizonYears and are discounted at DiscountRate per
// year; a zero horizon means a single undiscounted year.
type InterventionParams struct {
	Name string

	AnnualCost       decimal.Decimal
	CostPerPerson    decimal.Decimal
	TargetPopulation int64

	AnnualCases  float64
	Efficacy     float64
	DALYPerCase  float64
	DALYsAverted float64

	HorizonYears int
	DiscountRate float64
}

func (p *InterventionParams) validate() error {
	if p.Name == "" {
		return ErrNoName
	}
	if p.AnnualCost.IsNegative() || p.CostPerPerson.IsNegative() || p.TargetPopulation < 0 {
		return fmt.Errorf("%s cost inputs, %w", p.Name, ErrNegativeParam)
	}
	if p.AnnualCases < 0 || p.Efficacy < 0 || p.Efficacy > 1 || p.DALYPerCase < 0 || p.DALYsAverted < 0 {
		return fmt.Errorf("%s benefit inputs, %w", p.Name, ErrNegativeParam)
	}
	if p.HorizonYears < 0 || p.DiscountRate < 0 || p.DiscountRate >= 1 {
		return fmt.Errorf("%s horizon inputs, %w", p.Name, ErrNegativeParam)
	}
	if !p.AnnualCost.IsPositive() && !(p.CostPerPerson.IsPositive() && p.TargetPopulation > 0) {
		return fmt.Errorf("%s, %w", p.Name, ErrNoCost)
	}
	return nil
}

func (p *InterventionParams) annualCost() decimal.Decimal {
	if p.AnnualCost.IsPositive() {
		return p.AnnualCost
	}
	return p.CostPerPerson.Mul(decimal.NewFromInt(p.TargetPopulation))
}

func (p *InterventionParams) casesAverted() float64 {
	if p.DALYsAverted > 0 {
		if p.DALYPerCase > 0 {
			return p.DALYsAverted / p.DALYPerCase
		}
		return 0
	}
	return p.AnnualCases * p.Efficacy
}

func (p *InterventionParams) dalysAverted() float64 {
	if p.DALYsAverted > 0 {
		return p.DALYsAverted
	}
	return p.AnnualCases * p.Efficacy * p.DALYPerCase
}

// discountSum is the present value of one unit per year over the horizon.
func (p *InterventionParams) discountSum() float64 {
	horizon := p.HorizonYears
	if horizon == 0 {
		horizon = 1
	}
	var sum float64
	for t := 0; t < horizon; t++ {
		sum += math.Pow(1+p.DiscountRate, -float64(t))
	}
	return sum
}

// Options sets the willingness to pay threshold as a multiple of GDP per
// capita, the WHO convention for cost effectiveness.
type Options struct {
	GDPPerCapita  decimal.Decimal
	WTPMultiplier int64
}

// NewDefaultOptions uses Singapore's GDP per capita with the conventional
// three times multiplier.
func NewDefaultOptions() *Options {
	return &Options{
		GDPPerCapita:  decimal.NewFromFloat(55418.33),
		WTPMultiplier: 3,
	}
}

func (o *Options) Validate() error {
	if !o.GDPPerCapita.IsPositive() || o.WTPMultiplier < 1 {
		return fmt.Errorf("threshold inputs, %w", ErrNegativeParam)
	}
	return nil
}

// Threshold is the willingness to pay ceiling in whole currency units.
func (o *Options) Threshold() decimal.Decimal {
	return o.GDPPerCapita.Mul(decimal.NewFromInt(o.WTPMultiplier)).Round(0)
}

// Profile is the computed economics of one intervention. Values do not
// change after computation. CasesAverted is the annual figure; TotalCost and
// DALYsAverted are discounted totals over the horizon.
type Profile struct {
	Name          string          `json:"name"`
	AnnualCost    decimal.Decimal `json:"annual_cost_usd"`
	TotalCost     decimal.Decimal `json:"total_cost_usd"`
	CasesAverted  float64         `json:"cases_averted"`
	DALYsAverted  float64         `json:"dalys_averted"`
	CostPerDALY   decimal.Decimal `json:"cost_per_daly_usd"`
	Threshold     decimal.Decimal `json:"threshold_usd"`
	CostEffective bool            `json:"cost_effective"`
}

// Verdict renders the threshold comparison as a label.
func (p *Profile) Verdict() string {
	if p.CostEffective {
		return "cost-effective"
	}
	return "not cost-effective"
}

// Evaluate discounts the cost and benefit streams over the horizon, computes
// the cost per DALY averted, and judges it against the willingness to pay
// threshold.
func Evaluate(opt *Options, params *InterventionParams) (*Profile, error) {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	if err := params.validate(); err != nil {
		return nil, err
	}

	dalys := params.dalysAverted()
	if dalys <= 0 {
		return nil, fmt.Errorf("%s, %w", params.Name, ErrNoDALYsAverted)
	}

	annualCost := params.annualCost()
	horizon := params.discountSum()
	totalCost := annualCost.Mul(decimal.NewFromFloat(horizon))
	totalDALYs := dalys * horizon

	costPerDALY := totalCost.Div(decimal.NewFromFloat(totalDALYs)).Round(2)
	threshold := opt.Threshold()

	return &Profile{
		Name:          params.Name,
		AnnualCost:    annualCost.Round(2),
		TotalCost:     totalCost.Round(2),
		CasesAverted:  params.casesAverted(),
		DALYsAverted:  totalDALYs,
		CostPerDALY:   costPerDALY,
		Threshold:     threshold,
		CostEffective: costPerDALY.LessThanOrEqual(threshold),
	}, nil
}

// Comparison ranks a set of profiles by cost per DALY.
type Comparison struct {
	Profiles          []*Profile      `json:"profiles"`
	MostCostEffective string          `json:"most_cost_effective"`
	CostDifference    decimal.Decimal `json:"cost_difference_per_daly_usd"`
	SavingsPercent    decimal.Decimal `json:"savings_percent"`
}

// Compare picks the cheapest program per DALY averted. The difference and
// savings percentage relate the best and worst programs.
func Compare(profiles ...*Profile) (*Comparison, error) {
	if len(profiles) == 0 {
		return nil, ErrNoProfiles
	}

	best, worst := 0, 0
	for i, p := range profiles {
		if p.CostPerDALY.LessThan(profiles[best].CostPerDALY) {
			best = i
		}
		if p.CostPerDALY.GreaterThan(profiles[worst].CostPerDALY) {
			worst = i
		}
	}

	diff := profiles[worst].CostPerDALY.Sub(profiles[best].CostPerDALY)
	savings := decimal.Zero
	if profiles[worst].CostPerDALY.IsPositive() {
		savings = diff.Div(profiles[worst].CostPerDALY).Mul(decimal.NewFromInt(100)).Round(2)
	}

	return &Comparison{
		Profiles:          profiles,
		MostCostEffective: profiles[best].Name,
		CostDifference:    diff,
		SavingsPercent:    savings,
	}, nil
}
