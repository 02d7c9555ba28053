// Package config loads the pipeline settings from an optional YAML file with
// environment variable overrides. Every knob has a default matching the
// Singapore dengue study window.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrInvalid occurs when a loaded configuration fails validation
var ErrInvalid = errors.New("invalid configuration")

type DataConfig struct {
	CasesFile      string `mapstructure:"cases_file"`
	WeatherFile    string `mapstructure:"weather_file"`
	TrendsFile     string `mapstructure:"trends_file"`
	PopulationFile string `mapstructure:"population_file"`
	Disease        string `mapstructure:"disease"`
}

type WindowConfig struct {
	Start string `mapstructure:"start"`
	End   string `mapstructure:"end"`
}

type StationarityConfig struct {
	SignificanceLevel         float64 `mapstructure:"significance_level"`
	SeasonalStrengthThreshold float64 `mapstructure:"seasonal_strength_threshold"`
	SeasonalPeriod            int     `mapstructure:"seasonal_period"`
	LogTransform              bool    `mapstructure:"log_transform"`
}

type EvalConfig struct {
	HoldoutWeeks int           `mapstructure:"holdout_weeks"`
	FitBudget    time.Duration `mapstructure:"fit_budget"`
	IntervalZ    float64       `mapstructure:"interval_z"`
}

type InterventionConfig struct {
	AnnualCost       float64 `mapstructure:"annual_cost"`
	CostPerPerson    float64 `mapstructure:"cost_per_person"`
	TargetPopulation int64   `mapstructure:"target_population"`
	Efficacy         float64 `mapstructure:"efficacy"`
	DALYsAverted     float64 `mapstructure:"dalys_averted"`
}

type CostBenefitConfig struct {
	GDPPerCapita  float64            `mapstructure:"gdp_per_capita"`
	WTPMultiplier int64              `mapstructure:"wtp_multiplier"`
	DALYPerCase   float64            `mapstructure:"daly_per_case"`
	HorizonYears  int                `mapstructure:"horizon_years"`
	DiscountRate  float64            `mapstructure:"discount_rate"`
	Wolbachia     InterventionConfig `mapstructure:"wolbachia"`
	Dengvaxia     InterventionConfig `mapstructure:"dengvaxia"`
}

type Config struct {
	LogLevel     string             `mapstructure:"log_level"`
	OutputDir    string             `mapstructure:"output_dir"`
	Data         DataConfig         `mapstructure:"data"`
	Window       WindowConfig       `mapstructure:"window"`
	Stationarity StationarityConfig `mapstructure:"stationarity"`
	Eval         EvalConfig         `mapstructure:"eval"`
	CostBenefit  CostBenefitConfig  `mapstructure:"cost_benefit"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("output_dir", "output")

	v.SetDefault("data.cases_file", "data/weekly_cases.csv")
	v.SetDefault("data.weather_file", "data/daily_weather.csv")
	v.SetDefault("data.trends_file", "data/monthly_trends.csv")
	v.SetDefault("data.population_file", "data/yearly_population.csv")
	v.SetDefault("data.disease", "Dengue")

	v.SetDefault("window.start", "2012-01-01")
	v.SetDefault("window.end", "2022-12-25")

	v.SetDefault("stationarity.significance_level", 0.05)
	v.SetDefault("stationarity.seasonal_strength_threshold", 0.64)
	v.SetDefault("stationarity.seasonal_period", 52)
	v.SetDefault("stationarity.log_transform", true)

	v.SetDefault("eval.holdout_weeks", 16)
	v.SetDefault("eval.fit_budget", "2m")
	v.SetDefault("eval.interval_z", 1.96)

	v.SetDefault("cost_benefit.gdp_per_capita", 55418.33)
	v.SetDefault("cost_benefit.wtp_multiplier", 3)
	v.SetDefault("cost_benefit.daly_per_case", 0.045)
	v.SetDefault("cost_benefit.horizon_years", 1)
	v.SetDefault("cost_benefit.discount_rate", 0.0)

	v.SetDefault("cost_benefit.wolbachia.annual_cost", 27_000_000.0)
	v.SetDefault("cost_benefit.wolbachia.cost_per_person", 4.75)
	v.SetDefault("cost_benefit.wolbachia.target_population", 5_686_000)
	v.SetDefault("cost_benefit.wolbachia.efficacy", 0.77)
	v.SetDefault("cost_benefit.wolbachia.dalys_averted", 449.71)

	v.SetDefault("cost_benefit.dengvaxia.annual_cost", 220_700_000.0)
	v.SetDefault("cost_benefit.dengvaxia.cost_per_person", 391.00)
	v.SetDefault("cost_benefit.dengvaxia.target_population", 564_450)
	v.SetDefault("cost_benefit.dengvaxia.efficacy", 0.819)
	v.SetDefault("cost_benefit.dengvaxia.dalys_averted", 611.6)
}

// Load reads the configuration at path, or defaults with environment
// overrides when path is empty.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("DENGUECAST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s, %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config, %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// WindowStart parses the study window start date.
func (c *Config) WindowStart() (time.Time, error) {
	return time.Parse(time.DateOnly, c.Window.Start)
}

// WindowEnd parses the study window end date.
func (c *Config) WindowEnd() (time.Time, error) {
	return time.Parse(time.DateOnly, c.Window.End)
}

func (c *Config) Validate() error {
	if c.Data.Disease == "" {
		return fmt.Errorf("data.disease is empty, %w", ErrInvalid)
	}
	for key, f := range map[string]string{
		"data.cases_file":      c.Data.CasesFile,
		"data.weather_file":    c.Data.WeatherFile,
		"data.trends_file":     c.Data.TrendsFile,
		"data.population_file": c.Data.PopulationFile,
	} {
		if f == "" {
			return fmt.Errorf("%s is empty, %w", key, ErrInvalid)
		}
	}

	start, err := c.WindowStart()
	if err != nil {
		return fmt.Errorf("window.start, %w", ErrInvalid)
	}
	end, err := c.WindowEnd()
	if err != nil {
		return fmt.Errorf("window.end, %w", ErrInvalid)
	}
	if !end.After(start) {
		return fmt.Errorf("window.end %s not after window.start %s, %w", c.Window.End, c.Window.Start, ErrInvalid)
	}

	if c.Stationarity.SignificanceLevel <= 0 || c.Stationarity.SignificanceLevel >= 1 {
		return fmt.Errorf("stationarity.significance_level %f, %w", c.Stationarity.SignificanceLevel, ErrInvalid)
	}
	if c.Stationarity.SeasonalStrengthThreshold < 0 || c.Stationarity.SeasonalStrengthThreshold > 1 {
		return fmt.Errorf("stationarity.seasonal_strength_threshold %f, %w", c.Stationarity.SeasonalStrengthThreshold, ErrInvalid)
	}
	if c.Stationarity.SeasonalPeriod < 2 {
		return fmt.Errorf("stationarity.seasonal_period %d, %w", c.Stationarity.SeasonalPeriod, ErrInvalid)
	}

	if c.Eval.HoldoutWeeks < 1 {
		return fmt.Errorf("eval.holdout_weeks %d, %w", c.Eval.HoldoutWeeks, ErrInvalid)
	}
	if c.Eval.FitBudget <= 0 {
		return fmt.Errorf("eval.fit_budget %s, %w", c.Eval.FitBudget, ErrInvalid)
	}
	if c.Eval.IntervalZ <= 0 {
		return fmt.Errorf("eval.interval_z %f, %w", c.Eval.IntervalZ, ErrInvalid)
	}

	if c.CostBenefit.GDPPerCapita <= 0 || c.CostBenefit.WTPMultiplier < 1 {
		return fmt.Errorf("cost_benefit threshold inputs, %w", ErrInvalid)
	}
	if c.CostBenefit.DALYPerCase <= 0 {
		return fmt.Errorf("cost_benefit.daly_per_case %f, %w", c.CostBenefit.DALYPerCase, ErrInvalid)
	}
	if c.CostBenefit.HorizonYears < 1 {
		return fmt.Errorf("cost_benefit.horizon_years %d, %w", c.CostBenefit.HorizonYears, ErrInvalid)
	}
	if c.CostBenefit.DiscountRate < 0 || c.CostBenefit.DiscountRate >= 1 {
		return fmt.Errorf("cost_benefit.discount_rate %f, %w", c.CostBenefit.DiscountRate, ErrInvalid)
	}
	return nil
}
