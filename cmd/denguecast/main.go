// Command denguecast runs the weekly dengue forecasting study end to end and
// writes the downstream artifacts: the merged dataset, the model
// leaderboard, the champion forecast with its band, the intervention
// comparison, and an HTML chart.
package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"

	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"

	"github.com/aouyang1/go-denguecast"
	"github.com/aouyang1/go-denguecast/config"
	"github.com/aouyang1/go-denguecast/report"
)

func main() {
	cfgPath := flag.String("config", "", "path to a YAML configuration file")
	cpuProfile := flag.Bool("profile", false, "write a CPU profile to the working directory")
	flag.Parse()

	if *cpuProfile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}

	if err := run(*cfgPath); err != nil {
		logrus.WithError(err).Error("pipeline failed")
		os.Exit(1)
	}
}

func run(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	p, err := denguecast.New(cfg)
	if err != nil {
		return err
	}
	log := p.Logger()

	res, err := p.Run(context.Background())
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return err
	}

	merged := filepath.Join(cfg.OutputDir, "merged_weekly.csv")
	if err := report.WriteMergedCSV(merged, res.Merged); err != nil {
		return err
	}
	metrics := filepath.Join(cfg.OutputDir, "model_metrics.json")
	if err := report.WriteMetricsJSON(metrics, res.Evaluation.Results); err != nil {
		return err
	}
	forecast := filepath.Join(cfg.OutputDir, "forecast.csv")
	if err := report.WriteForecastCSV(forecast, res.Evaluation.Horizon); err != nil {
		return err
	}
	interventions := filepath.Join(cfg.OutputDir, "interventions.json")
	if err := report.WriteInterventionJSON(interventions, res.Interventions); err != nil {
		return err
	}

	target, err := res.Merged.Target(denguecast.TargetColumn)
	if err != nil {
		return err
	}
	chart := filepath.Join(cfg.OutputDir, "forecast.html")
	if err := report.WriteChartHTML(chart, "Weekly Dengue Cases", target.T, target.Value, res.Evaluation.Horizon); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"champion":            res.Evaluation.Champion,
		"most_cost_effective": res.Interventions.MostCostEffective,
		"output_dir":          cfg.OutputDir,
	}).Info("artifacts written")
	return nil
}
