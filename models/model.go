// Package models is the collection of forecasting model implementations
// evaluated by the pipeline. Every variant shares the Forecaster contract;
// each owns its hyperparameters and convergence behavior.
package models

import (
	"errors"
	"time"
)

var (
	ErrNoTrainingData  = errors.New("no training data")
	ErrLenMismatch     = errors.New("time and value slices have different lengths")
	ErrNotFitted       = errors.New("model has not been fit")
	ErrInvalidHorizon  = errors.New("forecast horizon must be positive")
	ErrTooFewPoints    = errors.New("not enough training points for the model configuration")
	ErrBadPeriod       = errors.New("seasonal period must be at least 2")
	ErrExogCoverage    = errors.New("exogenous regressors do not cover the requested range")
	ErrUnknownTrainPos = errors.New("training window not found on the exogenous grid")
)

// Forecaster is the train/predict contract shared by every candidate model.
type Forecaster interface {
	Name() string
	Fit(t []time.Time, y []float64) error
	Forecast(horizon int) ([]float64, error)
}

// InSampleForecaster is implemented by candidates that can report in-sample
// predictions over their training window. Values may contain NaN where no
// prediction exists (e.g. the first season of a seasonal naive).
type InSampleForecaster interface {
	Fitted() ([]float64, error)
}

func validateTraining(t []time.Time, y []float64) error {
	if len(y) == 0 {
		return ErrNoTrainingData
	}
	if len(t) != len(y) {
		return ErrLenMismatch
	}
	return nil
}
