package models

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrNoDesignMatrix    = errors.New("no design matrix")
	ErrTargetLenMismatch = errors.New("target length does not match design matrix rows")
	ErrSingularFit       = errors.New("design matrix is rank deficient")
)

// olsFit solves ordinary least squares via QR factorization, returning the
// intercept and per-feature coefficients. Rows of x are observations.
func olsFit(x [][]float64, y []float64) (float64, []float64, error) {
	if len(x) == 0 {
		return 0, nil, ErrNoDesignMatrix
	}
	if len(x) != len(y) {
		return 0, nil, fmt.Errorf("design has %d rows and target has %d, %w", len(x), len(y), ErrTargetLenMismatch)
	}

	m := len(x)
	n := len(x[0]) + 1
	if m < n {
		return 0, nil, fmt.Errorf("%d rows for %d coefficients, %w", m, n, ErrTooFewPoints)
	}

	X := mat.NewDense(m, n, nil)
	for i, row := range x {
		X.Set(i, 0, 1.0)
		for j, v := range row {
			X.Set(i, j+1, v)
		}
	}
	Y := mat.NewDense(m, 1, append([]float64(nil), y...))

	qr := new(mat.QR)
	qr.Factorize(X)

	var beta mat.Dense
	if err := qr.SolveTo(&beta, false, Y); err != nil {
		return 0, nil, fmt.Errorf("%v, %w", err, ErrSingularFit)
	}

	coef := make([]float64, n-1)
	for j := 1; j < n; j++ {
		coef[j-1] = beta.At(j, 0)
	}
	return beta.At(0, 0), coef, nil
}

// olsPredict evaluates intercept + x·coef per row.
func olsPredict(x [][]float64, intercept float64, coef []float64) []float64 {
	out := make([]float64, len(x))
	for i, row := range x {
		v := intercept
		for j, c := range coef {
			v += c * row[j]
		}
		out[i] = v
	}
	return out
}
