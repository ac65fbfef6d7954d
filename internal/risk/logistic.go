package risk

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	maxIter   = 1000
	tolerance = 1e-8
)

// Model is a fitted binary logistic regression.
type Model struct {
	Intercept float64
	Coef      []float64
	Iter      int
}

// Fit trains an L2-regularised logistic regression (inverse strength c,
// intercept not penalised) by Newton-Raphson.
func Fit(x [][]float64, y []float64, c float64) Model {
	n := len(x)
	if n == 0 {
		return Model{}
	}
	p := len(x[0]) + 1
	lambda := 1 / c

	design := mat.NewDense(n, p, nil)
	for i, row := range x {
		design.Set(i, 0, 1)
		for j, v := range row {
			design.Set(i, j+1, v)
		}
	}

	w := mat.NewVecDense(p, nil)
	iter := 0
	for iter < maxIter {
		iter++

		var eta mat.VecDense
		eta.MulVec(design, w)

		grad := mat.NewVecDense(p, nil)
		hess := mat.NewDense(p, p, nil)
		for i := 0; i < n; i++ {
			prob := sigmoid(eta.AtVec(i))
			r := prob - y[i]
			s := prob * (1 - prob)
			for a := 0; a < p; a++ {
				xa := design.At(i, a)
				grad.SetVec(a, grad.AtVec(a)+r*xa)
				for b := 0; b < p; b++ {
					hess.Set(a, b, hess.At(a, b)+s*xa*design.At(i, b))
				}
			}
		}
		for a := 1; a < p; a++ {
			grad.SetVec(a, grad.AtVec(a)+lambda*w.AtVec(a))
			hess.Set(a, a, hess.At(a, a)+lambda)
		}

		var step mat.VecDense
		if err := step.SolveVec(hess, grad); err != nil {
			// an ill-conditioned Hessian still yields a usable step
			var cond mat.Condition
			if !errors.As(err, &cond) {
				break
			}
		}
		w.SubVec(w, &step)
		if mat.Norm(&step, math.Inf(1)) < tolerance {
			break
		}
	}

	coef := make([]float64, p-1)
	for j := range coef {
		coef[j] = w.AtVec(j + 1)
	}
	return Model{Intercept: w.AtVec(0), Coef: coef, Iter: iter}
}

// Predict returns P(y=1 | row).
func (m Model) Predict(row []float64) float64 {
	z := m.Intercept
	for j, v := range row {
		z += m.Coef[j] * v
	}
	return sigmoid(z)
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
