// Package learner fits the per-season pipeline coefficients from played
// games: shooting blends by weighted least squares, the free throw
// possession weight by a through-origin fit, and the turnover blend by
// grid search.
package learner

import "math"

const minFitSamples = 10

// fit is one regression outcome. ok is false when the sample was too
// small or the system degenerate, in which case callers fall back to
// neutral weights.
type fit struct {
	a, b float64
	r2   float64
	ok   bool
}

// wlsTwoPredictor solves y ~ a*x1 + b*x2 without an intercept by
// weighted normal equations. R squared is the uncentered weighted
// variant, which is the meaningful score for a no-intercept model.
func wlsTwoPredictor(x1, x2, y, w []float64) fit {
	n := len(y)
	if n < minFitSamples || len(x1) != n || len(x2) != n || len(w) != n {
		return fit{}
	}

	var s11, s22, s12, sy1, sy2 float64
	for i := 0; i < n; i++ {
		s11 += w[i] * x1[i] * x1[i]
		s22 += w[i] * x2[i] * x2[i]
		s12 += w[i] * x1[i] * x2[i]
		sy1 += w[i] * x1[i] * y[i]
		sy2 += w[i] * x2[i] * y[i]
	}

	det := s11*s22 - s12*s12
	if s11 <= 0 || s22 <= 0 || math.Abs(det) < 1e-9*s11*s22 {
		return fit{}
	}

	a := (sy1*s22 - sy2*s12) / det
	b := (sy2*s11 - sy1*s12) / det

	var ssRes, ssTot float64
	for i := 0; i < n; i++ {
		pred := a*x1[i] + b*x2[i]
		ssRes += w[i] * (y[i] - pred) * (y[i] - pred)
		ssTot += w[i] * y[i] * y[i]
	}
	if ssTot == 0 {
		return fit{}
	}

	return fit{a: a, b: b, r2: 1 - ssRes/ssTot, ok: true}
}

// olsThroughOrigin solves y ~ k*x with no intercept.
func olsThroughOrigin(x, y []float64) fit {
	n := len(y)
	if n < minFitSamples || len(x) != n {
		return fit{}
	}

	var sxx, sxy float64
	for i := 0; i < n; i++ {
		sxx += x[i] * x[i]
		sxy += x[i] * y[i]
	}
	if sxx == 0 {
		return fit{}
	}

	k := sxy / sxx

	var ssRes, ssTot float64
	for i := 0; i < n; i++ {
		ssRes += (y[i] - k*x[i]) * (y[i] - k*x[i])
		ssTot += y[i] * y[i]
	}
	if ssTot == 0 {
		return fit{}
	}

	return fit{a: k, r2: 1 - ssRes/ssTot, ok: true}
}

func meanAbsError(pred, actual []float64) float64 {
	if len(pred) == 0 {
		return 0
	}

	var sum float64
	for i := range pred {
		sum += math.Abs(pred[i] - actual[i])
	}

	return sum / float64(len(pred))
}
