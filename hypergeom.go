package hgmd

import (
	"math"

	"gonum.org/v1/gonum/stat/combin"
)

// hypergeomSF computes the exact survival function P(X >= x) for a
// hypergeometric variable X: the number of successes when drawing draws
// items without replacement from a population of size total containing
// succ successes.
//
// The tail is summed term-by-term in log space (distuv.Hypergeometric has
// no CDF), so it stays exact for the small counts combination testing
// produces. Degenerate counts yield defined results rather than errors:
// x <= 0 gives 1, x above the support gives 0.
func hypergeomSF(x, succ, draws, total int) float64 {
	if total <= 0 || draws <= 0 || succ <= 0 {
		if x <= 0 {
			return 1
		}
		return 0
	}
	if x <= 0 {
		return 1
	}

	hi := min(succ, draws)
	if x > hi {
		return 0
	}
	// Support lower bound: can't draw fewer successes than forced by the
	// failure count.
	lo := max(x, succ+draws-total)
	if lo > hi {
		return 0
	}

	logDenom := combin.LogGeneralizedBinomial(float64(total), float64(draws))

	// Log-sum-exp over the tail terms for stability.
	terms := make([]float64, 0, hi-lo+1)
	maxTerm := math.Inf(-1)
	for k := lo; k <= hi; k++ {
		t := combin.LogGeneralizedBinomial(float64(succ), float64(k)) +
			combin.LogGeneralizedBinomial(float64(total-succ), float64(draws-k)) -
			logDenom
		terms = append(terms, t)
		if t > maxTerm {
			maxTerm = t
		}
	}

	sum := 0.0
	for _, t := range terms {
		sum += math.Exp(t - maxTerm)
	}
	p := math.Exp(maxTerm) * sum

	// Guard against rounding drift just past the unit interval.
	if p > 1 {
		return 1
	}
	if p < 0 {
		return 0
	}
	return p
}
