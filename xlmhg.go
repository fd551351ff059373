package hgmd

import (
	"fmt"
)

// statTieTol absorbs floating-point noise when comparing hypergeometric
// tails against the minimal statistic.
const statTieTol = 1e-12

// xlmhgResult carries the outcome of one XL-mHG test.
type xlmhgResult struct {
	// Stat is the minimal hypergeometric tail over the allowed cutoffs:
	// the enrichment of cluster members above the best cutoff.
	Stat float64
	// Cutoff is the prefix length achieving Stat, indexing into the
	// expression-sorted cell ordering. Cells before the cutoff express.
	Cutoff int
	// PValue is the exact mHG p-value correcting Stat for the multiple
	// cutoffs examined.
	PValue float64
}

// xlmhgTest runs the XL-mHG test on a membership vector sorted by
// expression (descending for genes, ascending for complements). X is the
// minimum number of in-cluster successes a cutoff must capture before its
// tail counts; L caps the prefix lengths examined. X=0 and L=len(v)
// reduce to the unrestricted mHG test.
func xlmhgTest(v []bool, X, L int) (xlmhgResult, error) {
	n := len(v)
	if n == 0 {
		return xlmhgResult{}, fmt.Errorf("%w: empty membership vector", ErrInvalidInput)
	}

	k := 0
	for _, in := range v {
		if in {
			k++
		}
	}
	if k == 0 || k == n {
		return xlmhgResult{}, fmt.Errorf("%w: cluster covers %d of %d cells",
			ErrDegenerateCluster, k, n)
	}
	if X < 0 {
		return xlmhgResult{}, fmt.Errorf("%w: X must be >= 0, got %d", ErrInvalidInput, X)
	}
	if L < X || L > n {
		return xlmhgResult{}, fmt.Errorf("%w: L must be in [X, N] = [%d, %d], got %d",
			ErrInvalidInput, X, n, L)
	}

	stat, cutoff := xlmhgStat(v, k, X, L)
	if stat >= 1 {
		// No cutoff beats chance; the test is uninformative.
		return xlmhgResult{Stat: 1, Cutoff: cutoff, PValue: 1}, nil
	}

	pval := xlmhgPValue(n, k, X, L, stat)
	if pval < stat {
		pval = stat
	}
	return xlmhgResult{Stat: stat, Cutoff: cutoff, PValue: pval}, nil
}

// xlmhgStat scans every allowed prefix of v and returns the minimal
// hypergeometric tail together with the prefix length achieving it.
// Tails are forced to 1 while the prefix holds fewer than X successes.
func xlmhgStat(v []bool, k, X, L int) (float64, int) {
	n := len(v)
	best := 1.0
	cutoff := 0

	b := 0
	for i := 1; i <= L; i++ {
		if v[i-1] {
			b++
		}
		// Only evaluate where the success count just grew: the tail at a
		// prefix ending in a failure is never smaller than at the prefix
		// ending at the last success.
		if !v[i-1] || b < X {
			continue
		}
		tail := hypergeomSF(b, k, i, n)
		if tail < best-statTieTol {
			best = tail
			cutoff = i
		}
	}
	return best, cutoff
}

// xlmhgPValue computes the exact p-value for an observed mHG statistic:
// the probability, under the null of a uniformly random ordering, that
// some allowed cutoff attains a hypergeometric tail <= stat.
//
// Dynamic program over path probabilities: W[b] holds the probability of
// reaching b successes after i draws without previously entering a
// "violating" state (a prefix whose tail already beats stat). Violating
// states are absorbed (zeroed); the p-value is one minus the surviving
// mass at the final state (n, k).
func xlmhgPValue(n, k, X, L int, stat float64) float64 {
	// minViolating[i] is the smallest success count b at prefix length i
	// whose tail is <= stat (k+1 when none). The tail shrinks as b grows
	// and grows as i grows, so the threshold is non-decreasing in i and a
	// single forward pointer suffices. States with b > i evaluate to a
	// zero tail; they are unreachable and never absorbed by the DP below.
	minViolating := make([]int, L+1)
	b := max(X, 1)
	for i := 1; i <= L; i++ {
		for b <= k && hypergeomSF(b, k, i, n) > stat*(1+statTieTol) {
			b++
		}
		minViolating[i] = b
	}

	// W[b] = P(b successes in current prefix, never violated).
	W := make([]float64, k+1)
	W[0] = 1
	for i := 1; i <= n; i++ {
		bHi := min(i, k)
		bLo := max(0, k-(n-i))
		for bb := bHi; bb >= bLo; bb-- {
			remaining := float64(n - i + 1)
			var w float64
			if bb > 0 {
				// Success drawn: from (i-1, bb-1).
				w += W[bb-1] * float64(k-(bb-1)) / remaining
			}
			// Failure drawn: from (i-1, bb).
			if bb <= min(i-1, k) {
				w += W[bb] * float64((n-i+1)-(k-bb)) / remaining
			}
			if i <= L && bb >= minViolating[i] {
				w = 0 // absorbed: this path already achieved the statistic
			}
			W[bb] = w
		}
		if bLo > 0 {
			W[bLo-1] = 0
		}
	}

	p := 1 - W[k]
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
