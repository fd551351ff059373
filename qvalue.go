package hgmd

import "sort"

// qValues computes Benjamini-Hochberg q-values for a set of p-values:
// q(i) = min over j with p(j) >= p(i) of p(j) * m / rank(j), clamped to
// [0, 1]. The result is aligned with the input order.
func qValues(pvals []float64) []float64 {
	m := len(pvals)
	if m == 0 {
		return nil
	}

	order := make([]int, m)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return pvals[order[a]] < pvals[order[b]]
	})

	q := make([]float64, m)
	running := 1.0
	for rank := m; rank >= 1; rank-- {
		i := order[rank-1]
		v := pvals[i] * float64(m) / float64(rank)
		if v < running {
			running = v
		}
		q[i] = running
	}
	return q
}
