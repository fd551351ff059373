package hgmd

import (
	"fmt"
	"sort"
)

// Cutoff is the per-gene expression threshold derived from the XL-mHG
// test. Index points into the expression-sorted cell ordering (descending
// for genes, ascending for complements); cells before the index express.
// Value is the expression level at or below which (above which, for
// complements) a cell is considered not expressing.
type Cutoff struct {
	Index int
	Value float64
}

// CutoffTable maps gene column index to its cutoff.
type CutoffTable []Cutoff

// sortedColumn returns the values of gene g together with the matrix row
// index of each position, ordered descending by expression for base genes
// and ascending for complements. Ties keep row order, so downstream
// results are deterministic regardless of tie ordering upstream.
func sortedColumn(m *ExpressionMatrix, g int) (vals []float64, rows []int) {
	vals = m.Column(g)
	rows = make([]int, len(vals))
	for i := range rows {
		rows[i] = i
	}
	asc := m.IsComplement(g)
	sort.SliceStable(rows, func(a, b int) bool {
		if asc {
			return vals[rows[a]] < vals[rows[b]]
		}
		return vals[rows[a]] > vals[rows[b]]
	})
	sorted := make([]float64, len(vals))
	for i, r := range rows {
		sorted[i] = vals[r]
	}
	return sorted, rows
}

// slideCutoff moves a raw cutoff index to the first position holding the
// cutoff value, so that ties in expression cannot leave the binary call
// inconsistent with the threshold. vals must be sorted descending (asc
// false) or ascending (asc true). Sliding an already-slid index is a
// no-op.
func slideCutoff(vals []float64, value float64, asc bool) int {
	if asc {
		return sort.Search(len(vals), func(i int) bool { return vals[i] >= value })
	}
	return sort.Search(len(vals), func(i int) bool { return vals[i] <= value })
}

// findCutoff runs the XL-mHG test for gene g against the cluster
// membership vector and returns the test result alongside the slid
// cutoff. X and L are the XL-mHG bounds after defaulting.
func findCutoff(m *ExpressionMatrix, member []bool, g, X, L int) (xlmhgResult, Cutoff, error) {
	vals, rows := sortedColumn(m, g)

	ordered := make([]bool, len(rows))
	for i, r := range rows {
		ordered[i] = member[r]
	}

	res, err := xlmhgTest(ordered, X, L)
	if err != nil {
		return xlmhgResult{}, Cutoff{}, fmt.Errorf("gene %s: %w", m.Gene(g), err)
	}

	// The raw cutoff index is ambiguous under ties: take the expression
	// value at the first non-expressing position and slide the index to
	// where that value actually starts.
	value := vals[min(res.Cutoff, len(vals)-1)]
	idx := slideCutoff(vals, value, m.IsComplement(g))

	return res, Cutoff{Index: idx, Value: value}, nil
}
