package hgmd

import "gonum.org/v1/gonum/mat"

// Discretize converts continuous expression into a binary expressed /
// not-expressed matrix (cells × genes) using the per-gene cutoffs. A base
// gene expresses where its value is strictly greater than the cutoff
// value; a complement expresses where its value is strictly less, because
// complements represent non-expression.
//
// subset, when non-nil, restricts the columns computed to the listed gene
// indices (the heuristic abbreviation path); other columns are left zero
// and must not be consumed. A nil subset computes every column.
//
// The result is a gonum Dense so pair counting can feed it straight into
// a matrix product.
func Discretize(m *ExpressionMatrix, cutoffs CutoffTable, subset []int) *mat.Dense {
	nCells, nGenes := m.NCells(), m.NGenes()
	d := mat.NewDense(nCells, nGenes, nil)

	cols := subset
	if cols == nil {
		cols = make([]int, nGenes)
		for g := range cols {
			cols[g] = g
		}
	}

	for _, g := range cols {
		c := cutoffs[g].Value
		comp := m.IsComplement(g)
		for i := 0; i < nCells; i++ {
			v := m.Value(i, g)
			if (comp && v < c) || (!comp && v > c) {
				d.Set(i, g, 1)
			}
		}
	}
	return d
}
