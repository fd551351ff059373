package hgmd

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ComboRecord holds the hypergeometric significance and classification
// rates for one canonical gene triple or quadruple.
type ComboRecord struct {
	// Genes in canonical order (ascending internal index).
	Genes []string

	PValue float64

	InCount    int
	TotalCount int

	TP, TN float64

	Rank int
}

// maskedCoOccurrence builds the co-occurrence counts of the listed
// columns over the rows where keep reports true, as one dense product.
// This is the k>2 workhorse: a dense k-tensor is infeasible, so counts
// for triples and quadruples come from re-running the pairwise product on
// the rows already satisfying an outer gene or gene-pair prefix.
func maskedCoOccurrence(d *mat.Dense, keep func(r int) bool, cols []int) *mat.Dense {
	rows, _ := d.Dims()
	var kept []int
	for r := 0; r < rows; r++ {
		if keep(r) {
			kept = append(kept, r)
		}
	}

	sub := mat.NewDense(max(len(kept), 1), len(cols), nil)
	for i, r := range kept {
		for j, c := range cols {
			sub.Set(i, j, d.At(r, c))
		}
	}
	p := mat.NewDense(len(cols), len(cols), nil)
	if len(kept) > 0 {
		p.Mul(sub.T(), sub)
	}
	return p
}

// tupleConflict reports whether any two genes of the tuple are a
// gene/own-complement pair, which can never co-express meaningfully.
func tupleConflict(m *ExpressionMatrix, genes ...int) bool {
	for i := 0; i < len(genes); i++ {
		for j := i + 1; j < len(genes); j++ {
			if m.Partner(genes[i]) == genes[j] {
				return true
			}
		}
	}
	return false
}

// tripleTest enumerates canonical gene triples over the candidate set
// (indices ascending) and computes hypergeometric significance and TP/TN
// for each. For every outer gene g, the discrete matrix is masked to the
// rows already expressing g and the pairwise product runs on the
// remaining candidate columns, yielding counts for every (g, a, b) with
// g < a < b. Outer genes are partitioned across workers.
func tripleTest(m *ExpressionMatrix, d *mat.Dense, member []bool,
	candidates []int, clusterSize, population, workers int,
) ([]ComboRecord, error) {
	perOuter := make([][]ComboRecord, len(candidates))

	err := parallelRanges(len(candidates), workers, func(start, end int) error {
		for ci := start; ci < end; ci++ {
			g := candidates[ci]
			tail := candidates[ci+1:]
			if len(tail) < 2 {
				continue
			}

			exprG := func(r int) bool { return d.At(r, g) == 1 }
			pIn := maskedCoOccurrence(d, func(r int) bool { return member[r] && exprG(r) }, tail)
			pTot := maskedCoOccurrence(d, exprG, tail)

			var recs []ComboRecord
			for ai := 0; ai < len(tail); ai++ {
				for bi := ai + 1; bi < len(tail); bi++ {
					a, b := tail[ai], tail[bi]
					if tupleConflict(m, g, a, b) {
						continue
					}
					in := count(pIn, ai, bi)
					tot := count(pTot, ai, bi)
					r := ComboRecord{
						Genes:      []string{m.Gene(g), m.Gene(a), m.Gene(b)},
						PValue:     hypergeomSF(in, tot, clusterSize, population),
						InCount:    in,
						TotalCount: tot,
					}
					rates := tpTNFromCounts(in, tot, clusterSize, population)
					r.TP, r.TN = rates.TP, rates.TN
					recs = append(recs, r)
				}
			}
			perOuter[ci] = recs
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("triple enumeration: %w", err)
	}

	var out []ComboRecord
	for _, recs := range perOuter {
		out = append(out, recs...)
	}
	return out, nil
}

// quadTest extends tripleTest by one more prefix gene: for every outer
// pair (g, h) the matrix is masked to rows expressing both, and the
// pairwise product covers the candidates after h, yielding counts for
// every (g, h, a, b) with g < h < a < b.
func quadTest(m *ExpressionMatrix, d *mat.Dense, member []bool,
	candidates []int, clusterSize, population, workers int,
) ([]ComboRecord, error) {
	perOuter := make([][]ComboRecord, len(candidates))

	err := parallelRanges(len(candidates), workers, func(start, end int) error {
		for ci := start; ci < end; ci++ {
			g := candidates[ci]
			var recs []ComboRecord
			for cj := ci + 1; cj < len(candidates); cj++ {
				h := candidates[cj]
				if m.Partner(g) == h {
					continue
				}
				tail := candidates[cj+1:]
				if len(tail) < 2 {
					continue
				}

				exprGH := func(r int) bool { return d.At(r, g) == 1 && d.At(r, h) == 1 }
				pIn := maskedCoOccurrence(d, func(r int) bool { return member[r] && exprGH(r) }, tail)
				pTot := maskedCoOccurrence(d, exprGH, tail)

				for ai := 0; ai < len(tail); ai++ {
					for bi := ai + 1; bi < len(tail); bi++ {
						a, b := tail[ai], tail[bi]
						if tupleConflict(m, g, h, a, b) {
							continue
						}
						in := count(pIn, ai, bi)
						tot := count(pTot, ai, bi)
						r := ComboRecord{
							Genes:      []string{m.Gene(g), m.Gene(h), m.Gene(a), m.Gene(b)},
							PValue:     hypergeomSF(in, tot, clusterSize, population),
							InCount:    in,
							TotalCount: tot,
						}
						rates := tpTNFromCounts(in, tot, clusterSize, population)
						r.TP, r.TN = rates.TP, rates.TN
						recs = append(recs, r)
					}
				}
			}
			perOuter[ci] = recs
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("quadruple enumeration: %w", err)
	}

	var out []ComboRecord
	for _, recs := range perOuter {
		out = append(out, recs...)
	}
	return out, nil
}
