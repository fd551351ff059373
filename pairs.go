package hgmd

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// PairRecord holds the hypergeometric significance and classification
// rates for one canonical gene pair.
type PairRecord struct {
	GeneA, GeneB string

	// PValue is the hypergeometric tail probability of the in-cluster
	// co-occurrence count; QValue is its Benjamini-Hochberg correction
	// over all reported pairs.
	PValue float64
	QValue float64

	// InCount cells of the cluster of interest express both genes;
	// TotalCount cells of the whole population do.
	InCount    int
	TotalCount int

	TP, TN    float64
	OtherTPTN map[string]TPTN

	Rank int
}

// pairCounts bundles the co-occurrence count matrices for one
// cluster-of-interest run: counts restricted to the cluster, to the full
// population, and to every other cluster label (for cross-cluster TP/TN).
// Entry (i, j) of each matrix is the number of cells in the relevant
// subset expressing genes i and j jointly; the diagonal carries singleton
// counts.
type pairCounts struct {
	inCls   *mat.Dense
	total   *mat.Dense
	byLabel map[string]*mat.Dense
	sizes   map[string]int
}

// subsetRows copies the given rows of d into a fresh dense matrix.
func subsetRows(d *mat.Dense, rows []int) *mat.Dense {
	_, c := d.Dims()
	out := mat.NewDense(len(rows), c, nil)
	for i, r := range rows {
		out.SetRow(i, d.RawRowView(r))
	}
	return out
}

// coOccurrence computes the gene × gene joint expression counts of d,
// optionally restricted to a row subset, as the product DᵀD. One dense
// multiply yields every pairwise count at once.
func coOccurrence(d *mat.Dense, rows []int) *mat.Dense {
	sub := d
	if rows != nil {
		sub = subsetRows(d, rows)
	}
	_, c := sub.Dims()
	p := mat.NewDense(c, c, nil)
	p.Mul(sub.T(), sub)
	return p
}

// pairProduct builds the co-occurrence counts needed by pair testing and
// cross-cluster TP/TN: one product over the cluster of interest, one over
// the full population, and one per other cluster label.
func pairProduct(d *mat.Dense, rowsByLabel map[string][]int, cluster string) pairCounts {
	pc := pairCounts{
		inCls:   coOccurrence(d, rowsByLabel[cluster]),
		total:   coOccurrence(d, nil),
		byLabel: make(map[string]*mat.Dense),
		sizes:   make(map[string]int),
	}
	for label, rows := range rowsByLabel {
		pc.sizes[label] = len(rows)
		if label == cluster {
			continue
		}
		pc.byLabel[label] = coOccurrence(d, rows)
	}
	return pc
}

// count reads an integer co-occurrence count out of a product matrix.
func count(p *mat.Dense, i, j int) int {
	return int(math.Round(p.At(i, j)))
}

// pairTest enumerates every canonical gene pair (ascending index order,
// self-pairs and gene/own-complement pairs excluded), computes its
// hypergeometric significance, and attaches TP/TN rates for the cluster
// of interest and every other cluster. candidates, when non-nil, limits
// the reported pairs to genes in the candidate set (abbreviation mode);
// the counts themselves always cover the full gene set.
//
// Pairs are produced in deterministic enumeration order; the outer gene
// loop is partitioned across workers.
func pairTest(m *ExpressionMatrix, pc pairCounts, cluster string, clusterSize, population int,
	candidates []bool, workers int,
) ([]PairRecord, error) {
	nGenes := m.NGenes()

	labels := make([]string, 0, len(pc.byLabel))
	for label := range pc.byLabel {
		labels = append(labels, label)
	}

	perGene := make([][]PairRecord, nGenes)
	err := parallelRanges(nGenes, workers, func(start, end int) error {
		for i := start; i < end; i++ {
			if candidates != nil && !candidates[i] {
				continue
			}
			var recs []PairRecord
			for j := i + 1; j < nGenes; j++ {
				if j == m.Partner(i) {
					continue
				}
				if candidates != nil && !candidates[j] {
					continue
				}
				in := count(pc.inCls, i, j)
				tot := count(pc.total, i, j)
				r := PairRecord{
					GeneA:      m.Gene(i),
					GeneB:      m.Gene(j),
					PValue:     hypergeomSF(in, tot, clusterSize, population),
					InCount:    in,
					TotalCount: tot,
					OtherTPTN:  make(map[string]TPTN, len(labels)),
				}
				coi := tpTNFromCounts(in, tot, clusterSize, population)
				r.TP, r.TN = coi.TP, coi.TN
				for _, label := range labels {
					inOther := count(pc.byLabel[label], i, j)
					r.OtherTPTN[label] = tpTNFromCounts(inOther, tot, pc.sizes[label], population)
				}
				recs = append(recs, r)
			}
			perGene[i] = recs
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var out []PairRecord
	for _, recs := range perGene {
		out = append(out, recs...)
	}
	return out, nil
}
