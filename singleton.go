package hgmd

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// SingletonRecord holds every per-gene test statistic for one cluster of
// interest, plus the fused rank assigned by rankSingletons.
type SingletonRecord struct {
	Gene string

	// HGStat is the XL-mHG statistic: the hypergeometric tail at the
	// optimal expression cutoff. MHGPval corrects it for the multiple
	// cutoffs examined.
	HGStat  float64
	MHGPval float64

	CutoffIndex int
	CutoffValue float64

	// Two-sample t-test of in-cluster vs out-of-cluster expression.
	TStat float64
	TPval float64

	// Benjamini-Hochberg q-value over all singleton mHG p-values.
	QValue float64

	// Log2FC is log2((meanIn + 1) / (meanOut + 1)).
	Log2FC float64

	// TP and TN are the true-positive and true-negative rates of the
	// discretized call against the cluster of interest. OtherTPTN holds
	// the same rates against every other cluster label.
	TP, TN    float64
	OtherTPTN map[string]TPTN

	// Rank is the fused integer rank, 1 = most significant.
	Rank int
}

// tTest runs a pooled two-sample t-test of sample against rest and
// returns the statistic and two-sided p-value. Degenerate inputs (too few
// cells, zero pooled variance) yield defined results, not errors.
func tTest(sample, rest []float64) (tStat, pval float64) {
	n1, n2 := float64(len(sample)), float64(len(rest))
	if n1 < 1 || n2 < 1 || n1+n2 < 3 {
		return 0, 1
	}

	m1, _ := stats.Mean(sample)
	m2, _ := stats.Mean(rest)
	v1, _ := stats.SampleVariance(sample)
	v2, _ := stats.SampleVariance(rest)

	df := n1 + n2 - 2
	pooled := ((n1-1)*v1 + (n2-1)*v2) / df
	if pooled <= 0 {
		if m1 == m2 {
			return 0, 1
		}
		t := math.Inf(1)
		if m1 < m2 {
			t = math.Inf(-1)
		}
		return t, 0
	}

	tStat = (m1 - m2) / math.Sqrt(pooled*(1/n1+1/n2))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	pval = 2 * dist.CDF(-math.Abs(tStat))
	if pval > 1 {
		pval = 1
	}
	return tStat, pval
}

// log2FoldChange compares in-cluster and out-of-cluster mean expression
// with a +1 pseudocount so zero-mean genes stay finite.
func log2FoldChange(sample, rest []float64) float64 {
	m1, _ := stats.Mean(sample)
	m2, _ := stats.Mean(rest)
	return math.Log2((m1 + 1) / (m2 + 1))
}

// splitByMembership partitions a gene column into in-cluster and
// out-of-cluster values.
func splitByMembership(col []float64, member []bool, clusterSize int) (sample, rest []float64) {
	sample = make([]float64, 0, clusterSize)
	rest = make([]float64, 0, len(col)-clusterSize)
	for i, v := range col {
		if member[i] {
			sample = append(sample, v)
		} else {
			rest = append(rest, v)
		}
	}
	return sample, rest
}

// batchSingleton runs the XL-mHG cutoff search, t-test, and fold change
// for every gene, in parallel across gene ranges. Records come back in
// gene-index order; a failure on any single gene aborts with an error
// naming it.
func batchSingleton(m *ExpressionMatrix, member []bool, clusterSize, X, L, workers int) ([]SingletonRecord, CutoffTable, error) {
	nGenes := m.NGenes()
	recs := make([]SingletonRecord, nGenes)
	cutoffs := make(CutoffTable, nGenes)

	err := parallelRanges(nGenes, workers, func(start, end int) error {
		for g := start; g < end; g++ {
			res, cut, err := findCutoff(m, member, g, X, L)
			if err != nil {
				return err
			}
			cutoffs[g] = cut

			col := m.Column(g)
			sample, rest := splitByMembership(col, member, clusterSize)
			tStat, tPval := tTest(sample, rest)

			recs[g] = SingletonRecord{
				Gene:        m.Gene(g),
				HGStat:      res.Stat,
				MHGPval:     res.PValue,
				CutoffIndex: cut.Index,
				CutoffValue: cut.Value,
				TStat:       tStat,
				TPval:       tPval,
				Log2FC:      log2FoldChange(sample, rest),
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("singleton testing: %w", err)
	}

	return recs, cutoffs, nil
}
