package hgmd

import (
	"math"
	"sort"
)

// histogramBins is the resolution of the diagnostic pair histogram.
const histogramBins = 20

// Histogram is the distribution of -log10 pair p-values across all
// enumerated pairs, exposed for external diagnostics. Counts[i] covers
// [Edges[i], Edges[i+1]).
type Histogram struct {
	Edges  []float64
	Counts []int
}

// rankSingletons fuses the per-gene statistics into the final singleton
// ordering: the average of the rank by mHG p-value (ascending, ties
// broken by statistic then enumeration order) and the rank by log2 fold
// change (descending), re-ranked into a dense integer rank column.
// Records are reordered in place by that rank; ranks are a total order
// with no duplicates.
func rankSingletons(recs []SingletonRecord) {
	n := len(recs)
	if n == 0 {
		return
	}

	byIdx := make([]int, n)
	for i := range byIdx {
		byIdx[i] = i
	}

	hgRank := make([]int, n)
	sort.SliceStable(byIdx, func(a, b int) bool {
		ra, rb := recs[byIdx[a]], recs[byIdx[b]]
		if ra.MHGPval != rb.MHGPval {
			return ra.MHGPval < rb.MHGPval
		}
		return ra.HGStat < rb.HGStat
	})
	for pos, i := range byIdx {
		hgRank[i] = pos + 1
	}

	fcRank := make([]int, n)
	for i := range byIdx {
		byIdx[i] = i
	}
	sort.SliceStable(byIdx, func(a, b int) bool {
		return recs[byIdx[a]].Log2FC > recs[byIdx[b]].Log2FC
	})
	for pos, i := range byIdx {
		fcRank[i] = pos + 1
	}

	fused := make([]float64, n)
	for i := range fused {
		fused[i] = float64(hgRank[i]+fcRank[i]) / 2
	}

	for i := range byIdx {
		byIdx[i] = i
	}
	sort.SliceStable(byIdx, func(a, b int) bool {
		return fused[byIdx[a]] < fused[byIdx[b]]
	})

	ordered := make([]SingletonRecord, n)
	for pos, i := range byIdx {
		ordered[pos] = recs[i]
		ordered[pos].Rank = pos + 1
	}
	copy(recs, ordered)
}

// rankPairs orders pairs by hypergeometric p-value ascending (ties keep
// enumeration order), assigns dense integer ranks, and returns the
// diagnostic histogram of -log10 p-values. TP/TN stay advisory columns;
// they do not influence the ordering.
func rankPairs(recs []PairRecord) Histogram {
	sort.SliceStable(recs, func(a, b int) bool {
		return recs[a].PValue < recs[b].PValue
	})
	pvals := make([]float64, len(recs))
	for i := range recs {
		recs[i].Rank = i + 1
		pvals[i] = recs[i].PValue
	}
	return pairHistogram(pvals)
}

// rankCombos orders triples or quadruples by p-value ascending with
// enumeration-order ties and assigns dense integer ranks.
func rankCombos(recs []ComboRecord) {
	sort.SliceStable(recs, func(a, b int) bool {
		return recs[a].PValue < recs[b].PValue
	})
	for i := range recs {
		recs[i].Rank = i + 1
	}
}

// pairHistogram bins -log10 p-values uniformly over their observed range.
func pairHistogram(pvals []float64) Histogram {
	if len(pvals) == 0 {
		return Histogram{}
	}

	logs := make([]float64, len(pvals))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, p := range pvals {
		// Floor at the smallest positive double so p = 0 stays finite.
		if p <= 0 {
			p = math.SmallestNonzeroFloat64
		}
		l := -math.Log10(p)
		logs[i] = l
		lo = math.Min(lo, l)
		hi = math.Max(hi, l)
	}
	if hi == lo {
		hi = lo + 1
	}

	h := Histogram{
		Edges:  make([]float64, histogramBins+1),
		Counts: make([]int, histogramBins),
	}
	width := (hi - lo) / histogramBins
	for i := range h.Edges {
		h.Edges[i] = lo + float64(i)*width
	}
	for _, l := range logs {
		bin := int((l - lo) / width)
		if bin >= histogramBins {
			bin = histogramBins - 1
		}
		h.Counts[bin]++
	}
	return h
}

// trimSingletons caps a ranked table at n rows without reordering the
// retained prefix. n <= 0 keeps everything.
func trimSingletons(recs []SingletonRecord, n int) []SingletonRecord {
	if n > 0 && len(recs) > n {
		return recs[:n]
	}
	return recs
}

func trimPairs(recs []PairRecord, n int) []PairRecord {
	if n > 0 && len(recs) > n {
		return recs[:n]
	}
	return recs
}

func trimCombos(recs []ComboRecord, n int) []ComboRecord {
	if n > 0 && len(recs) > n {
		return recs[:n]
	}
	return recs
}
