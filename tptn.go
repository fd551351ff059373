package hgmd

// TPTN holds classification rates for one gene combination against one
// cluster partition. TP is the fraction of cluster cells expressing every
// gene in the tuple; TN is the fraction of non-cluster cells failing to
// express at least one of them.
type TPTN struct {
	TP float64
	TN float64
}

// tpTNFromCounts derives rates from co-occurrence counts already computed
// by the enumerator: inCount cells of the target cluster (size
// clusterSize) express the full tuple, totalCount cells of the whole
// population (size population) do. No co-occurrence is recomputed here,
// only aggregated against a cluster partition.
func tpTNFromCounts(inCount, totalCount, clusterSize, population int) TPTN {
	var r TPTN
	if clusterSize > 0 {
		r.TP = float64(inCount) / float64(clusterSize)
	}
	if out := population - clusterSize; out > 0 {
		r.TN = 1 - float64(totalCount-inCount)/float64(out)
	} else {
		r.TN = 1
	}
	return r
}
