package hgmd

import (
	"fmt"
	"runtime"
	"sort"
)

// Config controls marker detection behavior.
// Start with [DefaultConfig] and override the fields you need.
type Config struct {
	// X is the XL-mHG lower bound: the minimum number of in-cluster
	// cells a cutoff must capture before it is considered. 0 leaves the
	// search unrestricted from below. Default: 1.
	X int

	// L is the XL-mHG upper bound: the maximum number of top-ranked
	// cells examined as cutoff candidates. 0 means the full population
	// (unrestricted). Must be >= X when set. Default: 0 (auto).
	L int

	// K is the maximum combination order. 2 produces singleton and pair
	// tables; 3 adds triples; 4 adds quadruples. Default: 2.
	K int

	// Abbrev enables the heuristic abbreviation: combination enumeration
	// for k >= 3 is restricted to the TopGenes best singleton-ranked
	// genes, and pair reporting is truncated to the same candidate set.
	// Pair counts are always computed over the full gene set. Default:
	// false.
	Abbrev bool

	// TopGenes is the candidate pool size used by Abbrev. It is a
	// pragmatic performance cutoff, not a principled threshold.
	// Default: 150.
	TopGenes int

	// Trim caps the number of rows returned per ranked table. 0 keeps
	// every row. Default: 2000.
	Trim int

	// Workers controls the number of goroutines for the parallel stages
	// (singleton testing, pair and combination enumeration). 0 means use
	// runtime.NumCPU(). Default: 0 (auto).
	Workers int
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		X:        1,
		K:        2,
		TopGenes: 150,
		Trim:     2000,
	}
}

// applyDefaults fills in zero-valued config fields with their defaults.
func applyDefaults(cfg *Config) {
	if cfg.K == 0 {
		cfg.K = 2
	}
	if cfg.TopGenes == 0 {
		cfg.TopGenes = 150
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
}

// validateConfig checks that cfg fields are valid and returns a
// descriptive error if not. Bounds involving the population size are
// checked in DetectMarkers once the matrix is known.
func validateConfig(cfg *Config) error {
	if cfg.X < 0 {
		return fmt.Errorf("%w: X must be >= 0, got %d", ErrInvalidInput, cfg.X)
	}
	if cfg.L != 0 && cfg.L < cfg.X {
		return fmt.Errorf("%w: L must be >= X (%d), got %d", ErrInvalidInput, cfg.X, cfg.L)
	}
	if cfg.K < 2 || cfg.K > 4 {
		return fmt.Errorf("%w: K must be in [2, 4], got %d", ErrInvalidInput, cfg.K)
	}
	if cfg.TopGenes < 3 {
		return fmt.Errorf("%w: TopGenes must be >= 3, got %d", ErrInvalidInput, cfg.TopGenes)
	}
	if cfg.Trim < 0 {
		return fmt.Errorf("%w: Trim must be >= 0, got %d", ErrInvalidInput, cfg.Trim)
	}
	return nil
}

// Result contains the ranked marker tables for one cluster of interest.
// Tables are immutable once returned; each invocation of DetectMarkers
// allocates its own intermediates, so concurrent invocations on disjoint
// inputs are safe.
type Result struct {
	// Cluster is the cluster-of-interest label this result describes.
	Cluster string

	// ClusterSize and Population are the cell counts behind every
	// hypergeometric test in the tables.
	ClusterSize int
	Population  int

	// Singletons is the fused per-gene ranking (complements included).
	Singletons []SingletonRecord

	// Pairs is the pair table ordered by hypergeometric p-value.
	Pairs []PairRecord

	// Triples and Quads are present when Config.K reaches 3 and 4.
	Triples []ComboRecord
	Quads   []ComboRecord

	// PairHistogram is the distribution of -log10 pair p-values across
	// all enumerated pairs, before trimming.
	PairHistogram Histogram
}

// DetectMarkers identifies the genes and gene combinations that best
// distinguish the given cluster from the rest of the population. The
// matrix should already contain complement columns (see [AddComplements])
// and be index-aligned with the assignment.
func DetectMarkers(m *ExpressionMatrix, assign ClusterAssignment, cluster string, cfg Config) (*Result, error) {
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	if m == nil || m.NCells() == 0 || m.NGenes() == 0 {
		return nil, fmt.Errorf("%w: empty expression matrix", ErrInvalidInput)
	}

	population := m.NCells()

	rowsByLabel, err := clusterRows(m, assign)
	if err != nil {
		return nil, err
	}
	if _, ok := rowsByLabel[cluster]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrClusterNotFound, cluster)
	}

	member, clusterSize, err := membership(m, assign, cluster)
	if err != nil {
		return nil, err
	}
	if clusterSize == 0 || clusterSize == population {
		return nil, fmt.Errorf("%w: cluster %q covers %d of %d cells",
			ErrDegenerateCluster, cluster, clusterSize, population)
	}

	// Resolve the XL-mHG bounds against the cluster and population.
	if cfg.X > clusterSize {
		return nil, fmt.Errorf("%w: X (%d) exceeds cluster size %d",
			ErrInvalidInput, cfg.X, clusterSize)
	}
	L := cfg.L
	if L == 0 {
		L = population
	}
	if L > population {
		return nil, fmt.Errorf("%w: L (%d) exceeds population size %d",
			ErrInvalidInput, L, population)
	}

	singletons, cutoffs, err := batchSingleton(m, member, clusterSize, cfg.X, L, cfg.Workers)
	if err != nil {
		return nil, err
	}

	pvals := make([]float64, len(singletons))
	for i := range singletons {
		pvals[i] = singletons[i].MHGPval
	}
	for i, q := range qValues(pvals) {
		singletons[i].QValue = q
	}

	candList, candMask := abbreviate(m, singletons, cfg)

	discrete := Discretize(m, cutoffs, nil)
	pc := pairProduct(discrete, rowsByLabel, cluster)

	attachSingletonTPTN(m, pc, singletons, cluster, clusterSize, population)

	pairs, err := pairTest(m, pc, cluster, clusterSize, population, candMask, cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("pair testing: %w", err)
	}
	pairPvals := make([]float64, len(pairs))
	for i := range pairs {
		pairPvals[i] = pairs[i].PValue
	}
	for i, q := range qValues(pairPvals) {
		pairs[i].QValue = q
	}

	result := &Result{
		Cluster:     cluster,
		ClusterSize: clusterSize,
		Population:  population,
	}

	if cfg.K >= 3 {
		triples, err := tripleTest(m, discrete, member, candList, clusterSize, population, cfg.Workers)
		if err != nil {
			return nil, err
		}
		rankCombos(triples)
		result.Triples = trimCombos(triples, cfg.Trim)
	}
	if cfg.K >= 4 {
		quads, err := quadTest(m, discrete, member, candList, clusterSize, population, cfg.Workers)
		if err != nil {
			return nil, err
		}
		rankCombos(quads)
		result.Quads = trimCombos(quads, cfg.Trim)
	}

	rankSingletons(singletons)
	result.PairHistogram = rankPairs(pairs)
	result.Singletons = trimSingletons(singletons, cfg.Trim)
	result.Pairs = trimPairs(pairs, cfg.Trim)

	return result, nil
}

// abbreviate resolves the combination candidate set: every gene when
// abbreviation is off, otherwise the TopGenes best genes by singleton
// XL-mHG significance. The list is returned in ascending gene-index
// order (canonical enumeration order); the mask is nil when abbreviation
// is off so pair reporting stays unrestricted.
func abbreviate(m *ExpressionMatrix, singletons []SingletonRecord, cfg Config) ([]int, []bool) {
	nGenes := m.NGenes()

	if !cfg.Abbrev || cfg.TopGenes >= nGenes {
		all := make([]int, nGenes)
		for g := range all {
			all[g] = g
		}
		if !cfg.Abbrev {
			return all, nil
		}
		mask := make([]bool, nGenes)
		for g := range mask {
			mask[g] = true
		}
		return all, mask
	}

	order := make([]int, nGenes)
	for g := range order {
		order[g] = g
	}
	// Significance order: statistic first, exact p-value as tiebreak;
	// the stable sort keeps gene index order beyond that.
	sort.SliceStable(order, func(a, b int) bool {
		ra, rb := singletons[order[a]], singletons[order[b]]
		if ra.HGStat != rb.HGStat {
			return ra.HGStat < rb.HGStat
		}
		return ra.MHGPval < rb.MHGPval
	})

	top := order[:cfg.TopGenes]
	mask := make([]bool, nGenes)
	for _, g := range top {
		mask[g] = true
	}
	list := make([]int, 0, len(top))
	for g := 0; g < nGenes; g++ {
		if mask[g] {
			list = append(list, g)
		}
	}
	return list, mask
}

// attachSingletonTPTN fills the TP/TN columns of the singleton records
// from the diagonal of the pair products: entry (g, g) is exactly the
// number of cells expressing gene g in the relevant subset.
func attachSingletonTPTN(m *ExpressionMatrix, pc pairCounts, recs []SingletonRecord,
	cluster string, clusterSize, population int,
) {
	for g := range recs {
		in := count(pc.inCls, g, g)
		tot := count(pc.total, g, g)
		rates := tpTNFromCounts(in, tot, clusterSize, population)
		recs[g].TP, recs[g].TN = rates.TP, rates.TN

		recs[g].OtherTPTN = make(map[string]TPTN, len(pc.byLabel))
		for label, p := range pc.byLabel {
			recs[g].OtherTPTN[label] = tpTNFromCounts(count(p, g, g), tot, pc.sizes[label], population)
		}
	}
}
