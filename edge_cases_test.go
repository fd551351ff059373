package hgmd

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestDetectMarkers_ClusterNotFound(t *testing.T) {
	m, assign := scenarioMatrix(t)
	if _, err := DetectMarkers(m, assign, "42", DefaultConfig()); !errors.Is(err, ErrClusterNotFound) {
		t.Errorf("err = %v, want ErrClusterNotFound", err)
	}
}

func TestDetectMarkers_DegenerateCluster(t *testing.T) {
	m, _ := scenarioMatrix(t)
	all := make(ClusterAssignment, m.NCells())
	for i := 0; i < m.NCells(); i++ {
		all[m.Cell(i)] = "only"
	}
	if _, err := DetectMarkers(m, all, "only", DefaultConfig()); !errors.Is(err, ErrDegenerateCluster) {
		t.Errorf("err = %v, want ErrDegenerateCluster", err)
	}
}

func TestDetectMarkers_UnassignedCell(t *testing.T) {
	m, assign := scenarioMatrix(t)
	delete(assign, m.Cell(5))
	if _, err := DetectMarkers(m, assign, "1", DefaultConfig()); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestDetectMarkers_XExceedsClusterSize(t *testing.T) {
	// X larger than the cluster can never be satisfied by any cutoff;
	// rejecting it beats returning a table of all-uninformative stats.
	m, assign := scenarioMatrix(t)
	cfg := DefaultConfig()
	cfg.X = 5
	if _, err := DetectMarkers(m, assign, "1", cfg); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("X=5 on a 3-cell cluster: err = %v, want ErrInvalidInput", err)
	}

	// X equal to the cluster size is the tightest valid bound.
	cfg.X = 3
	if _, err := DetectMarkers(m, assign, "1", cfg); err != nil {
		t.Errorf("X=3 on a 3-cell cluster: unexpected error %v", err)
	}
}

func TestDetectMarkers_NilMatrix(t *testing.T) {
	if _, err := DetectMarkers(nil, ClusterAssignment{}, "1", DefaultConfig()); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestDetectMarkers_SingleCellCluster(t *testing.T) {
	m, assign := scenarioMatrix(t)
	assign[m.Cell(1)] = "2"
	assign[m.Cell(2)] = "2"

	res, err := DetectMarkers(m, assign, "1", DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ClusterSize != 1 {
		t.Fatalf("cluster size = %d, want 1", res.ClusterSize)
	}
	// The lone cluster cell carries the top value of both A and B: the
	// best prefix is the first cell, tail 1/10.
	top := res.Singletons[0]
	if top.Gene != "A" && top.Gene != "B" {
		t.Errorf("top gene = %s, want A or B", top.Gene)
	}
	if !almostEqual(top.HGStat, 0.1, floatTol) {
		t.Errorf("top stat = %v, want 0.1", top.HGStat)
	}
}

// randomMatrix plants a marker structure for cluster "1" (first quarter of
// cells) in the first genes and fills the rest with noise.
func randomMatrix(t *testing.T, nCells, nGenes int) (*ExpressionMatrix, ClusterAssignment) {
	t.Helper()
	rng := rand.New(rand.NewSource(7))

	cells := make([]string, nCells)
	rows := make([][]float64, nCells)
	assign := make(ClusterAssignment, nCells)
	for i := 0; i < nCells; i++ {
		cells[i] = cellName(i)
		inCluster := i < nCells/4
		if inCluster {
			assign[cells[i]] = "1"
		} else {
			assign[cells[i]] = "2"
		}
		row := make([]float64, nGenes)
		for g := range row {
			v := rng.Float64()
			if g < 3 && inCluster {
				v += 2 // planted markers
			}
			row[g] = v
		}
		rows[i] = row
	}

	genes := make([]string, nGenes)
	for g := range genes {
		genes[g] = "G" + string(rune('A'+g))
	}
	base, err := NewExpressionMatrix(cells, genes, rows)
	if err != nil {
		t.Fatalf("NewExpressionMatrix: %v", err)
	}
	m, err := AddComplements(base)
	if err != nil {
		t.Fatalf("AddComplements: %v", err)
	}
	return m, assign
}

func TestDetectMarkers_HigherOrdersFinite(t *testing.T) {
	m, assign := randomMatrix(t, 40, 8)

	cfg := DefaultConfig()
	cfg.K = 4
	cfg.Abbrev = true
	cfg.TopGenes = 6
	res, err := DetectMarkers(m, assign, "1", cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Triples) == 0 || len(res.Quads) == 0 {
		t.Fatalf("expected triple and quadruple tables, got %d and %d",
			len(res.Triples), len(res.Quads))
	}
	checkCombos := func(name string, recs []ComboRecord, arity int) {
		prev := math.Inf(-1)
		for _, r := range recs {
			if len(r.Genes) != arity {
				t.Fatalf("%s: %v has %d genes, want %d", name, r.Genes, len(r.Genes), arity)
			}
			if math.IsNaN(r.PValue) || r.PValue < 0 || r.PValue > 1 {
				t.Fatalf("%s %v: PValue %v out of range", name, r.Genes, r.PValue)
			}
			if r.PValue < prev {
				t.Fatalf("%s table not sorted by p-value", name)
			}
			prev = r.PValue
			if r.InCount > r.TotalCount {
				t.Fatalf("%s %v: in %d > total %d", name, r.Genes, r.InCount, r.TotalCount)
			}
		}
	}
	checkCombos("triples", res.Triples, 3)
	checkCombos("quads", res.Quads, 4)

	// A planted marker should surface at the top of the singleton table.
	if res.Singletons[0].MHGPval > 0.01 {
		t.Errorf("planted marker not significant: top p = %v", res.Singletons[0].MHGPval)
	}
}

func TestDetectMarkers_AbbrevRestrictsPairs(t *testing.T) {
	m, assign := randomMatrix(t, 40, 8)

	full, err := DetectMarkers(m, assign, "1", DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg := DefaultConfig()
	cfg.Abbrev = true
	cfg.TopGenes = 5
	abbrev, err := DetectMarkers(m, assign, "1", cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(abbrev.Pairs) >= len(full.Pairs) {
		t.Errorf("abbreviation did not shrink the pair table: %d vs %d",
			len(abbrev.Pairs), len(full.Pairs))
	}
	// At most C(5,2) candidate pairs survive the mask.
	if len(abbrev.Pairs) > 10 {
		t.Errorf("abbreviated pair table has %d rows, want <= 10", len(abbrev.Pairs))
	}
}

func TestDetectMarkers_AbbrevRestrictsCombosToTopGenes(t *testing.T) {
	// Eight genes mark the cluster exactly; two express only outside it
	// and test strictly worse. With TopGenes = 8 the combination candidate
	// pool is exactly the eight markers, so enumeration yields the full
	// C(8,3) and C(8,4) tuple sets and never touches the other two genes.
	const nCells = 20
	genes := []string{"M0", "M1", "M2", "M3", "M4", "M5", "M6", "M7", "N8", "N9"}

	cells := make([]string, nCells)
	rows := make([][]float64, nCells)
	assign := make(ClusterAssignment, nCells)
	for i := 0; i < nCells; i++ {
		cells[i] = cellName(i)
		if i < 5 {
			assign[cells[i]] = "1"
		} else {
			assign[cells[i]] = "2"
		}
		row := make([]float64, len(genes))
		for g := 0; g < 8; g++ {
			if i < 5 {
				row[g] = 5
			}
		}
		if i >= 5 && i < 10 {
			row[8] = 5
		}
		if i >= 10 && i < 15 {
			row[9] = 5
		}
		rows[i] = row
	}
	m, err := NewExpressionMatrix(cells, genes, rows)
	if err != nil {
		t.Fatalf("NewExpressionMatrix: %v", err)
	}

	cfg := DefaultConfig()
	cfg.K = 4
	cfg.Abbrev = true
	cfg.TopGenes = 8
	cfg.Trim = 0
	res, err := DetectMarkers(m, assign, "1", cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Pairs) != 28 {
		t.Errorf("got %d pairs, want C(8,2) = 28", len(res.Pairs))
	}
	if len(res.Triples) != 56 {
		t.Errorf("got %d triples, want C(8,3) = 56", len(res.Triples))
	}
	if len(res.Quads) != 70 {
		t.Errorf("got %d quadruples, want C(8,4) = 70", len(res.Quads))
	}

	seen := make(map[string]bool)
	for _, r := range res.Triples {
		for _, g := range r.Genes {
			if g == "N8" || g == "N9" {
				t.Fatalf("triple %v contains a non-candidate gene", r.Genes)
			}
			seen[g] = true
		}
	}
	if len(seen) != 8 {
		t.Errorf("triples span %d distinct genes, want exactly 8", len(seen))
	}
}
