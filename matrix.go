package hgmd

import (
	"fmt"
	"sort"
	"strings"
)

// ExpressionMatrix holds real-valued gene expression for a cell population.
// Storage is flat row-major (cells × genes). Gene names are case-normalized
// and resolved to dense integer indices; all combination enumeration works
// on indices, never on name lookups.
//
// A matrix may carry "complement" columns: synthetic features representing
// non-expression of a gene, so that low expression can also be tested as a
// positive marker. Complement columns store the original expression values;
// the reversed semantics live in the cutoff search (ascending sort order)
// and the discretizer (reversed inequality).
type ExpressionMatrix struct {
	cells     []string
	genes     []string
	geneIndex map[string]int

	// partner[g] is the index of g's complement (for base genes) or base
	// gene (for complements), or -1 when g has no partner column.
	partner    []int
	complement []bool

	data []float64 // flat row-major, len = cells × genes
}

// NewExpressionMatrix builds a validated matrix from per-cell rows.
// Gene names are upper-cased; duplicates (after normalization) and
// duplicate cell identifiers are rejected. Every row must have one value
// per gene.
func NewExpressionMatrix(cells, genes []string, rows [][]float64) (*ExpressionMatrix, error) {
	if len(cells) == 0 || len(genes) == 0 {
		return nil, fmt.Errorf("%w: empty expression matrix (%d cells, %d genes)",
			ErrInvalidInput, len(cells), len(genes))
	}
	if len(rows) != len(cells) {
		return nil, fmt.Errorf("%w: %d rows for %d cells", ErrInvalidInput, len(rows), len(cells))
	}

	seenCells := make(map[string]bool, len(cells))
	for _, c := range cells {
		if seenCells[c] {
			return nil, fmt.Errorf("%w: duplicate cell %q", ErrInvalidInput, c)
		}
		seenCells[c] = true
	}

	normalized := make([]string, len(genes))
	geneIndex := make(map[string]int, len(genes))
	for i, g := range genes {
		name := strings.ToUpper(g)
		if _, dup := geneIndex[name]; dup {
			return nil, fmt.Errorf("%w: duplicate gene %q", ErrInvalidInput, name)
		}
		normalized[i] = name
		geneIndex[name] = i
	}

	data := make([]float64, len(cells)*len(genes))
	for i, row := range rows {
		if len(row) != len(genes) {
			return nil, fmt.Errorf("%w: row %q has %d values, want %d",
				ErrInvalidInput, cells[i], len(row), len(genes))
		}
		copy(data[i*len(genes):], row)
	}

	partner := make([]int, len(genes))
	for i := range partner {
		partner[i] = -1
	}

	return &ExpressionMatrix{
		cells:      append([]string(nil), cells...),
		genes:      normalized,
		geneIndex:  geneIndex,
		partner:    partner,
		complement: make([]bool, len(genes)),
		data:       data,
	}, nil
}

// AddComplements returns a new matrix with one complement column appended
// per existing gene, named "<GENE>_c". Matrices that already contain
// complements cannot be complemented again.
func AddComplements(m *ExpressionMatrix) (*ExpressionMatrix, error) {
	for g := range m.genes {
		if m.complement[g] {
			return nil, fmt.Errorf("%w: matrix already contains complement columns", ErrInvalidInput)
		}
	}

	nCells := len(m.cells)
	nBase := len(m.genes)
	nGenes := 2 * nBase

	genes := make([]string, nGenes)
	geneIndex := make(map[string]int, nGenes)
	partner := make([]int, nGenes)
	complementFlags := make([]bool, nGenes)
	for g := 0; g < nBase; g++ {
		genes[g] = m.genes[g]
		genes[nBase+g] = m.genes[g] + "_c"
		geneIndex[genes[g]] = g
		// Lookup keys are always upper-cased; the display name keeps the
		// lowercase suffix.
		geneIndex[strings.ToUpper(genes[nBase+g])] = nBase + g
		partner[g] = nBase + g
		partner[nBase+g] = g
		complementFlags[nBase+g] = true
	}

	data := make([]float64, nCells*nGenes)
	for i := 0; i < nCells; i++ {
		src := m.data[i*nBase : (i+1)*nBase]
		copy(data[i*nGenes:], src)
		copy(data[i*nGenes+nBase:], src)
	}

	return &ExpressionMatrix{
		cells:      append([]string(nil), m.cells...),
		genes:      genes,
		geneIndex:  geneIndex,
		partner:    partner,
		complement: complementFlags,
		data:       data,
	}, nil
}

// NCells returns the number of cells (rows).
func (m *ExpressionMatrix) NCells() int { return len(m.cells) }

// NGenes returns the number of gene columns, complements included.
func (m *ExpressionMatrix) NGenes() int { return len(m.genes) }

// Gene returns the name of gene column g.
func (m *ExpressionMatrix) Gene(g int) string { return m.genes[g] }

// GeneIndex returns the dense column index for a gene name, or -1.
func (m *ExpressionMatrix) GeneIndex(name string) int {
	if i, ok := m.geneIndex[strings.ToUpper(name)]; ok {
		return i
	}
	return -1
}

// IsComplement reports whether column g is a complement feature.
func (m *ExpressionMatrix) IsComplement(g int) bool { return m.complement[g] }

// Partner returns the index of g's complement or base column, or -1.
func (m *ExpressionMatrix) Partner(g int) int { return m.partner[g] }

// Cell returns the identifier of cell row i.
func (m *ExpressionMatrix) Cell(i int) string { return m.cells[i] }

// Value returns the expression of gene g in cell row i.
func (m *ExpressionMatrix) Value(i, g int) float64 {
	return m.data[i*len(m.genes)+g]
}

// Column copies the expression values of gene g, ordered by cell row.
func (m *ExpressionMatrix) Column(g int) []float64 {
	col := make([]float64, len(m.cells))
	for i := range m.cells {
		col[i] = m.data[i*len(m.genes)+g]
	}
	return col
}

// ClusterAssignment maps each cell identifier to its cluster label.
type ClusterAssignment map[string]string

// Labels returns the sorted set of distinct cluster labels.
func (a ClusterAssignment) Labels() []string {
	seen := make(map[string]bool, len(a))
	var labels []string
	for _, l := range a {
		if !seen[l] {
			seen[l] = true
			labels = append(labels, l)
		}
	}
	sort.Strings(labels)
	return labels
}

// membership returns, per matrix row, whether the cell belongs to label,
// along with the member count. Every matrix cell must be assigned.
func membership(m *ExpressionMatrix, a ClusterAssignment, label string) ([]bool, int, error) {
	v := make([]bool, m.NCells())
	count := 0
	for i := 0; i < m.NCells(); i++ {
		l, ok := a[m.Cell(i)]
		if !ok {
			return nil, 0, fmt.Errorf("%w: cell %q has no cluster assignment",
				ErrInvalidInput, m.Cell(i))
		}
		if l == label {
			v[i] = true
			count++
		}
	}
	return v, count, nil
}

// clusterRows returns the matrix row indices belonging to each cluster
// label, in row order. Row sets are disjoint and cover all cells.
func clusterRows(m *ExpressionMatrix, a ClusterAssignment) (map[string][]int, error) {
	rows := make(map[string][]int)
	for i := 0; i < m.NCells(); i++ {
		l, ok := a[m.Cell(i)]
		if !ok {
			return nil, fmt.Errorf("%w: cell %q has no cluster assignment",
				ErrInvalidInput, m.Cell(i))
		}
		rows[l] = append(rows[l], i)
	}
	return rows, nil
}
