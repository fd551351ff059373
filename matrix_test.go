package hgmd

import (
	"errors"
	"reflect"
	"testing"
)

func TestNewExpressionMatrix_Validation(t *testing.T) {
	rows := [][]float64{{1, 2}, {3, 4}}

	if _, err := NewExpressionMatrix(nil, []string{"A"}, nil); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("no cells: err = %v, want ErrInvalidInput", err)
	}
	if _, err := NewExpressionMatrix([]string{"c1", "c2"}, nil, rows); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("no genes: err = %v, want ErrInvalidInput", err)
	}
	if _, err := NewExpressionMatrix([]string{"c1", "c1"}, []string{"A", "B"}, rows); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("duplicate cell: err = %v, want ErrInvalidInput", err)
	}
	// Case-normalization makes "abc" and "ABC" collide.
	if _, err := NewExpressionMatrix([]string{"c1", "c2"}, []string{"abc", "ABC"}, rows); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("duplicate gene: err = %v, want ErrInvalidInput", err)
	}
	if _, err := NewExpressionMatrix([]string{"c1", "c2"}, []string{"A", "B"}, [][]float64{{1}, {2, 3}}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("ragged row: err = %v, want ErrInvalidInput", err)
	}
}

func TestNewExpressionMatrix_Access(t *testing.T) {
	m, err := NewExpressionMatrix(
		[]string{"c1", "c2", "c3"},
		[]string{"actb", "Gapdh"},
		[][]float64{{1, 2}, {3, 4}, {5, 6}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if m.NCells() != 3 || m.NGenes() != 2 {
		t.Fatalf("dims = %d × %d, want 3 × 2", m.NCells(), m.NGenes())
	}
	if m.Gene(0) != "ACTB" || m.Gene(1) != "GAPDH" {
		t.Errorf("gene names not case-normalized: %q, %q", m.Gene(0), m.Gene(1))
	}
	if m.GeneIndex("gapdh") != 1 {
		t.Errorf("GeneIndex lookup is not case-insensitive")
	}
	if m.GeneIndex("missing") != -1 {
		t.Errorf("GeneIndex for unknown gene should be -1")
	}
	if m.Value(1, 1) != 4 {
		t.Errorf("Value(1,1) = %v, want 4", m.Value(1, 1))
	}
	if got := m.Column(1); !reflect.DeepEqual(got, []float64{2, 4, 6}) {
		t.Errorf("Column(1) = %v, want [2 4 6]", got)
	}
	if m.Partner(0) != -1 || m.IsComplement(0) {
		t.Errorf("fresh matrix should have no complements")
	}
}

func TestAddComplements(t *testing.T) {
	base, err := NewExpressionMatrix(
		[]string{"c1", "c2"},
		[]string{"A", "B"},
		[][]float64{{1, 2}, {3, 4}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m, err := AddComplements(base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if m.NGenes() != 4 {
		t.Fatalf("NGenes = %d, want 4", m.NGenes())
	}
	a, ac := m.GeneIndex("A"), m.GeneIndex("A_c")
	if a < 0 || ac < 0 {
		t.Fatalf("complement columns missing: A=%d A_c=%d", a, ac)
	}
	if m.Partner(a) != ac || m.Partner(ac) != a {
		t.Errorf("partner mapping broken: Partner(A)=%d, Partner(A_c)=%d", m.Partner(a), m.Partner(ac))
	}
	if m.IsComplement(a) || !m.IsComplement(ac) {
		t.Errorf("complement flags wrong")
	}
	// Complement columns carry the original expression values; only the
	// test semantics reverse.
	for i := 0; i < m.NCells(); i++ {
		if m.Value(i, a) != m.Value(i, ac) {
			t.Errorf("cell %d: complement value %v != base value %v", i, m.Value(i, ac), m.Value(i, a))
		}
	}

	if _, err := AddComplements(m); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("double complement: err = %v, want ErrInvalidInput", err)
	}
}

func TestClusterAssignment_Labels(t *testing.T) {
	a := ClusterAssignment{"c1": "2", "c2": "1", "c3": "2", "c4": "10"}
	want := []string{"1", "10", "2"}
	if got := a.Labels(); !reflect.DeepEqual(got, want) {
		t.Errorf("Labels() = %v, want %v", got, want)
	}
}

func TestMembership_UnassignedCell(t *testing.T) {
	m, err := NewExpressionMatrix(
		[]string{"c1", "c2"},
		[]string{"A"},
		[][]float64{{1}, {2}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, _, err := membership(m, ClusterAssignment{"c1": "1"}, "1"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("unassigned cell: err = %v, want ErrInvalidInput", err)
	}

	v, n, err := membership(m, ClusterAssignment{"c1": "1", "c2": "2"}, "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 || !v[0] || v[1] {
		t.Errorf("membership = %v (count %d), want [true false] (1)", v, n)
	}
}

func TestClusterRows_Partition(t *testing.T) {
	m, err := NewExpressionMatrix(
		[]string{"c1", "c2", "c3"},
		[]string{"A"},
		[][]float64{{1}, {2}, {3}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rows, err := clusterRows(m, ClusterAssignment{"c1": "x", "c2": "y", "c3": "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(rows["x"], []int{0, 2}) || !reflect.DeepEqual(rows["y"], []int{1}) {
		t.Errorf("clusterRows = %v", rows)
	}
}
