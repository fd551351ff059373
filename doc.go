// Package hgmd implements hypergeometric marker detection for single-cell
// gene expression data.
//
// Given an expression matrix (cells × genes) and a cluster assignment, the
// engine finds the genes and gene combinations that best distinguish one
// cluster from the rest of the population: it picks an optimal expression
// cutoff per gene with the XL-mHG test, discretizes expression into binary
// expressed/not-expressed calls, enumerates gene combinations of size up
// to four, scores each with an exact hypergeometric test plus
// true-positive/true-negative rates, and fuses the criteria into ranked
// marker tables.
//
// Basic usage:
//
//	exp, err := hgmd.NewExpressionMatrix(cells, genes, rows)
//	exp, err = hgmd.AddComplements(exp)
//	cfg := hgmd.DefaultConfig()
//	cfg.K = 3
//	result, err := hgmd.DetectMarkers(exp, assignment, "7", cfg)
//	// result.Singletons, result.Pairs, result.Triples are ranked tables
//
// The engine is pure computation: it reads nothing from disk, performs no
// I/O, and is deterministic for a given input. Each DetectMarkers call
// allocates its own intermediates, so callers may analyze different
// clusters concurrently from separate goroutines.
//
// # Combinatorial growth control
//
// Pair counts come from a single dense matrix product and always cover
// the full gene set. Triples and quadruples grow as O(G³) and O(G⁴);
// setting Config.Abbrev restricts their candidate pool to the
// Config.TopGenes best singleton-ranked genes, bounding the enumeration
// independently of the total gene count.
package hgmd
