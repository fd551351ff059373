package hgmd

import "errors"

// Sentinel errors returned (wrapped) by the engine. Use errors.Is to test.
var (
	// ErrInvalidInput indicates malformed or inconsistent input data:
	// an empty matrix, a cluster label missing from the assignment, or
	// X/L bounds outside their valid ranges.
	ErrInvalidInput = errors.New("hgmd: invalid input")

	// ErrClusterNotFound indicates the requested cluster-of-interest label
	// does not appear in the cluster assignment.
	ErrClusterNotFound = errors.New("hgmd: cluster not found")

	// ErrDegenerateCluster indicates the cluster of interest is empty or
	// covers the entire population, making enrichment testing meaningless.
	ErrDegenerateCluster = errors.New("hgmd: degenerate cluster")
)
