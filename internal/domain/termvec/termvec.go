// Package termvec holds term-frequency matrices and their reductions.
package termvec

// Matrix is a dense term-frequency matrix: one row per document, one column
// per vocabulary term.
type Matrix struct {
	Rows       [][]float64
	Vocabulary []string
	// Corpus holds the document identifiers in row order.
	Corpus []string
}

// Dims returns the row and column counts.
func (m Matrix) Dims() (rows, cols int) {
	return len(m.Rows), len(m.Vocabulary)
}

// IsEmpty reports whether the matrix has no cells.
func (m Matrix) IsEmpty() bool {
	r, c := m.Dims()
	return r == 0 || c == 0
}

// Reduction is the output of a dimensionality reduction.
type Reduction struct {
	// VarianceRatios is the share of total variance kept by each output dimension.
	VarianceRatios []float64
	// Coords has one row per input row, each of the target dimension.
	// Empty when the input was degenerate.
	Coords [][]float64
}
