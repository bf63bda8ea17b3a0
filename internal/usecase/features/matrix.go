package features

import "math"

// Matrix holds one dense feature vector per movie, positionally aligned
// with the catalog table. Immutable after Build; safe for concurrent
// readers.
type Matrix struct {
	rows [][]float64
	dim  int
}

// NewMatrix wraps pre-computed feature rows. All rows must share one
// width.
func NewMatrix(rows [][]float64) *Matrix {
	dim := 0
	if len(rows) > 0 {
		dim = len(rows[0])
	}
	return &Matrix{rows: rows, dim: dim}
}

// Len returns the number of rows.
func (m *Matrix) Len() int { return len(m.rows) }

// Dim returns the feature dimensionality, constant across rows.
func (m *Matrix) Dim() int { return m.dim }

// Row returns the feature vector at a catalog position. Callers must
// not mutate it.
func (m *Matrix) Row(i int) []float64 { return m.rows[i] }

// Centroid returns the arithmetic mean of the given rows.
func (m *Matrix) Centroid(positions []int) []float64 {
	c := make([]float64, m.dim)
	if len(positions) == 0 {
		return c
	}
	for _, p := range positions {
		for j, x := range m.rows[p] {
			c[j] += x
		}
	}
	inv := 1 / float64(len(positions))
	for j := range c {
		c[j] *= inv
	}
	return c
}

// Cosine returns the cosine similarity of two vectors, 0 when either
// has zero norm.
func Cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
