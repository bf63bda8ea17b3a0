package features

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/kailas-cloud/cinedex/internal/domain"
)

// Reducer is a fitted truncated-SVD projection. Fields are plain slices
// so the transform gob-serializes; the gonum matrix is rebuilt on use.
type Reducer struct {
	Rows int       // input width (vocabulary size)
	Cols int       // components kept
	Data []float64 // row-major Rows x Cols projection matrix
}

// FitReducer factorizes the term-weight matrix X (documents x vocabulary)
// and keeps min(maxComponents, vocabulary, rank) right singular vectors.
// Returns the fitted reducer and the projected training matrix, one dense
// row per document.
func FitReducer(x *mat.Dense, maxComponents int) (*Reducer, [][]float64, error) {
	n, v := x.Dims()

	k := maxComponents
	if v < k {
		k = v
	}
	if n < k {
		k = n
	}
	if k <= 0 {
		return nil, nil, fmt.Errorf("cannot reduce %dx%d matrix to %d components", n, v, maxComponents)
	}

	var svd mat.SVD
	if ok := svd.Factorize(x, mat.SVDThin); !ok {
		return nil, nil, fmt.Errorf("svd factorization failed for %dx%d matrix", n, v)
	}

	var vt mat.Dense
	svd.VTo(&vt) // v x min(n, v)

	proj := mat.DenseCopyOf(vt.Slice(0, v, 0, k))
	r := &Reducer{Rows: v, Cols: k}
	r.Data = make([]float64, v*k)
	copy(r.Data, proj.RawMatrix().Data)

	var out mat.Dense
	out.Mul(x, proj) // n x k

	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		rows[i] = make([]float64, k)
		copy(rows[i], out.RawRowView(i))
	}
	return r, rows, nil
}

// Components returns the projection as a gonum matrix.
func (r *Reducer) Components() *mat.Dense {
	return mat.NewDense(r.Rows, r.Cols, r.Data)
}

// Transform projects a single term-weight row into the reduced space.
func (r *Reducer) Transform(row []float64) ([]float64, error) {
	if len(r.Data) == 0 {
		return nil, domain.ErrModelNotFitted
	}
	if len(row) != r.Rows {
		return nil, fmt.Errorf("row width %d does not match fitted width %d", len(row), r.Rows)
	}

	in := mat.NewDense(1, r.Rows, row)
	var out mat.Dense
	out.Mul(in, r.Components())

	res := make([]float64, r.Cols)
	copy(res, out.RawRowView(0))
	return res, nil
}
