package binning

import (
	"gonum.org/v1/gonum/mat"
)

//Expand returns probs as an N×C matrix. A one-column matrix holds the probabilities of the
//first outcome of a binary problem and is expanded to the two columns [p, 1-p].
func Expand(probs mat.Matrix) *mat.Dense {
	h, w := probs.Dims()
	if h == 0 || w == 0 {
		return &mat.Dense{}
	}
	if w != 1 {
		return mat.DenseCopyOf(probs)
	}

	expanded := mat.NewDense(h, 2, nil)
	for p := 0; p < h; p++ {
		v := probs.At(p, 0)
		expanded.Set(p, 0, v)
		expanded.Set(p, 1, 1-v)
	}
	return expanded
}

//IsNil reports whether m holds no matrix: a nil interface or a nil *mat.Dense or *mat.VecDense.
func IsNil(m mat.Matrix) bool {
	switch m := m.(type) {
	case nil:
		return true
	case *mat.Dense:
		return m == nil
	case *mat.VecDense:
		return m == nil
	}
	return false
}

//Rows gathers the rows of data listed in indices into a new matrix.
//An empty index list gives an empty matrix.
func Rows(data mat.Matrix, indices []int) *mat.Dense {
	if len(indices) == 0 {
		return &mat.Dense{}
	}
	_, w := data.Dims()
	gathered := mat.NewDense(len(indices), w, nil)
	row := make([]float64, w)
	for ind, p := range indices {
		gathered.SetRow(ind, mat.Row(row, p, data))
	}
	return gathered
}

//Range returns the indices 0..n-1.
func Range(n int) []int {
	indices := make([]int, n)
	for p := range indices {
		indices[p] = p
	}
	return indices
}
