package lens

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/tarstars/calibration_trees/golang/calibration/binning"
	"github.com/tarstars/calibration_trees/golang/calibration/errs"
)

// MaximumLens reduces every prediction to its confidence: class 0 is the most
// likely class, class 1 all the others.
type MaximumLens struct{}

// Apply returns [max, 1-max] per row, and label 0 where the most likely class
// is the observed one, 1 otherwise.
func (MaximumLens) Apply(probs mat.Matrix, labels []int) (*mat.Dense, []int, error) {
	return Maximum(probs, labels)
}

// ApplyOneHot returns [max, 1-max] per row together with the matching one-hot outcomes.
func (MaximumLens) ApplyOneHot(probs, outcomes mat.Matrix) (*mat.Dense, *mat.Dense, error) {
	return MaximumOneHot(probs, outcomes)
}

func (MaximumLens) String() string {
	return "MaximumLens()"
}

// Top2Lens keeps the two most likely classes: class 0 is the most likely class,
// class 1 the second most likely one and class 2 all the others.
type Top2Lens struct{}

// Apply returns [p1, p2, 1-p1-p2] per row and the derived labels.
func (Top2Lens) Apply(probs mat.Matrix, labels []int) (*mat.Dense, []int, error) {
	return Top2(probs, labels)
}

// ApplyOneHot returns [p1, p2, 1-p1-p2] per row together with the matching one-hot outcomes.
func (Top2Lens) ApplyOneHot(probs, outcomes mat.Matrix) (*mat.Dense, *mat.Dense, error) {
	return Top2OneHot(probs, outcomes)
}

func (Top2Lens) String() string {
	return "Top2Lens()"
}

// topIndices returns, per row, the indices of the k largest probabilities in
// decreasing order. Ties go to the lower index.
func topIndices(probs *mat.Dense, k int) [][]int {
	h, w := probs.Dims()
	tops := make([][]int, h)
	row := make([]float64, w)
	for p := range tops {
		mat.Row(row, p, probs)
		tops[p] = make([]int, 0, k)
		for len(tops[p]) < k {
			best := floats.MaxIdx(row)
			tops[p] = append(tops[p], best)
			row[best] = math.Inf(-1)
		}
	}
	return tops
}

// reduce builds the rows [m[idx_0], ..., m[idx_k-1], 1 - sum] of the selected entries.
func reduce(m *mat.Dense, tops [][]int) *mat.Dense {
	if len(tops) == 0 {
		return &mat.Dense{}
	}
	k := len(tops[0])
	reduced := mat.NewDense(len(tops), k+1, nil)
	for p, top := range tops {
		rest := 1.0
		for ind, class := range top {
			v := m.At(p, class)
			reduced.Set(p, ind, v)
			rest -= v
		}
		reduced.Set(p, k, rest)
	}
	return reduced
}

// reduceLabels maps every label to its position among tops, or to len(top) if absent.
func reduceLabels(labels []int, tops [][]int) []int {
	reduced := make([]int, len(labels))
	for p, label := range labels {
		reduced[p] = len(tops[p])
		for ind, class := range tops[p] {
			if class == label {
				reduced[p] = ind
				break
			}
		}
	}
	return reduced
}

func topLabels(probs mat.Matrix, labels []int, k int) (*mat.Dense, []int, error) {
	expanded := binning.Expand(probs)
	if err := checkTop(expanded, k); err != nil {
		return nil, nil, err
	}
	if err := checkLabels(expanded, labels); err != nil {
		return nil, nil, err
	}
	tops := topIndices(expanded, k)
	return reduce(expanded, tops), reduceLabels(labels, tops), nil
}

func topOneHot(probs, outcomes mat.Matrix, k int) (*mat.Dense, *mat.Dense, error) {
	expanded, expandedOutcomes, err := checkOneHot(probs, outcomes)
	if err != nil {
		return nil, nil, err
	}
	if err := checkTop(expanded, k); err != nil {
		return nil, nil, err
	}
	tops := topIndices(expanded, k)
	return reduce(expanded, tops), reduce(expandedOutcomes, tops), nil
}

func checkTop(probs *mat.Dense, k int) error {
	if _, w := probs.Dims(); w < k {
		return errs.Shapef("expected at least %d classes, got %d", k, w)
	}
	return nil
}

// Maximum applies the maximum lens to labels.
func Maximum(probs mat.Matrix, labels []int) (*mat.Dense, []int, error) {
	return topLabels(probs, labels, 1)
}

// MaximumOneHot applies the maximum lens to one-hot outcomes.
func MaximumOneHot(probs, outcomes mat.Matrix) (*mat.Dense, *mat.Dense, error) {
	return topOneHot(probs, outcomes, 1)
}

// Top2 applies the top-2 lens to labels.
func Top2(probs mat.Matrix, labels []int) (*mat.Dense, []int, error) {
	return topLabels(probs, labels, 2)
}

// Top2OneHot applies the top-2 lens to one-hot outcomes.
func Top2OneHot(probs, outcomes mat.Matrix) (*mat.Dense, *mat.Dense, error) {
	return topOneHot(probs, outcomes, 2)
}
