// Package sample draws the random quantities behind the calibration statistics:
// targets consistent with predicted probabilities and bootstrap resamples.
//
// All randomness comes from a caller supplied Source, so a fixed seed
// reproduces every result.
package sample

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/tarstars/calibration_trees/golang/calibration/binning"
	"github.com/tarstars/calibration_trees/golang/calibration/errs"
)

// Source is the random number generator used for sampling. *rand.Rand from
// golang.org/x/exp/rand satisfies it.
type Source interface {
	Float64() float64
	Intn(n int) int
}

// New returns a generator seeded with seed.
func New(seed uint64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// ConsistentTargets samples one target per row of probs from the categorical
// distribution the row describes. Exactly one uniform number is drawn per row,
// in row order.
func ConsistentTargets(probs mat.Matrix, rng Source) ([]int, error) {
	if rng == nil {
		return nil, errs.InvalidParameterf("a random source is required to sample targets")
	}
	expanded := binning.Expand(probs)
	h, w := expanded.Dims()
	if w < 2 {
		return nil, errs.Shapef("expected 2 or more classes (got %d)", w)
	}

	targets := make([]int, h)
	for p := 0; p < h; p++ {
		u := rng.Float64()
		if w == 2 {
			if u < expanded.At(p, 1) {
				targets[p] = 1
			}
			continue
		}

		// rounding can leave u above the last cumulative sum
		targets[p] = w - 1
		cumulative := 0.0
		for q := 0; q < w; q++ {
			cumulative += expanded.At(p, q)
			if u < cumulative {
				targets[p] = q
				break
			}
		}
	}
	return targets, nil
}

// OneHot encodes labels as rows of the identity matrix of size classes.
func OneHot(labels []int, classes int) (*mat.Dense, error) {
	if classes < 1 {
		return nil, errs.InvalidParameterf("number of classes must be positive, got %d", classes)
	}
	if len(labels) == 0 {
		return &mat.Dense{}, nil
	}
	onehot := mat.NewDense(len(labels), classes, nil)
	for p, label := range labels {
		if label < 0 || label >= classes {
			return nil, errs.Shapef("label %d of sample %d is out of range [0, %d)", label, p, classes)
		}
		onehot.Set(p, label, 1)
	}
	return onehot, nil
}

// Labels returns the column of the largest entry of each row.
func Labels(onehot mat.Matrix) []int {
	h, w := onehot.Dims()
	labels := make([]int, h)
	if w == 0 {
		return labels
	}
	row := make([]float64, w)
	for p := range labels {
		labels[p] = floats.MaxIdx(mat.Row(row, p, onehot))
	}
	return labels
}
