// Package score implements proper scoring rules for probabilistic predictions.
// Lower scores are better.
package score

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/tarstars/calibration_trees/golang/calibration/binning"
	"github.com/tarstars/calibration_trees/golang/calibration/errs"
)

// Rule scores probabilities probs (N×C) against the observed labels.
type Rule func(probs mat.Matrix, labels []int) (float64, error)

// Names lists the scoring rules known to ByName, in report order.
var Names = []string{"logarithmic", "quadratic", "spherical"}

// ByName returns the scoring rule called name.
func ByName(name string) (Rule, error) {
	switch strings.ToLower(name) {
	case "log", "logarithmic":
		return Logarithmic, nil
	case "quadratic", "brier":
		return Quadratic, nil
	case "spherical":
		return Spherical, nil
	}
	return nil, errs.InvalidParameterf("score must be 'logarithmic', 'quadratic' or 'spherical', got %q", name)
}

// Logarithmic is the negative mean log probability of the observed labels.
// A zero probability of an observed label gives +Inf.
func Logarithmic(probs mat.Matrix, labels []int) (float64, error) {
	return meanOverRows(probs, labels, func(row []float64, label int) float64 {
		return -math.Log(row[label])
	})
}

// Quadratic is the mean of |p|² - 2 p_y, the Brier score shifted by one.
func Quadratic(probs mat.Matrix, labels []int) (float64, error) {
	return meanOverRows(probs, labels, func(row []float64, label int) float64 {
		return floats.Dot(row, row) - 2*row[label]
	})
}

// Spherical is the negative mean of p_y / |p|₂.
func Spherical(probs mat.Matrix, labels []int) (float64, error) {
	return meanOverRows(probs, labels, func(row []float64, label int) float64 {
		return -row[label] / floats.Norm(row, 2)
	})
}

func meanOverRows(probs mat.Matrix, labels []int, rowScore func(row []float64, label int) float64) (float64, error) {
	expanded := binning.Expand(probs)
	h, w := expanded.Dims()
	if err := errs.BatchSizes(h, len(labels)); err != nil {
		return 0, err
	}
	if h == 0 {
		return 0, errs.Shapef("unable to score an empty batch")
	}

	scores := make([]float64, h)
	row := make([]float64, w)
	for p, label := range labels {
		if label < 0 || label >= w {
			return 0, errs.Shapef("label %d of sample %d is out of range [0, %d)", label, p, w)
		}
		scores[p] = rowScore(mat.Row(row, p, expanded), label)
	}
	return stat.Mean(scores, nil), nil
}
