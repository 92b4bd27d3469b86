// Package lens reduces a classification problem with many outcomes to a
// coarser one, so that calibration can be studied on the aspects of the
// predictions that matter, for instance the confidence of the top prediction.
//
// Every lens transforms probabilities together with the observed outcomes,
// given either as labels or as one-hot rows.
package lens

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/tarstars/calibration_trees/golang/calibration/binning"
	"github.com/tarstars/calibration_trees/golang/calibration/errs"
)

// Lens maps probabilities and outcomes of C classes to K derived classes.
type Lens interface {
	// Apply transforms probs (N×C) and labels in [0, C).
	Apply(probs mat.Matrix, labels []int) (*mat.Dense, []int, error)
	// ApplyOneHot transforms probs (N×C) and one-hot outcomes (N×C).
	ApplyOneHot(probs, outcomes mat.Matrix) (*mat.Dense, *mat.Dense, error)
}

// ByName returns the lens called name: "identity", "maximum", "top2" or
// "group". The group lens splits classes into ngroups contiguous groups.
func ByName(name string, classes, ngroups int) (Lens, error) {
	switch strings.ToLower(name) {
	case "", "identity", "none":
		return IdentityLens{}, nil
	case "max", "maximum":
		return MaximumLens{}, nil
	case "top2":
		return Top2Lens{}, nil
	case "group":
		groups, err := SplitGroups(classes, ngroups)
		if err != nil {
			return nil, err
		}
		return GroupLens{Groups: groups, Check: true}, nil
	}
	return nil, errs.InvalidParameterf("lens must be 'identity', 'maximum', 'top2' or 'group', got %q", name)
}

// IdentityLens leaves probabilities and outcomes untouched.
type IdentityLens struct{}

// Apply checks the shapes and returns a copy of probs.
func (IdentityLens) Apply(probs mat.Matrix, labels []int) (*mat.Dense, []int, error) {
	expanded := binning.Expand(probs)
	if err := checkLabels(expanded, labels); err != nil {
		return nil, nil, err
	}
	return expanded, labels, nil
}

// ApplyOneHot checks the shapes and returns copies of probs and outcomes.
func (IdentityLens) ApplyOneHot(probs, outcomes mat.Matrix) (*mat.Dense, *mat.Dense, error) {
	expanded, expandedOutcomes, err := checkOneHot(probs, outcomes)
	if err != nil {
		return nil, nil, err
	}
	return expanded, expandedOutcomes, nil
}

func (IdentityLens) String() string {
	return "IdentityLens()"
}

// checkLabels validates labels against the expanded probabilities.
func checkLabels(probs *mat.Dense, labels []int) error {
	h, w := probs.Dims()
	if err := errs.BatchSizes(h, len(labels)); err != nil {
		return err
	}
	for p, label := range labels {
		if label < 0 || label >= w {
			return errs.Shapef("label %d of sample %d is out of range [0, %d)", label, p, w)
		}
	}
	return nil
}

// checkOneHot expands probs and outcomes and validates their shapes.
func checkOneHot(probs, outcomes mat.Matrix) (*mat.Dense, *mat.Dense, error) {
	expanded := binning.Expand(probs)
	expandedOutcomes := binning.Expand(outcomes)
	h, w := expanded.Dims()
	outcomesH, outcomesW := expandedOutcomes.Dims()
	if err := errs.BatchSizes(h, outcomesH); err != nil {
		return nil, nil, err
	}
	if w != outcomesW {
		return nil, nil, errs.Shapef("expected number of targets (%d) to match number of targets (%d)", outcomesW, w)
	}
	return expanded, expandedOutcomes, nil
}

func formatGroups(groups [][]int) string {
	parts := make([]string, len(groups))
	for ind, group := range groups {
		parts[ind] = fmt.Sprint(group)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
