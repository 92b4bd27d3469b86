package lens

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/tarstars/calibration_trees/golang/calibration/binning"
	"github.com/tarstars/calibration_trees/golang/calibration/errs"
)

// SplitGroups splits the classes 0..classes-1 into ngroups contiguous groups
// whose sizes differ by at most one, the larger groups first.
func SplitGroups(classes, ngroups int) ([][]int, error) {
	if ngroups < 1 {
		return nil, errs.InvalidParameterf("number of groups must be positive, got %d", ngroups)
	}
	if classes < 0 {
		return nil, errs.InvalidParameterf("number of classes must be non-negative, got %d", classes)
	}

	size, extra := classes/ngroups, classes%ngroups
	groups := make([][]int, ngroups)
	start := 0
	for ind := range groups {
		end := start + size
		if ind < extra {
			end++
		}
		groups[ind] = make([]int, 0, end-start)
		for class := start; class < end; class++ {
			groups[ind] = append(groups[ind], class)
		}
		start = end
	}
	return groups, nil
}

// GroupLens merges the classes of every group into one derived class. With
// Check set, the groups must cover every class exactly once.
type GroupLens struct {
	Groups [][]int
	Check  bool
}

// Apply returns the summed probabilities of every group and, for every sample,
// the index of the group containing its label.
func (g GroupLens) Apply(probs mat.Matrix, labels []int) (*mat.Dense, []int, error) {
	return Group(probs, labels, g.Groups, g.Check)
}

// ApplyOneHot returns the summed probabilities and outcomes of every group.
func (g GroupLens) ApplyOneHot(probs, outcomes mat.Matrix) (*mat.Dense, *mat.Dense, error) {
	return GroupOneHot(probs, outcomes, g.Groups, g.Check)
}

func (g GroupLens) String() string {
	return fmt.Sprintf("GroupLens(groups=%s, check_groups=%t)", formatGroups(g.Groups), g.Check)
}

// Group sums the probabilities of the classes in each group. The new label of a
// sample is the index of the group that contains its old label; labels outside
// every group map to 0.
func Group(probs mat.Matrix, labels []int, groups [][]int, check bool) (*mat.Dense, []int, error) {
	expanded := binning.Expand(probs)
	if err := checkLabels(expanded, labels); err != nil {
		return nil, nil, err
	}
	_, w := expanded.Dims()
	if err := checkGroups(groups, w, check); err != nil {
		return nil, nil, err
	}

	groupOf := make([]int, w)
	for ind, group := range groups {
		for _, class := range group {
			groupOf[class] = ind
		}
	}
	grouped := make([]int, len(labels))
	for p, label := range labels {
		grouped[p] = groupOf[label]
	}
	return sumGroups(expanded, groups), grouped, nil
}

// GroupOneHot sums the probabilities and the one-hot outcomes of the classes in each group.
func GroupOneHot(probs, outcomes mat.Matrix, groups [][]int, check bool) (*mat.Dense, *mat.Dense, error) {
	expanded, expandedOutcomes, err := checkOneHot(probs, outcomes)
	if err != nil {
		return nil, nil, err
	}
	_, w := expanded.Dims()
	if err := checkGroups(groups, w, check); err != nil {
		return nil, nil, err
	}
	return sumGroups(expanded, groups), sumGroups(expandedOutcomes, groups), nil
}

func sumGroups(m *mat.Dense, groups [][]int) *mat.Dense {
	h, _ := m.Dims()
	if h == 0 || len(groups) == 0 {
		return &mat.Dense{}
	}
	summed := mat.NewDense(h, len(groups), nil)
	for p := 0; p < h; p++ {
		for ind, group := range groups {
			sum := 0.0
			for _, class := range group {
				sum += m.At(p, class)
			}
			summed.Set(p, ind, sum)
		}
	}
	return summed
}

// checkGroups verifies that groups hold valid class indices and, when check
// is set, that they cover all classes exactly once.
func checkGroups(groups [][]int, classes int, check bool) error {
	if len(groups) == 0 {
		return errs.InvalidParameterf("at least one group is required")
	}
	covered := make([]int, classes)
	total := 0
	for _, group := range groups {
		for _, class := range group {
			if class < 0 || class >= classes {
				return errs.Shapef("class %d in groups is out of range [0, %d)", class, classes)
			}
			covered[class]++
			total++
		}
	}
	if !check {
		return nil
	}

	if total != classes {
		return errs.Shapef("expected number of targets in groups (%d) to match total number of targets (%d)", total, classes)
	}
	notCovered := 0
	for _, count := range covered {
		if count == 0 {
			notCovered++
		}
	}
	if notCovered > 0 {
		return errs.Shapef("expected all targets to be covered by groups (%d not covered)", notCovered)
	}
	return nil
}
