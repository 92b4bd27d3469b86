//Package binning partitions the probability simplex into bins with a binning tree grown by a
//pluggable splitting strategy.
package binning

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/tarstars/calibration_trees/golang/calibration/errs"
)

//Node is a region of the probability simplex. A leaf owns the indices of the samples routed
//to it. An internal node owns no samples; it keeps the axis and the cut values its children
//were split by, and the children partition the samples it once held.
type Node struct {
	Indices        []int
	Depth          int
	SplitIndex     int // ordinal of the bucket this node was cut into, -1 for the root
	SplitAxis      int // -1 if it is a leaf
	SplitThreshold []float64
	Children       []*Node
}

//NewNode creates a leaf node holding indices.
func NewNode(indices []int) *Node {
	return &Node{Indices: indices, SplitIndex: -1, SplitAxis: -1}
}

//NewChild creates a leaf one level below node. The child is not attached yet.
func (node *Node) NewChild(indices []int, splitIndex int) *Node {
	child := NewNode(indices)
	child.Depth = node.Depth + 1
	child.SplitIndex = splitIndex
	return child
}

//IsLeaf returns whether the node has no children.
func (node *Node) IsLeaf() bool {
	return len(node.Children) == 0
}

//Attach turns node into an internal node: children take over its samples and node forgets them.
func (node *Node) Attach(axis int, threshold []float64, children ...*Node) {
	node.SplitAxis = axis
	node.SplitThreshold = threshold
	node.Children = append(node.Children, children...)
	node.Indices = nil
}

//Walk visits node and its descendants in pre-order, children left to right.
func (node *Node) Walk(visit func(*Node)) {
	visit(node)
	for _, child := range node.Children {
		child.Walk(visit)
	}
}

//Describe returns a one-line description of the node used in debug output.
func (node *Node) Describe() string {
	if node.IsLeaf() {
		return fmt.Sprintf("leaf #%d depth=%d", len(node.Indices), node.Depth)
	}
	return fmt.Sprintf("split f_%d at %v depth=%d children=%d", node.SplitAxis, node.SplitThreshold, node.Depth, len(node.Children))
}

//Splitter partitions the samples of parent, attaches the resulting children and recurses into
//them. probs holds the probabilities of all N samples; node indices refer to its rows.
type Splitter interface {
	Split(parent *Node, probs mat.Matrix)
}

//Tree bins samples by recursively splitting their indices along the axes of the simplex.
type Tree struct {
	Splitter Splitter

	root   *Node
	probs  *mat.Dense
	fitted bool
}

//NewTree creates an unfitted tree that grows with splitter.
func NewTree(splitter Splitter) *Tree {
	return &Tree{Splitter: splitter}
}

//Fit builds the tree for probs from scratch, discarding any previous tree. A one-column
//matrix is read as the probabilities of the first outcome of a binary problem.
func (tree *Tree) Fit(probs mat.Matrix) *Tree {
	tree.probs = Expand(probs)
	h, w := tree.probs.Dims()

	tree.root = NewNode(Range(h))
	tree.Splitter.Split(tree.root, tree.probs)
	tree.fitted = true

	if logger := slog.Default(); logger.Enabled(context.Background(), slog.LevelDebug) {
		logger.Debug("binning tree fitted", "splitter", tree.Splitter, "samples", h, "classes", w, "bins", len(tree.Leaves()))
	}
	return tree
}

//Fitted reports whether Fit has been called.
func (tree *Tree) Fitted() bool {
	return tree.fitted
}

//Root returns the root node, nil before Fit.
func (tree *Tree) Root() *Node {
	return tree.root
}

//Probabilities returns the expanded probabilities the tree was fitted to.
func (tree *Tree) Probabilities() (*mat.Dense, error) {
	if !tree.fitted {
		return nil, errs.ErrNotFitted
	}
	return tree.probs, nil
}

//Leaves returns the non-empty leaves in pre-order.
func (tree *Tree) Leaves() []*Node {
	var leaves []*Node
	if tree.root == nil {
		return leaves
	}
	tree.root.Walk(func(node *Node) {
		if node.IsLeaf() && len(node.Indices) > 0 {
			leaves = append(leaves, node)
		}
	})
	return leaves
}

//Bins returns the sample indices of every bin.
func (tree *Tree) Bins() ([][]int, error) {
	if !tree.fitted {
		return nil, errs.ErrNotFitted
	}
	leaves := tree.Leaves()
	bins := make([][]int, len(leaves))
	for ind, leaf := range leaves {
		bins[ind] = leaf.Indices
	}
	return bins, nil
}

//NumBins returns the number of bins.
func (tree *Tree) NumBins() (int, error) {
	if !tree.fitted {
		return 0, errs.ErrNotFitted
	}
	return len(tree.Leaves()), nil
}

//BinNumbers returns the bin number of each sample.
func (tree *Tree) BinNumbers() ([]int, error) {
	if !tree.fitted {
		return nil, errs.ErrNotFitted
	}
	h, _ := tree.probs.Dims()
	binNumbers := make([]int, h)
	for ind, leaf := range tree.Leaves() {
		for _, p := range leaf.Indices {
			binNumbers[p] = ind
		}
	}
	return binNumbers, nil
}

//BinData splits the rows of data up into the bins. data must have as many rows as the
//probabilities the tree was fitted to; a nil data, or a nil *mat.Dense, bins the fitted
//probabilities.
func (tree *Tree) BinData(data mat.Matrix) ([]*mat.Dense, error) {
	bins, err := tree.Bins()
	if err != nil {
		return nil, err
	}
	if IsNil(data) {
		data = tree.probs
	}
	h, _ := tree.probs.Dims()
	dataH, _ := data.Dims()
	if err := errs.BatchSizes(h, dataH); err != nil {
		return nil, err
	}

	binned := make([]*mat.Dense, len(bins))
	for ind, bin := range bins {
		binned[ind] = Rows(data, bin)
	}
	return binned, nil
}

//String draws the tree structure, one node per line.
func (tree *Tree) String() string {
	if tree.root == nil {
		return "BinningTree(unfitted)"
	}
	var sb strings.Builder
	tree.root.Walk(func(node *Node) {
		sb.WriteString(strings.Repeat("  ", node.Depth))
		sb.WriteString(node.Describe())
		sb.WriteString("\n")
	})
	return sb.String()
}
