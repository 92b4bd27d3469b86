package binning

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/tarstars/calibration_trees/golang/calibration/errs"
)

//UniformBinning partitions every axis into cells of equal width. The root is cut along
//column 0, its children along column 1 and so on; the last column is never cut because it
//is determined by the others.
type UniformBinning struct {
	bins int
	cuts []float64
}

//NewUniformBinning creates a strategy with bins cells per axis.
func NewUniformBinning(bins int) (*UniformBinning, error) {
	if bins < 1 {
		return nil, errs.InvalidParameterf("number of bins must be positive, got %d", bins)
	}
	edges := floats.Span(make([]float64, bins+1), 0, 1)
	return &UniformBinning{bins: bins, cuts: edges[1:bins]}, nil
}

//Bins returns the number of cells per axis.
func (u *UniformBinning) Bins() int {
	return u.bins
}

//CutPoints returns the interior cell edges. The slice is shared and must not be modified.
func (u *UniformBinning) CutPoints() []float64 {
	return u.cuts
}

//Digitize returns the cell of v: the number of cut points less than or equal to v.
//Cells are closed on the left and open on the right, as numpy.digitize with right=False.
func Digitize(v float64, cuts []float64) int {
	return sort.Search(len(cuts), func(i int) bool { return cuts[i] > v })
}

//Split cuts parent along the axis given by its depth and recurses into the non-empty cells.
func (u *UniformBinning) Split(parent *Node, probs mat.Matrix) {
	if len(parent.Indices) == 0 {
		return
	}

	axis := parent.Depth
	_, w := probs.Dims()
	if axis+1 >= w {
		return
	}

	cells := make([][]int, len(u.cuts)+1)
	for _, p := range parent.Indices {
		cell := Digitize(probs.At(p, axis), u.cuts)
		cells[cell] = append(cells[cell], p)
	}

	children := make([]*Node, 0, len(cells))
	for cell, indices := range cells {
		if len(indices) > 0 {
			children = append(children, parent.NewChild(indices, cell))
		}
	}
	parent.Attach(axis, u.cuts, children...)

	for _, child := range children {
		u.Split(child, probs)
	}
}

func (u *UniformBinning) String() string {
	return fmt.Sprintf("UniformBinning(bins=%d)", u.bins)
}
