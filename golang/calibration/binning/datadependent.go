package binning

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/tarstars/calibration_trees/golang/calibration/errs"
)

//Threshold reduces the values of the split axis to the cut value.
type Threshold func(values []float64) float64

//Mean is the arithmetic mean of values.
func Mean(values []float64) float64 {
	return stat.Mean(values, nil)
}

//Median is the middle value of values, or the mean of the two middle values for an even count.
func Median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	h := len(sorted)
	if h%2 == 1 {
		return sorted[h/2]
	}
	return (sorted[h/2-1] + sorted[h/2]) / 2
}

//DataDependentBinning bisects the samples along the axis of highest variance until fewer
//than MinSize samples remain in a node. A nil Threshold cuts at the mean.
type DataDependentBinning struct {
	MinSize   int
	Threshold Threshold

	thresholdName string
}

//NewDataDependentBinning creates a strategy whose cut value is the "mean" or the "median"
//of the split axis.
func NewDataDependentBinning(minSize int, threshold string) (*DataDependentBinning, error) {
	var fn Threshold
	switch threshold {
	case "mean":
		fn = Mean
	case "median":
		fn = Median
	default:
		return nil, errs.InvalidParameterf("threshold must be 'mean', 'median', or a function, got %q", threshold)
	}
	return &DataDependentBinning{MinSize: minSize, Threshold: fn, thresholdName: threshold}, nil
}

//NewDataDependentBinningFunc creates a strategy with a custom cut value. A nil threshold
//falls back to Mean.
func NewDataDependentBinningFunc(minSize int, threshold Threshold) *DataDependentBinning {
	if threshold == nil {
		return &DataDependentBinning{MinSize: minSize, Threshold: Mean, thresholdName: "mean"}
	}
	return &DataDependentBinning{MinSize: minSize, Threshold: threshold, thresholdName: "func"}
}

//Split bisects parent into the samples below the threshold and the rest. The split is
//dropped when one side would be empty.
func (d *DataDependentBinning) Split(parent *Node, probs mat.Matrix) {
	indices := parent.Indices
	h := len(indices)
	if h == 0 || h < d.MinSize {
		return
	}

	rows := Rows(probs, indices)
	_, w := rows.Dims()
	column := make([]float64, h)
	variances := make([]float64, w)
	for q := 0; q < w; q++ {
		mat.Col(column, q, rows)
		variances[q] = stat.PopVariance(column, nil)
	}

	axis := floats.MaxIdx(variances)
	mat.Col(column, axis, rows)
	reduce := d.Threshold
	if reduce == nil {
		reduce = Mean
	}
	threshold := reduce(column)

	low, high := make([]int, 0), make([]int, 0)
	for ind, p := range indices {
		if column[ind] < threshold {
			low = append(low, p)
		} else {
			high = append(high, p)
		}
	}
	if len(low) == 0 || len(high) == 0 {
		return
	}

	lowNode := parent.NewChild(low, 0)
	highNode := parent.NewChild(high, 1)
	parent.Attach(axis, []float64{threshold}, lowNode, highNode)

	d.Split(lowNode, probs)
	d.Split(highNode, probs)
}

func (d *DataDependentBinning) String() string {
	name := d.thresholdName
	if name == "" {
		name = "mean"
		if d.Threshold != nil {
			name = "func"
		}
	}
	return fmt.Sprintf("DataDependentBinning(min_size=%d, threshold=%s)", d.MinSize, name)
}
