package binning

import (
	"gorgonia.org/tensor"

	"github.com/tarstars/calibration_trees/golang/calibration/errs"
)

//BinTensor splits an array of shape (N, ...) up into the bins along its leading dimension.
//Only float64 arrays are supported.
func (tree *Tree) BinTensor(data *tensor.Dense) ([]*tensor.Dense, error) {
	bins, err := tree.Bins()
	if err != nil {
		return nil, err
	}

	shape := data.Shape()
	if len(shape) == 0 {
		return nil, errs.Shapef("expected an array of at least one dimension, got a scalar")
	}
	h, _ := tree.probs.Dims()
	if err := errs.BatchSizes(h, shape[0]); err != nil {
		return nil, err
	}
	if data.Dtype() != tensor.Float64 {
		return nil, errs.InvalidParameterf("expected a float64 array, got %v", data.Dtype())
	}

	if data.IsView() {
		materialized, ok := data.Materialize().(*tensor.Dense)
		if !ok {
			return nil, errs.InvalidParameterf("unable to materialize a view of shape %v", shape)
		}
		data = materialized
	}
	backing, ok := data.Data().([]float64)
	if !ok {
		return nil, errs.InvalidParameterf("expected float64 backing data, got %T", data.Data())
	}

	stride := 1
	for _, d := range shape[1:] {
		stride *= d
	}

	binned := make([]*tensor.Dense, len(bins))
	for ind, bin := range bins {
		gathered := make([]float64, 0, len(bin)*stride)
		for _, p := range bin {
			gathered = append(gathered, backing[p*stride:(p+1)*stride]...)
		}
		binShape := append([]int{len(bin)}, shape[1:]...)
		binned[ind] = tensor.New(tensor.WithShape(binShape...), tensor.WithBacking(gathered))
	}
	return binned, nil
}
