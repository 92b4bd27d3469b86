package sample

import (
	"gonum.org/v1/gonum/mat"

	"github.com/tarstars/calibration_trees/golang/calibration/binning"
	"github.com/tarstars/calibration_trees/golang/calibration/errs"
)

// ResampleStats evaluates statistic on n bootstrap resamples of data. Every
// resample draws N row indices with replacement, N being the shared row count
// of data, and gathers the same rows from each array. Results are returned in
// trial order.
func ResampleStats[T any](statistic func(data ...*mat.Dense) (T, error), n int, rng Source, data ...mat.Matrix) ([]T, error) {
	if n < 0 {
		return nil, errs.InvalidParameterf("number of resamples must be non-negative, got %d", n)
	}
	if rng == nil {
		return nil, errs.InvalidParameterf("a random source is required to resample")
	}
	if len(data) == 0 {
		return nil, errs.Shapef("expected at least one array to resample")
	}

	h, _ := data[0].Dims()
	for _, d := range data[1:] {
		dataH, _ := d.Dims()
		if err := errs.BatchSizes(h, dataH); err != nil {
			return nil, err
		}
	}
	if h == 0 {
		return nil, errs.Shapef("unable to resample an empty batch")
	}

	out := make([]T, 0, n)
	indices := make([]int, h)
	resampled := make([]*mat.Dense, len(data))
	for trial := 0; trial < n; trial++ {
		for p := range indices {
			indices[p] = rng.Intn(h)
		}
		for ind, d := range data {
			resampled[ind] = binning.Rows(d, indices)
		}

		value, err := statistic(resampled...)
		if err != nil {
			return nil, err
		}
		out = append(out, value)
	}
	return out, nil
}
