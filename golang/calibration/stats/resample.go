package stats

import (
	"context"
	"log/slog"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/tarstars/calibration_trees/golang/calibration/binning"
	"github.com/tarstars/calibration_trees/golang/calibration/distance"
	"github.com/tarstars/calibration_trees/golang/calibration/errs"
	"github.com/tarstars/calibration_trees/golang/calibration/sample"
)

// BootstrapECE estimates the expected calibration error of probs with respect
// to outcomes, and the standard deviation of its sampling distribution from n
// bootstrap resamples drawn with rng.
func BootstrapECE(probs, outcomes mat.Matrix, n int, dist distance.Distance, splitter binning.Splitter, rng sample.Source) (ece, std float64, err error) {
	if binning.IsNil(outcomes) {
		return 0, 0, errs.InvalidParameterf("bootstrap requires observed outcomes")
	}
	if n < 1 {
		return 0, 0, errs.InvalidParameterf("number of resamples must be positive, got %d", n)
	}

	if ece, err = ECE(probs, outcomes, dist, splitter, rng); err != nil {
		return 0, 0, err
	}

	samples, err := sample.ResampleStats(func(data ...*mat.Dense) (float64, error) {
		return ECE(data[0], data[1], dist, splitter, rng)
	}, n, rng, probs, outcomes)
	if err != nil {
		return 0, 0, err
	}
	std = stat.PopStdDev(samples, nil)

	logResampling("bootstrap ece estimated", n, ece, std)
	return ece, std, nil
}

// ConsistencyECE estimates the mean and the standard deviation of the
// expected calibration error of probs under the assumption that the model is
// calibrated. Each of the n trials resamples probs with rng and draws targets
// consistent with the resampled probabilities.
func ConsistencyECE(probs mat.Matrix, n int, dist distance.Distance, splitter binning.Splitter, rng sample.Source) (mean, std float64, err error) {
	if n < 1 {
		return 0, 0, errs.InvalidParameterf("number of resamples must be positive, got %d", n)
	}

	samples, err := sample.ResampleStats(func(data ...*mat.Dense) (float64, error) {
		return ECE(data[0], nil, dist, splitter, rng)
	}, n, rng, probs)
	if err != nil {
		return 0, 0, err
	}
	mean, std = stat.PopMeanStdDev(samples, nil)

	logResampling("consistency ece estimated", n, mean, std)
	return mean, std, nil
}

func logResampling(msg string, n int, value, std float64) {
	if logger := slog.Default(); logger.Enabled(context.Background(), slog.LevelDebug) {
		logger.Debug(msg, "resamples", n, "ece", value, "std", std)
	}
}
