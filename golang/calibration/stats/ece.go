// Package stats estimates the expected calibration error (ECE) of predicted
// probabilities and the sampling distribution of that estimate.
package stats

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/tarstars/calibration_trees/golang/calibration/binning"
	"github.com/tarstars/calibration_trees/golang/calibration/distance"
	"github.com/tarstars/calibration_trees/golang/calibration/errs"
	"github.com/tarstars/calibration_trees/golang/calibration/sample"
)

// DefaultBins is the number of cells per axis of the binning used when none is given.
const DefaultBins = 10

// DefaultBinning returns the binning used when none is given.
func DefaultBinning() binning.Splitter {
	uniform, _ := binning.NewUniformBinning(DefaultBins)
	return uniform
}

// ECE estimates the expected calibration error of probs with respect to the
// one-hot outcomes, the binning scheme splitter and the distance measure dist.
//
// A nil outcomes, including a nil *mat.Dense, samples targets consistent with probs from rng. A nil dist
// selects the total variation distance and a nil splitter selects
// DefaultBinning. A one-column probs holds the probabilities of the first
// outcome of a binary problem, and so does a one-column outcomes.
func ECE(probs, outcomes mat.Matrix, dist distance.Distance, splitter binning.Splitter, rng sample.Source) (float64, error) {
	if splitter == nil {
		splitter = DefaultBinning()
	}

	tree := binning.NewTree(splitter).Fit(probs)
	binnedProbs, err := tree.BinData(nil)
	if err != nil {
		return 0, err
	}

	var binnedOutcomes []*mat.Dense
	if !binning.IsNil(outcomes) {
		expanded := binning.Expand(outcomes)
		expandedProbs, _ := tree.Probabilities()
		h, w := expandedProbs.Dims()
		outcomesH, outcomesW := expanded.Dims()
		if err := errs.BatchSizes(h, outcomesH); err != nil {
			return 0, err
		}
		if w != outcomesW {
			return 0, errs.Shapef("expected %d outcome classes, got %d", w, outcomesW)
		}
		if binnedOutcomes, err = tree.BinData(expanded); err != nil {
			return 0, err
		}
	}

	return ECEBinned(binnedProbs, binnedOutcomes, dist, rng)
}

// ECEBinned estimates the expected calibration error of probabilities that
// are already binned. binnedOutcomes holds the one-hot outcomes of the same
// bins; when it is nil, targets consistent with each bin are sampled from rng.
func ECEBinned(binnedProbs, binnedOutcomes []*mat.Dense, dist distance.Distance, rng sample.Source) (float64, error) {
	if len(binnedProbs) == 0 {
		return 0, errs.Shapef("expected at least one bin")
	}
	dist = distance.OrDefault(dist)

	probs := make([]*mat.Dense, len(binnedProbs))
	for ind, bin := range binnedProbs {
		probs[ind] = binning.Expand(bin)
	}

	outcomes, err := consistentOutcomes(probs, binnedOutcomes, rng)
	if err != nil {
		return 0, err
	}

	total := 0
	distances := make([]float64, len(probs))
	weights := make([]float64, len(probs))
	for ind := range probs {
		h, w := probs[ind].Dims()
		outcomesH, outcomesW := outcomes[ind].Dims()
		if err := errs.BatchSizes(h, outcomesH); err != nil {
			return 0, err
		}
		if w != outcomesW {
			return 0, errs.Shapef("expected %d outcome classes in bin %d, got %d", w, ind, outcomesW)
		}
		total += outcomesH
		weights[ind] = float64(outcomesH)
		distances[ind] = dist.Distance(columnMeans(probs[ind]), columnMeans(outcomes[ind]))
	}
	if total == 0 {
		return 0, errs.Shapef("expected at least one sample")
	}

	ece := 0.0
	for ind := range distances {
		ece += weights[ind] / float64(total) * distances[ind]
	}
	return ece, nil
}

// consistentOutcomes returns the expanded outcomes of every bin, sampling them
// from the probabilities when none are given.
func consistentOutcomes(probs, binnedOutcomes []*mat.Dense, rng sample.Source) ([]*mat.Dense, error) {
	if binnedOutcomes != nil {
		if len(binnedOutcomes) != len(probs) {
			return nil, errs.Shapef("expected %d bins of outcomes, got %d", len(probs), len(binnedOutcomes))
		}
		outcomes := make([]*mat.Dense, len(binnedOutcomes))
		for ind, bin := range binnedOutcomes {
			outcomes[ind] = binning.Expand(bin)
		}
		return outcomes, nil
	}

	if rng == nil {
		return nil, errs.InvalidParameterf("a random source is required to sample consistent targets")
	}
	_, classes := probs[0].Dims()
	outcomes := make([]*mat.Dense, len(probs))
	for ind, bin := range probs {
		targets, err := sample.ConsistentTargets(bin, rng)
		if err != nil {
			return nil, err
		}
		if outcomes[ind], err = sample.OneHot(targets, classes); err != nil {
			return nil, err
		}
	}
	return outcomes, nil
}

func columnMeans(m *mat.Dense) []float64 {
	_, w := m.Dims()
	means := make([]float64, w)
	for q := range means {
		means[q] = stat.Mean(mat.Col(nil, q, m), nil)
	}
	return means
}
