package stats

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/tarstars/calibration_trees/golang/calibration/binning"
	"github.com/tarstars/calibration_trees/golang/calibration/distance"
	"github.com/tarstars/calibration_trees/golang/calibration/sample"
)

// DefaultResamples is the number of resamples used when Estimator.Resamples is zero.
const DefaultResamples = 1000

// Estimator keeps the settings shared by the ECE statistics so they can be
// evaluated repeatedly on different data. The zero value uses the total
// variation distance, DefaultBinning and DefaultResamples; Rand has to be set
// for the randomized statistics.
type Estimator struct {
	Distance  distance.Distance
	Binning   binning.Splitter
	Rand      sample.Source
	Resamples int
}

func (e Estimator) resamples() int {
	if e.Resamples == 0 {
		return DefaultResamples
	}
	return e.Resamples
}

// ECE evaluates the expected calibration error, see ECE.
func (e Estimator) ECE(probs, outcomes mat.Matrix) (float64, error) {
	return ECE(probs, outcomes, e.Distance, e.Binning, e.Rand)
}

// Bootstrap evaluates the bootstrap estimate, see BootstrapECE.
func (e Estimator) Bootstrap(probs, outcomes mat.Matrix) (ece, std float64, err error) {
	return BootstrapECE(probs, outcomes, e.resamples(), e.Distance, e.Binning, e.Rand)
}

// Consistency evaluates the consistency resampling estimate, see ConsistencyECE.
func (e Estimator) Consistency(probs mat.Matrix) (mean, std float64, err error) {
	return ConsistencyECE(probs, e.resamples(), e.Distance, e.Binning, e.Rand)
}

func (e Estimator) String() string {
	b := e.Binning
	if b == nil {
		b = DefaultBinning()
	}
	return fmt.Sprintf("ECE(distance=%v, binning=%v, n=%d)", distance.OrDefault(e.Distance), b, e.resamples())
}
