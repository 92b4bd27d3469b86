package score

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/tarstars/calibration_trees/golang/calibration/errs"
	"github.com/tarstars/calibration_trees/golang/calibration/sample"
)

func createBestWorst(t *testing.T) (labels []int, best, worst *mat.Dense) {
	rng := sample.New(1234)
	labels = make([]int, 20)
	shifted := make([]int, 20)
	for p := range labels {
		labels[p] = rng.Intn(5)
		shifted[p] = (labels[p] + 1) % 5
	}

	var err error
	best, err = sample.OneHot(labels, 5)
	require.NoError(t, err)
	worst, err = sample.OneHot(shifted, 5)
	require.NoError(t, err)
	return
}

func TestBestAndWorstScores(t *testing.T) {
	labels, best, worst := createBestWorst(t)

	for _, tc := range []struct {
		name        string
		best, worst float64
	}{
		{"logarithmic", 0, math.Inf(1)},
		{"quadratic", -1, 1},
		{"spherical", -1, 0},
	} {
		rule, err := ByName(tc.name)
		require.NoError(t, err)

		score, err := rule(best, labels)
		require.NoError(t, err)
		assert.Equal(t, tc.best, score, tc.name)

		score, err = rule(worst, labels)
		require.NoError(t, err)
		assert.Equal(t, tc.worst, score, tc.name)
	}
}

func TestUniformPrediction(t *testing.T) {
	probs := mat.NewDense(2, 2, []float64{0.5, 0.5, 0.5, 0.5})
	labels := []int{0, 1}

	score, err := Logarithmic(probs, labels)
	require.NoError(t, err)
	assert.InDelta(t, math.Ln2, score, 1e-12)

	score, err = Quadratic(probs, labels)
	require.NoError(t, err)
	assert.InDelta(t, -0.5, score, 1e-12)

	score, err = Spherical(probs, labels)
	require.NoError(t, err)
	assert.InDelta(t, -math.Sqrt2/2, score, 1e-12)

	vector, err := Quadratic(mat.NewVecDense(2, []float64{0.5, 0.5}), labels)
	require.NoError(t, err)
	assert.InDelta(t, -0.5, vector, 1e-12)
}

func TestScoreErrors(t *testing.T) {
	probs := mat.NewDense(2, 2, []float64{0.5, 0.5, 0.5, 0.5})

	_, err := Logarithmic(probs, []int{0})
	assert.True(t, errors.Is(err, errs.ErrShape))

	_, err = Spherical(probs, []int{0, 2})
	assert.True(t, errors.Is(err, errs.ErrShape))

	_, err = ByName("hinge")
	assert.True(t, errors.Is(err, errs.ErrInvalidParameter))
}
