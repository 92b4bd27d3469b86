package lens

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/tarstars/calibration_trees/golang/calibration/errs"
	"github.com/tarstars/calibration_trees/golang/calibration/sample"
)

const (
	testSamples = 1000
	testClasses = 10
)

func createTestData(t *testing.T) (probs *mat.Dense, labels []int, onehot *mat.Dense) {
	rng := rand.New(rand.NewSource(1234))
	probs = mat.NewDense(testSamples, testClasses, nil)
	row := make([]float64, testClasses)
	labels = make([]int, testSamples)
	for p := 0; p < testSamples; p++ {
		for q := range row {
			row[q] = rng.ExpFloat64()
		}
		floats.Scale(1/floats.Sum(row), row)
		probs.SetRow(p, row)
		labels[p] = rng.Intn(testClasses)
	}
	onehot, err := sample.OneHot(labels, testClasses)
	require.NoError(t, err)
	return
}

func assertRowsSumToOne(t *testing.T, m *mat.Dense) {
	h, w := m.Dims()
	row := make([]float64, w)
	for p := 0; p < h; p++ {
		require.InDelta(t, 1, floats.Sum(mat.Row(row, p, m)), 1e-9, "row %d", p)
	}
}

func TestSplitGroups(t *testing.T) {
	groups, err := SplitGroups(10, 3)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 1, 2, 3}, {4, 5, 6}, {7, 8, 9}}, groups)

	groups, err = SplitGroups(2, 3)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0}, {1}, {}}, groups)

	_, err = SplitGroups(10, 0)
	assert.True(t, errors.Is(err, errs.ErrInvalidParameter))
}

func TestGroup(t *testing.T) {
	probs, labels, onehot := createTestData(t)
	groups, err := SplitGroups(testClasses, 3)
	require.NoError(t, err)

	groupProbs, groupLabels, err := Group(probs, labels, groups, true)
	require.NoError(t, err)
	assertRowsSumToOne(t, groupProbs)

	for ind, group := range groups {
		for p := 0; p < testSamples; p++ {
			sum := 0.0
			for _, class := range group {
				sum += probs.At(p, class)
			}
			require.Equal(t, sum, groupProbs.At(p, ind))

			inGroup := labels[p] >= group[0] && labels[p] <= group[len(group)-1]
			require.Equal(t, inGroup, groupLabels[p] == ind)
		}
	}

	onehotProbs, onehotOutcomes, err := GroupOneHot(probs, onehot, groups, true)
	require.NoError(t, err)
	assert.True(t, mat.Equal(groupProbs, onehotProbs))
	want, err := sample.OneHot(groupLabels, len(groups))
	require.NoError(t, err)
	assert.True(t, mat.Equal(want, onehotOutcomes))

	lens, err := ByName("group", testClasses, 3)
	require.NoError(t, err)
	lensProbs, lensLabels, err := lens.Apply(probs, labels)
	require.NoError(t, err)
	assert.True(t, mat.Equal(groupProbs, lensProbs))
	assert.Equal(t, groupLabels, lensLabels)
	assert.Equal(t, "GroupLens(groups=[[0 1 2 3] [4 5 6] [7 8 9]], check_groups=true)", fmt.Sprint(lens))
}

func TestGroupCheck(t *testing.T) {
	probs := mat.NewDense(2, 4, []float64{0.1, 0.2, 0.3, 0.4, 0.4, 0.3, 0.2, 0.1})
	labels := []int{0, 3}

	_, _, err := Group(probs, labels, [][]int{{0, 1}, {2}}, true)
	assert.True(t, errors.Is(err, errs.ErrShape))

	_, _, err = Group(probs, labels, [][]int{{0, 1}, {1, 2}}, true)
	assert.True(t, errors.Is(err, errs.ErrShape))

	_, _, err = Group(probs, labels, [][]int{{0, 4}, {1, 2, 3}}, false)
	assert.True(t, errors.Is(err, errs.ErrShape))

	groupProbs, groupLabels, err := Group(probs, labels, [][]int{{0, 1}, {2}}, false)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, groupProbs.At(0, 0), 1e-12)
	assert.InDelta(t, 0.3, groupProbs.At(0, 1), 1e-12)
	assert.Equal(t, []int{0, 0}, groupLabels)

	_, _, err = Group(probs, []int{0}, [][]int{{0, 1}, {2, 3}}, true)
	assert.True(t, errors.Is(err, errs.ErrShape))
}

func TestMaximum(t *testing.T) {
	probs, labels, onehot := createTestData(t)

	maxProbs, maxLabels, err := Maximum(probs, labels)
	require.NoError(t, err)
	_, w := maxProbs.Dims()
	require.Equal(t, 2, w)
	assertRowsSumToOne(t, maxProbs)

	row := make([]float64, testClasses)
	for p := 0; p < testSamples; p++ {
		mat.Row(row, p, probs)
		require.Equal(t, floats.Max(row), maxProbs.At(p, 0))
		require.Equal(t, floats.MaxIdx(row) == labels[p], maxLabels[p] == 0)
	}

	onehotProbs, onehotOutcomes, err := MaximumOneHot(probs, onehot)
	require.NoError(t, err)
	assert.True(t, mat.Equal(maxProbs, onehotProbs))
	want, err := sample.OneHot(maxLabels, 2)
	require.NoError(t, err)
	assert.True(t, mat.Equal(want, onehotOutcomes))

	lensProbs, lensLabels, err := MaximumLens{}.Apply(probs, labels)
	require.NoError(t, err)
	assert.True(t, mat.Equal(maxProbs, lensProbs))
	assert.Equal(t, maxLabels, lensLabels)
}

func TestMaximumBinaryVector(t *testing.T) {
	probs, labels, _ := createTestData(t)

	first := mat.NewVecDense(testSamples, mat.Col(nil, 0, probs))
	full := mat.NewDense(testSamples, 2, nil)
	binaryLabels := make([]int, testSamples)
	for p := 0; p < testSamples; p++ {
		full.Set(p, 0, first.AtVec(p))
		full.Set(p, 1, 1-first.AtVec(p))
		if labels[p] != 0 {
			binaryLabels[p] = 1
		}
	}

	vectorProbs, vectorLabels, err := Maximum(first, binaryLabels)
	require.NoError(t, err)
	fullProbs, fullLabels, err := Maximum(full, binaryLabels)
	require.NoError(t, err)

	assert.True(t, mat.Equal(vectorProbs, fullProbs))
	assert.Equal(t, fullLabels, vectorLabels)
	for p := 0; p < testSamples; p++ {
		require.GreaterOrEqual(t, vectorProbs.At(p, 0), 0.5)
	}
}

func TestTop2(t *testing.T) {
	probs, labels, onehot := createTestData(t)

	topProbs, topLabels, err := Top2(probs, labels)
	require.NoError(t, err)
	_, w := topProbs.Dims()
	require.Equal(t, 3, w)
	assertRowsSumToOne(t, topProbs)

	row := make([]float64, testClasses)
	for p := 0; p < testSamples; p++ {
		mat.Row(row, p, probs)
		require.Equal(t, floats.Max(row), topProbs.At(p, 0))
		require.GreaterOrEqual(t, topProbs.At(p, 0), topProbs.At(p, 1))
		require.Equal(t, floats.MaxIdx(row) == labels[p], topLabels[p] == 0)
		require.Contains(t, []int{0, 1, 2}, topLabels[p])
	}

	onehotProbs, onehotOutcomes, err := Top2OneHot(probs, onehot)
	require.NoError(t, err)
	assert.True(t, mat.Equal(topProbs, onehotProbs))
	want, err := sample.OneHot(topLabels, 3)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(want, onehotOutcomes, 1e-12))
}

func TestTop2Example(t *testing.T) {
	probs := mat.NewDense(3, 4, []float64{
		0.1, 0.5, 0.3, 0.1,
		0.4, 0.4, 0.1, 0.1,
		0.7, 0.1, 0.1, 0.1,
	})
	topProbs, topLabels, err := Top2(probs, []int{2, 1, 3})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 2}, topLabels)
	assert.Equal(t, []float64{0.5, 0.3}, mat.Row(nil, 0, topProbs)[:2])
	assert.InDelta(t, 0.2, topProbs.At(0, 2), 1e-12)
}

func TestLensShapeErrors(t *testing.T) {
	probs := mat.NewDense(2, 3, []float64{0.2, 0.3, 0.5, 0.6, 0.3, 0.1})

	_, _, err := Maximum(probs, []int{0})
	assert.True(t, errors.Is(err, errs.ErrShape))
	_, _, err = Top2(probs, []int{0, 3})
	assert.True(t, errors.Is(err, errs.ErrShape))
	_, _, err = MaximumOneHot(probs, mat.NewDense(2, 4, nil))
	assert.True(t, errors.Is(err, errs.ErrShape))
	_, _, err = Top2OneHot(probs, mat.NewDense(3, 3, nil))
	assert.True(t, errors.Is(err, errs.ErrShape))
}

func TestByName(t *testing.T) {
	for name, want := range map[string]string{
		"":         "IdentityLens()",
		"identity": "IdentityLens()",
		"maximum":  "MaximumLens()",
		"top2":     "Top2Lens()",
	} {
		lens, err := ByName(name, 5, 2)
		require.NoError(t, err)
		assert.Equal(t, want, fmt.Sprint(lens))
	}

	_, err := ByName("top3", 5, 2)
	assert.True(t, errors.Is(err, errs.ErrInvalidParameter))
	_, err = ByName("group", 5, 0)
	assert.True(t, errors.Is(err, errs.ErrInvalidParameter))
}
